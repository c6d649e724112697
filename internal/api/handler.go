package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/relieflabs/go-drms/internal/auth"
	"github.com/relieflabs/go-drms/internal/events"
	"github.com/relieflabs/go-drms/internal/locks"
	"github.com/relieflabs/go-drms/internal/metrics"
	"github.com/relieflabs/go-drms/internal/models"
	"github.com/relieflabs/go-drms/internal/repository"
	"github.com/relieflabs/go-drms/internal/verification"
)

// Store is the full persistence surface the API depends on. *SQLiteDB
// satisfies it.
type Store interface {
	repository.EntityRepository
	repository.IncidentRepository
	repository.AssessmentRepository
	repository.ResponseRepository
	repository.DonorRepository
	repository.UserRepository
	repository.AuditRepository
	repository.SummaryRepository
}

type Handler struct {
	store       Store
	engine      *verification.Engine
	auth        *auth.Service
	locks       *locks.Manager
	broadcaster *events.Broadcaster
}

func NewHandler(store Store, engine *verification.Engine, authSvc *auth.Service, lockMgr *locks.Manager, broadcaster *events.Broadcaster) *Handler {
	return &Handler{
		store:       store,
		engine:      engine,
		auth:        authSvc,
		locks:       lockMgr,
		broadcaster: broadcaster,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine, m *metrics.Metrics) {
	r.GET("/healthz", h.health)
	if m != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}

	v1 := r.Group("/api/v1")
	v1.POST("/auth/login", h.login)

	authed := v1.Group("")
	authed.Use(h.AuthMiddleware())

	authed.POST("/auth/logout", h.logout)
	authed.GET("/auth/me", h.me)

	authed.GET("/entities", h.listEntities)
	authed.GET("/entities/:id", h.getEntity)
	authed.GET("/entities/:id/auto-approval", h.getAutoApproval)
	coordinator := authed.Group("", RequireRoles(models.RoleCoordinator, models.RoleAdmin))
	coordinator.POST("/entities", h.createEntity)
	coordinator.PUT("/entities/:id", h.updateEntity)
	coordinator.PUT("/entities/:id/auto-approval", h.setAutoApproval)
	coordinator.POST("/incidents", h.createIncident)
	coordinator.PUT("/incidents/:id", h.updateIncident)
	coordinator.GET("/audit", h.listAudit)
	authed.GET("/events/stream", h.streamEvents)

	authed.GET("/incidents", h.listIncidents)
	authed.GET("/incidents/:id", h.getIncident)

	authed.GET("/assessments", h.listAssessments)
	authed.GET("/assessments/:id", h.getAssessment)
	authed.GET("/assessments/:id/gaps", h.assessmentGaps)
	assessor := authed.Group("", RequireRoles(models.RoleAssessor, models.RoleAdmin))
	assessor.POST("/assessments", h.createAssessment)
	assessor.PUT("/assessments/:id/details", h.updateAssessmentDetails)
	assessor.POST("/assessments/:id/submit", h.submitAssessment)
	assessor.POST("/sync", h.syncBatch)
	coordinator.POST("/assessments/:id/verify", h.verifyAssessment)
	coordinator.POST("/assessments/:id/reject", h.rejectAssessment)

	authed.GET("/responses", h.listResponses)
	authed.GET("/responses/:id", h.getResponse)
	responder := authed.Group("", RequireRoles(models.RoleResponder, models.RoleAdmin))
	responder.POST("/responses", h.createResponse)
	responder.PUT("/responses/:id/plan", h.updateResponsePlan)
	responder.POST("/responses/:id/submit", h.submitResponse)
	responder.POST("/responses/:id/deliver", h.deliverResponse)
	responder.POST("/responses/:id/lock", h.acquireResponseLock)
	responder.DELETE("/responses/:id/lock", h.releaseResponseLock)
	coordinator.POST("/responses/:id/verify", h.verifyResponse)
	coordinator.POST("/responses/:id/reject", h.rejectResponse)

	authed.GET("/donors", h.listDonors)
	authed.GET("/donors/:id", h.getDonor)
	coordinator.POST("/donors", h.createDonor)
	authed.GET("/commitments", h.listCommitments)
	authed.GET("/commitments/:id", h.getCommitment)
	donor := authed.Group("", RequireRoles(models.RoleDonor, models.RoleCoordinator, models.RoleAdmin))
	donor.POST("/commitments", h.createCommitment)
	donor.POST("/commitments/:id/deliver", h.deliverCommitment)

	admin := authed.Group("", RequireRoles(models.RoleAdmin))
	admin.POST("/users", h.createUser)
	admin.GET("/users", h.listUsers)
	admin.PATCH("/users/:id/active", h.setUserActive)

	authed.GET("/dashboard/summary", h.dashboardSummary)
	authed.GET("/dashboard/map", h.dashboardMap)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok"})
}
