package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/relieflabs/go-drms/internal/models"
	"github.com/relieflabs/go-drms/internal/repository"
)

// dashboardSummary aggregates verification progress, gap severities and
// commitment totals, optionally scoped to one incident.
func (h *Handler) dashboardSummary(c *gin.Context) {
	ctx := c.Request.Context()
	incidentID := c.Query("incident_id")

	assessments, err := h.store.ListAssessments(ctx, repository.AssessmentFilter{
		IncidentID: incidentID,
		Limit:      maxLimit,
	})
	if err != nil {
		fail(c, err)
		return
	}

	byStatus := map[models.VerificationStatus]int{}
	byType := map[models.AssessmentType]int{}
	for _, a := range assessments {
		byStatus[a.Status]++
		byType[a.Type]++
	}

	summaries, err := h.store.ListGapSummaries(ctx, incidentID)
	if err != nil {
		fail(c, err)
		return
	}
	gaps := gin.H{"critical": 0, "high": 0, "moderate": 0, "low": 0}
	for _, s := range summaries {
		gaps["critical"] = gaps["critical"].(int) + s.CriticalGaps
		gaps["high"] = gaps["high"].(int) + s.HighGaps
		gaps["moderate"] = gaps["moderate"].(int) + s.ModerateGaps
		gaps["low"] = gaps["low"].(int) + s.LowGaps
	}

	commitments, err := h.store.ListCommitments(ctx, repository.CommitmentFilter{
		IncidentID: incidentID,
		Limit:      maxLimit,
	})
	if err != nil {
		fail(c, err)
		return
	}
	pledged, delivered := 0, 0
	for _, cm := range commitments {
		if cm.Status == models.CommitmentStatusDelivered {
			delivered++
		} else {
			pledged++
		}
	}

	respond(c, http.StatusOK, gin.H{
		"assessments": gin.H{
			"total":     len(assessments),
			"by_status": byStatus,
			"by_type":   byType,
		},
		"gaps": gaps,
		"commitments": gin.H{
			"pledged":   pledged,
			"delivered": delivered,
		},
	})
}

// dashboardMap returns entities as a GeoJSON FeatureCollection with their
// gap rollups, for the coordinator map view.
func (h *Handler) dashboardMap(c *gin.Context) {
	ctx := c.Request.Context()
	incidentID := c.Query("incident_id")

	entities, err := h.store.ListEntities(ctx, maxLimit, 0)
	if err != nil {
		fail(c, err)
		return
	}
	summaries, err := h.store.ListGapSummaries(ctx, incidentID)
	if err != nil {
		fail(c, err)
		return
	}

	byEntity := make(map[string]models.GapSummary, len(summaries))
	for _, s := range summaries {
		byEntity[s.EntityID] = s
	}

	fc := toEntityGeoJSON(entities, byEntity)
	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, fc)
}

func (h *Handler) listAudit(c *gin.Context) {
	limit, _ := pagination(c)
	entries, err := h.store.ListAuditEntries(c.Request.Context(), repository.AuditFilter{
		Limit:      limit,
		RecordKind: models.RecordKind(c.Query("record_kind")),
		RecordID:   c.Query("record_id"),
		ActorID:    c.Query("actor_id"),
	})
	if err != nil {
		fail(c, err)
		return
	}
	views := make([]auditView, 0, len(entries))
	for i := range entries {
		views = append(views, toAuditView(&entries[i]))
	}
	respond(c, http.StatusOK, views)
}
