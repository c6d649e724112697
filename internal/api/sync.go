package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/relieflabs/go-drms/internal/models"
)

type syncItem struct {
	ClientRef  string                  `json:"client_ref" binding:"required"`
	Assessment createAssessmentRequest `json:"assessment" binding:"required"`
	// Submit pushes the record into the verification queue immediately, so
	// auto-approval applies to offline-collected assessments too.
	Submit bool `json:"submit"`
}

type syncRequest struct {
	Items []syncItem `json:"items" binding:"required,min=1,max=100,dive"`
}

type syncResult struct {
	ClientRef string `json:"client_ref"`
	ID        string `json:"id,omitempty"`
	Status    string `json:"status"` // created | duplicate | error
	Error     string `json:"error,omitempty"`
}

// syncBatch is the receiving end of the offline queue: each item is
// processed independently and already-known IDs are reported as duplicates,
// so clients can safely resend a whole batch.
func (h *Handler) syncBatch(c *gin.Context) {
	var req syncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	ctx := c.Request.Context()
	assessorID := currentUser(c).ID
	results := make([]syncResult, 0, len(req.Items))

	for _, item := range req.Items {
		res := syncResult{ClientRef: item.ClientRef}

		if item.Assessment.ID != "" {
			exists, err := h.store.AssessmentExists(ctx, item.Assessment.ID)
			if err != nil {
				res.Status = "error"
				res.Error = "existence check failed"
				results = append(results, res)
				continue
			}
			if exists {
				res.Status = "duplicate"
				res.ID = item.Assessment.ID
				results = append(results, res)
				continue
			}
		}

		a, err := h.buildSyncAssessment(ctx, item.Assessment, assessorID)
		if err != nil {
			res.Status = "error"
			res.Error = err.Error()
			results = append(results, res)
			continue
		}
		if err := h.store.AddAssessment(ctx, a); err != nil {
			res.Status = "error"
			res.Error = "insert failed"
			results = append(results, res)
			continue
		}
		if item.Submit {
			if _, err := h.engine.SubmitAssessment(ctx, a.ID, assessorID); err != nil {
				res.Status = "error"
				res.ID = a.ID
				res.Error = "stored but submit failed"
				results = append(results, res)
				continue
			}
		}

		res.Status = "created"
		res.ID = a.ID
		results = append(results, res)
	}

	respond(c, http.StatusOK, gin.H{"results": results})
}

// buildSyncAssessment validates one batch item without touching the HTTP
// response, so one bad item doesn't fail the whole batch.
func (h *Handler) buildSyncAssessment(ctx context.Context, req createAssessmentRequest, assessorID string) (*models.RapidAssessment, error) {
	typ, ok := models.ParseAssessmentType(req.Type)
	if !ok {
		return nil, fmt.Errorf("unknown assessment type: %s", req.Type)
	}
	if req.EntityID == "" || req.IncidentID == "" || len(req.Details) == 0 {
		return nil, fmt.Errorf("entity_id, incident_id and details are required")
	}
	if _, err := h.store.GetEntity(ctx, req.EntityID); err != nil {
		return nil, fmt.Errorf("unknown entity: %s", req.EntityID)
	}
	if _, err := h.store.GetIncident(ctx, req.IncidentID); err != nil {
		return nil, fmt.Errorf("unknown incident: %s", req.IncidentID)
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now()
	a := &models.RapidAssessment{
		ID:         id,
		Type:       typ,
		EntityID:   req.EntityID,
		IncidentID: req.IncidentID,
		AssessorID: assessorID,
		Status:     models.StatusDraft,
		Details:    req.Details,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := a.DecodeDetails(); err != nil {
		return nil, err
	}
	return a, nil
}
