package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/relieflabs/go-drms/internal/models"
	"github.com/relieflabs/go-drms/internal/repository"
)

type createAssessmentRequest struct {
	// ID is optional; offline clients supply their own so resubmitted
	// batches stay idempotent.
	ID         string          `json:"id"`
	Type       string          `json:"type" binding:"required"`
	EntityID   string          `json:"entity_id" binding:"required"`
	IncidentID string          `json:"incident_id" binding:"required"`
	Details    json.RawMessage `json:"details" binding:"required"`
}

// buildAssessment validates the request against the referenced entity and
// incident and returns a DRAFT assessment ready to persist.
func (h *Handler) buildAssessment(c *gin.Context, req createAssessmentRequest, assessorID string) (*models.RapidAssessment, bool) {
	typ, ok := models.ParseAssessmentType(req.Type)
	if !ok {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "unknown assessment type", gin.H{"type": req.Type})
		return nil, false
	}
	if _, err := h.store.GetEntity(c.Request.Context(), req.EntityID); err != nil {
		fail(c, err)
		return nil, false
	}
	if _, err := h.store.GetIncident(c.Request.Context(), req.IncidentID); err != nil {
		fail(c, err)
		return nil, false
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
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "details do not match assessment type", gin.H{"error": err.Error()})
		return nil, false
	}
	return a, true
}

func (h *Handler) createAssessment(c *gin.Context) {
	var req createAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	a, ok := h.buildAssessment(c, req, currentUser(c).ID)
	if !ok {
		return
	}
	if err := h.store.AddAssessment(c.Request.Context(), a); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, toAssessmentView(a))
}

func (h *Handler) getAssessment(c *gin.Context) {
	a, err := h.store.GetAssessment(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, toAssessmentView(a))
}

func (h *Handler) listAssessments(c *gin.Context) {
	limit, offset := pagination(c)
	filter := repository.AssessmentFilter{
		Limit:      limit,
		Offset:     offset,
		EntityID:   c.Query("entity_id"),
		IncidentID: c.Query("incident_id"),
		AssessorID: c.Query("assessor_id"),
	}
	if t := c.Query("type"); t != "" {
		typ, ok := models.ParseAssessmentType(t)
		if !ok {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "unknown assessment type", gin.H{"type": t})
			return
		}
		filter.Type = &typ
	}
	if s := c.Query("status"); s != "" {
		st, ok := models.ParseVerificationStatus(s)
		if !ok {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "unknown status", gin.H{"status": s})
			return
		}
		filter.Status = &st
	}
	if since := c.Query("since"); since != "" {
		if t, err := time.Parse("2006-01-02", since); err == nil {
			filter.Since = &t
		}
	}

	assessments, err := h.store.ListAssessments(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, toAssessmentViews(assessments))
}

type detailsRequest struct {
	Details json.RawMessage `json:"details" binding:"required"`
}

func (h *Handler) updateAssessmentDetails(c *gin.Context) {
	var req detailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	a, err := h.store.GetAssessment(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	probe := *a
	probe.Details = req.Details
	if _, err := probe.DecodeDetails(); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "details do not match assessment type", gin.H{"error": err.Error()})
		return
	}

	if err := h.store.UpdateAssessmentDetails(c.Request.Context(), a.ID, req.Details); err != nil {
		fail(c, err)
		return
	}
	a, err = h.store.GetAssessment(c.Request.Context(), a.ID)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, toAssessmentView(a))
}

func (h *Handler) submitAssessment(c *gin.Context) {
	a, err := h.engine.SubmitAssessment(c.Request.Context(), c.Param("id"), currentUser(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, toAssessmentView(a))
}

func (h *Handler) verifyAssessment(c *gin.Context) {
	a, err := h.engine.VerifyAssessment(c.Request.Context(), c.Param("id"), currentUser(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, toAssessmentView(a))
}

type rejectRequest struct {
	Reason string `json:"reason" binding:"required"`
	Notes  string `json:"notes" binding:"required"`
}

func (h *Handler) rejectAssessment(c *gin.Context) {
	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	a, err := h.engine.RejectAssessment(c.Request.Context(), c.Param("id"), currentUser(c).ID, req.Reason, req.Notes)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, toAssessmentView(a))
}

func (h *Handler) assessmentGaps(c *gin.Context) {
	gaps, err := h.engine.PreviewGaps(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"gaps": gaps, "count": len(gaps)})
}
