package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/relieflabs/go-drms/internal/models"
	"github.com/relieflabs/go-drms/internal/repository"
)

type createResponseRequest struct {
	AssessmentID string                `json:"assessment_id" binding:"required"`
	PlannedItems []models.ResponseItem `json:"planned_items" binding:"required,min=1,dive"`
	PlannedDate  *time.Time            `json:"planned_date"`
}

func (h *Handler) createResponse(c *gin.Context) {
	var req createResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	planned := time.Now()
	if req.PlannedDate != nil {
		planned = *req.PlannedDate
	}
	r := &models.Response{
		ID:           uuid.NewString(),
		AssessmentID: req.AssessmentID,
		ResponderID:  currentUser(c).ID,
		PlannedItems: req.PlannedItems,
		PlannedDate:  planned,
	}
	if err := h.engine.CreateResponse(c.Request.Context(), r); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, toResponseView(r))
}

func (h *Handler) getResponse(c *gin.Context) {
	r, err := h.store.GetResponse(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, toResponseView(r))
}

func (h *Handler) listResponses(c *gin.Context) {
	limit, offset := pagination(c)
	filter := repository.ResponseFilter{
		Limit:        limit,
		Offset:       offset,
		EntityID:     c.Query("entity_id"),
		IncidentID:   c.Query("incident_id"),
		AssessmentID: c.Query("assessment_id"),
		ResponderID:  c.Query("responder_id"),
	}
	if s := c.Query("status"); s != "" {
		st, ok := models.ParseVerificationStatus(s)
		if !ok {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "unknown status", gin.H{"status": s})
			return
		}
		filter.Status = &st
	}
	if ds := c.Query("delivery_status"); ds != "" {
		d, ok := models.ParseDeliveryStatus(ds)
		if !ok {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "unknown delivery status", gin.H{"delivery_status": ds})
			return
		}
		filter.DeliveryStatus = &d
	}

	responses, err := h.store.ListResponses(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}
	views := make([]responseView, 0, len(responses))
	for i := range responses {
		views = append(views, toResponseView(&responses[i]))
	}
	respond(c, http.StatusOK, views)
}

type updatePlanRequest struct {
	PlannedItems []models.ResponseItem `json:"planned_items" binding:"required,min=1,dive"`
	PlannedDate  *time.Time            `json:"planned_date"`
}

// updateResponsePlan requires the caller to hold the edit lock when someone
// else has taken it.
func (h *Handler) updateResponsePlan(c *gin.Context) {
	var req updatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	id := c.Param("id")
	userID := currentUser(c).ID
	if holder, held := h.locks.Holder(id); held && holder != userID {
		respondError(c, http.StatusConflict, "LOCKED", "response is being edited by another user", gin.H{"holder": holder})
		return
	}

	r, err := h.store.GetResponse(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	planned := r.PlannedDate
	if req.PlannedDate != nil {
		planned = *req.PlannedDate
	}

	if err := h.store.UpdateResponsePlan(c.Request.Context(), id, req.PlannedItems, planned); err != nil {
		fail(c, err)
		return
	}
	r, err = h.store.GetResponse(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, toResponseView(r))
}

func (h *Handler) submitResponse(c *gin.Context) {
	r, err := h.engine.SubmitResponse(c.Request.Context(), c.Param("id"), currentUser(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, toResponseView(r))
}

func (h *Handler) verifyResponse(c *gin.Context) {
	r, err := h.engine.VerifyResponse(c.Request.Context(), c.Param("id"), currentUser(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, toResponseView(r))
}

func (h *Handler) rejectResponse(c *gin.Context) {
	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	r, err := h.engine.RejectResponse(c.Request.Context(), c.Param("id"), currentUser(c).ID, req.Reason, req.Notes)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, toResponseView(r))
}

type deliverRequest struct {
	Items []models.ResponseItem `json:"items" binding:"required,min=1,dive"`
}

func (h *Handler) deliverResponse(c *gin.Context) {
	var req deliverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	r, err := h.engine.RecordDelivery(c.Request.Context(), c.Param("id"), currentUser(c).ID, req.Items)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, toResponseView(r))
}

func (h *Handler) acquireResponseLock(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.store.GetResponse(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}

	ok, holder, expiresAt := h.locks.Acquire(id, currentUser(c).ID)
	if !ok {
		respondError(c, http.StatusConflict, "LOCKED", "response is being edited by another user", gin.H{"holder": holder})
		return
	}
	respond(c, http.StatusOK, gin.H{"locked": true, "holder": holder, "expires_at": expiresAt})
}

func (h *Handler) releaseResponseLock(c *gin.Context) {
	released := h.locks.Release(c.Param("id"), currentUser(c).ID)
	respond(c, http.StatusOK, gin.H{"released": released})
}
