package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/relieflabs/go-drms/internal/models"
)

type entityRequest struct {
	Name      string   `json:"name" binding:"required"`
	Kind      string   `json:"kind" binding:"required"`
	LGA       string   `json:"lga"`
	Ward      string   `json:"ward"`
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

func (h *Handler) createEntity(c *gin.Context) {
	var req entityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	kind, ok := models.ParseEntityKind(req.Kind)
	if !ok {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "unknown entity kind", gin.H{"kind": req.Kind})
		return
	}

	now := time.Now()
	e := &models.Entity{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Kind:      kind,
		LGA:       req.LGA,
		Ward:      req.Ward,
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
		// New entities always start on the manual verification path.
		AutoApproval: models.AutoApprovalRule{BlockOnCriticalGap: true},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.store.AddEntity(c.Request.Context(), e); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, toEntityView(e))
}

func (h *Handler) getEntity(c *gin.Context) {
	e, err := h.store.GetEntity(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, toEntityView(e))
}

func (h *Handler) listEntities(c *gin.Context) {
	limit, offset := pagination(c)
	entities, err := h.store.ListEntities(c.Request.Context(), limit, offset)
	if err != nil {
		fail(c, err)
		return
	}
	views := make([]entityView, 0, len(entities))
	for i := range entities {
		views = append(views, toEntityView(&entities[i]))
	}
	respond(c, http.StatusOK, views)
}

func (h *Handler) updateEntity(c *gin.Context) {
	var req entityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	kind, ok := models.ParseEntityKind(req.Kind)
	if !ok {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "unknown entity kind", gin.H{"kind": req.Kind})
		return
	}

	e, err := h.store.GetEntity(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	e.Name = req.Name
	e.Kind = kind
	e.LGA = req.LGA
	e.Ward = req.Ward
	e.Latitude = *req.Latitude
	e.Longitude = *req.Longitude
	e.UpdatedAt = time.Now()

	if err := h.store.UpdateEntity(c.Request.Context(), e); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, toEntityView(e))
}

func (h *Handler) getAutoApproval(c *gin.Context) {
	e, err := h.store.GetEntity(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, e.AutoApproval)
}

type autoApprovalRequest struct {
	Enabled            bool     `json:"enabled"`
	AssessmentTypes    []string `json:"assessment_types"`
	BlockOnCriticalGap bool     `json:"block_on_critical_gap"`
}

func (h *Handler) setAutoApproval(c *gin.Context) {
	var req autoApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	types := make([]models.AssessmentType, 0, len(req.AssessmentTypes))
	for _, t := range req.AssessmentTypes {
		at, ok := models.ParseAssessmentType(t)
		if !ok {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "unknown assessment type", gin.H{"type": t})
			return
		}
		types = append(types, at)
	}

	rule := models.AutoApprovalRule{
		Enabled:            req.Enabled,
		AssessmentTypes:    types,
		BlockOnCriticalGap: req.BlockOnCriticalGap,
	}
	if err := h.store.SetAutoApproval(c.Request.Context(), c.Param("id"), rule); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, rule)
}
