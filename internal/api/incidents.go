package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/relieflabs/go-drms/internal/models"
)

type incidentRequest struct {
	Name        string     `json:"name" binding:"required"`
	HazardType  string     `json:"hazard_type" binding:"required"`
	Severity    string     `json:"severity" binding:"required"`
	Status      string     `json:"status"`
	Description string     `json:"description"`
	DeclaredAt  *time.Time `json:"declared_at"`
}

func (h *Handler) createIncident(c *gin.Context) {
	var req incidentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	severity, ok := models.ParseIncidentSeverity(req.Severity)
	if !ok {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "unknown severity", gin.H{"severity": req.Severity})
		return
	}
	status := models.IncidentStatusActive
	if req.Status != "" {
		if status, ok = models.ParseIncidentStatus(req.Status); !ok {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "unknown status", gin.H{"status": req.Status})
			return
		}
	}

	now := time.Now()
	declared := now
	if req.DeclaredAt != nil {
		declared = *req.DeclaredAt
	}
	in := &models.Incident{
		ID:          uuid.NewString(),
		Name:        req.Name,
		HazardType:  req.HazardType,
		Severity:    severity,
		Status:      status,
		Description: req.Description,
		DeclaredAt:  declared,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.store.AddIncident(c.Request.Context(), in); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, toIncidentView(in))
}

func (h *Handler) getIncident(c *gin.Context) {
	in, err := h.store.GetIncident(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, toIncidentView(in))
}

func (h *Handler) listIncidents(c *gin.Context) {
	limit, offset := pagination(c)

	var status *models.IncidentStatus
	if s := c.Query("status"); s != "" {
		st, ok := models.ParseIncidentStatus(s)
		if !ok {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "unknown status", gin.H{"status": s})
			return
		}
		status = &st
	}

	incidents, err := h.store.ListIncidents(c.Request.Context(), status, limit, offset)
	if err != nil {
		fail(c, err)
		return
	}
	views := make([]incidentView, 0, len(incidents))
	for i := range incidents {
		views = append(views, toIncidentView(&incidents[i]))
	}
	respond(c, http.StatusOK, views)
}

func (h *Handler) updateIncident(c *gin.Context) {
	var req incidentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	in, err := h.store.GetIncident(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	severity, ok := models.ParseIncidentSeverity(req.Severity)
	if !ok {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "unknown severity", gin.H{"severity": req.Severity})
		return
	}
	if req.Status != "" {
		status, ok := models.ParseIncidentStatus(req.Status)
		if !ok {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "unknown status", gin.H{"status": req.Status})
			return
		}
		in.Status = status
	}

	in.Name = req.Name
	in.HazardType = req.HazardType
	in.Severity = severity
	in.Description = req.Description
	in.UpdatedAt = time.Now()

	if err := h.store.UpdateIncident(c.Request.Context(), in); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, toIncidentView(in))
}
