package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/relieflabs/go-drms/internal/models"
	"github.com/relieflabs/go-drms/internal/repository"
)

type donorRequest struct {
	Name         string `json:"name" binding:"required"`
	Organization string `json:"organization"`
	Email        string `json:"email" binding:"omitempty,email"`
	Phone        string `json:"phone"`
	// UserID links the profile to the account that may manage its
	// commitments.
	UserID string `json:"user_id"`
}

// canActForDonor limits DONOR-role users to the donor profile linked to
// their account; coordinators and admins act for any donor.
func canActForDonor(u *models.User, d *models.Donor) bool {
	if u.HasAnyRole(models.RoleCoordinator, models.RoleAdmin) {
		return true
	}
	return d.UserID != "" && d.UserID == u.ID
}

func (h *Handler) createDonor(c *gin.Context) {
	var req donorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	d := &models.Donor{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Organization: req.Organization,
		Email:        req.Email,
		Phone:        req.Phone,
		UserID:       req.UserID,
		CreatedAt:    time.Now(),
	}
	if err := h.store.AddDonor(c.Request.Context(), d); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, toDonorView(d))
}

func (h *Handler) getDonor(c *gin.Context) {
	d, err := h.store.GetDonor(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, toDonorView(d))
}

func (h *Handler) listDonors(c *gin.Context) {
	limit, offset := pagination(c)
	donors, err := h.store.ListDonors(c.Request.Context(), limit, offset)
	if err != nil {
		fail(c, err)
		return
	}
	views := make([]donorView, 0, len(donors))
	for i := range donors {
		views = append(views, toDonorView(&donors[i]))
	}
	respond(c, http.StatusOK, views)
}

type commitmentRequest struct {
	DonorID    string                `json:"donor_id" binding:"required"`
	IncidentID string                `json:"incident_id" binding:"required"`
	EntityID   string                `json:"entity_id"`
	Items      []models.ResponseItem `json:"items" binding:"required,min=1,dive"`
	PledgedAt  *time.Time            `json:"pledged_at"`
}

func (h *Handler) createCommitment(c *gin.Context) {
	var req commitmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	d, err := h.store.GetDonor(c.Request.Context(), req.DonorID)
	if err != nil {
		fail(c, err)
		return
	}
	if !canActForDonor(currentUser(c), d) {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "donor profile is not linked to this account", nil)
		return
	}
	if _, err := h.store.GetIncident(c.Request.Context(), req.IncidentID); err != nil {
		fail(c, err)
		return
	}
	if req.EntityID != "" {
		if _, err := h.store.GetEntity(c.Request.Context(), req.EntityID); err != nil {
			fail(c, err)
			return
		}
	}

	now := time.Now()
	pledged := now
	if req.PledgedAt != nil {
		pledged = *req.PledgedAt
	}
	cm := &models.DonorCommitment{
		ID:         uuid.NewString(),
		DonorID:    req.DonorID,
		IncidentID: req.IncidentID,
		EntityID:   req.EntityID,
		Items:      req.Items,
		Status:     models.CommitmentStatusPlanned,
		PledgedAt:  pledged,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := h.store.AddCommitment(c.Request.Context(), cm); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, toCommitmentView(cm))
}

func (h *Handler) getCommitment(c *gin.Context) {
	cm, err := h.store.GetCommitment(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, toCommitmentView(cm))
}

func (h *Handler) listCommitments(c *gin.Context) {
	limit, offset := pagination(c)
	filter := repository.CommitmentFilter{
		Limit:      limit,
		Offset:     offset,
		DonorID:    c.Query("donor_id"),
		IncidentID: c.Query("incident_id"),
		EntityID:   c.Query("entity_id"),
	}
	if s := c.Query("status"); s != "" {
		st, ok := models.ParseCommitmentStatus(s)
		if !ok {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "unknown status", gin.H{"status": s})
			return
		}
		filter.Status = &st
	}

	commitments, err := h.store.ListCommitments(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}
	views := make([]commitmentView, 0, len(commitments))
	for i := range commitments {
		views = append(views, toCommitmentView(&commitments[i]))
	}
	respond(c, http.StatusOK, views)
}

func (h *Handler) deliverCommitment(c *gin.Context) {
	id := c.Param("id")
	cm, err := h.store.GetCommitment(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	d, err := h.store.GetDonor(c.Request.Context(), cm.DonorID)
	if err != nil {
		fail(c, err)
		return
	}
	if !canActForDonor(currentUser(c), d) {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "donor profile is not linked to this account", nil)
		return
	}

	if err := h.store.MarkCommitmentDelivered(c.Request.Context(), id, time.Now()); err != nil {
		fail(c, err)
		return
	}
	cm, err = h.store.GetCommitment(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, toCommitmentView(cm))
}
