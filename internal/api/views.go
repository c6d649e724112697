package api

import (
	"encoding/json"
	"time"

	"github.com/relieflabs/go-drms/internal/models"
)

type entityView struct {
	ID           string                  `json:"id"`
	Name         string                  `json:"name"`
	Kind         models.EntityKind       `json:"kind"`
	LGA          string                  `json:"lga,omitempty"`
	Ward         string                  `json:"ward,omitempty"`
	Latitude     float64                 `json:"latitude"`
	Longitude    float64                 `json:"longitude"`
	AutoApproval models.AutoApprovalRule `json:"auto_approval"`
	CreatedAt    time.Time               `json:"created_at"`
	UpdatedAt    time.Time               `json:"updated_at"`
}

func toEntityView(e *models.Entity) entityView {
	return entityView{
		ID: e.ID, Name: e.Name, Kind: e.Kind, LGA: e.LGA, Ward: e.Ward,
		Latitude: e.Latitude, Longitude: e.Longitude, AutoApproval: e.AutoApproval,
		CreatedAt: e.CreatedAt, UpdatedAt: e.UpdatedAt,
	}
}

type incidentView struct {
	ID          string                  `json:"id"`
	Name        string                  `json:"name"`
	HazardType  string                  `json:"hazard_type"`
	Severity    models.IncidentSeverity `json:"severity"`
	Status      models.IncidentStatus   `json:"status"`
	Description string                  `json:"description,omitempty"`
	DeclaredAt  time.Time               `json:"declared_at"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

func toIncidentView(in *models.Incident) incidentView {
	return incidentView{
		ID: in.ID, Name: in.Name, HazardType: in.HazardType, Severity: in.Severity,
		Status: in.Status, Description: in.Description, DeclaredAt: in.DeclaredAt,
		CreatedAt: in.CreatedAt, UpdatedAt: in.UpdatedAt,
	}
}

type assessmentView struct {
	ID              string                    `json:"id"`
	Type            models.AssessmentType     `json:"type"`
	EntityID        string                    `json:"entity_id"`
	IncidentID      string                    `json:"incident_id"`
	AssessorID      string                    `json:"assessor_id"`
	Status          models.VerificationStatus `json:"status"`
	Details         json.RawMessage           `json:"details"`
	VerifierID      string                    `json:"verifier_id,omitempty"`
	VerifiedAt      *time.Time                `json:"verified_at,omitempty"`
	RejectionReason string                    `json:"rejection_reason,omitempty"`
	RejectionNotes  string                    `json:"rejection_notes,omitempty"`
	CreatedAt       time.Time                 `json:"created_at"`
	UpdatedAt       time.Time                 `json:"updated_at"`
}

func toAssessmentView(a *models.RapidAssessment) assessmentView {
	return assessmentView{
		ID: a.ID, Type: a.Type, EntityID: a.EntityID, IncidentID: a.IncidentID,
		AssessorID: a.AssessorID, Status: a.Status, Details: a.Details,
		VerifierID: a.VerifierID, VerifiedAt: a.VerifiedAt,
		RejectionReason: a.RejectionReason, RejectionNotes: a.RejectionNotes,
		CreatedAt: a.CreatedAt, UpdatedAt: a.UpdatedAt,
	}
}

func toAssessmentViews(list []models.RapidAssessment) []assessmentView {
	views := make([]assessmentView, 0, len(list))
	for i := range list {
		views = append(views, toAssessmentView(&list[i]))
	}
	return views
}

type responseView struct {
	ID              string                    `json:"id"`
	AssessmentID    string                    `json:"assessment_id"`
	EntityID        string                    `json:"entity_id"`
	IncidentID      string                    `json:"incident_id"`
	ResponderID     string                    `json:"responder_id"`
	Status          models.VerificationStatus `json:"status"`
	DeliveryStatus  models.DeliveryStatus     `json:"delivery_status"`
	PlannedItems    []models.ResponseItem     `json:"planned_items"`
	DeliveredItems  []models.ResponseItem     `json:"delivered_items,omitempty"`
	PlannedDate     time.Time                 `json:"planned_date"`
	DeliveredAt     *time.Time                `json:"delivered_at,omitempty"`
	VerifierID      string                    `json:"verifier_id,omitempty"`
	VerifiedAt      *time.Time                `json:"verified_at,omitempty"`
	RejectionReason string                    `json:"rejection_reason,omitempty"`
	RejectionNotes  string                    `json:"rejection_notes,omitempty"`
	CreatedAt       time.Time                 `json:"created_at"`
	UpdatedAt       time.Time                 `json:"updated_at"`
}

func toResponseView(r *models.Response) responseView {
	return responseView{
		ID: r.ID, AssessmentID: r.AssessmentID, EntityID: r.EntityID,
		IncidentID: r.IncidentID, ResponderID: r.ResponderID, Status: r.Status,
		DeliveryStatus: r.DeliveryStatus, PlannedItems: r.PlannedItems,
		DeliveredItems: r.DeliveredItems, PlannedDate: r.PlannedDate,
		DeliveredAt: r.DeliveredAt, VerifierID: r.VerifierID, VerifiedAt: r.VerifiedAt,
		RejectionReason: r.RejectionReason, RejectionNotes: r.RejectionNotes,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

type donorView struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Organization string    `json:"organization,omitempty"`
	Email        string    `json:"email,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	UserID       string    `json:"user_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func toDonorView(d *models.Donor) donorView {
	return donorView{
		ID: d.ID, Name: d.Name, Organization: d.Organization,
		Email: d.Email, Phone: d.Phone, UserID: d.UserID, CreatedAt: d.CreatedAt,
	}
}

type commitmentView struct {
	ID          string                  `json:"id"`
	DonorID     string                  `json:"donor_id"`
	IncidentID  string                  `json:"incident_id"`
	EntityID    string                  `json:"entity_id,omitempty"`
	Items       []models.ResponseItem   `json:"items"`
	Status      models.CommitmentStatus `json:"status"`
	PledgedAt   time.Time               `json:"pledged_at"`
	DeliveredAt *time.Time              `json:"delivered_at,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

func toCommitmentView(cm *models.DonorCommitment) commitmentView {
	return commitmentView{
		ID: cm.ID, DonorID: cm.DonorID, IncidentID: cm.IncidentID,
		EntityID: cm.EntityID, Items: cm.Items, Status: cm.Status,
		PledgedAt: cm.PledgedAt, DeliveredAt: cm.DeliveredAt,
		CreatedAt: cm.CreatedAt, UpdatedAt: cm.UpdatedAt,
	}
}

type auditView struct {
	ID         string            `json:"id"`
	ActorID    string            `json:"actor_id"`
	Action     string            `json:"action"`
	RecordKind models.RecordKind `json:"record_kind"`
	RecordID   string            `json:"record_id"`
	Detail     string            `json:"detail,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

func toAuditView(e *models.AuditLogEntry) auditView {
	return auditView{
		ID: e.ID, ActorID: e.ActorID, Action: e.Action, RecordKind: e.RecordKind,
		RecordID: e.RecordID, Detail: e.Detail, CreatedAt: e.CreatedAt,
	}
}

type userView struct {
	ID        string        `json:"id"`
	Email     string        `json:"email"`
	Name      string        `json:"name"`
	Roles     []models.Role `json:"roles"`
	Active    bool          `json:"active"`
	CreatedAt time.Time     `json:"created_at"`
}

func toUserView(u *models.User) userView {
	return userView{
		ID: u.ID, Email: u.Email, Name: u.Name, Roles: u.Roles,
		Active: u.Active, CreatedAt: u.CreatedAt,
	}
}
