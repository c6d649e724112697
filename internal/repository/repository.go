package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/relieflabs/go-drms/internal/models"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrStateConflict means the record exists but is not in a state the
	// requested transition allows (e.g. verifying a non-SUBMITTED record).
	ErrStateConflict = errors.New("record state does not allow this transition")
	ErrDuplicate     = errors.New("record already exists")
)

type AssessmentFilter struct {
	Limit      int
	Offset     int
	EntityID   string
	IncidentID string
	AssessorID string
	Type       *models.AssessmentType
	Status     *models.VerificationStatus
	Since      *time.Time
}

type ResponseFilter struct {
	Limit          int
	Offset         int
	EntityID       string
	IncidentID     string
	AssessmentID   string
	ResponderID    string
	Status         *models.VerificationStatus
	DeliveryStatus *models.DeliveryStatus
}

type CommitmentFilter struct {
	Limit      int
	Offset     int
	DonorID    string
	IncidentID string
	EntityID   string
	Status     *models.CommitmentStatus
}

type AuditFilter struct {
	Limit      int
	RecordKind models.RecordKind
	RecordID   string
	ActorID    string
}

// Transition is one guarded verification-state change. The UPDATE only
// applies while the record's current status is in From; zero rows affected
// surfaces as ErrStateConflict so concurrent verifiers cannot both win.
type Transition struct {
	ID      string
	From    []models.VerificationStatus
	To      models.VerificationStatus
	ActorID string
	Reason  string // rejection reason code
	Notes   string // rejection feedback
	At      time.Time
}

type EntityRepository interface {
	AddEntity(ctx context.Context, e *models.Entity) error
	GetEntity(ctx context.Context, id string) (*models.Entity, error)
	ListEntities(ctx context.Context, limit, offset int) ([]models.Entity, error)
	UpdateEntity(ctx context.Context, e *models.Entity) error
	SetAutoApproval(ctx context.Context, entityID string, rule models.AutoApprovalRule) error
}

type IncidentRepository interface {
	AddIncident(ctx context.Context, in *models.Incident) error
	GetIncident(ctx context.Context, id string) (*models.Incident, error)
	ListIncidents(ctx context.Context, status *models.IncidentStatus, limit, offset int) ([]models.Incident, error)
	UpdateIncident(ctx context.Context, in *models.Incident) error
}

type AssessmentRepository interface {
	AddAssessment(ctx context.Context, a *models.RapidAssessment) error
	GetAssessment(ctx context.Context, id string) (*models.RapidAssessment, error)
	AssessmentExists(ctx context.Context, id string) (bool, error)
	ListAssessments(ctx context.Context, f AssessmentFilter) ([]models.RapidAssessment, error)
	UpdateAssessmentDetails(ctx context.Context, id string, details json.RawMessage) error
	TransitionAssessment(ctx context.Context, t Transition) error
}

type ResponseRepository interface {
	AddResponse(ctx context.Context, r *models.Response) error
	GetResponse(ctx context.Context, id string) (*models.Response, error)
	ListResponses(ctx context.Context, f ResponseFilter) ([]models.Response, error)
	UpdateResponsePlan(ctx context.Context, id string, items []models.ResponseItem, plannedDate time.Time) error
	TransitionResponse(ctx context.Context, t Transition) error
	MarkResponseDelivered(ctx context.Context, id string, items []models.ResponseItem, at time.Time) error
}

type DonorRepository interface {
	AddDonor(ctx context.Context, d *models.Donor) error
	GetDonor(ctx context.Context, id string) (*models.Donor, error)
	ListDonors(ctx context.Context, limit, offset int) ([]models.Donor, error)
	AddCommitment(ctx context.Context, c *models.DonorCommitment) error
	GetCommitment(ctx context.Context, id string) (*models.DonorCommitment, error)
	ListCommitments(ctx context.Context, f CommitmentFilter) ([]models.DonorCommitment, error)
	MarkCommitmentDelivered(ctx context.Context, id string, at time.Time) error
}

type UserRepository interface {
	AddUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]models.User, error)
	CountUsers(ctx context.Context) (int, error)
	SetUserActive(ctx context.Context, id string, active bool) error

	AddSession(ctx context.Context, s *models.Session) error
	GetSession(ctx context.Context, token string) (*models.Session, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

type AuditRepository interface {
	AddAuditEntry(ctx context.Context, e *models.AuditLogEntry) error
	ListAuditEntries(ctx context.Context, f AuditFilter) ([]models.AuditLogEntry, error)
}

type SummaryRepository interface {
	UpsertGapSummary(ctx context.Context, s *models.GapSummary) error
	GetGapSummary(ctx context.Context, entityID, incidentID string) (*models.GapSummary, error)
	ListGapSummaries(ctx context.Context, incidentID string) ([]models.GapSummary, error)
}
