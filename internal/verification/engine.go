package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/relieflabs/go-drms/internal/events"
	"github.com/relieflabs/go-drms/internal/metrics"
	"github.com/relieflabs/go-drms/internal/models"
	"github.com/relieflabs/go-drms/internal/repository"
)

var (
	// ErrUnverifiedAssessment blocks response creation against an
	// assessment that has not passed verification.
	ErrUnverifiedAssessment = errors.New("assessment is not verified")
	ErrInvalidRejection     = errors.New("rejection requires a valid reason code and feedback")
	ErrNotDelivered         = errors.New("delivery requires at least one delivered item")
)

// RejectionReasons are the accepted coordinator reason codes.
var RejectionReasons = map[string]bool{
	"DATA_QUALITY":     true,
	"INCOMPLETE":       true,
	"DUPLICATE":        true,
	"OUT_OF_SCOPE":     true,
	"REQUIRES_REVISIT": true,
	"OTHER":            true,
}

// Engine gates verification state transitions for assessments and responses
// and applies per-entity auto-approval on submission.
type Engine struct {
	assessments repository.AssessmentRepository
	responses   repository.ResponseRepository
	entities    repository.EntityRepository
	audit       repository.AuditRepository
	broadcaster *events.Broadcaster
	metrics     *metrics.Metrics
	now         func() time.Time
}

func NewEngine(
	assessments repository.AssessmentRepository,
	responses repository.ResponseRepository,
	entities repository.EntityRepository,
	audit repository.AuditRepository,
	broadcaster *events.Broadcaster,
	m *metrics.Metrics,
) *Engine {
	return &Engine{
		assessments: assessments,
		responses:   responses,
		entities:    entities,
		audit:       audit,
		broadcaster: broadcaster,
		metrics:     m,
		now:         time.Now,
	}
}

// SubmitAssessment moves a DRAFT (or resubmitted REJECTED) assessment into
// the verification queue. When the entity's auto-approval rule matches, the
// record transitions directly to AUTO_VERIFIED without coordinator action.
func (e *Engine) SubmitAssessment(ctx context.Context, id, actorID string) (*models.RapidAssessment, error) {
	a, err := e.assessments.GetAssessment(ctx, id)
	if err != nil {
		return nil, err
	}

	target := models.StatusSubmitted
	verifier := ""

	entity, err := e.entities.GetEntity(ctx, a.EntityID)
	if err != nil {
		return nil, fmt.Errorf("loading entity %s: %w", a.EntityID, err)
	}
	if entity.AutoApproval.Matches(a.Type) {
		gaps, err := AnalyzeGaps(a)
		if err != nil {
			return nil, err
		}
		if !entity.AutoApproval.BlockOnCriticalGap || !HasCritical(gaps) {
			target = models.StatusAutoVerified
			verifier = "auto-approval"
		}
	}

	now := e.now()
	err = e.assessments.TransitionAssessment(ctx, repository.Transition{
		ID:      id,
		From:    []models.VerificationStatus{models.StatusDraft, models.StatusRejected},
		To:      target,
		ActorID: verifier,
		At:      now,
	})
	if err != nil {
		return nil, err
	}

	action := "SUBMIT"
	if target == models.StatusAutoVerified {
		action = "AUTO_VERIFY"
	}
	e.recordAudit(ctx, actorID, action, models.RecordKindAssessment, id, string(a.Type))
	e.publish(events.KindAssessment, a.ID, a.EntityID, a.IncidentID, target, actorID, now)

	return e.assessments.GetAssessment(ctx, id)
}

// VerifyAssessment approves a SUBMITTED assessment. The repository guard
// makes concurrent verify attempts resolve to exactly one winner.
func (e *Engine) VerifyAssessment(ctx context.Context, id, verifierID string) (*models.RapidAssessment, error) {
	a, err := e.assessments.GetAssessment(ctx, id)
	if err != nil {
		return nil, err
	}

	now := e.now()
	err = e.assessments.TransitionAssessment(ctx, repository.Transition{
		ID:      id,
		From:    []models.VerificationStatus{models.StatusSubmitted},
		To:      models.StatusVerified,
		ActorID: verifierID,
		At:      now,
	})
	if err != nil {
		return nil, err
	}

	e.recordAudit(ctx, verifierID, "VERIFY", models.RecordKindAssessment, id, string(a.Type))
	e.publish(events.KindAssessment, a.ID, a.EntityID, a.IncidentID, models.StatusVerified, verifierID, now)

	return e.assessments.GetAssessment(ctx, id)
}

// RejectAssessment returns a SUBMITTED assessment to the assessor with a
// reason code and feedback, and writes an audit log entry.
func (e *Engine) RejectAssessment(ctx context.Context, id, verifierID, reason, notes string) (*models.RapidAssessment, error) {
	if !RejectionReasons[reason] || notes == "" {
		return nil, ErrInvalidRejection
	}

	a, err := e.assessments.GetAssessment(ctx, id)
	if err != nil {
		return nil, err
	}

	now := e.now()
	err = e.assessments.TransitionAssessment(ctx, repository.Transition{
		ID:      id,
		From:    []models.VerificationStatus{models.StatusSubmitted},
		To:      models.StatusRejected,
		ActorID: verifierID,
		Reason:  reason,
		Notes:   notes,
		At:      now,
	})
	if err != nil {
		return nil, err
	}

	e.recordAudit(ctx, verifierID, "REJECT", models.RecordKindAssessment, id, reason)
	e.publish(events.KindAssessment, a.ID, a.EntityID, a.IncidentID, models.StatusRejected, verifierID, now)
	if e.metrics != nil {
		e.metrics.Rejections.WithLabelValues(string(events.KindAssessment), reason).Inc()
	}

	return e.assessments.GetAssessment(ctx, id)
}

// PreviewGaps runs gap analysis without changing state.
func (e *Engine) PreviewGaps(ctx context.Context, id string) ([]Gap, error) {
	a, err := e.assessments.GetAssessment(ctx, id)
	if err != nil {
		return nil, err
	}
	return AnalyzeGaps(a)
}

// CreateResponse plans aid against a verified assessment. Unverified
// assessments cannot receive responses.
func (e *Engine) CreateResponse(ctx context.Context, r *models.Response) error {
	a, err := e.assessments.GetAssessment(ctx, r.AssessmentID)
	if err != nil {
		return err
	}
	if !a.Status.Verified() {
		return ErrUnverifiedAssessment
	}

	now := e.now()
	r.EntityID = a.EntityID
	r.IncidentID = a.IncidentID
	r.Status = models.StatusDraft
	r.DeliveryStatus = models.DeliveryStatusPlanned
	r.CreatedAt = now
	r.UpdatedAt = now

	if err := e.responses.AddResponse(ctx, r); err != nil {
		return err
	}
	e.recordAudit(ctx, r.ResponderID, "CREATE", models.RecordKindResponse, r.ID, r.AssessmentID)
	return nil
}

func (e *Engine) SubmitResponse(ctx context.Context, id, actorID string) (*models.Response, error) {
	r, err := e.responses.GetResponse(ctx, id)
	if err != nil {
		return nil, err
	}

	now := e.now()
	err = e.responses.TransitionResponse(ctx, repository.Transition{
		ID:   id,
		From: []models.VerificationStatus{models.StatusDraft, models.StatusRejected},
		To:   models.StatusSubmitted,
		At:   now,
	})
	if err != nil {
		return nil, err
	}

	e.recordAudit(ctx, actorID, "SUBMIT", models.RecordKindResponse, id, "")
	e.publish(events.KindResponse, r.ID, r.EntityID, r.IncidentID, models.StatusSubmitted, actorID, now)

	return e.responses.GetResponse(ctx, id)
}

func (e *Engine) VerifyResponse(ctx context.Context, id, verifierID string) (*models.Response, error) {
	r, err := e.responses.GetResponse(ctx, id)
	if err != nil {
		return nil, err
	}

	now := e.now()
	err = e.responses.TransitionResponse(ctx, repository.Transition{
		ID:      id,
		From:    []models.VerificationStatus{models.StatusSubmitted},
		To:      models.StatusVerified,
		ActorID: verifierID,
		At:      now,
	})
	if err != nil {
		return nil, err
	}

	e.recordAudit(ctx, verifierID, "VERIFY", models.RecordKindResponse, id, "")
	e.publish(events.KindResponse, r.ID, r.EntityID, r.IncidentID, models.StatusVerified, verifierID, now)

	return e.responses.GetResponse(ctx, id)
}

func (e *Engine) RejectResponse(ctx context.Context, id, verifierID, reason, notes string) (*models.Response, error) {
	if !RejectionReasons[reason] || notes == "" {
		return nil, ErrInvalidRejection
	}

	r, err := e.responses.GetResponse(ctx, id)
	if err != nil {
		return nil, err
	}

	now := e.now()
	err = e.responses.TransitionResponse(ctx, repository.Transition{
		ID:      id,
		From:    []models.VerificationStatus{models.StatusSubmitted},
		To:      models.StatusRejected,
		ActorID: verifierID,
		Reason:  reason,
		Notes:   notes,
		At:      now,
	})
	if err != nil {
		return nil, err
	}

	e.recordAudit(ctx, verifierID, "REJECT", models.RecordKindResponse, id, reason)
	e.publish(events.KindResponse, r.ID, r.EntityID, r.IncidentID, models.StatusRejected, verifierID, now)
	if e.metrics != nil {
		e.metrics.Rejections.WithLabelValues(string(events.KindResponse), reason).Inc()
	}

	return e.responses.GetResponse(ctx, id)
}

// RecordDelivery marks a verified response as delivered with the actual
// item list.
func (e *Engine) RecordDelivery(ctx context.Context, id, actorID string, items []models.ResponseItem) (*models.Response, error) {
	if len(items) == 0 {
		return nil, ErrNotDelivered
	}

	now := e.now()
	if err := e.responses.MarkResponseDelivered(ctx, id, items, now); err != nil {
		return nil, err
	}

	e.recordAudit(ctx, actorID, "DELIVER", models.RecordKindResponse, id, fmt.Sprintf("%d items", len(items)))
	return e.responses.GetResponse(ctx, id)
}

func (e *Engine) publish(kind events.Kind, recordID, entityID, incidentID string, status models.VerificationStatus, actorID string, at time.Time) {
	if e.metrics != nil {
		e.metrics.Transitions.WithLabelValues(string(kind), string(status)).Inc()
	}
	if e.broadcaster != nil {
		e.broadcaster.Publish(events.Event{
			Kind:       kind,
			RecordID:   recordID,
			EntityID:   entityID,
			IncidentID: incidentID,
			Status:     status,
			ActorID:    actorID,
			At:         at,
		})
	}
}

// recordAudit never fails the transition it documents; a write error is
// logged and dropped.
func (e *Engine) recordAudit(ctx context.Context, actorID, action string, kind models.RecordKind, recordID, detail string) {
	if e.audit == nil {
		return
	}
	entry := &models.AuditLogEntry{
		ID:         uuid.NewString(),
		ActorID:    actorID,
		Action:     action,
		RecordKind: kind,
		RecordID:   recordID,
		Detail:     detail,
		CreatedAt:  e.now(),
	}
	if err := e.audit.AddAuditEntry(ctx, entry); err != nil {
		slog.Error("failed to write audit entry", "action", action, "record_id", recordID, "error", err)
	}
}
