package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/relieflabs/go-drms/internal/models"
)

func (s *SQLiteDB) AddResponse(ctx context.Context, r *models.Response) error {
	planned, err := encodeItems(r.PlannedItems)
	if err != nil {
		return err
	}
	delivered, err := encodeItems(r.DeliveredItems)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO responses (id, assessment_id, entity_id, incident_id,
			responder_id, status, delivery_status, planned_items, delivered_items,
			planned_date, delivered_at, verifier_id, verified_at,
			rejection_reason, rejection_notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.AssessmentID, r.EntityID, r.IncidentID, r.ResponderID,
		string(r.Status), string(r.DeliveryStatus), planned, delivered,
		r.PlannedDate, nullableTime(r.DeliveredAt), r.VerifierID,
		nullableTime(r.VerifiedAt), r.RejectionReason, r.RejectionNotes,
		r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("error inserting response: %w", err)
	}
	return nil
}

func (s *SQLiteDB) GetResponse(ctx context.Context, id string) (*models.Response, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, assessment_id, entity_id, incident_id, responder_id, status,
			delivery_status, planned_items, delivered_items, planned_date,
			delivered_at, verifier_id, verified_at, rejection_reason,
			rejection_notes, created_at, updated_at
		FROM responses WHERE id = ?`, id)
	return scanResponse(row)
}

func (s *SQLiteDB) ListResponses(ctx context.Context, f ResponseFilter) ([]models.Response, error) {
	query := `
		SELECT id, assessment_id, entity_id, incident_id, responder_id, status,
			delivery_status, planned_items, delivered_items, planned_date,
			delivered_at, verifier_id, verified_at, rejection_reason,
			rejection_notes, created_at, updated_at
		FROM responses WHERE 1=1`
	args := []any{}

	if f.EntityID != "" {
		query += " AND entity_id = ?"
		args = append(args, f.EntityID)
	}
	if f.IncidentID != "" {
		query += " AND incident_id = ?"
		args = append(args, f.IncidentID)
	}
	if f.AssessmentID != "" {
		query += " AND assessment_id = ?"
		args = append(args, f.AssessmentID)
	}
	if f.ResponderID != "" {
		query += " AND responder_id = ?"
		args = append(args, f.ResponderID)
	}
	if f.Status != nil {
		query += " AND status = ?"
		args = append(args, string(*f.Status))
	}
	if f.DeliveryStatus != nil {
		query += " AND delivery_status = ?"
		args = append(args, string(*f.DeliveryStatus))
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, f.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing responses: %w", err)
	}
	defer rows.Close()

	var responses []models.Response
	for rows.Next() {
		r, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		responses = append(responses, *r)
	}
	return responses, rows.Err()
}

// UpdateResponsePlan replaces the planned items of a DRAFT or REJECTED
// response.
func (s *SQLiteDB) UpdateResponsePlan(ctx context.Context, id string, items []models.ResponseItem, plannedDate time.Time) error {
	planned, err := encodeItems(items)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE responses SET planned_items = ?, planned_date = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status IN (?, ?)`,
		planned, plannedDate, id, string(models.StatusDraft), string(models.StatusRejected),
	)
	if err != nil {
		return fmt.Errorf("error updating response plan: %w", err)
	}
	return s.resolveNoRows(ctx, res, "responses", id)
}

func (s *SQLiteDB) TransitionResponse(ctx context.Context, t Transition) error {
	return s.transition(ctx, "responses", t)
}

// MarkResponseDelivered records actual delivery on a verified response. The
// guard covers both PLANNED and IN_PROGRESS so a partial delivery update is
// not required first.
func (s *SQLiteDB) MarkResponseDelivered(ctx context.Context, id string, items []models.ResponseItem, at time.Time) error {
	delivered, err := encodeItems(items)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE responses SET delivery_status = ?, delivered_items = ?,
			delivered_at = ?, updated_at = ?
		WHERE id = ? AND status IN (?, ?) AND delivery_status IN (?, ?)`,
		string(models.DeliveryStatusDelivered), delivered, at, at, id,
		string(models.StatusVerified), string(models.StatusAutoVerified),
		string(models.DeliveryStatusPlanned), string(models.DeliveryStatusInProgress),
	)
	if err != nil {
		return fmt.Errorf("error marking response delivered: %w", err)
	}
	return s.resolveNoRows(ctx, res, "responses", id)
}

func scanResponse(row rowScanner) (*models.Response, error) {
	var (
		r              models.Response
		status         string
		deliveryStatus string
		planned        string
		delivered      string
		deliveredAt    sql.NullTime
		verifiedAt     sql.NullTime
	)
	err := row.Scan(&r.ID, &r.AssessmentID, &r.EntityID, &r.IncidentID,
		&r.ResponderID, &status, &deliveryStatus, &planned, &delivered,
		&r.PlannedDate, &deliveredAt, &r.VerifierID, &verifiedAt,
		&r.RejectionReason, &r.RejectionNotes, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error scanning response: %w", err)
	}
	r.Status = models.VerificationStatus(status)
	r.DeliveryStatus = models.DeliveryStatus(deliveryStatus)
	if r.PlannedItems, err = decodeItems(planned); err != nil {
		return nil, err
	}
	if r.DeliveredItems, err = decodeItems(delivered); err != nil {
		return nil, err
	}
	r.DeliveredAt = timePtr(deliveredAt)
	r.VerifiedAt = timePtr(verifiedAt)
	return &r, nil
}
