package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/relieflabs/go-drms/internal/models"
)

func (s *SQLiteDB) AddAssessment(ctx context.Context, a *models.RapidAssessment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO assessments (id, type, entity_id, incident_id, assessor_id,
			status, details, verifier_id, verified_at, rejection_reason,
			rejection_notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, string(a.Type), a.EntityID, a.IncidentID, a.AssessorID,
		string(a.Status), string(a.Details), a.VerifierID, nullableTime(a.VerifiedAt),
		a.RejectionReason, a.RejectionNotes, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("error inserting assessment: %w", err)
	}
	return nil
}

func (s *SQLiteDB) GetAssessment(ctx context.Context, id string) (*models.RapidAssessment, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, type, entity_id, incident_id, assessor_id, status, details,
			verifier_id, verified_at, rejection_reason, rejection_notes,
			created_at, updated_at
		FROM assessments WHERE id = ?`, id)
	return scanAssessment(row)
}

func (s *SQLiteDB) AssessmentExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM assessments WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("error checking assessment existence: %w", err)
	}
	return true, nil
}

func (s *SQLiteDB) ListAssessments(ctx context.Context, f AssessmentFilter) ([]models.RapidAssessment, error) {
	query := `
		SELECT id, type, entity_id, incident_id, assessor_id, status, details,
			verifier_id, verified_at, rejection_reason, rejection_notes,
			created_at, updated_at
		FROM assessments WHERE 1=1`
	args := []any{}

	if f.EntityID != "" {
		query += " AND entity_id = ?"
		args = append(args, f.EntityID)
	}
	if f.IncidentID != "" {
		query += " AND incident_id = ?"
		args = append(args, f.IncidentID)
	}
	if f.AssessorID != "" {
		query += " AND assessor_id = ?"
		args = append(args, f.AssessorID)
	}
	if f.Type != nil {
		query += " AND type = ?"
		args = append(args, string(*f.Type))
	}
	if f.Status != nil {
		query += " AND status = ?"
		args = append(args, string(*f.Status))
	}
	if f.Since != nil {
		query += " AND created_at >= ?"
		args = append(args, *f.Since)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, f.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing assessments: %w", err)
	}
	defer rows.Close()

	var assessments []models.RapidAssessment
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		assessments = append(assessments, *a)
	}
	return assessments, rows.Err()
}

// UpdateAssessmentDetails replaces the detail payload of a DRAFT or REJECTED
// assessment. Verified or queued records are immutable.
func (s *SQLiteDB) UpdateAssessmentDetails(ctx context.Context, id string, details json.RawMessage) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE assessments SET details = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status IN (?, ?)`,
		string(details), id, string(models.StatusDraft), string(models.StatusRejected),
	)
	if err != nil {
		return fmt.Errorf("error updating assessment details: %w", err)
	}
	return s.resolveNoRows(ctx, res, "assessments", id)
}

func (s *SQLiteDB) TransitionAssessment(ctx context.Context, t Transition) error {
	return s.transition(ctx, "assessments", t)
}

// transition performs the guarded one-way state change shared by assessments
// and responses. The status guard lives in the UPDATE itself: under
// concurrent verify attempts exactly one statement matches a row.
func (s *SQLiteDB) transition(ctx context.Context, table string, t Transition) error {
	if len(t.From) == 0 {
		return fmt.Errorf("transition requires at least one allowed source state")
	}

	args := []any{
		string(t.To), t.ActorID, verifiedAt(t), t.Reason, t.Notes, t.At, t.ID,
	}
	for _, from := range t.From {
		args = append(args, string(from))
	}

	// table is a package-internal constant, never user input
	query := fmt.Sprintf(`
		UPDATE %s SET status = ?, verifier_id = ?, verified_at = ?,
			rejection_reason = ?, rejection_notes = ?, updated_at = ?
		WHERE id = ? AND status IN (%s)`, table, placeholders(len(t.From)))

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("error transitioning %s record: %w", table, err)
	}
	return s.resolveNoRows(ctx, res, table, t.ID)
}

// verifiedAt records the transition time only for verifying transitions, so a
// resubmission clears any stale verification timestamp.
func verifiedAt(t Transition) any {
	if t.To.Verified() {
		return t.At
	}
	return nil
}

// resolveNoRows distinguishes a missing record from a state conflict after a
// guarded UPDATE matched nothing.
func (s *SQLiteDB) resolveNoRows(ctx context.Context, res sql.Result, table, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}

	var one int
	err = s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT 1 FROM %s WHERE id = ?`, table), id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("error checking record existence: %w", err)
	}
	return ErrStateConflict
}

func scanAssessment(row rowScanner) (*models.RapidAssessment, error) {
	var (
		a          models.RapidAssessment
		typ        string
		status     string
		details    string
		verifiedAt sql.NullTime
	)
	err := row.Scan(&a.ID, &typ, &a.EntityID, &a.IncidentID, &a.AssessorID,
		&status, &details, &a.VerifierID, &verifiedAt, &a.RejectionReason,
		&a.RejectionNotes, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error scanning assessment: %w", err)
	}
	a.Type = models.AssessmentType(typ)
	a.Status = models.VerificationStatus(status)
	a.Details = json.RawMessage(details)
	a.VerifiedAt = timePtr(verifiedAt)
	return &a, nil
}
