package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/relieflabs/go-drms/internal/models"
)

func (s *SQLiteDB) AddDonor(ctx context.Context, d *models.Donor) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO donors (id, name, organization, email, phone, user_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Name, d.Organization, d.Email, d.Phone, d.UserID, d.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("error inserting donor: %w", err)
	}
	return nil
}

func (s *SQLiteDB) GetDonor(ctx context.Context, id string) (*models.Donor, error) {
	var d models.Donor
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, organization, email, phone, user_id, created_at
		FROM donors WHERE id = ?`, id).
		Scan(&d.ID, &d.Name, &d.Organization, &d.Email, &d.Phone, &d.UserID, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error scanning donor: %w", err)
	}
	return &d, nil
}

func (s *SQLiteDB) ListDonors(ctx context.Context, limit, offset int) ([]models.Donor, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, organization, email, phone, user_id, created_at
		FROM donors ORDER BY name LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("error listing donors: %w", err)
	}
	defer rows.Close()

	var donors []models.Donor
	for rows.Next() {
		var d models.Donor
		if err := rows.Scan(&d.ID, &d.Name, &d.Organization, &d.Email, &d.Phone, &d.UserID, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning donor: %w", err)
		}
		donors = append(donors, d)
	}
	return donors, rows.Err()
}

func (s *SQLiteDB) AddCommitment(ctx context.Context, c *models.DonorCommitment) error {
	items, err := encodeItems(c.Items)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO commitments (id, donor_id, incident_id, entity_id, items,
			status, pledged_at, delivered_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.DonorID, c.IncidentID, c.EntityID, items, string(c.Status),
		c.PledgedAt, nullableTime(c.DeliveredAt), c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("error inserting commitment: %w", err)
	}
	return nil
}

func (s *SQLiteDB) GetCommitment(ctx context.Context, id string) (*models.DonorCommitment, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, donor_id, incident_id, entity_id, items, status,
			pledged_at, delivered_at, created_at, updated_at
		FROM commitments WHERE id = ?`, id)
	return scanCommitment(row)
}

func (s *SQLiteDB) ListCommitments(ctx context.Context, f CommitmentFilter) ([]models.DonorCommitment, error) {
	query := `
		SELECT id, donor_id, incident_id, entity_id, items, status,
			pledged_at, delivered_at, created_at, updated_at
		FROM commitments WHERE 1=1`
	args := []any{}

	if f.DonorID != "" {
		query += " AND donor_id = ?"
		args = append(args, f.DonorID)
	}
	if f.IncidentID != "" {
		query += " AND incident_id = ?"
		args = append(args, f.IncidentID)
	}
	if f.EntityID != "" {
		query += " AND entity_id = ?"
		args = append(args, f.EntityID)
	}
	if f.Status != nil {
		query += " AND status = ?"
		args = append(args, string(*f.Status))
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " ORDER BY pledged_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, f.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing commitments: %w", err)
	}
	defer rows.Close()

	var commitments []models.DonorCommitment
	for rows.Next() {
		c, err := scanCommitment(rows)
		if err != nil {
			return nil, err
		}
		commitments = append(commitments, *c)
	}
	return commitments, rows.Err()
}

func (s *SQLiteDB) MarkCommitmentDelivered(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE commitments SET status = ?, delivered_at = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		string(models.CommitmentStatusDelivered), at, at, id,
		string(models.CommitmentStatusPlanned),
	)
	if err != nil {
		return fmt.Errorf("error marking commitment delivered: %w", err)
	}
	return s.resolveNoRows(ctx, res, "commitments", id)
}

func scanCommitment(row rowScanner) (*models.DonorCommitment, error) {
	var (
		c           models.DonorCommitment
		items       string
		status      string
		deliveredAt sql.NullTime
	)
	err := row.Scan(&c.ID, &c.DonorID, &c.IncidentID, &c.EntityID, &items,
		&status, &c.PledgedAt, &deliveredAt, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error scanning commitment: %w", err)
	}
	c.Status = models.CommitmentStatus(status)
	if c.Items, err = decodeItems(items); err != nil {
		return nil, err
	}
	c.DeliveredAt = timePtr(deliveredAt)
	return &c, nil
}
