package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/relieflabs/go-drms/internal/models"
)

func (s *SQLiteDB) AddIncident(ctx context.Context, in *models.Incident) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO incidents (id, name, hazard_type, severity, status, description,
			declared_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.Name, in.HazardType, string(in.Severity), string(in.Status),
		in.Description, in.DeclaredAt, in.CreatedAt, in.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("error inserting incident: %w", err)
	}
	return nil
}

func (s *SQLiteDB) GetIncident(ctx context.Context, id string) (*models.Incident, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, hazard_type, severity, status, description,
			declared_at, created_at, updated_at
		FROM incidents WHERE id = ?`, id)
	return scanIncident(row)
}

func (s *SQLiteDB) ListIncidents(ctx context.Context, status *models.IncidentStatus, limit, offset int) ([]models.Incident, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, name, hazard_type, severity, status, description,
			declared_at, created_at, updated_at
		FROM incidents`
	args := []any{}
	if status != nil {
		query += " WHERE status = ?"
		args = append(args, string(*status))
	}
	query += " ORDER BY declared_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing incidents: %w", err)
	}
	defer rows.Close()

	var incidents []models.Incident
	for rows.Next() {
		in, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		incidents = append(incidents, *in)
	}
	return incidents, rows.Err()
}

func (s *SQLiteDB) UpdateIncident(ctx context.Context, in *models.Incident) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE incidents SET name = ?, hazard_type = ?, severity = ?, status = ?,
			description = ?, updated_at = ?
		WHERE id = ?`,
		in.Name, in.HazardType, string(in.Severity), string(in.Status),
		in.Description, in.UpdatedAt, in.ID,
	)
	if err != nil {
		return fmt.Errorf("error updating incident: %w", err)
	}
	return requireRow(res)
}

func scanIncident(row rowScanner) (*models.Incident, error) {
	var (
		in       models.Incident
		severity string
		status   string
	)
	err := row.Scan(&in.ID, &in.Name, &in.HazardType, &severity, &status,
		&in.Description, &in.DeclaredAt, &in.CreatedAt, &in.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error scanning incident: %w", err)
	}
	in.Severity = models.IncidentSeverity(severity)
	in.Status = models.IncidentStatus(status)
	return &in, nil
}
