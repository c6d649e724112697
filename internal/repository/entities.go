package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/relieflabs/go-drms/internal/models"
)

func (s *SQLiteDB) AddEntity(ctx context.Context, e *models.Entity) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entities (id, name, kind, lga, ward, latitude, longitude,
			auto_approve_enabled, auto_approve_types, auto_approve_block_critical,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Name, string(e.Kind), e.LGA, e.Ward, e.Latitude, e.Longitude,
		e.AutoApproval.Enabled, joinTypes(e.AutoApproval.AssessmentTypes),
		e.AutoApproval.BlockOnCriticalGap, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("error inserting entity: %w", err)
	}
	return nil
}

func (s *SQLiteDB) GetEntity(ctx context.Context, id string) (*models.Entity, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, kind, lga, ward, latitude, longitude,
			auto_approve_enabled, auto_approve_types, auto_approve_block_critical,
			created_at, updated_at
		FROM entities WHERE id = ?`, id)
	return scanEntity(row)
}

func (s *SQLiteDB) ListEntities(ctx context.Context, limit, offset int) ([]models.Entity, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, kind, lga, ward, latitude, longitude,
			auto_approve_enabled, auto_approve_types, auto_approve_block_critical,
			created_at, updated_at
		FROM entities ORDER BY name LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("error listing entities: %w", err)
	}
	defer rows.Close()

	var entities []models.Entity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		entities = append(entities, *e)
	}
	return entities, rows.Err()
}

func (s *SQLiteDB) UpdateEntity(ctx context.Context, e *models.Entity) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE entities SET name = ?, kind = ?, lga = ?, ward = ?,
			latitude = ?, longitude = ?, updated_at = ?
		WHERE id = ?`,
		e.Name, string(e.Kind), e.LGA, e.Ward, e.Latitude, e.Longitude, e.UpdatedAt, e.ID,
	)
	if err != nil {
		return fmt.Errorf("error updating entity: %w", err)
	}
	return requireRow(res)
}

func (s *SQLiteDB) SetAutoApproval(ctx context.Context, entityID string, rule models.AutoApprovalRule) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE entities SET auto_approve_enabled = ?, auto_approve_types = ?,
			auto_approve_block_critical = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		rule.Enabled, joinTypes(rule.AssessmentTypes), rule.BlockOnCriticalGap, entityID,
	)
	if err != nil {
		return fmt.Errorf("error updating auto-approval rule: %w", err)
	}
	return requireRow(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntity(row rowScanner) (*models.Entity, error) {
	var (
		e    models.Entity
		kind string
		typs string
	)
	err := row.Scan(&e.ID, &e.Name, &kind, &e.LGA, &e.Ward, &e.Latitude, &e.Longitude,
		&e.AutoApproval.Enabled, &typs, &e.AutoApproval.BlockOnCriticalGap,
		&e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error scanning entity: %w", err)
	}
	e.Kind = models.EntityKind(kind)
	e.AutoApproval.AssessmentTypes = splitTypes(typs)
	return &e, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
