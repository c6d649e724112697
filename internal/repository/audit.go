package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/relieflabs/go-drms/internal/models"
)

func (s *SQLiteDB) AddAuditEntry(ctx context.Context, e *models.AuditLogEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_log (id, actor_id, action, record_kind, record_id, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.ActorID, e.Action, string(e.RecordKind), e.RecordID, e.Detail, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("error inserting audit entry: %w", err)
	}
	return nil
}

func (s *SQLiteDB) ListAuditEntries(ctx context.Context, f AuditFilter) ([]models.AuditLogEntry, error) {
	query := `
		SELECT id, actor_id, action, record_kind, record_id, detail, created_at
		FROM audit_log WHERE 1=1`
	args := []any{}

	if f.RecordKind != "" {
		query += " AND record_kind = ?"
		args = append(args, string(f.RecordKind))
	}
	if f.RecordID != "" {
		query += " AND record_id = ?"
		args = append(args, f.RecordID)
	}
	if f.ActorID != "" {
		query += " AND actor_id = ?"
		args = append(args, f.ActorID)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing audit entries: %w", err)
	}
	defer rows.Close()

	var entries []models.AuditLogEntry
	for rows.Next() {
		var (
			e    models.AuditLogEntry
			kind string
		)
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &kind, &e.RecordID, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning audit entry: %w", err)
		}
		e.RecordKind = models.RecordKind(kind)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLiteDB) UpsertGapSummary(ctx context.Context, g *models.GapSummary) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO gap_summaries (entity_id, incident_id, critical_gaps,
			high_gaps, moderate_gaps, low_gaps, worst_severity, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (entity_id, incident_id) DO UPDATE SET
			critical_gaps = excluded.critical_gaps,
			high_gaps = excluded.high_gaps,
			moderate_gaps = excluded.moderate_gaps,
			low_gaps = excluded.low_gaps,
			worst_severity = excluded.worst_severity,
			updated_at = excluded.updated_at`,
		g.EntityID, g.IncidentID, g.CriticalGaps, g.HighGaps, g.ModerateGaps,
		g.LowGaps, g.WorstSeverity, g.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("error upserting gap summary: %w", err)
	}
	return nil
}

func (s *SQLiteDB) GetGapSummary(ctx context.Context, entityID, incidentID string) (*models.GapSummary, error) {
	var g models.GapSummary
	err := s.db.QueryRowContext(ctx, `
		SELECT entity_id, incident_id, critical_gaps, high_gaps, moderate_gaps,
			low_gaps, worst_severity, updated_at
		FROM gap_summaries WHERE entity_id = ? AND incident_id = ?`,
		entityID, incidentID).
		Scan(&g.EntityID, &g.IncidentID, &g.CriticalGaps, &g.HighGaps,
			&g.ModerateGaps, &g.LowGaps, &g.WorstSeverity, &g.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error scanning gap summary: %w", err)
	}
	return &g, nil
}

func (s *SQLiteDB) ListGapSummaries(ctx context.Context, incidentID string) ([]models.GapSummary, error) {
	query := `
		SELECT entity_id, incident_id, critical_gaps, high_gaps, moderate_gaps,
			low_gaps, worst_severity, updated_at
		FROM gap_summaries`
	args := []any{}
	if incidentID != "" {
		query += " WHERE incident_id = ?"
		args = append(args, incidentID)
	}
	query += " ORDER BY critical_gaps DESC, high_gaps DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing gap summaries: %w", err)
	}
	defer rows.Close()

	var summaries []models.GapSummary
	for rows.Next() {
		var g models.GapSummary
		if err := rows.Scan(&g.EntityID, &g.IncidentID, &g.CriticalGaps,
			&g.HighGaps, &g.ModerateGaps, &g.LowGaps, &g.WorstSeverity, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning gap summary: %w", err)
		}
		summaries = append(summaries, g)
	}
	return summaries, rows.Err()
}
