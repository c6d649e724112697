package repository

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

type SQLiteDB struct {
	db *sql.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// SQLite allows a single writer; one pooled connection avoids
	// SQLITE_BUSY and keeps :memory: databases on one connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS entities (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			kind TEXT NOT NULL,
			lga TEXT,
			ward TEXT,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			auto_approve_enabled INTEGER NOT NULL DEFAULT 0,
			auto_approve_types TEXT NOT NULL DEFAULT '',
			auto_approve_block_critical INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS incidents (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			hazard_type TEXT NOT NULL,
			severity TEXT NOT NULL,
			status TEXT NOT NULL,
			description TEXT,
			declared_at DATETIME NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS assessments (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			incident_id TEXT NOT NULL,
			assessor_id TEXT NOT NULL,
			status TEXT NOT NULL,
			details TEXT NOT NULL,
			verifier_id TEXT NOT NULL DEFAULT '',
			verified_at DATETIME,
			rejection_reason TEXT NOT NULL DEFAULT '',
			rejection_notes TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			FOREIGN KEY (entity_id) REFERENCES entities(id),
			FOREIGN KEY (incident_id) REFERENCES incidents(id)
		);

		CREATE TABLE IF NOT EXISTS responses (
			id TEXT PRIMARY KEY,
			assessment_id TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			incident_id TEXT NOT NULL,
			responder_id TEXT NOT NULL,
			status TEXT NOT NULL,
			delivery_status TEXT NOT NULL,
			planned_items TEXT NOT NULL DEFAULT '[]',
			delivered_items TEXT NOT NULL DEFAULT '[]',
			planned_date DATETIME NOT NULL,
			delivered_at DATETIME,
			verifier_id TEXT NOT NULL DEFAULT '',
			verified_at DATETIME,
			rejection_reason TEXT NOT NULL DEFAULT '',
			rejection_notes TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			FOREIGN KEY (assessment_id) REFERENCES assessments(id)
		);

		CREATE TABLE IF NOT EXISTS donors (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			organization TEXT,
			email TEXT,
			phone TEXT,
			user_id TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS commitments (
			id TEXT PRIMARY KEY,
			donor_id TEXT NOT NULL,
			incident_id TEXT NOT NULL,
			entity_id TEXT NOT NULL DEFAULT '',
			items TEXT NOT NULL DEFAULT '[]',
			status TEXT NOT NULL,
			pledged_at DATETIME NOT NULL,
			delivered_at DATETIME,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			FOREIGN KEY (donor_id) REFERENCES donors(id),
			FOREIGN KEY (incident_id) REFERENCES incidents(id)
		);

		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			name TEXT NOT NULL,
			roles TEXT NOT NULL,
			active INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS sessions (
			token TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			expires_at DATETIME NOT NULL,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id)
		);

		CREATE TABLE IF NOT EXISTS audit_log (
			id TEXT PRIMARY KEY,
			actor_id TEXT NOT NULL,
			action TEXT NOT NULL,
			record_kind TEXT NOT NULL,
			record_id TEXT NOT NULL,
			detail TEXT,
			created_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS gap_summaries (
			entity_id TEXT NOT NULL,
			incident_id TEXT NOT NULL,
			critical_gaps INTEGER NOT NULL DEFAULT 0,
			high_gaps INTEGER NOT NULL DEFAULT 0,
			moderate_gaps INTEGER NOT NULL DEFAULT 0,
			low_gaps INTEGER NOT NULL DEFAULT 0,
			worst_severity TEXT NOT NULL DEFAULT '',
			updated_at DATETIME NOT NULL,
			PRIMARY KEY (entity_id, incident_id)
		);

		CREATE INDEX IF NOT EXISTS idx_assessments_entity ON assessments(entity_id);
		CREATE INDEX IF NOT EXISTS idx_assessments_incident ON assessments(incident_id);
		CREATE INDEX IF NOT EXISTS idx_assessments_status ON assessments(status);
		CREATE INDEX IF NOT EXISTS idx_responses_assessment ON responses(assessment_id);
		CREATE INDEX IF NOT EXISTS idx_responses_status ON responses(status);
		CREATE INDEX IF NOT EXISTS idx_commitments_incident ON commitments(incident_id);
		CREATE INDEX IF NOT EXISTS idx_audit_record ON audit_log(record_kind, record_id);
		CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at);
  	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}
