package models

import "time"

type RecordKind string

const (
	RecordKindAssessment RecordKind = "ASSESSMENT"
	RecordKindResponse   RecordKind = "RESPONSE"
	RecordKindCommitment RecordKind = "COMMITMENT"
	RecordKindEntity     RecordKind = "ENTITY"
	RecordKindUser       RecordKind = "USER"
)

type AuditLogEntry struct {
	ID         string
	ActorID    string
	Action     string // e.g. "SUBMIT", "VERIFY", "REJECT", "AUTO_VERIFY"
	RecordKind RecordKind
	RecordID   string
	Detail     string
	CreatedAt  time.Time
}

// GapSummary is the per-entity, per-incident rollup of open gaps that the
// dashboard reads. It is recomputed asynchronously after terminal
// verification transitions.
type GapSummary struct {
	EntityID      string
	IncidentID    string
	CriticalGaps  int
	HighGaps      int
	ModerateGaps  int
	LowGaps       int
	WorstSeverity string // empty when no gaps are open
	UpdatedAt     time.Time
}
