package models

import "time"

type IncidentStatus string

const (
	IncidentStatusActive    IncidentStatus = "ACTIVE"
	IncidentStatusContained IncidentStatus = "CONTAINED"
	IncidentStatusResolved  IncidentStatus = "RESOLVED"
)

func ParseIncidentStatus(s string) (IncidentStatus, bool) {
	switch IncidentStatus(s) {
	case IncidentStatusActive, IncidentStatusContained, IncidentStatusResolved:
		return IncidentStatus(s), true
	}
	return "", false
}

type IncidentSeverity string

const (
	IncidentSeverityMinor        IncidentSeverity = "MINOR"
	IncidentSeverityModerate     IncidentSeverity = "MODERATE"
	IncidentSeveritySevere       IncidentSeverity = "SEVERE"
	IncidentSeverityCatastrophic IncidentSeverity = "CATASTROPHIC"
)

func ParseIncidentSeverity(s string) (IncidentSeverity, bool) {
	switch IncidentSeverity(s) {
	case IncidentSeverityMinor, IncidentSeverityModerate, IncidentSeveritySevere, IncidentSeverityCatastrophic:
		return IncidentSeverity(s), true
	}
	return "", false
}

type Incident struct {
	ID          string
	Name        string
	HazardType  string // e.g. "FLOOD", "CONFLICT", "EPIDEMIC"
	Severity    IncidentSeverity
	Status      IncidentStatus
	Description string
	DeclaredAt  time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
