package models

import "time"

type EntityKind string

const (
	EntityKindCommunity EntityKind = "COMMUNITY"
	EntityKindCamp      EntityKind = "CAMP"
	EntityKindFacility  EntityKind = "FACILITY"
)

func ParseEntityKind(s string) (EntityKind, bool) {
	switch EntityKind(s) {
	case EntityKindCommunity, EntityKindCamp, EntityKindFacility:
		return EntityKind(s), true
	}
	return "", false
}

// AutoApprovalRule is the coordinator-configured condition under which a
// submitted assessment for this entity bypasses manual verification.
type AutoApprovalRule struct {
	Enabled bool `json:"enabled"`
	// AssessmentTypes scopes the rule; empty means every type qualifies.
	AssessmentTypes []AssessmentType `json:"assessment_types"`
	// BlockOnCriticalGap keeps submissions with a CRITICAL gap in the
	// manual queue even when the rule otherwise matches.
	BlockOnCriticalGap bool `json:"block_on_critical_gap"`
}

func (r AutoApprovalRule) Matches(t AssessmentType) bool {
	if !r.Enabled {
		return false
	}
	if len(r.AssessmentTypes) == 0 {
		return true
	}
	for _, at := range r.AssessmentTypes {
		if at == t {
			return true
		}
	}
	return false
}

type Entity struct {
	ID           string
	Name         string
	Kind         EntityKind
	LGA          string // local government area
	Ward         string
	Latitude     float64
	Longitude    float64
	AutoApproval AutoApprovalRule
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// GeoJSON returns the [longitude, latitude] pair GeoJSON positions use.
func (c Coordinates) GeoJSON() []float64 {
	return []float64{c.Longitude, c.Latitude}
}

func (e *Entity) Coordinates() Coordinates {
	return Coordinates{Latitude: e.Latitude, Longitude: e.Longitude}
}
