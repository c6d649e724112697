package models

import (
	"encoding/json"
	"fmt"
	"time"
)

type AssessmentType string

const (
	AssessmentTypeHealth     AssessmentType = "HEALTH"
	AssessmentTypeWASH       AssessmentType = "WASH"
	AssessmentTypeShelter    AssessmentType = "SHELTER"
	AssessmentTypeFood       AssessmentType = "FOOD"
	AssessmentTypeSecurity   AssessmentType = "SECURITY"
	AssessmentTypePopulation AssessmentType = "POPULATION"
)

func ParseAssessmentType(s string) (AssessmentType, bool) {
	switch AssessmentType(s) {
	case AssessmentTypeHealth, AssessmentTypeWASH, AssessmentTypeShelter,
		AssessmentTypeFood, AssessmentTypeSecurity, AssessmentTypePopulation:
		return AssessmentType(s), true
	}
	return "", false
}

// VerificationStatus is a one-way forward state machine. REJECTED records may
// be resubmitted; VERIFIED and AUTO_VERIFIED are terminal.
type VerificationStatus string

const (
	StatusDraft        VerificationStatus = "DRAFT"
	StatusSubmitted    VerificationStatus = "SUBMITTED"
	StatusVerified     VerificationStatus = "VERIFIED"
	StatusAutoVerified VerificationStatus = "AUTO_VERIFIED"
	StatusRejected     VerificationStatus = "REJECTED"
)

func ParseVerificationStatus(s string) (VerificationStatus, bool) {
	switch VerificationStatus(s) {
	case StatusDraft, StatusSubmitted, StatusVerified, StatusAutoVerified, StatusRejected:
		return VerificationStatus(s), true
	}
	return "", false
}

func (s VerificationStatus) Verified() bool {
	return s == StatusVerified || s == StatusAutoVerified
}

// RapidAssessment is one field-collected impact record for one hazard
// category at one entity. Details holds exactly one type-specific payload.
type RapidAssessment struct {
	ID         string
	Type       AssessmentType
	EntityID   string
	IncidentID string
	AssessorID string
	Status     VerificationStatus
	Details    json.RawMessage

	VerifierID      string
	VerifiedAt      *time.Time
	RejectionReason string // reason code, set on REJECTED
	RejectionNotes  string // coordinator feedback, set on REJECTED

	CreatedAt time.Time
	UpdatedAt time.Time
}

type HealthDetails struct {
	HasFunctionalClinic      bool     `json:"has_functional_clinic"`
	HealthFacilityCount      int      `json:"health_facility_count"`
	QualifiedHealthWorkers   int      `json:"qualified_health_workers"`
	MedicalSuppliesAvailable bool     `json:"medical_supplies_available"`
	CommonDiseases           []string `json:"common_diseases,omitempty"`
}

type WASHDetails struct {
	IsWaterSufficient      bool `json:"is_water_sufficient"`
	FunctionalWaterSources int  `json:"functional_water_sources"`
	FunctionalLatrines     int  `json:"functional_latrines"`
	OpenDefecationObserved bool `json:"open_defecation_observed"`
	HasWasteDisposal       bool `json:"has_waste_disposal"`
}

type ShelterDetails struct {
	SheltersAvailable int      `json:"shelters_available"`
	SheltersRequired  int      `json:"shelters_required"`
	SheltersAdequate  bool     `json:"shelters_adequate"`
	MaterialsNeeded   []string `json:"materials_needed,omitempty"`
}

type FoodDetails struct {
	FoodStockDays     int  `json:"food_stock_days"`
	MalnutritionCases int  `json:"malnutrition_cases"`
	HasFeedingProgram bool `json:"has_feeding_program"`
}

type SecurityDetails struct {
	HasSecurityPresence bool   `json:"has_security_presence"`
	IncidentCount       int    `json:"incident_count"`
	ThreatNotes         string `json:"threat_notes,omitempty"`
}

type PopulationDetails struct {
	Households        int `json:"households"`
	TotalPopulation   int `json:"total_population"`
	LivesLost         int `json:"lives_lost"`
	Injured           int `json:"injured"`
	Displaced         int `json:"displaced"`
	SeparatedChildren int `json:"separated_children"`
}

// DecodeDetails unmarshals the raw payload into the struct matching the
// assessment type.
func (a *RapidAssessment) DecodeDetails() (any, error) {
	var (
		out any
		err error
	)
	switch a.Type {
	case AssessmentTypeHealth:
		v := HealthDetails{}
		err = json.Unmarshal(a.Details, &v)
		out = v
	case AssessmentTypeWASH:
		v := WASHDetails{}
		err = json.Unmarshal(a.Details, &v)
		out = v
	case AssessmentTypeShelter:
		v := ShelterDetails{}
		err = json.Unmarshal(a.Details, &v)
		out = v
	case AssessmentTypeFood:
		v := FoodDetails{}
		err = json.Unmarshal(a.Details, &v)
		out = v
	case AssessmentTypeSecurity:
		v := SecurityDetails{}
		err = json.Unmarshal(a.Details, &v)
		out = v
	case AssessmentTypePopulation:
		v := PopulationDetails{}
		err = json.Unmarshal(a.Details, &v)
		out = v
	default:
		return nil, fmt.Errorf("unknown assessment type: %s", a.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s details: %w", a.Type, err)
	}
	return out, nil
}
