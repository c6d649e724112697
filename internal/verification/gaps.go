package verification

import (
	"fmt"

	"github.com/relieflabs/go-drms/internal/models"
)

type GapSeverity string

const (
	GapSeverityLow      GapSeverity = "LOW"
	GapSeverityModerate GapSeverity = "MODERATE"
	GapSeverityHigh     GapSeverity = "HIGH"
	GapSeverityCritical GapSeverity = "CRITICAL"
)

// SeverityRank orders severities; higher is worse.
func SeverityRank(s GapSeverity) int {
	switch s {
	case GapSeverityCritical:
		return 4
	case GapSeverityHigh:
		return 3
	case GapSeverityModerate:
		return 2
	case GapSeverityLow:
		return 1
	}
	return 0
}

// Gap is a flagged deficiency derived from comparing one assessment field to
// a fixed threshold.
type Gap struct {
	Category    models.AssessmentType `json:"category"`
	Field       string                `json:"field"`
	Description string                `json:"description"`
	Severity    GapSeverity           `json:"severity"`
}

// Static thresholds for gap analysis.
const (
	livesLostCritical = 100
	livesLostHigh     = 10

	injuredCritical = 200
	injuredHigh     = 20

	displacedCritical = 1000
	displacedHigh     = 100
	displacedModerate = 10

	foodStockCriticalDays = 3
	foodStockLowDays      = 7
	malnutritionHighCases = 10

	// shelter deficit as a fraction of required shelters
	shelterDeficitCritical = 0.5
	shelterDeficitHigh     = 0.25

	securityIncidentsHigh = 5
)

// AnalyzeGaps is a pure function from assessment field values to a
// severity-tagged list of gaps for that hazard category.
func AnalyzeGaps(a *models.RapidAssessment) ([]Gap, error) {
	details, err := a.DecodeDetails()
	if err != nil {
		return nil, err
	}

	var gaps []Gap
	add := func(field, desc string, sev GapSeverity) {
		gaps = append(gaps, Gap{Category: a.Type, Field: field, Description: desc, Severity: sev})
	}

	switch d := details.(type) {
	case models.HealthDetails:
		if !d.HasFunctionalClinic {
			add("has_functional_clinic", "no functional clinic", GapSeverityCritical)
		}
		if d.QualifiedHealthWorkers == 0 {
			add("qualified_health_workers", "no qualified health workers", GapSeverityHigh)
		}
		if !d.MedicalSuppliesAvailable {
			add("medical_supplies_available", "medical supplies unavailable", GapSeverityHigh)
		}

	case models.WASHDetails:
		if d.FunctionalWaterSources == 0 {
			add("functional_water_sources", "no functional water source", GapSeverityCritical)
		} else if !d.IsWaterSufficient {
			add("is_water_sufficient", "water supply insufficient", GapSeverityHigh)
		}
		if d.FunctionalLatrines == 0 {
			add("functional_latrines", "no functional latrines", GapSeverityHigh)
		}
		if d.OpenDefecationObserved {
			add("open_defecation_observed", "open defecation observed", GapSeverityModerate)
		}
		if !d.HasWasteDisposal {
			add("has_waste_disposal", "no solid waste disposal", GapSeverityLow)
		}

	case models.ShelterDetails:
		if d.SheltersRequired > 0 {
			deficit := float64(d.SheltersRequired-d.SheltersAvailable) / float64(d.SheltersRequired)
			switch {
			case deficit >= shelterDeficitCritical:
				add("shelters_available", fmt.Sprintf("%d of %d required shelters available", d.SheltersAvailable, d.SheltersRequired), GapSeverityCritical)
			case deficit >= shelterDeficitHigh:
				add("shelters_available", fmt.Sprintf("%d of %d required shelters available", d.SheltersAvailable, d.SheltersRequired), GapSeverityHigh)
			case deficit > 0:
				add("shelters_available", fmt.Sprintf("%d of %d required shelters available", d.SheltersAvailable, d.SheltersRequired), GapSeverityModerate)
			}
		}
		if !d.SheltersAdequate {
			add("shelters_adequate", "existing shelters inadequate", GapSeverityModerate)
		}

	case models.FoodDetails:
		switch {
		case d.FoodStockDays < foodStockCriticalDays:
			add("food_stock_days", fmt.Sprintf("food stock below %d days", foodStockCriticalDays), GapSeverityCritical)
		case d.FoodStockDays < foodStockLowDays:
			add("food_stock_days", fmt.Sprintf("food stock below %d days", foodStockLowDays), GapSeverityHigh)
		}
		if d.MalnutritionCases >= malnutritionHighCases {
			add("malnutrition_cases", fmt.Sprintf("%d malnutrition cases", d.MalnutritionCases), GapSeverityHigh)
		} else if d.MalnutritionCases > 0 {
			add("malnutrition_cases", fmt.Sprintf("%d malnutrition cases", d.MalnutritionCases), GapSeverityModerate)
		}
		if d.MalnutritionCases > 0 && !d.HasFeedingProgram {
			add("has_feeding_program", "malnutrition present with no feeding program", GapSeverityHigh)
		}

	case models.SecurityDetails:
		if !d.HasSecurityPresence {
			add("has_security_presence", "no security presence", GapSeverityHigh)
		}
		if d.IncidentCount >= securityIncidentsHigh {
			add("incident_count", fmt.Sprintf("%d security incidents reported", d.IncidentCount), GapSeverityHigh)
		} else if d.IncidentCount > 0 {
			add("incident_count", fmt.Sprintf("%d security incidents reported", d.IncidentCount), GapSeverityModerate)
		}

	case models.PopulationDetails:
		if sev, ok := bucket(d.LivesLost, livesLostCritical, livesLostHigh); ok {
			add("lives_lost", fmt.Sprintf("%d lives lost", d.LivesLost), sev)
		}
		if sev, ok := bucket(d.Injured, injuredCritical, injuredHigh); ok {
			add("injured", fmt.Sprintf("%d injured", d.Injured), sev)
		}
		switch {
		case d.Displaced >= displacedCritical:
			add("displaced", fmt.Sprintf("%d displaced", d.Displaced), GapSeverityCritical)
		case d.Displaced >= displacedHigh:
			add("displaced", fmt.Sprintf("%d displaced", d.Displaced), GapSeverityHigh)
		case d.Displaced >= displacedModerate:
			add("displaced", fmt.Sprintf("%d displaced", d.Displaced), GapSeverityModerate)
		}
		if d.SeparatedChildren > 0 {
			add("separated_children", fmt.Sprintf("%d separated children", d.SeparatedChildren), GapSeverityHigh)
		}
	}

	return gaps, nil
}

// bucket maps a count onto CRITICAL/HIGH/MODERATE against two thresholds;
// zero reports no gap.
func bucket(n, critical, high int) (GapSeverity, bool) {
	switch {
	case n >= critical:
		return GapSeverityCritical, true
	case n >= high:
		return GapSeverityHigh, true
	case n > 0:
		return GapSeverityModerate, true
	}
	return "", false
}

func HasCritical(gaps []Gap) bool {
	for _, g := range gaps {
		if g.Severity == GapSeverityCritical {
			return true
		}
	}
	return false
}

func WorstSeverity(gaps []Gap) GapSeverity {
	var worst GapSeverity
	for _, g := range gaps {
		if SeverityRank(g.Severity) > SeverityRank(worst) {
			worst = g.Severity
		}
	}
	return worst
}
