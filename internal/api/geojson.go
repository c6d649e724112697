package api

import (
	"strings"

	"github.com/relieflabs/go-drms/internal/models"
)

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

func toEntityGeoJSON(entities []models.Entity, summaries map[string]models.GapSummary) FeatureCollection {
	features := make([]Feature, 0, len(entities))

	for _, e := range entities {
		props := map[string]any{
			"id":   e.ID,
			"name": e.Name,
			"kind": strings.ToLower(string(e.Kind)),
			"lga":  e.LGA,
			"ward": e.Ward,
		}
		if s, ok := summaries[e.ID]; ok {
			props["worst_severity"] = strings.ToLower(s.WorstSeverity)
			props["critical_gaps"] = s.CriticalGaps
			props["high_gaps"] = s.HighGaps
			props["moderate_gaps"] = s.ModerateGaps
			props["low_gaps"] = s.LowGaps
		}

		f := Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: e.Coordinates().GeoJSON(),
			},
			Properties: props,
		}
		features = append(features, f)
	}

	return FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}
