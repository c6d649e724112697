package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/relieflabs/go-drms/internal/models"
)

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func encodeItems(items []models.ResponseItem) (string, error) {
	if items == nil {
		items = []models.ResponseItem{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encoding items: %w", err)
	}
	return string(b), nil
}

func decodeItems(raw string) ([]models.ResponseItem, error) {
	if raw == "" {
		return nil, nil
	}
	var items []models.ResponseItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decoding items: %w", err)
	}
	return items, nil
}

func joinTypes(types []models.AssessmentType) string {
	parts := make([]string, 0, len(types))
	for _, t := range types {
		parts = append(parts, string(t))
	}
	return strings.Join(parts, ",")
}

func splitTypes(raw string) []models.AssessmentType {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	types := make([]models.AssessmentType, 0, len(parts))
	for _, p := range parts {
		if t, ok := models.ParseAssessmentType(p); ok {
			types = append(types, t)
		}
	}
	return types
}

func joinRoles(roles []models.Role) string {
	parts := make([]string, 0, len(roles))
	for _, r := range roles {
		parts = append(parts, string(r))
	}
	return strings.Join(parts, ",")
}

func splitRoles(raw string) []models.Role {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	roles := make([]models.Role, 0, len(parts))
	for _, p := range parts {
		if r, ok := models.ParseRole(p); ok {
			roles = append(roles, r)
		}
	}
	return roles
}

// placeholders returns "?, ?, ..." for n bind parameters.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
