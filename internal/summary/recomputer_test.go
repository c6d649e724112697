package summary

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/relieflabs/go-drms/internal/events"
	"github.com/relieflabs/go-drms/internal/models"
	"github.com/relieflabs/go-drms/internal/repository"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func setupRecomputer(t *testing.T) (*Recomputer, *repository.SQLiteDB, *events.Broadcaster) {
	t.Helper()
	db, err := repository.NewSQLiteDB(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	b := events.NewBroadcaster()
	r := NewRecomputer(2, 16, db, db, b, nil)
	return r, db, b
}

func addVerifiedAssessment(t *testing.T, db *repository.SQLiteDB, id, details string) {
	t.Helper()
	now := time.Now()
	err := db.AddAssessment(context.Background(), &models.RapidAssessment{
		ID:         id,
		Type:       models.AssessmentTypeWASH,
		EntityID:   "ent_1",
		IncidentID: "inc_1",
		AssessorID: "u1",
		Status:     models.StatusVerified,
		Details:    json.RawMessage(details),
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		t.Fatalf("AddAssessment failed: %v", err)
	}
}

// waitForSummary polls until the rollup row appears or the deadline passes.
func waitForSummary(t *testing.T, db *repository.SQLiteDB, entityID, incidentID string) *models.GapSummary {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		s, err := db.GetGapSummary(context.Background(), entityID, incidentID)
		if err == nil {
			return s
		}
		if !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("GetGapSummary failed: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("timeout waiting for gap summary")
	return nil
}

func TestRecomputer_EventDriven(t *testing.T) {
	r, db, b := setupRecomputer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.Start(ctx)
	defer r.Stop()

	// Two verified assessments: one critical WASH gap, one high.
	addVerifiedAssessment(t, db, "as_1", `{"functional_water_sources":0,"functional_latrines":2,"has_waste_disposal":true}`)
	addVerifiedAssessment(t, db, "as_2", `{"is_water_sufficient":false,"functional_water_sources":1,"functional_latrines":2,"has_waste_disposal":true}`)

	b.Publish(events.Event{
		Kind:       events.KindAssessment,
		RecordID:   "as_2",
		EntityID:   "ent_1",
		IncidentID: "inc_1",
		Status:     models.StatusVerified,
		At:         time.Now(),
	})

	s := waitForSummary(t, db, "ent_1", "inc_1")
	if s.CriticalGaps != 1 {
		t.Errorf("expected 1 critical gap, got %d", s.CriticalGaps)
	}
	if s.HighGaps != 1 {
		t.Errorf("expected 1 high gap, got %d", s.HighGaps)
	}
	if s.WorstSeverity != "CRITICAL" {
		t.Errorf("expected worst CRITICAL, got %s", s.WorstSeverity)
	}
}

func TestRecomputer_SkipsNonTerminalEvents(t *testing.T) {
	r, db, b := setupRecomputer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.Start(ctx)

	b.Publish(events.Event{
		Kind:       events.KindAssessment,
		RecordID:   "as_1",
		EntityID:   "ent_1",
		IncidentID: "inc_1",
		Status:     models.StatusSubmitted,
		At:         time.Now(),
	})
	b.Publish(events.Event{
		Kind:       events.KindResponse,
		RecordID:   "resp_1",
		EntityID:   "ent_1",
		IncidentID: "inc_1",
		Status:     models.StatusVerified,
		At:         time.Now(),
	})

	// Stop drains the subscription; neither event should have produced a job.
	r.Stop()

	_, err := db.GetGapSummary(context.Background(), "ent_1", "inc_1")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected no summary for non-terminal events, got %v", err)
	}
}

func TestRecomputer_DirectSubmit(t *testing.T) {
	r, db, _ := setupRecomputer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.Start(ctx)
	defer r.Stop()

	// Only verified assessments count toward the rollup.
	addVerifiedAssessment(t, db, "as_1", `{"functional_water_sources":0,"functional_latrines":0,"has_waste_disposal":false}`)
	now := time.Now()
	err := db.AddAssessment(context.Background(), &models.RapidAssessment{
		ID:         "as_draft",
		Type:       models.AssessmentTypeWASH,
		EntityID:   "ent_1",
		IncidentID: "inc_1",
		AssessorID: "u1",
		Status:     models.StatusDraft,
		Details:    json.RawMessage(`{"functional_water_sources":0}`),
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		t.Fatalf("AddAssessment failed: %v", err)
	}

	r.Submit(Job{EntityID: "ent_1", IncidentID: "inc_1"})

	s := waitForSummary(t, db, "ent_1", "inc_1")
	// as_1 alone: critical water, high latrines, low waste disposal.
	if s.CriticalGaps != 1 || s.HighGaps != 1 || s.LowGaps != 1 {
		t.Errorf("unexpected counts: %+v", s)
	}
}
