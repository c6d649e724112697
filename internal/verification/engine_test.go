package verification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/relieflabs/go-drms/internal/events"
	"github.com/relieflabs/go-drms/internal/models"
	"github.com/relieflabs/go-drms/internal/repository"
)

// In-memory repositories with the same guarded-transition semantics as the
// SQLite layer.

type mockAssessments struct {
	records map[string]*models.RapidAssessment
}

func (m *mockAssessments) AddAssessment(ctx context.Context, a *models.RapidAssessment) error {
	cp := *a
	m.records[a.ID] = &cp
	return nil
}

func (m *mockAssessments) GetAssessment(ctx context.Context, id string) (*models.RapidAssessment, error) {
	a, ok := m.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockAssessments) AssessmentExists(ctx context.Context, id string) (bool, error) {
	_, ok := m.records[id]
	return ok, nil
}

func (m *mockAssessments) ListAssessments(ctx context.Context, f repository.AssessmentFilter) ([]models.RapidAssessment, error) {
	var out []models.RapidAssessment
	for _, a := range m.records {
		out = append(out, *a)
	}
	return out, nil
}

func (m *mockAssessments) UpdateAssessmentDetails(ctx context.Context, id string, details json.RawMessage) error {
	a, ok := m.records[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.Details = details
	return nil
}

func (m *mockAssessments) TransitionAssessment(ctx context.Context, t repository.Transition) error {
	a, ok := m.records[t.ID]
	if !ok {
		return repository.ErrNotFound
	}
	allowed := false
	for _, from := range t.From {
		if a.Status == from {
			allowed = true
			break
		}
	}
	if !allowed {
		return repository.ErrStateConflict
	}
	a.Status = t.To
	a.VerifierID = t.ActorID
	a.RejectionReason = t.Reason
	a.RejectionNotes = t.Notes
	if t.To.Verified() {
		at := t.At
		a.VerifiedAt = &at
	} else {
		a.VerifiedAt = nil
	}
	return nil
}

type mockResponses struct {
	records map[string]*models.Response
}

func (m *mockResponses) AddResponse(ctx context.Context, r *models.Response) error {
	cp := *r
	m.records[r.ID] = &cp
	return nil
}

func (m *mockResponses) GetResponse(ctx context.Context, id string) (*models.Response, error) {
	r, ok := m.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *mockResponses) ListResponses(ctx context.Context, f repository.ResponseFilter) ([]models.Response, error) {
	var out []models.Response
	for _, r := range m.records {
		out = append(out, *r)
	}
	return out, nil
}

func (m *mockResponses) UpdateResponsePlan(ctx context.Context, id string, items []models.ResponseItem, plannedDate time.Time) error {
	r, ok := m.records[id]
	if !ok {
		return repository.ErrNotFound
	}
	r.PlannedItems = items
	r.PlannedDate = plannedDate
	return nil
}

func (m *mockResponses) TransitionResponse(ctx context.Context, t repository.Transition) error {
	r, ok := m.records[t.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, from := range t.From {
		if r.Status == from {
			r.Status = t.To
			r.VerifierID = t.ActorID
			r.RejectionReason = t.Reason
			r.RejectionNotes = t.Notes
			return nil
		}
	}
	return repository.ErrStateConflict
}

func (m *mockResponses) MarkResponseDelivered(ctx context.Context, id string, items []models.ResponseItem, at time.Time) error {
	r, ok := m.records[id]
	if !ok {
		return repository.ErrNotFound
	}
	if !r.Status.Verified() || r.DeliveryStatus == models.DeliveryStatusDelivered {
		return repository.ErrStateConflict
	}
	r.DeliveryStatus = models.DeliveryStatusDelivered
	r.DeliveredItems = items
	r.DeliveredAt = &at
	return nil
}

type mockEntities struct {
	records map[string]*models.Entity
}

func (m *mockEntities) AddEntity(ctx context.Context, e *models.Entity) error {
	m.records[e.ID] = e
	return nil
}

func (m *mockEntities) GetEntity(ctx context.Context, id string) (*models.Entity, error) {
	e, ok := m.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return e, nil
}

func (m *mockEntities) ListEntities(ctx context.Context, limit, offset int) ([]models.Entity, error) {
	return nil, nil
}

func (m *mockEntities) UpdateEntity(ctx context.Context, e *models.Entity) error {
	m.records[e.ID] = e
	return nil
}

func (m *mockEntities) SetAutoApproval(ctx context.Context, entityID string, rule models.AutoApprovalRule) error {
	e, ok := m.records[entityID]
	if !ok {
		return repository.ErrNotFound
	}
	e.AutoApproval = rule
	return nil
}

type mockAudit struct {
	entries []models.AuditLogEntry
}

func (m *mockAudit) AddAuditEntry(ctx context.Context, e *models.AuditLogEntry) error {
	m.entries = append(m.entries, *e)
	return nil
}

func (m *mockAudit) ListAuditEntries(ctx context.Context, f repository.AuditFilter) ([]models.AuditLogEntry, error) {
	return m.entries, nil
}

type testEnv struct {
	engine      *Engine
	assessments *mockAssessments
	responses   *mockResponses
	entities    *mockEntities
	audit       *mockAudit
	broadcaster *events.Broadcaster
}

func setupEngine(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		assessments: &mockAssessments{records: map[string]*models.RapidAssessment{}},
		responses:   &mockResponses{records: map[string]*models.Response{}},
		entities:    &mockEntities{records: map[string]*models.Entity{}},
		audit:       &mockAudit{},
		broadcaster: events.NewBroadcaster(),
	}
	env.engine = NewEngine(env.assessments, env.responses, env.entities, env.audit, env.broadcaster, nil)
	return env
}

func (env *testEnv) addEntity(id string, rule models.AutoApprovalRule) {
	env.entities.records[id] = &models.Entity{ID: id, Name: id, Kind: models.EntityKindCommunity, AutoApproval: rule}
}

func (env *testEnv) addAssessment(id string, typ models.AssessmentType, status models.VerificationStatus, details string) {
	env.assessments.records[id] = &models.RapidAssessment{
		ID:         id,
		Type:       typ,
		EntityID:   "ent_1",
		IncidentID: "inc_1",
		AssessorID: "assessor_1",
		Status:     status,
		Details:    json.RawMessage(details),
	}
}

const cleanWASH = `{"is_water_sufficient":true,"functional_water_sources":3,"functional_latrines":4,"has_waste_disposal":true}`
const criticalWASH = `{"is_water_sufficient":false,"functional_water_sources":0,"functional_latrines":0,"has_waste_disposal":false}`

func TestSubmitAssessment_ManualQueue(t *testing.T) {
	env := setupEngine(t)
	env.addEntity("ent_1", models.AutoApprovalRule{})
	env.addAssessment("as_1", models.AssessmentTypeWASH, models.StatusDraft, cleanWASH)

	a, err := env.engine.SubmitAssessment(context.Background(), "as_1", "assessor_1")
	if err != nil {
		t.Fatalf("SubmitAssessment failed: %v", err)
	}
	if a.Status != models.StatusSubmitted {
		t.Errorf("expected SUBMITTED, got %s", a.Status)
	}
	if len(env.audit.entries) != 1 || env.audit.entries[0].Action != "SUBMIT" {
		t.Errorf("expected one SUBMIT audit entry, got %+v", env.audit.entries)
	}
}

func TestSubmitAssessment_AutoApproval(t *testing.T) {
	env := setupEngine(t)
	env.addEntity("ent_1", models.AutoApprovalRule{Enabled: true})
	env.addAssessment("as_1", models.AssessmentTypeWASH, models.StatusDraft, cleanWASH)

	a, err := env.engine.SubmitAssessment(context.Background(), "as_1", "assessor_1")
	if err != nil {
		t.Fatalf("SubmitAssessment failed: %v", err)
	}
	if a.Status != models.StatusAutoVerified {
		t.Errorf("expected AUTO_VERIFIED, got %s", a.Status)
	}
	if a.VerifierID != "auto-approval" {
		t.Errorf("expected auto-approval verifier, got %s", a.VerifierID)
	}
	if a.VerifiedAt == nil {
		t.Error("expected verified_at on auto-approval")
	}
	if len(env.audit.entries) != 1 || env.audit.entries[0].Action != "AUTO_VERIFY" {
		t.Errorf("expected one AUTO_VERIFY audit entry, got %+v", env.audit.entries)
	}
}

func TestSubmitAssessment_AutoApprovalBlockedOnCriticalGap(t *testing.T) {
	env := setupEngine(t)
	env.addEntity("ent_1", models.AutoApprovalRule{Enabled: true, BlockOnCriticalGap: true})
	env.addAssessment("as_1", models.AssessmentTypeWASH, models.StatusDraft, criticalWASH)

	a, err := env.engine.SubmitAssessment(context.Background(), "as_1", "assessor_1")
	if err != nil {
		t.Fatalf("SubmitAssessment failed: %v", err)
	}
	if a.Status != models.StatusSubmitted {
		t.Errorf("expected SUBMITTED (held for manual review), got %s", a.Status)
	}
}

func TestSubmitAssessment_AutoApprovalTypeScope(t *testing.T) {
	env := setupEngine(t)
	env.addEntity("ent_1", models.AutoApprovalRule{
		Enabled:         true,
		AssessmentTypes: []models.AssessmentType{models.AssessmentTypeHealth},
	})
	env.addAssessment("as_1", models.AssessmentTypeWASH, models.StatusDraft, cleanWASH)

	a, err := env.engine.SubmitAssessment(context.Background(), "as_1", "assessor_1")
	if err != nil {
		t.Fatalf("SubmitAssessment failed: %v", err)
	}
	if a.Status != models.StatusSubmitted {
		t.Errorf("expected SUBMITTED for out-of-scope type, got %s", a.Status)
	}
}

func TestSubmitAssessment_Resubmission(t *testing.T) {
	env := setupEngine(t)
	env.addEntity("ent_1", models.AutoApprovalRule{})
	env.addAssessment("as_1", models.AssessmentTypeWASH, models.StatusRejected, cleanWASH)

	a, err := env.engine.SubmitAssessment(context.Background(), "as_1", "assessor_1")
	if err != nil {
		t.Fatalf("SubmitAssessment failed: %v", err)
	}
	if a.Status != models.StatusSubmitted {
		t.Errorf("expected SUBMITTED, got %s", a.Status)
	}
}

func TestVerifyAssessment_RequiresSubmitted(t *testing.T) {
	env := setupEngine(t)
	env.addEntity("ent_1", models.AutoApprovalRule{})
	env.addAssessment("as_1", models.AssessmentTypeWASH, models.StatusDraft, cleanWASH)

	_, err := env.engine.VerifyAssessment(context.Background(), "as_1", "coord_1")
	if !errors.Is(err, repository.ErrStateConflict) {
		t.Errorf("expected ErrStateConflict, got %v", err)
	}

	_, err = env.engine.VerifyAssessment(context.Background(), "nonexistent", "coord_1")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRejectAssessment_Validation(t *testing.T) {
	env := setupEngine(t)
	env.addEntity("ent_1", models.AutoApprovalRule{})
	env.addAssessment("as_1", models.AssessmentTypeWASH, models.StatusSubmitted, cleanWASH)

	_, err := env.engine.RejectAssessment(context.Background(), "as_1", "coord_1", "NOT_A_REASON", "notes")
	if !errors.Is(err, ErrInvalidRejection) {
		t.Errorf("expected ErrInvalidRejection for unknown reason, got %v", err)
	}

	_, err = env.engine.RejectAssessment(context.Background(), "as_1", "coord_1", "DATA_QUALITY", "")
	if !errors.Is(err, ErrInvalidRejection) {
		t.Errorf("expected ErrInvalidRejection for empty notes, got %v", err)
	}

	a, err := env.engine.RejectAssessment(context.Background(), "as_1", "coord_1", "DATA_QUALITY", "counts look wrong")
	if err != nil {
		t.Fatalf("RejectAssessment failed: %v", err)
	}
	if a.Status != models.StatusRejected {
		t.Errorf("expected REJECTED, got %s", a.Status)
	}
	if a.RejectionReason != "DATA_QUALITY" || a.RejectionNotes == "" {
		t.Errorf("expected rejection fields, got %+v", a)
	}
}

func TestSubmitAssessment_PublishesEvent(t *testing.T) {
	env := setupEngine(t)
	env.addEntity("ent_1", models.AutoApprovalRule{Enabled: true})
	env.addAssessment("as_1", models.AssessmentTypeWASH, models.StatusDraft, cleanWASH)

	id, ch := env.broadcaster.Subscribe()
	defer env.broadcaster.Unsubscribe(id)

	if _, err := env.engine.SubmitAssessment(context.Background(), "as_1", "assessor_1"); err != nil {
		t.Fatalf("SubmitAssessment failed: %v", err)
	}

	select {
	case ev := <-ch:
		if ev.Kind != events.KindAssessment {
			t.Errorf("expected assessment event, got %s", ev.Kind)
		}
		if ev.Status != models.StatusAutoVerified {
			t.Errorf("expected AUTO_VERIFIED event, got %s", ev.Status)
		}
		if ev.EntityID != "ent_1" || ev.IncidentID != "inc_1" {
			t.Errorf("event missing scope: %+v", ev)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("timeout waiting for event")
	}
}

func TestCreateResponse_RequiresVerifiedAssessment(t *testing.T) {
	env := setupEngine(t)
	env.addEntity("ent_1", models.AutoApprovalRule{})
	env.addAssessment("as_draft", models.AssessmentTypeWASH, models.StatusDraft, cleanWASH)
	env.addAssessment("as_verified", models.AssessmentTypeWASH, models.StatusVerified, cleanWASH)

	r := &models.Response{
		ID:           "resp_1",
		AssessmentID: "as_draft",
		ResponderID:  "resp_user",
		PlannedItems: []models.ResponseItem{{Name: "Tents", Quantity: 20, Unit: "units"}},
		PlannedDate:  time.Now(),
	}
	err := env.engine.CreateResponse(context.Background(), r)
	if !errors.Is(err, ErrUnverifiedAssessment) {
		t.Errorf("expected ErrUnverifiedAssessment, got %v", err)
	}

	r.AssessmentID = "as_verified"
	if err := env.engine.CreateResponse(context.Background(), r); err != nil {
		t.Fatalf("CreateResponse failed: %v", err)
	}
	got, _ := env.responses.GetResponse(context.Background(), "resp_1")
	if got.Status != models.StatusDraft {
		t.Errorf("expected DRAFT, got %s", got.Status)
	}
	if got.DeliveryStatus != models.DeliveryStatusPlanned {
		t.Errorf("expected PLANNED, got %s", got.DeliveryStatus)
	}
	if got.EntityID != "ent_1" || got.IncidentID != "inc_1" {
		t.Errorf("expected scope copied from assessment, got %+v", got)
	}
}

func TestRecordDelivery(t *testing.T) {
	env := setupEngine(t)
	env.responses.records["resp_1"] = &models.Response{
		ID:             "resp_1",
		Status:         models.StatusVerified,
		DeliveryStatus: models.DeliveryStatusPlanned,
	}

	_, err := env.engine.RecordDelivery(context.Background(), "resp_1", "resp_user", nil)
	if !errors.Is(err, ErrNotDelivered) {
		t.Errorf("expected ErrNotDelivered for empty items, got %v", err)
	}

	items := []models.ResponseItem{{Name: "Blankets", Quantity: 100, Unit: "pieces"}}
	got, err := env.engine.RecordDelivery(context.Background(), "resp_1", "resp_user", items)
	if err != nil {
		t.Fatalf("RecordDelivery failed: %v", err)
	}
	if got.DeliveryStatus != models.DeliveryStatusDelivered {
		t.Errorf("expected DELIVERED, got %s", got.DeliveryStatus)
	}
	if len(got.DeliveredItems) != 1 {
		t.Errorf("expected delivered items, got %+v", got.DeliveredItems)
	}
}

func TestResponseVerificationFlow(t *testing.T) {
	env := setupEngine(t)
	env.responses.records["resp_1"] = &models.Response{
		ID:             "resp_1",
		Status:         models.StatusDraft,
		DeliveryStatus: models.DeliveryStatusPlanned,
	}

	r, err := env.engine.SubmitResponse(context.Background(), "resp_1", "resp_user")
	if err != nil {
		t.Fatalf("SubmitResponse failed: %v", err)
	}
	if r.Status != models.StatusSubmitted {
		t.Errorf("expected SUBMITTED, got %s", r.Status)
	}

	r, err = env.engine.VerifyResponse(context.Background(), "resp_1", "coord_1")
	if err != nil {
		t.Fatalf("VerifyResponse failed: %v", err)
	}
	if r.Status != models.StatusVerified {
		t.Errorf("expected VERIFIED, got %s", r.Status)
	}

	// Verified responses cannot be rejected.
	_, err = env.engine.RejectResponse(context.Background(), "resp_1", "coord_1", "OTHER", "late")
	if !errors.Is(err, repository.ErrStateConflict) {
		t.Errorf("expected ErrStateConflict, got %v", err)
	}
}
