package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"kejani_backend/internal/events"
	"kejani_backend/internal/leads/repository"
	"kejani_backend/internal/leads/transport"
	"kejani_backend/platform/apperr"
	"kejani_backend/platform/logger"
)

type fakeRepo struct {
	mu           sync.Mutex
	leads        map[uuid.UUID]repository.Lead
	interactions map[uuid.UUID][]repository.Interaction
	activities   map[uuid.UUID][]repository.Activity
	whatsapp     map[uuid.UUID][]repository.WhatsAppMessage
	tasks        map[uuid.UUID]repository.Task
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		leads:        map[uuid.UUID]repository.Lead{},
		interactions: map[uuid.UUID][]repository.Interaction{},
		activities:   map[uuid.UUID][]repository.Activity{},
		whatsapp:     map[uuid.UUID][]repository.WhatsAppMessage{},
		tasks:        map[uuid.UUID]repository.Task{},
	}
}

func (f *fakeRepo) Create(ctx context.Context, params repository.CreateLeadParams) (repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lead := repository.Lead{
		ID:        uuid.New(),
		FirstName: params.FirstName,
		LastName:  params.LastName,
		Email:     params.Email,
		Phone:     params.Phone,
		Source:    params.Source,
		Status:    "new",
		Priority:  params.Priority,
		AgentID:   params.AgentID,
		UserID:    params.UserID,
		Notes:     params.Notes,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if lead.Priority == "" {
		lead.Priority = "medium"
	}
	if lead.Source == "" {
		lead.Source = "website"
	}
	f.leads[lead.ID] = lead
	return lead, nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id uuid.UUID) (repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lead, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	return lead, nil
}

func (f *fakeRepo) GetByPhoneOrEmail(ctx context.Context, phoneNumber, email string) (repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, lead := range f.leads {
		if lead.Phone == phoneNumber || (email != "" && lead.Email == email) {
			return lead, nil
		}
	}
	return repository.Lead{}, repository.ErrNotFound
}

func (f *fakeRepo) List(ctx context.Context, params repository.ListParams) ([]repository.Lead, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]repository.Lead, 0, len(f.leads))
	for _, lead := range f.leads {
		out = append(out, lead)
	}
	return out, len(out), nil
}

func (f *fakeRepo) Update(ctx context.Context, id uuid.UUID, params repository.UpdateLeadParams) (repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lead, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	if params.Notes != nil {
		lead.Notes = *params.Notes
	}
	if params.Priority != nil {
		lead.Priority = *params.Priority
	}
	f.leads[id] = lead
	return lead, nil
}

func (f *fakeRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lead, ok := f.leads[id]
	if !ok {
		return "", repository.ErrNotFound
	}
	old := lead.Status
	lead.Status = status
	f.leads[id] = lead
	return old, nil
}

func (f *fakeRepo) Assign(ctx context.Context, id uuid.UUID, agentID *uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	lead, ok := f.leads[id]
	if !ok {
		return repository.ErrNotFound
	}
	lead.AgentID = agentID
	f.leads[id] = lead
	return nil
}

func (f *fakeRepo) CreateInteraction(ctx context.Context, params repository.CreateInteractionParams) (repository.Interaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	it := repository.Interaction{
		ID:              uuid.New(),
		LeadID:          params.LeadID,
		InteractionType: params.InteractionType,
		PropertyID:      params.PropertyID,
		Metadata:        params.Metadata,
		OccurredAt:      params.OccurredAt,
		CreatedAt:       time.Now(),
	}
	f.interactions[params.LeadID] = append(f.interactions[params.LeadID], it)
	return it, nil
}

func (f *fakeRepo) ListInteractions(ctx context.Context, leadID uuid.UUID) ([]repository.Interaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.interactions[leadID], nil
}

func (f *fakeRepo) CreateActivity(ctx context.Context, params repository.CreateActivityParams) (repository.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	act := repository.Activity{
		ID:           uuid.New(),
		LeadID:       params.LeadID,
		ActivityType: params.ActivityType,
		AgentID:      params.AgentID,
		Subject:      params.Subject,
		Notes:        params.Notes,
		ScheduledAt:  params.ScheduledAt,
		CompletedAt:  params.CompletedAt,
		CreatedAt:    time.Now(),
	}
	f.activities[params.LeadID] = append(f.activities[params.LeadID], act)
	return act, nil
}

func (f *fakeRepo) ListActivities(ctx context.Context, leadID uuid.UUID) ([]repository.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.activities[leadID], nil
}

func (f *fakeRepo) CreateWhatsAppMessage(ctx context.Context, params repository.CreateWhatsAppMessageParams) (repository.WhatsAppMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg := repository.WhatsAppMessage{
		ID:          uuid.New(),
		LeadID:      params.LeadID,
		Direction:   params.Direction,
		MessageBody: params.MessageBody,
		Status:      "sent",
		SentAt:      time.Now(),
		CreatedAt:   time.Now(),
	}
	f.whatsapp[params.LeadID] = append(f.whatsapp[params.LeadID], msg)
	return msg, nil
}

func (f *fakeRepo) ListWhatsAppMessages(ctx context.Context, leadID uuid.UUID) ([]repository.WhatsAppMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.whatsapp[leadID], nil
}

func (f *fakeRepo) CreateTask(ctx context.Context, params repository.CreateTaskParams) (repository.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	task := repository.Task{
		ID:        uuid.New(),
		LeadID:    params.LeadID,
		AgentID:   params.AgentID,
		Title:     params.Title,
		Priority:  params.Priority,
		DueAt:     params.DueAt,
		CreatedAt: time.Now(),
	}
	f.tasks[task.ID] = task
	return task, nil
}

func (f *fakeRepo) ListTasks(ctx context.Context, leadID uuid.UUID) ([]repository.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []repository.Task{}
	for _, task := range f.tasks {
		if task.LeadID == leadID {
			out = append(out, task)
		}
	}
	return out, nil
}

func (f *fakeRepo) CompleteTask(ctx context.Context, taskID uuid.UUID) (repository.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[taskID]
	if !ok {
		return repository.Task{}, repository.ErrNotFound
	}
	now := time.Now()
	task.Completed = true
	task.CompletedAt = &now
	f.tasks[taskID] = task
	return task, nil
}

func (f *fakeRepo) DeleteTask(ctx context.Context, taskID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tasks[taskID]; !ok {
		return repository.ErrNotFound
	}
	delete(f.tasks, taskID)
	return nil
}

func (f *fakeRepo) StatusDistribution(ctx context.Context, agentID *uuid.UUID) ([]repository.StatusCount, error) {
	return []repository.StatusCount{}, nil
}

func (f *fakeRepo) PipelineStats(ctx context.Context, hotThreshold int) (repository.PipelineStats, error) {
	return repository.PipelineStats{}, nil
}

type fakeScorer struct {
	mu       sync.Mutex
	attempts []uuid.UUID
	err      error
}

func (f *fakeScorer) Recompute(ctx context.Context, leadID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts = append(f.attempts, leadID)
	if f.err != nil {
		return 0, f.err
	}
	return 42, nil
}

func (f *fakeScorer) TryRecompute(ctx context.Context, leadID uuid.UUID) {
	f.Recompute(ctx, leadID) //nolint:errcheck
}

func (f *fakeScorer) attemptCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.attempts)
}

type fakeAssigner struct {
	agentID *uuid.UUID
	err     error
	calls   int
}

func (f *fakeAssigner) PickAgent(ctx context.Context) (*uuid.UUID, error) {
	f.calls++
	return f.agentID, f.err
}

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(ctx context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *recordingBus) Subscribe(eventName string, handler events.Handler) {}

func (b *recordingBus) published(name string) []events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []events.Event{}
	for _, e := range b.events {
		if e.EventName() == name {
			out = append(out, e)
		}
	}
	return out
}

func newTestService(repo *fakeRepo, scorer *fakeScorer, assigner *fakeAssigner, bus *recordingBus) *Service {
	return New(repo, scorer, assigner, bus, logger.New("test"))
}

func TestCreateAutoAssigns(t *testing.T) {
	agentID := uuid.New()
	repo := newFakeRepo()
	bus := &recordingBus{}
	svc := newTestService(repo, &fakeScorer{}, &fakeAssigner{agentID: &agentID}, bus)

	lead, err := svc.Create(context.Background(), transport.CreateLeadRequest{
		FirstName: "Wanjiku",
		Phone:     "+254712345678",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if lead.AgentID == nil || *lead.AgentID != agentID {
		t.Errorf("lead not assigned to picked agent: got %v", lead.AgentID)
	}
	if len(bus.published("leads.lead.created")) != 1 {
		t.Error("expected LeadCreated event")
	}
	if len(bus.published("leads.lead.assigned")) != 1 {
		t.Error("expected LeadAssigned event")
	}
}

func TestCreateUnassignedWhenNoAgents(t *testing.T) {
	repo := newFakeRepo()
	bus := &recordingBus{}
	svc := newTestService(repo, &fakeScorer{}, &fakeAssigner{agentID: nil}, bus)

	lead, err := svc.Create(context.Background(), transport.CreateLeadRequest{
		FirstName: "Otieno",
		Phone:     "0712345678",
	})
	if err != nil {
		t.Fatalf("Create with no eligible agents must succeed, got %v", err)
	}
	if lead.AgentID != nil {
		t.Errorf("expected unassigned lead, got agent %s", lead.AgentID)
	}
	if len(bus.published("leads.lead.assigned")) != 0 {
		t.Error("unexpected LeadAssigned event for unassigned lead")
	}
}

func TestCreateRespectsExplicitAgent(t *testing.T) {
	explicit := uuid.New()
	assigner := &fakeAssigner{agentID: nil}
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeScorer{}, assigner, &recordingBus{})

	lead, err := svc.Create(context.Background(), transport.CreateLeadRequest{
		FirstName: "Akinyi",
		Phone:     "+254701234567",
		AgentID:   &explicit,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if lead.AgentID == nil || *lead.AgentID != explicit {
		t.Errorf("explicit agent not honored: got %v", lead.AgentID)
	}
	if assigner.calls != 0 {
		t.Errorf("assignment policy ran despite explicit agent")
	}
}

func TestUpdateStatusTriggersRecompute(t *testing.T) {
	repo := newFakeRepo()
	scorer := &fakeScorer{}
	bus := &recordingBus{}
	svc := newTestService(repo, scorer, &fakeAssigner{}, bus)

	lead, err := svc.Create(context.Background(), transport.CreateLeadRequest{FirstName: "Njeri", Phone: "+254722000111"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	leadID := lead.ID

	updated, err := svc.UpdateStatus(context.Background(), leadID, "qualified")
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.Status != "qualified" {
		t.Errorf("status = %q, want qualified", updated.Status)
	}
	if scorer.attemptCount() != 1 {
		t.Errorf("recompute attempts = %d, want 1", scorer.attemptCount())
	}
	if len(bus.published("leads.lead.status_changed")) != 1 {
		t.Error("expected LeadStatusChanged event")
	}
}

func TestUpdateStatusSurvivesRecomputeFailure(t *testing.T) {
	repo := newFakeRepo()
	scorer := &fakeScorer{err: errors.New("connection refused")}
	svc := newTestService(repo, scorer, &fakeAssigner{}, &recordingBus{})

	lead, err := svc.Create(context.Background(), transport.CreateLeadRequest{FirstName: "Mumbi", Phone: "+254733000222"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := svc.UpdateStatus(context.Background(), lead.ID, "proposal")
	if err != nil {
		t.Fatalf("status write must not fail when recompute fails, got %v", err)
	}
	if updated.Status != "proposal" {
		t.Errorf("status = %q, want proposal", updated.Status)
	}
}

func TestAddInteractionTriggersRecompute(t *testing.T) {
	repo := newFakeRepo()
	scorer := &fakeScorer{}
	svc := newTestService(repo, scorer, &fakeAssigner{}, &recordingBus{})

	lead, err := svc.Create(context.Background(), transport.CreateLeadRequest{FirstName: "Kamau", Phone: "+254744000333"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	propertyID := uuid.New()
	for i, typ := range []string{"page_view", "property_click", "search", "inquiry", "download", "callback"} {
		if _, err := svc.AddInteraction(context.Background(), lead.ID, transport.CreateInteractionRequest{
			InteractionType: typ,
			PropertyID:      &propertyID,
		}); err != nil {
			t.Fatalf("AddInteraction %s: %v", typ, err)
		}
		if scorer.attemptCount() != i+1 {
			t.Errorf("recompute attempts after %s = %d, want %d", typ, scorer.attemptCount(), i+1)
		}
	}
	if len(repo.interactions[lead.ID]) != 6 {
		t.Errorf("stored %d interactions, want 6", len(repo.interactions[lead.ID]))
	}
}

func TestAddInteractionUnknownLead(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeScorer{}, &fakeAssigner{}, &recordingBus{})

	_, err := svc.AddInteraction(context.Background(), uuid.New(), transport.CreateInteractionRequest{InteractionType: "page_view"})
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Errorf("expected not-found, got %v", err)
	}
}

func TestAddActivityAttributesAgent(t *testing.T) {
	repo := newFakeRepo()
	scorer := &fakeScorer{}
	svc := newTestService(repo, scorer, &fakeAssigner{}, &recordingBus{})

	lead, err := svc.Create(context.Background(), transport.CreateLeadRequest{FirstName: "Nyambura", Phone: "+254777000666"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	agentID := uuid.New()
	scheduled := time.Now().Add(48 * time.Hour)
	activity, err := svc.AddActivity(context.Background(), lead.ID, &agentID, transport.CreateActivityRequest{
		ActivityType: "meeting",
		Subject:      "Walk through the Kilimani shortlist",
		ScheduledAt:  &scheduled,
	})
	if err != nil {
		t.Fatalf("AddActivity: %v", err)
	}
	if activity.AgentID == nil || *activity.AgentID != agentID {
		t.Errorf("activity agent = %v, want %s", activity.AgentID, agentID)
	}
	if activity.ScheduledAt == nil || !activity.ScheduledAt.Equal(scheduled) {
		t.Errorf("activity scheduled at %v, want %s", activity.ScheduledAt, scheduled)
	}
	if scorer.attemptCount() != 1 {
		t.Errorf("recompute attempts = %d, want 1", scorer.attemptCount())
	}
}

func TestUpdateTriggersRecompute(t *testing.T) {
	repo := newFakeRepo()
	scorer := &fakeScorer{}
	svc := newTestService(repo, scorer, &fakeAssigner{}, &recordingBus{})

	lead, err := svc.Create(context.Background(), transport.CreateLeadRequest{FirstName: "Wafula", Phone: "+254788000777"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	priority := "high"
	if _, err := svc.Update(context.Background(), lead.ID, transport.UpdateLeadRequest{Priority: &priority}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if scorer.attemptCount() != 1 {
		t.Errorf("recompute attempts = %d, want 1", scorer.attemptCount())
	}
}

func TestCreateTaskDefaultsPriority(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeScorer{}, &fakeAssigner{}, &recordingBus{})

	lead, err := svc.Create(context.Background(), transport.CreateLeadRequest{FirstName: "Makena", Phone: "+254799000888"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	agentID := uuid.New()
	task, err := svc.CreateTask(context.Background(), lead.ID, &agentID, transport.CreateTaskRequest{Title: "Send the tenancy agreement"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if task.Priority != "medium" {
		t.Errorf("default priority = %q, want medium", task.Priority)
	}

	urgent, err := svc.CreateTask(context.Background(), lead.ID, &agentID, transport.CreateTaskRequest{
		Title:    "Chase the deposit",
		Priority: "urgent",
	})
	if err != nil {
		t.Fatalf("CreateTask urgent: %v", err)
	}
	if urgent.Priority != "urgent" {
		t.Errorf("priority = %q, want urgent", urgent.Priority)
	}
}

func TestRecordWhatsAppMessageTriggersRecompute(t *testing.T) {
	repo := newFakeRepo()
	scorer := &fakeScorer{}
	svc := newTestService(repo, scorer, &fakeAssigner{}, &recordingBus{})

	lead, err := svc.Create(context.Background(), transport.CreateLeadRequest{FirstName: "Chebet", Phone: "+254755000444"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.RecordWhatsAppMessage(context.Background(), lead.ID, "inbound", "Is the Westlands flat still available?", "wamid.abc"); err != nil {
		t.Fatalf("RecordWhatsAppMessage: %v", err)
	}
	if scorer.attemptCount() != 1 {
		t.Errorf("recompute attempts = %d, want 1", scorer.attemptCount())
	}

	if _, err := svc.RecordWhatsAppMessage(context.Background(), lead.ID, "sideways", "nope", ""); err == nil {
		t.Error("expected validation error for bad direction")
	}
}

func TestFindOrCreateDeduplicates(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeScorer{}, &fakeAssigner{}, &recordingBus{})

	first, created, err := svc.FindOrCreate(context.Background(), transport.CreateLeadRequest{
		FirstName: "Moraa",
		Phone:     "0712345678",
	})
	if err != nil || !created {
		t.Fatalf("first FindOrCreate: created=%v err=%v", created, err)
	}

	// Same person, differently formatted number.
	second, created, err := svc.FindOrCreate(context.Background(), transport.CreateLeadRequest{
		FirstName: "Moraa",
		Phone:     "+254712345678",
	})
	if err != nil {
		t.Fatalf("second FindOrCreate: %v", err)
	}
	if created {
		t.Error("expected existing lead, got a new one")
	}
	if second.ID != first.ID {
		t.Errorf("dedup failed: %s vs %s", first.ID, second.ID)
	}
}

func TestAutoAssignNoAgentsLeavesUnassigned(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeScorer{}, &fakeAssigner{agentID: nil}, &recordingBus{})

	lead, err := svc.Create(context.Background(), transport.CreateLeadRequest{FirstName: "Baraka", Phone: "+254766000555"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	result, err := svc.AutoAssign(context.Background(), lead.ID)
	if err != nil {
		t.Fatalf("AutoAssign with no agents must succeed, got %v", err)
	}
	if result.AgentID != nil {
		t.Errorf("expected lead to stay unassigned, got %v", result.AgentID)
	}
}
