package notifications

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"kejani_backend/internal/events"
	"kejani_backend/internal/notifications/repository"
	"kejani_backend/internal/notifications/service"
	"kejani_backend/platform/logger"
)

type fakeRepo struct {
	mu            sync.Mutex
	notifications []repository.Notification
	outbox        map[uuid.UUID]repository.OutboxRecord
	succeeded     []uuid.UUID
	failed        []uuid.UUID
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{outbox: make(map[uuid.UUID]repository.OutboxRecord)}
}

func (f *fakeRepo) Create(_ context.Context, p repository.CreateParams) (repository.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := repository.Notification{
		ID:           uuid.New(),
		UserID:       p.UserID,
		Title:        p.Title,
		Body:         p.Body,
		Category:     p.Category,
		ResourceID:   p.ResourceID,
		ResourceType: p.ResourceType,
	}
	f.notifications = append(f.notifications, n)
	return n, nil
}

func (f *fakeRepo) List(_ context.Context, userID uuid.UUID, _ bool, _, _ int) ([]repository.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.Notification
	for _, n := range f.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeRepo) CountUnread(_ context.Context, userID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, n := range f.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (f *fakeRepo) MarkRead(context.Context, uuid.UUID, uuid.UUID) error { return nil }

func (f *fakeRepo) MarkAllRead(context.Context, uuid.UUID) (int, error) { return 0, nil }

func (f *fakeRepo) Delete(context.Context, uuid.UUID, uuid.UUID) error { return nil }

func (f *fakeRepo) EnqueueOutbox(_ context.Context, p repository.EnqueueParams) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	payload, err := json.Marshal(p.Payload)
	if err != nil {
		return uuid.Nil, err
	}
	rec := repository.OutboxRecord{
		ID:       uuid.New(),
		Kind:     p.Kind,
		Template: p.Template,
		Payload:  payload,
		Status:   repository.OutboxPending,
	}
	f.outbox[rec.ID] = rec
	return rec.ID, nil
}

func (f *fakeRepo) GetOutboxRecord(_ context.Context, id uuid.UUID) (repository.OutboxRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.outbox[id]
	if !ok {
		return repository.OutboxRecord{}, repository.ErrNotFound
	}
	return rec, nil
}

func (f *fakeRepo) ClaimDueOutbox(_ context.Context, _ int) ([]repository.OutboxRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.OutboxRecord
	for _, rec := range f.outbox {
		if rec.Status == repository.OutboxPending {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeRepo) MarkOutboxProcessing(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec := f.outbox[id]
	rec.Status = repository.OutboxProcessing
	rec.Attempts++
	f.outbox[id] = rec
	return nil
}

func (f *fakeRepo) MarkOutboxSucceeded(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec := f.outbox[id]
	rec.Status = repository.OutboxSucceeded
	f.outbox[id] = rec
	f.succeeded = append(f.succeeded, id)
	return nil
}

func (f *fakeRepo) MarkOutboxFailed(_ context.Context, id uuid.UUID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec := f.outbox[id]
	rec.Status = repository.OutboxFailed
	f.outbox[id] = rec
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeRepo) RescheduleOutbox(_ context.Context, id uuid.UUID, _ time.Time, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec := f.outbox[id]
	rec.Status = repository.OutboxPending
	f.outbox[id] = rec
	return nil
}

type recordingEmailSender struct {
	mu    sync.Mutex
	sent  []string
	calls int
}

func (r *recordingEmailSender) record(kind string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, kind)
	r.calls++
	return nil
}

func (r *recordingEmailSender) SendWelcomeEmail(context.Context, string, string) error {
	return r.record("welcome")
}

func (r *recordingEmailSender) SendBookingRequestedEmail(context.Context, string, string, string) error {
	return r.record("booking_requested")
}

func (r *recordingEmailSender) SendBookingStatusEmail(context.Context, string, string, string) error {
	return r.record("booking_status")
}

func (r *recordingEmailSender) SendBookingReminderEmail(context.Context, string, string) error {
	return r.record("booking_reminder")
}

func (r *recordingEmailSender) SendPaymentReceiptEmail(context.Context, string, string, int64) error {
	return r.record("payment_receipt")
}

func (r *recordingEmailSender) SendAgentVerifiedEmail(context.Context, string, string) error {
	return r.record("agent_verified")
}

func (r *recordingEmailSender) SendCustomEmail(context.Context, string, string, string) error {
	return r.record("custom")
}

type fakeDirectory struct {
	contacts map[uuid.UUID]Contact
}

func (f *fakeDirectory) Contact(_ context.Context, userID uuid.UUID) (Contact, error) {
	return f.contacts[userID], nil
}

type noopWhatsApp struct{}

func (noopWhatsApp) SendText(context.Context, string, string) error { return nil }

func newTestSubscriber(repo *fakeRepo, sender *recordingEmailSender, dir *fakeDirectory) *subscriber {
	svc := service.New(repo, sender, noopWhatsApp{}, logger.New("test"))
	return &subscriber{service: svc, directory: dir, logger: logger.New("test")}
}

func TestLeadAssignedNotifiesAgent(t *testing.T) {
	repo := newFakeRepo()
	sub := newTestSubscriber(repo, &recordingEmailSender{}, &fakeDirectory{})
	agent := uuid.New()
	leadID := uuid.New()

	err := sub.Handle(context.Background(), events.LeadAssigned{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    leadID,
		NewAgent:  agent,
		Automatic: true,
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(repo.notifications) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(repo.notifications))
	}
	n := repo.notifications[0]
	if n.UserID != agent {
		t.Errorf("notified %s, want agent %s", n.UserID, agent)
	}
	if n.Category != "lead" {
		t.Errorf("category = %q, want lead", n.Category)
	}
	if n.ResourceID == nil || *n.ResourceID != leadID {
		t.Errorf("resource id not set to lead")
	}
}

func TestMessageSentNotifiesRecipientOnly(t *testing.T) {
	repo := newFakeRepo()
	sub := newTestSubscriber(repo, &recordingEmailSender{}, &fakeDirectory{})
	sender, recipient := uuid.New(), uuid.New()

	err := sub.Handle(context.Background(), events.MessageSent{
		BaseEvent:   events.NewBaseEvent(),
		MessageID:   uuid.New(),
		SenderID:    sender,
		RecipientID: recipient,
		Preview:     "see you at 2pm",
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(repo.notifications) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(repo.notifications))
	}
	if repo.notifications[0].UserID != recipient {
		t.Errorf("notified %s, want recipient %s", repo.notifications[0].UserID, recipient)
	}
}

func TestBookingCreatedNotifiesAndEnqueuesEmail(t *testing.T) {
	repo := newFakeRepo()
	agent, client := uuid.New(), uuid.New()
	dir := &fakeDirectory{contacts: map[uuid.UUID]Contact{
		agent:  {Email: "agent@example.com", FirstName: "Grace"},
		client: {Email: "client@example.com", FirstName: "Brian", LastName: "Otieno"},
	}}
	sub := newTestSubscriber(repo, &recordingEmailSender{}, dir)

	err := sub.Handle(context.Background(), events.BookingCreated{
		BaseEvent: events.NewBaseEvent(),
		BookingID: uuid.New(),
		AgentID:   agent,
		ClientID:  client,
		Date:      time.Now().Add(48 * time.Hour),
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(repo.notifications) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(repo.notifications))
	}
	if repo.notifications[0].UserID != agent {
		t.Errorf("notification went to %s, want agent", repo.notifications[0].UserID)
	}
	if len(repo.outbox) != 1 {
		t.Fatalf("expected 1 outbox record, got %d", len(repo.outbox))
	}
	for _, rec := range repo.outbox {
		if rec.Template != service.TemplateBookingRequested {
			t.Errorf("template = %q, want %q", rec.Template, service.TemplateBookingRequested)
		}
		var p service.EmailPayload
		if err := json.Unmarshal(rec.Payload, &p); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if p.ToEmail != "agent@example.com" {
			t.Errorf("email to %q, want agent", p.ToEmail)
		}
		if p.ClientName != "Brian Otieno" {
			t.Errorf("client name = %q", p.ClientName)
		}
	}
}

func TestOutboxDueDispatchesEmail(t *testing.T) {
	repo := newFakeRepo()
	sender := &recordingEmailSender{}
	sub := newTestSubscriber(repo, sender, &fakeDirectory{})

	id, err := repo.EnqueueOutbox(context.Background(), repository.EnqueueParams{
		Kind:     service.KindEmail,
		Template: service.TemplateWelcome,
		Payload:  service.EmailPayload{ToEmail: "new@example.com", Name: "wanjiku"},
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	err = sub.Handle(context.Background(), events.NotificationOutboxDue{
		BaseEvent: events.NewBaseEvent(),
		OutboxID:  id,
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if sender.calls != 1 || sender.sent[0] != "welcome" {
		t.Fatalf("expected one welcome email, got %v", sender.sent)
	}
	if len(repo.succeeded) != 1 {
		t.Errorf("expected outbox record marked succeeded")
	}
	if repo.outbox[id].Status != repository.OutboxSucceeded {
		t.Errorf("status = %q, want succeeded", repo.outbox[id].Status)
	}
}

func TestVerificationRevokedSendsNothing(t *testing.T) {
	repo := newFakeRepo()
	sub := newTestSubscriber(repo, &recordingEmailSender{}, &fakeDirectory{})

	err := sub.Handle(context.Background(), events.AgentVerificationChanged{
		BaseEvent: events.NewBaseEvent(),
		ProfileID: uuid.New(),
		UserID:    uuid.New(),
		Verified:  false,
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(repo.notifications) != 0 || len(repo.outbox) != 0 {
		t.Errorf("expected no notifications or emails on revocation")
	}
}
