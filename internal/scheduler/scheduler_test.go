package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	bookingtransport "kejani_backend/internal/bookings/transport"
	"kejani_backend/internal/notifications/repository"
	"kejani_backend/platform/logger"
)

type stubSchedulerConfig struct {
	redisURL string
	queue    string
}

func (c stubSchedulerConfig) GetRedisURL() string       { return c.redisURL }
func (c stubSchedulerConfig) GetRedisTLSInsecure() bool { return false }
func (c stubSchedulerConfig) GetAsynqQueueName() string { return c.queue }
func (c stubSchedulerConfig) GetAsynqConcurrency() int  { return 1 }

type fakeOutboxStore struct {
	due         []repository.OutboxRecord
	rescheduled []uuid.UUID
	lastErrors  []string
}

func (f *fakeOutboxStore) ClaimDueOutbox(_ context.Context, limit int) ([]repository.OutboxRecord, error) {
	claimed := f.due
	if len(claimed) > limit {
		claimed = claimed[:limit]
	}
	f.due = nil
	return claimed, nil
}

func (f *fakeOutboxStore) RescheduleOutbox(_ context.Context, id uuid.UUID, _ time.Time, lastError string) error {
	f.rescheduled = append(f.rescheduled, id)
	f.lastErrors = append(f.lastErrors, lastError)
	return nil
}

type fakeReminderSource struct {
	due []bookingtransport.BookingResponse
}

func (f *fakeReminderSource) DueReminders(_ context.Context, _ time.Duration) ([]bookingtransport.BookingResponse, error) {
	due := f.due
	f.due = nil
	return due, nil
}

func newInspector(t *testing.T, mr *miniredis.Miniredis) *asynq.Inspector {
	t.Helper()
	insp := asynq.NewInspector(asynq.RedisClientOpt{Addr: mr.Addr()})
	t.Cleanup(func() { _ = insp.Close() })
	return insp
}

func TestOutboxDispatcherEnqueuesDueRecords(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := stubSchedulerConfig{redisURL: "redis://" + mr.Addr(), queue: "background"}

	outboxID := uuid.New()
	store := &fakeOutboxStore{due: []repository.OutboxRecord{
		{ID: outboxID, Kind: "email", RunAt: time.Now().Add(-time.Minute)},
	}}

	dispatcher, err := NewOutboxDispatcher(cfg, store, logger.New("test"))
	if err != nil {
		t.Fatalf("NewOutboxDispatcher: %v", err)
	}
	defer dispatcher.Close()

	dispatcher.dispatchOnce(context.Background())

	insp := newInspector(t, mr)
	tasks, err := insp.ListPendingTasks("background")
	if err != nil {
		t.Fatalf("ListPendingTasks: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("pending tasks = %d, want 1", len(tasks))
	}
	if tasks[0].Type != TaskNotificationOutboxDue {
		t.Errorf("task type = %q, want %q", tasks[0].Type, TaskNotificationOutboxDue)
	}
	payload, err := ParseNotificationOutboxDuePayload(asynq.NewTask(tasks[0].Type, tasks[0].Payload))
	if err != nil {
		t.Fatalf("parse payload: %v", err)
	}
	if payload.OutboxID != outboxID.String() {
		t.Errorf("payload outbox id = %q, want %q", payload.OutboxID, outboxID)
	}
	if len(store.rescheduled) != 0 {
		t.Errorf("rescheduled %v, want none", store.rescheduled)
	}
}

func TestOutboxDispatcherReschedulesOnEnqueueFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := stubSchedulerConfig{redisURL: "redis://" + mr.Addr()}

	outboxID := uuid.New()
	store := &fakeOutboxStore{due: []repository.OutboxRecord{
		{ID: outboxID, Kind: "email", RunAt: time.Now()},
	}}

	dispatcher, err := NewOutboxDispatcher(cfg, store, logger.New("test"))
	if err != nil {
		t.Fatalf("NewOutboxDispatcher: %v", err)
	}
	defer dispatcher.Close()

	// Redis going away mid-dispatch must put the claimed row back.
	mr.Close()
	dispatcher.dispatchOnce(context.Background())

	if len(store.rescheduled) != 1 || store.rescheduled[0] != outboxID {
		t.Fatalf("rescheduled = %v, want [%s]", store.rescheduled, outboxID)
	}
	if store.lastErrors[0] == "" {
		t.Error("reschedule should carry the enqueue error")
	}
}

func TestReminderSweeperEnqueuesDueBookings(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := stubSchedulerConfig{redisURL: "redis://" + mr.Addr()}

	booking := bookingtransport.BookingResponse{
		ID:          uuid.New(),
		PropertyID:  uuid.New(),
		ClientID:    uuid.New(),
		AgentID:     uuid.New(),
		BookingDate: time.Now().Add(45 * time.Minute),
	}
	source := &fakeReminderSource{due: []bookingtransport.BookingResponse{booking}}

	sweeper, err := NewBookingReminderSweeper(cfg, source, logger.New("test"))
	if err != nil {
		t.Fatalf("NewBookingReminderSweeper: %v", err)
	}
	defer sweeper.Close()

	sweeper.sweepOnce(context.Background())

	insp := newInspector(t, mr)
	tasks, err := insp.ListPendingTasks("default")
	if err != nil {
		t.Fatalf("ListPendingTasks: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("pending tasks = %d, want 1", len(tasks))
	}
	if tasks[0].Type != TaskBookingReminder {
		t.Errorf("task type = %q, want %q", tasks[0].Type, TaskBookingReminder)
	}
	payload, err := ParseBookingReminderPayload(asynq.NewTask(tasks[0].Type, tasks[0].Payload))
	if err != nil {
		t.Fatalf("parse payload: %v", err)
	}
	if payload.BookingID != booking.ID.String() {
		t.Errorf("payload booking id = %q, want %q", payload.BookingID, booking.ID)
	}

	// A second sweep with nothing due enqueues nothing.
	sweeper.sweepOnce(context.Background())
	tasks, err = insp.ListPendingTasks("default")
	if err != nil {
		t.Fatalf("ListPendingTasks: %v", err)
	}
	if len(tasks) != 1 {
		t.Errorf("pending tasks after empty sweep = %d, want 1", len(tasks))
	}
}
