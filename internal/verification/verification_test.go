package verification

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"

	"kejani_backend/internal/events"
	"kejani_backend/platform/apperr"
	"kejani_backend/platform/logger"
)

// fakeStore mirrors the real store's behavior: each Sync call writes both
// sides atomically and reports whether anything changed.
type fakeStore struct {
	// profileID -> userID; users without an entry here have no profile.
	owners map[uuid.UUID]uuid.UUID
	// verified flags keyed by userID, one per side.
	userFlags    map[uuid.UUID]bool
	profileFlags map[uuid.UUID]bool

	fromUserCalls    int
	fromProfileCalls int
}

func (f *fakeStore) SyncFromUser(_ context.Context, userID uuid.UUID, verified bool) (bool, error) {
	f.fromUserCalls++
	current, ok := f.userFlags[userID]
	if !ok {
		return false, ErrUserNotFound
	}
	if current == verified {
		return false, nil
	}
	f.userFlags[userID] = verified
	if _, hasProfile := f.profileFlags[userID]; hasProfile {
		f.profileFlags[userID] = verified
	}
	return true, nil
}

func (f *fakeStore) SyncFromProfile(_ context.Context, profileID uuid.UUID, verified bool) (uuid.UUID, bool, error) {
	f.fromProfileCalls++
	userID, ok := f.owners[profileID]
	if !ok {
		return uuid.Nil, false, ErrProfileNotFound
	}
	if f.profileFlags[userID] == verified {
		return userID, false, nil
	}
	f.profileFlags[userID] = verified
	f.userFlags[userID] = verified
	return userID, true, nil
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

func (b *recordingBus) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}

func setup() (*Service, *fakeStore, *recordingBus, uuid.UUID, uuid.UUID) {
	userID := uuid.New()
	profileID := uuid.New()
	store := &fakeStore{
		owners:       map[uuid.UUID]uuid.UUID{profileID: userID},
		userFlags:    map[uuid.UUID]bool{userID: false},
		profileFlags: map[uuid.UUID]bool{userID: false},
	}
	bus := &recordingBus{}
	return NewService(store, bus, logger.New("test")), store, bus, userID, profileID
}

func TestSetUserVerifiedPropagatesToProfile(t *testing.T) {
	svc, store, _, userID, _ := setup()

	if err := svc.SetUserVerified(context.Background(), userID, true); err != nil {
		t.Fatalf("SetUserVerified: %v", err)
	}
	if !store.userFlags[userID] {
		t.Error("user flag not set")
	}
	if !store.profileFlags[userID] {
		t.Error("profile flag not mirrored")
	}
}

func TestSetUserVerifiedExactlyOneHop(t *testing.T) {
	svc, store, _, userID, _ := setup()

	if err := svc.SetUserVerified(context.Background(), userID, true); err != nil {
		t.Fatalf("SetUserVerified: %v", err)
	}

	// One sync from the user side, never a bounce through the profile side.
	if store.fromUserCalls != 1 {
		t.Errorf("user-side syncs = %d, want 1", store.fromUserCalls)
	}
	if store.fromProfileCalls != 0 {
		t.Errorf("profile-side syncs = %d, want 0", store.fromProfileCalls)
	}
}

func TestSetUserVerifiedMissingProfileIsNoOp(t *testing.T) {
	userID := uuid.New()
	store := &fakeStore{
		owners:       map[uuid.UUID]uuid.UUID{},
		userFlags:    map[uuid.UUID]bool{userID: false},
		profileFlags: map[uuid.UUID]bool{},
	}
	svc := NewService(store, &recordingBus{}, logger.New("test"))

	if err := svc.SetUserVerified(context.Background(), userID, true); err != nil {
		t.Fatalf("verifying a user without a profile must succeed, got %v", err)
	}
	if !store.userFlags[userID] {
		t.Error("user flag not set")
	}
	if len(store.profileFlags) != 0 {
		t.Error("a profile flag appeared for a user without a profile")
	}
}

func TestSetUserVerifiedUnchangedSkipsEvent(t *testing.T) {
	svc, _, bus, userID, _ := setup()

	// Already false; setting false again changes nothing.
	if err := svc.SetUserVerified(context.Background(), userID, false); err != nil {
		t.Fatalf("SetUserVerified: %v", err)
	}
	if bus.count() != 0 {
		t.Error("published an event for a no-op change")
	}
}

func TestSetUserVerifiedUnknownUser(t *testing.T) {
	svc, _, _, _, _ := setup()

	err := svc.SetUserVerified(context.Background(), uuid.New(), true)
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Errorf("expected not-found, got %v", err)
	}
}

func TestSetAgentProfileVerifiedPropagatesToUser(t *testing.T) {
	svc, store, bus, userID, profileID := setup()

	if err := svc.SetAgentProfileVerified(context.Background(), profileID, true); err != nil {
		t.Fatalf("SetAgentProfileVerified: %v", err)
	}
	if !store.profileFlags[userID] {
		t.Error("profile flag not set")
	}
	if !store.userFlags[userID] {
		t.Error("user flag not mirrored")
	}
	if store.fromProfileCalls != 1 || store.fromUserCalls != 0 {
		t.Errorf("syncs = profile %d / user %d, want 1 / 0", store.fromProfileCalls, store.fromUserCalls)
	}
	if bus.count() != 1 {
		t.Errorf("events = %d, want 1", bus.count())
	}
}

func TestSetAgentProfileVerifiedUnknownProfile(t *testing.T) {
	svc, _, _, _, _ := setup()

	err := svc.SetAgentProfileVerified(context.Background(), uuid.New(), true)
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Errorf("expected not-found, got %v", err)
	}
}

func TestRoundTripSettles(t *testing.T) {
	svc, store, _, userID, profileID := setup()

	if err := svc.SetUserVerified(context.Background(), userID, true); err != nil {
		t.Fatalf("SetUserVerified: %v", err)
	}
	if err := svc.SetAgentProfileVerified(context.Background(), profileID, false); err != nil {
		t.Fatalf("SetAgentProfileVerified: %v", err)
	}

	if store.userFlags[userID] || store.profileFlags[userID] {
		t.Error("flags out of sync after round trip")
	}
}
