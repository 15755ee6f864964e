// Package verification keeps the user account's verified flag and the agent
// profile's verified flag in lockstep. Either side can change; the change is
// mirrored to the other side exactly once, inside the same transaction as the
// triggering write, so the two flags are never observably out of sync and a
// sync can never cascade.
package verification

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"kejani_backend/internal/events"
	"kejani_backend/platform/apperr"
	"kejani_backend/platform/logger"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrProfileNotFound = errors.New("agent profile not found")
)

// Store performs one verification sync as a single atomic unit: the flag on
// the named record plus the mirror write on its counterpart.
type Store interface {
	// SyncFromUser flips the user's flag and mirrors it onto the agent
	// profile when one exists; users without a profile sync nothing.
	// changed is false when the stored value already matched, in which case
	// nothing was written. Unknown user ids return ErrUserNotFound.
	SyncFromUser(ctx context.Context, userID uuid.UUID, verified bool) (changed bool, err error)

	// SyncFromProfile flips the profile's flag and mirrors it onto the
	// owning user, returning that user's id. Unknown profile ids return
	// ErrProfileNotFound.
	SyncFromProfile(ctx context.Context, profileID uuid.UUID, verified bool) (userID uuid.UUID, changed bool, err error)
}

type Service struct {
	store    Store
	eventBus events.Bus
	logger   *logger.Logger
}

func NewService(store Store, bus events.Bus, log *logger.Logger) *Service {
	return &Service{store: store, eventBus: bus, logger: log}
}

// SetUserVerified updates the user's flag and mirrors it onto the agent
// profile when one exists. No-op changes publish nothing.
func (s *Service) SetUserVerified(ctx context.Context, userID uuid.UUID, verified bool) error {
	changed, err := s.store.SyncFromUser(ctx, userID, verified)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return apperr.NotFound("user not found")
		}
		return apperr.Internal("failed to update user verification", err)
	}
	if !changed {
		return nil
	}

	s.eventBus.Publish(ctx, events.UserVerificationChanged{
		BaseEvent: events.NewBaseEvent(),
		UserID:    userID,
		Verified:  verified,
	})
	return nil
}

// SetAgentProfileVerified updates the profile's flag and mirrors it onto the
// owning user account.
func (s *Service) SetAgentProfileVerified(ctx context.Context, profileID uuid.UUID, verified bool) error {
	userID, changed, err := s.store.SyncFromProfile(ctx, profileID, verified)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return apperr.NotFound("agent profile not found")
		}
		return apperr.Internal("failed to update agent profile verification", err)
	}
	if !changed {
		return nil
	}

	s.eventBus.Publish(ctx, events.AgentVerificationChanged{
		BaseEvent: events.NewBaseEvent(),
		ProfileID: profileID,
		UserID:    userID,
		Verified:  verified,
	})
	return nil
}
