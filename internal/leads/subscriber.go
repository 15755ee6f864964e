package leads

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"kejani_backend/internal/events"
	"kejani_backend/internal/leads/repository"
	"kejani_backend/internal/leads/transport"
	"kejani_backend/platform/logger"
	"kejani_backend/platform/phone"
)

// leadDirectory resolves and links the lead a platform user maps to.
type leadDirectory interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (repository.Lead, error)
	LinkUser(ctx context.Context, userID uuid.UUID, phoneNumber, email string) (int, error)
}

// engagementWriter appends engagement entries to a lead's history.
type engagementWriter interface {
	AddInteraction(ctx context.Context, leadID uuid.UUID, req transport.CreateInteractionRequest) (transport.InteractionResponse, error)
	AddActivity(ctx context.Context, leadID uuid.UUID, agentID *uuid.UUID, req transport.CreateActivityRequest) (transport.ActivityResponse, error)
}

// subscriber turns platform events into lead engagement. A registration
// claims any unclaimed leads sharing the new user's phone or email; after
// that, a property view by a lead-mapped user becomes a page_view
// interaction, a booked viewing an inquiry interaction, and a completed
// viewing a property_viewing activity attributed to the hosting agent.
// Everything here is best-effort and never propagates an error back to
// the bus.
type subscriber struct {
	leads      leadDirectory
	engagement engagementWriter
	log        *logger.Logger
}

func (s *subscriber) register(bus events.Bus) {
	bus.Subscribe(events.UserRegistered{}.EventName(), s)
	bus.Subscribe(events.PropertyViewed{}.EventName(), s)
	bus.Subscribe(events.BookingCreated{}.EventName(), s)
	bus.Subscribe(events.BookingStatusChanged{}.EventName(), s)
}

func (s *subscriber) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.UserRegistered:
		if _, err := s.leads.LinkUser(ctx, e.UserID, phone.NormalizeE164(e.Phone), e.Email); err != nil {
			s.log.DatabaseError("leads.link_user", err)
		}
	case events.PropertyViewed:
		if e.UserID == nil {
			return nil
		}
		lead, ok := s.lookup(ctx, *e.UserID)
		if !ok {
			return nil
		}
		propertyID := e.PropertyID
		if _, err := s.engagement.AddInteraction(ctx, lead.ID, transport.CreateInteractionRequest{
			InteractionType: "page_view",
			PropertyID:      &propertyID,
		}); err != nil {
			s.log.DatabaseError("leads.record_page_view", err)
		}
	case events.BookingCreated:
		lead, ok := s.lookup(ctx, e.ClientID)
		if !ok {
			return nil
		}
		propertyID := e.PropertyID
		if _, err := s.engagement.AddInteraction(ctx, lead.ID, transport.CreateInteractionRequest{
			InteractionType: "inquiry",
			PropertyID:      &propertyID,
			Metadata: map[string]interface{}{
				"bookingId": e.BookingID.String(),
				"date":      e.Date.Format(time.RFC3339),
			},
		}); err != nil {
			s.log.DatabaseError("leads.record_booking", err)
		}
	case events.BookingStatusChanged:
		if e.NewStatus != "completed" {
			return nil
		}
		lead, ok := s.lookup(ctx, e.ClientID)
		if !ok {
			return nil
		}
		agentID := e.AgentID
		completedAt := e.Date
		if _, err := s.engagement.AddActivity(ctx, lead.ID, &agentID, transport.CreateActivityRequest{
			ActivityType: "property_viewing",
			Subject:      "Completed a property viewing",
			CompletedAt:  &completedAt,
		}); err != nil {
			s.log.DatabaseError("leads.record_viewing", err)
		}
	}
	return nil
}

func (s *subscriber) lookup(ctx context.Context, userID uuid.UUID) (repository.Lead, bool) {
	lead, err := s.leads.GetByUserID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Lead{}, false
	}
	if err != nil {
		s.log.DatabaseError("leads.engagement_lookup", err)
		return repository.Lead{}, false
	}
	return lead, true
}
