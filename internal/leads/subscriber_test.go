package leads

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"kejani_backend/internal/events"
	"kejani_backend/internal/leads/repository"
	"kejani_backend/internal/leads/transport"
	"kejani_backend/platform/logger"
)

type fakeLeadDirectory struct {
	byUser map[uuid.UUID]repository.Lead
	linked []string
}

func (f *fakeLeadDirectory) GetByUserID(_ context.Context, userID uuid.UUID) (repository.Lead, error) {
	lead, ok := f.byUser[userID]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	return lead, nil
}

func (f *fakeLeadDirectory) LinkUser(_ context.Context, userID uuid.UUID, phoneNumber, email string) (int, error) {
	f.linked = append(f.linked, userID.String()+"|"+phoneNumber+"|"+email)
	return 1, nil
}

type fakeEngagementWriter struct {
	interactions []transport.CreateInteractionRequest
	activities   []transport.CreateActivityRequest
	leadIDs      []uuid.UUID
	agentIDs     []*uuid.UUID
}

func (f *fakeEngagementWriter) AddInteraction(_ context.Context, leadID uuid.UUID, req transport.CreateInteractionRequest) (transport.InteractionResponse, error) {
	f.interactions = append(f.interactions, req)
	f.leadIDs = append(f.leadIDs, leadID)
	return transport.InteractionResponse{}, nil
}

func (f *fakeEngagementWriter) AddActivity(_ context.Context, leadID uuid.UUID, agentID *uuid.UUID, req transport.CreateActivityRequest) (transport.ActivityResponse, error) {
	f.activities = append(f.activities, req)
	f.leadIDs = append(f.leadIDs, leadID)
	f.agentIDs = append(f.agentIDs, agentID)
	return transport.ActivityResponse{}, nil
}

func TestRegistrationClaimsMatchingLeads(t *testing.T) {
	userID := uuid.New()
	directory := &fakeLeadDirectory{byUser: map[uuid.UUID]repository.Lead{}}
	sub := &subscriber{leads: directory, engagement: &fakeEngagementWriter{}, log: logger.New("test")}

	err := sub.Handle(context.Background(), events.UserRegistered{
		BaseEvent: events.NewBaseEvent(),
		UserID:    userID,
		Email:     "wanjiku@example.com",
		Phone:     "0712345678",
		UserType:  "client",
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(directory.linked) != 1 {
		t.Fatalf("link attempts = %d, want 1", len(directory.linked))
	}
	// The phone is normalized before matching so differently formatted
	// capture-time numbers still line up.
	want := userID.String() + "|+254712345678|wanjiku@example.com"
	if directory.linked[0] != want {
		t.Errorf("linked %q, want %q", directory.linked[0], want)
	}
}

func TestPropertyViewByKnownLeadRecordsPageView(t *testing.T) {
	userID := uuid.New()
	leadID := uuid.New()
	propertyID := uuid.New()

	directory := &fakeLeadDirectory{byUser: map[uuid.UUID]repository.Lead{
		userID: {ID: leadID},
	}}
	writer := &fakeEngagementWriter{}
	sub := &subscriber{leads: directory, engagement: writer, log: logger.New("test")}

	err := sub.Handle(context.Background(), events.PropertyViewed{
		BaseEvent:  events.NewBaseEvent(),
		PropertyID: propertyID,
		UserID:     &userID,
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(writer.interactions) != 1 {
		t.Fatalf("got %d interactions, want 1", len(writer.interactions))
	}
	if writer.leadIDs[0] != leadID {
		t.Errorf("interaction recorded for lead %s, want %s", writer.leadIDs[0], leadID)
	}
	got := writer.interactions[0]
	if got.InteractionType != "page_view" {
		t.Errorf("interaction type = %q, want page_view", got.InteractionType)
	}
	if got.PropertyID == nil || *got.PropertyID != propertyID {
		t.Errorf("interaction property = %v, want %s", got.PropertyID, propertyID)
	}
}

func TestAnonymousOrUnknownViewersAreIgnored(t *testing.T) {
	directory := &fakeLeadDirectory{byUser: map[uuid.UUID]repository.Lead{}}
	writer := &fakeEngagementWriter{}
	sub := &subscriber{leads: directory, engagement: writer, log: logger.New("test")}

	// Anonymous view: no user attached.
	if err := sub.Handle(context.Background(), events.PropertyViewed{
		BaseEvent:  events.NewBaseEvent(),
		PropertyID: uuid.New(),
	}); err != nil {
		t.Fatalf("Handle anonymous: %v", err)
	}

	// Signed-in user with no matching lead.
	strangerID := uuid.New()
	if err := sub.Handle(context.Background(), events.PropertyViewed{
		BaseEvent:  events.NewBaseEvent(),
		PropertyID: uuid.New(),
		UserID:     &strangerID,
	}); err != nil {
		t.Fatalf("Handle unknown user: %v", err)
	}

	if len(writer.interactions) != 0 {
		t.Fatalf("got %d interactions, want 0", len(writer.interactions))
	}
}

func TestBookingEventsBecomeLeadEngagement(t *testing.T) {
	clientID := uuid.New()
	leadID := uuid.New()
	propertyID := uuid.New()
	agentID := uuid.New()
	viewingDate := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)

	directory := &fakeLeadDirectory{byUser: map[uuid.UUID]repository.Lead{
		clientID: {ID: leadID},
	}}
	writer := &fakeEngagementWriter{}
	sub := &subscriber{leads: directory, engagement: writer, log: logger.New("test")}

	if err := sub.Handle(context.Background(), events.BookingCreated{
		BaseEvent:  events.NewBaseEvent(),
		BookingID:  uuid.New(),
		PropertyID: propertyID,
		ClientID:   clientID,
		AgentID:    agentID,
		Date:       viewingDate,
	}); err != nil {
		t.Fatalf("Handle created: %v", err)
	}
	if len(writer.interactions) != 1 || writer.interactions[0].InteractionType != "inquiry" {
		t.Fatalf("booking creation should record an inquiry interaction, got %+v", writer.interactions)
	}
	if got := writer.interactions[0].PropertyID; got == nil || *got != propertyID {
		t.Errorf("inquiry property = %v, want %s", got, propertyID)
	}

	// Confirmation alone adds nothing; completion records the viewing.
	if err := sub.Handle(context.Background(), events.BookingStatusChanged{
		BaseEvent: events.NewBaseEvent(),
		ClientID:  clientID,
		NewStatus: "confirmed",
	}); err != nil {
		t.Fatalf("Handle confirmed: %v", err)
	}
	if len(writer.activities) != 0 {
		t.Fatalf("confirmation recorded %d activities, want 0", len(writer.activities))
	}

	if err := sub.Handle(context.Background(), events.BookingStatusChanged{
		BaseEvent:  events.NewBaseEvent(),
		PropertyID: propertyID,
		ClientID:   clientID,
		AgentID:    agentID,
		Date:       viewingDate,
		OldStatus:  "confirmed",
		NewStatus:  "completed",
	}); err != nil {
		t.Fatalf("Handle completed: %v", err)
	}
	if len(writer.activities) != 1 || writer.activities[0].ActivityType != "property_viewing" {
		t.Fatalf("completion should record a property_viewing activity, got %+v", writer.activities)
	}
	if got := writer.agentIDs[len(writer.agentIDs)-1]; got == nil || *got != agentID {
		t.Errorf("viewing attributed to %v, want %s", got, agentID)
	}
	if got := writer.activities[0].CompletedAt; got == nil || !got.Equal(viewingDate) {
		t.Errorf("viewing completed at %v, want %s", got, viewingDate)
	}
}
