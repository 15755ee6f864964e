package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"kejani_backend/internal/events"
	"kejani_backend/internal/notifications/service"
	"kejani_backend/platform/logger"
)

// Contact is the delivery address book entry for a user.
type Contact struct {
	Email     string
	FirstName string
	LastName  string
	Phone     string
}

// Directory resolves a user id to their contact details. The auth module
// provides the implementation via an adapter.
type Directory interface {
	Contact(ctx context.Context, userID uuid.UUID) (Contact, error)
}

// subscriber fans domain events out to in-app notifications and the email
// outbox. All handlers are best-effort: an error here is logged by the bus
// and never reaches the publishing write path.
type subscriber struct {
	service   *service.Service
	directory Directory
	logger    *logger.Logger
}

func (s *subscriber) register(bus events.Bus) {
	bus.Subscribe(events.UserRegistered{}.EventName(), s)
	bus.Subscribe(events.LeadAssigned{}.EventName(), s)
	bus.Subscribe(events.BookingCreated{}.EventName(), s)
	bus.Subscribe(events.BookingStatusChanged{}.EventName(), s)
	bus.Subscribe(events.BookingReminderDue{}.EventName(), s)
	bus.Subscribe(events.MessageSent{}.EventName(), s)
	bus.Subscribe(events.PaymentCompleted{}.EventName(), s)
	bus.Subscribe(events.PaymentFailed{}.EventName(), s)
	bus.Subscribe(events.AgentVerificationChanged{}.EventName(), s)
	bus.Subscribe(events.NotificationOutboxDue{}.EventName(), s)
}

func (s *subscriber) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.UserRegistered:
		return s.handleUserRegistered(ctx, e)
	case events.LeadAssigned:
		return s.handleLeadAssigned(ctx, e)
	case events.BookingCreated:
		return s.handleBookingCreated(ctx, e)
	case events.BookingStatusChanged:
		return s.handleBookingStatusChanged(ctx, e)
	case events.MessageSent:
		return s.handleMessageSent(ctx, e)
	case events.PaymentCompleted:
		return s.handlePaymentCompleted(ctx, e)
	case events.PaymentFailed:
		return s.handlePaymentFailed(ctx, e)
	case events.AgentVerificationChanged:
		return s.handleAgentVerificationChanged(ctx, e)
	case events.BookingReminderDue:
		return s.handleBookingReminderDue(ctx, e)
	case events.NotificationOutboxDue:
		return s.service.Dispatch(ctx, e.OutboxID)
	default:
		return nil
	}
}

func (s *subscriber) handleUserRegistered(ctx context.Context, e events.UserRegistered) error {
	s.service.EnqueueEmail(ctx, service.TemplateWelcome, service.EmailPayload{
		ToEmail: e.Email,
		Name:    e.Username,
	})
	return nil
}

func (s *subscriber) handleLeadAssigned(ctx context.Context, e events.LeadAssigned) error {
	body := "A lead has been assigned to you."
	if e.Automatic {
		body = "A new lead has been automatically assigned to you."
	}
	s.service.Notify(ctx, service.NotifyParams{
		UserID:       e.NewAgent,
		Title:        "New lead assigned",
		Body:         body,
		Category:     "lead",
		ResourceID:   &e.LeadID,
		ResourceType: ptr("lead"),
	})
	return nil
}

func (s *subscriber) handleBookingCreated(ctx context.Context, e events.BookingCreated) error {
	date := e.Date.Format("Mon, 2 Jan 2006 at 15:04")

	s.service.Notify(ctx, service.NotifyParams{
		UserID:       e.AgentID,
		Title:        "New viewing request",
		Body:         fmt.Sprintf("A client requested a viewing on %s.", date),
		Category:     "booking",
		ResourceID:   &e.BookingID,
		ResourceType: ptr("booking"),
	})

	agent, err := s.directory.Contact(ctx, e.AgentID)
	if err != nil {
		s.logger.Error("resolve agent contact for booking email", "agentId", e.AgentID, "error", err)
		return nil
	}
	client, err := s.directory.Contact(ctx, e.ClientID)
	clientName := "A client"
	if err == nil && client.FirstName != "" {
		clientName = client.FirstName + " " + client.LastName
	}
	s.service.EnqueueEmail(ctx, service.TemplateBookingRequested, service.EmailPayload{
		ToEmail:       agent.Email,
		ClientName:    clientName,
		ScheduledDate: date,
	})
	return nil
}

func (s *subscriber) handleBookingStatusChanged(ctx context.Context, e events.BookingStatusChanged) error {
	s.service.Notify(ctx, service.NotifyParams{
		UserID:       e.ClientID,
		Title:        "Viewing " + e.NewStatus,
		Body:         fmt.Sprintf("Your viewing is now %s.", e.NewStatus),
		Category:     "booking",
		ResourceID:   &e.BookingID,
		ResourceType: ptr("booking"),
	})

	client, err := s.directory.Contact(ctx, e.ClientID)
	if err != nil {
		s.logger.Error("resolve client contact for booking email", "clientId", e.ClientID, "error", err)
		return nil
	}
	s.service.EnqueueEmail(ctx, service.TemplateBookingStatus, service.EmailPayload{
		ToEmail:       client.Email,
		Status:        e.NewStatus,
		ScheduledDate: e.Date.Format("Mon, 2 Jan 2006 at 15:04"),
	})
	return nil
}

func (s *subscriber) handleBookingReminderDue(ctx context.Context, e events.BookingReminderDue) error {
	when := e.Date.Format("Mon, 2 Jan 2006 at 15:04")
	s.service.Notify(ctx, service.NotifyParams{
		UserID:       e.ClientID,
		Title:        "Viewing reminder",
		Body:         "Your property viewing is coming up on " + when + ".",
		Category:     "booking",
		ResourceID:   &e.BookingID,
		ResourceType: ptr("booking"),
	})

	client, err := s.directory.Contact(ctx, e.ClientID)
	if err != nil {
		s.logger.Error("resolve client contact for reminder email", "clientId", e.ClientID, "error", err)
		return nil
	}
	s.service.EnqueueEmail(ctx, service.TemplateBookingReminder, service.EmailPayload{
		ToEmail:       client.Email,
		ScheduledDate: when,
	})
	return nil
}

func (s *subscriber) handleMessageSent(ctx context.Context, e events.MessageSent) error {
	s.service.Notify(ctx, service.NotifyParams{
		UserID:       e.RecipientID,
		Title:        "New message",
		Body:         e.Preview,
		Category:     "message",
		ResourceID:   &e.ConversationID,
		ResourceType: ptr("conversation"),
	})
	return nil
}

func (s *subscriber) handlePaymentCompleted(ctx context.Context, e events.PaymentCompleted) error {
	s.service.Notify(ctx, service.NotifyParams{
		UserID:       e.UserID,
		Title:        "Payment received",
		Body:         fmt.Sprintf("Your payment was received. Receipt %s.", e.ReceiptNumber),
		Category:     "payment",
		ResourceID:   &e.TransactionID,
		ResourceType: ptr("payment"),
	})

	user, err := s.directory.Contact(ctx, e.UserID)
	if err != nil {
		s.logger.Error("resolve contact for payment receipt", "userId", e.UserID, "error", err)
		return nil
	}
	s.service.EnqueueEmail(ctx, service.TemplatePaymentReceipt, service.EmailPayload{
		ToEmail:       user.Email,
		ReceiptNumber: e.ReceiptNumber,
		AmountCents:   e.Amount,
	})
	return nil
}

func (s *subscriber) handlePaymentFailed(ctx context.Context, e events.PaymentFailed) error {
	s.service.Notify(ctx, service.NotifyParams{
		UserID:       e.UserID,
		Title:        "Payment failed",
		Body:         fmt.Sprintf("Your payment could not be completed: %s.", e.Reason),
		Category:     "payment",
		ResourceID:   &e.TransactionID,
		ResourceType: ptr("payment"),
	})
	return nil
}

func (s *subscriber) handleAgentVerificationChanged(ctx context.Context, e events.AgentVerificationChanged) error {
	if !e.Verified {
		return nil
	}
	s.service.Notify(ctx, service.NotifyParams{
		UserID:   e.UserID,
		Title:    "Profile verified",
		Body:     "Your agent profile has been verified.",
		Category: "account",
	})

	agent, err := s.directory.Contact(ctx, e.UserID)
	if err != nil {
		s.logger.Error("resolve contact for verification email", "userId", e.UserID, "error", err)
		return nil
	}
	s.service.EnqueueEmail(ctx, service.TemplateAgentVerified, service.EmailPayload{
		ToEmail: agent.Email,
		Name:    agent.FirstName,
	})
	return nil
}

func ptr(s string) *string { return &s }
