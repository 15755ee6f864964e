// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"kejani_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Auth Domain Events
// =============================================================================

// UserRegistered is published when a new user successfully registers.
type UserRegistered struct {
	BaseEvent
	UserID   uuid.UUID `json:"userId"`
	Email    string    `json:"email"`
	Username string    `json:"username"`
	Phone    string    `json:"phone,omitempty"`
	UserType string    `json:"userType"`
}

func (e UserRegistered) EventName() string { return "auth.user.registered" }

// UserVerificationChanged is published after a verification flip has been
// mirrored between the user and their agent profile. Notification-side
// consumers only; the mirroring itself happens in one transaction before
// this event goes out.
type UserVerificationChanged struct {
	BaseEvent
	UserID   uuid.UUID `json:"userId"`
	Verified bool      `json:"verified"`
}

func (e UserVerificationChanged) EventName() string { return "auth.user.verification_changed" }

// =============================================================================
// Agents Domain Events
// =============================================================================

// AgentVerificationChanged is published when an agent profile's is_verified
// flag flips. The auth module consumes this to mirror the flag onto the user.
type AgentVerificationChanged struct {
	BaseEvent
	ProfileID uuid.UUID `json:"profileId"`
	UserID    uuid.UUID `json:"userId"`
	Verified  bool      `json:"verified"`
}

func (e AgentVerificationChanged) EventName() string { return "agents.profile.verification_changed" }

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadCreated is published when a new lead is created.
type LeadCreated struct {
	BaseEvent
	LeadID     uuid.UUID  `json:"leadId"`
	AgentID    *uuid.UUID `json:"agentId,omitempty"`
	PropertyID *uuid.UUID `json:"propertyId,omitempty"`
	Source     string     `json:"source"`
	Email      string     `json:"email"`
	Phone      string     `json:"phone"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// LeadAssigned is published when a lead is assigned to an agent, either by
// the automatic policy at creation or by explicit reassignment.
type LeadAssigned struct {
	BaseEvent
	LeadID        uuid.UUID  `json:"leadId"`
	PreviousAgent *uuid.UUID `json:"previousAgent,omitempty"`
	NewAgent      uuid.UUID  `json:"newAgent"`
	Automatic     bool       `json:"automatic"`
}

func (e LeadAssigned) EventName() string { return "leads.lead.assigned" }

// LeadStatusChanged is published when a lead's pipeline status changes.
type LeadStatusChanged struct {
	BaseEvent
	LeadID    uuid.UUID `json:"leadId"`
	OldStatus string    `json:"oldStatus"`
	NewStatus string    `json:"newStatus"`
}

func (e LeadStatusChanged) EventName() string { return "leads.lead.status_changed" }

// =============================================================================
// Properties Domain Events
// =============================================================================

// PropertyViewed is published when a property detail page is served.
// Analytics persists the view; leads logs a page_view interaction when the
// viewer maps to a known lead.
type PropertyViewed struct {
	BaseEvent
	PropertyID uuid.UUID  `json:"propertyId"`
	UserID     *uuid.UUID `json:"userId,omitempty"`
	IPAddress  string     `json:"ipAddress"`
	UserAgent  string     `json:"userAgent,omitempty"`
}

func (e PropertyViewed) EventName() string { return "properties.property.viewed" }

// PropertySearched is published when the public listing search runs.
// Analytics persists the query and result count.
type PropertySearched struct {
	BaseEvent
	Query        string            `json:"query"`
	Filters      map[string]string `json:"filters,omitempty"`
	ResultsCount int               `json:"resultsCount"`
	UserID       *uuid.UUID        `json:"userId,omitempty"`
	IPAddress    string            `json:"ipAddress"`
}

func (e PropertySearched) EventName() string { return "properties.search.performed" }

// =============================================================================
// Bookings Domain Events
// =============================================================================

// BookingCreated is published when a client requests a property viewing.
type BookingCreated struct {
	BaseEvent
	BookingID   uuid.UUID `json:"bookingId"`
	PropertyID  uuid.UUID `json:"propertyId"`
	ClientID    uuid.UUID `json:"clientId"`
	AgentID     uuid.UUID `json:"agentId"`
	Date        time.Time `json:"date"`
	Duration    int       `json:"duration"`
	ClientNotes string    `json:"clientNotes,omitempty"`
}

func (e BookingCreated) EventName() string { return "bookings.booking.created" }

// BookingStatusChanged is published when an agent confirms, cancels or
// completes a booking.
type BookingStatusChanged struct {
	BaseEvent
	BookingID  uuid.UUID `json:"bookingId"`
	PropertyID uuid.UUID `json:"propertyId"`
	ClientID   uuid.UUID `json:"clientId"`
	AgentID    uuid.UUID `json:"agentId"`
	Date       time.Time `json:"date"`
	OldStatus  string    `json:"oldStatus"`
	NewStatus  string    `json:"newStatus"`
}

func (e BookingStatusChanged) EventName() string { return "bookings.booking.status_changed" }

// =============================================================================
// Messaging Domain Events
// =============================================================================

// MessageSent is published when a message is posted to a conversation.
type MessageSent struct {
	BaseEvent
	MessageID      uuid.UUID `json:"messageId"`
	ConversationID uuid.UUID `json:"conversationId"`
	SenderID       uuid.UUID `json:"senderId"`
	RecipientID    uuid.UUID `json:"recipientId"`
	Preview        string    `json:"preview"`
}

func (e MessageSent) EventName() string { return "messaging.message.sent" }

// =============================================================================
// Payments Domain Events
// =============================================================================

// PaymentCompleted is published when an M-Pesa callback resolves a pending
// transaction as successful.
type PaymentCompleted struct {
	BaseEvent
	TransactionID uuid.UUID `json:"transactionId"`
	UserID        uuid.UUID `json:"userId"`
	Amount        int64     `json:"amountCents"`
	ReceiptNumber string    `json:"receiptNumber"`
}

func (e PaymentCompleted) EventName() string { return "payments.transaction.completed" }

// PaymentFailed is published when an M-Pesa callback resolves a pending
// transaction as failed or cancelled.
type PaymentFailed struct {
	BaseEvent
	TransactionID uuid.UUID `json:"transactionId"`
	UserID        uuid.UUID `json:"userId"`
	Reason        string    `json:"reason"`
}

func (e PaymentFailed) EventName() string { return "payments.transaction.failed" }

// =============================================================================
// Notification Domain Events
// =============================================================================

// BookingReminderDue is published by the worker when a confirmed viewing is
// coming up and the client should be reminded.
type BookingReminderDue struct {
	BaseEvent
	BookingID  uuid.UUID `json:"bookingId"`
	PropertyID uuid.UUID `json:"propertyId"`
	ClientID   uuid.UUID `json:"clientId"`
	AgentID    uuid.UUID `json:"agentId"`
	Date       time.Time `json:"date"`
}

func (e BookingReminderDue) EventName() string { return "bookings.booking.reminder_due" }

// NotificationOutboxDue is published by the worker when a notification outbox
// record should be dispatched.
type NotificationOutboxDue struct {
	BaseEvent
	OutboxID uuid.UUID `json:"outboxId"`
}

func (e NotificationOutboxDue) EventName() string { return "notifications.outbox.due" }
