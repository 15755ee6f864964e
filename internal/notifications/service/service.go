package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"kejani_backend/internal/email"
	"kejani_backend/internal/notifications/repository"
	"kejani_backend/internal/notifications/transport"
	"kejani_backend/platform/apperr"
	"kejani_backend/platform/logger"
)

// NotificationRepository is the persistence surface this service consumes.
type NotificationRepository interface {
	Create(ctx context.Context, params repository.CreateParams) (repository.Notification, error)
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]repository.Notification, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error)
	Delete(ctx context.Context, userID, notificationID uuid.UUID) error

	EnqueueOutbox(ctx context.Context, params repository.EnqueueParams) (uuid.UUID, error)
	GetOutboxRecord(ctx context.Context, id uuid.UUID) (repository.OutboxRecord, error)
	ClaimDueOutbox(ctx context.Context, limit int) ([]repository.OutboxRecord, error)
	MarkOutboxProcessing(ctx context.Context, id uuid.UUID) error
	MarkOutboxSucceeded(ctx context.Context, id uuid.UUID) error
	MarkOutboxFailed(ctx context.Context, id uuid.UUID, lastError string) error
	RescheduleOutbox(ctx context.Context, id uuid.UUID, runAt time.Time, lastError string) error
}

// WhatsAppSender delivers a plain text WhatsApp message.
type WhatsAppSender interface {
	SendText(ctx context.Context, phone, body string) error
}

type Service struct {
	repo     NotificationRepository
	email    email.Sender
	whatsapp WhatsAppSender
	logger   *logger.Logger
}

func New(repo NotificationRepository, sender email.Sender, whatsapp WhatsAppSender, log *logger.Logger) *Service {
	return &Service{repo: repo, email: sender, whatsapp: whatsapp, logger: log}
}

// NotifyParams describes a single in-app notification.
type NotifyParams struct {
	UserID       uuid.UUID
	Title        string
	Body         string
	Category     string
	ResourceID   *uuid.UUID
	ResourceType *string
}

// Notify writes an in-app notification. Failures are logged and swallowed:
// a notification miss must never break the write that triggered it.
func (s *Service) Notify(ctx context.Context, params NotifyParams) {
	_, err := s.repo.Create(ctx, repository.CreateParams{
		UserID:       params.UserID,
		Title:        params.Title,
		Body:         params.Body,
		Category:     params.Category,
		ResourceID:   params.ResourceID,
		ResourceType: params.ResourceType,
	})
	if err != nil {
		s.logger.DatabaseError("create notification", err)
	}
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, query transport.ListNotificationsQuery) (transport.NotificationListResponse, error) {
	notifications, err := s.repo.List(ctx, userID, query.UnreadOnly, query.Limit, query.Offset)
	if err != nil {
		return transport.NotificationListResponse{}, apperr.Internal("failed to list notifications", err)
	}

	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return transport.NotificationListResponse{}, apperr.Internal("failed to count unread notifications", err)
	}

	out := make([]transport.NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		out = append(out, transport.NotificationResponse{
			ID:           n.ID,
			Title:        n.Title,
			Body:         n.Body,
			Category:     n.Category,
			ResourceID:   n.ResourceID,
			ResourceType: n.ResourceType,
			IsRead:       n.IsRead,
			CreatedAt:    n.CreatedAt,
		})
	}
	return transport.NotificationListResponse{Notifications: out, UnreadCount: unread}, nil
}

func (s *Service) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	err := s.repo.MarkRead(ctx, userID, notificationID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("notification not found")
	}
	if err != nil {
		return apperr.Internal("failed to mark notification read", err)
	}
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error) {
	updated, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, apperr.Internal("failed to mark notifications read", err)
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, userID, notificationID uuid.UUID) error {
	err := s.repo.Delete(ctx, userID, notificationID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("notification not found")
	}
	if err != nil {
		return apperr.Internal("failed to delete notification", err)
	}
	return nil
}

// Outbox kinds and templates.
const (
	KindEmail    = "email"
	KindWhatsApp = "whatsapp"

	TemplateWelcome          = "welcome"
	TemplateBookingRequested = "booking_requested"
	TemplateBookingStatus    = "booking_status"
	TemplateBookingReminder  = "booking_reminder"
	TemplatePaymentReceipt   = "payment_receipt"
	TemplateAgentVerified    = "agent_verified"
	TemplateFreeform         = "freeform"
)

// EmailPayload is the outbox payload for every email template; templates use
// the subset of fields they need.
type EmailPayload struct {
	ToEmail       string `json:"toEmail"`
	Name          string `json:"name,omitempty"`
	ClientName    string `json:"clientName,omitempty"`
	Status        string `json:"status,omitempty"`
	ScheduledDate string `json:"scheduledDate,omitempty"`
	ReceiptNumber string `json:"receiptNumber,omitempty"`
	AmountCents   int64  `json:"amountCents,omitempty"`
	Subject       string `json:"subject,omitempty"`
	HTMLContent   string `json:"htmlContent,omitempty"`
}

// WhatsAppPayload is the outbox payload for WhatsApp deliveries.
type WhatsAppPayload struct {
	Phone string `json:"phone"`
	Body  string `json:"body"`
}

// EnqueueEmail stages an email for the outbox dispatcher. Like Notify,
// failures are logged and swallowed.
func (s *Service) EnqueueEmail(ctx context.Context, template string, payload EmailPayload) {
	if payload.ToEmail == "" {
		return
	}
	_, err := s.repo.EnqueueOutbox(ctx, repository.EnqueueParams{
		Kind:     KindEmail,
		Template: template,
		Payload:  payload,
	})
	if err != nil {
		s.logger.DatabaseError("enqueue outbox email", err)
	}
}

// EnqueueWhatsApp stages a WhatsApp text for the outbox dispatcher.
func (s *Service) EnqueueWhatsApp(ctx context.Context, payload WhatsAppPayload) {
	if payload.Phone == "" {
		return
	}
	_, err := s.repo.EnqueueOutbox(ctx, repository.EnqueueParams{
		Kind:     KindWhatsApp,
		Template: TemplateFreeform,
		Payload:  payload,
	})
	if err != nil {
		s.logger.DatabaseError("enqueue outbox whatsapp", err)
	}
}

const (
	maxOutboxAttempts = 5
	retryBackoff      = 5 * time.Minute
)

// DispatchDue claims due outbox records and delivers them. Returns the number
// of records claimed; the worker calls this on a short interval.
func (s *Service) DispatchDue(ctx context.Context, limit int) (int, error) {
	records, err := s.repo.ClaimDueOutbox(ctx, limit)
	if err != nil {
		return 0, err
	}
	for _, rec := range records {
		s.dispatch(ctx, rec)
	}
	return len(records), nil
}

// Dispatch delivers a single outbox record by id.
func (s *Service) Dispatch(ctx context.Context, outboxID uuid.UUID) error {
	rec, err := s.repo.GetOutboxRecord(ctx, outboxID)
	if err != nil {
		return err
	}
	s.dispatch(ctx, rec)
	return nil
}

func (s *Service) dispatch(ctx context.Context, rec repository.OutboxRecord) {
	if err := s.repo.MarkOutboxProcessing(ctx, rec.ID); err != nil {
		s.logger.DatabaseError("mark outbox processing", err)
		return
	}

	err := s.deliver(ctx, rec)
	if err == nil {
		if markErr := s.repo.MarkOutboxSucceeded(ctx, rec.ID); markErr != nil {
			s.logger.DatabaseError("mark outbox succeeded", markErr)
		}
		return
	}

	s.logger.Error("outbox delivery failed",
		"outboxId", rec.ID,
		"kind", rec.Kind,
		"template", rec.Template,
		"attempts", rec.Attempts+1,
		"error", err,
	)

	if rec.Attempts+1 >= maxOutboxAttempts {
		if markErr := s.repo.MarkOutboxFailed(ctx, rec.ID, err.Error()); markErr != nil {
			s.logger.DatabaseError("mark outbox failed", markErr)
		}
		return
	}
	runAt := time.Now().UTC().Add(retryBackoff * time.Duration(rec.Attempts+1))
	if markErr := s.repo.RescheduleOutbox(ctx, rec.ID, runAt, err.Error()); markErr != nil {
		s.logger.DatabaseError("reschedule outbox", markErr)
	}
}

func (s *Service) deliver(ctx context.Context, rec repository.OutboxRecord) error {
	switch rec.Kind {
	case KindEmail:
		var p EmailPayload
		if err := json.Unmarshal(rec.Payload, &p); err != nil {
			return fmt.Errorf("decode email payload: %w", err)
		}
		return s.deliverEmail(ctx, rec.Template, p)
	case KindWhatsApp:
		var p WhatsAppPayload
		if err := json.Unmarshal(rec.Payload, &p); err != nil {
			return fmt.Errorf("decode whatsapp payload: %w", err)
		}
		return s.whatsapp.SendText(ctx, p.Phone, p.Body)
	default:
		return fmt.Errorf("unknown outbox kind %q", rec.Kind)
	}
}

func (s *Service) deliverEmail(ctx context.Context, template string, p EmailPayload) error {
	switch template {
	case TemplateWelcome:
		return s.email.SendWelcomeEmail(ctx, p.ToEmail, p.Name)
	case TemplateBookingRequested:
		return s.email.SendBookingRequestedEmail(ctx, p.ToEmail, p.ClientName, p.ScheduledDate)
	case TemplateBookingStatus:
		return s.email.SendBookingStatusEmail(ctx, p.ToEmail, p.Status, p.ScheduledDate)
	case TemplateBookingReminder:
		return s.email.SendBookingReminderEmail(ctx, p.ToEmail, p.ScheduledDate)
	case TemplatePaymentReceipt:
		return s.email.SendPaymentReceiptEmail(ctx, p.ToEmail, p.ReceiptNumber, p.AmountCents)
	case TemplateAgentVerified:
		return s.email.SendAgentVerifiedEmail(ctx, p.ToEmail, p.Name)
	case TemplateFreeform:
		return s.email.SendCustomEmail(ctx, p.ToEmail, p.Subject, p.HTMLContent)
	default:
		return fmt.Errorf("unknown email template %q", template)
	}
}
