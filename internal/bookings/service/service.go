package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"kejani_backend/internal/bookings/repository"
	"kejani_backend/internal/bookings/transport"
	"kejani_backend/internal/events"
	"kejani_backend/platform/apperr"
	"kejani_backend/platform/logger"
	"kejani_backend/platform/sanitize"
)

// BookingRepository is the persistence surface this service consumes.
type BookingRepository interface {
	Create(ctx context.Context, params repository.CreateBookingParams) (repository.Booking, error)
	GetByID(ctx context.Context, id uuid.UUID) (repository.Booking, error)
	HasOverlap(ctx context.Context, agentID uuid.UUID, start time.Time, durationMinutes int) (bool, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, params repository.UpdateStatusParams) (repository.Booking, string, error)
	List(ctx context.Context, params repository.ListParams) ([]repository.Booking, int, error)
	ListDueReminders(ctx context.Context, window time.Duration) ([]repository.Booking, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID) error
}

// PropertyResolver looks up the agent owning a listing so the booking lands
// with the right person.
type PropertyResolver interface {
	AgentForProperty(ctx context.Context, propertyID uuid.UUID) (uuid.UUID, error)
}

var ErrPropertyNotFound = errors.New("property not found")

type Service struct {
	repo       BookingRepository
	properties PropertyResolver
	eventBus   events.Bus
	logger     *logger.Logger
}

func New(repo BookingRepository, properties PropertyResolver, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, properties: properties, eventBus: bus, logger: log}
}

// Create books a viewing. The slot must be in the future and free of
// overlapping pending/confirmed viewings for the same agent.
func (s *Service) Create(ctx context.Context, clientID uuid.UUID, req transport.CreateBookingRequest) (transport.BookingResponse, error) {
	if req.BookingDate.Before(time.Now()) {
		return transport.BookingResponse{}, apperr.Validation("booking date must be in the future")
	}

	agentID, err := s.properties.AgentForProperty(ctx, req.PropertyID)
	if err != nil {
		if errors.Is(err, ErrPropertyNotFound) {
			return transport.BookingResponse{}, apperr.NotFound("property not found")
		}
		return transport.BookingResponse{}, apperr.Internal("failed to resolve property", err)
	}

	duration := req.DurationMinutes
	if duration <= 0 {
		duration = 30
	}
	overlap, err := s.repo.HasOverlap(ctx, agentID, req.BookingDate, duration)
	if err != nil {
		return transport.BookingResponse{}, apperr.Internal("failed to check availability", err)
	}
	if overlap {
		return transport.BookingResponse{}, apperr.Conflict("the agent is not available at that time")
	}

	booking, err := s.repo.Create(ctx, repository.CreateBookingParams{
		PropertyID:      req.PropertyID,
		ClientID:        clientID,
		AgentID:         agentID,
		BookingDate:     req.BookingDate,
		DurationMinutes: duration,
		ClientNotes:     sanitize.Text(req.ClientNotes),
	})
	if err != nil {
		return transport.BookingResponse{}, apperr.Internal("failed to create booking", err)
	}

	s.eventBus.Publish(ctx, events.BookingCreated{
		BaseEvent:   events.NewBaseEvent(),
		BookingID:   booking.ID,
		PropertyID:  booking.PropertyID,
		ClientID:    booking.ClientID,
		AgentID:     booking.AgentID,
		Date:        booking.BookingDate,
		Duration:    booking.DurationMinutes,
		ClientNotes: booking.ClientNotes,
	})

	return toBookingResponse(booking), nil
}

func (s *Service) Get(ctx context.Context, id, actorID uuid.UUID, isManagement bool) (transport.BookingResponse, error) {
	booking, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.BookingResponse{}, apperr.NotFound("booking not found")
		}
		return transport.BookingResponse{}, apperr.Internal("failed to load booking", err)
	}
	if booking.ClientID != actorID && booking.AgentID != actorID && !isManagement {
		return transport.BookingResponse{}, apperr.Forbidden("not your booking")
	}
	return toBookingResponse(booking), nil
}

// UpdateStatus moves a booking through its lifecycle. Agents manage their own
// bookings; a client may only cancel.
func (s *Service) UpdateStatus(ctx context.Context, id, actorID uuid.UUID, isManagement bool, req transport.UpdateStatusRequest) (transport.BookingResponse, error) {
	booking, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.BookingResponse{}, apperr.NotFound("booking not found")
		}
		return transport.BookingResponse{}, apperr.Internal("failed to load booking", err)
	}

	isAgent := booking.AgentID == actorID || isManagement
	isClient := booking.ClientID == actorID
	switch {
	case isAgent:
		// any transition
	case isClient && req.Status == "cancelled":
		// clients may cancel their own viewing
	default:
		return transport.BookingResponse{}, apperr.Forbidden("not allowed to change this booking")
	}

	if booking.Status == "cancelled" || booking.Status == "completed" {
		return transport.BookingResponse{}, apperr.Conflict("booking is already " + booking.Status)
	}

	params := repository.UpdateStatusParams{Status: req.Status}
	if req.AgentNotes != nil && isAgent {
		clean := sanitize.Text(*req.AgentNotes)
		params.AgentNotes = &clean
	}

	updated, oldStatus, err := s.repo.UpdateStatus(ctx, id, params)
	if err != nil {
		return transport.BookingResponse{}, apperr.Internal("failed to update booking", err)
	}

	if oldStatus != updated.Status {
		s.eventBus.Publish(ctx, events.BookingStatusChanged{
			BaseEvent:  events.NewBaseEvent(),
			BookingID:  updated.ID,
			PropertyID: updated.PropertyID,
			ClientID:   updated.ClientID,
			AgentID:    updated.AgentID,
			Date:       updated.BookingDate,
			OldStatus:  oldStatus,
			NewStatus:  updated.Status,
		})
	}

	return toBookingResponse(updated), nil
}

func (s *Service) List(ctx context.Context, actorID uuid.UUID, asAgent bool, query transport.ListBookingsQuery) (transport.BookingListResponse, error) {
	page := query.Page
	if page < 1 {
		page = 1
	}
	pageSize := query.PageSize
	if pageSize < 1 {
		pageSize = 50
	}

	params := repository.ListParams{
		Upcoming: query.Upcoming,
		Limit:    pageSize,
		Offset:   (page - 1) * pageSize,
	}
	if asAgent {
		params.AgentID = &actorID
	} else {
		params.ClientID = &actorID
	}
	if query.Status != "" {
		params.Status = &query.Status
	}

	bookings, total, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.BookingListResponse{}, apperr.Internal("failed to list bookings", err)
	}

	out := make([]transport.BookingResponse, 0, len(bookings))
	for _, booking := range bookings {
		out = append(out, toBookingResponse(booking))
	}
	return transport.BookingListResponse{Bookings: out, Total: total, Page: page, PageSize: pageSize}, nil
}

// DueReminders returns confirmed bookings starting within the window and
// marks them as reminded. The worker sends the actual notifications.
func (s *Service) DueReminders(ctx context.Context, window time.Duration) ([]transport.BookingResponse, error) {
	bookings, err := s.repo.ListDueReminders(ctx, window)
	if err != nil {
		return nil, err
	}

	out := make([]transport.BookingResponse, 0, len(bookings))
	for _, booking := range bookings {
		if err := s.repo.MarkReminderSent(ctx, booking.ID); err != nil {
			s.logger.DatabaseError("mark reminder sent", err)
			continue
		}
		out = append(out, toBookingResponse(booking))
	}
	return out, nil
}

func toBookingResponse(b repository.Booking) transport.BookingResponse {
	return transport.BookingResponse{
		ID:              b.ID,
		PropertyID:      b.PropertyID,
		ClientID:        b.ClientID,
		AgentID:         b.AgentID,
		BookingDate:     b.BookingDate,
		DurationMinutes: b.DurationMinutes,
		Status:          b.Status,
		ClientNotes:     b.ClientNotes,
		AgentNotes:      b.AgentNotes,
		CreatedAt:       b.CreatedAt,
	}
}
