package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("booking not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Booking struct {
	ID              uuid.UUID
	PropertyID      uuid.UUID
	ClientID        uuid.UUID
	AgentID         uuid.UUID
	BookingDate     time.Time
	DurationMinutes int
	Status          string
	ClientNotes     string
	AgentNotes      string
	ReminderSent    bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

const bookingColumns = `id, property_id, client_id, agent_id, booking_date, duration_minutes,
		status, client_notes, agent_notes, reminder_sent, created_at, updated_at`

type CreateBookingParams struct {
	PropertyID      uuid.UUID
	ClientID        uuid.UUID
	AgentID         uuid.UUID
	BookingDate     time.Time
	DurationMinutes int
	ClientNotes     string
}

func (r *Repository) Create(ctx context.Context, params CreateBookingParams) (Booking, error) {
	if params.DurationMinutes <= 0 {
		params.DurationMinutes = 30
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO bookings (property_id, client_id, agent_id, booking_date, duration_minutes, client_notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+bookingColumns,
		params.PropertyID, params.ClientID, params.AgentID, params.BookingDate,
		params.DurationMinutes, params.ClientNotes,
	)
	return scanBooking(row)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Booking, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	booking, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Booking{}, ErrNotFound
	}
	return booking, err
}

// HasOverlap reports whether the agent already has a pending or confirmed
// booking overlapping the proposed slot.
func (r *Repository) HasOverlap(ctx context.Context, agentID uuid.UUID, start time.Time, durationMinutes int) (bool, error) {
	var overlap bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE agent_id = $1
			  AND status IN ('pending', 'confirmed')
			  AND booking_date < $2 + make_interval(mins => $3)
			  AND booking_date + make_interval(mins => duration_minutes) > $2
		)
	`, agentID, start, durationMinutes).Scan(&overlap)
	return overlap, err
}

type UpdateStatusParams struct {
	Status     string
	AgentNotes *string
}

func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, params UpdateStatusParams) (Booking, string, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE bookings b
		SET status = $2, agent_notes = COALESCE($3, agent_notes), updated_at = now()
		FROM (SELECT status FROM bookings WHERE id = $1) prev
		WHERE b.id = $1
		RETURNING `+prefixed("b")+`, prev.status
	`, id, params.Status, params.AgentNotes)

	var booking Booking
	var oldStatus string
	err := row.Scan(
		&booking.ID, &booking.PropertyID, &booking.ClientID, &booking.AgentID,
		&booking.BookingDate, &booking.DurationMinutes, &booking.Status,
		&booking.ClientNotes, &booking.AgentNotes, &booking.ReminderSent,
		&booking.CreatedAt, &booking.UpdatedAt, &oldStatus,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Booking{}, "", ErrNotFound
	}
	return booking, oldStatus, err
}

type ListParams struct {
	ClientID *uuid.UUID
	AgentID  *uuid.UUID
	Status   *string
	Upcoming bool
	Limit    int
	Offset   int
}

func (r *Repository) List(ctx context.Context, params ListParams) ([]Booking, int, error) {
	where := "TRUE"
	args := []interface{}{}
	n := func() int { return len(args) }

	if params.ClientID != nil {
		args = append(args, *params.ClientID)
		where += " AND client_id = $" + strconv.Itoa(n())
	}
	if params.AgentID != nil {
		args = append(args, *params.AgentID)
		where += " AND agent_id = $" + strconv.Itoa(n())
	}
	if params.Status != nil {
		args = append(args, *params.Status)
		where += " AND status = $" + strconv.Itoa(n())
	}
	if params.Upcoming {
		where += " AND booking_date > now()"
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM bookings WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := params.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	args = append(args, limit, params.Offset)
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE ` + where +
		` ORDER BY booking_date ASC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	bookings := make([]Booking, 0)
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, 0, err
		}
		bookings = append(bookings, booking)
	}
	return bookings, total, rows.Err()
}

// ListDueReminders returns confirmed bookings starting within the window that
// have not had a reminder sent yet.
func (r *Repository) ListDueReminders(ctx context.Context, window time.Duration) ([]Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE status = 'confirmed'
		  AND NOT reminder_sent
		  AND booking_date BETWEEN now() AND now() + $1::interval
		ORDER BY booking_date ASC
	`, window.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]Booking, 0)
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}

func (r *Repository) MarkReminderSent(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE bookings SET reminder_sent = TRUE WHERE id = $1`, id)
	return err
}

func prefixed(alias string) string {
	return alias + ".id, " + alias + ".property_id, " + alias + ".client_id, " + alias + ".agent_id, " +
		alias + ".booking_date, " + alias + ".duration_minutes, " + alias + ".status, " +
		alias + ".client_notes, " + alias + ".agent_notes, " + alias + ".reminder_sent, " +
		alias + ".created_at, " + alias + ".updated_at"
}

func scanBooking(row pgx.Row) (Booking, error) {
	var b Booking
	err := row.Scan(
		&b.ID, &b.PropertyID, &b.ClientID, &b.AgentID, &b.BookingDate,
		&b.DurationMinutes, &b.Status, &b.ClientNotes, &b.AgentNotes,
		&b.ReminderSent, &b.CreatedAt, &b.UpdatedAt,
	)
	return b, err
}
