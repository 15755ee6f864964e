package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrNotFound = errors.New("property not found")

// DB is the subset of the pgx pool the repository needs. *pgxpool.Pool
// satisfies it, as does a pgxmock pool in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository struct {
	pool DB
}

func New(pool DB) *Repository {
	return &Repository{pool: pool}
}

type RecordViewParams struct {
	PropertyID uuid.UUID
	UserID     *uuid.UUID
	IPAddress  string
	UserAgent  string
}

func (r *Repository) RecordView(ctx context.Context, params RecordViewParams) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO property_views (property_id, user_id, ip_address, user_agent)
		VALUES ($1, $2, $3, $4)`,
		params.PropertyID, params.UserID, params.IPAddress, params.UserAgent,
	)
	return err
}

type RecordSearchParams struct {
	Query        string
	Filters      map[string]string
	ResultsCount int
	UserID       *uuid.UUID
	IPAddress    string
}

func (r *Repository) RecordSearch(ctx context.Context, params RecordSearchParams) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO search_analytics (search_query, filters_used, results_count, user_id, ip_address)
		VALUES ($1, $2, $3, $4, $5)`,
		params.Query, params.Filters, params.ResultsCount, params.UserID, params.IPAddress,
	)
	return err
}

// RecordConversion marks a lead as converted, deriving the conversion type and
// value from the lead's property when one is attached. A lead converts at most
// once; repeat calls are no-ops.
func (r *Repository) RecordConversion(ctx context.Context, leadID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO lead_conversions (lead_id, conversion_type, conversion_value_cents)
		SELECT l.id,
			COALESCE(CASE p.listing_type WHEN 'sale' THEN 'sale' WHEN 'rent' THEN 'rental' END, 'consultation'),
			p.price_cents
		FROM leads l
		LEFT JOIN properties p ON p.id = l.property_id
		WHERE l.id = $1
		ON CONFLICT (lead_id) DO NOTHING`,
		leadID,
	)
	return err
}

// AgentSummary aggregates the dashboard figures for a single agent.
type AgentSummary struct {
	TotalProperties   int64
	ActiveProperties  int64
	TotalViews        int64
	TotalLeads        int64
	HotLeads          int64
	ConvertedLeads    int64
	PendingBookings   int64
	ConfirmedBookings int64
}

func (r *Repository) AgentPropertyCounts(ctx context.Context, agentID uuid.UUID) (total, active, views int64, err error) {
	row := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'available'),
			COALESCE(SUM(view_count), 0)
		FROM properties
		WHERE agent_id = $1`,
		agentID,
	)
	err = row.Scan(&total, &active, &views)
	return total, active, views, err
}

func (r *Repository) AgentLeadCounts(ctx context.Context, agentID uuid.UUID) (total, hot, converted int64, err error) {
	row := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE score > 50),
			COUNT(*) FILTER (WHERE status = 'closed_won')
		FROM leads
		WHERE agent_id = $1`,
		agentID,
	)
	err = row.Scan(&total, &hot, &converted)
	return total, hot, converted, err
}

func (r *Repository) AgentBookingCounts(ctx context.Context, agentID uuid.UUID) (pending, confirmed int64, err error) {
	row := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'confirmed')
		FROM bookings
		WHERE agent_id = $1`,
		agentID,
	)
	err = row.Scan(&pending, &confirmed)
	return pending, confirmed, err
}

// PlatformSummary aggregates the management dashboard figures.
type PlatformSummary struct {
	TotalUsers      int64
	TotalAgents     int64
	VerifiedAgents  int64
	TotalProperties int64
	TotalLeads      int64
	TotalViews      int64
	TotalSearches   int64
	TotalBookings   int64
}

func (r *Repository) PlatformUserCounts(ctx context.Context) (users, agents, verified int64, err error) {
	row := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE user_type = 'agent'),
			COUNT(*) FILTER (WHERE user_type = 'agent' AND is_verified)
		FROM users
		WHERE is_active`,
	)
	err = row.Scan(&users, &agents, &verified)
	return users, agents, verified, err
}

func (r *Repository) PlatformActivityCounts(ctx context.Context) (properties, leads, views, searches, bookings int64, err error) {
	row := r.pool.QueryRow(ctx, `
		SELECT (SELECT COUNT(*) FROM properties),
			(SELECT COUNT(*) FROM leads),
			(SELECT COUNT(*) FROM property_views),
			(SELECT COUNT(*) FROM search_analytics),
			(SELECT COUNT(*) FROM bookings)`,
	)
	err = row.Scan(&properties, &leads, &views, &searches, &bookings)
	return properties, leads, views, searches, bookings, err
}

func (r *Repository) ClientActivityCounts(ctx context.Context, userID uuid.UUID) (views, searches, saved, bookings int64, err error) {
	row := r.pool.QueryRow(ctx, `
		SELECT (SELECT COUNT(*) FROM property_views WHERE user_id = $1),
			(SELECT COUNT(*) FROM search_analytics WHERE user_id = $1),
			(SELECT COUNT(*) FROM saved_properties WHERE user_id = $1),
			(SELECT COUNT(*) FROM bookings WHERE client_id = $1)`,
		userID,
	)
	err = row.Scan(&views, &searches, &saved, &bookings)
	return views, searches, saved, bookings, err
}

// DailyViews is one day in a property's view series.
type DailyViews struct {
	Date  time.Time
	Count int64
}

// PropertyViewSeries returns per-day view counts over the trailing window.
// Days without views are omitted.
func (r *Repository) PropertyViewSeries(ctx context.Context, propertyID uuid.UUID, days int) ([]DailyViews, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT date_trunc('day', viewed_at)::date AS day, COUNT(*)
		FROM property_views
		WHERE property_id = $1 AND viewed_at >= now() - make_interval(days => $2)
		GROUP BY day
		ORDER BY day`,
		propertyID, days,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var series []DailyViews
	for rows.Next() {
		var d DailyViews
		if err := rows.Scan(&d.Date, &d.Count); err != nil {
			return nil, err
		}
		series = append(series, d)
	}
	return series, rows.Err()
}

func (r *Repository) PropertyViewCounts(ctx context.Context, propertyID uuid.UUID, days int) (total, unique int64, err error) {
	row := r.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT COALESCE(user_id::text, ip_address))
		FROM property_views
		WHERE property_id = $1 AND viewed_at >= now() - make_interval(days => $2)`,
		propertyID, days,
	)
	err = row.Scan(&total, &unique)
	return total, unique, err
}

func (r *Repository) PropertyLeadCounts(ctx context.Context, propertyID uuid.UUID) (total, converted int64, err error) {
	row := r.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE status = 'closed_won')
		FROM leads
		WHERE property_id = $1`,
		propertyID,
	)
	err = row.Scan(&total, &converted)
	return total, converted, err
}

// PropertyAgentID resolves a property's owning agent for access checks.
func (r *Repository) PropertyAgentID(ctx context.Context, propertyID uuid.UUID) (uuid.UUID, error) {
	var agentID uuid.UUID
	err := r.pool.QueryRow(ctx, `SELECT agent_id FROM properties WHERE id = $1`, propertyID).Scan(&agentID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrNotFound
	}
	return agentID, err
}
