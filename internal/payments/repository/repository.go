package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound  = errors.New("payment record not found")
	ErrDuplicate = errors.New("payment record already exists")
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Plan struct {
	ID           uuid.UUID
	Name         string
	PlanType     string
	Description  string
	PriceCents   int64
	Currency     string
	Features     []string
	ListingQuota int
	FeaturedDays int
	ValidityDays int
	IsActive     bool
	CreatedAt    time.Time
}

const planColumns = `id, name, plan_type, description, price_cents, currency, features,
		listing_quota, featured_days, validity_days, is_active, created_at`

type CreatePlanParams struct {
	Name         string
	PlanType     string
	Description  string
	PriceCents   int64
	Features     []string
	ListingQuota int
	FeaturedDays int
	ValidityDays int
}

func (r *Repository) CreatePlan(ctx context.Context, params CreatePlanParams) (Plan, error) {
	if params.ValidityDays == 0 {
		params.ValidityDays = 30
	}
	if params.Features == nil {
		params.Features = []string{}
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO payment_plans (name, plan_type, description, price_cents, features,
			listing_quota, featured_days, validity_days)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+planColumns,
		params.Name, params.PlanType, params.Description, params.PriceCents,
		params.Features, params.ListingQuota, params.FeaturedDays, params.ValidityDays,
	)

	plan, err := scanPlan(row)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return Plan{}, ErrDuplicate
	}
	return plan, err
}

func (r *Repository) GetPlan(ctx context.Context, id uuid.UUID) (Plan, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+planColumns+` FROM payment_plans WHERE id = $1`, id)
	plan, err := scanPlan(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Plan{}, ErrNotFound
	}
	return plan, err
}

func (r *Repository) ListPlans(ctx context.Context, activeOnly bool) ([]Plan, error) {
	query := `SELECT ` + planColumns + ` FROM payment_plans`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY price_cents ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []Plan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

func (r *Repository) SetPlanActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE payment_plans SET is_active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type Subscription struct {
	ID           uuid.UUID
	AgentID      uuid.UUID
	PlanID       uuid.UUID
	Status       string
	AutoRenew    bool
	ListingsUsed int
	FeaturedUsed int
	StartDate    time.Time
	EndDate      time.Time
	CreatedAt    time.Time
}

const subscriptionColumns = `id, agent_id, plan_id, status, auto_renew,
		listings_used, featured_used, start_date, end_date, created_at`

// ActivateSubscription creates the agent's subscription or refreshes it onto
// the given plan. Usage counters reset when the plan period restarts.
func (r *Repository) ActivateSubscription(ctx context.Context, agentID, planID uuid.UUID, validityDays int) (Subscription, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO agent_subscriptions (agent_id, plan_id, status, start_date, end_date)
		VALUES ($1, $2, 'active', now(), now() + make_interval(days => $3))
		ON CONFLICT (agent_id) DO UPDATE SET
			plan_id = EXCLUDED.plan_id,
			status = 'active',
			start_date = now(),
			end_date = now() + make_interval(days => $3),
			listings_used = 0,
			featured_used = 0,
			updated_at = now()
		RETURNING `+subscriptionColumns,
		agentID, planID, validityDays,
	)
	return scanSubscription(row)
}

func (r *Repository) GetSubscriptionByAgent(ctx context.Context, agentID uuid.UUID) (Subscription, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM agent_subscriptions WHERE agent_id = $1`, agentID)
	sub, err := scanSubscription(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Subscription{}, ErrNotFound
	}
	return sub, err
}

func (r *Repository) CancelSubscription(ctx context.Context, agentID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE agent_subscriptions SET status = 'cancelled', auto_renew = FALSE, updated_at = now()
		WHERE agent_id = $1 AND status = 'active'`,
		agentID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementListingUsage bumps the listings counter on the agent's active
// subscription. Missing or inactive subscriptions are a no-op: listing limits
// are advisory, not enforced at write time.
func (r *Repository) IncrementListingUsage(ctx context.Context, agentID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE agent_subscriptions SET listings_used = listings_used + 1, updated_at = now()
		WHERE agent_id = $1 AND status = 'active'`,
		agentID,
	)
	return err
}

func (r *Repository) IncrementFeaturedUsage(ctx context.Context, agentID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE agent_subscriptions SET featured_used = featured_used + 1, updated_at = now()
		WHERE agent_id = $1 AND status = 'active'`,
		agentID,
	)
	return err
}

// ExpireDueSubscriptions flips active subscriptions past their end date to
// expired and returns how many were affected.
func (r *Repository) ExpireDueSubscriptions(ctx context.Context) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE agent_subscriptions SET status = 'expired', updated_at = now()
		WHERE status = 'active' AND end_date < now()`,
	)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func scanPlan(row pgx.Row) (Plan, error) {
	var p Plan
	err := row.Scan(
		&p.ID, &p.Name, &p.PlanType, &p.Description, &p.PriceCents, &p.Currency,
		&p.Features, &p.ListingQuota, &p.FeaturedDays, &p.ValidityDays,
		&p.IsActive, &p.CreatedAt,
	)
	return p, err
}

func scanSubscription(row pgx.Row) (Subscription, error) {
	var s Subscription
	err := row.Scan(
		&s.ID, &s.AgentID, &s.PlanID, &s.Status, &s.AutoRenew,
		&s.ListingsUsed, &s.FeaturedUsed, &s.StartDate, &s.EndDate, &s.CreatedAt,
	)
	return s, err
}
