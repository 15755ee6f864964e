package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("lead not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Lead struct {
	ID                 uuid.UUID
	FirstName          string
	LastName           string
	Email              string
	Phone              string
	Source             string
	Status             string
	Priority           string
	Score              int
	BudgetMinCents     *int64
	BudgetMaxCents     *int64
	PreferredLocations []string
	PropertyTypes      []string
	PropertyID         *uuid.UUID
	AgentID            *uuid.UUID
	UserID             *uuid.UUID
	Notes              string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

const leadColumns = `id, first_name, last_name, email, phone, source, status, priority, score,
		budget_min_cents, budget_max_cents, preferred_locations, property_types,
		property_id, agent_id, user_id, notes, created_at, updated_at`

type CreateLeadParams struct {
	FirstName          string
	LastName           string
	Email              string
	Phone              string
	Source             string
	Status             string
	Priority           string
	BudgetMinCents     *int64
	BudgetMaxCents     *int64
	PreferredLocations []string
	PropertyTypes      []string
	PropertyID         *uuid.UUID
	AgentID            *uuid.UUID
	UserID             *uuid.UUID
	Notes              string
}

func (r *Repository) Create(ctx context.Context, params CreateLeadParams) (Lead, error) {
	if params.Status == "" {
		params.Status = "new"
	}
	if params.Priority == "" {
		params.Priority = "medium"
	}
	if params.Source == "" {
		params.Source = "website"
	}
	if params.PreferredLocations == nil {
		params.PreferredLocations = []string{}
	}
	if params.PropertyTypes == nil {
		params.PropertyTypes = []string{}
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO leads (
			first_name, last_name, email, phone, source, status, priority,
			budget_min_cents, budget_max_cents, preferred_locations, property_types,
			property_id, agent_id, user_id, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING `+leadColumns,
		params.FirstName, params.LastName, params.Email, params.Phone, params.Source,
		params.Status, params.Priority, params.BudgetMinCents, params.BudgetMaxCents,
		params.PreferredLocations, params.PropertyTypes, params.PropertyID,
		params.AgentID, params.UserID, params.Notes,
	)

	return scanLead(row)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

// GetByPhoneOrEmail finds the most recent lead matching the given phone or
// email, used by the webhook capture path to avoid duplicate leads.
func (r *Repository) GetByPhoneOrEmail(ctx context.Context, phoneNumber, email string) (Lead, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE phone = $1 OR (email <> '' AND email = $2)
		ORDER BY created_at DESC
		LIMIT 1
	`, phoneNumber, email)

	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

// GetByUserID finds the most recent lead linked to a registered user.
func (r *Repository) GetByUserID(ctx context.Context, userID uuid.UUID) (Lead, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, userID)

	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

// LinkUser attaches a registered user to any unclaimed leads that share the
// user's phone or email. Returns how many leads were claimed.
func (r *Repository) LinkUser(ctx context.Context, userID uuid.UUID, phoneNumber, email string) (int, error) {
	if phoneNumber == "" && email == "" {
		return 0, nil
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE leads
		SET user_id = $1, updated_at = now()
		WHERE user_id IS NULL
		  AND (($2 <> '' AND phone = $2) OR ($3 <> '' AND email = $3))
	`, userID, phoneNumber, email)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

type UpdateLeadParams struct {
	FirstName          *string
	LastName           *string
	Email              *string
	Phone              *string
	Source             *string
	Priority           *string
	BudgetMinCents     *int64
	BudgetMinSet       bool
	BudgetMaxCents     *int64
	BudgetMaxSet       bool
	PreferredLocations []string
	PropertyTypes      []string
	PropertyID         *uuid.UUID
	PropertyIDSet      bool
	UserID             *uuid.UUID
	UserIDSet          bool
	Notes              *string
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, params UpdateLeadParams) (Lead, error) {
	sets := []string{"updated_at = now()"}
	args := []interface{}{id}

	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if params.FirstName != nil {
		add("first_name", *params.FirstName)
	}
	if params.LastName != nil {
		add("last_name", *params.LastName)
	}
	if params.Email != nil {
		add("email", *params.Email)
	}
	if params.Phone != nil {
		add("phone", *params.Phone)
	}
	if params.Source != nil {
		add("source", *params.Source)
	}
	if params.Priority != nil {
		add("priority", *params.Priority)
	}
	if params.BudgetMinSet {
		add("budget_min_cents", params.BudgetMinCents)
	}
	if params.BudgetMaxSet {
		add("budget_max_cents", params.BudgetMaxCents)
	}
	if params.PreferredLocations != nil {
		add("preferred_locations", params.PreferredLocations)
	}
	if params.PropertyTypes != nil {
		add("property_types", params.PropertyTypes)
	}
	if params.PropertyIDSet {
		add("property_id", params.PropertyID)
	}
	if params.UserIDSet {
		add("user_id", params.UserID)
	}
	if params.Notes != nil {
		add("notes", *params.Notes)
	}

	query := `UPDATE leads SET ` + strings.Join(sets, ", ") + ` WHERE id = $1 RETURNING ` + leadColumns
	row := r.pool.QueryRow(ctx, query, args...)

	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

// UpdateStatus transitions the lead's pipeline status and returns the
// previous status so callers can publish a change event.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (oldStatus string, err error) {
	err = r.pool.QueryRow(ctx, `
		UPDATE leads l
		SET status = $2, updated_at = now()
		FROM (SELECT status FROM leads WHERE id = $1) prev
		WHERE l.id = $1
		RETURNING prev.status
	`, id, status).Scan(&oldStatus)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return oldStatus, err
}

// Assign sets or clears the owning agent.
func (r *Repository) Assign(ctx context.Context, id uuid.UUID, agentID *uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads SET agent_id = $2, updated_at = now() WHERE id = $1
	`, id, agentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetScore persists a recomputed score. This is deliberately a single-field
// write: recompute is atomic and must not touch anything else on the row.
func (r *Repository) SetScore(ctx context.Context, id uuid.UUID, score int) error {
	tag, err := r.pool.Exec(ctx, `UPDATE leads SET score = $2 WHERE id = $1`, id, score)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type ListParams struct {
	Status   *string
	Priority *string
	Source   *string
	AgentID  *uuid.UUID
	MinScore *int
	Search   string
	Limit    int
	Offset   int
}

func (r *Repository) List(ctx context.Context, params ListParams) ([]Lead, int, error) {
	where := []string{"TRUE"}
	args := []interface{}{}

	add := func(clause string, value interface{}) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if params.Status != nil {
		add("status = $%d", *params.Status)
	}
	if params.Priority != nil {
		add("priority = $%d", *params.Priority)
	}
	if params.Source != nil {
		add("source = $%d", *params.Source)
	}
	if params.AgentID != nil {
		add("agent_id = $%d", *params.AgentID)
	}
	if params.MinScore != nil {
		add("score >= $%d", *params.MinScore)
	}
	if params.Search != "" {
		args = append(args, "%"+params.Search+"%")
		where = append(where, fmt.Sprintf(
			"(first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d OR phone ILIKE $%d)",
			len(args), len(args), len(args), len(args)))
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM leads WHERE `+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := params.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	args = append(args, limit, params.Offset)
	query := fmt.Sprintf(`
		SELECT `+leadColumns+`
		FROM leads
		WHERE %s
		ORDER BY score DESC, created_at DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, 0, err
		}
		leads = append(leads, lead)
	}
	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}

	return leads, total, nil
}

func scanLead(row pgx.Row) (Lead, error) {
	var lead Lead
	err := row.Scan(
		&lead.ID, &lead.FirstName, &lead.LastName, &lead.Email, &lead.Phone,
		&lead.Source, &lead.Status, &lead.Priority, &lead.Score,
		&lead.BudgetMinCents, &lead.BudgetMaxCents,
		&lead.PreferredLocations, &lead.PropertyTypes,
		&lead.PropertyID, &lead.AgentID, &lead.UserID, &lead.Notes,
		&lead.CreatedAt, &lead.UpdatedAt,
	)
	return lead, err
}
