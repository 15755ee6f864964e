package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"kejani_backend/internal/verification"
)

// Repository implements verification.Store over pgx. Each sync locks the
// triggering row, writes both flags and commits as one transaction.
type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) SyncFromUser(ctx context.Context, userID uuid.UUID, verified bool) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	var current bool
	err = tx.QueryRow(ctx,
		`SELECT is_verified FROM users WHERE id = $1 FOR UPDATE`,
		userID,
	).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, verification.ErrUserNotFound
	}
	if err != nil {
		return false, err
	}
	if current == verified {
		return false, nil
	}

	if _, err := tx.Exec(ctx,
		`UPDATE users SET is_verified = $2, updated_at = now() WHERE id = $1`,
		userID, verified,
	); err != nil {
		return false, err
	}

	// Zero rows here means the user has no agent profile, which is normal
	// for clients and freshly registered agents.
	if _, err := tx.Exec(ctx,
		`UPDATE agent_profiles SET is_verified = $2, updated_at = now() WHERE user_id = $1`,
		userID, verified,
	); err != nil {
		return false, err
	}

	return true, tx.Commit(ctx)
}

func (r *Repository) SyncFromProfile(ctx context.Context, profileID uuid.UUID, verified bool) (uuid.UUID, bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, false, err
	}
	defer tx.Rollback(ctx)

	var (
		userID  uuid.UUID
		current bool
	)
	err = tx.QueryRow(ctx,
		`SELECT user_id, is_verified FROM agent_profiles WHERE id = $1 FOR UPDATE`,
		profileID,
	).Scan(&userID, &current)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, false, verification.ErrProfileNotFound
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	if current == verified {
		return userID, false, nil
	}

	if _, err := tx.Exec(ctx,
		`UPDATE agent_profiles SET is_verified = $2, updated_at = now() WHERE id = $1`,
		profileID, verified,
	); err != nil {
		return uuid.Nil, false, err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE users SET is_verified = $2, updated_at = now() WHERE id = $1`,
		userID, verified,
	); err != nil {
		return uuid.Nil, false, err
	}

	return userID, true, tx.Commit(ctx)
}

var _ verification.Store = (*Repository)(nil)
