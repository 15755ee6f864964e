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

var ErrNotFound = errors.New("notification not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Notification struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Title        string
	Body         string
	Category     string
	ResourceID   *uuid.UUID
	ResourceType *string
	IsRead       bool
	CreatedAt    time.Time
}

const notificationColumns = `id, user_id, title, body, category, resource_id, resource_type, is_read, created_at`

type CreateParams struct {
	UserID       uuid.UUID
	Title        string
	Body         string
	Category     string
	ResourceID   *uuid.UUID
	ResourceType *string
}

func (r *Repository) Create(ctx context.Context, params CreateParams) (Notification, error) {
	category := params.Category
	if category == "" {
		category = "info"
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO notifications (user_id, title, body, category, resource_id, resource_type)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+notificationColumns,
		params.UserID, params.Title, params.Body, category, params.ResourceID, params.ResourceType,
	)

	n, err := scanNotification(row)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return Notification{}, ErrNotFound
	}
	return n, err
}

func (r *Repository) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = $1`
	if unreadOnly {
		query += ` AND NOT is_read`
	}
	query += ` ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := make([]Notification, 0, limit)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *Repository) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM notifications WHERE user_id = $1 AND NOT is_read`,
		userID,
	).Scan(&count)
	return count, err
}

func (r *Repository) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications SET is_read = TRUE, read_at = now()
		WHERE id = $1 AND user_id = $2`,
		notificationID, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications SET is_read = TRUE, read_at = now()
		WHERE user_id = $1 AND NOT is_read`,
		userID,
	)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *Repository) Delete(ctx context.Context, userID, notificationID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM notifications WHERE id = $1 AND user_id = $2`,
		notificationID, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanNotification(row pgx.Row) (Notification, error) {
	var n Notification
	err := row.Scan(
		&n.ID, &n.UserID, &n.Title, &n.Body, &n.Category,
		&n.ResourceID, &n.ResourceType, &n.IsRead, &n.CreatedAt,
	)
	return n, err
}
