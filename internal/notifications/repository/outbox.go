package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Outbox statuses. Records move pending -> enqueued -> processing and end in
// succeeded or failed; transient delivery errors put them back to pending.
const (
	OutboxPending    = "pending"
	OutboxEnqueued   = "enqueued"
	OutboxProcessing = "processing"
	OutboxSucceeded  = "succeeded"
	OutboxFailed     = "failed"
)

type OutboxRecord struct {
	ID       uuid.UUID
	Kind     string
	Template string
	Payload  json.RawMessage
	RunAt    time.Time
	Status   string
	Attempts int
}

type EnqueueParams struct {
	Kind     string
	Template string
	Payload  any
	RunAt    time.Time
}

func (r *Repository) EnqueueOutbox(ctx context.Context, params EnqueueParams) (uuid.UUID, error) {
	if params.RunAt.IsZero() {
		params.RunAt = time.Now().UTC()
	}

	payload, err := json.Marshal(params.Payload)
	if err != nil {
		return uuid.Nil, err
	}

	var id uuid.UUID
	err = r.pool.QueryRow(ctx, `
		INSERT INTO notification_outbox (kind, template, payload, run_at, status)
		VALUES ($1, $2, $3, $4, 'pending')
		RETURNING id`,
		params.Kind, params.Template, payload, params.RunAt,
	).Scan(&id)
	return id, err
}

func (r *Repository) GetOutboxRecord(ctx context.Context, id uuid.UUID) (OutboxRecord, error) {
	var rec OutboxRecord
	err := r.pool.QueryRow(ctx, `
		SELECT id, kind, template, payload, run_at, status, attempts
		FROM notification_outbox WHERE id = $1`,
		id,
	).Scan(&rec.ID, &rec.Kind, &rec.Template, &rec.Payload, &rec.RunAt, &rec.Status, &rec.Attempts)
	if err == pgx.ErrNoRows {
		return OutboxRecord{}, ErrNotFound
	}
	return rec, err
}

// ClaimDueOutbox atomically flips due pending records to enqueued and returns
// them. SKIP LOCKED keeps concurrent workers from claiming the same batch.
func (r *Repository) ClaimDueOutbox(ctx context.Context, limit int) ([]OutboxRecord, error) {
	if limit < 1 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
		WITH due AS (
			SELECT id FROM notification_outbox
			WHERE status = 'pending' AND run_at <= now()
			ORDER BY run_at ASC
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		UPDATE notification_outbox o
		SET status = 'enqueued', updated_at = now()
		FROM due
		WHERE o.id = due.id
		RETURNING o.id, o.kind, o.template, o.payload, o.run_at, o.status, o.attempts`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []OutboxRecord
	for rows.Next() {
		var rec OutboxRecord
		if err := rows.Scan(&rec.ID, &rec.Kind, &rec.Template, &rec.Payload, &rec.RunAt, &rec.Status, &rec.Attempts); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *Repository) MarkOutboxProcessing(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE notification_outbox
		SET status = 'processing', attempts = attempts + 1, updated_at = now()
		WHERE id = $1`,
		id,
	)
	return err
}

func (r *Repository) MarkOutboxSucceeded(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE notification_outbox
		SET status = 'succeeded', last_error = NULL, updated_at = now()
		WHERE id = $1`,
		id,
	)
	return err
}

func (r *Repository) MarkOutboxFailed(ctx context.Context, id uuid.UUID, lastError string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE notification_outbox
		SET status = 'failed', last_error = $2, updated_at = now()
		WHERE id = $1`,
		id, lastError,
	)
	return err
}

// RescheduleOutbox returns a record to pending with a delayed run time so a
// transient delivery failure is retried later.
func (r *Repository) RescheduleOutbox(ctx context.Context, id uuid.UUID, runAt time.Time, lastError string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE notification_outbox
		SET status = 'pending', run_at = $2, last_error = $3, updated_at = now()
		WHERE id = $1`,
		id, runAt, lastError,
	)
	return err
}
