package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Task struct {
	ID          uuid.UUID
	LeadID      uuid.UUID
	AgentID     *uuid.UUID
	Title       string
	Description string
	Priority    string
	DueAt       *time.Time
	Completed   bool
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type CreateTaskParams struct {
	LeadID      uuid.UUID
	AgentID     *uuid.UUID
	Title       string
	Description string
	Priority    string
	DueAt       *time.Time
}

func (r *Repository) CreateTask(ctx context.Context, params CreateTaskParams) (Task, error) {
	var task Task
	err := r.pool.QueryRow(ctx, `
		INSERT INTO lead_tasks (lead_id, agent_id, title, description, priority, due_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, lead_id, agent_id, title, description, priority, due_at, completed, completed_at, created_at, updated_at
	`, params.LeadID, params.AgentID, params.Title, params.Description, params.Priority, params.DueAt,
	).Scan(&task.ID, &task.LeadID, &task.AgentID, &task.Title, &task.Description,
		&task.Priority, &task.DueAt, &task.Completed, &task.CompletedAt, &task.CreatedAt, &task.UpdatedAt)
	return task, err
}

func (r *Repository) ListTasks(ctx context.Context, leadID uuid.UUID) ([]Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, agent_id, title, description, priority, due_at, completed, completed_at, created_at, updated_at
		FROM lead_tasks
		WHERE lead_id = $1
		ORDER BY completed ASC, due_at ASC NULLS LAST, created_at DESC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]Task, 0)
	for rows.Next() {
		var task Task
		if err := rows.Scan(&task.ID, &task.LeadID, &task.AgentID, &task.Title, &task.Description,
			&task.Priority, &task.DueAt, &task.Completed, &task.CompletedAt, &task.CreatedAt, &task.UpdatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (r *Repository) CompleteTask(ctx context.Context, taskID uuid.UUID) (Task, error) {
	var task Task
	err := r.pool.QueryRow(ctx, `
		UPDATE lead_tasks
		SET completed = TRUE, completed_at = now(), updated_at = now()
		WHERE id = $1
		RETURNING id, lead_id, agent_id, title, description, priority, due_at, completed, completed_at, created_at, updated_at
	`, taskID).Scan(&task.ID, &task.LeadID, &task.AgentID, &task.Title, &task.Description,
		&task.Priority, &task.DueAt, &task.Completed, &task.CompletedAt, &task.CreatedAt, &task.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Task{}, ErrNotFound
	}
	return task, err
}

func (r *Repository) DeleteTask(ctx context.Context, taskID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM lead_tasks WHERE id = $1`, taskID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
