package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Interaction is a passive engagement event (a page view, a search, an
// enquiry). No agent attribution; the lead did this on their own.
type Interaction struct {
	ID              uuid.UUID
	LeadID          uuid.UUID
	InteractionType string
	PropertyID      *uuid.UUID
	Metadata        map[string]interface{}
	OccurredAt      time.Time
	CreatedAt       time.Time
}

type CreateInteractionParams struct {
	LeadID          uuid.UUID
	InteractionType string
	PropertyID      *uuid.UUID
	Metadata        map[string]interface{}
	OccurredAt      time.Time
}

func (r *Repository) CreateInteraction(ctx context.Context, params CreateInteractionParams) (Interaction, error) {
	if params.OccurredAt.IsZero() {
		params.OccurredAt = time.Now().UTC()
	}
	if params.Metadata == nil {
		params.Metadata = map[string]interface{}{}
	}

	var it Interaction
	err := r.pool.QueryRow(ctx, `
		INSERT INTO lead_interactions (lead_id, interaction_type, property_id, metadata, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, lead_id, interaction_type, property_id, metadata, occurred_at, created_at
	`, params.LeadID, params.InteractionType, params.PropertyID, params.Metadata, params.OccurredAt,
	).Scan(&it.ID, &it.LeadID, &it.InteractionType, &it.PropertyID, &it.Metadata, &it.OccurredAt, &it.CreatedAt)
	return it, err
}

func (r *Repository) ListInteractions(ctx context.Context, leadID uuid.UUID) ([]Interaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, interaction_type, property_id, metadata, occurred_at, created_at
		FROM lead_interactions
		WHERE lead_id = $1
		ORDER BY occurred_at DESC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Interaction, 0)
	for rows.Next() {
		var it Interaction
		if err := rows.Scan(&it.ID, &it.LeadID, &it.InteractionType, &it.PropertyID,
			&it.Metadata, &it.OccurredAt, &it.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Activity is an agent-initiated CRM action against the lead.
type Activity struct {
	ID           uuid.UUID
	LeadID       uuid.UUID
	ActivityType string
	AgentID      *uuid.UUID
	Subject      string
	Notes        string
	ScheduledAt  *time.Time
	CompletedAt  *time.Time
	CreatedAt    time.Time
}

type CreateActivityParams struct {
	LeadID       uuid.UUID
	ActivityType string
	AgentID      *uuid.UUID
	Subject      string
	Notes        string
	ScheduledAt  *time.Time
	CompletedAt  *time.Time
}

func (r *Repository) CreateActivity(ctx context.Context, params CreateActivityParams) (Activity, error) {
	var act Activity
	err := r.pool.QueryRow(ctx, `
		INSERT INTO lead_activities (lead_id, activity_type, agent_id, subject, notes, scheduled_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, lead_id, activity_type, agent_id, subject, notes, scheduled_at, completed_at, created_at
	`, params.LeadID, params.ActivityType, params.AgentID, params.Subject,
		params.Notes, params.ScheduledAt, params.CompletedAt,
	).Scan(&act.ID, &act.LeadID, &act.ActivityType, &act.AgentID, &act.Subject,
		&act.Notes, &act.ScheduledAt, &act.CompletedAt, &act.CreatedAt)
	return act, err
}

func (r *Repository) ListActivities(ctx context.Context, leadID uuid.UUID) ([]Activity, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, activity_type, agent_id, subject, notes, scheduled_at, completed_at, created_at
		FROM lead_activities
		WHERE lead_id = $1
		ORDER BY created_at DESC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Activity, 0)
	for rows.Next() {
		var act Activity
		if err := rows.Scan(&act.ID, &act.LeadID, &act.ActivityType, &act.AgentID, &act.Subject,
			&act.Notes, &act.ScheduledAt, &act.CompletedAt, &act.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, act)
	}
	return items, rows.Err()
}

type WhatsAppMessage struct {
	ID          uuid.UUID
	LeadID      uuid.UUID
	Direction   string
	MessageBody string
	WaMessageID string
	Status      string
	SentAt      time.Time
	CreatedAt   time.Time
}

type CreateWhatsAppMessageParams struct {
	LeadID      uuid.UUID
	Direction   string
	MessageBody string
	WaMessageID string
	Status      string
	SentAt      time.Time
}

func (r *Repository) CreateWhatsAppMessage(ctx context.Context, params CreateWhatsAppMessageParams) (WhatsAppMessage, error) {
	if params.SentAt.IsZero() {
		params.SentAt = time.Now().UTC()
	}
	if params.Status == "" {
		params.Status = "sent"
	}

	var msg WhatsAppMessage
	err := r.pool.QueryRow(ctx, `
		INSERT INTO lead_whatsapp_messages (lead_id, direction, message_body, wa_message_id, status, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, lead_id, direction, message_body, wa_message_id, status, sent_at, created_at
	`, params.LeadID, params.Direction, params.MessageBody, params.WaMessageID, params.Status, params.SentAt,
	).Scan(&msg.ID, &msg.LeadID, &msg.Direction, &msg.MessageBody, &msg.WaMessageID,
		&msg.Status, &msg.SentAt, &msg.CreatedAt)
	return msg, err
}

func (r *Repository) ListWhatsAppMessages(ctx context.Context, leadID uuid.UUID) ([]WhatsAppMessage, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, direction, message_body, wa_message_id, status, sent_at, created_at
		FROM lead_whatsapp_messages
		WHERE lead_id = $1
		ORDER BY sent_at ASC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]WhatsAppMessage, 0)
	for rows.Next() {
		var msg WhatsAppMessage
		if err := rows.Scan(&msg.ID, &msg.LeadID, &msg.Direction, &msg.MessageBody,
			&msg.WaMessageID, &msg.Status, &msg.SentAt, &msg.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, msg)
	}
	return items, rows.Err()
}

// EngagementCounts is the snapshot the scorer reads. One round trip; the
// score derives from the full history, never from increments.
type EngagementCounts struct {
	Interactions     int
	WhatsAppMessages int
	PropertyViewings int
	Status           string
}

func (r *Repository) CountEngagement(ctx context.Context, leadID uuid.UUID) (EngagementCounts, error) {
	var counts EngagementCounts
	err := r.pool.QueryRow(ctx, `
		SELECT
			l.status,
			(SELECT count(*) FROM lead_interactions i WHERE i.lead_id = l.id),
			(SELECT count(*) FROM lead_whatsapp_messages w WHERE w.lead_id = l.id),
			(SELECT count(*) FROM lead_activities a WHERE a.lead_id = l.id AND a.activity_type = 'property_viewing')
		FROM leads l
		WHERE l.id = $1
	`, leadID).Scan(&counts.Status, &counts.Interactions, &counts.WhatsAppMessages, &counts.PropertyViewings)
	if errors.Is(err, pgx.ErrNoRows) {
		return EngagementCounts{}, ErrNotFound
	}
	return counts, err
}
