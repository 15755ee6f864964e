package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("conversation not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Conversation struct {
	ID             uuid.UUID
	ParticipantOne uuid.UUID
	ParticipantTwo uuid.UUID
	PropertyID     *uuid.UUID
	LastMessageAt  *time.Time
	UnreadCount    int
	CreatedAt      time.Time
}

// orderPair gives a canonical ordering so (a,b) and (b,a) map to the same
// conversation row.
func orderPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if a.String() > b.String() {
		return b, a
	}
	return a, b
}

// FindOrCreate returns the conversation between two users about a property,
// creating it on first contact. One conversation per (pair, property).
func (r *Repository) FindOrCreate(ctx context.Context, userA, userB uuid.UUID, propertyID *uuid.UUID) (Conversation, error) {
	one, two := orderPair(userA, userB)

	var conv Conversation
	err := r.pool.QueryRow(ctx, `
		INSERT INTO conversations (participant_one, participant_two, property_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (participant_one, participant_two, COALESCE(property_id, '00000000-0000-0000-0000-000000000000'::uuid))
		DO UPDATE SET participant_one = EXCLUDED.participant_one
		RETURNING id, participant_one, participant_two, property_id, last_message_at, created_at
	`, one, two, propertyID,
	).Scan(&conv.ID, &conv.ParticipantOne, &conv.ParticipantTwo, &conv.PropertyID, &conv.LastMessageAt, &conv.CreatedAt)
	return conv, err
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Conversation, error) {
	var conv Conversation
	err := r.pool.QueryRow(ctx, `
		SELECT id, participant_one, participant_two, property_id, last_message_at, created_at
		FROM conversations WHERE id = $1
	`, id).Scan(&conv.ID, &conv.ParticipantOne, &conv.ParticipantTwo, &conv.PropertyID, &conv.LastMessageAt, &conv.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Conversation{}, ErrNotFound
	}
	return conv, err
}

// ListForUser returns the user's conversations, most recently active first,
// each with its unread message count for that user.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]Conversation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.participant_one, c.participant_two, c.property_id, c.last_message_at, c.created_at,
			(SELECT count(*) FROM messages m
			 WHERE m.conversation_id = c.id AND m.sender_id <> $1 AND m.read_at IS NULL)
		FROM conversations c
		WHERE c.participant_one = $1 OR c.participant_two = $1
		ORDER BY c.last_message_at DESC NULLS LAST, c.created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conversations := make([]Conversation, 0)
	for rows.Next() {
		var conv Conversation
		if err := rows.Scan(&conv.ID, &conv.ParticipantOne, &conv.ParticipantTwo,
			&conv.PropertyID, &conv.LastMessageAt, &conv.CreatedAt, &conv.UnreadCount); err != nil {
			return nil, err
		}
		conversations = append(conversations, conv)
	}
	return conversations, rows.Err()
}

type Message struct {
	ID             uuid.UUID
	ConversationID uuid.UUID
	SenderID       uuid.UUID
	Body           string
	ReadAt         *time.Time
	CreatedAt      time.Time
}

func (r *Repository) CreateMessage(ctx context.Context, conversationID, senderID uuid.UUID, body string) (Message, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Message{}, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var msg Message
	err = tx.QueryRow(ctx, `
		INSERT INTO messages (conversation_id, sender_id, body)
		VALUES ($1, $2, $3)
		RETURNING id, conversation_id, sender_id, body, read_at, created_at
	`, conversationID, senderID, body,
	).Scan(&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.Body, &msg.ReadAt, &msg.CreatedAt)
	if err != nil {
		return Message{}, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE conversations SET last_message_at = $2 WHERE id = $1
	`, conversationID, msg.CreatedAt); err != nil {
		return Message{}, err
	}

	return msg, tx.Commit(ctx)
}

func (r *Repository) ListMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]Message, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, conversation_id, sender_id, body, read_at, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, conversationID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]Message, 0)
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.Body, &msg.ReadAt, &msg.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// MarkRead marks every message from the other participant as read.
func (r *Repository) MarkRead(ctx context.Context, conversationID, readerID uuid.UUID) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE messages SET read_at = now()
		WHERE conversation_id = $1 AND sender_id <> $2 AND read_at IS NULL
	`, conversationID, readerID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
