package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"kejani_backend/internal/events"
	"kejani_backend/internal/messaging/repository"
	"kejani_backend/internal/messaging/transport"
	"kejani_backend/platform/apperr"
	"kejani_backend/platform/logger"
	"kejani_backend/platform/sanitize"
)

// ConversationRepository is the persistence surface this service consumes.
type ConversationRepository interface {
	FindOrCreate(ctx context.Context, userA, userB uuid.UUID, propertyID *uuid.UUID) (repository.Conversation, error)
	GetByID(ctx context.Context, id uuid.UUID) (repository.Conversation, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]repository.Conversation, error)
	CreateMessage(ctx context.Context, conversationID, senderID uuid.UUID, body string) (repository.Message, error)
	ListMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]repository.Message, error)
	MarkRead(ctx context.Context, conversationID, readerID uuid.UUID) (int, error)
}

type Service struct {
	repo     ConversationRepository
	eventBus events.Bus
	logger   *logger.Logger
}

func New(repo ConversationRepository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, eventBus: bus, logger: log}
}

const previewLength = 120

// Start opens (or reuses) the conversation with the recipient and posts the
// first message. Messaging the same person about the same property always
// lands in the same thread.
func (s *Service) Start(ctx context.Context, senderID uuid.UUID, req transport.StartConversationRequest) (transport.MessageResponse, error) {
	if req.RecipientID == senderID {
		return transport.MessageResponse{}, apperr.Validation("cannot message yourself")
	}

	conv, err := s.repo.FindOrCreate(ctx, senderID, req.RecipientID, req.PropertyID)
	if err != nil {
		return transport.MessageResponse{}, apperr.Internal("failed to open conversation", err)
	}

	return s.send(ctx, conv, senderID, req.Body)
}

func (s *Service) Send(ctx context.Context, conversationID, senderID uuid.UUID, req transport.SendMessageRequest) (transport.MessageResponse, error) {
	conv, err := s.repo.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.MessageResponse{}, apperr.NotFound("conversation not found")
		}
		return transport.MessageResponse{}, apperr.Internal("failed to load conversation", err)
	}
	if conv.ParticipantOne != senderID && conv.ParticipantTwo != senderID {
		return transport.MessageResponse{}, apperr.Forbidden("not your conversation")
	}

	return s.send(ctx, conv, senderID, req.Body)
}

func (s *Service) send(ctx context.Context, conv repository.Conversation, senderID uuid.UUID, body string) (transport.MessageResponse, error) {
	clean := sanitize.Text(body)
	msg, err := s.repo.CreateMessage(ctx, conv.ID, senderID, clean)
	if err != nil {
		return transport.MessageResponse{}, apperr.Internal("failed to send message", err)
	}

	recipient := conv.ParticipantOne
	if recipient == senderID {
		recipient = conv.ParticipantTwo
	}

	preview := clean
	if len(preview) > previewLength {
		preview = preview[:previewLength]
	}
	s.eventBus.Publish(ctx, events.MessageSent{
		BaseEvent:      events.NewBaseEvent(),
		MessageID:      msg.ID,
		ConversationID: conv.ID,
		SenderID:       senderID,
		RecipientID:    recipient,
		Preview:        preview,
	})

	return toMessageResponse(msg), nil
}

func (s *Service) ListConversations(ctx context.Context, userID uuid.UUID) ([]transport.ConversationResponse, error) {
	conversations, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("failed to list conversations", err)
	}

	out := make([]transport.ConversationResponse, 0, len(conversations))
	for _, conv := range conversations {
		other := conv.ParticipantOne
		if other == userID {
			other = conv.ParticipantTwo
		}
		out = append(out, transport.ConversationResponse{
			ID:            conv.ID,
			OtherUserID:   other,
			PropertyID:    conv.PropertyID,
			LastMessageAt: conv.LastMessageAt,
			UnreadCount:   conv.UnreadCount,
			CreatedAt:     conv.CreatedAt,
		})
	}
	return out, nil
}

// ListMessages returns a page of the thread and marks the other side's
// messages as read.
func (s *Service) ListMessages(ctx context.Context, conversationID, userID uuid.UUID, limit, offset int) ([]transport.MessageResponse, error) {
	conv, err := s.repo.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("conversation not found")
		}
		return nil, apperr.Internal("failed to load conversation", err)
	}
	if conv.ParticipantOne != userID && conv.ParticipantTwo != userID {
		return nil, apperr.Forbidden("not your conversation")
	}

	messages, err := s.repo.ListMessages(ctx, conversationID, limit, offset)
	if err != nil {
		return nil, apperr.Internal("failed to list messages", err)
	}

	if _, err := s.repo.MarkRead(ctx, conversationID, userID); err != nil {
		s.logger.DatabaseError("mark messages read", err)
	}

	out := make([]transport.MessageResponse, 0, len(messages))
	for _, msg := range messages {
		out = append(out, toMessageResponse(msg))
	}
	return out, nil
}

func toMessageResponse(msg repository.Message) transport.MessageResponse {
	return transport.MessageResponse{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		Body:           msg.Body,
		ReadAt:         msg.ReadAt,
		CreatedAt:      msg.CreatedAt,
	}
}
