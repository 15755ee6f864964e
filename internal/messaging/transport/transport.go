package transport

import (
	"time"

	"github.com/google/uuid"
)

type StartConversationRequest struct {
	RecipientID uuid.UUID  `json:"recipientId" binding:"required"`
	PropertyID  *uuid.UUID `json:"propertyId"`
	Body        string     `json:"body" binding:"required,max=5000"`
}

type SendMessageRequest struct {
	Body string `json:"body" binding:"required,max=5000"`
}

type ConversationResponse struct {
	ID            uuid.UUID  `json:"id"`
	OtherUserID   uuid.UUID  `json:"otherUserId"`
	PropertyID    *uuid.UUID `json:"propertyId,omitempty"`
	LastMessageAt *time.Time `json:"lastMessageAt,omitempty"`
	UnreadCount   int        `json:"unreadCount"`
	CreatedAt     time.Time  `json:"createdAt"`
}

type MessageResponse struct {
	ID             uuid.UUID  `json:"id"`
	ConversationID uuid.UUID  `json:"conversationId"`
	SenderID       uuid.UUID  `json:"senderId"`
	Body           string     `json:"body"`
	ReadAt         *time.Time `json:"readAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}
