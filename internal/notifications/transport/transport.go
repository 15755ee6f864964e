package transport

import (
	"time"

	"github.com/google/uuid"
)

type ListNotificationsQuery struct {
	UnreadOnly bool `form:"unread"`
	Limit      int  `form:"limit,default=20" binding:"omitempty,min=1,max=100"`
	Offset     int  `form:"offset,default=0" binding:"omitempty,min=0"`
}

type NotificationResponse struct {
	ID           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	Body         string     `json:"body"`
	Category     string     `json:"category"`
	ResourceID   *uuid.UUID `json:"resourceId,omitempty"`
	ResourceType *string    `json:"resourceType,omitempty"`
	IsRead       bool       `json:"isRead"`
	CreatedAt    time.Time  `json:"createdAt"`
}

type NotificationListResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	UnreadCount   int                    `json:"unreadCount"`
}
