package transport

import (
	"time"

	"github.com/google/uuid"
)

type CreateBookingRequest struct {
	PropertyID      uuid.UUID `json:"propertyId" binding:"required"`
	BookingDate     time.Time `json:"bookingDate" binding:"required"`
	DurationMinutes int       `json:"durationMinutes" binding:"omitempty,min=15,max=480"`
	ClientNotes     string    `json:"clientNotes" binding:"max=2000"`
}

type UpdateStatusRequest struct {
	Status     string  `json:"status" binding:"required,oneof=confirmed cancelled completed no_show"`
	AgentNotes *string `json:"agentNotes" binding:"omitempty,max=2000"`
}

type ListBookingsQuery struct {
	Status   string `form:"status" binding:"omitempty,oneof=pending confirmed cancelled completed no_show"`
	Upcoming bool   `form:"upcoming"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"pageSize" binding:"omitempty,min=1,max=200"`
}

type BookingResponse struct {
	ID              uuid.UUID `json:"id"`
	PropertyID      uuid.UUID `json:"propertyId"`
	ClientID        uuid.UUID `json:"clientId"`
	AgentID         uuid.UUID `json:"agentId"`
	BookingDate     time.Time `json:"bookingDate"`
	DurationMinutes int       `json:"durationMinutes"`
	Status          string    `json:"status"`
	ClientNotes     string    `json:"clientNotes,omitempty"`
	AgentNotes      string    `json:"agentNotes,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"pageSize"`
}
