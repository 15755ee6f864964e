// Package transport defines the HTTP request and response shapes for the
// leads module.
package transport

import (
	"time"

	"github.com/google/uuid"
)

type CreateLeadRequest struct {
	FirstName          string     `json:"firstName" binding:"required,max=100"`
	LastName           string     `json:"lastName" binding:"max=100"`
	Email              string     `json:"email" binding:"omitempty,email"`
	Phone              string     `json:"phone" binding:"required"`
	Source             string     `json:"source" binding:"omitempty,oneof=website whatsapp referral walk_in social_media phone_call"`
	Priority           string     `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	BudgetMinCents     *int64     `json:"budgetMinCents" binding:"omitempty,min=0"`
	BudgetMaxCents     *int64     `json:"budgetMaxCents" binding:"omitempty,min=0"`
	PreferredLocations []string   `json:"preferredLocations"`
	PropertyTypes      []string   `json:"propertyTypes"`
	PropertyID         *uuid.UUID `json:"propertyId"`
	AgentID            *uuid.UUID `json:"agentId"`
	Notes              string     `json:"notes" binding:"max=5000"`
}

type UpdateLeadRequest struct {
	FirstName          *string    `json:"firstName" binding:"omitempty,max=100"`
	LastName           *string    `json:"lastName" binding:"omitempty,max=100"`
	Email              *string    `json:"email" binding:"omitempty,email"`
	Phone              *string    `json:"phone"`
	Source             *string    `json:"source" binding:"omitempty,oneof=website whatsapp referral walk_in social_media phone_call"`
	Priority           *string    `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	BudgetMinCents     *int64     `json:"budgetMinCents" binding:"omitempty,min=0"`
	BudgetMaxCents     *int64     `json:"budgetMaxCents" binding:"omitempty,min=0"`
	PreferredLocations []string   `json:"preferredLocations"`
	PropertyTypes      []string   `json:"propertyTypes"`
	PropertyID         *uuid.UUID `json:"propertyId"`
	Notes              *string    `json:"notes" binding:"omitempty,max=5000"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=new contacted qualified proposal negotiation closed_won closed_lost"`
}

type AssignLeadRequest struct {
	AgentID *uuid.UUID `json:"agentId"`
}

// CreateInteractionRequest records a passive engagement event against the
// lead: site traffic, enquiries, callback requests. No agent attribution.
type CreateInteractionRequest struct {
	InteractionType string                 `json:"interactionType" binding:"required,oneof=page_view property_click search inquiry download callback"`
	PropertyID      *uuid.UUID             `json:"propertyId"`
	Metadata        map[string]interface{} `json:"metadata"`
	OccurredAt      *time.Time             `json:"occurredAt"`
}

// CreateActivityRequest records an agent-initiated CRM action. The acting
// agent is taken from the authenticated identity, not the body.
type CreateActivityRequest struct {
	ActivityType string     `json:"activityType" binding:"required,oneof=call email meeting property_viewing whatsapp note"`
	Subject      string     `json:"subject" binding:"max=255"`
	Notes        string     `json:"notes" binding:"max=5000"`
	ScheduledAt  *time.Time `json:"scheduledAt"`
	CompletedAt  *time.Time `json:"completedAt"`
}

type CreateTaskRequest struct {
	Title       string     `json:"title" binding:"required,max=255"`
	Description string     `json:"description" binding:"max=5000"`
	Priority    string     `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	DueAt       *time.Time `json:"dueAt"`
}

type ListLeadsQuery struct {
	Status   string `form:"status" binding:"omitempty,oneof=new contacted qualified proposal negotiation closed_won closed_lost"`
	Priority string `form:"priority" binding:"omitempty,oneof=low medium high urgent"`
	Source   string `form:"source"`
	AgentID  string `form:"agentId" binding:"omitempty,uuid"`
	Hot      bool   `form:"hot"`
	Search   string `form:"search" binding:"max=200"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"pageSize" binding:"omitempty,min=1,max=200"`
}

type LeadResponse struct {
	ID                 uuid.UUID  `json:"id"`
	FirstName          string     `json:"firstName"`
	LastName           string     `json:"lastName"`
	Email              string     `json:"email,omitempty"`
	Phone              string     `json:"phone"`
	Source             string     `json:"source"`
	Status             string     `json:"status"`
	Priority           string     `json:"priority"`
	Score              int        `json:"score"`
	IsHot              bool       `json:"isHot"`
	BudgetMinCents     *int64     `json:"budgetMinCents,omitempty"`
	BudgetMaxCents     *int64     `json:"budgetMaxCents,omitempty"`
	PreferredLocations []string   `json:"preferredLocations"`
	PropertyTypes      []string   `json:"propertyTypes"`
	PropertyID         *uuid.UUID `json:"propertyId,omitempty"`
	AgentID            *uuid.UUID `json:"agentId,omitempty"`
	UserID             *uuid.UUID `json:"userId,omitempty"`
	Notes              string     `json:"notes,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

type LeadListResponse struct {
	Leads    []LeadResponse `json:"leads"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
}

type InteractionResponse struct {
	ID              uuid.UUID              `json:"id"`
	LeadID          uuid.UUID              `json:"leadId"`
	InteractionType string                 `json:"interactionType"`
	PropertyID      *uuid.UUID             `json:"propertyId,omitempty"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
	OccurredAt      time.Time              `json:"occurredAt"`
	CreatedAt       time.Time              `json:"createdAt"`
}

type ActivityResponse struct {
	ID           uuid.UUID  `json:"id"`
	LeadID       uuid.UUID  `json:"leadId"`
	ActivityType string     `json:"activityType"`
	AgentID      *uuid.UUID `json:"agentId,omitempty"`
	Subject      string     `json:"subject,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	ScheduledAt  *time.Time `json:"scheduledAt,omitempty"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

type WhatsAppMessageResponse struct {
	ID          uuid.UUID `json:"id"`
	LeadID      uuid.UUID `json:"leadId"`
	Direction   string    `json:"direction"`
	MessageBody string    `json:"messageBody"`
	Status      string    `json:"status"`
	SentAt      time.Time `json:"sentAt"`
}

type TaskResponse struct {
	ID          uuid.UUID  `json:"id"`
	LeadID      uuid.UUID  `json:"leadId"`
	AgentID     *uuid.UUID `json:"agentId,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    string     `json:"priority"`
	DueAt       *time.Time `json:"dueAt,omitempty"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type StatusCountResponse struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type PipelineStatsResponse struct {
	TotalLeads      int                   `json:"totalLeads"`
	UnassignedLeads int                   `json:"unassignedLeads"`
	HotLeads        int                   `json:"hotLeads"`
	AverageScore    float64               `json:"averageScore"`
	ByStatus        []StatusCountResponse `json:"byStatus"`
}
