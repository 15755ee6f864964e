package transport

import (
	"time"

	"github.com/google/uuid"
)

type CreatePlanRequest struct {
	Name         string   `json:"name" binding:"required,max=50"`
	PlanType     string   `json:"planType" binding:"required,oneof=basic premium enterprise"`
	Description  string   `json:"description" binding:"required"`
	PriceCents   int64    `json:"priceCents" binding:"required,min=0"`
	Features     []string `json:"features"`
	ListingQuota int      `json:"listingQuota" binding:"omitempty,min=0"`
	FeaturedDays int      `json:"featuredDays" binding:"omitempty,min=0"`
	ValidityDays int      `json:"validityDays" binding:"omitempty,min=1"`
}

type PlanResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	PlanType     string    `json:"planType"`
	Description  string    `json:"description"`
	PriceCents   int64     `json:"priceCents"`
	Currency     string    `json:"currency"`
	Features     []string  `json:"features"`
	ListingQuota int       `json:"listingQuota"`
	FeaturedDays int       `json:"featuredDays"`
	ValidityDays int       `json:"validityDays"`
	IsActive     bool      `json:"isActive"`
}

type SubscriptionResponse struct {
	ID           uuid.UUID     `json:"id"`
	Plan         *PlanResponse `json:"plan,omitempty"`
	Status       string        `json:"status"`
	AutoRenew    bool          `json:"autoRenew"`
	ListingsUsed int           `json:"listingsUsed"`
	FeaturedUsed int           `json:"featuredUsed"`
	StartDate    time.Time     `json:"startDate"`
	EndDate      time.Time     `json:"endDate"`
}

type InitiatePaymentRequest struct {
	TransactionType string     `json:"transactionType" binding:"required,oneof=subscription property_feature premium_listing"`
	PlanID          *uuid.UUID `json:"planId"`
	PropertyID      *uuid.UUID `json:"propertyId"`
	AmountCents     int64      `json:"amountCents" binding:"omitempty,min=1"`
	Phone           string     `json:"phone" binding:"required"`
	Description     string     `json:"description" binding:"omitempty,max=500"`
}

type TransactionResponse struct {
	ID                uuid.UUID  `json:"id"`
	TransactionType   string     `json:"transactionType"`
	AmountCents       int64      `json:"amountCents"`
	Currency          string     `json:"currency"`
	Description       string     `json:"description"`
	Phone             string     `json:"phone"`
	AccountReference  string     `json:"accountReference"`
	CheckoutRequestID string     `json:"checkoutRequestId"`
	ReceiptNumber     string     `json:"receiptNumber,omitempty"`
	Status            string     `json:"status"`
	StatusMessage     string     `json:"statusMessage,omitempty"`
	TransactionDate   *time.Time `json:"transactionDate,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
}

type ListTransactionsQuery struct {
	Limit  int `form:"limit,default=20" binding:"omitempty,min=1,max=100"`
	Offset int `form:"offset,default=0" binding:"omitempty,min=0"`
}

// MpesaCallback mirrors the Daraja STK push result payload.
type MpesaCallback struct {
	Body struct {
		StkCallback struct {
			MerchantRequestID string `json:"MerchantRequestID"`
			CheckoutRequestID string `json:"CheckoutRequestID"`
			ResultCode        int    `json:"ResultCode"`
			ResultDesc        string `json:"ResultDesc"`
			CallbackMetadata  struct {
				Item []MpesaCallbackItem `json:"Item"`
			} `json:"CallbackMetadata"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

type MpesaCallbackItem struct {
	Name  string `json:"Name"`
	Value any    `json:"Value"`
}

// MpesaAck is the acknowledgement Daraja expects in response to a callback.
type MpesaAck struct {
	ResultCode int    `json:"ResultCode"`
	ResultDesc string `json:"ResultDesc"`
}
