package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"kejani_backend/internal/events"
	"kejani_backend/internal/payments/repository"
	"kejani_backend/internal/payments/transport"
	"kejani_backend/platform/apperr"
	"kejani_backend/platform/logger"
	"kejani_backend/platform/phone"
)

// PaymentRepository is the persistence surface this service consumes.
type PaymentRepository interface {
	CreatePlan(ctx context.Context, params repository.CreatePlanParams) (repository.Plan, error)
	GetPlan(ctx context.Context, id uuid.UUID) (repository.Plan, error)
	ListPlans(ctx context.Context, activeOnly bool) ([]repository.Plan, error)
	SetPlanActive(ctx context.Context, id uuid.UUID, active bool) error

	ActivateSubscription(ctx context.Context, agentID, planID uuid.UUID, validityDays int) (repository.Subscription, error)
	GetSubscriptionByAgent(ctx context.Context, agentID uuid.UUID) (repository.Subscription, error)
	CancelSubscription(ctx context.Context, agentID uuid.UUID) error
	IncrementListingUsage(ctx context.Context, agentID uuid.UUID) error
	IncrementFeaturedUsage(ctx context.Context, agentID uuid.UUID) error
	ExpireDueSubscriptions(ctx context.Context) (int, error)

	CreateTransaction(ctx context.Context, params repository.CreateTransactionParams) (repository.Transaction, error)
	GetTransactionByCheckoutID(ctx context.Context, checkoutRequestID string) (repository.Transaction, error)
	ListTransactionsByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]repository.Transaction, error)
	ResolveTransaction(ctx context.Context, id uuid.UUID, params repository.ResolveTransactionParams) (repository.Transaction, error)
	RecordCallback(ctx context.Context, payload []byte, processed bool, notes string) error
}

type Service struct {
	repo     PaymentRepository
	eventBus events.Bus
	logger   *logger.Logger
}

func New(repo PaymentRepository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, eventBus: bus, logger: log}
}

func (s *Service) CreatePlan(ctx context.Context, req transport.CreatePlanRequest) (transport.PlanResponse, error) {
	plan, err := s.repo.CreatePlan(ctx, repository.CreatePlanParams{
		Name:         req.Name,
		PlanType:     req.PlanType,
		Description:  req.Description,
		PriceCents:   req.PriceCents,
		Features:     req.Features,
		ListingQuota: req.ListingQuota,
		FeaturedDays: req.FeaturedDays,
		ValidityDays: req.ValidityDays,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return transport.PlanResponse{}, apperr.Conflict("a plan with this name already exists")
	}
	if err != nil {
		return transport.PlanResponse{}, apperr.Internal("failed to create plan", err)
	}
	return toPlanResponse(plan), nil
}

func (s *Service) ListPlans(ctx context.Context) ([]transport.PlanResponse, error) {
	plans, err := s.repo.ListPlans(ctx, true)
	if err != nil {
		return nil, apperr.Internal("failed to list plans", err)
	}
	out := make([]transport.PlanResponse, 0, len(plans))
	for _, plan := range plans {
		out = append(out, toPlanResponse(plan))
	}
	return out, nil
}

func (s *Service) SetPlanActive(ctx context.Context, id uuid.UUID, active bool) error {
	err := s.repo.SetPlanActive(ctx, id, active)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("plan not found")
	}
	if err != nil {
		return apperr.Internal("failed to update plan", err)
	}
	return nil
}

func (s *Service) GetMySubscription(ctx context.Context, agentID uuid.UUID) (transport.SubscriptionResponse, error) {
	sub, err := s.repo.GetSubscriptionByAgent(ctx, agentID)
	if errors.Is(err, repository.ErrNotFound) {
		return transport.SubscriptionResponse{}, apperr.NotFound("no subscription found")
	}
	if err != nil {
		return transport.SubscriptionResponse{}, apperr.Internal("failed to load subscription", err)
	}

	resp := toSubscriptionResponse(sub)
	if plan, err := s.repo.GetPlan(ctx, sub.PlanID); err == nil {
		p := toPlanResponse(plan)
		resp.Plan = &p
	}
	return resp, nil
}

func (s *Service) CancelMySubscription(ctx context.Context, agentID uuid.UUID) error {
	err := s.repo.CancelSubscription(ctx, agentID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("no active subscription to cancel")
	}
	if err != nil {
		return apperr.Internal("failed to cancel subscription", err)
	}
	return nil
}

// RecordListing bumps the agent's listing usage counter. Soft-fail: quota
// accounting never blocks a property write.
func (s *Service) RecordListing(ctx context.Context, agentID uuid.UUID) {
	if err := s.repo.IncrementListingUsage(ctx, agentID); err != nil {
		s.logger.DatabaseError("increment listing usage", err)
	}
}

// RecordFeatured bumps the agent's featured-listing usage counter.
func (s *Service) RecordFeatured(ctx context.Context, agentID uuid.UUID) {
	if err := s.repo.IncrementFeaturedUsage(ctx, agentID); err != nil {
		s.logger.DatabaseError("increment featured usage", err)
	}
}

// ExpireDue is the worker sweep marking lapsed subscriptions expired.
func (s *Service) ExpireDue(ctx context.Context) (int, error) {
	return s.repo.ExpireDueSubscriptions(ctx)
}

// Initiate creates a pending M-Pesa transaction. There is no outbound STK
// push call: the gateway posts the result to the callback endpoint, which
// resolves the transaction by checkout request id.
func (s *Service) Initiate(ctx context.Context, userID uuid.UUID, req transport.InitiatePaymentRequest) (transport.TransactionResponse, error) {
	normalized := phone.NormalizeE164(req.Phone)
	if normalized == "" {
		return transport.TransactionResponse{}, apperr.Validation("a valid phone number is required")
	}

	amount := req.AmountCents
	description := req.Description

	if req.TransactionType == "subscription" {
		if req.PlanID == nil {
			return transport.TransactionResponse{}, apperr.Validation("planId is required for subscription payments")
		}
		plan, err := s.repo.GetPlan(ctx, *req.PlanID)
		if errors.Is(err, repository.ErrNotFound) {
			return transport.TransactionResponse{}, apperr.NotFound("plan not found")
		}
		if err != nil {
			return transport.TransactionResponse{}, apperr.Internal("failed to load plan", err)
		}
		if !plan.IsActive {
			return transport.TransactionResponse{}, apperr.Validation("plan is no longer available")
		}
		amount = plan.PriceCents
		if description == "" {
			description = fmt.Sprintf("%s plan subscription", plan.Name)
		}
	} else if amount <= 0 {
		return transport.TransactionResponse{}, apperr.Validation("amountCents is required")
	}

	txn, err := s.repo.CreateTransaction(ctx, repository.CreateTransactionParams{
		UserID:            userID,
		PlanID:            req.PlanID,
		PropertyID:        req.PropertyID,
		TransactionType:   req.TransactionType,
		AmountCents:       amount,
		Description:       description,
		Phone:             normalized,
		AccountReference:  newAccountReference(),
		CheckoutRequestID: newCheckoutRequestID(),
	})
	if err != nil {
		return transport.TransactionResponse{}, apperr.Internal("failed to create transaction", err)
	}
	return toTransactionResponse(txn), nil
}

func (s *Service) ListMyTransactions(ctx context.Context, userID uuid.UUID, query transport.ListTransactionsQuery) ([]transport.TransactionResponse, error) {
	transactions, err := s.repo.ListTransactionsByUser(ctx, userID, query.Limit, query.Offset)
	if err != nil {
		return nil, apperr.Internal("failed to list transactions", err)
	}
	out := make([]transport.TransactionResponse, 0, len(transactions))
	for _, txn := range transactions {
		out = append(out, toTransactionResponse(txn))
	}
	return out, nil
}

// HandleCallback processes a Daraja STK result. The raw payload is persisted
// for audit regardless of outcome; replayed callbacks are acknowledged
// without reprocessing.
func (s *Service) HandleCallback(ctx context.Context, payload []byte, callback transport.MpesaCallback) error {
	stk := callback.Body.StkCallback

	txn, err := s.repo.GetTransactionByCheckoutID(ctx, stk.CheckoutRequestID)
	if errors.Is(err, repository.ErrNotFound) {
		s.recordCallback(ctx, payload, false, "no transaction for checkout request "+stk.CheckoutRequestID)
		return apperr.NotFound("unknown checkout request")
	}
	if err != nil {
		s.recordCallback(ctx, payload, false, "lookup failed: "+err.Error())
		return apperr.Internal("failed to load transaction", err)
	}

	if stk.ResultCode != 0 {
		_, err := s.repo.ResolveTransaction(ctx, txn.ID, repository.ResolveTransactionParams{
			Status:            "failed",
			StatusMessage:     stk.ResultDesc,
			MerchantRequestID: stk.MerchantRequestID,
		})
		if errors.Is(err, repository.ErrNotFound) {
			s.recordCallback(ctx, payload, true, "duplicate callback ignored")
			return nil
		}
		if err != nil {
			s.recordCallback(ctx, payload, false, "resolve failed: "+err.Error())
			return apperr.Internal("failed to resolve transaction", err)
		}

		s.recordCallback(ctx, payload, true, "failed: "+stk.ResultDesc)
		s.eventBus.Publish(ctx, events.PaymentFailed{
			BaseEvent:     events.NewBaseEvent(),
			TransactionID: txn.ID,
			UserID:        txn.UserID,
			Reason:        stk.ResultDesc,
		})
		return nil
	}

	meta := parseCallbackMetadata(stk.CallbackMetadata.Item)

	var subscriptionID *uuid.UUID
	if txn.TransactionType == "subscription" && txn.PlanID != nil {
		plan, err := s.repo.GetPlan(ctx, *txn.PlanID)
		if err != nil {
			s.logger.Error("plan lookup for completed payment", "transactionId", txn.ID, "error", err)
		} else {
			sub, err := s.repo.ActivateSubscription(ctx, txn.UserID, plan.ID, plan.ValidityDays)
			if err != nil {
				s.logger.Error("activate subscription for completed payment", "transactionId", txn.ID, "error", err)
			} else {
				subscriptionID = &sub.ID
			}
		}
	}

	now := time.Now().UTC()
	resolved, err := s.repo.ResolveTransaction(ctx, txn.ID, repository.ResolveTransactionParams{
		Status:            "successful",
		StatusMessage:     stk.ResultDesc,
		ReceiptNumber:     meta.receipt,
		Phone:             meta.phone,
		MerchantRequestID: stk.MerchantRequestID,
		SubscriptionID:    subscriptionID,
		TransactionDate:   &now,
	})
	if errors.Is(err, repository.ErrNotFound) {
		s.recordCallback(ctx, payload, true, "duplicate callback ignored")
		return nil
	}
	if err != nil {
		s.recordCallback(ctx, payload, false, "resolve failed: "+err.Error())
		return apperr.Internal("failed to resolve transaction", err)
	}

	s.recordCallback(ctx, payload, true, "completed: "+meta.receipt)
	s.eventBus.Publish(ctx, events.PaymentCompleted{
		BaseEvent:     events.NewBaseEvent(),
		TransactionID: resolved.ID,
		UserID:        resolved.UserID,
		Amount:        resolved.AmountCents,
		ReceiptNumber: resolved.ReceiptNumber,
	})
	return nil
}

func (s *Service) recordCallback(ctx context.Context, payload []byte, processed bool, notes string) {
	if err := s.repo.RecordCallback(ctx, payload, processed, notes); err != nil {
		s.logger.DatabaseError("record payment callback", err)
	}
}

type callbackMetadata struct {
	receipt string
	phone   string
}

// parseCallbackMetadata reads Daraja metadata items by name. Values arrive
// untyped: receipt numbers are strings, phone numbers are JSON numbers.
func parseCallbackMetadata(items []transport.MpesaCallbackItem) callbackMetadata {
	var meta callbackMetadata
	for _, item := range items {
		switch item.Name {
		case "MpesaReceiptNumber":
			if v, ok := item.Value.(string); ok {
				meta.receipt = v
			}
		case "PhoneNumber":
			switch v := item.Value.(type) {
			case string:
				meta.phone = v
			case float64:
				meta.phone = strconv.FormatInt(int64(v), 10)
			}
		}
	}
	return meta
}

func newAccountReference() string {
	return "KEJ-" + strings.ToUpper(uuid.NewString()[:8])
}

func newCheckoutRequestID() string {
	return "ws_CO_" + time.Now().UTC().Format("02012006150405") + "_" + uuid.NewString()[:12]
}

func toPlanResponse(plan repository.Plan) transport.PlanResponse {
	return transport.PlanResponse{
		ID:           plan.ID,
		Name:         plan.Name,
		PlanType:     plan.PlanType,
		Description:  plan.Description,
		PriceCents:   plan.PriceCents,
		Currency:     plan.Currency,
		Features:     plan.Features,
		ListingQuota: plan.ListingQuota,
		FeaturedDays: plan.FeaturedDays,
		ValidityDays: plan.ValidityDays,
		IsActive:     plan.IsActive,
	}
}

func toSubscriptionResponse(sub repository.Subscription) transport.SubscriptionResponse {
	return transport.SubscriptionResponse{
		ID:           sub.ID,
		Status:       sub.Status,
		AutoRenew:    sub.AutoRenew,
		ListingsUsed: sub.ListingsUsed,
		FeaturedUsed: sub.FeaturedUsed,
		StartDate:    sub.StartDate,
		EndDate:      sub.EndDate,
	}
}

func toTransactionResponse(txn repository.Transaction) transport.TransactionResponse {
	return transport.TransactionResponse{
		ID:                txn.ID,
		TransactionType:   txn.TransactionType,
		AmountCents:       txn.AmountCents,
		Currency:          txn.Currency,
		Description:       txn.Description,
		Phone:             txn.Phone,
		AccountReference:  txn.AccountReference,
		CheckoutRequestID: txn.CheckoutRequestID,
		ReceiptNumber:     txn.ReceiptNumber,
		Status:            txn.Status,
		StatusMessage:     txn.StatusMessage,
		TransactionDate:   txn.TransactionDate,
		CreatedAt:         txn.CreatedAt,
	}
}
