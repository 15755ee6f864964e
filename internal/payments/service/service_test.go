package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"kejani_backend/internal/events"
	"kejani_backend/internal/payments/repository"
	"kejani_backend/internal/payments/transport"
	"kejani_backend/platform/apperr"
	"kejani_backend/platform/logger"
)

type fakeRepo struct {
	mu            sync.Mutex
	plans         map[uuid.UUID]repository.Plan
	subscriptions map[uuid.UUID]repository.Subscription
	transactions  map[uuid.UUID]repository.Transaction
	callbacks     int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		plans:         make(map[uuid.UUID]repository.Plan),
		subscriptions: make(map[uuid.UUID]repository.Subscription),
		transactions:  make(map[uuid.UUID]repository.Transaction),
	}
}

func (f *fakeRepo) CreatePlan(_ context.Context, p repository.CreatePlanParams) (repository.Plan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	plan := repository.Plan{
		ID:           uuid.New(),
		Name:         p.Name,
		PlanType:     p.PlanType,
		Description:  p.Description,
		PriceCents:   p.PriceCents,
		Currency:     "KES",
		Features:     p.Features,
		ListingQuota: p.ListingQuota,
		FeaturedDays: p.FeaturedDays,
		ValidityDays: p.ValidityDays,
		IsActive:     true,
	}
	if plan.ValidityDays == 0 {
		plan.ValidityDays = 30
	}
	f.plans[plan.ID] = plan
	return plan, nil
}

func (f *fakeRepo) GetPlan(_ context.Context, id uuid.UUID) (repository.Plan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	plan, ok := f.plans[id]
	if !ok {
		return repository.Plan{}, repository.ErrNotFound
	}
	return plan, nil
}

func (f *fakeRepo) ListPlans(_ context.Context, activeOnly bool) ([]repository.Plan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.Plan
	for _, plan := range f.plans {
		if !activeOnly || plan.IsActive {
			out = append(out, plan)
		}
	}
	return out, nil
}

func (f *fakeRepo) SetPlanActive(_ context.Context, id uuid.UUID, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	plan, ok := f.plans[id]
	if !ok {
		return repository.ErrNotFound
	}
	plan.IsActive = active
	f.plans[id] = plan
	return nil
}

func (f *fakeRepo) ActivateSubscription(_ context.Context, agentID, planID uuid.UUID, validityDays int) (repository.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub, ok := f.subscriptions[agentID]
	if !ok {
		sub = repository.Subscription{ID: uuid.New(), AgentID: agentID}
	}
	sub.PlanID = planID
	sub.Status = "active"
	sub.StartDate = time.Now()
	sub.EndDate = time.Now().Add(time.Duration(validityDays) * 24 * time.Hour)
	sub.ListingsUsed = 0
	sub.FeaturedUsed = 0
	f.subscriptions[agentID] = sub
	return sub, nil
}

func (f *fakeRepo) GetSubscriptionByAgent(_ context.Context, agentID uuid.UUID) (repository.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub, ok := f.subscriptions[agentID]
	if !ok {
		return repository.Subscription{}, repository.ErrNotFound
	}
	return sub, nil
}

func (f *fakeRepo) CancelSubscription(_ context.Context, agentID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub, ok := f.subscriptions[agentID]
	if !ok || sub.Status != "active" {
		return repository.ErrNotFound
	}
	sub.Status = "cancelled"
	f.subscriptions[agentID] = sub
	return nil
}

func (f *fakeRepo) IncrementListingUsage(_ context.Context, agentID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if sub, ok := f.subscriptions[agentID]; ok && sub.Status == "active" {
		sub.ListingsUsed++
		f.subscriptions[agentID] = sub
	}
	return nil
}

func (f *fakeRepo) IncrementFeaturedUsage(_ context.Context, agentID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if sub, ok := f.subscriptions[agentID]; ok && sub.Status == "active" {
		sub.FeaturedUsed++
		f.subscriptions[agentID] = sub
	}
	return nil
}

func (f *fakeRepo) ExpireDueSubscriptions(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	expired := 0
	for id, sub := range f.subscriptions {
		if sub.Status == "active" && sub.EndDate.Before(time.Now()) {
			sub.Status = "expired"
			f.subscriptions[id] = sub
			expired++
		}
	}
	return expired, nil
}

func (f *fakeRepo) CreateTransaction(_ context.Context, p repository.CreateTransactionParams) (repository.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	txn := repository.Transaction{
		ID:                uuid.New(),
		UserID:            p.UserID,
		PlanID:            p.PlanID,
		PropertyID:        p.PropertyID,
		TransactionType:   p.TransactionType,
		AmountCents:       p.AmountCents,
		Currency:          "KES",
		Description:       p.Description,
		Phone:             p.Phone,
		AccountReference:  p.AccountReference,
		CheckoutRequestID: p.CheckoutRequestID,
		Status:            "pending",
		CreatedAt:         time.Now(),
	}
	f.transactions[txn.ID] = txn
	return txn, nil
}

func (f *fakeRepo) GetTransaction(_ context.Context, id uuid.UUID) (repository.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	txn, ok := f.transactions[id]
	if !ok {
		return repository.Transaction{}, repository.ErrNotFound
	}
	return txn, nil
}

func (f *fakeRepo) GetTransactionByCheckoutID(_ context.Context, checkoutRequestID string) (repository.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, txn := range f.transactions {
		if txn.CheckoutRequestID == checkoutRequestID {
			return txn, nil
		}
	}
	return repository.Transaction{}, repository.ErrNotFound
}

func (f *fakeRepo) ListTransactionsByUser(_ context.Context, userID uuid.UUID, _, _ int) ([]repository.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.Transaction
	for _, txn := range f.transactions {
		if txn.UserID == userID {
			out = append(out, txn)
		}
	}
	return out, nil
}

func (f *fakeRepo) ResolveTransaction(_ context.Context, id uuid.UUID, p repository.ResolveTransactionParams) (repository.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	txn, ok := f.transactions[id]
	if !ok || txn.Status != "pending" {
		return repository.Transaction{}, repository.ErrNotFound
	}
	txn.Status = p.Status
	txn.StatusMessage = p.StatusMessage
	if p.ReceiptNumber != "" {
		txn.ReceiptNumber = p.ReceiptNumber
	}
	if p.Phone != "" {
		txn.Phone = p.Phone
	}
	if p.SubscriptionID != nil {
		txn.SubscriptionID = p.SubscriptionID
	}
	txn.TransactionDate = p.TransactionDate
	f.transactions[id] = txn
	return txn, nil
}

func (f *fakeRepo) RecordCallback(_ context.Context, _ []byte, _ bool, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callbacks++
	return nil
}

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, e events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *recordingBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func newService(repo *fakeRepo, bus *recordingBus) *Service {
	return New(repo, bus, logger.New("test"))
}

func seedPlan(t *testing.T, repo *fakeRepo, priceCents int64) repository.Plan {
	t.Helper()
	plan, err := repo.CreatePlan(context.Background(), repository.CreatePlanParams{
		Name:         "Premium",
		PlanType:     "premium",
		Description:  "Premium agent plan",
		PriceCents:   priceCents,
		ValidityDays: 30,
	})
	if err != nil {
		t.Fatalf("seed plan: %v", err)
	}
	return plan
}

func successCallback(checkoutID, receipt string) transport.MpesaCallback {
	var cb transport.MpesaCallback
	cb.Body.StkCallback.CheckoutRequestID = checkoutID
	cb.Body.StkCallback.MerchantRequestID = "29115-34620561-1"
	cb.Body.StkCallback.ResultCode = 0
	cb.Body.StkCallback.ResultDesc = "The service request is processed successfully."
	cb.Body.StkCallback.CallbackMetadata.Item = []transport.MpesaCallbackItem{
		{Name: "Amount", Value: float64(150000) / 100},
		{Name: "MpesaReceiptNumber", Value: receipt},
		{Name: "PhoneNumber", Value: float64(254712345678)},
	}
	return cb
}

func TestInitiateSubscriptionUsesPlanPrice(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, &recordingBus{})
	plan := seedPlan(t, repo, 150000)
	agent := uuid.New()

	txn, err := svc.Initiate(context.Background(), agent, transport.InitiatePaymentRequest{
		TransactionType: "subscription",
		PlanID:          &plan.ID,
		Phone:           "0712345678",
	})
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}

	if txn.AmountCents != 150000 {
		t.Errorf("amount = %d, want plan price 150000", txn.AmountCents)
	}
	if txn.Status != "pending" {
		t.Errorf("status = %q, want pending", txn.Status)
	}
	if txn.CheckoutRequestID == "" {
		t.Error("expected a checkout request id")
	}
	if txn.Phone != "+254712345678" {
		t.Errorf("phone = %q, want normalized +254712345678", txn.Phone)
	}
}

func TestInitiateSubscriptionRequiresPlan(t *testing.T) {
	svc := newService(newFakeRepo(), &recordingBus{})

	_, err := svc.Initiate(context.Background(), uuid.New(), transport.InitiatePaymentRequest{
		TransactionType: "subscription",
		Phone:           "0712345678",
	})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCallbackSuccessActivatesSubscription(t *testing.T) {
	repo := newFakeRepo()
	bus := &recordingBus{}
	svc := newService(repo, bus)
	plan := seedPlan(t, repo, 150000)
	agent := uuid.New()

	txn, err := svc.Initiate(context.Background(), agent, transport.InitiatePaymentRequest{
		TransactionType: "subscription",
		PlanID:          &plan.ID,
		Phone:           "0712345678",
	})
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}

	cb := successCallback(txn.CheckoutRequestID, "QGH7SK61SU")
	payload, _ := json.Marshal(cb)
	if err := svc.HandleCallback(context.Background(), payload, cb); err != nil {
		t.Fatalf("HandleCallback: %v", err)
	}

	sub, err := repo.GetSubscriptionByAgent(context.Background(), agent)
	if err != nil {
		t.Fatalf("expected active subscription, got %v", err)
	}
	if sub.Status != "active" || sub.PlanID != plan.ID {
		t.Errorf("subscription = %+v, want active on plan", sub)
	}

	resolved := repo.transactions[txn.ID]
	if resolved.Status != "successful" {
		t.Errorf("transaction status = %q, want successful", resolved.Status)
	}
	if resolved.ReceiptNumber != "QGH7SK61SU" {
		t.Errorf("receipt = %q, want QGH7SK61SU", resolved.ReceiptNumber)
	}

	if len(bus.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(bus.events))
	}
	completed, ok := bus.events[0].(events.PaymentCompleted)
	if !ok {
		t.Fatalf("expected PaymentCompleted, got %T", bus.events[0])
	}
	if completed.UserID != agent || completed.ReceiptNumber != "QGH7SK61SU" {
		t.Errorf("event = %+v", completed)
	}
}

func TestCallbackFailurePublishesPaymentFailed(t *testing.T) {
	repo := newFakeRepo()
	bus := &recordingBus{}
	svc := newService(repo, bus)
	plan := seedPlan(t, repo, 150000)
	agent := uuid.New()

	txn, err := svc.Initiate(context.Background(), agent, transport.InitiatePaymentRequest{
		TransactionType: "subscription",
		PlanID:          &plan.ID,
		Phone:           "0712345678",
	})
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}

	var cb transport.MpesaCallback
	cb.Body.StkCallback.CheckoutRequestID = txn.CheckoutRequestID
	cb.Body.StkCallback.ResultCode = 1032
	cb.Body.StkCallback.ResultDesc = "Request cancelled by user"
	payload, _ := json.Marshal(cb)

	if err := svc.HandleCallback(context.Background(), payload, cb); err != nil {
		t.Fatalf("HandleCallback: %v", err)
	}

	if _, err := repo.GetSubscriptionByAgent(context.Background(), agent); err == nil {
		t.Error("expected no subscription after failed payment")
	}
	failed, ok := bus.events[0].(events.PaymentFailed)
	if !ok {
		t.Fatalf("expected PaymentFailed, got %T", bus.events[0])
	}
	if failed.Reason != "Request cancelled by user" {
		t.Errorf("reason = %q", failed.Reason)
	}
}

func TestCallbackReplayIsIgnored(t *testing.T) {
	repo := newFakeRepo()
	bus := &recordingBus{}
	svc := newService(repo, bus)
	plan := seedPlan(t, repo, 150000)

	txn, err := svc.Initiate(context.Background(), uuid.New(), transport.InitiatePaymentRequest{
		TransactionType: "subscription",
		PlanID:          &plan.ID,
		Phone:           "0712345678",
	})
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}

	cb := successCallback(txn.CheckoutRequestID, "QGH7SK61SU")
	payload, _ := json.Marshal(cb)
	if err := svc.HandleCallback(context.Background(), payload, cb); err != nil {
		t.Fatalf("first callback: %v", err)
	}
	if err := svc.HandleCallback(context.Background(), payload, cb); err != nil {
		t.Fatalf("replayed callback: %v", err)
	}

	if len(bus.events) != 1 {
		t.Errorf("expected 1 event after replay, got %d", len(bus.events))
	}
}

func TestCallbackUnknownCheckoutIsNotFound(t *testing.T) {
	svc := newService(newFakeRepo(), &recordingBus{})

	var cb transport.MpesaCallback
	cb.Body.StkCallback.CheckoutRequestID = "ws_CO_unknown"
	cb.Body.StkCallback.ResultCode = 0
	payload, _ := json.Marshal(cb)

	err := svc.HandleCallback(context.Background(), payload, cb)
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestExpireDueSweep(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, &recordingBus{})
	agent := uuid.New()

	sub, err := repo.ActivateSubscription(context.Background(), agent, uuid.New(), 30)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	sub.EndDate = time.Now().Add(-time.Hour)
	repo.subscriptions[agent] = sub

	expired, err := svc.ExpireDue(context.Background())
	if err != nil {
		t.Fatalf("ExpireDue: %v", err)
	}
	if expired != 1 {
		t.Errorf("expired = %d, want 1", expired)
	}
	if repo.subscriptions[agent].Status != "expired" {
		t.Errorf("status = %q, want expired", repo.subscriptions[agent].Status)
	}
}
