package adapters

import (
	"context"

	"github.com/google/uuid"

	paymentsvc "kejani_backend/internal/payments/service"
	propsvc "kejani_backend/internal/properties/service"
)

// SubscriptionUsageRecorder feeds listing activity from the properties module
// into the payments module's subscription usage counters.
type SubscriptionUsageRecorder struct {
	Payments *paymentsvc.Service
}

func (r *SubscriptionUsageRecorder) RecordListing(ctx context.Context, agentID uuid.UUID) {
	r.Payments.RecordListing(ctx, agentID)
}

func (r *SubscriptionUsageRecorder) RecordFeatured(ctx context.Context, agentID uuid.UUID) {
	r.Payments.RecordFeatured(ctx, agentID)
}

var _ propsvc.UsageRecorder = (*SubscriptionUsageRecorder)(nil)
