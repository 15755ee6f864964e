package analytics

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"

	"kejani_backend/internal/analytics/repository"
	"kejani_backend/internal/analytics/service"
	"kejani_backend/internal/events"
	"kejani_backend/platform/logger"
)

type trackingRepo struct {
	mu          sync.Mutex
	views       []repository.RecordViewParams
	searches    []repository.RecordSearchParams
	conversions []uuid.UUID
}

func (f *trackingRepo) RecordView(ctx context.Context, p repository.RecordViewParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.views = append(f.views, p)
	return nil
}

func (f *trackingRepo) RecordSearch(ctx context.Context, p repository.RecordSearchParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, p)
	return nil
}

func (f *trackingRepo) RecordConversion(ctx context.Context, leadID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.conversions = append(f.conversions, leadID)
	return nil
}

func (f *trackingRepo) AgentPropertyCounts(ctx context.Context, agentID uuid.UUID) (int64, int64, int64, error) {
	return 0, 0, 0, nil
}

func (f *trackingRepo) AgentLeadCounts(ctx context.Context, agentID uuid.UUID) (int64, int64, int64, error) {
	return 0, 0, 0, nil
}

func (f *trackingRepo) AgentBookingCounts(ctx context.Context, agentID uuid.UUID) (int64, int64, error) {
	return 0, 0, nil
}

func (f *trackingRepo) PlatformUserCounts(ctx context.Context) (int64, int64, int64, error) {
	return 0, 0, 0, nil
}

func (f *trackingRepo) PlatformActivityCounts(ctx context.Context) (int64, int64, int64, int64, int64, error) {
	return 0, 0, 0, 0, 0, nil
}

func (f *trackingRepo) ClientActivityCounts(ctx context.Context, userID uuid.UUID) (int64, int64, int64, int64, error) {
	return 0, 0, 0, 0, nil
}

func (f *trackingRepo) PropertyViewSeries(ctx context.Context, propertyID uuid.UUID, days int) ([]repository.DailyViews, error) {
	return nil, nil
}

func (f *trackingRepo) PropertyViewCounts(ctx context.Context, propertyID uuid.UUID, days int) (int64, int64, error) {
	return 0, 0, nil
}

func (f *trackingRepo) PropertyLeadCounts(ctx context.Context, propertyID uuid.UUID) (int64, int64, error) {
	return 0, 0, nil
}

func (f *trackingRepo) PropertyAgentID(ctx context.Context, propertyID uuid.UUID) (uuid.UUID, error) {
	return uuid.Nil, repository.ErrNotFound
}

func newSubscriber(repo *trackingRepo) *subscriber {
	return &subscriber{service: service.New(repo, logger.New("test"))}
}

func TestViewAndSearchEventsAreRecorded(t *testing.T) {
	repo := &trackingRepo{}
	sub := newSubscriber(repo)
	ctx := context.Background()

	propertyID := uuid.New()
	if err := sub.Handle(ctx, events.PropertyViewed{PropertyID: propertyID, IPAddress: "41.90.1.1"}); err != nil {
		t.Fatalf("Handle(PropertyViewed): %v", err)
	}
	if err := sub.Handle(ctx, events.PropertySearched{Query: "kilimani 2br", ResultsCount: 14}); err != nil {
		t.Fatalf("Handle(PropertySearched): %v", err)
	}

	if len(repo.views) != 1 || repo.views[0].PropertyID != propertyID {
		t.Errorf("views = %+v, want one for %s", repo.views, propertyID)
	}
	if len(repo.searches) != 1 || repo.searches[0].Query != "kilimani 2br" {
		t.Errorf("searches = %+v", repo.searches)
	}
}

func TestOnlyWonLeadsConvert(t *testing.T) {
	repo := &trackingRepo{}
	sub := newSubscriber(repo)
	ctx := context.Background()

	leadID := uuid.New()
	for _, status := range []string{"contacted", "qualified", "closed_lost"} {
		if err := sub.Handle(ctx, events.LeadStatusChanged{LeadID: leadID, NewStatus: status}); err != nil {
			t.Fatalf("Handle(%s): %v", status, err)
		}
	}
	if len(repo.conversions) != 0 {
		t.Fatalf("expected no conversions before closed_won, got %d", len(repo.conversions))
	}

	if err := sub.Handle(ctx, events.LeadStatusChanged{LeadID: leadID, NewStatus: "closed_won"}); err != nil {
		t.Fatalf("Handle(closed_won): %v", err)
	}
	if len(repo.conversions) != 1 || repo.conversions[0] != leadID {
		t.Fatalf("conversions = %v, want [%s]", repo.conversions, leadID)
	}
}
