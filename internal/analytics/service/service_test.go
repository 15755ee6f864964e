package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"kejani_backend/internal/analytics/repository"
	"kejani_backend/platform/apperr"
	"kejani_backend/platform/logger"
)

type fakeRepo struct {
	mu          sync.Mutex
	views       []repository.RecordViewParams
	searches    []repository.RecordSearchParams
	conversions []uuid.UUID

	agentProperties map[uuid.UUID][3]int64
	agentLeads      map[uuid.UUID][3]int64
	agentBookings   map[uuid.UUID][2]int64

	propertyAgents map[uuid.UUID]uuid.UUID
	propertyViews  [2]int64
	propertyLeads  [2]int64
	viewSeries     []repository.DailyViews

	failViews bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		agentProperties: map[uuid.UUID][3]int64{},
		agentLeads:      map[uuid.UUID][3]int64{},
		agentBookings:   map[uuid.UUID][2]int64{},
		propertyAgents:  map[uuid.UUID]uuid.UUID{},
	}
}

func (f *fakeRepo) RecordView(ctx context.Context, params repository.RecordViewParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failViews {
		return errors.New("insert failed")
	}
	f.views = append(f.views, params)
	return nil
}

func (f *fakeRepo) RecordSearch(ctx context.Context, params repository.RecordSearchParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, params)
	return nil
}

func (f *fakeRepo) RecordConversion(ctx context.Context, leadID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.conversions = append(f.conversions, leadID)
	return nil
}

func (f *fakeRepo) AgentPropertyCounts(ctx context.Context, agentID uuid.UUID) (int64, int64, int64, error) {
	c := f.agentProperties[agentID]
	return c[0], c[1], c[2], nil
}

func (f *fakeRepo) AgentLeadCounts(ctx context.Context, agentID uuid.UUID) (int64, int64, int64, error) {
	c := f.agentLeads[agentID]
	return c[0], c[1], c[2], nil
}

func (f *fakeRepo) AgentBookingCounts(ctx context.Context, agentID uuid.UUID) (int64, int64, error) {
	c := f.agentBookings[agentID]
	return c[0], c[1], nil
}

func (f *fakeRepo) PlatformUserCounts(ctx context.Context) (int64, int64, int64, error) {
	return 100, 20, 15, nil
}

func (f *fakeRepo) PlatformActivityCounts(ctx context.Context) (int64, int64, int64, int64, int64, error) {
	return 50, 30, 500, 200, 40, nil
}

func (f *fakeRepo) ClientActivityCounts(ctx context.Context, userID uuid.UUID) (int64, int64, int64, int64, error) {
	return 12, 7, 3, 2, nil
}

func (f *fakeRepo) PropertyViewSeries(ctx context.Context, propertyID uuid.UUID, days int) ([]repository.DailyViews, error) {
	return f.viewSeries, nil
}

func (f *fakeRepo) PropertyViewCounts(ctx context.Context, propertyID uuid.UUID, days int) (int64, int64, error) {
	return f.propertyViews[0], f.propertyViews[1], nil
}

func (f *fakeRepo) PropertyLeadCounts(ctx context.Context, propertyID uuid.UUID) (int64, int64, error) {
	return f.propertyLeads[0], f.propertyLeads[1], nil
}

func (f *fakeRepo) PropertyAgentID(ctx context.Context, propertyID uuid.UUID) (uuid.UUID, error) {
	agentID, ok := f.propertyAgents[propertyID]
	if !ok {
		return uuid.Nil, repository.ErrNotFound
	}
	return agentID, nil
}

func newService(repo *fakeRepo) *Service {
	return New(repo, logger.New("test"))
}

func TestAgentDashboardAggregates(t *testing.T) {
	repo := newFakeRepo()
	agentID := uuid.New()
	repo.agentProperties[agentID] = [3]int64{10, 8, 340}
	repo.agentLeads[agentID] = [3]int64{25, 6, 4}
	repo.agentBookings[agentID] = [2]int64{3, 5}

	out, err := newService(repo).AgentDashboard(context.Background(), agentID)
	if err != nil {
		t.Fatalf("AgentDashboard: %v", err)
	}
	if out.TotalProperties != 10 || out.ActiveProperties != 8 || out.TotalViews != 340 {
		t.Errorf("unexpected property figures: %+v", out)
	}
	if out.TotalLeads != 25 || out.HotLeads != 6 || out.ConvertedLeads != 4 {
		t.Errorf("unexpected lead figures: %+v", out)
	}
	if out.PendingBookings != 3 || out.ConfirmedBookings != 5 {
		t.Errorf("unexpected booking figures: %+v", out)
	}
}

func TestPlatformDashboardAggregates(t *testing.T) {
	out, err := newService(newFakeRepo()).PlatformDashboard(context.Background())
	if err != nil {
		t.Fatalf("PlatformDashboard: %v", err)
	}
	if out.TotalUsers != 100 || out.TotalAgents != 20 || out.VerifiedAgents != 15 {
		t.Errorf("unexpected user figures: %+v", out)
	}
	if out.TotalSearches != 200 || out.TotalBookings != 40 {
		t.Errorf("unexpected activity figures: %+v", out)
	}
}

func TestPropertyAnalyticsOwnerOnly(t *testing.T) {
	repo := newFakeRepo()
	propertyID := uuid.New()
	owner := uuid.New()
	repo.propertyAgents[propertyID] = owner
	repo.propertyViews = [2]int64{120, 80}
	repo.propertyLeads = [2]int64{8, 2}

	svc := newService(repo)

	_, err := svc.PropertyAnalytics(context.Background(), propertyID, uuid.New(), false)
	if apperr.GetKind(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden for non-owner, got %v", err)
	}

	out, err := svc.PropertyAnalytics(context.Background(), propertyID, owner, false)
	if err != nil {
		t.Fatalf("PropertyAnalytics: %v", err)
	}
	if out.TotalViews != 120 || out.UniqueViewers != 80 {
		t.Errorf("unexpected view figures: %+v", out)
	}
	if out.ConversionRate != 0.25 {
		t.Errorf("conversion rate = %v, want 0.25", out.ConversionRate)
	}
}

func TestPropertyAnalyticsManagementBypassesOwnership(t *testing.T) {
	repo := newFakeRepo()
	propertyID := uuid.New()
	repo.propertyAgents[propertyID] = uuid.New()

	if _, err := newService(repo).PropertyAnalytics(context.Background(), propertyID, uuid.New(), true); err != nil {
		t.Fatalf("management access: %v", err)
	}
}

func TestPropertyAnalyticsUnknownProperty(t *testing.T) {
	_, err := newService(newFakeRepo()).PropertyAnalytics(context.Background(), uuid.New(), uuid.New(), true)
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRecordViewSwallowsErrors(t *testing.T) {
	repo := newFakeRepo()
	repo.failViews = true

	newService(repo).RecordView(context.Background(), repository.RecordViewParams{PropertyID: uuid.New()})

	if len(repo.views) != 0 {
		t.Fatalf("expected no recorded views, got %d", len(repo.views))
	}
}
