package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"kejani_backend/internal/analytics/repository"
	"kejani_backend/internal/analytics/transport"
	"kejani_backend/platform/apperr"
	"kejani_backend/platform/logger"
)

const propertyWindowDays = 30

// AnalyticsRepository is the persistence surface this service consumes.
type AnalyticsRepository interface {
	RecordView(ctx context.Context, params repository.RecordViewParams) error
	RecordSearch(ctx context.Context, params repository.RecordSearchParams) error
	RecordConversion(ctx context.Context, leadID uuid.UUID) error
	AgentPropertyCounts(ctx context.Context, agentID uuid.UUID) (total, active, views int64, err error)
	AgentLeadCounts(ctx context.Context, agentID uuid.UUID) (total, hot, converted int64, err error)
	AgentBookingCounts(ctx context.Context, agentID uuid.UUID) (pending, confirmed int64, err error)
	PlatformUserCounts(ctx context.Context) (users, agents, verified int64, err error)
	PlatformActivityCounts(ctx context.Context) (properties, leads, views, searches, bookings int64, err error)
	ClientActivityCounts(ctx context.Context, userID uuid.UUID) (views, searches, saved, bookings int64, err error)
	PropertyViewSeries(ctx context.Context, propertyID uuid.UUID, days int) ([]repository.DailyViews, error)
	PropertyViewCounts(ctx context.Context, propertyID uuid.UUID, days int) (total, unique int64, err error)
	PropertyLeadCounts(ctx context.Context, propertyID uuid.UUID) (total, converted int64, err error)
	PropertyAgentID(ctx context.Context, propertyID uuid.UUID) (uuid.UUID, error)
}

type Service struct {
	repo AnalyticsRepository
	log  *logger.Logger
}

func New(repo AnalyticsRepository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// RecordView persists a property page view. Tracking never surfaces errors to
// the caller.
func (s *Service) RecordView(ctx context.Context, params repository.RecordViewParams) {
	if err := s.repo.RecordView(ctx, params); err != nil {
		s.log.DatabaseError("analytics.record_view", err)
	}
}

// RecordSearch persists a listing search.
func (s *Service) RecordSearch(ctx context.Context, params repository.RecordSearchParams) {
	if err := s.repo.RecordSearch(ctx, params); err != nil {
		s.log.DatabaseError("analytics.record_search", err)
	}
}

// RecordConversion marks a lead as won.
func (s *Service) RecordConversion(ctx context.Context, leadID uuid.UUID) {
	if err := s.repo.RecordConversion(ctx, leadID); err != nil {
		s.log.DatabaseError("analytics.record_conversion", err)
	}
}

// AgentDashboard fans out the per-agent aggregates concurrently.
func (s *Service) AgentDashboard(ctx context.Context, agentID uuid.UUID) (transport.AgentDashboard, error) {
	var out transport.AgentDashboard

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		total, active, views, err := s.repo.AgentPropertyCounts(ctx, agentID)
		out.TotalProperties, out.ActiveProperties, out.TotalViews = total, active, views
		return err
	})
	g.Go(func() error {
		total, hot, converted, err := s.repo.AgentLeadCounts(ctx, agentID)
		out.TotalLeads, out.HotLeads, out.ConvertedLeads = total, hot, converted
		return err
	})
	g.Go(func() error {
		pending, confirmed, err := s.repo.AgentBookingCounts(ctx, agentID)
		out.PendingBookings, out.ConfirmedBookings = pending, confirmed
		return err
	})
	if err := g.Wait(); err != nil {
		return transport.AgentDashboard{}, apperr.Internal("failed to load agent dashboard", err)
	}
	return out, nil
}

// PlatformDashboard fans out the platform-wide aggregates concurrently.
func (s *Service) PlatformDashboard(ctx context.Context) (transport.PlatformDashboard, error) {
	var out transport.PlatformDashboard

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		users, agents, verified, err := s.repo.PlatformUserCounts(ctx)
		out.TotalUsers, out.TotalAgents, out.VerifiedAgents = users, agents, verified
		return err
	})
	g.Go(func() error {
		properties, leads, views, searches, bookings, err := s.repo.PlatformActivityCounts(ctx)
		out.TotalProperties, out.TotalLeads = properties, leads
		out.TotalViews, out.TotalSearches, out.TotalBookings = views, searches, bookings
		return err
	})
	if err := g.Wait(); err != nil {
		return transport.PlatformDashboard{}, apperr.Internal("failed to load platform dashboard", err)
	}
	return out, nil
}

func (s *Service) ClientDashboard(ctx context.Context, userID uuid.UUID) (transport.ClientDashboard, error) {
	views, searches, saved, bookings, err := s.repo.ClientActivityCounts(ctx, userID)
	if err != nil {
		return transport.ClientDashboard{}, apperr.Internal("failed to load client dashboard", err)
	}
	return transport.ClientDashboard{
		PropertiesViewed: views,
		SearchesMade:     searches,
		SavedProperties:  saved,
		Bookings:         bookings,
	}, nil
}

// PropertyAnalytics returns the trailing 30-day drill-down for one listing.
// Agents may only inspect their own listings; management sees all.
func (s *Service) PropertyAnalytics(ctx context.Context, propertyID, requesterID uuid.UUID, isManagement bool) (transport.PropertyAnalytics, error) {
	agentID, err := s.repo.PropertyAgentID(ctx, propertyID)
	if errors.Is(err, repository.ErrNotFound) {
		return transport.PropertyAnalytics{}, apperr.NotFound("property not found")
	}
	if err != nil {
		return transport.PropertyAnalytics{}, apperr.Internal("failed to resolve property", err)
	}
	if !isManagement && agentID != requesterID {
		return transport.PropertyAnalytics{}, apperr.Forbidden("you can only view analytics for your own properties")
	}

	out := transport.PropertyAnalytics{WindowDays: propertyWindowDays}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		total, unique, err := s.repo.PropertyViewCounts(ctx, propertyID, propertyWindowDays)
		out.TotalViews, out.UniqueViewers = total, unique
		return err
	})
	g.Go(func() error {
		total, converted, err := s.repo.PropertyLeadCounts(ctx, propertyID)
		out.TotalLeads, out.ConvertedLeads = total, converted
		return err
	})
	g.Go(func() error {
		series, err := s.repo.PropertyViewSeries(ctx, propertyID, propertyWindowDays)
		if err != nil {
			return err
		}
		out.DailyViews = make([]transport.DailyViewPoint, 0, len(series))
		for _, d := range series {
			out.DailyViews = append(out.DailyViews, transport.DailyViewPoint{Date: d.Date, Count: d.Count})
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return transport.PropertyAnalytics{}, apperr.Internal("failed to load property analytics", err)
	}

	if out.TotalLeads > 0 {
		out.ConversionRate = float64(out.ConvertedLeads) / float64(out.TotalLeads)
	}
	return out, nil
}
