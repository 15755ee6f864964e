package analytics

import (
	"context"

	"kejani_backend/internal/analytics/repository"
	"kejani_backend/internal/analytics/service"
	"kejani_backend/internal/events"
)

// subscriber captures tracking events as they flow through the bus. Every
// handler is best-effort; the service swallows persistence failures.
type subscriber struct {
	service *service.Service
}

func (s *subscriber) register(bus events.Bus) {
	bus.Subscribe(events.PropertyViewed{}.EventName(), s)
	bus.Subscribe(events.PropertySearched{}.EventName(), s)
	bus.Subscribe(events.LeadStatusChanged{}.EventName(), s)
}

func (s *subscriber) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.PropertyViewed:
		s.service.RecordView(ctx, repository.RecordViewParams{
			PropertyID: e.PropertyID,
			UserID:     e.UserID,
			IPAddress:  e.IPAddress,
			UserAgent:  e.UserAgent,
		})
	case events.PropertySearched:
		s.service.RecordSearch(ctx, repository.RecordSearchParams{
			Query:        e.Query,
			Filters:      e.Filters,
			ResultsCount: e.ResultsCount,
			UserID:       e.UserID,
			IPAddress:    e.IPAddress,
		})
	case events.LeadStatusChanged:
		if e.NewStatus == "closed_won" {
			s.service.RecordConversion(ctx, e.LeadID)
		}
	}
	return nil
}
