package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"kejani_backend/internal/events"
	"kejani_backend/internal/properties/repository"
	"kejani_backend/internal/properties/transport"
	"kejani_backend/platform/apperr"
	"kejani_backend/platform/logger"
	"kejani_backend/platform/sanitize"
)

// PropertyRepository is the persistence surface this service consumes.
type PropertyRepository interface {
	Create(ctx context.Context, params repository.CreatePropertyParams) (repository.Property, error)
	GetByID(ctx context.Context, id uuid.UUID) (repository.Property, error)
	GetBySlug(ctx context.Context, slug string) (repository.Property, error)
	Update(ctx context.Context, id uuid.UUID, params repository.UpdatePropertyParams) (repository.Property, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params repository.ListParams) ([]repository.Property, int, error)
	IncrementViewCount(ctx context.Context, id uuid.UUID) error
	SlugExists(ctx context.Context, slug string) (bool, error)
	CreateLocation(ctx context.Context, name, county string) (repository.Location, error)
	ListLocations(ctx context.Context) ([]repository.Location, error)
	SaveProperty(ctx context.Context, userID, propertyID uuid.UUID) error
	UnsaveProperty(ctx context.Context, userID, propertyID uuid.UUID) error
	ListSaved(ctx context.Context, userID uuid.UUID) ([]repository.Property, error)
}

// UsageRecorder tracks listing activity against the agent's subscription.
// A nil recorder disables quota accounting.
type UsageRecorder interface {
	RecordListing(ctx context.Context, agentID uuid.UUID)
	RecordFeatured(ctx context.Context, agentID uuid.UUID)
}

type Service struct {
	repo     PropertyRepository
	usage    UsageRecorder
	eventBus events.Bus
	logger   *logger.Logger
}

func New(repo PropertyRepository, usage UsageRecorder, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, usage: usage, eventBus: bus, logger: log}
}

func (s *Service) Create(ctx context.Context, agentID uuid.UUID, req transport.CreatePropertyRequest) (transport.PropertyResponse, error) {
	slug, err := s.uniqueSlug(ctx, req.Title)
	if err != nil {
		return transport.PropertyResponse{}, apperr.Internal("failed to generate slug", err)
	}

	property, err := s.repo.Create(ctx, repository.CreatePropertyParams{
		AgentID:      agentID,
		LocationID:   req.LocationID,
		Title:        sanitize.Text(req.Title),
		Slug:         slug,
		Description:  sanitize.Text(req.Description),
		PropertyType: req.PropertyType,
		ListingType:  req.ListingType,
		PriceCents:   req.PriceCents,
		Bedrooms:     req.Bedrooms,
		Bathrooms:    req.Bathrooms,
		AreaSqm:      req.AreaSqm,
		Address:      sanitize.Text(req.Address),
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		Amenities:    req.Amenities,
		ImageURLs:    req.ImageURLs,
	})
	if err != nil {
		return transport.PropertyResponse{}, apperr.Internal("failed to create property", err)
	}

	if s.usage != nil {
		s.usage.RecordListing(ctx, agentID)
	}
	return toPropertyResponse(property), nil
}

// GetBySlug serves a property detail page. Each hit bumps the view counter
// and emits a PropertyViewed event; neither can fail the read.
func (s *Service) GetBySlug(ctx context.Context, slug string, viewerID *uuid.UUID, ip, userAgent string) (transport.PropertyResponse, error) {
	property, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.PropertyResponse{}, apperr.NotFound("property not found")
		}
		return transport.PropertyResponse{}, apperr.Internal("failed to load property", err)
	}

	if err := s.repo.IncrementViewCount(ctx, property.ID); err != nil {
		s.logger.DatabaseError("increment view count", err)
	}
	s.eventBus.Publish(ctx, events.PropertyViewed{
		BaseEvent:  events.NewBaseEvent(),
		PropertyID: property.ID,
		UserID:     viewerID,
		IPAddress:  ip,
		UserAgent:  userAgent,
	})

	property.ViewCount++
	return toPropertyResponse(property), nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.PropertyResponse, error) {
	property, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.PropertyResponse{}, apperr.NotFound("property not found")
		}
		return transport.PropertyResponse{}, apperr.Internal("failed to load property", err)
	}
	return toPropertyResponse(property), nil
}

// Update lets the owning agent edit the listing. Management can edit any
// listing and is the only role that can flip the featured flag.
func (s *Service) Update(ctx context.Context, id, actorID uuid.UUID, isManagement bool, req transport.UpdatePropertyRequest) (transport.PropertyResponse, error) {
	property, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.PropertyResponse{}, apperr.NotFound("property not found")
		}
		return transport.PropertyResponse{}, apperr.Internal("failed to load property", err)
	}
	if property.AgentID != actorID && !isManagement {
		return transport.PropertyResponse{}, apperr.Forbidden("not your listing")
	}
	if req.IsFeatured != nil && !isManagement {
		return transport.PropertyResponse{}, apperr.Forbidden("only management can feature listings")
	}

	params := repository.UpdatePropertyParams{
		PropertyType: req.PropertyType,
		ListingType:  req.ListingType,
		Status:       req.Status,
		PriceCents:   req.PriceCents,
		Bedrooms:     req.Bedrooms,
		Bathrooms:    req.Bathrooms,
		AreaSqm:      req.AreaSqm,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		Amenities:    req.Amenities,
		ImageURLs:    req.ImageURLs,
		IsFeatured:   req.IsFeatured,
	}
	if req.LocationID != nil {
		params.LocationID = req.LocationID
		params.LocationIDSet = true
	}
	if req.Title != nil {
		clean := sanitize.Text(*req.Title)
		params.Title = &clean
	}
	if req.Description != nil {
		clean := sanitize.Text(*req.Description)
		params.Description = &clean
	}
	if req.Address != nil {
		clean := sanitize.Text(*req.Address)
		params.Address = &clean
	}

	updated, err := s.repo.Update(ctx, id, params)
	if err != nil {
		return transport.PropertyResponse{}, apperr.Internal("failed to update property", err)
	}

	if s.usage != nil && req.IsFeatured != nil && *req.IsFeatured && !property.IsFeatured {
		s.usage.RecordFeatured(ctx, updated.AgentID)
	}
	return toPropertyResponse(updated), nil
}

func (s *Service) Delete(ctx context.Context, id, actorID uuid.UUID, isManagement bool) error {
	property, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("property not found")
		}
		return apperr.Internal("failed to load property", err)
	}
	if property.AgentID != actorID && !isManagement {
		return apperr.Forbidden("not your listing")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return apperr.Internal("failed to delete property", err)
	}
	return nil
}

// List serves the public listing search. When the caller supplied a search
// term or filters, a PropertySearched event records the query for analytics.
func (s *Service) List(ctx context.Context, query transport.ListPropertiesQuery, viewerID *uuid.UUID, ip string) (transport.PropertyListResponse, error) {
	page := query.Page
	if page < 1 {
		page = 1
	}
	pageSize := query.PageSize
	if pageSize < 1 {
		pageSize = 24
	}

	params := repository.ListParams{
		MinPrice:    query.MinPrice,
		MaxPrice:    query.MaxPrice,
		MinBedrooms: query.MinBedrooms,
		Featured:    query.Featured,
		Search:      query.Search,
		Sort:        query.Sort,
		Limit:       pageSize,
		Offset:      (page - 1) * pageSize,
	}
	if query.LocationID != "" {
		locationID, _ := uuid.Parse(query.LocationID)
		params.LocationID = &locationID
	}
	if query.AgentID != "" {
		agentID, _ := uuid.Parse(query.AgentID)
		params.AgentID = &agentID
	}
	if query.PropertyType != "" {
		params.PropertyType = &query.PropertyType
	}
	if query.ListingType != "" {
		params.ListingType = &query.ListingType
	}
	if query.Status != "" {
		params.Status = &query.Status
	}

	properties, total, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.PropertyListResponse{}, apperr.Internal("failed to list properties", err)
	}

	if filters := searchFilters(query); query.Search != "" || len(filters) > 0 {
		s.eventBus.Publish(ctx, events.PropertySearched{
			Query:        query.Search,
			Filters:      filters,
			ResultsCount: total,
			UserID:       viewerID,
			IPAddress:    ip,
		})
	}

	out := make([]transport.PropertyResponse, 0, len(properties))
	for _, property := range properties {
		out = append(out, toPropertyResponse(property))
	}
	return transport.PropertyListResponse{Properties: out, Total: total, Page: page, PageSize: pageSize}, nil
}

func searchFilters(query transport.ListPropertiesQuery) map[string]string {
	filters := make(map[string]string)
	if query.LocationID != "" {
		filters["location_id"] = query.LocationID
	}
	if query.PropertyType != "" {
		filters["property_type"] = query.PropertyType
	}
	if query.ListingType != "" {
		filters["listing_type"] = query.ListingType
	}
	if query.MinPrice != nil {
		filters["min_price"] = strconv.FormatInt(*query.MinPrice, 10)
	}
	if query.MaxPrice != nil {
		filters["max_price"] = strconv.FormatInt(*query.MaxPrice, 10)
	}
	if query.MinBedrooms != nil {
		filters["min_bedrooms"] = strconv.Itoa(*query.MinBedrooms)
	}
	if len(filters) == 0 {
		return nil
	}
	return filters
}

func (s *Service) CreateLocation(ctx context.Context, req transport.CreateLocationRequest) (transport.LocationResponse, error) {
	location, err := s.repo.CreateLocation(ctx, sanitize.Text(req.Name), sanitize.Text(req.County))
	if err != nil {
		return transport.LocationResponse{}, apperr.Internal("failed to create location", err)
	}
	return transport.LocationResponse{ID: location.ID, Name: location.Name, County: location.County, Slug: location.Slug}, nil
}

func (s *Service) ListLocations(ctx context.Context) ([]transport.LocationResponse, error) {
	locations, err := s.repo.ListLocations(ctx)
	if err != nil {
		return nil, apperr.Internal("failed to list locations", err)
	}
	out := make([]transport.LocationResponse, 0, len(locations))
	for _, location := range locations {
		out = append(out, transport.LocationResponse{ID: location.ID, Name: location.Name, County: location.County, Slug: location.Slug})
	}
	return out, nil
}

func (s *Service) Save(ctx context.Context, userID, propertyID uuid.UUID) error {
	err := s.repo.SaveProperty(ctx, userID, propertyID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrAlreadySaved):
		return nil // saving twice is fine
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound("property not found")
	default:
		return apperr.Internal("failed to save property", err)
	}
}

func (s *Service) Unsave(ctx context.Context, userID, propertyID uuid.UUID) error {
	err := s.repo.UnsaveProperty(ctx, userID, propertyID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("property not saved")
	}
	if err != nil {
		return apperr.Internal("failed to unsave property", err)
	}
	return nil
}

func (s *Service) ListSaved(ctx context.Context, userID uuid.UUID) ([]transport.PropertyResponse, error) {
	properties, err := s.repo.ListSaved(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("failed to list saved properties", err)
	}
	out := make([]transport.PropertyResponse, 0, len(properties))
	for _, property := range properties {
		out = append(out, toPropertyResponse(property))
	}
	return out, nil
}

func (s *Service) uniqueSlug(ctx context.Context, title string) (string, error) {
	base := repository.Slugify(title)
	if base == "" {
		base = "listing"
	}

	slug := base
	for i := 2; ; i++ {
		taken, err := s.repo.SlugExists(ctx, slug)
		if err != nil {
			return "", err
		}
		if !taken {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

func toPropertyResponse(p repository.Property) transport.PropertyResponse {
	return transport.PropertyResponse{
		ID:           p.ID,
		AgentID:      p.AgentID,
		LocationID:   p.LocationID,
		Title:        p.Title,
		Slug:         p.Slug,
		Description:  p.Description,
		PropertyType: p.PropertyType,
		ListingType:  p.ListingType,
		Status:       p.Status,
		PriceCents:   p.PriceCents,
		Currency:     p.Currency,
		Bedrooms:     p.Bedrooms,
		Bathrooms:    p.Bathrooms,
		AreaSqm:      p.AreaSqm,
		Address:      p.Address,
		Latitude:     p.Latitude,
		Longitude:    p.Longitude,
		Amenities:    p.Amenities,
		ImageURLs:    p.ImageURLs,
		IsFeatured:   p.IsFeatured,
		ViewCount:    p.ViewCount,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}
