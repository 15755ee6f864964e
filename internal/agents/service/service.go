package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"kejani_backend/internal/agents/repository"
	"kejani_backend/internal/agents/transport"
	"kejani_backend/platform/apperr"
	"kejani_backend/platform/logger"
	"kejani_backend/platform/phone"
	"kejani_backend/platform/sanitize"
)

// ProfileRepository is the persistence surface this service consumes.
type ProfileRepository interface {
	Create(ctx context.Context, params repository.CreateProfileParams) (repository.Profile, error)
	GetByID(ctx context.Context, id uuid.UUID) (repository.Profile, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (repository.Profile, error)
	GetBySlug(ctx context.Context, slug string) (repository.Profile, error)
	UpdateByUserID(ctx context.Context, userID uuid.UUID, params repository.UpdateProfileParams) (repository.Profile, error)
	List(ctx context.Context, params repository.ListParams) ([]repository.Profile, int, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	CreateReview(ctx context.Context, params repository.CreateReviewParams) (repository.Review, error)
	ListReviews(ctx context.Context, profileID uuid.UUID) ([]repository.Review, error)
}

type Service struct {
	repo   ProfileRepository
	logger *logger.Logger
}

func New(repo ProfileRepository, log *logger.Logger) *Service {
	return &Service{repo: repo, logger: log}
}

// CreateProfile sets up the agent's public listing page. The profile starts
// unverified regardless of the user account's flag; vetting runs as its own
// management step and nothing here touches the user record.
func (s *Service) CreateProfile(ctx context.Context, userID uuid.UUID, req transport.CreateProfileRequest) (transport.ProfileResponse, error) {
	slug, err := s.uniqueSlug(ctx, req.AgencyName)
	if err != nil {
		return transport.ProfileResponse{}, apperr.Internal("failed to generate slug", err)
	}

	profile, err := s.repo.Create(ctx, repository.CreateProfileParams{
		UserID:          userID,
		Slug:            slug,
		AgencyName:      sanitize.Text(req.AgencyName),
		Bio:             sanitize.Text(req.Bio),
		LicenseNumber:   sanitize.Text(req.LicenseNumber),
		ExperienceYears: req.ExperienceYears,
		OfficeAddress:   sanitize.Text(req.OfficeAddress),
		Website:         req.Website,
		WhatsAppNumber:  phone.NormalizeE164(req.WhatsAppNumber),
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return transport.ProfileResponse{}, apperr.Conflict("agent profile already exists")
		}
		return transport.ProfileResponse{}, apperr.Internal("failed to create agent profile", err)
	}

	return toProfileResponse(profile), nil
}

func (s *Service) GetMyProfile(ctx context.Context, userID uuid.UUID) (transport.ProfileResponse, error) {
	profile, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.ProfileResponse{}, apperr.NotFound("agent profile not found")
		}
		return transport.ProfileResponse{}, apperr.Internal("failed to load agent profile", err)
	}
	return toProfileResponse(profile), nil
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (transport.ProfileResponse, error) {
	profile, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.ProfileResponse{}, apperr.NotFound("agent not found")
		}
		return transport.ProfileResponse{}, apperr.Internal("failed to load agent", err)
	}
	return toProfileResponse(profile), nil
}

func (s *Service) UpdateMyProfile(ctx context.Context, userID uuid.UUID, req transport.UpdateProfileRequest) (transport.ProfileResponse, error) {
	params := repository.UpdateProfileParams{
		ExperienceYears: req.ExperienceYears,
		Website:         req.Website,
	}
	if req.AgencyName != nil {
		clean := sanitize.Text(*req.AgencyName)
		params.AgencyName = &clean
	}
	if req.Bio != nil {
		clean := sanitize.Text(*req.Bio)
		params.Bio = &clean
	}
	if req.LicenseNumber != nil {
		clean := sanitize.Text(*req.LicenseNumber)
		params.LicenseNumber = &clean
	}
	if req.OfficeAddress != nil {
		clean := sanitize.Text(*req.OfficeAddress)
		params.OfficeAddress = &clean
	}
	if req.WhatsAppNumber != nil {
		normalized := phone.NormalizeE164(*req.WhatsAppNumber)
		params.WhatsAppNumber = &normalized
	}

	profile, err := s.repo.UpdateByUserID(ctx, userID, params)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.ProfileResponse{}, apperr.NotFound("agent profile not found")
		}
		return transport.ProfileResponse{}, apperr.Internal("failed to update agent profile", err)
	}
	return toProfileResponse(profile), nil
}

func (s *Service) List(ctx context.Context, query transport.ListAgentsQuery) (transport.ProfileListResponse, error) {
	page := query.Page
	if page < 1 {
		page = 1
	}
	pageSize := query.PageSize
	if pageSize < 1 {
		pageSize = 50
	}

	profiles, total, err := s.repo.List(ctx, repository.ListParams{
		VerifiedOnly: query.Verified,
		Search:       query.Search,
		Limit:        pageSize,
		Offset:       (page - 1) * pageSize,
	})
	if err != nil {
		return transport.ProfileListResponse{}, apperr.Internal("failed to list agents", err)
	}

	agents := make([]transport.ProfileResponse, 0, len(profiles))
	for _, profile := range profiles {
		agents = append(agents, toProfileResponse(profile))
	}
	return transport.ProfileListResponse{Agents: agents, Total: total, Page: page, PageSize: pageSize}, nil
}

func (s *Service) AddReview(ctx context.Context, profileID, reviewerID uuid.UUID, req transport.CreateReviewRequest) (transport.ReviewResponse, error) {
	profile, err := s.repo.GetByID(ctx, profileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.ReviewResponse{}, apperr.NotFound("agent not found")
		}
		return transport.ReviewResponse{}, apperr.Internal("failed to load agent", err)
	}
	if profile.UserID == reviewerID {
		return transport.ReviewResponse{}, apperr.Forbidden("agents cannot review themselves")
	}

	review, err := s.repo.CreateReview(ctx, repository.CreateReviewParams{
		ProfileID:  profileID,
		ReviewerID: reviewerID,
		Rating:     req.Rating,
		Comment:    sanitize.Text(req.Comment),
	})
	if err != nil {
		return transport.ReviewResponse{}, apperr.Internal("failed to save review", err)
	}

	return transport.ReviewResponse{
		ID:         review.ID,
		ProfileID:  review.ProfileID,
		ReviewerID: review.ReviewerID,
		Rating:     review.Rating,
		Comment:    review.Comment,
		CreatedAt:  review.CreatedAt,
	}, nil
}

func (s *Service) ListReviews(ctx context.Context, profileID uuid.UUID) ([]transport.ReviewResponse, error) {
	reviews, err := s.repo.ListReviews(ctx, profileID)
	if err != nil {
		return nil, apperr.Internal("failed to list reviews", err)
	}
	out := make([]transport.ReviewResponse, 0, len(reviews))
	for _, review := range reviews {
		out = append(out, transport.ReviewResponse{
			ID:         review.ID,
			ProfileID:  review.ProfileID,
			ReviewerID: review.ReviewerID,
			Rating:     review.Rating,
			Comment:    review.Comment,
			CreatedAt:  review.CreatedAt,
		})
	}
	return out, nil
}

// uniqueSlug derives a slug from the agency name, appending a numeric suffix
// until it is free.
func (s *Service) uniqueSlug(ctx context.Context, name string) (string, error) {
	base := repository.Slugify(name)
	if base == "" {
		base = "agent"
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

func toProfileResponse(profile repository.Profile) transport.ProfileResponse {
	return transport.ProfileResponse{
		ID:              profile.ID,
		UserID:          profile.UserID,
		Slug:            profile.Slug,
		AgencyName:      profile.AgencyName,
		Bio:             profile.Bio,
		LicenseNumber:   profile.LicenseNumber,
		ExperienceYears: profile.ExperienceYears,
		OfficeAddress:   profile.OfficeAddress,
		Website:         profile.Website,
		WhatsAppNumber:  profile.WhatsAppNumber,
		IsVerified:      profile.IsVerified,
		Rating:          profile.Rating,
		ReviewCount:     profile.ReviewCount,
		CreatedAt:       profile.CreatedAt,
	}
}
