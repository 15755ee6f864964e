package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"kejani_backend/internal/auth/repository"
	"kejani_backend/internal/auth/token"
	"kejani_backend/internal/auth/transport"
	"kejani_backend/internal/events"
	"kejani_backend/platform/apperr"
	"kejani_backend/platform/logger"
	"kejani_backend/platform/phone"
)

// UserRepository is the persistence surface this service consumes.
type UserRepository interface {
	Create(ctx context.Context, params repository.CreateUserParams) (repository.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (repository.User, error)
	GetByEmail(ctx context.Context, email string) (repository.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, params repository.UpdateProfileParams) (repository.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	TouchLastLogin(ctx context.Context, id uuid.UUID) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	List(ctx context.Context, params repository.ListUsersParams) ([]repository.User, int, error)
}

type Service struct {
	repo     UserRepository
	tokens   *token.Issuer
	eventBus events.Bus
	logger   *logger.Logger
}

func New(repo UserRepository, tokens *token.Issuer, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, tokens: tokens, eventBus: bus, logger: log}
}

func (s *Service) Register(ctx context.Context, req transport.RegisterRequest) (transport.AuthResponse, error) {
	userType := req.UserType
	if userType == "" {
		userType = "client"
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return transport.AuthResponse{}, apperr.Internal("failed to hash password", err)
	}

	user, err := s.repo.Create(ctx, repository.CreateUserParams{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        phone.NormalizeE164(req.Phone),
		UserType:     userType,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return transport.AuthResponse{}, apperr.Conflict("email or username already taken")
		}
		return transport.AuthResponse{}, apperr.Internal("failed to create user", err)
	}

	s.logger.AuthEvent("register", user.Email, true, "")
	s.eventBus.Publish(ctx, events.UserRegistered{
		BaseEvent: events.NewBaseEvent(),
		UserID:    user.ID,
		Email:     user.Email,
		Username:  user.Username,
		Phone:     user.Phone,
		UserType:  user.UserType,
	})

	pair, err := s.tokens.IssuePair(user.ID, user.UserType)
	if err != nil {
		return transport.AuthResponse{}, apperr.Internal("failed to issue tokens", err)
	}

	return transport.AuthResponse{
		User:         toUserResponse(user),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	}, nil
}

func (s *Service) Login(ctx context.Context, req transport.LoginRequest) (transport.AuthResponse, error) {
	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.AuthEvent("login", req.Email, false, "unknown email")
			return transport.AuthResponse{}, apperr.Unauthorized("invalid credentials")
		}
		return transport.AuthResponse{}, apperr.Internal("failed to load user", err)
	}

	if !user.IsActive {
		s.logger.AuthEvent("login", req.Email, false, "account disabled")
		return transport.AuthResponse{}, apperr.Forbidden("account is disabled")
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		s.logger.AuthEvent("login", req.Email, false, "bad password")
		return transport.AuthResponse{}, apperr.Unauthorized("invalid credentials")
	}

	if err := s.repo.TouchLastLogin(ctx, user.ID); err != nil {
		s.logger.DatabaseError("touch last login", err)
	}

	pair, err := s.tokens.IssuePair(user.ID, user.UserType)
	if err != nil {
		return transport.AuthResponse{}, apperr.Internal("failed to issue tokens", err)
	}

	s.logger.AuthEvent("login", user.Email, true, "")
	return transport.AuthResponse{
		User:         toUserResponse(user),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	}, nil
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (transport.TokenResponse, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return transport.TokenResponse{}, apperr.Unauthorized("invalid refresh token")
	}

	user, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		return transport.TokenResponse{}, apperr.Unauthorized("invalid refresh token")
	}
	if !user.IsActive {
		return transport.TokenResponse{}, apperr.Forbidden("account is disabled")
	}

	pair, err := s.tokens.IssuePair(user.ID, user.UserType)
	if err != nil {
		return transport.TokenResponse{}, apperr.Internal("failed to issue tokens", err)
	}

	return transport.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	}, nil
}

func (s *Service) Me(ctx context.Context, userID uuid.UUID) (transport.UserResponse, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.UserResponse{}, apperr.NotFound("user not found")
		}
		return transport.UserResponse{}, apperr.Internal("failed to load user", err)
	}
	return toUserResponse(user), nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, req transport.UpdateProfileRequest) (transport.UserResponse, error) {
	params := repository.UpdateProfileParams{
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}
	if req.Phone != nil {
		normalized := phone.NormalizeE164(*req.Phone)
		params.Phone = &normalized
	}

	user, err := s.repo.UpdateProfile(ctx, userID, params)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.UserResponse{}, apperr.NotFound("user not found")
		}
		return transport.UserResponse{}, apperr.Internal("failed to update profile", err)
	}
	return toUserResponse(user), nil
}

func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, req transport.ChangePasswordRequest) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("user not found")
		}
		return apperr.Internal("failed to load user", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)) != nil {
		return apperr.Unauthorized("current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperr.Internal("failed to hash password", err)
	}

	if err := s.repo.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return apperr.Internal("failed to update password", err)
	}
	return nil
}

func (s *Service) ListUsers(ctx context.Context, query transport.ListUsersQuery) (transport.UserListResponse, error) {
	page := query.Page
	if page < 1 {
		page = 1
	}
	pageSize := query.PageSize
	if pageSize < 1 {
		pageSize = 50
	}

	params := repository.ListUsersParams{
		Search: query.Search,
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	}
	if query.UserType != "" {
		params.UserType = &query.UserType
	}

	users, total, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.UserListResponse{}, apperr.Internal("failed to list users", err)
	}

	out := make([]transport.UserResponse, 0, len(users))
	for _, user := range users {
		out = append(out, toUserResponse(user))
	}
	return transport.UserListResponse{Users: out, Total: total, Page: page, PageSize: pageSize}, nil
}

func (s *Service) SetActive(ctx context.Context, userID uuid.UUID, active bool) error {
	if err := s.repo.SetActive(ctx, userID, active); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("user not found")
		}
		return apperr.Internal("failed to update user", err)
	}
	return nil
}

func toUserResponse(user repository.User) transport.UserResponse {
	return transport.UserResponse{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Phone:       user.Phone,
		UserType:    user.UserType,
		IsVerified:  user.IsVerified,
		IsActive:    user.IsActive,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
	}
}
