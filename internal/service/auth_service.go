package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"inventory/internal/auth"
	"inventory/internal/domain"
	"inventory/internal/logger"
	"inventory/internal/metrics"
	"inventory/internal/repository"
)

// RegisterInput данные регистрации
type RegisterInput struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
}

// LoginInput данные входа
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Session пользователь и выданный ему токен
type Session struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

type AuthService struct {
	users   repository.UserRepository
	perms   repository.PermissionRepository
	tokens  *auth.TokenManager
	metrics *metrics.Metrics
}

func NewAuthService(users repository.UserRepository, perms repository.PermissionRepository, tokens *auth.TokenManager, m *metrics.Metrics) *AuthService {
	return &AuthService{users: users, perms: perms, tokens: tokens, metrics: m}
}

// Register создаёт обычного активного пользователя без прав и сразу выдаёт токен.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	u := &domain.User{
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, conflict("user with this email already exists", err)
	}
	token, err := s.tokens.Generate(u.ID)
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("user registered", zap.String("user_id", u.ID.String()))
	return &Session{User: u, Token: token}, nil
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	u, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.AuthAttempt("login", false)
			return nil, fmt.Errorf("%w: invalid credentials", ErrUnauthenticated)
		}
		return nil, err
	}
	if !auth.CheckPasswordHash(in.Password, u.PasswordHash) {
		s.metrics.AuthAttempt("login", false)
		return nil, fmt.Errorf("%w: invalid credentials", ErrUnauthenticated)
	}
	if !u.IsActive {
		s.metrics.AuthAttempt("login", false)
		return nil, fmt.Errorf("%w: account is inactive", ErrUnauthenticated)
	}
	token, err := s.tokens.Generate(u.ID)
	if err != nil {
		return nil, err
	}
	s.metrics.AuthAttempt("login", true)
	return &Session{User: u, Token: token}, nil
}

// Authenticate resolves a bearer token to an active user. Every failure is ErrUnauthenticated.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		s.metrics.AuthAttempt("token", false)
		return nil, fmt.Errorf("%w: invalid or expired token", ErrUnauthenticated)
	}
	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.AuthAttempt("token", false)
			return nil, fmt.Errorf("%w: user not found", ErrUnauthenticated)
		}
		return nil, err
	}
	if !u.IsActive {
		s.metrics.AuthAttempt("token", false)
		return nil, fmt.Errorf("%w: account is inactive", ErrUnauthenticated)
	}
	s.metrics.AuthAttempt("token", true)
	return u, nil
}

// Me возвращает профиль текущего пользователя вместе с его правами
func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound("user", err)
	}
	if u.Permissions, err = s.perms.ListByUser(ctx, userID); err != nil {
		return nil, err
	}
	return u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
