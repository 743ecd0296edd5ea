package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"inventory/internal/auth"
	"inventory/internal/domain"
	"inventory/internal/logger"
	"inventory/internal/repository"
)

// CreateUserInput создание пользователя администратором
type CreateUserInput struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	IsActive  *bool  `json:"isActive"`
	IsAdmin   bool   `json:"isAdmin"`
}

// UpdateUserInput nil pointer fields keep their stored value
type UpdateUserInput struct {
	Email     string  `json:"email" validate:"required,email"`
	FirstName string  `json:"firstName" validate:"required"`
	LastName  string  `json:"lastName" validate:"required"`
	Password  *string `json:"password" validate:"omitempty,min=6"`
	IsActive  *bool   `json:"isActive"`
	IsAdmin   *bool   `json:"isAdmin"`
}

type UserService struct {
	users repository.UserRepository
	perms repository.PermissionRepository
}

func NewUserService(users repository.UserRepository, perms repository.PermissionRepository) *UserService {
	return &UserService{users: users, perms: perms}
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Permissions, err = s.perms.ListByUser(ctx, users[i].ID); err != nil {
			return nil, err
		}
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFound("user", err)
	}
	if u.Permissions, err = s.perms.ListByUser(ctx, id); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*domain.User, error) {
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
		IsActive:     in.IsActive == nil || *in.IsActive,
		IsAdmin:      in.IsAdmin,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, conflict("user with this email already exists", err)
	}
	return u, nil
}

func (s *UserService) Update(ctx context.Context, id uuid.UUID, in UpdateUserInput) (*domain.User, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFound("user", err)
	}
	u.Email = in.Email
	u.FirstName = in.FirstName
	u.LastName = in.LastName
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}
	if in.IsAdmin != nil {
		u.IsAdmin = *in.IsAdmin
	}
	if in.Password != nil {
		if u.PasswordHash, err = auth.HashPassword(*in.Password); err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, conflict("user with this email already exists", notFound("user", err))
	}
	return u, nil
}

// Delete removes a user and its permissions. An admin cannot remove itself.
func (s *UserService) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	if actorID == id {
		return invalidField("id", ErrCannotDeleteSelf.Error())
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return notFound("user", err)
	}
	logger.FromContext(ctx).Info("user deleted",
		zap.String("user_id", id.String()),
		zap.String("by", actorID.String()),
	)
	return nil
}
