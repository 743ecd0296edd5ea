package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"inventory/internal/domain"
	"inventory/internal/logger"
	"inventory/internal/repository"
)

// PermissionInput флаги для одного ресурса; отсутствующий флаг означает false
type PermissionInput struct {
	Resource  domain.Resource `json:"resource" validate:"required"`
	CanView   bool            `json:"canView"`
	CanCreate bool            `json:"canCreate"`
	CanUpdate bool            `json:"canUpdate"`
	CanDelete bool            `json:"canDelete"`
}

type PermissionService struct {
	users repository.UserRepository
	perms repository.PermissionRepository
	tx    repository.TxManager
}

func NewPermissionService(users repository.UserRepository, perms repository.PermissionRepository, tx repository.TxManager) *PermissionService {
	return &PermissionService{users: users, perms: perms, tx: tx}
}

func (s *PermissionService) GetPermissions(ctx context.Context, userID uuid.UUID) ([]domain.Permission, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, notFound("user", err)
	}
	return s.perms.ListByUser(ctx, userID)
}

// UpdatePermissions find-or-creates one row per entry and overwrites all four
// flags. Repeating the same payload yields the same state.
func (s *PermissionService) UpdatePermissions(ctx context.Context, userID uuid.UUID, inputs []PermissionInput) ([]domain.Permission, error) {
	var fields []FieldError
	for i, in := range inputs {
		if !in.Resource.Valid() {
			fields = append(fields, FieldError{
				Field:   fmt.Sprintf("permissions[%d].resource", i),
				Message: "must be one of: products, clients, orders, comments, users",
			})
		}
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	out := make([]domain.Permission, 0, len(inputs))
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.users.GetByID(ctx, userID); err != nil {
			return notFound("user", err)
		}
		for _, in := range inputs {
			p := domain.Permission{
				UserID:    userID,
				Resource:  in.Resource,
				CanView:   in.CanView,
				CanCreate: in.CanCreate,
				CanUpdate: in.CanUpdate,
				CanDelete: in.CanDelete,
			}
			if err := s.perms.Upsert(ctx, &p); err != nil {
				return err
			}
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("permissions updated",
		zap.String("user_id", userID.String()),
		zap.Int("entries", len(out)),
	)
	return out, nil
}
