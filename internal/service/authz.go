package service

import (
	"context"
	"errors"
	"fmt"

	"inventory/internal/domain"
	"inventory/internal/metrics"
	"inventory/internal/repository"
)

// Authorizer решает, может ли пользователь выполнить действие над ресурсом.
// Админ проходит без обращения к хранилищу; для остальных отсутствие строки означает запрет.
type Authorizer struct {
	perms   repository.PermissionRepository
	metrics *metrics.Metrics
}

func NewAuthorizer(perms repository.PermissionRepository, m *metrics.Metrics) *Authorizer {
	return &Authorizer{perms: perms, metrics: m}
}

func (a *Authorizer) Authorize(ctx context.Context, user *domain.User, resource domain.Resource, action domain.Action) (bool, error) {
	if user == nil {
		return false, nil
	}
	if user.IsAdmin {
		a.metrics.AuthzDecision(string(resource), string(action), true)
		return true, nil
	}
	allowed := false
	p, err := a.perms.Get(ctx, user.ID, resource)
	switch {
	case errors.Is(err, repository.ErrNotFound):
	case err != nil:
		return false, fmt.Errorf("failed to load permission: %w", err)
	default:
		allowed = p.Allows(action)
	}
	a.metrics.AuthzDecision(string(resource), string(action), allowed)
	return allowed, nil
}

// Require is Authorize that reports denial as ErrForbidden.
func (a *Authorizer) Require(ctx context.Context, user *domain.User, resource domain.Resource, action domain.Action) error {
	ok, err := a.Authorize(ctx, user, resource, action)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: you do not have permission to %s %s", ErrForbidden, action, resource)
	}
	return nil
}

func (a *Authorizer) RequireAdmin(user *domain.User) error {
	if user == nil || !user.IsAdmin {
		return fmt.Errorf("%w: admin access required", ErrForbidden)
	}
	return nil
}
