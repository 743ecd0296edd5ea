package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"inventory/internal/domain"
)

// MemoryUsers UserRepository поверх MemoryStore
type MemoryUsers struct{ store *MemoryStore }

func NewMemoryUsers(store *MemoryStore) *MemoryUsers { return &MemoryUsers{store: store} }

var _ UserRepository = (*MemoryUsers)(nil)

func (us *MemoryUsers) emailTaken(email string, except uuid.UUID) bool {
	return lo.SomeBy(lo.Values(us.store.tables.users), func(u domain.User) bool {
		return strings.EqualFold(u.Email, email) && u.ID != except
	})
}

func (us *MemoryUsers) Create(ctx context.Context, u *domain.User) error {
	us.store.wlock(ctx)
	defer us.store.wunlock(ctx)
	if us.emailTaken(u.Email, uuid.Nil) {
		return ErrConflict
	}
	u.ID = uuid.New()
	u.CreatedAt = us.store.stamp()
	u.UpdatedAt = u.CreatedAt
	row := *u
	row.Permissions = nil
	us.store.tables.users[u.ID] = row
	return nil
}

func (us *MemoryUsers) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	us.store.rlock(ctx)
	defer us.store.runlock(ctx)
	u, ok := us.store.tables.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (us *MemoryUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	us.store.rlock(ctx)
	defer us.store.runlock(ctx)
	u, ok := lo.Find(lo.Values(us.store.tables.users), func(u domain.User) bool {
		return strings.EqualFold(u.Email, email)
	})
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (us *MemoryUsers) Update(ctx context.Context, u *domain.User) error {
	us.store.wlock(ctx)
	defer us.store.wunlock(ctx)
	old, ok := us.store.tables.users[u.ID]
	if !ok {
		return ErrNotFound
	}
	if us.emailTaken(u.Email, u.ID) {
		return ErrConflict
	}
	u.CreatedAt = old.CreatedAt
	u.UpdatedAt = us.store.stamp()
	row := *u
	row.Permissions = nil
	us.store.tables.users[u.ID] = row
	return nil
}

func (us *MemoryUsers) Delete(ctx context.Context, id uuid.UUID) error {
	us.store.wlock(ctx)
	defer us.store.wunlock(ctx)
	if _, ok := us.store.tables.users[id]; !ok {
		return ErrNotFound
	}
	for pid, p := range us.store.tables.permissions {
		if p.UserID == id {
			delete(us.store.tables.permissions, pid)
		}
	}
	delete(us.store.tables.users, id)
	return nil
}

func (us *MemoryUsers) List(ctx context.Context) ([]domain.User, error) {
	us.store.rlock(ctx)
	defer us.store.runlock(ctx)
	return newestFirst(lo.Values(us.store.tables.users), func(u domain.User) time.Time { return u.CreatedAt }), nil
}

// MemoryPermissions PermissionRepository поверх MemoryStore
type MemoryPermissions struct{ store *MemoryStore }

func NewMemoryPermissions(store *MemoryStore) *MemoryPermissions {
	return &MemoryPermissions{store: store}
}

var _ PermissionRepository = (*MemoryPermissions)(nil)

func (mp *MemoryPermissions) find(userID uuid.UUID, resource domain.Resource) (domain.Permission, bool) {
	return lo.Find(lo.Values(mp.store.tables.permissions), func(p domain.Permission) bool {
		return p.UserID == userID && p.Resource == resource
	})
}

func (mp *MemoryPermissions) Get(ctx context.Context, userID uuid.UUID, resource domain.Resource) (*domain.Permission, error) {
	mp.store.rlock(ctx)
	defer mp.store.runlock(ctx)
	p, ok := mp.find(userID, resource)
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (mp *MemoryPermissions) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Permission, error) {
	mp.store.rlock(ctx)
	defer mp.store.runlock(ctx)
	out := lo.Filter(lo.Values(mp.store.tables.permissions), func(p domain.Permission, _ int) bool {
		return p.UserID == userID
	})
	return sortByResource(out), nil
}

func (mp *MemoryPermissions) Upsert(ctx context.Context, p *domain.Permission) error {
	mp.store.wlock(ctx)
	defer mp.store.wunlock(ctx)
	if _, ok := mp.store.tables.users[p.UserID]; !ok {
		return ErrNotFound
	}
	now := mp.store.stamp()
	if existing, ok := mp.find(p.UserID, p.Resource); ok {
		p.ID = existing.ID
		p.CreatedAt = existing.CreatedAt
	} else {
		p.ID = uuid.New()
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	mp.store.tables.permissions[p.ID] = *p
	return nil
}

// sortByResource orders rows the way domain.Resources lists them.
func sortByResource(ps []domain.Permission) []domain.Permission {
	out := make([]domain.Permission, 0, len(ps))
	for _, r := range domain.Resources {
		out = append(out, lo.Filter(ps, func(p domain.Permission, _ int) bool { return p.Resource == r })...)
	}
	return out
}
