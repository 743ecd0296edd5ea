package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"inventory/internal/domain"
)

// MemoryClients ClientRepository поверх MemoryStore
type MemoryClients struct{ store *MemoryStore }

func NewMemoryClients(store *MemoryStore) *MemoryClients { return &MemoryClients{store: store} }

var _ ClientRepository = (*MemoryClients)(nil)

func (mc *MemoryClients) emailTaken(email string, except uuid.UUID) bool {
	return lo.SomeBy(lo.Values(mc.store.tables.clients), func(c domain.Client) bool {
		return strings.EqualFold(c.Email, email) && c.ID != except
	})
}

func (mc *MemoryClients) Create(ctx context.Context, c *domain.Client) error {
	mc.store.wlock(ctx)
	defer mc.store.wunlock(ctx)
	if mc.emailTaken(c.Email, uuid.Nil) {
		return ErrConflict
	}
	c.ID = uuid.New()
	c.CreatedAt = mc.store.stamp()
	c.UpdatedAt = c.CreatedAt
	row := *c
	row.Creator = nil
	mc.store.tables.clients[c.ID] = row
	return nil
}

func (mc *MemoryClients) GetByID(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	mc.store.rlock(ctx)
	defer mc.store.runlock(ctx)
	c, ok := mc.store.tables.clients[id]
	if !ok {
		return nil, ErrNotFound
	}
	c.Creator = mc.store.creator(c.CreatedBy)
	return &c, nil
}

func (mc *MemoryClients) Update(ctx context.Context, c *domain.Client) error {
	mc.store.wlock(ctx)
	defer mc.store.wunlock(ctx)
	old, ok := mc.store.tables.clients[c.ID]
	if !ok {
		return ErrNotFound
	}
	if mc.emailTaken(c.Email, c.ID) {
		return ErrConflict
	}
	c.CreatedBy = old.CreatedBy
	c.CreatedAt = old.CreatedAt
	c.UpdatedAt = mc.store.stamp()
	row := *c
	row.Creator = nil
	mc.store.tables.clients[c.ID] = row
	return nil
}

func (mc *MemoryClients) Delete(ctx context.Context, id uuid.UUID) error {
	mc.store.wlock(ctx)
	defer mc.store.wunlock(ctx)
	if _, ok := mc.store.tables.clients[id]; !ok {
		return ErrNotFound
	}
	for _, o := range mc.store.tables.orders {
		if o.ClientID == id {
			return ErrConflict
		}
	}
	delete(mc.store.tables.clients, id)
	return nil
}

func (mc *MemoryClients) List(ctx context.Context) ([]domain.Client, error) {
	mc.store.rlock(ctx)
	defer mc.store.runlock(ctx)
	out := lo.Map(lo.Values(mc.store.tables.clients), func(c domain.Client, _ int) domain.Client {
		c.Creator = mc.store.creator(c.CreatedBy)
		return c
	})
	return newestFirst(out, func(c domain.Client) time.Time { return c.CreatedAt }), nil
}

// MemoryComments CommentRepository поверх MemoryStore
type MemoryComments struct{ store *MemoryStore }

func NewMemoryComments(store *MemoryStore) *MemoryComments { return &MemoryComments{store: store} }

var _ CommentRepository = (*MemoryComments)(nil)

func (mc *MemoryComments) Create(ctx context.Context, c *domain.Comment) error {
	mc.store.wlock(ctx)
	defer mc.store.wunlock(ctx)
	c.ID = uuid.New()
	c.CreatedAt = mc.store.stamp()
	c.UpdatedAt = c.CreatedAt
	row := *c
	row.Creator = nil
	mc.store.tables.comments[c.ID] = row
	return nil
}

func (mc *MemoryComments) GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	mc.store.rlock(ctx)
	defer mc.store.runlock(ctx)
	c, ok := mc.store.tables.comments[id]
	if !ok {
		return nil, ErrNotFound
	}
	c.Creator = mc.store.creator(c.CreatedBy)
	return &c, nil
}

func (mc *MemoryComments) Update(ctx context.Context, c *domain.Comment) error {
	mc.store.wlock(ctx)
	defer mc.store.wunlock(ctx)
	old, ok := mc.store.tables.comments[c.ID]
	if !ok {
		return ErrNotFound
	}
	c.CreatedBy = old.CreatedBy
	c.CreatedAt = old.CreatedAt
	c.UpdatedAt = mc.store.stamp()
	row := *c
	row.Creator = nil
	mc.store.tables.comments[c.ID] = row
	return nil
}

func (mc *MemoryComments) Delete(ctx context.Context, id uuid.UUID) error {
	mc.store.wlock(ctx)
	defer mc.store.wunlock(ctx)
	if _, ok := mc.store.tables.comments[id]; !ok {
		return ErrNotFound
	}
	delete(mc.store.tables.comments, id)
	return nil
}

func (mc *MemoryComments) List(ctx context.Context, f CommentFilter) ([]domain.Comment, error) {
	mc.store.rlock(ctx)
	defer mc.store.runlock(ctx)
	out := lo.Filter(lo.Values(mc.store.tables.comments), func(c domain.Comment, _ int) bool {
		if f.RelatedTo != "" && c.RelatedTo != f.RelatedTo {
			return false
		}
		return f.RelatedID == nil || (c.RelatedID != nil && *c.RelatedID == *f.RelatedID)
	})
	for i := range out {
		out[i].Creator = mc.store.creator(out[i].CreatedBy)
	}
	return newestFirst(out, func(c domain.Comment) time.Time { return c.CreatedAt }), nil
}
