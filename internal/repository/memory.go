package repository

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"inventory/internal/domain"
)

// memoryTables все таблицы in-memory хранилища; копируется целиком для отката транзакции
type memoryTables struct {
	users       map[uuid.UUID]domain.User
	permissions map[uuid.UUID]domain.Permission
	products    map[uuid.UUID]domain.Product
	clients     map[uuid.UUID]domain.Client
	orders      map[uuid.UUID]domain.Order
	items       map[uuid.UUID]domain.OrderItem
	comments    map[uuid.UUID]domain.Comment
}

func (t memoryTables) clone() memoryTables {
	return memoryTables{
		users:       maps.Clone(t.users),
		permissions: maps.Clone(t.permissions),
		products:    maps.Clone(t.products),
		clients:     maps.Clone(t.clients),
		orders:      maps.Clone(t.orders),
		items:       maps.Clone(t.items),
		comments:    maps.Clone(t.comments),
	}
}

// MemoryStore объединённое in-memory хранилище для тестов и локального запуска
type MemoryStore struct {
	mu     sync.RWMutex
	tables memoryTables
	last   time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tables: memoryTables{
			users:       make(map[uuid.UUID]domain.User),
			permissions: make(map[uuid.UUID]domain.Permission),
			products:    make(map[uuid.UUID]domain.Product),
			clients:     make(map[uuid.UUID]domain.Client),
			orders:      make(map[uuid.UUID]domain.Order),
			items:       make(map[uuid.UUID]domain.OrderItem),
			comments:    make(map[uuid.UUID]domain.Comment),
		},
	}
}

// NewMemoryRepositories wires every repository over one fresh MemoryStore.
func NewMemoryRepositories() *Repositories {
	store := NewMemoryStore()
	return &Repositories{
		Users:       NewMemoryUsers(store),
		Permissions: NewMemoryPermissions(store),
		Products:    NewMemoryProducts(store),
		Clients:     NewMemoryClients(store),
		Orders:      NewMemoryOrders(store),
		Comments:    NewMemoryComments(store),
		Tx:          NewMemoryTx(store),
	}
}

// transaction-aware locking helpers
type txKey struct{}

func isTx(ctx context.Context) bool {
	v := ctx.Value(txKey{})
	if v == nil {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

func (m *MemoryStore) rlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.RLock()
	}
}
func (m *MemoryStore) runlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.RUnlock()
	}
}
func (m *MemoryStore) wlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.Lock()
	}
}
func (m *MemoryStore) wunlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.Unlock()
	}
}

// stamp returns a strictly increasing timestamp so newest-first listings are stable.
// Caller must hold the write lock.
func (m *MemoryStore) stamp() time.Time {
	t := time.Now().UTC()
	if !t.After(m.last) {
		t = m.last.Add(time.Microsecond)
	}
	m.last = t
	return t
}

// creator looks up the author of a row. Caller must hold a lock.
func (m *MemoryStore) creator(id uuid.UUID) *domain.UserSummary {
	if u, ok := m.tables.users[id]; ok {
		return u.Summary()
	}
	return nil
}

func newestFirst[T any](items []T, createdAt func(T) time.Time) []T {
	slices.SortFunc(items, func(a, b T) int { return createdAt(b).Compare(createdAt(a)) })
	return items
}

// MemoryTx держит блокировку записи на всё время транзакции и откатывает таблицы при ошибке
type MemoryTx struct{ store *MemoryStore }

func NewMemoryTx(store *MemoryStore) *MemoryTx { return &MemoryTx{store: store} }

func (tx *MemoryTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if isTx(ctx) {
		return fn(ctx)
	}
	tx.store.mu.Lock()
	snapshot := tx.store.tables.clone()
	committed := false
	defer func() {
		if !committed {
			tx.store.tables = snapshot
		}
		tx.store.mu.Unlock()
	}()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		return err
	}
	committed = true
	return nil
}

// MemoryProducts ProductRepository поверх MemoryStore
type MemoryProducts struct{ store *MemoryStore }

func NewMemoryProducts(store *MemoryStore) *MemoryProducts { return &MemoryProducts{store: store} }

var _ ProductRepository = (*MemoryProducts)(nil)

func (mp *MemoryProducts) skuTaken(sku string, except uuid.UUID) bool {
	return lo.SomeBy(lo.Values(mp.store.tables.products), func(p domain.Product) bool {
		return p.SKU == sku && p.ID != except
	})
}

func (mp *MemoryProducts) Create(ctx context.Context, p *domain.Product) error {
	mp.store.wlock(ctx)
	defer mp.store.wunlock(ctx)
	if mp.skuTaken(p.SKU, uuid.Nil) {
		return ErrConflict
	}
	p.ID = uuid.New()
	p.CreatedAt = mp.store.stamp()
	p.UpdatedAt = p.CreatedAt
	row := *p
	row.Creator = nil
	mp.store.tables.products[p.ID] = row
	return nil
}

func (mp *MemoryProducts) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	mp.store.rlock(ctx)
	defer mp.store.runlock(ctx)
	p, ok := mp.store.tables.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	// return copy
	cp := p
	cp.Creator = mp.store.creator(p.CreatedBy)
	return &cp, nil
}

func (mp *MemoryProducts) Update(ctx context.Context, p *domain.Product) error {
	mp.store.wlock(ctx)
	defer mp.store.wunlock(ctx)
	old, ok := mp.store.tables.products[p.ID]
	if !ok {
		return ErrNotFound
	}
	if mp.skuTaken(p.SKU, p.ID) {
		return ErrConflict
	}
	p.CreatedBy = old.CreatedBy
	p.CreatedAt = old.CreatedAt
	p.UpdatedAt = mp.store.stamp()
	row := *p
	row.Creator = nil
	mp.store.tables.products[p.ID] = row
	return nil
}

func (mp *MemoryProducts) Delete(ctx context.Context, id uuid.UUID) error {
	mp.store.wlock(ctx)
	defer mp.store.wunlock(ctx)
	if _, ok := mp.store.tables.products[id]; !ok {
		return ErrNotFound
	}
	// order_items.product_id is a restricting reference
	for _, it := range mp.store.tables.items {
		if it.ProductID == id {
			return ErrConflict
		}
	}
	delete(mp.store.tables.products, id)
	return nil
}

func (mp *MemoryProducts) List(ctx context.Context, f ProductFilter) ([]domain.Product, error) {
	mp.store.rlock(ctx)
	defer mp.store.runlock(ctx)
	out := make([]domain.Product, 0)
	for _, p := range mp.store.tables.products {
		if !containsIgnoreCase(p.Name, f.NameSubstring) {
			continue
		}
		if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
			continue
		}
		if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
			continue
		}
		if f.ActiveOnly && !p.IsActive {
			continue
		}
		p.Creator = mp.store.creator(p.CreatedBy)
		out = append(out, p)
	}
	return newestFirst(out, func(p domain.Product) time.Time { return p.CreatedAt }), nil
}

// LockForUpdate needs no extra locking here: a memory transaction already holds the store's write lock.
func (mp *MemoryProducts) LockForUpdate(ctx context.Context, ids []uuid.UUID) ([]domain.Product, error) {
	mp.store.rlock(ctx)
	defer mp.store.runlock(ctx)
	sorted := lo.Uniq(ids)
	slices.SortFunc(sorted, func(a, b uuid.UUID) int { return compareUUID(a, b) })
	out := make([]domain.Product, 0, len(sorted))
	for _, id := range sorted {
		if p, ok := mp.store.tables.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (mp *MemoryProducts) SetStock(ctx context.Context, id uuid.UUID, stock int) error {
	mp.store.wlock(ctx)
	defer mp.store.wunlock(ctx)
	p, ok := mp.store.tables.products[id]
	if !ok {
		return ErrNotFound
	}
	p.Stock = stock
	p.UpdatedAt = mp.store.stamp()
	mp.store.tables.products[id] = p
	return nil
}

func compareUUID(a, b uuid.UUID) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// MemoryOrders OrderRepository поверх MemoryStore
type MemoryOrders struct{ store *MemoryStore }

func NewMemoryOrders(store *MemoryStore) *MemoryOrders { return &MemoryOrders{store: store} }

var _ OrderRepository = (*MemoryOrders)(nil)

func (mo *MemoryOrders) Create(ctx context.Context, o *domain.Order) error {
	mo.store.wlock(ctx)
	defer mo.store.wunlock(ctx)
	for _, existing := range mo.store.tables.orders {
		if existing.OrderNumber == o.OrderNumber {
			return ErrDuplicateOrderNumber
		}
	}
	if _, ok := mo.store.tables.clients[o.ClientID]; !ok {
		return ErrNotFound
	}
	o.ID = uuid.New()
	o.CreatedAt = mo.store.stamp()
	o.UpdatedAt = o.CreatedAt
	row := *o
	row.Items, row.Client, row.Creator = nil, nil, nil
	mo.store.tables.orders[o.ID] = row
	return nil
}

func (mo *MemoryOrders) AddItem(ctx context.Context, it *domain.OrderItem) error {
	mo.store.wlock(ctx)
	defer mo.store.wunlock(ctx)
	if _, ok := mo.store.tables.orders[it.OrderID]; !ok {
		return ErrNotFound
	}
	if _, ok := mo.store.tables.products[it.ProductID]; !ok {
		return ErrNotFound
	}
	it.ID = uuid.New()
	it.Recalculate()
	it.CreatedAt = mo.store.stamp()
	it.UpdatedAt = it.CreatedAt
	row := *it
	row.Product = nil
	mo.store.tables.items[it.ID] = row
	return nil
}

// hydrate attaches client, items and products. Caller must hold a lock.
func (mo *MemoryOrders) hydrate(o domain.Order) domain.Order {
	if c, ok := mo.store.tables.clients[o.ClientID]; ok {
		c.Creator = nil
		o.Client = &c
	}
	o.Creator = mo.store.creator(o.CreatedBy)
	items := lo.Filter(lo.Values(mo.store.tables.items), func(it domain.OrderItem, _ int) bool {
		return it.OrderID == o.ID
	})
	slices.SortFunc(items, func(a, b domain.OrderItem) int { return a.CreatedAt.Compare(b.CreatedAt) })
	for i := range items {
		if p, ok := mo.store.tables.products[items[i].ProductID]; ok {
			items[i].Product = &p
		}
	}
	o.Items = items
	return o
}

func (mo *MemoryOrders) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	mo.store.rlock(ctx)
	defer mo.store.runlock(ctx)
	o, ok := mo.store.tables.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := mo.hydrate(o)
	return &cp, nil
}

func (mo *MemoryOrders) List(ctx context.Context) ([]domain.Order, error) {
	mo.store.rlock(ctx)
	defer mo.store.runlock(ctx)
	out := lo.Map(lo.Values(mo.store.tables.orders), func(o domain.Order, _ int) domain.Order {
		return mo.hydrate(o)
	})
	return newestFirst(out, func(o domain.Order) time.Time { return o.CreatedAt }), nil
}

// Update persists status and notes; amounts and items are immutable after creation.
func (mo *MemoryOrders) Update(ctx context.Context, o *domain.Order) error {
	mo.store.wlock(ctx)
	defer mo.store.wunlock(ctx)
	row, ok := mo.store.tables.orders[o.ID]
	if !ok {
		return ErrNotFound
	}
	row.Status = o.Status
	row.Notes = o.Notes
	row.UpdatedAt = mo.store.stamp()
	mo.store.tables.orders[o.ID] = row
	o.UpdatedAt = row.UpdatedAt
	return nil
}

func (mo *MemoryOrders) Delete(ctx context.Context, id uuid.UUID) error {
	mo.store.wlock(ctx)
	defer mo.store.wunlock(ctx)
	if _, ok := mo.store.tables.orders[id]; !ok {
		return ErrNotFound
	}
	for itemID, it := range mo.store.tables.items {
		if it.OrderID == id {
			delete(mo.store.tables.items, itemID)
		}
	}
	delete(mo.store.tables.orders, id)
	return nil
}
