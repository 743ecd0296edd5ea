package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"inventory/internal/domain"
)

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestMemoryStore_ProductCRUD(t *testing.T) {
	ctx := context.Background()
	products := NewMemoryProducts(NewMemoryStore())

	p := domain.Product{Name: "A", SKU: "S1", Price: price("10"), Stock: 5, IsActive: true}
	if err := products.Create(ctx, &p); err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.ID == uuid.Nil {
		t.Fatalf("no id")
	}

	got, err := products.GetByID(ctx, p.ID)
	if err != nil || got.ID != p.ID {
		t.Fatalf("get: %v", err)
	}

	p.Price = price("12")
	if err := products.Update(ctx, &p); err != nil {
		t.Fatalf("update: %v", err)
	}

	dup := domain.Product{Name: "B", SKU: "S1", Price: price("1")}
	if err := products.Create(ctx, &dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected sku conflict, got %v", err)
	}

	if err := products.Delete(ctx, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := products.GetByID(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found")
	}
}

func seedOrderFixtures(t *testing.T, ctx context.Context, store *MemoryStore) (domain.Client, domain.Product) {
	t.Helper()
	c := domain.Client{FirstName: "Jane", LastName: "Doe", Email: "jane@example.com"}
	if err := NewMemoryClients(store).Create(ctx, &c); err != nil {
		t.Fatal(err)
	}
	p := domain.Product{Name: "A", SKU: "S1", Price: price("10"), Stock: 5}
	if err := NewMemoryProducts(store).Create(ctx, &p); err != nil {
		t.Fatal(err)
	}
	return c, p
}

func TestMemoryTx_TransactionalUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	tx := NewMemoryTx(store)
	products := NewMemoryProducts(store)
	orders := NewMemoryOrders(store)
	c, p := seedOrderFixtures(t, ctx, store)

	// emulate atomic create order with stock decrease
	err := tx.WithTransaction(ctx, func(ctx context.Context) error {
		locked, err := products.LockForUpdate(ctx, []uuid.UUID{p.ID})
		if err != nil {
			return err
		}
		if err := products.SetStock(ctx, p.ID, locked[0].Stock-3); err != nil {
			return err
		}
		o := domain.Order{OrderNumber: "ORD-1", ClientID: c.ID, Status: domain.OrderStatusPending}
		if err := orders.Create(ctx, &o); err != nil {
			return err
		}
		return orders.AddItem(ctx, &domain.OrderItem{OrderID: o.ID, ProductID: p.ID, Quantity: 3, UnitPrice: price("10")})
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}

	pp, _ := products.GetByID(ctx, p.ID)
	if pp.Stock != 2 {
		t.Fatalf("stock expected 2, got %v", pp.Stock)
	}
	list, _ := orders.List(ctx)
	if len(list) != 1 || len(list[0].Items) != 1 || list[0].Items[0].Product == nil {
		t.Fatalf("order not hydrated: %+v", list)
	}
	if !list[0].Items[0].Subtotal.Equal(price("30")) {
		t.Fatalf("subtotal %s", list[0].Items[0].Subtotal)
	}
}

func TestMemoryTx_RollbackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	tx := NewMemoryTx(store)
	products := NewMemoryProducts(store)
	orders := NewMemoryOrders(store)
	c, p := seedOrderFixtures(t, ctx, store)

	boom := errors.New("boom")
	err := tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := products.SetStock(ctx, p.ID, 0); err != nil {
			return err
		}
		o := domain.Order{OrderNumber: "ORD-1", ClientID: c.ID}
		if err := orders.Create(ctx, &o); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	pp, _ := products.GetByID(ctx, p.ID)
	if pp.Stock != 5 {
		t.Fatalf("stock not restored: %v", pp.Stock)
	}
	list, _ := orders.List(ctx)
	if len(list) != 0 {
		t.Fatalf("order survived rollback")
	}
}

func TestMemoryOrders_DuplicateNumber(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	orders := NewMemoryOrders(store)
	c, _ := seedOrderFixtures(t, ctx, store)

	first := domain.Order{OrderNumber: "ORD-1", ClientID: c.ID}
	if err := orders.Create(ctx, &first); err != nil {
		t.Fatal(err)
	}
	second := domain.Order{OrderNumber: "ORD-1", ClientID: c.ID}
	err := orders.Create(ctx, &second)
	if !errors.Is(err, ErrDuplicateOrderNumber) || !errors.Is(err, ErrConflict) {
		t.Fatalf("expected duplicate order number, got %v", err)
	}
}

func TestMemoryOrders_DeleteCascadesItemsAndFreesProduct(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	orders := NewMemoryOrders(store)
	products := NewMemoryProducts(store)
	c, p := seedOrderFixtures(t, ctx, store)

	o := domain.Order{OrderNumber: "ORD-1", ClientID: c.ID}
	if err := orders.Create(ctx, &o); err != nil {
		t.Fatal(err)
	}
	if err := orders.AddItem(ctx, &domain.OrderItem{OrderID: o.ID, ProductID: p.ID, Quantity: 1, UnitPrice: price("10")}); err != nil {
		t.Fatal(err)
	}
	if err := products.Delete(ctx, p.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("product with items must not be deleted, got %v", err)
	}
	if err := NewMemoryClients(store).Delete(ctx, c.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("client with orders must not be deleted, got %v", err)
	}
	if err := orders.Delete(ctx, o.ID); err != nil {
		t.Fatal(err)
	}
	if len(store.tables.items) != 0 {
		t.Fatalf("items not cascaded")
	}
	if err := products.Delete(ctx, p.ID); err != nil {
		t.Fatalf("delete after cascade: %v", err)
	}
}

func TestList_Filtering(t *testing.T) {
	ctx := context.Background()
	products := NewMemoryProducts(NewMemoryStore())
	add := func(n string, pr string, active bool) {
		p := domain.Product{Name: n, SKU: n, Price: price(pr), Stock: 1, IsActive: active}
		if err := products.Create(ctx, &p); err != nil {
			t.Fatal(err)
		}
	}
	add("Aspirin", "100", true)
	add("Paracetamol", "50", true)
	add("Ibuprofen", "150", false)

	// name contains
	list, _ := products.List(ctx, ProductFilter{NameSubstring: "PRO"})
	if len(list) != 1 || list[0].Name != "Ibuprofen" {
		t.Fatalf("name filter: %v", list)
	}
	// case-insensitive, newest first
	list, _ = products.List(ctx, ProductFilter{NameSubstring: "a"})
	if len(list) != 2 {
		t.Fatalf("name filter: %d", len(list))
	}
	if list[0].Name != "Paracetamol" || list[1].Name != "Aspirin" {
		t.Fatalf("order: %s, %s", list[0].Name, list[1].Name)
	}

	// min
	min := price("100")
	list, _ = products.List(ctx, ProductFilter{MinPrice: &min})
	for _, p := range list {
		if p.Price.LessThan(min) {
			t.Fatalf("min filter fail")
		}
	}

	// max
	max := price("100")
	list, _ = products.List(ctx, ProductFilter{MaxPrice: &max})
	for _, p := range list {
		if p.Price.GreaterThan(max) {
			t.Fatalf("max filter fail")
		}
	}

	list, _ = products.List(ctx, ProductFilter{ActiveOnly: true})
	if len(list) != 2 {
		t.Fatalf("active filter: %d", len(list))
	}
}

func TestMemoryPermissions_UpsertAndCascade(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	users := NewMemoryUsers(store)
	perms := NewMemoryPermissions(store)

	u := domain.User{Email: "u@example.com", FirstName: "U", LastName: "Ser", IsActive: true}
	if err := users.Create(ctx, &u); err != nil {
		t.Fatal(err)
	}
	if _, err := perms.Get(ctx, u.ID, domain.ResourceClients); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected no row, got %v", err)
	}

	first := domain.Permission{UserID: u.ID, Resource: domain.ResourceClients, CanView: true, CanCreate: true}
	if err := perms.Upsert(ctx, &first); err != nil {
		t.Fatal(err)
	}
	second := domain.Permission{UserID: u.ID, Resource: domain.ResourceClients, CanView: true}
	if err := perms.Upsert(ctx, &second); err != nil {
		t.Fatal(err)
	}
	if second.ID != first.ID {
		t.Fatalf("upsert created a second row")
	}
	got, err := perms.Get(ctx, u.ID, domain.ResourceClients)
	if err != nil || got.CanCreate || !got.CanView {
		t.Fatalf("flags not replaced: %+v %v", got, err)
	}

	if err := perms.Upsert(ctx, &domain.Permission{UserID: uuid.New(), Resource: domain.ResourceClients}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected unknown user, got %v", err)
	}

	if err := users.Delete(ctx, u.ID); err != nil {
		t.Fatal(err)
	}
	rows, _ := perms.ListByUser(ctx, u.ID)
	if len(rows) != 0 {
		t.Fatalf("permissions not cascaded")
	}
}

func TestMemoryUsers_EmailUnique(t *testing.T) {
	ctx := context.Background()
	users := NewMemoryUsers(NewMemoryStore())
	a := domain.User{Email: "a@example.com"}
	if err := users.Create(ctx, &a); err != nil {
		t.Fatal(err)
	}
	b := domain.User{Email: "A@example.com"}
	if err := users.Create(ctx, &b); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	got, err := users.GetByEmail(ctx, "A@EXAMPLE.COM")
	if err != nil || got.ID != a.ID {
		t.Fatalf("lookup: %v", err)
	}
}

func TestMemoryComments_Filter(t *testing.T) {
	ctx := context.Background()
	comments := NewMemoryComments(NewMemoryStore())
	target := uuid.New()
	for _, c := range []domain.Comment{
		{Content: "a", RelatedTo: domain.CommentOnProduct, RelatedID: &target},
		{Content: "b", RelatedTo: domain.CommentOnProduct},
		{Content: "c", RelatedTo: domain.CommentGeneral},
	} {
		c := c
		if err := comments.Create(ctx, &c); err != nil {
			t.Fatal(err)
		}
	}
	list, _ := comments.List(ctx, CommentFilter{RelatedTo: domain.CommentOnProduct, RelatedID: &target})
	if len(list) != 1 || list[0].Content != "a" {
		t.Fatalf("filter: %+v", list)
	}
	list, _ = comments.List(ctx, CommentFilter{})
	if len(list) != 3 {
		t.Fatalf("all: %d", len(list))
	}
}

func TestMemory_ReadsAttachCreator(t *testing.T) {
	ctx := context.Background()
	repos := NewMemoryRepositories()

	u := domain.User{Email: "author@example.com", FirstName: "A", LastName: "U", IsActive: true}
	require.NoError(t, repos.Users.Create(ctx, &u))

	p := domain.Product{Name: "P", SKU: "P", Price: price("1"), Stock: 1, CreatedBy: u.ID}
	require.NoError(t, repos.Products.Create(ctx, &p))
	c := domain.Client{FirstName: "C", LastName: "L", Email: "c@example.com", CreatedBy: u.ID}
	require.NoError(t, repos.Clients.Create(ctx, &c))
	cm := domain.Comment{Content: "x", RelatedTo: domain.CommentGeneral, CreatedBy: uuid.New()}
	require.NoError(t, repos.Comments.Create(ctx, &cm))

	gotP, err := repos.Products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, &domain.UserSummary{ID: u.ID, FirstName: "A", LastName: "U", Email: u.Email}, gotP.Creator)

	clients, err := repos.Clients.List(ctx)
	require.NoError(t, err)
	require.Equal(t, u.Email, clients[0].Creator.Email)

	// unknown author stays empty
	gotC, err := repos.Comments.GetByID(ctx, cm.ID)
	require.NoError(t, err)
	require.Nil(t, gotC.Creator)
}
