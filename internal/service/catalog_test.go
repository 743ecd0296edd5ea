package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"inventory/internal/domain"
	"inventory/internal/repository"
)

func intPtr(v int) *int { return &v }

func TestProduct_Create_Valid(t *testing.T) {
	ctx := context.Background()
	ps := NewProductService(repository.NewMemoryRepositories().Products)
	actor := uuid.New()
	p, err := ps.Create(ctx, ProductInput{Name: "Aspirin", SKU: "ASP-1", Price: dec("1.50"), Stock: intPtr(10)}, actor)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if p.ID == uuid.Nil {
		t.Fatalf("expected id assigned")
	}
	if !p.IsActive || p.CreatedBy != actor {
		t.Fatalf("defaults not applied: %+v", p)
	}
}

func TestProduct_Create_Invalid(t *testing.T) {
	ctx := context.Background()
	ps := NewProductService(repository.NewMemoryRepositories().Products)
	cases := []struct {
		field string
		in    ProductInput
	}{
		{"name", ProductInput{SKU: "S", Price: dec("1"), Stock: intPtr(1)}},
		{"sku", ProductInput{Name: "N", Price: dec("1"), Stock: intPtr(1)}},
		{"price", ProductInput{Name: "N", SKU: "S", Price: dec("-1"), Stock: intPtr(1)}},
		{"price", ProductInput{Name: "N", SKU: "S", Price: dec("9.999"), Stock: intPtr(1)}},
		{"price", ProductInput{Name: "N", SKU: "S", Price: dec("100000000"), Stock: intPtr(1)}},
		{"stock", ProductInput{Name: "N", SKU: "S", Price: dec("1"), Stock: intPtr(-1)}},
	}
	for _, tc := range cases {
		_, err := ps.Create(ctx, tc.in, uuid.New())
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		require.Equal(t, tc.field, verr.Fields[0].Field, tc.in.Price.String())
	}

	// trailing zeros are still two decimal places
	_, err := ps.Create(ctx, ProductInput{Name: "N", SKU: "S", Price: dec("9.900"), Stock: intPtr(1)}, uuid.New())
	require.NoError(t, err)
}

func TestProduct_Update_Get_Delete(t *testing.T) {
	ctx := context.Background()
	ps := NewProductService(repository.NewMemoryRepositories().Products)
	p, err := ps.Create(ctx, ProductInput{Name: "A", SKU: "S1", Price: dec("10"), Stock: intPtr(5)}, uuid.New())
	require.NoError(t, err)
	_, err = ps.Create(ctx, ProductInput{Name: "B", SKU: "S2", Price: dec("1"), Stock: intPtr(1)}, uuid.New())
	require.NoError(t, err)

	got, err := ps.GetByID(ctx, p.ID)
	if err != nil || got.ID != p.ID {
		t.Fatalf("get failed: %v", err)
	}

	inactive := false
	up, err := ps.Update(ctx, p.ID, ProductInput{Name: "A+", SKU: "S1", Price: dec("12"), Stock: intPtr(7), IsActive: &inactive})
	require.NoError(t, err)
	if up.Name != "A+" || !up.Price.Equal(decimal.NewFromInt(12)) || up.Stock != 7 || up.IsActive {
		t.Fatalf("not updated: %+v", up)
	}

	_, err = ps.Update(ctx, p.ID, ProductInput{Name: "A", SKU: "S2", Price: dec("1"), Stock: intPtr(1)})
	require.ErrorIs(t, err, ErrConflict)
	_, err = ps.Update(ctx, uuid.New(), ProductInput{Name: "A", SKU: "S9", Price: dec("1"), Stock: intPtr(1)})
	require.ErrorIs(t, err, ErrNotFound)

	if err := ps.Delete(ctx, p.ID); err != nil {
		t.Fatalf("delete err: %v", err)
	}
	if _, err := ps.GetByID(ctx, p.ID); err == nil {
		t.Fatalf("expected not found after delete")
	}
}

func TestProduct_List_Filtering(t *testing.T) {
	ctx := context.Background()
	ps := NewProductService(repository.NewMemoryRepositories().Products)
	off := false
	for _, in := range []ProductInput{
		{Name: "Blue Pen", SKU: "P1", Price: dec("1"), Stock: intPtr(1)},
		{Name: "Red Pen", SKU: "P2", Price: dec("5"), Stock: intPtr(1), IsActive: &off},
		{Name: "Notebook", SKU: "N1", Price: dec("9"), Stock: intPtr(1)},
	} {
		_, err := ps.Create(ctx, in, uuid.New())
		require.NoError(t, err)
	}

	list, err := ps.List(ctx, repository.ProductFilter{NameSubstring: "pen", ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Blue Pen", list[0].Name)

	list, err = ps.List(ctx, repository.ProductFilter{MinPrice: dec("2")})
	require.NoError(t, err)
	require.Len(t, list, 2)

	_, err = ps.List(ctx, repository.ProductFilter{MinPrice: dec("5"), MaxPrice: dec("1")})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestClientService_CRUD(t *testing.T) {
	ctx := context.Background()
	repos := repository.NewMemoryRepositories()
	cs := NewClientService(repos.Clients)
	actor := uuid.New()

	c, err := cs.Create(ctx, ClientInput{FirstName: "Ann", LastName: "Lee", Email: "Ann@Example.com"}, actor)
	require.NoError(t, err)
	require.Equal(t, "ann@example.com", c.Email)

	_, err = cs.Create(ctx, ClientInput{FirstName: "A", LastName: "L", Email: "ann@example.com"}, actor)
	require.ErrorIs(t, err, ErrConflict)

	_, err = cs.Create(ctx, ClientInput{FirstName: "A", LastName: "L", Email: "nope"}, actor)
	require.ErrorIs(t, err, ErrInvalidInput)

	city := "Oslo"
	up, err := cs.Update(ctx, c.ID, ClientInput{FirstName: "Ann", LastName: "Berg", Email: "ann@example.com", City: &city})
	require.NoError(t, err)
	require.Equal(t, "Berg", up.LastName)
	require.Equal(t, "Oslo", *up.City)
	require.Equal(t, actor, up.CreatedBy)

	// orders keep the client alive
	p := &domain.Product{Name: "P", SKU: "P", Price: decimal.NewFromInt(1), Stock: 5, IsActive: true}
	require.NoError(t, repos.Products.Create(ctx, p))
	orders := NewOrderService(repos.Products, repos.Clients, repos.Orders, repos.Tx, nil)
	_, err = orders.CreateOrder(ctx, cashOrder(c.ID, "1", item(p, 1, "1")), actor)
	require.NoError(t, err)
	require.ErrorIs(t, cs.Delete(ctx, c.ID), ErrConflict)

	list, err := cs.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.ErrorIs(t, cs.Delete(ctx, uuid.New()), ErrNotFound)
}

func TestCommentService_CRUD(t *testing.T) {
	ctx := context.Background()
	cs := NewCommentService(repository.NewMemoryRepositories().Comments)
	actor := uuid.New()
	target := uuid.New()

	general, err := cs.Create(ctx, CommentInput{Content: "hello", RelatedTo: domain.CommentGeneral, RelatedID: &target}, actor)
	require.NoError(t, err)
	require.Nil(t, general.RelatedID)

	onProduct, err := cs.Create(ctx, CommentInput{Content: "restock soon", RelatedTo: domain.CommentOnProduct, RelatedID: &target}, actor)
	require.NoError(t, err)

	_, err = cs.Create(ctx, CommentInput{Content: "x", RelatedTo: domain.CommentOnOrder}, actor)
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = cs.Create(ctx, CommentInput{Content: "x", RelatedTo: "invoice"}, actor)
	require.ErrorIs(t, err, ErrInvalidInput)

	list, err := cs.List(ctx, repository.CommentFilter{RelatedTo: domain.CommentOnProduct, RelatedID: &target})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, onProduct.ID, list[0].ID)

	_, err = cs.List(ctx, repository.CommentFilter{RelatedTo: "invoice"})
	require.ErrorIs(t, err, ErrInvalidInput)

	up, err := cs.Update(ctx, onProduct.ID, CommentUpdate{Content: "restocked"})
	require.NoError(t, err)
	require.Equal(t, "restocked", up.Content)
	require.Equal(t, domain.CommentOnProduct, up.RelatedTo)

	require.NoError(t, cs.Delete(ctx, general.ID))
	_, err = cs.GetByID(ctx, general.ID)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, cs.Delete(ctx, general.ID), ErrNotFound)
}
