package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"inventory/internal/auth"
	"inventory/internal/domain"
	"inventory/internal/metrics"
	"inventory/internal/repository"
	"inventory/internal/service"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type testEnv struct {
	srv    *Server
	repos  *repository.Repositories
	tokens *auth.TokenManager
	admin  *domain.User
	user   *domain.User
}

func setupServer(t *testing.T) *testEnv {
	t.Helper()
	repos := repository.NewMemoryRepositories()
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	m := metrics.New("test", prometheus.NewRegistry())
	srv := NewServer(Services{
		Auth:        service.NewAuthService(repos.Users, repos.Permissions, tokens, m),
		Authz:       service.NewAuthorizer(repos.Permissions, m),
		Users:       service.NewUserService(repos.Users, repos.Permissions),
		Permissions: service.NewPermissionService(repos.Users, repos.Permissions, repos.Tx),
		Products:    service.NewProductService(repos.Products),
		Clients:     service.NewClientService(repos.Clients),
		Orders:      service.NewOrderService(repos.Products, repos.Clients, repos.Orders, repos.Tx, m),
		Comments:    service.NewCommentService(repos.Comments),
	}, m, []string{"http://localhost:3000"})

	env := &testEnv{srv: srv, repos: repos, tokens: tokens}
	env.admin = env.newUser(t, "admin@example.com", true)
	env.user = env.newUser(t, "user@example.com", false)
	return env
}

func (e *testEnv) newUser(t *testing.T, email string, admin bool) *domain.User {
	t.Helper()
	hash, err := auth.HashPassword("secret123")
	if err != nil {
		t.Fatal(err)
	}
	u := &domain.User{Email: email, PasswordHash: hash, FirstName: "T", LastName: "U", IsActive: true, IsAdmin: admin}
	if err := e.repos.Users.Create(context.Background(), u); err != nil {
		t.Fatal(err)
	}
	return u
}

func (e *testEnv) token(t *testing.T, u *domain.User) string {
	t.Helper()
	tok, err := e.tokens.Generate(u.ID)
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func (e *testEnv) grant(t *testing.T, u *domain.User, p domain.Permission) {
	t.Helper()
	p.UserID = u.ID
	if err := e.repos.Permissions.Upsert(context.Background(), &p); err != nil {
		t.Fatal(err)
	}
}

type envelope struct {
	Success bool                 `json:"success"`
	Message string               `json:"message"`
	Data    json.RawMessage      `json:"data"`
	Errors  []service.FieldError `json:"errors"`
}

func doJSON(t *testing.T, e *testEnv, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.srv.Engine().ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %s %s: %v (%s)", method, path, err, w.Body.String())
		}
	}
	return w, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("decode data: %v (%s)", err, raw)
	}
	return v
}

func TestHealthAndUnknownRoute(t *testing.T) {
	e := setupServer(t)
	w, body := doJSON(t, e, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK || !body.Success {
		t.Fatalf("health %v", w.Code)
	}
	if w.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected request id header")
	}

	w, body = doJSON(t, e, http.MethodGet, "/api/nope", "", nil)
	if w.Code != http.StatusNotFound || body.Success {
		t.Fatalf("expected 404 envelope, got %v", w.Code)
	}
}

func TestAuthFlow(t *testing.T) {
	e := setupServer(t)

	w, body := doJSON(t, e, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email": "new@example.com", "password": "secret1", "firstName": "N", "lastName": "U",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	sess := decode[service.Session](t, body.Data)
	require.NotEmpty(t, sess.Token)
	require.NotContains(t, string(body.Data), "secret1")

	w, _ = doJSON(t, e, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email": "new@example.com", "password": "secret1", "firstName": "N", "lastName": "U",
	})
	require.Equal(t, http.StatusConflict, w.Code)

	w, body = doJSON(t, e, http.MethodPost, "/api/auth/login", "", map[string]any{"email": "new@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code)
	sess = decode[service.Session](t, body.Data)

	w, body = doJSON(t, e, http.MethodGet, "/api/auth/me", sess.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[domain.User](t, body.Data)
	require.Equal(t, "new@example.com", me.Email)

	w, body = doJSON(t, e, http.MethodPost, "/api/auth/login", "", map[string]any{"email": "new@example.com", "password": "nope00"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.False(t, body.Success)
}

func TestAuthenticationGate(t *testing.T) {
	e := setupServer(t)

	w, body := doJSON(t, e, http.MethodGet, "/api/products", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.False(t, body.Success)

	w, _ = doJSON(t, e, http.MethodGet, "/api/products", "garbage", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	expired, err := auth.NewTokenManager("test-secret", -time.Minute).Generate(e.admin.ID)
	require.NoError(t, err)
	w, _ = doJSON(t, e, http.MethodGet, "/api/products", expired, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	ghost, err := e.tokens.Generate(uuid.New())
	require.NoError(t, err)
	w, _ = doJSON(t, e, http.MethodGet, "/api/products", ghost, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	tok := e.token(t, e.user)
	e.user.IsActive = false
	require.NoError(t, e.repos.Users.Update(context.Background(), e.user))
	w, _ = doJSON(t, e, http.MethodGet, "/api/products", tok, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestViewOnlyUserCannotCreateClient(t *testing.T) {
	e := setupServer(t)
	e.grant(t, e.user, domain.Permission{Resource: domain.ResourceClients, CanView: true})
	tok := e.token(t, e.user)

	w, _ := doJSON(t, e, http.MethodGet, "/api/clients", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, body := doJSON(t, e, http.MethodPost, "/api/clients", tok, map[string]any{
		"firstName": "A", "lastName": "B", "email": "a@example.com",
	})
	require.Equal(t, http.StatusForbidden, w.Code)
	require.False(t, body.Success)

	list, err := e.repos.Clients.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestForbiddenBeforeNotFound(t *testing.T) {
	e := setupServer(t)
	tok := e.token(t, e.user)
	missing := "/api/products/" + uuid.NewString()

	w, _ := doJSON(t, e, http.MethodGet, missing, tok, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	w, _ = doJSON(t, e, http.MethodGet, missing, e.token(t, e.admin), nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	// admin-only surfaces ignore permission rows
	e.grant(t, e.user, domain.Permission{Resource: domain.ResourceUsers, CanView: true})
	w, _ = doJSON(t, e, http.MethodGet, "/api/users", tok, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	w, _ = doJSON(t, e, http.MethodGet, "/api/permissions/"+e.user.ID.String(), tok, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestProductFlow(t *testing.T) {
	e := setupServer(t)
	tok := e.token(t, e.admin)

	w, body := doJSON(t, e, http.MethodPost, "/api/products", tok, map[string]any{
		"name": "Aspirin", "sku": "S1", "price": 10, "stock": 5,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create code %v: %s", w.Code, w.Body.String())
	}
	p := decode[domain.Product](t, body.Data)

	w, body = doJSON(t, e, http.MethodGet, "/api/products/"+p.ID.String(), tok, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get code %v", w.Code)
	}
	got := decode[struct {
		Creator struct {
			ID    uuid.UUID `json:"id"`
			Email string    `json:"email"`
		} `json:"creator"`
	}](t, body.Data)
	require.Equal(t, e.admin.ID, got.Creator.ID)
	require.Equal(t, "admin@example.com", got.Creator.Email)

	w, body = doJSON(t, e, http.MethodPut, "/api/products/"+p.ID.String(), tok, map[string]any{
		"name": "A+", "sku": "S1", "price": "12.50", "stock": 7,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update code %v", w.Code)
	}
	up := decode[domain.Product](t, body.Data)
	require.True(t, up.Price.Equal(decimal.RequireFromString("12.5")))

	w, body = doJSON(t, e, http.MethodGet, "/api/products?q=a%2B&min_price=10", tok, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list code %v", w.Code)
	}
	require.Len(t, decode[[]domain.Product](t, body.Data), 1)

	w, _ = doJSON(t, e, http.MethodGet, "/api/products?min_price=abc", tok, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doJSON(t, e, http.MethodDelete, "/api/products/"+p.ID.String(), tok, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete code %v", w.Code)
	}
}

func TestHTTP_BadRequests(t *testing.T) {
	e := setupServer(t)
	tok := e.token(t, e.admin)

	w, body := doJSON(t, e, http.MethodPost, "/api/products", tok, map[string]any{"name": ""})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "validation failed", body.Message)
	require.NotEmpty(t, body.Errors)

	w, _ = doJSON(t, e, http.MethodGet, "/api/products/abc", tok, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w, body = doJSON(t, e, http.MethodPost, "/api/products", tok, map[string]any{"name": "A", "sku": "S", "price": 1, "stock": "many"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "stock", body.Errors[0].Field)

	// validation is reported before existence
	w, _ = doJSON(t, e, http.MethodPut, "/api/products/"+uuid.NewString(), tok, map[string]any{"name": ""})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

type orderEnv struct {
	*testEnv
	tok     string
	product domain.Product
	client  domain.Client
}

func setupOrderEnv(t *testing.T, stock int) *orderEnv {
	t.Helper()
	e := setupServer(t)
	e.grant(t, e.user, domain.Permission{Resource: domain.ResourceOrders, CanView: true, CanCreate: true})
	ctx := context.Background()
	p := domain.Product{Name: "Widget", SKU: "W-1", Price: decimal.NewFromInt(10), Stock: stock, IsActive: true, CreatedBy: e.admin.ID}
	require.NoError(t, e.repos.Products.Create(ctx, &p))
	c := domain.Client{FirstName: "C", LastName: "L", Email: "c@example.com", CreatedBy: e.admin.ID}
	require.NoError(t, e.repos.Clients.Create(ctx, &c))
	return &orderEnv{testEnv: e, tok: e.token(t, e.user), product: p, client: c}
}

func (e *orderEnv) order(qty int, pay1 string) map[string]any {
	return map[string]any{
		"clientId":       e.client.ID.String(),
		"items":          []map[string]any{{"productId": e.product.ID.String(), "quantity": qty, "unitPrice": "10.00"}},
		"paymentMethod1": "cash",
		"paymentAmount1": pay1,
	}
}

func (e *orderEnv) stock(t *testing.T) int {
	t.Helper()
	p, err := e.repos.Products.GetByID(context.Background(), e.product.ID)
	require.NoError(t, err)
	return p.Stock
}

func TestOrderFlow(t *testing.T) {
	e := setupOrderEnv(t, 5)

	w, body := doJSON(t, e.testEnv, http.MethodPost, "/api/orders", e.tok, e.order(2, "20.00"))
	if w.Code != http.StatusCreated {
		t.Fatalf("create order %v: %s", w.Code, w.Body.String())
	}
	o := decode[domain.Order](t, body.Data)
	require.True(t, o.TotalAmount.Equal(decimal.NewFromInt(20)))
	require.Len(t, o.Items, 1)
	require.NotNil(t, o.Items[0].Product)
	require.Equal(t, e.user.ID, o.CreatedBy)
	require.NotNil(t, o.Creator)
	require.Equal(t, "user@example.com", o.Creator.Email)
	require.Equal(t, 3, e.stock(t))

	w, body = doJSON(t, e.testEnv, http.MethodGet, "/api/orders/"+o.ID.String(), e.tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, o.OrderNumber, decode[domain.Order](t, body.Data).OrderNumber)

	// no update permission
	w, _ = doJSON(t, e.testEnv, http.MethodPut, "/api/orders/"+o.ID.String(), e.tok, map[string]any{"status": "completed"})
	require.Equal(t, http.StatusForbidden, w.Code)

	admin := e.token(t, e.admin)
	w, body = doJSON(t, e.testEnv, http.MethodPut, "/api/orders/"+o.ID.String(), admin, map[string]any{"status": "completed"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, domain.OrderStatusCompleted, decode[domain.Order](t, body.Data).Status)

	w, _ = doJSON(t, e.testEnv, http.MethodDelete, "/api/orders/"+o.ID.String(), admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestOrder_InsufficientStock(t *testing.T) {
	e := setupOrderEnv(t, 5)
	w, body := doJSON(t, e.testEnv, http.MethodPost, "/api/orders", e.tok, e.order(6, "60.00"))
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "insufficient stock for product: Widget", body.Message)
	require.Equal(t, 5, e.stock(t))
}

func TestOrder_InvalidPayment(t *testing.T) {
	e := setupOrderEnv(t, 5)
	w, body := doJSON(t, e.testEnv, http.MethodPost, "/api/orders", e.tok, e.order(2, "15.00"))
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, body.Message, "payment amounts do not match order total")
	require.Equal(t, 5, e.stock(t))

	orders, err := e.repos.Orders.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, orders)
}

func TestOrder_UnknownClient(t *testing.T) {
	e := setupOrderEnv(t, 5)
	in := e.order(1, "10.00")
	in["clientId"] = uuid.NewString()
	w, _ := doJSON(t, e.testEnv, http.MethodPost, "/api/orders", e.tok, in)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, 5, e.stock(t))
}

func TestUsersAndPermissionsAdmin(t *testing.T) {
	e := setupServer(t)
	admin := e.token(t, e.admin)

	w, body := doJSON(t, e, http.MethodPut, "/api/permissions/"+e.user.ID.String(), admin, map[string]any{
		"products": map[string]any{"canView": true, "canCreate": true},
		"clients":  map[string]any{"canView": true},
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, decode[[]domain.Permission](t, body.Data), 2)

	// array form, omitted flags reset to false
	w, _ = doJSON(t, e, http.MethodPut, "/api/permissions/"+e.user.ID.String(), admin, []map[string]any{
		{"resource": "products", "canView": true},
	})
	require.Equal(t, http.StatusOK, w.Code)

	w, body = doJSON(t, e, http.MethodGet, "/api/permissions/"+e.user.ID.String(), admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	perms := decode[[]domain.Permission](t, body.Data)
	for _, p := range perms {
		if p.Resource == domain.ResourceProducts {
			require.True(t, p.CanView)
			require.False(t, p.CanCreate)
		}
	}

	w, _ = doJSON(t, e, http.MethodPut, "/api/permissions/"+e.user.ID.String(), admin, []map[string]any{{"resource": "invoices"}})
	require.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = doJSON(t, e, http.MethodPut, "/api/permissions/"+uuid.NewString(), admin, []map[string]any{{"resource": "products"}})
	require.Equal(t, http.StatusNotFound, w.Code)

	w, body = doJSON(t, e, http.MethodGet, "/api/users", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, decode[[]domain.User](t, body.Data), 2)

	w, _ = doJSON(t, e, http.MethodDelete, "/api/users/"+e.admin.ID.String(), admin, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doJSON(t, e, http.MethodDelete, "/api/users/"+e.user.ID.String(), admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	rows, err := e.repos.Permissions.ListByUser(context.Background(), e.user.ID)
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestMetricsEndpoint(t *testing.T) {
	e := setupServer(t)
	doJSON(t, e, http.MethodGet, "/health", "", nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	e.srv.Engine().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "test_http_requests_total")
}

func TestMapErrorToStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{service.ErrInvalidInput, http.StatusBadRequest},
		{service.ErrInvalidPayment, http.StatusBadRequest},
		{&service.InsufficientStockError{ProductName: "x"}, http.StatusBadRequest},
		{service.ErrUnauthenticated, http.StatusUnauthorized},
		{service.ErrForbidden, http.StatusForbidden},
		{repository.ErrNotFound, http.StatusNotFound},
		{repository.ErrDuplicateOrderNumber, http.StatusConflict},
		{context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := mapErrorToStatus(tc.err); got != tc.want {
			t.Errorf("%v: got %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestListsIncludeCreator(t *testing.T) {
	e := setupOrderEnv(t, 5)
	admin := e.token(t, e.admin)

	w, body := doJSON(t, e.testEnv, http.MethodPost, "/api/comments", admin, map[string]any{
		"content": "note", "relatedTo": "general",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	for _, path := range []string{"/api/products", "/api/clients", "/api/comments"} {
		w, body = doJSON(t, e.testEnv, http.MethodGet, path, admin, nil)
		require.Equal(t, http.StatusOK, w.Code, path)
		rows := decode[[]struct {
			Creator *domain.UserSummary `json:"creator"`
		}](t, body.Data)
		require.NotEmpty(t, rows, path)
		require.NotNil(t, rows[0].Creator, path)
		require.Equal(t, "admin@example.com", rows[0].Creator.Email, path)
	}
}

func TestOrder_MoneyPrecisionAndRange(t *testing.T) {
	e := setupOrderEnv(t, 5)

	sub := e.order(1, "0.01")
	sub["items"] = []map[string]any{
		{"productId": e.product.ID.String(), "quantity": 1, "unitPrice": "0.005"},
		{"productId": e.product.ID.String(), "quantity": 1, "unitPrice": "0.005"},
	}
	w, body := doJSON(t, e.testEnv, http.MethodPost, "/api/orders", e.tok, sub)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "items[0].unitPrice", body.Errors[0].Field)

	huge := e.order(1, "100000000.00")
	huge["items"] = []map[string]any{{"productId": e.product.ID.String(), "quantity": 1, "unitPrice": "100000000.00"}}
	w, _ = doJSON(t, e.testEnv, http.MethodPost, "/api/orders", e.tok, huge)
	require.Equal(t, http.StatusBadRequest, w.Code)

	require.Equal(t, 5, e.stock(t))
}

func TestCORSPreflight(t *testing.T) {
	e := setupServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/products", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
	w := httptest.NewRecorder()
	e.srv.Engine().ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)

	// other origins get no grant
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	w = httptest.NewRecorder()
	e.srv.Engine().ServeHTTP(w, req)
	require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestPanicKeepsEnvelope(t *testing.T) {
	e := setupServer(t)
	e.srv.Engine().GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w, body := doJSON(t, e, http.MethodGet, "/boom", "", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.False(t, body.Success)
	require.Equal(t, "internal server error", body.Message)
}
