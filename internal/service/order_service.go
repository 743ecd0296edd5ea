package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"inventory/internal/domain"
	"inventory/internal/logger"
	"inventory/internal/metrics"
	"inventory/internal/repository"
)

// OrderItemInput позиция в запросе на создание заказа
type OrderItemInput struct {
	ProductID string           `json:"productId" validate:"required,uuid"`
	Quantity  int              `json:"quantity" validate:"required,min=1"`
	UnitPrice *decimal.Decimal `json:"unitPrice" validate:"required"`
}

// CreateOrderInput тело запроса на создание заказа
type CreateOrderInput struct {
	ClientID       string                `json:"clientId" validate:"required,uuid"`
	Items          []OrderItemInput      `json:"items" validate:"required,min=1,dive"`
	PaymentMethod1 domain.PaymentMethod  `json:"paymentMethod1" validate:"required,oneof=cash credit_card debit_card bank_transfer"`
	PaymentAmount1 *decimal.Decimal      `json:"paymentAmount1" validate:"required"`
	PaymentMethod2 *domain.PaymentMethod `json:"paymentMethod2" validate:"omitempty,oneof=cash credit_card debit_card bank_transfer"`
	PaymentAmount2 *decimal.Decimal      `json:"paymentAmount2"`
	Notes          *string               `json:"notes"`
}

// UpdateOrderInput nil fields keep their stored value
type UpdateOrderInput struct {
	Status *domain.OrderStatus `json:"status" validate:"omitempty,oneof=pending processing completed cancelled"`
	Notes  *string             `json:"notes"`
}

// maxOrderNumberAttempts bounds retries after an order number collision.
const maxOrderNumberAttempts = 3

// OrderService создаёт заказы и списывает остатки в одной транзакции
type OrderService struct {
	products repository.ProductRepository
	clients  repository.ClientRepository
	orders   repository.OrderRepository
	tx       repository.TxManager
	metrics  *metrics.Metrics

	// newOrderNumber is swapped in tests to force collisions.
	newOrderNumber func() string
}

func NewOrderService(
	products repository.ProductRepository,
	clients repository.ClientRepository,
	orders repository.OrderRepository,
	tx repository.TxManager,
	m *metrics.Metrics,
) *OrderService {
	return &OrderService{
		products:       products,
		clients:        clients,
		orders:         orders,
		tx:             tx,
		metrics:        m,
		newOrderNumber: generateOrderNumber,
	}
}

// generateOrderNumber returns ORD-<unix millis>-<0..999>.
func generateOrderNumber() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000))
	if err != nil {
		n = big.NewInt(time.Now().UnixNano() % 1000)
	}
	return fmt.Sprintf("ORD-%d-%d", time.Now().UnixMilli(), n.Int64())
}

func (in CreateOrderInput) draft(createdBy uuid.UUID) (domain.OrderDraft, error) {
	var extra []FieldError
	total := decimal.Zero
	for i, it := range in.Items {
		extra = append(extra, moneyErrors(fmt.Sprintf("items[%d].unitPrice", i), it.UnitPrice)...)
		if it.UnitPrice != nil && it.Quantity > 0 {
			total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
		}
	}
	if total.GreaterThan(maxMoney) {
		extra = append(extra, FieldError{Field: "items", Message: "order total must be at most " + maxMoney.StringFixed(2)})
	}
	extra = append(extra, moneyErrors("paymentAmount1", in.PaymentAmount1)...)
	extra = append(extra, moneyErrors("paymentAmount2", in.PaymentAmount2)...)
	if in.PaymentAmount2 != nil && in.PaymentAmount2.IsPositive() && in.PaymentMethod2 == nil {
		extra = append(extra, FieldError{Field: "paymentMethod2", Message: "is required when paymentAmount2 is set"})
	}
	if in.PaymentMethod2 != nil && in.PaymentAmount2 == nil {
		extra = append(extra, FieldError{Field: "paymentAmount2", Message: "is required when paymentMethod2 is set"})
	}
	if err := validateStruct(in, extra...); err != nil {
		return domain.OrderDraft{}, err
	}

	d := domain.OrderDraft{
		ClientID:  uuid.MustParse(in.ClientID),
		Primary:   domain.Payment{Method: in.PaymentMethod1, Amount: *in.PaymentAmount1},
		Notes:     in.Notes,
		CreatedBy: createdBy,
		Items: lo.Map(in.Items, func(it OrderItemInput, _ int) domain.LineItem {
			return domain.LineItem{ProductID: uuid.MustParse(it.ProductID), Quantity: it.Quantity, UnitPrice: *it.UnitPrice}
		}),
	}
	if in.PaymentAmount2 != nil && in.PaymentMethod2 != nil {
		d.Secondary = &domain.Payment{Method: *in.PaymentMethod2, Amount: *in.PaymentAmount2}
	}
	return d, nil
}

// CreateOrder validates payments against the item total, then in one
// transaction locks the referenced products, writes the order and its items
// and decrements stock. Any failure leaves no trace.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput, createdBy uuid.UUID) (*domain.Order, error) {
	d, err := in.draft(createdBy)
	if err != nil {
		s.metrics.OrderRejected("validation")
		return nil, err
	}
	order, err := domain.NewOrder(d)
	if err != nil {
		total := lo.Reduce(d.Items, func(sum decimal.Decimal, li domain.LineItem, _ int) decimal.Decimal {
			return sum.Add(li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity))))
		}, decimal.Zero)
		s.metrics.OrderRejected("payment")
		logger.FromContext(ctx).Warn("order payment mismatch", zap.String("total", total.StringFixed(2)))
		return nil, fmt.Errorf("%w: total is %s", ErrInvalidPayment, total.StringFixed(2))
	}

	var id uuid.UUID
	for attempt := 1; ; attempt++ {
		id, err = s.place(ctx, order)
		if !errors.Is(err, repository.ErrDuplicateOrderNumber) {
			break
		}
		if attempt == maxOrderNumberAttempts {
			s.metrics.OrderRejected("conflict")
			return nil, fmt.Errorf("%w: could not allocate a unique order number", ErrConflict)
		}
		logger.FromContext(ctx).Warn("order number collision, retrying", zap.Int("attempt", attempt))
	}
	if err != nil {
		var stockErr *InsufficientStockError
		if errors.As(err, &stockErr) {
			s.metrics.OrderRejected("stock")
			logger.FromContext(ctx).Warn("order rejected: insufficient stock",
				zap.String("product", stockErr.ProductName),
				zap.Int("available", stockErr.Available),
				zap.Int("requested", stockErr.Requested),
			)
		}
		return nil, err
	}

	created, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.metrics.OrderCreated(created.TotalAmount.InexactFloat64())
	logger.FromContext(ctx).Info("order created",
		zap.String("order_id", created.ID.String()),
		zap.String("order_number", created.OrderNumber),
		zap.String("total", created.TotalAmount.StringFixed(2)),
	)
	return created, nil
}

// place runs one transactional attempt and returns the new order id.
func (s *OrderService) place(ctx context.Context, tmpl *domain.Order) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.clients.GetByID(ctx, tmpl.ClientID); err != nil {
			return notFound("client", err)
		}

		ids := lo.Uniq(lo.Map(tmpl.Items, func(it domain.OrderItem, _ int) uuid.UUID { return it.ProductID }))
		locked, err := s.products.LockForUpdate(ctx, ids)
		if err != nil {
			return err
		}
		products := lo.SliceToMap(locked, func(p domain.Product) (uuid.UUID, domain.Product) { return p.ID, p })

		o := *tmpl
		o.Items = nil
		o.OrderNumber = s.newOrderNumber()
		if err := s.orders.Create(ctx, &o); err != nil {
			return err
		}

		// items are applied in the supplied order; repeated products see the running stock
		for _, tpl := range tmpl.Items {
			p, ok := products[tpl.ProductID]
			if !ok {
				return fmt.Errorf("product %s %w", tpl.ProductID, ErrNotFound)
			}
			left := p.Stock - tpl.Quantity
			if left < 0 {
				return &InsufficientStockError{ProductName: p.Name, Available: p.Stock, Requested: tpl.Quantity}
			}
			it := tpl
			it.OrderID = o.ID
			if err := s.orders.AddItem(ctx, &it); err != nil {
				return err
			}
			if err := s.products.SetStock(ctx, p.ID, left); err != nil {
				return err
			}
			p.Stock = left
			products[p.ID] = p
		}
		id = o.ID
		return nil
	})
	return id, err
}

func (s *OrderService) List(ctx context.Context) ([]domain.Order, error) {
	return s.orders.List(ctx)
}

func (s *OrderService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, notFound("order", err)
	}
	return o, nil
}

// Update changes status and notes only. Stock is not touched on any status change.
func (s *OrderService) Update(ctx context.Context, id uuid.UUID, in UpdateOrderInput) (*domain.Order, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, notFound("order", err)
	}
	if in.Status != nil {
		o.Status = *in.Status
	}
	if in.Notes != nil {
		o.Notes = in.Notes
	}
	if err := s.orders.Update(ctx, o); err != nil {
		return nil, notFound("order", err)
	}
	return o, nil
}

func (s *OrderService) Delete(ctx context.Context, id uuid.UUID) error {
	return notFound("order", s.orders.Delete(ctx, id))
}
