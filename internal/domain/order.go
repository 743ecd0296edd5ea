package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus статус заказа
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// PaymentMethod способ оплаты
type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "cash"
	PaymentCreditCard   PaymentMethod = "credit_card"
	PaymentDebitCard    PaymentMethod = "debit_card"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCreditCard, PaymentDebitCard, PaymentBankTransfer:
		return true
	}
	return false
}

// PaymentTolerance is the largest accepted gap between paid amount and order total.
var PaymentTolerance = decimal.New(1, -2)

// ErrInvalidPayment возвращается, когда сумма платежей не сходится с итогом заказа
var ErrInvalidPayment = errors.New("payment amounts do not match order total")

// OrderItem позиция заказа; Subtotal всегда пересчитывается из Quantity и UnitPrice
type OrderItem struct {
	ID        uuid.UUID       `json:"id"`
	OrderID   uuid.UUID       `json:"orderId"`
	ProductID uuid.UUID       `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`

	Product *Product `json:"product,omitempty"`
}

func (it *OrderItem) Recalculate() {
	it.Subtotal = it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// Order заказ клиента с одной или двумя оплатами
type Order struct {
	ID             uuid.UUID        `json:"id"`
	OrderNumber    string           `json:"orderNumber"`
	ClientID       uuid.UUID        `json:"clientId"`
	TotalAmount    decimal.Decimal  `json:"totalAmount"`
	PaymentMethod1 PaymentMethod    `json:"paymentMethod1"`
	PaymentAmount1 decimal.Decimal  `json:"paymentAmount1"`
	PaymentMethod2 *PaymentMethod   `json:"paymentMethod2,omitempty"`
	PaymentAmount2 *decimal.Decimal `json:"paymentAmount2,omitempty"`
	Status         OrderStatus      `json:"status"`
	Notes          *string          `json:"notes,omitempty"`
	CreatedBy      uuid.UUID        `json:"createdBy"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`

	Client  *Client      `json:"client,omitempty"`
	Creator *UserSummary `json:"creator,omitempty"`
	Items   []OrderItem  `json:"items,omitempty"`
}

// LineItem позиция во входящем запросе на заказ
type LineItem struct {
	ProductID uuid.UUID
	Quantity  int
	UnitPrice decimal.Decimal
}

// Payment одна из двух оплат заказа
type Payment struct {
	Method PaymentMethod
	Amount decimal.Decimal
}

// OrderDraft входные данные для NewOrder
type OrderDraft struct {
	ClientID  uuid.UUID
	Items     []LineItem
	Primary   Payment
	Secondary *Payment
	Notes     *string
	CreatedBy uuid.UUID
}

// NewOrder builds a pending order from a draft. The total is always the sum of
// item subtotals; payments must cover it within PaymentTolerance.
func NewOrder(d OrderDraft) (*Order, error) {
	o := &Order{
		ClientID:       d.ClientID,
		PaymentMethod1: d.Primary.Method,
		PaymentAmount1: d.Primary.Amount,
		Status:         OrderStatusPending,
		Notes:          d.Notes,
		CreatedBy:      d.CreatedBy,
		Items:          make([]OrderItem, 0, len(d.Items)),
	}
	if d.Secondary != nil {
		method, amount := d.Secondary.Method, d.Secondary.Amount
		o.PaymentMethod2 = &method
		o.PaymentAmount2 = &amount
	}
	for _, li := range d.Items {
		it := OrderItem{ProductID: li.ProductID, Quantity: li.Quantity, UnitPrice: li.UnitPrice}
		it.Recalculate()
		o.Items = append(o.Items, it)
	}
	o.TotalAmount = o.ItemsTotal()
	if err := o.CheckPayment(); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.Subtotal)
	}
	return total
}

// PaidAmount sums both payments; a missing second payment counts as zero.
func (o *Order) PaidAmount() decimal.Decimal {
	paid := o.PaymentAmount1
	if o.PaymentAmount2 != nil {
		paid = paid.Add(*o.PaymentAmount2)
	}
	return paid
}

func (o *Order) CheckPayment() error {
	if o.PaidAmount().Sub(o.TotalAmount).Abs().GreaterThan(PaymentTolerance) {
		return ErrInvalidPayment
	}
	return nil
}
