package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"inventory/internal/domain"
)

const orderColumns = `id, order_number, client_id, total_amount, payment_method_1, payment_amount_1,
	payment_method_2, payment_amount_2, status, notes, created_by, created_at, updated_at`

const orderItemColumns = `id, order_id, product_id, quantity, unit_price, subtotal, created_at, updated_at`

var orderSelect = `SELECT ` + prefixColumns("o", orderColumns) + `, ` + prefixColumns("c", clientColumns) + `, ` + creatorColumns + `
	FROM orders o
	JOIN clients c ON c.id = o.client_id
	LEFT JOIN users u ON u.id = o.created_by`

// prefixColumns qualifies a column list with a table alias.
func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

// PostgresOrders OrderRepository на PostgreSQL
type PostgresOrders struct{ db *Postgres }

var _ OrderRepository = (*PostgresOrders)(nil)

// orderDest returns scan targets for orderColumns and a finish func that copies
// nullable and enum columns into o.
func orderDest(o *domain.Order) ([]any, func()) {
	var (
		method1, status string
		method2         *string
		amount2         decimal.NullDecimal
	)
	dest := []any{&o.ID, &o.OrderNumber, &o.ClientID, &o.TotalAmount, &method1, &o.PaymentAmount1,
		&method2, &amount2, &status, &o.Notes, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt}
	return dest, func() {
		o.PaymentMethod1 = domain.PaymentMethod(method1)
		o.Status = domain.OrderStatus(status)
		o.PaymentMethod2 = nil
		if method2 != nil {
			m := domain.PaymentMethod(*method2)
			o.PaymentMethod2 = &m
		}
		o.PaymentAmount2 = nil
		if amount2.Valid {
			a := amount2.Decimal
			o.PaymentAmount2 = &a
		}
	}
}

func clientDest(c *domain.Client) []any {
	return []any{&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Address,
		&c.City, &c.Country, &c.Notes, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt}
}

func (r *PostgresOrders) Create(ctx context.Context, o *domain.Order) error {
	o.ID = uuid.New()
	var method2 *string
	if o.PaymentMethod2 != nil {
		method2 = lo.ToPtr(string(*o.PaymentMethod2))
	}
	query := `
		INSERT INTO orders (id, order_number, client_id, total_amount, payment_method_1, payment_amount_1,
			payment_method_2, payment_amount_2, status, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`
	err := r.db.q(ctx).QueryRow(ctx, query,
		o.ID, o.OrderNumber, o.ClientID, o.TotalAmount, string(o.PaymentMethod1), o.PaymentAmount1,
		method2, o.PaymentAmount2, string(o.Status), o.Notes, o.CreatedBy,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", mapError(err))
	}
	return nil
}

func (r *PostgresOrders) AddItem(ctx context.Context, it *domain.OrderItem) error {
	it.ID = uuid.New()
	it.Recalculate()
	// position keeps items in the order they were added
	query := `
		INSERT INTO order_items (id, order_id, product_id, quantity, unit_price, subtotal, position)
		VALUES ($1, $2, $3, $4, $5, $6,
			(SELECT COALESCE(MAX(position), 0) + 1 FROM order_items WHERE order_id = $2))
		RETURNING created_at, updated_at
	`
	err := r.db.q(ctx).QueryRow(ctx, query,
		it.ID, it.OrderID, it.ProductID, it.Quantity, it.UnitPrice, it.Subtotal,
	).Scan(&it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create order item: %w", mapError(err))
	}
	return nil
}

func (r *PostgresOrders) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	var (
		o      domain.Order
		client domain.Client
	)
	dest, finish := orderDest(&o)
	creator, summary := creatorDest()
	dest = append(append(dest, clientDest(&client)...), creator...)
	if err := r.db.q(ctx).QueryRow(ctx, orderSelect+` WHERE o.id = $1`, id).Scan(dest...); err != nil {
		return nil, fmt.Errorf("failed to get order: %w", mapError(err))
	}
	finish()
	o.Client = &client
	o.Creator = summary()

	items, err := r.itemsFor(ctx, []uuid.UUID{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]
	if o.Items == nil {
		o.Items = []domain.OrderItem{}
	}
	return &o, nil
}

func (r *PostgresOrders) List(ctx context.Context) ([]domain.Order, error) {
	rows, err := r.db.q(ctx).Query(ctx, orderSelect+` ORDER BY o.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		var (
			o      domain.Order
			client domain.Client
		)
		dest, finish := orderDest(&o)
		creator, summary := creatorDest()
		if err := rows.Scan(append(append(dest, clientDest(&client)...), creator...)...); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		finish()
		o.Client = &client
		o.Creator = summary()
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	items, err := r.itemsFor(ctx, lo.Map(orders, func(o domain.Order, _ int) uuid.UUID { return o.ID }))
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}
	return orders, nil
}

// itemsFor loads items with their products for the given orders, grouped by order id.
func (r *PostgresOrders) itemsFor(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]domain.OrderItem, error) {
	out := make(map[uuid.UUID][]domain.OrderItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}
	query := `SELECT ` + prefixColumns("oi", orderItemColumns) + `, ` + prefixColumns("p", productColumns) + `
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ANY($1::uuid[])
		ORDER BY oi.position, oi.created_at, oi.id`
	rows, err := r.db.q(ctx).Query(ctx, query, uuidStrings(orderIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			it domain.OrderItem
			p  domain.Product
		)
		err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.Subtotal,
			&it.CreatedAt, &it.UpdatedAt,
			&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.SKU,
			&p.IsActive, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		it.Product = &p
		out[it.OrderID] = append(out[it.OrderID], it)
	}
	return out, rows.Err()
}

func (r *PostgresOrders) Update(ctx context.Context, o *domain.Order) error {
	query := `UPDATE orders SET status = $2, notes = $3, updated_at = NOW() WHERE id = $1 RETURNING updated_at`
	if err := r.db.q(ctx).QueryRow(ctx, query, o.ID, string(o.Status), o.Notes).Scan(&o.UpdatedAt); err != nil {
		return fmt.Errorf("failed to update order: %w", mapError(err))
	}
	return nil
}

// Delete relies on order_items.order_id ON DELETE CASCADE.
func (r *PostgresOrders) Delete(ctx context.Context, id uuid.UUID) error {
	if err := mustAffect(r.db.q(ctx).Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)); err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	return nil
}
