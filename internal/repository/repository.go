package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"inventory/internal/domain"
)

// ErrNotFound возвращается, когда сущность не найдена
var ErrNotFound = errors.New("not found")

// ErrConflict нарушение уникальности или ссылочной целостности
var ErrConflict = errors.New("conflict")

// ErrDuplicateOrderNumber is a conflict on orders.order_number; callers may retry with a new number.
var ErrDuplicateOrderNumber = fmt.Errorf("order number already exists: %w", ErrConflict)

// UserRepository интерфейс репозитория пользователей
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
	// Delete removes the user together with its permission rows.
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]domain.User, error)
}

// PermissionRepository хранилище матрицы прав
type PermissionRepository interface {
	// Get returns ErrNotFound when the user has no row for resource.
	Get(ctx context.Context, userID uuid.UUID, resource domain.Resource) (*domain.Permission, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Permission, error)
	// Upsert creates the (UserID, Resource) row or overwrites all four flags of the existing one.
	Upsert(ctx context.Context, p *domain.Permission) error
}

// ProductFilter параметры фильтрации списка товаров
type ProductFilter struct {
	NameSubstring string
	MinPrice      *decimal.Decimal
	MaxPrice      *decimal.Decimal
	ActiveOnly    bool
}

// ProductRepository интерфейс репозитория товаров
type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f ProductFilter) ([]domain.Product, error)
	// LockForUpdate locks the rows of ids for the rest of the current transaction,
	// always in ascending id order. Missing ids are simply absent from the result.
	LockForUpdate(ctx context.Context, ids []uuid.UUID) ([]domain.Product, error)
	SetStock(ctx context.Context, id uuid.UUID, stock int) error
}

// ClientRepository интерфейс репозитория клиентов
type ClientRepository interface {
	Create(ctx context.Context, c *domain.Client) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Client, error)
	Update(ctx context.Context, c *domain.Client) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]domain.Client, error)
}

// OrderRepository интерфейс репозитория заказов
type OrderRepository interface {
	// Create inserts the order header only; items are added with AddItem.
	Create(ctx context.Context, o *domain.Order) error
	AddItem(ctx context.Context, it *domain.OrderItem) error
	// GetByID loads the order with its client, items and item products.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
	Update(ctx context.Context, o *domain.Order) error
	// Delete removes the order and its items.
	Delete(ctx context.Context, id uuid.UUID) error
}

// CommentFilter параметры фильтрации комментариев
type CommentFilter struct {
	RelatedTo domain.CommentTarget
	RelatedID *uuid.UUID
}

// CommentRepository интерфейс репозитория комментариев
type CommentRepository interface {
	Create(ctx context.Context, c *domain.Comment) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error)
	Update(ctx context.Context, c *domain.Comment) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f CommentFilter) ([]domain.Comment, error)
}

// TxManager абстракция транзакции. Ошибка из fn откатывает все изменения.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Repositories набор репозиториев одного хранилища
type Repositories struct {
	Users       UserRepository
	Permissions PermissionRepository
	Products    ProductRepository
	Clients     ClientRepository
	Orders      OrderRepository
	Comments    CommentRepository
	Tx          TxManager
}

// helper: case-insensitive contains
func containsIgnoreCase(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
