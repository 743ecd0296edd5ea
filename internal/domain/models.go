package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User учётная запись оператора системы
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	IsActive     bool      `json:"isActive"`
	IsAdmin      bool      `json:"isAdmin"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	Permissions []Permission `json:"permissions,omitempty"`
}

// UserSummary автор записи в ответах API
type UserSummary struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
}

func (u User) Summary() *UserSummary {
	return &UserSummary{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email}
}

// Product товар на складе
type Product struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	SKU         string          `json:"sku"`
	IsActive    bool            `json:"isActive"`
	CreatedBy   uuid.UUID       `json:"createdBy"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`

	Creator *UserSummary `json:"creator,omitempty"`
}

// Client покупатель, на которого оформляются заказы
type Client struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Phone     *string   `json:"phone,omitempty"`
	Address   *string   `json:"address,omitempty"`
	City      *string   `json:"city,omitempty"`
	Country   *string   `json:"country,omitempty"`
	Notes     *string   `json:"notes,omitempty"`
	CreatedBy uuid.UUID `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Creator *UserSummary `json:"creator,omitempty"`
}

// CommentTarget сущность, к которой относится комментарий
type CommentTarget string

const (
	CommentOnProduct CommentTarget = "product"
	CommentOnClient  CommentTarget = "client"
	CommentOnOrder   CommentTarget = "order"
	CommentGeneral   CommentTarget = "general"
)

func (t CommentTarget) Valid() bool {
	switch t {
	case CommentOnProduct, CommentOnClient, CommentOnOrder, CommentGeneral:
		return true
	}
	return false
}

// Comment заметка пользователя; RelatedID имеет смысл только для не-general комментариев
type Comment struct {
	ID        uuid.UUID     `json:"id"`
	Content   string        `json:"content"`
	RelatedTo CommentTarget `json:"relatedTo"`
	RelatedID *uuid.UUID    `json:"relatedId,omitempty"`
	CreatedBy uuid.UUID     `json:"createdBy"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`

	Creator *UserSummary `json:"creator,omitempty"`
}

// Normalize drops the related id of general comments.
func (c *Comment) Normalize() {
	if c.RelatedTo == CommentGeneral {
		c.RelatedID = nil
	}
}
