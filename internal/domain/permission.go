package domain

import (
	"time"

	"github.com/google/uuid"
)

// Resource защищаемый раздел API
type Resource string

const (
	ResourceProducts Resource = "products"
	ResourceClients  Resource = "clients"
	ResourceOrders   Resource = "orders"
	ResourceComments Resource = "comments"
	ResourceUsers    Resource = "users"
)

// Resources lists every resource in a stable order.
var Resources = []Resource{ResourceProducts, ResourceClients, ResourceOrders, ResourceComments, ResourceUsers}

func (r Resource) Valid() bool {
	switch r {
	case ResourceProducts, ResourceClients, ResourceOrders, ResourceComments, ResourceUsers:
		return true
	}
	return false
}

// Action действие над ресурсом
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Permission флаги доступа пользователя к одному ресурсу. Уникальна по (UserID, Resource).
type Permission struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	Resource  Resource  `json:"resource"`
	CanView   bool      `json:"canView"`
	CanCreate bool      `json:"canCreate"`
	CanUpdate bool      `json:"canUpdate"`
	CanDelete bool      `json:"canDelete"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Allows reports the flag that governs action. Unknown actions are denied.
func (p Permission) Allows(a Action) bool {
	switch a {
	case ActionView:
		return p.CanView
	case ActionCreate:
		return p.CanCreate
	case ActionUpdate:
		return p.CanUpdate
	case ActionDelete:
		return p.CanDelete
	default:
		return false
	}
}
