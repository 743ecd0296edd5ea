// Package seed fills an empty store with demo accounts, catalog and clients.
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"inventory/internal/auth"
	"inventory/internal/domain"
	"inventory/internal/logger"
	"inventory/internal/repository"
)

const (
	AdminEmail    = "admin@example.com"
	AdminPassword = "admin123"
	UserEmail     = "user@example.com"
	UserPassword  = "user123"
)

// ErrAlreadySeeded возвращается, если администратор уже существует
var ErrAlreadySeeded = errors.New("store already seeded")

var userPermissions = []domain.Permission{
	{Resource: domain.ResourceProducts, CanView: true, CanCreate: true},
	{Resource: domain.ResourceClients, CanView: true, CanCreate: true, CanUpdate: true},
	{Resource: domain.ResourceOrders, CanView: true, CanCreate: true},
	{Resource: domain.ResourceComments, CanView: true, CanCreate: true, CanUpdate: true, CanDelete: true},
}

type productSeed struct {
	name, description, price, sku string
	stock                         int
}

var products = []productSeed{
	{"Laptop", "High-performance laptop for professionals", "1299.99", "LAP-001", 50},
	{"Wireless Mouse", "Ergonomic wireless mouse", "29.99", "MOU-001", 200},
	{"Mechanical Keyboard", "RGB mechanical keyboard", "149.99", "KEY-001", 75},
	{"USB-C Hub", "7-in-1 USB-C hub with HDMI", "49.99", "HUB-001", 150},
	{"Monitor 27\"", "4K UHD monitor 27 inches", "399.99", "MON-001", 30},
}

// Run creates the demo data in one transaction. A second run returns ErrAlreadySeeded.
func Run(ctx context.Context, repos *repository.Repositories) error {
	if _, err := repos.Users.GetByEmail(ctx, AdminEmail); err == nil {
		return ErrAlreadySeeded
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	return repos.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		admin, err := createUser(ctx, repos.Users, AdminEmail, AdminPassword, "Admin", "User", true)
		if err != nil {
			return err
		}
		user, err := createUser(ctx, repos.Users, UserEmail, UserPassword, "John", "Doe", false)
		if err != nil {
			return err
		}
		for _, p := range userPermissions {
			p.UserID = user.ID
			if err := repos.Permissions.Upsert(ctx, &p); err != nil {
				return fmt.Errorf("failed to seed permission %s: %w", p.Resource, err)
			}
		}

		var first *domain.Product
		for _, s := range products {
			desc := s.description
			p := &domain.Product{
				Name:        s.name,
				Description: &desc,
				Price:       decimal.RequireFromString(s.price),
				Stock:       s.stock,
				SKU:         s.sku,
				IsActive:    true,
				CreatedBy:   admin.ID,
			}
			if err := repos.Products.Create(ctx, p); err != nil {
				return fmt.Errorf("failed to seed product %s: %w", s.sku, err)
			}
			if first == nil {
				first = p
			}
		}

		phone, address, city, country, notes := "+1-555-0101", "123 Main St", "New York", "USA", "Preferred customer"
		client := &domain.Client{
			FirstName: "Alice",
			LastName:  "Johnson",
			Email:     "alice.johnson@example.com",
			Phone:     &phone,
			Address:   &address,
			City:      &city,
			Country:   &country,
			Notes:     &notes,
			CreatedBy: admin.ID,
		}
		if err := repos.Clients.Create(ctx, client); err != nil {
			return fmt.Errorf("failed to seed client: %w", err)
		}

		comment := &domain.Comment{
			Content:   "Great product, customers love it!",
			RelatedTo: domain.CommentOnProduct,
			RelatedID: &first.ID,
			CreatedBy: admin.ID,
		}
		if err := repos.Comments.Create(ctx, comment); err != nil {
			return fmt.Errorf("failed to seed comment: %w", err)
		}

		logger.FromContext(ctx).Info("store seeded",
			zap.Int("products", len(products)),
			zap.String("admin", AdminEmail),
			zap.String("user", UserEmail),
		)
		return nil
	})
}

func createUser(ctx context.Context, users repository.UserRepository, email, password, first, last string, admin bool) (*domain.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	u := &domain.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    first,
		LastName:     last,
		IsActive:     true,
		IsAdmin:      admin,
	}
	if err := users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to seed user %s: %w", email, err)
	}
	return u, nil
}
