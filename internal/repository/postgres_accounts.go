package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"inventory/internal/domain"
)

const userColumns = `id, email, password_hash, first_name, last_name, is_active, is_admin, created_at, updated_at`

// PostgresUsers UserRepository на PostgreSQL
type PostgresUsers struct{ db *Postgres }

var _ UserRepository = (*PostgresUsers)(nil)

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.IsActive, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PostgresUsers) Create(ctx context.Context, u *domain.User) error {
	u.ID = uuid.New()
	query := `
		INSERT INTO users (id, email, password_hash, first_name, last_name, is_active, is_admin)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	err := r.db.q(ctx).QueryRow(ctx, query,
		u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.IsActive, u.IsAdmin,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", mapError(err))
	}
	return nil
}

func (r *PostgresUsers) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.db.q(ctx).QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", mapError(err))
	}
	return u, nil
}

func (r *PostgresUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	u, err := scanUser(r.db.q(ctx).QueryRow(ctx, query, email))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", mapError(err))
	}
	return u, nil
}

func (r *PostgresUsers) Update(ctx context.Context, u *domain.User) error {
	query := `
		UPDATE users
		SET email = $2, password_hash = $3, first_name = $4, last_name = $5,
		    is_active = $6, is_admin = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at
	`
	err := r.db.q(ctx).QueryRow(ctx, query,
		u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.IsActive, u.IsAdmin,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", mapError(err))
	}
	return nil
}

// Delete relies on permissions.user_id ON DELETE CASCADE.
func (r *PostgresUsers) Delete(ctx context.Context, id uuid.UUID) error {
	if err := mustAffect(r.db.q(ctx).Exec(ctx, `DELETE FROM users WHERE id = $1`, id)); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func (r *PostgresUsers) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.q(ctx).Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

const permissionColumns = `id, user_id, resource, can_view, can_create, can_update, can_delete, created_at, updated_at`

// PostgresPermissions PermissionRepository на PostgreSQL
type PostgresPermissions struct{ db *Postgres }

var _ PermissionRepository = (*PostgresPermissions)(nil)

func scanPermission(row pgx.Row) (*domain.Permission, error) {
	var (
		p        domain.Permission
		resource string
	)
	err := row.Scan(&p.ID, &p.UserID, &resource, &p.CanView, &p.CanCreate, &p.CanUpdate,
		&p.CanDelete, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Resource = domain.Resource(resource)
	return &p, nil
}

func (r *PostgresPermissions) Get(ctx context.Context, userID uuid.UUID, resource domain.Resource) (*domain.Permission, error) {
	query := `SELECT ` + permissionColumns + ` FROM permissions WHERE user_id = $1 AND resource = $2`
	p, err := scanPermission(r.db.q(ctx).QueryRow(ctx, query, userID, string(resource)))
	if err != nil {
		return nil, fmt.Errorf("failed to get permission: %w", mapError(err))
	}
	return p, nil
}

func (r *PostgresPermissions) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Permission, error) {
	query := `SELECT ` + permissionColumns + ` FROM permissions WHERE user_id = $1`
	rows, err := r.db.q(ctx).Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}
	defer rows.Close()

	perms := make([]domain.Permission, 0)
	for rows.Next() {
		p, err := scanPermission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan permission: %w", err)
		}
		perms = append(perms, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sortByResource(perms), nil
}

// Upsert is a single statement so concurrent first writes for the same
// (user, resource) converge on one row.
func (r *PostgresPermissions) Upsert(ctx context.Context, p *domain.Permission) error {
	query := `
		INSERT INTO permissions (id, user_id, resource, can_view, can_create, can_update, can_delete)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, resource) DO UPDATE
		SET can_view = EXCLUDED.can_view,
		    can_create = EXCLUDED.can_create,
		    can_update = EXCLUDED.can_update,
		    can_delete = EXCLUDED.can_delete,
		    updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	err := r.db.q(ctx).QueryRow(ctx, query,
		uuid.New(), p.UserID, string(p.Resource), p.CanView, p.CanCreate, p.CanUpdate, p.CanDelete,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert permission: %w", mapError(err))
	}
	return nil
}
