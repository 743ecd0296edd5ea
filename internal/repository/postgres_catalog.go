package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"inventory/internal/domain"
)

const productColumns = `id, name, description, price, stock, sku, is_active, created_by, created_at, updated_at`

var productSelect = `SELECT ` + prefixColumns("p", productColumns) + `, ` + creatorColumns + `
	FROM products p LEFT JOIN users u ON u.id = p.created_by`

// PostgresProducts ProductRepository на PostgreSQL
type PostgresProducts struct{ db *Postgres }

var _ ProductRepository = (*PostgresProducts)(nil)

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	creator, summary := creatorDest()
	err := row.Scan(append([]any{&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.SKU,
		&p.IsActive, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt}, creator...)...)
	if err != nil {
		return nil, err
	}
	p.Creator = summary()
	return &p, nil
}

func collectProducts(rows pgx.Rows) ([]domain.Product, error) {
	defer rows.Close()
	products := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (r *PostgresProducts) Create(ctx context.Context, p *domain.Product) error {
	p.ID = uuid.New()
	query := `
		INSERT INTO products (id, name, description, price, stock, sku, is_active, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`
	err := r.db.q(ctx).QueryRow(ctx, query,
		p.ID, p.Name, p.Description, p.Price, p.Stock, p.SKU, p.IsActive, p.CreatedBy,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", mapError(err))
	}
	return nil
}

func (r *PostgresProducts) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	p, err := scanProduct(r.db.q(ctx).QueryRow(ctx, productSelect+` WHERE p.id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", mapError(err))
	}
	return p, nil
}

func (r *PostgresProducts) Update(ctx context.Context, p *domain.Product) error {
	query := `
		UPDATE products
		SET name = $2, description = $3, price = $4, stock = $5, sku = $6, is_active = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING created_by, created_at, updated_at
	`
	err := r.db.q(ctx).QueryRow(ctx, query,
		p.ID, p.Name, p.Description, p.Price, p.Stock, p.SKU, p.IsActive,
	).Scan(&p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", mapError(err))
	}
	return nil
}

func (r *PostgresProducts) Delete(ctx context.Context, id uuid.UUID) error {
	if err := mustAffect(r.db.q(ctx).Exec(ctx, `DELETE FROM products WHERE id = $1`, id)); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

func (r *PostgresProducts) List(ctx context.Context, f ProductFilter) ([]domain.Product, error) {
	var (
		where []string
		args  []any
	)
	if f.NameSubstring != "" {
		args = append(args, "%"+f.NameSubstring+"%")
		where = append(where, fmt.Sprintf("p.name ILIKE $%d", len(args)))
	}
	if f.MinPrice != nil {
		args = append(args, *f.MinPrice)
		where = append(where, fmt.Sprintf("p.price >= $%d", len(args)))
	}
	if f.MaxPrice != nil {
		args = append(args, *f.MaxPrice)
		where = append(where, fmt.Sprintf("p.price <= $%d", len(args)))
	}
	if f.ActiveOnly {
		where = append(where, "p.is_active = TRUE")
	}
	query := productSelect
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY p.created_at DESC`

	rows, err := r.db.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return collectProducts(rows)
}

// LockForUpdate takes row locks in primary key order so two orders touching the
// same products in different item order cannot deadlock.
func (r *PostgresProducts) LockForUpdate(ctx context.Context, ids []uuid.UUID) ([]domain.Product, error) {
	query := productSelect + ` WHERE p.id = ANY($1::uuid[]) ORDER BY p.id FOR UPDATE OF p`
	rows, err := r.db.q(ctx).Query(ctx, query, uuidStrings(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to lock products: %w", err)
	}
	return collectProducts(rows)
}

func (r *PostgresProducts) SetStock(ctx context.Context, id uuid.UUID, stock int) error {
	query := `UPDATE products SET stock = $2, updated_at = NOW() WHERE id = $1`
	if err := mustAffect(r.db.q(ctx).Exec(ctx, query, id, stock)); err != nil {
		return fmt.Errorf("failed to set stock: %w", err)
	}
	return nil
}

const clientColumns = `id, first_name, last_name, email, phone, address, city, country, notes, created_by, created_at, updated_at`

var clientSelect = `SELECT ` + prefixColumns("c", clientColumns) + `, ` + creatorColumns + `
	FROM clients c LEFT JOIN users u ON u.id = c.created_by`

// PostgresClients ClientRepository на PostgreSQL
type PostgresClients struct{ db *Postgres }

var _ ClientRepository = (*PostgresClients)(nil)

func scanClient(row pgx.Row) (*domain.Client, error) {
	var c domain.Client
	creator, summary := creatorDest()
	if err := row.Scan(append(clientDest(&c), creator...)...); err != nil {
		return nil, err
	}
	c.Creator = summary()
	return &c, nil
}

func (r *PostgresClients) Create(ctx context.Context, c *domain.Client) error {
	c.ID = uuid.New()
	query := `
		INSERT INTO clients (id, first_name, last_name, email, phone, address, city, country, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`
	err := r.db.q(ctx).QueryRow(ctx, query,
		c.ID, c.FirstName, c.LastName, c.Email, c.Phone, c.Address, c.City, c.Country, c.Notes, c.CreatedBy,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", mapError(err))
	}
	return nil
}

func (r *PostgresClients) GetByID(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	c, err := scanClient(r.db.q(ctx).QueryRow(ctx, clientSelect+` WHERE c.id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", mapError(err))
	}
	return c, nil
}

func (r *PostgresClients) Update(ctx context.Context, c *domain.Client) error {
	query := `
		UPDATE clients
		SET first_name = $2, last_name = $3, email = $4, phone = $5, address = $6,
		    city = $7, country = $8, notes = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING created_by, created_at, updated_at
	`
	err := r.db.q(ctx).QueryRow(ctx, query,
		c.ID, c.FirstName, c.LastName, c.Email, c.Phone, c.Address, c.City, c.Country, c.Notes,
	).Scan(&c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update client: %w", mapError(err))
	}
	return nil
}

func (r *PostgresClients) Delete(ctx context.Context, id uuid.UUID) error {
	if err := mustAffect(r.db.q(ctx).Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)); err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	return nil
}

func (r *PostgresClients) List(ctx context.Context) ([]domain.Client, error) {
	rows, err := r.db.q(ctx).Query(ctx, clientSelect+` ORDER BY c.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	clients := make([]domain.Client, 0)
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, *c)
	}
	return clients, rows.Err()
}

const commentColumns = `id, content, related_to, related_id, created_by, created_at, updated_at`

var commentSelect = `SELECT ` + prefixColumns("c", commentColumns) + `, ` + creatorColumns + `
	FROM comments c LEFT JOIN users u ON u.id = c.created_by`

// PostgresComments CommentRepository на PostgreSQL
type PostgresComments struct{ db *Postgres }

var _ CommentRepository = (*PostgresComments)(nil)

func scanComment(row pgx.Row) (*domain.Comment, error) {
	var (
		c         domain.Comment
		relatedTo string
	)
	creator, summary := creatorDest()
	err := row.Scan(append([]any{&c.ID, &c.Content, &relatedTo, &c.RelatedID, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt}, creator...)...)
	if err != nil {
		return nil, err
	}
	c.RelatedTo = domain.CommentTarget(relatedTo)
	c.Creator = summary()
	return &c, nil
}

func (r *PostgresComments) Create(ctx context.Context, c *domain.Comment) error {
	c.ID = uuid.New()
	query := `
		INSERT INTO comments (id, content, related_to, related_id, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`
	err := r.db.q(ctx).QueryRow(ctx, query,
		c.ID, c.Content, string(c.RelatedTo), c.RelatedID, c.CreatedBy,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", mapError(err))
	}
	return nil
}

func (r *PostgresComments) GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	c, err := scanComment(r.db.q(ctx).QueryRow(ctx, commentSelect+` WHERE c.id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get comment: %w", mapError(err))
	}
	return c, nil
}

func (r *PostgresComments) Update(ctx context.Context, c *domain.Comment) error {
	query := `
		UPDATE comments
		SET content = $2, related_to = $3, related_id = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING created_by, created_at, updated_at
	`
	err := r.db.q(ctx).QueryRow(ctx, query,
		c.ID, c.Content, string(c.RelatedTo), c.RelatedID,
	).Scan(&c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update comment: %w", mapError(err))
	}
	return nil
}

func (r *PostgresComments) Delete(ctx context.Context, id uuid.UUID) error {
	if err := mustAffect(r.db.q(ctx).Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)); err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return nil
}

func (r *PostgresComments) List(ctx context.Context, f CommentFilter) ([]domain.Comment, error) {
	var (
		where []string
		args  []any
	)
	if f.RelatedTo != "" {
		args = append(args, string(f.RelatedTo))
		where = append(where, fmt.Sprintf("c.related_to = $%d", len(args)))
	}
	if f.RelatedID != nil {
		args = append(args, *f.RelatedID)
		where = append(where, fmt.Sprintf("c.related_id = $%d", len(args)))
	}
	query := commentSelect
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY c.created_at DESC`

	rows, err := r.db.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments := make([]domain.Comment, 0)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, *c)
	}
	return comments, rows.Err()
}
