package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/lo"

	"inventory/internal/database"
	"inventory/internal/domain"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pgTxKey struct{}

// Postgres общий доступ к пулу; внутри транзакции запросы идут через pgx.Tx из контекста
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres { return &Postgres{pool: pool} }

func (db *Postgres) q(ctx context.Context) querier {
	if tx, ok := ctx.Value(pgTxKey{}).(pgx.Tx); ok {
		return tx
	}
	return db.pool
}

// NewPostgresRepositories wires every repository over pool.
func NewPostgresRepositories(pool *pgxpool.Pool) *Repositories {
	db := NewPostgres(pool)
	return &Repositories{
		Users:       &PostgresUsers{db: db},
		Permissions: &PostgresPermissions{db: db},
		Products:    &PostgresProducts{db: db},
		Clients:     &PostgresClients{db: db},
		Orders:      &PostgresOrders{db: db},
		Comments:    &PostgresComments{db: db},
		Tx:          &PostgresTx{db: db},
	}
}

// PostgresTx открывает транзакцию и кладёт её в контекст для репозиториев
type PostgresTx struct{ db *Postgres }

func NewPostgresTx(db *Postgres) *PostgresTx { return &PostgresTx{db: db} }

func (t *PostgresTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(pgTxKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}
	tx, err := t.db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	// no-op after a successful commit
	defer tx.Rollback(ctx)

	if err := fn(context.WithValue(ctx, pgTxKey{}, tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", mapError(err))
	}
	return nil
}

// mapError translates driver errors into repository sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			if pgErr.ConstraintName == database.ConstraintOrderNumber {
				return ErrDuplicateOrderNumber
			}
			return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
		case "23503":
			return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
		}
	}
	return err
}

// mustAffect turns an UPDATE/DELETE that touched nothing into ErrNotFound.
func mustAffect(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// creatorColumns selects the author through "LEFT JOIN users u".
const creatorColumns = `u.id, u.first_name, u.last_name, u.email`

// creatorDest returns scan targets for creatorColumns and a func building the summary.
func creatorDest() ([]any, func() *domain.UserSummary) {
	var (
		id                 *uuid.UUID
		first, last, email *string
	)
	return []any{&id, &first, &last, &email}, func() *domain.UserSummary {
		if id == nil {
			return nil
		}
		return &domain.UserSummary{ID: *id, FirstName: *first, LastName: *last, Email: *email}
	}
}

func uuidStrings(ids []uuid.UUID) []string {
	return lo.Map(ids, func(id uuid.UUID, _ int) string { return id.String() })
}
