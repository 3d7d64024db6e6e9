// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/wishlist/internal/dbx"
	"github.com/dmitrijs2005/wishlist/internal/server/migrations"
	"github.com/dmitrijs2005/wishlist/internal/server/repositories/tokens"
	"github.com/dmitrijs2005/wishlist/internal/server/repositories/users"
	"github.com/dmitrijs2005/wishlist/internal/server/repositories/wishes"
	"github.com/dmitrijs2005/wishlist/internal/server/repositories/wishlists"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

// Users returns a users.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

// Tokens returns a tokens.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Tokens(db dbx.DBTX) tokens.Repository {
	return tokens.NewPostgresRepository(db)
}

// Wishlists returns a wishlists.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Wishlists(db dbx.DBTX) wishlists.Repository {
	return wishlists.NewPostgresRepository(db)
}

// Wishes returns a wishes.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Wishes(db dbx.DBTX) wishes.Repository {
	return wishes.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}
