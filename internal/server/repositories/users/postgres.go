// Package users provides the PostgreSQL-backed user store.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/wishlist/internal/common"
	"github.com/dmitrijs2005/wishlist/internal/dbx"
	"github.com/dmitrijs2005/wishlist/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const (
	publicColumns = `id, email, name, created_at, updated_at`
	secretColumns = `id, email, name, created_at, updated_at, password_hash`
)

func columns(withPassword bool) string {
	if withPassword {
		return secretColumns
	}
	return publicColumns
}

func scanUser(row *sql.Row, withPassword bool) (*models.User, error) {
	u := &models.User{}
	dest := []any{&u.ID, &u.Email, &u.Name, &u.CreatedAt, &u.UpdatedAt}
	if withPassword {
		dest = append(dest, &u.PasswordHash)
	}
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

// Create inserts user and fills in the generated id and timestamps.
// A taken email yields common.ErrorAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (email, name, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query, user.Email, user.Name, user.PasswordHash).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string, withPassword bool) (*models.User, error) {
	query := `SELECT ` + columns(withPassword) + ` FROM users
		 WHERE email = $1 AND deleted_at IS NULL`

	return scanUser(r.db.QueryRowContext(ctx, query, email), withPassword)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string, withPassword bool) (*models.User, error) {
	query := `SELECT ` + columns(withPassword) + ` FROM users
		 WHERE id = $1 AND deleted_at IS NULL`

	return scanUser(r.db.QueryRowContext(ctx, query, id), withPassword)
}

func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, id string, hash string) error {
	query :=
		`UPDATE users SET password_hash = $2, updated_at = now()
		 WHERE id = $1 AND deleted_at IS NULL`

	res, err := r.db.ExecContext(ctx, query, id, hash)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireAffected(res)
}

// UpdateProfile sets the non-nil fields and returns the updated user.
func (r *PostgresRepository) UpdateProfile(ctx context.Context, id string, name *string, email *string) (*models.User, error) {
	query :=
		`UPDATE users SET name = COALESCE($2, name), email = COALESCE($3, email), updated_at = now()
		 WHERE id = $1 AND deleted_at IS NULL
		 RETURNING ` + publicColumns

	u, err := scanUser(r.db.QueryRowContext(ctx, query, id, name, email), false)
	if err != nil && dbx.IsUniqueViolation(err) {
		return nil, common.ErrorAlreadyExists
	}
	return u, err
}

func (r *PostgresRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	query :=
		`UPDATE users SET deleted_at = $2, updated_at = $2
		 WHERE id = $1 AND deleted_at IS NULL`

	res, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
