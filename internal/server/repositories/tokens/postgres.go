// Package tokens provides a PostgreSQL-backed repository for the refresh and
// password reset token records used by the authentication flows.
package tokens

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

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const tokenColumns = `id, user_id, value, purpose, expires_at, created_at, updated_at`

// Insert stores token and fills in its id and timestamps. A record that a
// concurrent transaction inserted for the same (user, purpose) is overwritten.
func (r *PostgresRepository) Insert(ctx context.Context, token *models.Token) error {
	query := `
		INSERT INTO tokens (user_id, value, purpose, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, purpose)
		DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at, updated_at = now()
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, token.UserID, token.Value, string(token.Purpose), token.ExpiresAt).
		Scan(&token.ID, &token.CreatedAt, &token.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// DeleteByUserPurpose removes the record for (userID, purpose), if any.
func (r *PostgresRepository) DeleteByUserPurpose(ctx context.Context, userID string, purpose models.TokenPurpose) (int64, error) {
	query := `
		DELETE FROM tokens
		WHERE user_id = $1 AND purpose = $2
	`
	return r.exec(ctx, query, userID, string(purpose))
}

// DeleteAllForUser removes every record owned by userID.
func (r *PostgresRepository) DeleteAllForUser(ctx context.Context, userID string) (int64, error) {
	query := `
		DELETE FROM tokens
		WHERE user_id = $1
	`
	return r.exec(ctx, query, userID)
}

// FindBySubjectAndValue returns the record matching all three keys or
// common.ErrorNotFound.
func (r *PostgresRepository) FindBySubjectAndValue(ctx context.Context, userID, value string, purpose models.TokenPurpose, forUpdate bool) (*models.Token, error) {
	query := `
		SELECT ` + tokenColumns + `
		FROM tokens
		WHERE user_id = $1 AND value = $2 AND purpose = $3
	` + lockClause(forUpdate)
	return scanToken(r.db.QueryRowContext(ctx, query, userID, value, string(purpose)))
}

// FindByValue returns the record with the given value and purpose or
// common.ErrorNotFound.
func (r *PostgresRepository) FindByValue(ctx context.Context, value string, purpose models.TokenPurpose, forUpdate bool) (*models.Token, error) {
	query := `
		SELECT ` + tokenColumns + `
		FROM tokens
		WHERE value = $1 AND purpose = $2
	` + lockClause(forUpdate)
	return scanToken(r.db.QueryRowContext(ctx, query, value, string(purpose)))
}

// DeleteExpired removes every record whose expiry is before now.
func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
		DELETE FROM tokens
		WHERE expires_at IS NOT NULL AND expires_at < $1
	`
	return r.exec(ctx, query, now)
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func lockClause(forUpdate bool) string {
	if forUpdate {
		return "FOR UPDATE"
	}
	return ""
}

func scanToken(row *sql.Row) (*models.Token, error) {
	t := &models.Token{}
	var purpose string
	err := row.Scan(&t.ID, &t.UserID, &t.Value, &purpose, &t.ExpiresAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	t.Purpose = models.TokenPurpose(purpose)
	return t, nil
}
