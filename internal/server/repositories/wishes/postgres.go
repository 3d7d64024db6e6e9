// Package wishes provides the PostgreSQL-backed wish store.
package wishes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
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

const wishColumns = `id, wishlist_id, user_id, title, description, url, price_cents, priority, status, image_key, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanWish(s scanner) (*models.Wish, error) {
	w := &models.Wish{}
	var status string
	err := s.Scan(&w.ID, &w.WishlistID, &w.UserID, &w.Title, &w.Description, &w.URL,
		&w.PriceCents, &w.Priority, &status, &w.ImageKey, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	w.Status = models.WishStatus(status)
	return w, nil
}

func (r *PostgresRepository) Create(ctx context.Context, w *models.Wish) (*models.Wish, error) {
	query :=
		`INSERT INTO wishes (wishlist_id, user_id, title, description, url, price_cents, priority, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING ` + wishColumns

	return scanWish(r.db.QueryRowContext(ctx, query,
		w.WishlistID, w.UserID, w.Title, w.Description, w.URL, w.PriceCents, w.Priority, string(w.Status)))
}

func (r *PostgresRepository) Get(ctx context.Context, userID, id string) (*models.Wish, error) {
	query :=
		`SELECT ` + wishColumns + ` FROM wishes
		 WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`

	return scanWish(r.db.QueryRowContext(ctx, query, id, userID))
}

// List returns one page of the user's wishes matching filter, highest
// priority first, and the total number of matches.
func (r *PostgresRepository) List(ctx context.Context, userID string, filter models.WishFilter, limit, offset int) ([]models.Wish, int, error) {
	where := []string{"user_id = $1", "deleted_at IS NULL"}
	args := []any{userID}
	if filter.WishlistID != "" {
		args = append(args, filter.WishlistID)
		where = append(where, fmt.Sprintf("wishlist_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM wishes WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	query := fmt.Sprintf(
		`SELECT %s FROM wishes WHERE %s ORDER BY priority DESC, created_at DESC, id LIMIT $%d OFFSET $%d`,
		wishColumns, cond, len(args)+1, len(args)+2)

	rows, err := r.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	items := make([]models.Wish, 0, limit)
	for rows.Next() {
		w, err := scanWish(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	return items, total, nil
}

func (r *PostgresRepository) Update(ctx context.Context, userID, id string, patch models.WishPatch) (*models.Wish, error) {
	var status *string
	if patch.Status != nil {
		s := string(*patch.Status)
		status = &s
	}

	query :=
		`UPDATE wishes SET
		   wishlist_id = COALESCE($3, wishlist_id),
		   title = COALESCE($4, title),
		   description = COALESCE($5, description),
		   url = COALESCE($6, url),
		   price_cents = COALESCE($7, price_cents),
		   priority = COALESCE($8, priority),
		   status = COALESCE($9, status),
		   updated_at = now()
		 WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
		 RETURNING ` + wishColumns

	return scanWish(r.db.QueryRowContext(ctx, query, id, userID,
		patch.WishlistID, patch.Title, patch.Description, patch.URL, patch.PriceCents, patch.Priority, status))
}

func (r *PostgresRepository) SetImageKey(ctx context.Context, userID, id, key string) error {
	query :=
		`UPDATE wishes SET image_key = $3, updated_at = now()
		 WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`

	return r.execOne(ctx, query, id, userID, key)
}

func (r *PostgresRepository) SoftDelete(ctx context.Context, userID, id string, at time.Time) error {
	query :=
		`UPDATE wishes SET deleted_at = $3, updated_at = $3
		 WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`

	return r.execOne(ctx, query, id, userID, at)
}

func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
