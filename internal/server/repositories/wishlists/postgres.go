// Package wishlists provides the PostgreSQL-backed wishlist store.
package wishlists

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

const wishlistColumns = `id, user_id, title, description, is_public, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanWishlist(s scanner) (*models.Wishlist, error) {
	wl := &models.Wishlist{}
	if err := s.Scan(&wl.ID, &wl.UserID, &wl.Title, &wl.Description, &wl.IsPublic, &wl.CreatedAt, &wl.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return wl, nil
}

func (r *PostgresRepository) Create(ctx context.Context, wl *models.Wishlist) (*models.Wishlist, error) {
	query :=
		`INSERT INTO wishlists (user_id, title, description, is_public)
		 VALUES ($1, $2, $3, $4)
		 RETURNING ` + wishlistColumns

	return scanWishlist(r.db.QueryRowContext(ctx, query, wl.UserID, wl.Title, wl.Description, wl.IsPublic))
}

func (r *PostgresRepository) Get(ctx context.Context, userID, id string) (*models.Wishlist, error) {
	query :=
		`SELECT ` + wishlistColumns + ` FROM wishlists
		 WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`

	return scanWishlist(r.db.QueryRowContext(ctx, query, id, userID))
}

// List returns one page of the user's wishlists, newest first, and the total count.
func (r *PostgresRepository) List(ctx context.Context, userID string, limit, offset int) ([]models.Wishlist, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM wishlists WHERE user_id = $1 AND deleted_at IS NULL`
	if err := r.db.QueryRowContext(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	query :=
		`SELECT ` + wishlistColumns + ` FROM wishlists
		 WHERE user_id = $1 AND deleted_at IS NULL
		 ORDER BY created_at DESC, id
		 LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	items := make([]models.Wishlist, 0, limit)
	for rows.Next() {
		wl, err := scanWishlist(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *wl)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	return items, total, nil
}

func (r *PostgresRepository) Update(ctx context.Context, userID, id string, patch models.WishlistPatch) (*models.Wishlist, error) {
	query :=
		`UPDATE wishlists SET
		   title = COALESCE($3, title),
		   description = COALESCE($4, description),
		   is_public = COALESCE($5, is_public),
		   updated_at = now()
		 WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
		 RETURNING ` + wishlistColumns

	return scanWishlist(r.db.QueryRowContext(ctx, query, id, userID, patch.Title, patch.Description, patch.IsPublic))
}

// SoftDelete marks the wishlist and all of its wishes deleted.
func (r *PostgresRepository) SoftDelete(ctx context.Context, userID, id string, at time.Time) error {
	query :=
		`UPDATE wishlists SET deleted_at = $3, updated_at = $3
		 WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`

	res, err := r.db.ExecContext(ctx, query, id, userID, at)
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

	wishesQuery :=
		`UPDATE wishes SET deleted_at = $2, updated_at = $2
		 WHERE wishlist_id = $1 AND deleted_at IS NULL`
	if _, err := r.db.ExecContext(ctx, wishesQuery, id, at); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
