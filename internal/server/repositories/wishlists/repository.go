package wishlists

import (
	"context"
	"time"

	"github.com/dmitrijs2005/wishlist/internal/server/models"
)

// Repository stores wishlists. Every method is scoped to the owning user;
// rows of other users and soft-deleted rows behave as missing.
type Repository interface {
	Create(ctx context.Context, wl *models.Wishlist) (*models.Wishlist, error)
	Get(ctx context.Context, userID, id string) (*models.Wishlist, error)
	List(ctx context.Context, userID string, limit, offset int) ([]models.Wishlist, int, error)
	Update(ctx context.Context, userID, id string, patch models.WishlistPatch) (*models.Wishlist, error)
	SoftDelete(ctx context.Context, userID, id string, at time.Time) error
}
