package wishes

import (
	"context"
	"time"

	"github.com/dmitrijs2005/wishlist/internal/server/models"
)

// Repository stores wishes, scoped to the owning user like the wishlist store.
type Repository interface {
	Create(ctx context.Context, w *models.Wish) (*models.Wish, error)
	Get(ctx context.Context, userID, id string) (*models.Wish, error)
	List(ctx context.Context, userID string, filter models.WishFilter, limit, offset int) ([]models.Wish, int, error)
	Update(ctx context.Context, userID, id string, patch models.WishPatch) (*models.Wish, error)
	SetImageKey(ctx context.Context, userID, id, key string) error
	SoftDelete(ctx context.Context, userID, id string, at time.Time) error
}
