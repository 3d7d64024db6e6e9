package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/wishlist/internal/server/models"
)

// Repository is the user store. Soft-deleted users are invisible to every
// method. The password hash is only loaded when withPassword is set.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByEmail(ctx context.Context, email string, withPassword bool) (*models.User, error)
	GetByID(ctx context.Context, id string, withPassword bool) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, id string, hash string) error
	UpdateProfile(ctx context.Context, id string, name *string, email *string) (*models.User, error)
	SoftDelete(ctx context.Context, id string, at time.Time) error
}
