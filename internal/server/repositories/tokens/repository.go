package tokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/wishlist/internal/server/models"
)

// Repository persists token records. The store holds at most one record per
// (user, purpose); inserting a second one overwrites the first.
type Repository interface {
	Insert(ctx context.Context, token *models.Token) error
	DeleteByUserPurpose(ctx context.Context, userID string, purpose models.TokenPurpose) (int64, error)
	DeleteAllForUser(ctx context.Context, userID string) (int64, error)
	// FindBySubjectAndValue and FindByValue lock the returned row until the
	// surrounding transaction ends when forUpdate is set.
	FindBySubjectAndValue(ctx context.Context, userID, value string, purpose models.TokenPurpose, forUpdate bool) (*models.Token, error)
	FindByValue(ctx context.Context, value string, purpose models.TokenPurpose, forUpdate bool) (*models.Token, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
