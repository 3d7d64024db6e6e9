package services

import (
	"context"

	"github.com/dmitrijs2005/wishlist/internal/common"
	"github.com/dmitrijs2005/wishlist/internal/dbx"
	"github.com/dmitrijs2005/wishlist/internal/server/models"
	"github.com/dmitrijs2005/wishlist/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/wishlist/internal/timex"
	"github.com/google/uuid"
)

// validID rejects ids that cannot name a stored row, so malformed path
// parameters read as "not found" rather than reaching the database.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

type WishlistService struct {
	tx          dbx.Transactor
	repomanager repomanager.RepositoryManager
	clock       timex.Clock
}

func NewWishlistService(tx dbx.Transactor, m repomanager.RepositoryManager, clock timex.Clock) *WishlistService {
	if clock == nil {
		clock = timex.SystemClock{}
	}
	return &WishlistService{tx: tx, repomanager: m, clock: clock}
}

func (s *WishlistService) Create(ctx context.Context, userID, title string, description *string, isPublic bool) (*models.Wishlist, error) {
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	return s.repomanager.Wishlists(s.tx.DB()).Create(ctx, &models.Wishlist{
		UserID:      userID,
		Title:       title,
		Description: description,
		IsPublic:    isPublic,
	})
}

// Get returns the wishlist if userID owns it; otherwise common.ErrorNotFound.
func (s *WishlistService) Get(ctx context.Context, userID, id string) (*models.Wishlist, error) {
	if !validID(id) {
		return nil, common.ErrorNotFound
	}
	return s.repomanager.Wishlists(s.tx.DB()).Get(ctx, userID, id)
}

func (s *WishlistService) List(ctx context.Context, userID string, page models.PageRequest) (*models.Page[models.Wishlist], error) {
	page = page.Normalize()
	items, total, err := s.repomanager.Wishlists(s.tx.DB()).List(ctx, userID, page.Limit, page.Offset())
	if err != nil {
		return nil, err
	}
	return &models.Page[models.Wishlist]{Items: items, Total: total, Page: page.Page, Limit: page.Limit}, nil
}

func (s *WishlistService) Update(ctx context.Context, userID, id string, patch models.WishlistPatch) (*models.Wishlist, error) {
	if !validID(id) {
		return nil, common.ErrorNotFound
	}
	if patch.Title != nil {
		if err := validateTitle(*patch.Title); err != nil {
			return nil, err
		}
	}
	return s.repomanager.Wishlists(s.tx.DB()).Update(ctx, userID, id, patch)
}

// Delete soft-deletes the wishlist together with its wishes.
func (s *WishlistService) Delete(ctx context.Context, userID, id string) error {
	if !validID(id) {
		return common.ErrorNotFound
	}
	return s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repomanager.Wishlists(tx).SoftDelete(ctx, userID, id, s.clock.Now())
	})
}
