package services

import (
	"context"

	"github.com/dmitrijs2005/wishlist/internal/common"
	"github.com/dmitrijs2005/wishlist/internal/dbx"
	"github.com/dmitrijs2005/wishlist/internal/server/models"
	"github.com/dmitrijs2005/wishlist/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/wishlist/internal/timex"
)

// NewWish is the input for WishService.Create. Zero Priority and empty
// Status take the defaults.
type NewWish struct {
	WishlistID  string
	Title       string
	Description *string
	URL         *string
	PriceCents  *int64
	Priority    int
	Status      models.WishStatus
}

type WishService struct {
	tx          dbx.Transactor
	repomanager repomanager.RepositoryManager
	clock       timex.Clock
}

func NewWishService(tx dbx.Transactor, m repomanager.RepositoryManager, clock timex.Clock) *WishService {
	if clock == nil {
		clock = timex.SystemClock{}
	}
	return &WishService{tx: tx, repomanager: m, clock: clock}
}

// ownList checks that the wishlist exists and belongs to userID.
func (s *WishService) ownList(ctx context.Context, db dbx.DBTX, userID, wishlistID string) error {
	if !validID(wishlistID) {
		return common.ErrorNotFound
	}
	_, err := s.repomanager.Wishlists(db).Get(ctx, userID, wishlistID)
	return err
}

func (s *WishService) Create(ctx context.Context, userID string, in NewWish) (*models.Wish, error) {
	if in.Priority == 0 {
		in.Priority = models.DefaultPriority
	}
	if in.Status == "" {
		in.Status = models.WishActive
	}
	if err := validateTitle(in.Title); err != nil {
		return nil, err
	}
	if err := validatePriority(in.Priority); err != nil {
		return nil, err
	}
	if err := validateStatus(in.Status); err != nil {
		return nil, err
	}
	if in.PriceCents != nil && *in.PriceCents < 0 {
		return nil, validationError("price must not be negative")
	}

	var wish *models.Wish
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.ownList(ctx, tx, userID, in.WishlistID); err != nil {
			return err
		}
		var err error
		wish, err = s.repomanager.Wishes(tx).Create(ctx, &models.Wish{
			WishlistID:  in.WishlistID,
			UserID:      userID,
			Title:       in.Title,
			Description: in.Description,
			URL:         in.URL,
			PriceCents:  in.PriceCents,
			Priority:    in.Priority,
			Status:      in.Status,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return wish, nil
}

func (s *WishService) Get(ctx context.Context, userID, id string) (*models.Wish, error) {
	if !validID(id) {
		return nil, common.ErrorNotFound
	}
	return s.repomanager.Wishes(s.tx.DB()).Get(ctx, userID, id)
}

func (s *WishService) List(ctx context.Context, userID string, filter models.WishFilter, page models.PageRequest) (*models.Page[models.Wish], error) {
	if filter.Status != "" {
		if err := validateStatus(filter.Status); err != nil {
			return nil, err
		}
	}
	if filter.WishlistID != "" && !validID(filter.WishlistID) {
		return nil, common.ErrorNotFound
	}

	page = page.Normalize()
	items, total, err := s.repomanager.Wishes(s.tx.DB()).List(ctx, userID, filter, page.Limit, page.Offset())
	if err != nil {
		return nil, err
	}
	return &models.Page[models.Wish]{Items: items, Total: total, Page: page.Page, Limit: page.Limit}, nil
}

// Update applies patch. Moving a wish to another wishlist requires owning
// that list too.
func (s *WishService) Update(ctx context.Context, userID, id string, patch models.WishPatch) (*models.Wish, error) {
	if !validID(id) {
		return nil, common.ErrorNotFound
	}
	if patch.Title != nil {
		if err := validateTitle(*patch.Title); err != nil {
			return nil, err
		}
	}
	if patch.Priority != nil {
		if err := validatePriority(*patch.Priority); err != nil {
			return nil, err
		}
	}
	if patch.Status != nil {
		if err := validateStatus(*patch.Status); err != nil {
			return nil, err
		}
	}
	if patch.PriceCents != nil && *patch.PriceCents < 0 {
		return nil, validationError("price must not be negative")
	}

	var wish *models.Wish
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if patch.WishlistID != nil {
			if err := s.ownList(ctx, tx, userID, *patch.WishlistID); err != nil {
				return err
			}
		}
		var err error
		wish, err = s.repomanager.Wishes(tx).Update(ctx, userID, id, patch)
		return err
	})
	if err != nil {
		return nil, err
	}
	return wish, nil
}

// SetStatus moves a wish to status. Any status may follow any other.
func (s *WishService) SetStatus(ctx context.Context, userID, id string, status models.WishStatus) (*models.Wish, error) {
	return s.Update(ctx, userID, id, models.WishPatch{Status: &status})
}

func (s *WishService) Delete(ctx context.Context, userID, id string) error {
	if !validID(id) {
		return common.ErrorNotFound
	}
	return s.repomanager.Wishes(s.tx.DB()).SoftDelete(ctx, userID, id, s.clock.Now())
}
