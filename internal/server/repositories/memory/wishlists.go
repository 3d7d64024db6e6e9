package memory

import (
	"context"
	"sort"
	"time"

	"github.com/dmitrijs2005/wishlist/internal/common"
	"github.com/dmitrijs2005/wishlist/internal/server/models"
	"github.com/google/uuid"
)

type wishlistStore struct {
	m *Manager
	j *journal
}

func (s *wishlistStore) owned(userID, id string) *models.Wishlist {
	wl, ok := s.m.wishlists[id]
	if !ok || wl.UserID != userID || wl.DeletedAt != nil {
		return nil
	}
	return wl
}

func (s *wishlistStore) Create(_ context.Context, wl *models.Wishlist) (*models.Wishlist, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	now := s.m.clock.Now()
	stored := *wl
	stored.ID = uuid.NewString()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	remember(s.j, s.m.wishlists, stored.ID)
	s.m.wishlists[stored.ID] = &stored

	c := stored
	return &c, nil
}

func (s *wishlistStore) Get(_ context.Context, userID, id string) (*models.Wishlist, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	wl := s.owned(userID, id)
	if wl == nil {
		return nil, common.ErrorNotFound
	}
	c := *wl
	return &c, nil
}

func (s *wishlistStore) List(_ context.Context, userID string, limit, offset int) ([]models.Wishlist, int, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	var all []models.Wishlist
	for _, wl := range s.m.wishlists {
		if wl.UserID == userID && wl.DeletedAt == nil {
			all = append(all, *wl)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})
	return paginate(all, limit, offset), len(all), nil
}

func (s *wishlistStore) Update(_ context.Context, userID, id string, patch models.WishlistPatch) (*models.Wishlist, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	wl := s.owned(userID, id)
	if wl == nil {
		return nil, common.ErrorNotFound
	}
	remember(s.j, s.m.wishlists, id)
	if patch.Title != nil {
		wl.Title = *patch.Title
	}
	if patch.Description != nil {
		d := *patch.Description
		wl.Description = &d
	}
	if patch.IsPublic != nil {
		wl.IsPublic = *patch.IsPublic
	}
	wl.UpdatedAt = s.m.clock.Now()

	c := *wl
	return &c, nil
}

func (s *wishlistStore) SoftDelete(_ context.Context, userID, id string, at time.Time) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	wl := s.owned(userID, id)
	if wl == nil {
		return common.ErrorNotFound
	}
	remember(s.j, s.m.wishlists, id)
	wl.DeletedAt = &at
	wl.UpdatedAt = at

	for wid, w := range s.m.wishes {
		if w.WishlistID == id && w.DeletedAt == nil {
			remember(s.j, s.m.wishes, wid)
			w.DeletedAt = &at
			w.UpdatedAt = at
		}
	}
	return nil
}
