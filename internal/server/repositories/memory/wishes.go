package memory

import (
	"context"
	"sort"
	"time"

	"github.com/dmitrijs2005/wishlist/internal/common"
	"github.com/dmitrijs2005/wishlist/internal/server/models"
	"github.com/google/uuid"
)

type wishStore struct {
	m *Manager
	j *journal
}

func (s *wishStore) owned(userID, id string) *models.Wish {
	w, ok := s.m.wishes[id]
	if !ok || w.UserID != userID || w.DeletedAt != nil {
		return nil
	}
	return w
}

func (s *wishStore) Create(_ context.Context, w *models.Wish) (*models.Wish, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	now := s.m.clock.Now()
	stored := *w
	stored.ID = uuid.NewString()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	remember(s.j, s.m.wishes, stored.ID)
	s.m.wishes[stored.ID] = &stored

	c := stored
	return &c, nil
}

func (s *wishStore) Get(_ context.Context, userID, id string) (*models.Wish, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	w := s.owned(userID, id)
	if w == nil {
		return nil, common.ErrorNotFound
	}
	c := *w
	return &c, nil
}

func (s *wishStore) List(_ context.Context, userID string, filter models.WishFilter, limit, offset int) ([]models.Wish, int, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	var all []models.Wish
	for _, w := range s.m.wishes {
		if w.UserID != userID || w.DeletedAt != nil {
			continue
		}
		if filter.WishlistID != "" && w.WishlistID != filter.WishlistID {
			continue
		}
		if filter.Status != "" && w.Status != filter.Status {
			continue
		}
		all = append(all, *w)
	}
	sort.Slice(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return paginate(all, limit, offset), len(all), nil
}

func (s *wishStore) Update(_ context.Context, userID, id string, patch models.WishPatch) (*models.Wish, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	w := s.owned(userID, id)
	if w == nil {
		return nil, common.ErrorNotFound
	}
	remember(s.j, s.m.wishes, id)
	if patch.WishlistID != nil {
		w.WishlistID = *patch.WishlistID
	}
	if patch.Title != nil {
		w.Title = *patch.Title
	}
	if patch.Description != nil {
		v := *patch.Description
		w.Description = &v
	}
	if patch.URL != nil {
		v := *patch.URL
		w.URL = &v
	}
	if patch.PriceCents != nil {
		v := *patch.PriceCents
		w.PriceCents = &v
	}
	if patch.Priority != nil {
		w.Priority = *patch.Priority
	}
	if patch.Status != nil {
		w.Status = *patch.Status
	}
	w.UpdatedAt = s.m.clock.Now()

	c := *w
	return &c, nil
}

func (s *wishStore) SetImageKey(_ context.Context, userID, id, key string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	w := s.owned(userID, id)
	if w == nil {
		return common.ErrorNotFound
	}
	remember(s.j, s.m.wishes, id)
	w.ImageKey = &key
	w.UpdatedAt = s.m.clock.Now()
	return nil
}

func (s *wishStore) SoftDelete(_ context.Context, userID, id string, at time.Time) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	w := s.owned(userID, id)
	if w == nil {
		return common.ErrorNotFound
	}
	remember(s.j, s.m.wishes, id)
	w.DeletedAt = &at
	w.UpdatedAt = at
	return nil
}
