package memory

import (
	"context"
	"time"

	"github.com/dmitrijs2005/wishlist/internal/common"
	"github.com/dmitrijs2005/wishlist/internal/server/models"
	"github.com/google/uuid"
)

type userStore struct {
	m *Manager
	j *journal
}

func (s *userStore) liveByEmail(email string) *models.User {
	for _, u := range s.m.users {
		if u.DeletedAt == nil && u.Email == email {
			return u
		}
	}
	return nil
}

func (s *userStore) live(id string) *models.User {
	u, ok := s.m.users[id]
	if !ok || u.DeletedAt != nil {
		return nil
	}
	return u
}

func view(u *models.User, withPassword bool) *models.User {
	c := *u
	if !withPassword {
		c.PasswordHash = nil
	}
	return &c
}

func (s *userStore) Create(_ context.Context, user *models.User) (*models.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if s.liveByEmail(user.Email) != nil {
		return nil, common.ErrorAlreadyExists
	}

	now := s.m.clock.Now()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now

	stored := *user
	remember(s.j, s.m.users, user.ID)
	s.m.users[user.ID] = &stored
	return user, nil
}

func (s *userStore) FindByEmail(_ context.Context, email string, withPassword bool) (*models.User, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	u := s.liveByEmail(email)
	if u == nil {
		return nil, common.ErrorNotFound
	}
	return view(u, withPassword), nil
}

func (s *userStore) GetByID(_ context.Context, id string, withPassword bool) (*models.User, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	u := s.live(id)
	if u == nil {
		return nil, common.ErrorNotFound
	}
	return view(u, withPassword), nil
}

func (s *userStore) UpdatePasswordHash(_ context.Context, id string, hash string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	u := s.live(id)
	if u == nil {
		return common.ErrorNotFound
	}
	remember(s.j, s.m.users, id)
	u.PasswordHash = &hash
	u.UpdatedAt = s.m.clock.Now()
	return nil
}

func (s *userStore) UpdateProfile(_ context.Context, id string, name *string, email *string) (*models.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	u := s.live(id)
	if u == nil {
		return nil, common.ErrorNotFound
	}
	if email != nil {
		if other := s.liveByEmail(*email); other != nil && other.ID != id {
			return nil, common.ErrorAlreadyExists
		}
	}
	remember(s.j, s.m.users, id)
	if email != nil {
		u.Email = *email
	}
	if name != nil {
		n := *name
		u.Name = &n
	}
	u.UpdatedAt = s.m.clock.Now()
	return view(u, false), nil
}

func (s *userStore) SoftDelete(_ context.Context, id string, at time.Time) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	u := s.live(id)
	if u == nil {
		return common.ErrorNotFound
	}
	remember(s.j, s.m.users, id)
	u.DeletedAt = &at
	u.UpdatedAt = at
	return nil
}
