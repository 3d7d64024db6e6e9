package memory

import (
	"context"
	"time"

	"github.com/dmitrijs2005/wishlist/internal/common"
	"github.com/dmitrijs2005/wishlist/internal/server/models"
	"github.com/google/uuid"
)

type tokenStore struct {
	m *Manager
	j *journal
}

func (s *tokenStore) Insert(_ context.Context, token *models.Token) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	for id, t := range s.m.tokens {
		if t.UserID == token.UserID && t.Purpose == token.Purpose {
			remember(s.j, s.m.tokens, id)
			delete(s.m.tokens, id)
		}
	}

	now := s.m.clock.Now()
	token.ID = uuid.NewString()
	token.CreatedAt = now
	token.UpdatedAt = now

	stored := *token
	remember(s.j, s.m.tokens, token.ID)
	s.m.tokens[token.ID] = &stored
	return nil
}

func (s *tokenStore) deleteWhere(match func(*models.Token) bool) int64 {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	var n int64
	for id, t := range s.m.tokens {
		if match(t) {
			remember(s.j, s.m.tokens, id)
			delete(s.m.tokens, id)
			n++
		}
	}
	return n
}

func (s *tokenStore) DeleteByUserPurpose(_ context.Context, userID string, purpose models.TokenPurpose) (int64, error) {
	return s.deleteWhere(func(t *models.Token) bool {
		return t.UserID == userID && t.Purpose == purpose
	}), nil
}

func (s *tokenStore) DeleteAllForUser(_ context.Context, userID string) (int64, error) {
	return s.deleteWhere(func(t *models.Token) bool { return t.UserID == userID }), nil
}

func (s *tokenStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	return s.deleteWhere(func(t *models.Token) bool { return t.ExpiredAt(now) }), nil
}

func (s *tokenStore) find(match func(*models.Token) bool) (*models.Token, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	for _, t := range s.m.tokens {
		if match(t) {
			c := *t
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

// The forUpdate flag is satisfied by the transaction lock held in WithTx.

func (s *tokenStore) FindBySubjectAndValue(_ context.Context, userID, value string, purpose models.TokenPurpose, _ bool) (*models.Token, error) {
	return s.find(func(t *models.Token) bool {
		return t.UserID == userID && t.Value == value && t.Purpose == purpose
	})
}

func (s *tokenStore) FindByValue(_ context.Context, value string, purpose models.TokenPurpose, _ bool) (*models.Token, error) {
	return s.find(func(t *models.Token) bool {
		return t.Value == value && t.Purpose == purpose
	})
}
