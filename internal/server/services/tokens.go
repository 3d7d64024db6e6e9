package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/wishlist/internal/common"
	"github.com/dmitrijs2005/wishlist/internal/dbx"
	"github.com/dmitrijs2005/wishlist/internal/server/models"
	"github.com/dmitrijs2005/wishlist/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/wishlist/internal/timex"
)

// TokenStore applies the token record policy on top of the tokens repository:
// one live record per (user, purpose), replaced on reissue, expiry judged
// against the injected clock.
//
// Methods taking a dbx.DBTX run against it, so callers decide the
// transaction boundary.
type TokenStore struct {
	tx          dbx.Transactor
	repomanager repomanager.RepositoryManager
	clock       timex.Clock
}

func NewTokenStore(tx dbx.Transactor, m repomanager.RepositoryManager, clock timex.Clock) *TokenStore {
	if clock == nil {
		clock = timex.SystemClock{}
	}
	return &TokenStore{tx: tx, repomanager: m, clock: clock}
}

// IssueOrReplace deletes any record for (userID, purpose) and inserts the new
// one. Call it inside a transaction.
func (s *TokenStore) IssueOrReplace(ctx context.Context, db dbx.DBTX, userID string, purpose models.TokenPurpose, value string, expiresAt time.Time) (*models.Token, error) {
	repo := s.repomanager.Tokens(db)

	if _, err := repo.DeleteByUserPurpose(ctx, userID, purpose); err != nil {
		return nil, fmt.Errorf("error deleting %s token: %w", purpose, err)
	}

	token := &models.Token{UserID: userID, Value: value, Purpose: purpose, ExpiresAt: &expiresAt}
	if err := repo.Insert(ctx, token); err != nil {
		return nil, fmt.Errorf("error storing %s token: %w", purpose, err)
	}
	return token, nil
}

// FindBySubjectAndValue returns the matching record or common.ErrorNotFound.
// The row stays locked until db's transaction ends.
func (s *TokenStore) FindBySubjectAndValue(ctx context.Context, db dbx.DBTX, userID, value string, purpose models.TokenPurpose) (*models.Token, error) {
	return s.repomanager.Tokens(db).FindBySubjectAndValue(ctx, userID, value, purpose, true)
}

// FindByValue returns the matching record or common.ErrorNotFound.
// The row stays locked until db's transaction ends.
func (s *TokenStore) FindByValue(ctx context.Context, db dbx.DBTX, value string, purpose models.TokenPurpose) (*models.Token, error) {
	return s.repomanager.Tokens(db).FindByValue(ctx, value, purpose, true)
}

// Revoke deletes the live record for (userID, purpose). A missing record is
// not an error.
func (s *TokenStore) Revoke(ctx context.Context, db dbx.DBTX, userID string, purpose models.TokenPurpose) error {
	if _, err := s.repomanager.Tokens(db).DeleteByUserPurpose(ctx, userID, purpose); err != nil {
		return fmt.Errorf("error revoking %s token: %w", purpose, err)
	}
	return nil
}

// RevokeAll deletes every record owned by userID.
func (s *TokenStore) RevokeAll(ctx context.Context, db dbx.DBTX, userID string) error {
	if _, err := s.repomanager.Tokens(db).DeleteAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("error revoking tokens: %w", err)
	}
	return nil
}

// IsExpired reports whether record has an expiry strictly in the past.
func (s *TokenStore) IsExpired(record *models.Token) bool {
	return record.ExpiredAt(s.clock.Now())
}

// PurgeExpired removes every expired record and returns how many went.
func (s *TokenStore) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.repomanager.Tokens(s.tx.DB()).DeleteExpired(ctx, s.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("error purging tokens: %w", err)
	}
	return n, nil
}

// findLive is the lookup shared by the refresh and reset flows: absent and
// expired records both come back as ok=false.
func (s *TokenStore) findLive(find func() (*models.Token, error)) (*models.Token, bool, error) {
	rec, err := find()
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if s.IsExpired(rec) {
		return rec, false, nil
	}
	return rec, true, nil
}
