package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/wishlist/internal/common"
	"github.com/dmitrijs2005/wishlist/internal/dbx"
	"github.com/dmitrijs2005/wishlist/internal/logging"
	"github.com/dmitrijs2005/wishlist/internal/server/models"
	"github.com/dmitrijs2005/wishlist/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/wishlist/internal/timex"
)

// UserService manages the signed-in user's own account.
type UserService struct {
	tx          dbx.Transactor
	repomanager repomanager.RepositoryManager
	tokens      *TokenStore
	hasher      PasswordHasher
	clock       timex.Clock
	log         logging.Logger
}

func NewUserService(tx dbx.Transactor, m repomanager.RepositoryManager, hasher PasswordHasher, clock timex.Clock, log logging.Logger) *UserService {
	if clock == nil {
		clock = timex.SystemClock{}
	}
	if log == nil {
		log = logging.Nop{}
	}
	return &UserService{
		tx:          tx,
		repomanager: m,
		tokens:      NewTokenStore(tx, m, clock),
		hasher:      hasher,
		clock:       clock,
		log:         log.With("module", "users"),
	}
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	if !validID(userID) {
		return nil, common.ErrorNotFound
	}
	return s.repomanager.Users(s.tx.DB()).GetByID(ctx, userID, false)
}

// UpdateProfile changes name and/or email. The email goes through the same
// normalization as registration.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, name, email *string) (*models.User, error) {
	if !validID(userID) {
		return nil, common.ErrorNotFound
	}
	if email != nil {
		normalized := common.NormalizeEmail(*email)
		if err := ValidateEmail(normalized); err != nil {
			return nil, err
		}
		email = &normalized
	}

	user, err := s.repomanager.Users(s.tx.DB()).UpdateProfile(ctx, userID, name, email)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrEmailConflict
		}
		return nil, err
	}
	return user, nil
}

// ChangePassword replaces the password after checking the current one and
// signs the user out everywhere by revoking the refresh token.
func (s *UserService) ChangePassword(ctx context.Context, userID, current, next string) error {
	if !validID(userID) {
		return common.ErrorNotFound
	}
	if err := ValidatePassword(next); err != nil {
		return err
	}

	user, err := s.repomanager.Users(s.tx.DB()).GetByID(ctx, userID, true)
	if err != nil {
		return err
	}
	if user.PasswordHash == nil || !s.hasher.Compare(current, *user.PasswordHash) {
		return common.ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).UpdatePasswordHash(ctx, userID, hash); err != nil {
			return err
		}
		return s.tokens.Revoke(ctx, tx, userID, models.PurposeRefresh)
	})
	if err != nil {
		return err
	}

	s.log.Info(ctx, "password changed", "user_id", userID)
	return nil
}

// DeleteAccount soft-deletes the user and drops all of their tokens.
func (s *UserService) DeleteAccount(ctx context.Context, userID string) error {
	if !validID(userID) {
		return common.ErrorNotFound
	}

	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).SoftDelete(ctx, userID, s.clock.Now()); err != nil {
			return err
		}
		return s.tokens.RevokeAll(ctx, tx, userID)
	})
	if err != nil {
		return err
	}

	s.log.Info(ctx, "account deleted", "user_id", userID)
	return nil
}
