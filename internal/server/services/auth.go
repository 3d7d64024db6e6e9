// Package services contains server-side business logic. This file implements
// AuthService, which runs registration, login, logout, refresh-token rotation
// and the password reset flows.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/wishlist/internal/common"
	"github.com/dmitrijs2005/wishlist/internal/dbx"
	"github.com/dmitrijs2005/wishlist/internal/logging"
	"github.com/dmitrijs2005/wishlist/internal/server/auth"
	"github.com/dmitrijs2005/wishlist/internal/server/models"
	"github.com/dmitrijs2005/wishlist/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/wishlist/internal/timex"
)

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Compare(plaintext, hash string) bool
}

// TokenCodec mints and verifies signed access/refresh tokens.
type TokenCodec interface {
	Issue(subjectID, email string, purpose auth.Purpose) (string, error)
	Verify(token string, purpose auth.Purpose) (*auth.Payload, error)
	TTL(purpose auth.Purpose) time.Duration
}

// ResetNotifier delivers a password reset token to the account owner.
type ResetNotifier interface {
	SendPasswordReset(ctx context.Context, email, token string, expiresAt time.Time) error
}

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// AuthResult is what register and login hand back. User never carries the
// password hash.
type AuthResult struct {
	User   *models.User `json:"user"`
	Tokens *TokenPair   `json:"tokens"`
}

type AuthOptions struct {
	ResetTokenTTL time.Duration
	Notifier      ResetNotifier
	Clock         timex.Clock
	Logger        logging.Logger
	// AsyncDelivery sends reset notifications off the request path, so
	// ForgotPassword takes as long for unknown emails as for known ones.
	AsyncDelivery bool
	// DeliveryTimeout bounds one asynchronous delivery. Zero means 30s.
	DeliveryTimeout time.Duration
}

// dummyPassword is hashed once and compared against when no account hash
// exists, so unknown emails cost as much as wrong passwords.
const dummyPassword = "wishlist-dummy-password"

type AuthService struct {
	tx          dbx.Transactor
	repomanager repomanager.RepositoryManager
	tokens      *TokenStore
	hasher      PasswordHasher
	codec       TokenCodec
	notifier    ResetNotifier
	clock       timex.Clock
	resetTTL    time.Duration
	log         logging.Logger

	async           bool
	deliveryTimeout time.Duration
	deliveries      sync.WaitGroup

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(tx dbx.Transactor, m repomanager.RepositoryManager, hasher PasswordHasher, codec TokenCodec, opts AuthOptions) *AuthService {
	if opts.Clock == nil {
		opts.Clock = timex.SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop{}
	}
	if opts.ResetTokenTTL <= 0 {
		opts.ResetTokenTTL = time.Hour
	}
	if opts.DeliveryTimeout <= 0 {
		opts.DeliveryTimeout = 30 * time.Second
	}
	return &AuthService{
		tx:          tx,
		repomanager: m,
		tokens:      NewTokenStore(tx, m, opts.Clock),
		hasher:      hasher,
		codec:       codec,
		notifier:    opts.Notifier,
		clock:       opts.Clock,
		resetTTL:    opts.ResetTokenTTL,
		log:         opts.Logger.With("module", "auth"),

		async:           opts.AsyncDelivery,
		deliveryTimeout: opts.DeliveryTimeout,
	}
}

// Wait blocks until in-flight asynchronous reset deliveries finish.
func (s *AuthService) Wait() {
	s.deliveries.Wait()
}

// burnCompare runs one hash comparison whose result is discarded.
func (s *AuthService) burnCompare(password string) {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash(dummyPassword)
		if err != nil {
			s.log.Warn(context.Background(), "dummy hash failed", "error", err.Error())
			return
		}
		s.dummyHash = h
	})
	s.hasher.Compare(password, s.dummyHash)
}

// Tokens exposes the token record policy, e.g. for the purge loop.
func (s *AuthService) Tokens() *TokenStore {
	return s.tokens
}

// Register creates an account and signs it in. A taken email, including one
// lost to a concurrent registration, yields common.ErrEmailConflict.
func (s *AuthService) Register(ctx context.Context, email, password string, name *string) (*AuthResult, error) {
	email = common.NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	_, err := s.repomanager.Users(s.tx.DB()).FindByEmail(ctx, email, false)
	switch {
	case err == nil:
		return nil, common.ErrEmailConflict
	case !errors.Is(err, common.ErrorNotFound):
		return nil, fmt.Errorf("error looking up user: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	var result *AuthResult
	err = s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		user, err := s.repomanager.Users(tx).Create(ctx, &models.User{Email: email, Name: name, PasswordHash: &hash})
		if err != nil {
			if errors.Is(err, common.ErrorAlreadyExists) {
				return common.ErrEmailConflict
			}
			return fmt.Errorf("error creating user: %w", err)
		}

		pair, err := s.issuePair(ctx, tx, user)
		if err != nil {
			return err
		}
		result = &AuthResult{User: user.Public(), Tokens: pair}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "user registered", "user_id", result.User.ID)
	return result, nil
}

// ValidateCredentials returns the user, without the password hash, when
// email/password match. Every mismatch is common.ErrInvalidCredentials.
func (s *AuthService) ValidateCredentials(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repomanager.Users(s.tx.DB()).FindByEmail(ctx, common.NormalizeEmail(email), true)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.burnCompare(password)
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error looking up user: %w", err)
	}

	if user.PasswordHash == nil {
		s.burnCompare(password)
		return nil, common.ErrInvalidCredentials
	}
	if !s.hasher.Compare(password, *user.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}
	return user.Public(), nil
}

// Login checks credentials and issues a fresh token pair, replacing any
// refresh token the user already had.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.ValidateCredentials(ctx, email, password)
	if err != nil {
		return nil, err
	}

	var pair *TokenPair
	err = s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		pair, err = s.issuePair(ctx, tx, user)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, Tokens: pair}, nil
}

// Logout revokes the user's refresh token. Logging out twice is fine.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	return s.tokens.Revoke(ctx, s.tx.DB(), userID, models.PurposeRefresh)
}

// RefreshToken rotates a refresh token: the presented one must verify and
// match the stored record, and is unusable afterwards. Every rejection is
// common.ErrInvalidRefreshToken.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	payload, err := s.codec.Verify(refreshToken, auth.PurposeRefresh)
	if err != nil {
		s.log.Warn(ctx, "refresh token rejected", "reason", err.Error())
		return nil, common.ErrInvalidRefreshToken
	}

	var pair *TokenPair
	err = s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		_, ok, err := s.tokens.findLive(func() (*models.Token, error) {
			return s.tokens.FindBySubjectAndValue(ctx, tx, payload.Subject, refreshToken, models.PurposeRefresh)
		})
		if err != nil {
			return fmt.Errorf("error looking up refresh token: %w", err)
		}
		if !ok {
			s.log.Warn(ctx, "refresh token rejected", "reason", "revoked or expired", "user_id", payload.Subject)
			return common.ErrInvalidRefreshToken
		}

		user, err := s.repomanager.Users(tx).GetByID(ctx, payload.Subject, false)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrInvalidRefreshToken
			}
			return fmt.Errorf("error looking up user: %w", err)
		}

		pair, err = s.issuePair(ctx, tx, user)
		return err
	})
	if err != nil {
		return nil, err
	}

	return pair, nil
}

// ForgotPassword stores a fresh reset token for a registered email and hands
// it to the notifier. The returned message is the same whether or not the
// email is registered.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	user, err := s.repomanager.Users(s.tx.DB()).FindByEmail(ctx, common.NormalizeEmail(email), false)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.GenericResetMessage, nil
		}
		return "", fmt.Errorf("error looking up user: %w", err)
	}

	token, err := common.MakeRandHexString(common.ResetTokenSize)
	if err != nil {
		return "", fmt.Errorf("error generating reset token: %w", err)
	}
	expiresAt := s.clock.Now().Add(s.resetTTL)

	err = s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := s.tokens.IssueOrReplace(ctx, tx, user.ID, models.PurposePasswordReset, token, expiresAt)
		return err
	})
	if err != nil {
		return "", err
	}

	s.deliverReset(ctx, user, token, expiresAt)
	return common.GenericResetMessage, nil
}

func (s *AuthService) deliverReset(ctx context.Context, user *models.User, token string, expiresAt time.Time) {
	if s.notifier == nil {
		return
	}
	send := func(ctx context.Context) {
		if err := s.notifier.SendPasswordReset(ctx, user.Email, token, expiresAt); err != nil {
			s.log.Warn(ctx, "password reset delivery failed", "user_id", user.ID, "error", err.Error())
		}
	}
	if !s.async {
		send(ctx)
		return
	}

	s.deliveries.Add(1)
	go func() {
		defer s.deliveries.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.deliveryTimeout)
		defer cancel()
		send(ctx)
	}()
}

// ResetPassword sets a new password using a single-use reset token. Unknown,
// expired or already used tokens yield common.ErrInvalidOrExpiredToken.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	if token == "" {
		return "", common.ErrInvalidOrExpiredToken
	}
	if err := ValidatePassword(newPassword); err != nil {
		return "", err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return "", fmt.Errorf("error hashing password: %w", err)
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		rec, ok, err := s.tokens.findLive(func() (*models.Token, error) {
			return s.tokens.FindByValue(ctx, tx, token, models.PurposePasswordReset)
		})
		if err != nil {
			return fmt.Errorf("error looking up reset token: %w", err)
		}
		if !ok {
			return common.ErrInvalidOrExpiredToken
		}

		if err := s.repomanager.Users(tx).UpdatePasswordHash(ctx, rec.UserID, hash); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrInvalidOrExpiredToken
			}
			return fmt.Errorf("error updating password: %w", err)
		}

		return s.tokens.Revoke(ctx, tx, rec.UserID, models.PurposePasswordReset)
	})
	if err != nil {
		return "", err
	}

	return common.PasswordResetDoneMessage, nil
}

func (s *AuthService) issuePair(ctx context.Context, db dbx.DBTX, user *models.User) (*TokenPair, error) {
	access, err := s.codec.Issue(user.ID, user.Email, auth.PurposeAccess)
	if err != nil {
		return nil, fmt.Errorf("error issuing access token: %w", err)
	}
	refresh, err := s.codec.Issue(user.ID, user.Email, auth.PurposeRefresh)
	if err != nil {
		return nil, fmt.Errorf("error issuing refresh token: %w", err)
	}

	expiresAt := s.clock.Now().Add(s.codec.TTL(auth.PurposeRefresh))
	if _, err := s.tokens.IssueOrReplace(ctx, db, user.ID, models.PurposeRefresh, refresh, expiresAt); err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
