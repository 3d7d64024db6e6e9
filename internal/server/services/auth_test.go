package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/wishlist/internal/common"
	"github.com/dmitrijs2005/wishlist/internal/server/auth"
	"github.com/dmitrijs2005/wishlist/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_ReturnsUserWithoutPasswordAndTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.auth.Register(ctx, "a@b.com", "secret123", strPtr("A"))
	require.NoError(t, err)

	assert.Equal(t, "a@b.com", res.User.Email)
	assert.Nil(t, res.User.PasswordHash)
	require.NotNil(t, res.User.Name)
	assert.Equal(t, "A", *res.User.Name)
	assert.NotEmpty(t, res.Tokens.AccessToken)
	assert.NotEmpty(t, res.Tokens.RefreshToken)

	b, err := json.Marshal(res)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "password")

	p, err := f.codec.Verify(res.Tokens.AccessToken, auth.PurposeAccess)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, p.Subject)
	_, err = f.codec.Verify(res.Tokens.AccessToken, auth.PurposeRefresh)
	assert.Error(t, err)

	assert.Equal(t, 1, f.mem.CountTokens(res.User.ID, models.PurposeRefresh))
}

func TestRegister_NormalizesEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.auth.Register(ctx, " Foo@Example.com ", "secret123", nil)
	require.NoError(t, err)
	assert.Equal(t, "foo@example.com", res.User.Email)

	found, err := f.mem.Users(nil).FindByEmail(ctx, "foo@example.com", false)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, found.ID)

	_, err = f.auth.Register(ctx, "foo@example.com", "secret123", nil)
	assert.ErrorIs(t, err, common.ErrEmailConflict)
}

func TestRegister_ConcurrentSameEmailOneWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 8
	start := make(chan struct{})
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = f.auth.Register(ctx, "race@x.com", "secret123", nil)
		}(i)
	}
	close(start)
	wg.Wait()

	ok, conflicts := 0, 0
	for _, err := range errs {
		if err == nil {
			ok++
		} else if errors.Is(err, common.ErrEmailConflict) {
			conflicts++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, conflicts)
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, "not-an-email", "secret123", nil)
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = f.auth.Register(ctx, "a@b.com", "123", nil)
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestLogin_WrongPasswordIsInvalidCredentials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, "a@b.com", "secret123", nil)
	require.NoError(t, err)

	_, err = f.auth.Login(ctx, "a@b.com", "wrong-password")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
	assert.NotErrorIs(t, err, common.ErrorNotFound)

	_, err = f.auth.Login(ctx, "nobody@b.com", "secret123")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials, "unknown email looks the same")
}

func TestLogin_ReplacesRefreshToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.auth.Register(ctx, "a@b.com", "secret123", nil)
	require.NoError(t, err)

	login, err := f.auth.Login(ctx, "  A@B.com", "secret123")
	require.NoError(t, err)
	assert.Nil(t, login.User.PasswordHash)
	assert.Equal(t, 1, f.mem.CountTokens(reg.User.ID, models.PurposeRefresh))

	_, err = f.auth.RefreshToken(ctx, reg.Tokens.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidRefreshToken)

	_, err = f.auth.RefreshToken(ctx, login.Tokens.RefreshToken)
	assert.NoError(t, err)
}

func TestValidateCredentials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.auth.Register(ctx, "a@b.com", "secret123", nil)
	require.NoError(t, err)

	u, err := f.auth.ValidateCredentials(ctx, "a@b.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, u.ID)
	assert.Nil(t, u.PasswordHash)

	_, err = f.auth.ValidateCredentials(ctx, "a@b.com", "nope-nope")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
}

type countingHasher struct {
	PasswordHasher
	mu       sync.Mutex
	compares int
}

func (h *countingHasher) Compare(plaintext, hash string) bool {
	h.mu.Lock()
	h.compares++
	h.mu.Unlock()
	return h.PasswordHasher.Compare(plaintext, hash)
}

func TestValidateCredentials_UnknownEmailStillCompares(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h := &countingHasher{PasswordHasher: f.hasher}
	svc := NewAuthService(f.mem, f.mem, h, f.codec, AuthOptions{Clock: f.clock})

	_, err := f.mem.Users(nil).Create(ctx, &models.User{Email: "invited@b.com"})
	require.NoError(t, err)

	_, err = svc.ValidateCredentials(ctx, "nobody@b.com", "secret123")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
	assert.Equal(t, 1, h.compares, "unknown email pays for one compare")

	_, err = svc.ValidateCredentials(ctx, "invited@b.com", "secret123")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
	assert.Equal(t, 2, h.compares, "missing hash pays for one compare")
}

func TestLogin_UserWithoutPasswordHash(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.mem.Users(nil).Create(ctx, &models.User{Email: "invited@b.com"})
	require.NoError(t, err)

	_, err = f.auth.Login(ctx, "invited@b.com", "anything")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
}

func TestLogout_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.auth.Register(ctx, "a@b.com", "secret123", nil)
	require.NoError(t, err)

	require.NoError(t, f.auth.Logout(ctx, reg.User.ID))
	assert.Equal(t, 0, f.mem.CountTokens(reg.User.ID, models.PurposeRefresh))
	require.NoError(t, f.auth.Logout(ctx, reg.User.ID))
	assert.Equal(t, 0, f.mem.CountTokens(reg.User.ID, models.PurposeRefresh))

	_, err = f.auth.RefreshToken(ctx, reg.Tokens.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidRefreshToken)
}

func TestRefresh_SingleActiveTokenAfterRotations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.auth.Register(ctx, "a@b.com", "secret123", nil)
	require.NoError(t, err)

	seen := []string{reg.Tokens.RefreshToken}
	current := reg.Tokens.RefreshToken
	for i := 0; i < 5; i++ {
		pair, err := f.auth.RefreshToken(ctx, current)
		require.NoError(t, err)
		for _, old := range seen {
			assert.NotEqual(t, old, pair.RefreshToken)
		}
		seen = append(seen, pair.RefreshToken)
		current = pair.RefreshToken
	}

	assert.Equal(t, 1, f.mem.CountTokens(reg.User.ID, models.PurposeRefresh))
	rec, err := f.mem.Tokens(nil).FindBySubjectAndValue(ctx, reg.User.ID, current, models.PurposeRefresh, false)
	require.NoError(t, err)
	assert.Equal(t, current, rec.Value)

	for _, old := range seen[:len(seen)-1] {
		_, err := f.auth.RefreshToken(ctx, old)
		assert.ErrorIs(t, err, common.ErrInvalidRefreshToken)
	}
}

func TestRefresh_RotationInvalidatesPrior(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.auth.Register(ctx, "a@b.com", "secret123", nil)
	require.NoError(t, err)
	t1 := reg.Tokens.RefreshToken

	pair, err := f.auth.RefreshToken(ctx, t1)
	require.NoError(t, err)
	require.NotEqual(t, t1, pair.RefreshToken)

	_, err = f.auth.RefreshToken(ctx, t1)
	assert.ErrorIs(t, err, common.ErrInvalidRefreshToken)
}

func TestRefresh_ExpiredToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.auth.Register(ctx, "a@b.com", "secret123", nil)
	require.NoError(t, err)

	f.clock.Advance(testRefreshTTL + time.Minute)

	_, err = f.auth.RefreshToken(ctx, reg.Tokens.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidRefreshToken)
}

func TestRefresh_StoreRecordExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.auth.Register(ctx, "a@b.com", "secret123", nil)
	require.NoError(t, err)

	// The signature is still valid, but the server-side record says otherwise.
	_, err = f.auth.Tokens().IssueOrReplace(ctx, nil, reg.User.ID, models.PurposeRefresh,
		reg.Tokens.RefreshToken, f.clock.Now().Add(-time.Second))
	require.NoError(t, err)

	_, err = f.auth.RefreshToken(ctx, reg.Tokens.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidRefreshToken)
}

func TestRefresh_RejectsAccessTokenAndGarbage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.auth.Register(ctx, "a@b.com", "secret123", nil)
	require.NoError(t, err)

	_, err = f.auth.RefreshToken(ctx, reg.Tokens.AccessToken)
	assert.ErrorIs(t, err, common.ErrInvalidRefreshToken)

	_, err = f.auth.RefreshToken(ctx, "garbage")
	assert.ErrorIs(t, err, common.ErrInvalidRefreshToken)

	_, err = f.auth.RefreshToken(ctx, "")
	assert.ErrorIs(t, err, common.ErrInvalidRefreshToken)
}

func TestRefresh_ConcurrentSameTokenOneWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.auth.Register(ctx, "a@b.com", "secret123", nil)
	require.NoError(t, err)

	const n = 10
	start := make(chan struct{})
	results := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.auth.RefreshToken(ctx, reg.Tokens.RefreshToken)
			results <- err
		}()
	}
	close(start)
	wg.Wait()
	close(results)

	winners := 0
	for err := range results {
		if err == nil {
			winners++
			continue
		}
		assert.ErrorIs(t, err, common.ErrInvalidRefreshToken)
	}
	assert.Equal(t, 1, winners)
	assert.Equal(t, 1, f.mem.CountTokens(reg.User.ID, models.PurposeRefresh))
}

func TestRefresh_DeletedUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.auth.Register(ctx, "a@b.com", "secret123", nil)
	require.NoError(t, err)
	require.NoError(t, f.mem.Users(nil).SoftDelete(ctx, reg.User.ID, f.clock.Now()))

	_, err = f.auth.RefreshToken(ctx, reg.Tokens.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidRefreshToken)
}

func TestForgotPassword_NonEnumeration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, "exists@x.com", "secret123", nil)
	require.NoError(t, err)

	known, err := f.auth.ForgotPassword(ctx, "exists@x.com")
	require.NoError(t, err)
	unknown, err := f.auth.ForgotPassword(ctx, "doesnotexist@x.com")
	require.NoError(t, err)

	assert.Equal(t, known, unknown)
	assert.Equal(t, common.GenericResetMessage, known)
	assert.Len(t, f.notifier.sent, 1, "only the registered address gets mail")
}

func TestForgotPassword_DeliveryFailureHidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.notifier.err = assert.AnError

	_, err := f.auth.Register(ctx, "a@b.com", "secret123", nil)
	require.NoError(t, err)

	msg, err := f.auth.ForgotPassword(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, common.GenericResetMessage, msg)
}

type gatedNotifier struct {
	release chan struct{}
	ctxErr  error
	got     string
}

func (n *gatedNotifier) SendPasswordReset(ctx context.Context, email, _ string, _ time.Time) error {
	<-n.release
	n.ctxErr = ctx.Err()
	n.got = email
	return nil
}

func TestForgotPassword_AsyncDelivery(t *testing.T) {
	f := newFixture(t)
	n := &gatedNotifier{release: make(chan struct{})}
	svc := NewAuthService(f.mem, f.mem, f.hasher, f.codec, AuthOptions{Clock: f.clock, Notifier: n, AsyncDelivery: true})

	_, err := svc.Register(context.Background(), "a@b.com", "secret123", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	msg, err := svc.ForgotPassword(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, common.GenericResetMessage, msg, "returns before delivery completes")
	cancel()

	close(n.release)
	svc.Wait()
	assert.Equal(t, "a@b.com", n.got)
	assert.NoError(t, n.ctxErr, "delivery outlives the request context")
}

func TestForgotPassword_StoresRandomTokenWithTTL(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.auth.Register(ctx, "a@b.com", "secret123", nil)
	require.NoError(t, err)

	_, err = f.auth.ForgotPassword(ctx, "A@b.com ")
	require.NoError(t, err)
	first := f.notifier.last(t)
	assert.Len(t, first.token, 2*common.ResetTokenSize)
	assert.Equal(t, f.clock.Now().Add(testResetTTL), first.expiresAt)
	assert.Equal(t, "a@b.com", first.email)

	_, err = f.auth.ForgotPassword(ctx, "a@b.com")
	require.NoError(t, err)
	second := f.notifier.last(t)
	assert.NotEqual(t, first.token, second.token)
	assert.Equal(t, 1, f.mem.CountTokens(reg.User.ID, models.PurposePasswordReset))

	_, err = f.auth.ResetPassword(ctx, first.token, "newsecret")
	assert.ErrorIs(t, err, common.ErrInvalidOrExpiredToken, "reissue replaces the previous token")
}

func TestResetPassword_SingleUse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.auth.Register(ctx, "a@b.com", "oldsecret", nil)
	require.NoError(t, err)
	_, err = f.auth.ForgotPassword(ctx, "a@b.com")
	require.NoError(t, err)
	token := f.notifier.last(t).token

	msg, err := f.auth.ResetPassword(ctx, token, "newsecret")
	require.NoError(t, err)
	assert.Equal(t, common.PasswordResetDoneMessage, msg)
	assert.Equal(t, 0, f.mem.CountTokens(reg.User.ID, models.PurposePasswordReset))

	_, err = f.auth.ResetPassword(ctx, token, "othersecret")
	assert.ErrorIs(t, err, common.ErrInvalidOrExpiredToken)

	_, err = f.auth.Login(ctx, "a@b.com", "newsecret")
	assert.NoError(t, err)
	_, err = f.auth.Login(ctx, "a@b.com", "oldsecret")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
}

func TestResetPassword_Expired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, "a@b.com", "oldsecret", nil)
	require.NoError(t, err)
	_, err = f.auth.ForgotPassword(ctx, "a@b.com")
	require.NoError(t, err)
	token := f.notifier.last(t).token

	f.clock.Advance(testResetTTL + time.Second)

	_, err = f.auth.ResetPassword(ctx, token, "newsecret")
	assert.ErrorIs(t, err, common.ErrInvalidOrExpiredToken)
}

func TestResetPassword_UnknownAndEmptyToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.ResetPassword(ctx, "deadbeef", "newsecret")
	assert.ErrorIs(t, err, common.ErrInvalidOrExpiredToken)

	_, err = f.auth.ResetPassword(ctx, "", "newsecret")
	assert.ErrorIs(t, err, common.ErrInvalidOrExpiredToken)
}

func TestResetPassword_WeakPassword(t *testing.T) {
	f := newFixture(t)

	_, err := f.auth.ResetPassword(context.Background(), "sometoken", "123")
	assert.ErrorIs(t, err, common.ErrorValidation)
}
