package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/wishlist/internal/server/auth"
	"github.com/dmitrijs2005/wishlist/internal/server/password"
	"github.com/dmitrijs2005/wishlist/internal/server/repositories/memory"
	"github.com/dmitrijs2005/wishlist/internal/timex"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testAccessTTL  = 15 * time.Minute
	testRefreshTTL = 24 * time.Hour
	testResetTTL   = time.Hour
)

type sentReset struct {
	email     string
	token     string
	expiresAt time.Time
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentReset
	err  error
}

func (n *recordingNotifier) SendPasswordReset(_ context.Context, email, token string, expiresAt time.Time) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentReset{email: email, token: token, expiresAt: expiresAt})
	return n.err
}

func (n *recordingNotifier) last(t *testing.T) sentReset {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	require.NotEmpty(t, n.sent, "no reset was sent")
	return n.sent[len(n.sent)-1]
}

type fixture struct {
	auth     *AuthService
	users    *UserService
	mem      *memory.Manager
	clock    *timex.ManualClock
	codec    *auth.Codec
	hasher   *password.Hasher
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := timex.NewManualClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	mem := memory.NewManager(clock)

	codec, err := auth.NewCodec(
		auth.KeyConfig{Secret: []byte("test-access"), TTL: testAccessTTL},
		auth.KeyConfig{Secret: []byte("test-refresh"), TTL: testRefreshTTL},
		clock,
	)
	require.NoError(t, err)

	hasher, err := password.NewHasher(bcrypt.MinCost)
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	return &fixture{
		auth: NewAuthService(mem, mem, hasher, codec, AuthOptions{
			ResetTokenTTL: testResetTTL,
			Notifier:      notifier,
			Clock:         clock,
		}),
		users:    NewUserService(mem, mem, hasher, clock, nil),
		mem:      mem,
		clock:    clock,
		codec:    codec,
		hasher:   hasher,
		notifier: notifier,
	}
}

func strPtr(s string) *string { return &s }
