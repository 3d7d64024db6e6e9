// Package memory is an in-process RepositoryManager used by the "memory"
// storage mode and by service tests. Data lives in maps guarded by a mutex.
// WithTx serializes units of work and undoes a unit's writes when it fails.
package memory

import (
	"context"
	"database/sql"
	"sync"

	"github.com/dmitrijs2005/wishlist/internal/dbx"
	"github.com/dmitrijs2005/wishlist/internal/server/models"
	"github.com/dmitrijs2005/wishlist/internal/server/repositories/tokens"
	"github.com/dmitrijs2005/wishlist/internal/server/repositories/users"
	"github.com/dmitrijs2005/wishlist/internal/server/repositories/wishes"
	"github.com/dmitrijs2005/wishlist/internal/server/repositories/wishlists"
	"github.com/dmitrijs2005/wishlist/internal/timex"
)

type Manager struct {
	txMu sync.Mutex

	mu        sync.RWMutex
	users     map[string]*models.User
	tokens    map[string]*models.Token
	wishlists map[string]*models.Wishlist
	wishes    map[string]*models.Wish

	clock timex.Clock
}

func NewManager(clock timex.Clock) *Manager {
	if clock == nil {
		clock = timex.SystemClock{}
	}
	return &Manager{
		users:     make(map[string]*models.User),
		tokens:    make(map[string]*models.Token),
		wishlists: make(map[string]*models.Wishlist),
		wishes:    make(map[string]*models.Wish),
		clock:     clock,
	}
}

func (m *Manager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}

func (m *Manager) Users(tx dbx.DBTX) users.Repository {
	return &userStore{m: m, j: journalOf(tx)}
}

func (m *Manager) Tokens(tx dbx.DBTX) tokens.Repository {
	return &tokenStore{m: m, j: journalOf(tx)}
}

func (m *Manager) Wishlists(tx dbx.DBTX) wishlists.Repository {
	return &wishlistStore{m: m, j: journalOf(tx)}
}

func (m *Manager) Wishes(tx dbx.DBTX) wishes.Repository {
	return &wishStore{m: m, j: journalOf(tx)}
}

// DB returns nil; the memory repositories ignore their DBTX.
func (m *Manager) DB() dbx.DBTX { return nil }

// WithTx runs fn while holding the transaction lock, so units of work never
// interleave with each other. Writes made through tx are undone when fn
// returns an error or panics. Writes made outside any unit of work are not
// isolated from a concurrent failing one.
func (m *Manager) WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) (err error) {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	j := &journal{}
	defer func() {
		if p := recover(); p != nil {
			m.undo(j)
			panic(p)
		}
		if err != nil {
			m.undo(j)
		}
	}()
	return fn(ctx, j)
}

func (m *Manager) undo(j *journal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j.rollback()
}

// CountTokens returns how many records exist for (userID, purpose).
func (m *Manager) CountTokens(userID string, purpose models.TokenPurpose) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, t := range m.tokens {
		if t.UserID == userID && t.Purpose == purpose {
			n++
		}
	}
	return n
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
