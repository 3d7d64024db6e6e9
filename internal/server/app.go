// Package server initializes and runs the wishlist API server.
// It selects the storage backend, wires the services, runs the periodic
// token purge and shuts everything down gracefully on SIGINT/SIGTERM.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/wishlist/internal/dbx"
	"github.com/dmitrijs2005/wishlist/internal/logging"
	"github.com/dmitrijs2005/wishlist/internal/server/auth"
	"github.com/dmitrijs2005/wishlist/internal/server/config"
	"github.com/dmitrijs2005/wishlist/internal/server/httpapi"
	"github.com/dmitrijs2005/wishlist/internal/server/mailer"
	"github.com/dmitrijs2005/wishlist/internal/server/password"
	"github.com/dmitrijs2005/wishlist/internal/server/repositories/memory"
	"github.com/dmitrijs2005/wishlist/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/wishlist/internal/server/services"
	"github.com/dmitrijs2005/wishlist/internal/timex"
)

// Seams for tests.
var (
	sqlOpen       = sql.Open
	runMigrations = func(ctx context.Context, m repomanager.RepositoryManager, db *sql.DB) error {
		return m.RunMigrations(ctx, db)
	}
)

// Storage is an opened persistence backend.
type Storage struct {
	Tx    dbx.Transactor
	Repos repomanager.RepositoryManager
	db    *sql.DB
}

// OpenStorage connects to the configured backend. For postgres it also
// applies pending migrations.
func OpenStorage(ctx context.Context, c *config.Config, clock timex.Clock) (*Storage, error) {
	switch c.StorageMode {
	case config.StorageMemory:
		m := memory.NewManager(clock)
		return &Storage{Tx: m, Repos: m}, nil
	case config.StoragePostgres:
		db, err := sqlOpen("pgx", c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db open: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("db ping: %w", err)
		}
		m := repomanager.NewPostgresRepositoryManager()
		if err := runMigrations(ctx, m, db); err != nil {
			db.Close()
			return nil, err
		}
		return &Storage{Tx: dbx.NewSQLTransactor(db, nil), Repos: m, db: db}, nil
	default:
		return nil, fmt.Errorf("unknown storage mode %q", c.StorageMode)
	}
}

func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Services holds the wired application services.
type Services struct {
	Codec     *auth.Codec
	Auth      *services.AuthService
	Users     *services.UserService
	Wishlists *services.WishlistService
	Wishes    *services.WishService
	Images    *services.ImageService
}

func NewServices(c *config.Config, st *Storage, clock timex.Clock, logger logging.Logger) (*Services, error) {
	codec, err := auth.NewCodec(
		auth.KeyConfig{Secret: []byte(c.AccessTokenSecret), TTL: c.AccessTokenValidityDuration},
		auth.KeyConfig{Secret: []byte(c.RefreshTokenSecret), TTL: c.RefreshTokenValidityDuration},
		clock,
	)
	if err != nil {
		return nil, fmt.Errorf("token codec: %w", err)
	}
	hasher, err := password.NewHasher(c.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("password hasher: %w", err)
	}

	return &Services{
		Codec: codec,
		Auth: services.NewAuthService(st.Tx, st.Repos, hasher, codec, services.AuthOptions{
			ResetTokenTTL: c.PasswordResetValidityDuration,
			Notifier:      mailer.New(c, logger),
			Clock:         clock,
			Logger:        logger,
			AsyncDelivery: true,
		}),
		Users:     services.NewUserService(st.Tx, st.Repos, hasher, clock, logger),
		Wishlists: services.NewWishlistService(st.Tx, st.Repos, clock),
		Wishes:    services.NewWishService(st.Tx, st.Repos, clock),
		Images:    services.NewImageService(st.Tx, st.Repos, c, clock),
	}, nil
}

type App struct {
	config   *config.Config
	logger   logging.Logger
	storage  *Storage
	services *Services
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout, c.LogLevel)
	clock := timex.SystemClock{}

	st, err := OpenStorage(ctx, c, clock)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	svc, err := NewServices(c, st, clock, logger)
	if err != nil {
		st.Close()
		return nil, err
	}

	return &App{config: c, logger: logger, storage: st, services: svc}, nil
}

// initSignalHandler cancels on SIGINT, SIGTERM or SIGQUIT. The returned
// channel closes once the handler has stopped listening, which also happens
// when ctx ends first.
func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) <-chan struct{} {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer signal.Stop(sigs)
		select {
		case sig := <-sigs:
			app.logger.Info(ctx, "signal received", "signal", sig.String())
			cancelFunc()
		case <-ctx.Done():
		}
	}()
	return done
}

func (app *App) handler() *httpapi.Handler {
	return httpapi.NewHandler(httpapi.Services{
		Auth:      app.services.Auth,
		Users:     app.services.Users,
		Wishlists: app.services.Wishlists,
		Wishes:    app.services.Wishes,
		Images:    app.services.Images,
	}, app.logger)
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) error {
	engine := httpapi.NewRouter(app.handler(), app.services.Codec,
		httpapi.NewRateLimiter(app.config.RateLimitPerMinute), app.logger)

	s := httpapi.NewHTTPServer(app.config.EndpointAddrHTTP, engine, app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
		return err
	}
	return nil
}

// purgeOnce drops expired token records and logs how many went.
func (app *App) purgeOnce(ctx context.Context) {
	n, err := app.services.Auth.Tokens().PurgeExpired(ctx)
	if err != nil {
		app.logger.Warn(ctx, "token purge failed", "error", err)
		return
	}
	if n > 0 {
		app.logger.Info(ctx, "expired tokens purged", "count", n)
	}
}

func (app *App) startPurgeLoop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			app.purgeOnce(ctx)
		}
	}
}

// Run blocks until the parent context is canceled, a termination signal
// arrives or the HTTP server fails.
func (app *App) Run(parent context.Context) error {
	ctx, cancelFunc := context.WithCancel(parent)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "storage", app.config.StorageMode)

	signalsDone := app.initSignalHandler(ctx, cancelFunc)

	var (
		wg     sync.WaitGroup
		runErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		runErr = app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startPurgeLoop(ctx, app.config.PurgeInterval)
	}()

	wg.Wait()
	cancelFunc()
	<-signalsDone
	app.services.Auth.Wait()

	if err := app.storage.Close(); err != nil {
		app.logger.Warn(context.Background(), "closing storage", "error", err)
	}
	app.logger.Info(context.Background(), "App stopped")
	return runErr
}
