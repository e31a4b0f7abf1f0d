package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/clerk/clerk-sdk-go/v2"
	"golang.org/x/sync/errgroup"

	"github.com/genyouth/wellness/internal/api"
	"github.com/genyouth/wellness/internal/app/checkin"
	"github.com/genyouth/wellness/internal/app/notify"
	"github.com/genyouth/wellness/internal/app/recommend"
	"github.com/genyouth/wellness/internal/app/session"
	"github.com/genyouth/wellness/internal/domain"
	"github.com/genyouth/wellness/internal/health"
	"github.com/genyouth/wellness/internal/infra/catalog"
	"github.com/genyouth/wellness/internal/infra/postgres"
	"github.com/genyouth/wellness/internal/infra/sqlite"
	"github.com/genyouth/wellness/internal/logging"
)

// Daemon is the wellness runtime. It wires together all services.
type Daemon struct {
	Config   Config
	Store    domain.Store
	Catalog  *catalog.Catalog
	Matcher  *recommend.Matcher
	Notify   *notify.Service
	Sessions *session.Manager
	CheckIns *checkin.Service
	Health   *health.Checker
	Limiter  *api.RateLimiter
	Server   *api.Server

	log *slog.Logger
}

// New loads the config, initializes logging and wires a Daemon.
func New(ctx context.Context) (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logging.Init(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)
	return NewWithConfig(ctx, cfg)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(ctx context.Context, cfg Config) (*Daemon, error) {
	log := logging.New("daemon")

	cat, err := catalog.LoadOrDefault(cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	store, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	// Push delivery is optional; notifications are still stored without it.
	var notifyOpts []notify.Option
	if cfg.Notifications.FCMCredentials != "" {
		pusher, err := notify.NewFCMPusher(ctx, cfg.Notifications.FCMCredentials)
		if err != nil {
			log.Warn("push notifications disabled", "error", err)
		} else {
			notifyOpts = append(notifyOpts, notify.WithPusher(pusher))
		}
	}
	notifications := notify.NewService(store, cfg.Notifications.Policy(), notifyOpts...)

	sessions := session.NewManager(cat.Definitions(), store, session.WithNotifier(notifications))
	matcher := recommend.NewMatcher(cat.Content)
	checkins := checkin.NewService(store, matcher, checkin.WithActivityLogger(sessions))

	srv := api.NewServer(sessions, matcher, notifications)
	srv.SetCheckIns(checkins)
	srv.SetResources(cat)
	srv.SetCORSOrigins(cfg.API.CORSOrigins)

	// Enable Prometheus /metrics if configured
	if cfg.Telemetry.Prometheus {
		srv.EnableMetrics()
	}

	switch strings.ToLower(cfg.Auth.Provider) {
	case "clerk":
		clerk.SetKey(cfg.Auth.SecretKey)
		srv.SetIdentity(api.BearerIdentity(api.ClerkVerifier()))
	default:
		srv.SetIdentity(api.HeaderIdentity(cfg.Auth.Header))
	}

	d := &Daemon{
		Config:   cfg,
		Store:    store,
		Catalog:  cat,
		Matcher:  matcher,
		Notify:   notifications,
		Sessions: sessions,
		CheckIns: checkins,
		Server:   srv,
		log:      log,
	}

	if cfg.API.RateLimitRPS > 0 {
		d.Limiter = api.NewRateLimiter(cfg.API.RateLimitRPS, cfg.API.RateLimitBurst)
		srv.SetRateLimiter(d.Limiter)
	}

	d.Health = health.NewChecker(store, WellnessHome(), matcher.Len)
	srv.SetHealth(d.Health)

	return d, nil
}

// openStore opens the configured ledger store.
func openStore(ctx context.Context, cfg StorageConfig) (domain.Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "postgres":
		db, err := postgres.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return db, nil
	default:
		var (
			db  *sqlite.DB
			err error
		)
		if cfg.DSN != "" {
			db, err = sqlite.OpenFile(cfg.DSN)
		} else {
			db, err = sqlite.Open(WellnessHome())
		}
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		return db, nil
	}
}

// Serve starts the HTTP server and background services, and blocks until
// ctx is cancelled or SIGINT/SIGTERM arrives.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		d.Health.Run(ctx)
		return nil
	})

	if d.Limiter != nil {
		g.Go(func() error { return d.Limiter.Cleanup(ctx) })
	}

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		d.log.Info("serving", "addr", addr,
			"store", d.Config.Storage.Driver,
			"auth", d.Config.Auth.Provider,
			"content", d.Matcher.Len(),
			"metrics", d.Config.Telemetry.Prometheus)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	err := g.Wait()
	d.Close()
	return err
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.Store != nil {
		if err := d.Store.Close(); err != nil {
			d.log.Warn("close store", "error", err)
		}
		d.Store = nil
	}
}
