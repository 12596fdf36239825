// Package runtime wires the full server and manages its lifecycle.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/wisp-cms/wisp/internal/api/httpserver"
	"github.com/wisp-cms/wisp/internal/app/events"
	"github.com/wisp-cms/wisp/internal/app/httpapi"
	"github.com/wisp-cms/wisp/internal/app/metrics"
	"github.com/wisp-cms/wisp/internal/app/services/auth"
	"github.com/wisp-cms/wisp/internal/app/services/labs"
	"github.com/wisp-cms/wisp/internal/app/services/posts"
	"github.com/wisp-cms/wisp/internal/app/services/settings"
	"github.com/wisp-cms/wisp/internal/app/storage"
	"github.com/wisp-cms/wisp/internal/app/storage/migrate"
	"github.com/wisp-cms/wisp/internal/app/storage/sqldb"
	"github.com/wisp-cms/wisp/internal/app/theme"
	"github.com/wisp-cms/wisp/internal/config"
	"github.com/wisp-cms/wisp/pkg/logger"
)

// Options tunes application construction. The e2e harness injects its own
// config and bus and decides whether the site is served.
type Options struct {
	Config      *config.Config // nil loads from the environment
	Log         *logger.Logger
	Bus         events.Bus // nil selects memory or redis from config
	SiteEnabled bool
	BootMode    string // metrics.BootFresh (default) or metrics.BootRestart
}

// Application owns every long-lived component of a running server.
type Application struct {
	cfg   *config.Config
	log   *logger.Logger
	db    *sqlx.DB
	store storage.Store

	bus         events.Bus
	ownsBus     bool
	unsubscribe func()

	cache       *settings.Cache
	settingsSvc *settings.Service
	labsSvc     *labs.Service
	authSvc     *auth.Service
	postsSvc    *posts.Service

	server   *httpserver.Server
	serveErr chan error

	bootStart time.Time
	bootMode  string
}

// New constructs and wires an application: migrations up, database open,
// stores, settings cache, bus subscription, services, theme, router.
func New(opts Options) (*Application, error) {
	bootStart := time.Now()

	cfg := opts.Config
	if cfg == nil {
		loaded, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	log := opts.Log
	if log == nil {
		log = logger.New(logger.LoggingConfig{
			Level:      cfg.Logging.Level,
			Format:     cfg.Logging.Format,
			Output:     cfg.Logging.Output,
			FilePrefix: cfg.Logging.FilePrefix,
		})
	}

	dsn := cfg.DatabaseDSN()

	// Migrations run before the pool opens so sqlite sees a single writer.
	runner, err := migrate.NewRunner(cfg.Database.Driver, dsn, log)
	if err != nil {
		return nil, fmt.Errorf("failed to configure migrations: %w", err)
	}
	if err := runner.Up(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	db, err := sqldb.Open(cfg.Database.Driver, dsn, sqldb.Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	store := sqldb.New(db)

	ctx := context.Background()
	if err := settings.EnsureDefaults(ctx, store, log); err != nil {
		db.Close()
		return nil, err
	}

	cache := settings.NewCache(store, log)
	if err := cache.Load(ctx); err != nil {
		db.Close()
		return nil, err
	}

	bus := opts.Bus
	ownsBus := false
	if bus == nil {
		if cfg.Cache.RedisAddr != "" {
			redisBus, err := events.NewRedisBus(cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB, log)
			if err != nil {
				db.Close()
				return nil, fmt.Errorf("failed to connect invalidation bus: %w", err)
			}
			bus = redisBus
		} else {
			bus = events.NewMemoryBus()
		}
		ownsBus = true
	}
	unsubscribe := bus.Subscribe(events.TopicSettingsInvalidated, func(string) {
		if err := cache.Reload(context.Background()); err != nil {
			log.WithError(err).Errorf("failed to reload settings cache")
		}
	})

	settingsSvc := settings.NewService(store, cache, bus, log)
	labsSvc := labs.New(cache, labs.Config{
		DeveloperExperiments: cfg.DeveloperExperiments,
		DevOrTesting:         cfg.IsDevelopmentOrTesting(),
	}, log)
	authSvc := auth.New(store, cfg.JWTSecret(), cfg.Auth.TokenTTL, log)
	postsSvc := posts.New(store, log)

	var engine *theme.Engine
	var redirects []httpapi.Redirect
	if opts.SiteEnabled {
		engine, redirects, err = loadSite(cfg, cache, labsSvc, log)
		if err != nil {
			unsubscribe()
			db.Close()
			return nil, err
		}
	}

	handler := httpapi.New(httpapi.Deps{
		Config:    cfg,
		Log:       log,
		Settings:  settingsSvc,
		Labs:      labsSvc,
		Auth:      authSvc,
		Posts:     postsSvc,
		Theme:     engine,
		Redirects: redirects,
	})
	server := httpserver.New(cfg.Server, log, metrics.InstrumentHandler(handler.Router()))

	mode := opts.BootMode
	if mode == "" {
		mode = metrics.BootFresh
	}

	return &Application{
		cfg:         cfg,
		log:         log,
		db:          db,
		store:       store,
		bus:         bus,
		ownsBus:     ownsBus,
		unsubscribe: unsubscribe,
		cache:       cache,
		settingsSvc: settingsSvc,
		labsSvc:     labsSvc,
		authSvc:     authSvc,
		postsSvc:    postsSvc,
		server:      server,
		bootStart:   bootStart,
		bootMode:    mode,
	}, nil
}

// loadSite prepares the theme engine and redirect table, installing the
// default theme on first boot.
func loadSite(cfg *config.Config, cache *settings.Cache, labsSvc *labs.Service, log *logger.Logger) (*theme.Engine, []httpapi.Redirect, error) {
	themesDir := filepath.Join(cfg.Paths.ContentDir, "themes")
	name := cache.GetString("active_theme")
	if name == "" {
		name = theme.DefaultName
	}
	if name == theme.DefaultName && !theme.Installed(themesDir, name) {
		if err := theme.CopyDefault(themesDir); err != nil {
			return nil, nil, fmt.Errorf("failed to install default theme: %w", err)
		}
		log.Infof("default theme installed in %s", themesDir)
	}

	engine, err := theme.NewEngine(themesDir, name, theme.Helpers(labsSvc, cache.GetString("title")), log)
	if err != nil {
		return nil, nil, err
	}

	redirects, err := httpapi.LoadRedirects(filepath.Join(cfg.Paths.ContentDir, "data", "redirects.yaml"))
	if err != nil {
		return nil, nil, err
	}
	return engine, redirects, nil
}

// Start binds the listener and serves in the background. It returns once
// the listener is accepting, with Addr available.
func (a *Application) Start(ctx context.Context) error {
	if err := a.server.Listen(); err != nil {
		return err
	}

	a.serveErr = make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.serveErr <- err
		}
	}()

	duration := time.Since(a.bootStart)
	metrics.RecordBoot(a.bootMode, duration)
	a.log.Infof("wisp booted (%s) on %s in %s", a.bootMode, a.Addr(), duration.Round(time.Millisecond))
	return nil
}

// Run starts the server and blocks until the context is cancelled or the
// listener fails.
func (a *Application) Run(ctx context.Context) error {
	if err := a.Start(ctx); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return nil
	case err := <-a.serveErr:
		return err
	}
}

// Shutdown stops the server, the bus subscription, and the database, in
// that order.
func (a *Application) Shutdown(ctx context.Context) error {
	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop http server: %w", err)
	}

	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
	if a.ownsBus {
		if err := a.bus.Close(); err != nil {
			a.log.WithError(err).Warnf("error closing invalidation bus")
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.WithError(err).Warnf("error closing database connection")
		}
	}

	a.log.Infof("wisp stopped")
	return nil
}

// Addr returns the bound listen address once Start has succeeded.
func (a *Application) Addr() string {
	return a.server.Addr()
}

// Store exposes the backing store for fixtures and tests.
func (a *Application) Store() storage.Store {
	return a.store
}

// SettingsCache exposes the process-wide settings cache.
func (a *Application) SettingsCache() *settings.Cache {
	return a.cache
}

// Labs exposes the flag service.
func (a *Application) Labs() *labs.Service {
	return a.labsSvc
}

// Config returns the effective configuration.
func (a *Application) Config() *config.Config {
	return a.cfg
}
