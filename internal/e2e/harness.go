// Package e2e boots the full wisp server against a disposable database for
// end-to-end tests.
//
// The harness keeps one instance per process. The first Start call (or any
// call with ForceFresh) takes the fresh path: drop the schema, migrate up,
// expose fixtures, stage content files, boot. While an instance is running,
// Start takes the restart path instead: shut the server down, roll the
// schema back and forward, re-expose fixtures, boot. Both paths are strictly
// sequential with no retries; the first error wins. Fixture exposure failure
// aborts the test process.
//
// The database is a temp-file sqlite store by default. Set
// WISP_TEST_DATABASE_URL to a postgres URL to run the suite against
// postgres instead.
package e2e

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/wisp-cms/wisp/internal/app/fixtures"
	"github.com/wisp-cms/wisp/internal/app/metrics"
	"github.com/wisp-cms/wisp/internal/app/runtime"
	"github.com/wisp-cms/wisp/internal/app/storage/migrate"
	"github.com/wisp-cms/wisp/internal/app/storage/sqldb"
	"github.com/wisp-cms/wisp/internal/app/theme"
	"github.com/wisp-cms/wisp/internal/config"
	"github.com/wisp-cms/wisp/pkg/logger"
)

// TestDatabaseEnv names the environment variable that points the harness at
// a postgres database.
const TestDatabaseEnv = "WISP_TEST_DATABASE_URL"

// healthTimeout bounds the readiness poll after boot.
const healthTimeout = 10 * time.Second

// exitFn is called when fixture exposure fails. Swapped in tests covering
// that path.
var exitFn = os.Exit

var log = logger.NewDefault("e2e")

// Options control one Start call. The zero value boots a backend-only
// instance with no staged content and no fixtures; most tests start from
// DefaultOptions instead.
type Options struct {
	// ForceFresh tears the database down even when an instance from a
	// previous Start is still running.
	ForceFresh bool

	// Frontend enables the themed site routes.
	Frontend bool

	// CopyThemes stages the embedded default theme into the content
	// directory before boot.
	CopyThemes bool

	// CopySettings seeds the default fixture set: site settings, the owner
	// account, and the welcome post.
	CopySettings bool

	// RedirectsFile is copied to content/data/redirects.yaml before boot.
	RedirectsFile string

	// Fixtures are extra fixture sets loaded after the defaults.
	Fixtures []fixtures.Set

	// Env overrides the environment the instance boots in. Empty means
	// testing.
	Env string
}

// DefaultOptions returns the options most scenario tests start from: site
// routes on, default theme staged, default fixtures loaded, testing
// environment.
func DefaultOptions() Options {
	return Options{
		Frontend:     true,
		CopyThemes:   true,
		CopySettings: true,
		Env:          config.EnvTesting,
	}
}

// Instance is a booted wisp server under test.
type Instance struct {
	App     *runtime.Application
	BaseURL string
	Client  *Client
}

// One instance per process, one work directory per harness lifetime. The
// work directory holds the sqlite database and the staged content tree.
var (
	current *Instance
	workDir string
)

// Start boots a wisp instance according to opts. Consecutive calls restart
// the running instance unless ForceFresh is set.
func Start(ctx context.Context, opts Options) (*Instance, error) {
	if current != nil && !opts.ForceFresh {
		return restart(ctx, opts)
	}
	return freshStart(ctx, opts)
}

// Stop shuts the current instance down. The next Start takes the fresh
// path.
func Stop(ctx context.Context) error {
	if current == nil {
		return nil
	}
	inst := current
	current = nil
	if err := inst.App.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to stop instance: %w", err)
	}
	return nil
}

// Cleanup stops the current instance and removes the work directory.
// Intended for TestMain teardown.
func Cleanup(ctx context.Context) error {
	err := Stop(ctx)
	if workDir != "" {
		os.RemoveAll(workDir)
		workDir = ""
	}
	return err
}

// freshStart resets the database from nothing: drop whatever schema exists,
// migrate up, expose fixtures, stage content, boot.
func freshStart(ctx context.Context, opts Options) (*Instance, error) {
	if current != nil {
		if err := Stop(ctx); err != nil {
			return nil, err
		}
	}

	cfg, err := instanceConfig(opts)
	if err != nil {
		return nil, err
	}

	runner, err := migrate.NewRunner(cfg.Database.Driver, cfg.DatabaseDSN(), log)
	if err != nil {
		return nil, err
	}
	if err := runner.Drop(); err != nil {
		return nil, err
	}
	if err := runner.Up(); err != nil {
		return nil, err
	}

	if err := exposeFixtures(ctx, cfg, opts); err != nil {
		return nil, err
	}
	if err := stageContent(cfg.Paths.ContentDir, opts); err != nil {
		return nil, err
	}

	return boot(ctx, cfg, opts, metrics.BootFresh)
}

// restart recycles the running instance: shut it down, roll the schema back
// and forward, re-expose fixtures, boot. Content staged by the fresh start
// is kept; the new boot reloads the settings cache from the reset database.
func restart(ctx context.Context, opts Options) (*Instance, error) {
	inst := current
	current = nil
	if err := inst.App.Shutdown(ctx); err != nil {
		return nil, fmt.Errorf("failed to stop previous instance: %w", err)
	}

	cfg, err := instanceConfig(opts)
	if err != nil {
		return nil, err
	}

	runner, err := migrate.NewRunner(cfg.Database.Driver, cfg.DatabaseDSN(), log)
	if err != nil {
		return nil, err
	}
	if err := runner.Down(); err != nil {
		return nil, err
	}
	if err := runner.Up(); err != nil {
		return nil, err
	}

	if err := exposeFixtures(ctx, cfg, opts); err != nil {
		return nil, err
	}

	return boot(ctx, cfg, opts, metrics.BootRestart)
}

// instanceConfig builds the configuration for one boot. The work directory
// is created on first use and reused for the rest of the process, so the
// sqlite file and staged content survive restarts.
func instanceConfig(opts Options) (*config.Config, error) {
	if workDir == "" {
		dir, err := os.MkdirTemp("", "wisp-e2e-")
		if err != nil {
			return nil, fmt.Errorf("failed to create work directory: %w", err)
		}
		workDir = dir
	}

	cfg := config.Default()
	cfg.Env = config.EnvTesting
	if opts.Env != "" {
		cfg.Env = opts.Env
	}
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Paths.ContentDir = filepath.Join(workDir, "content")
	cfg.Logging.Level = "warn"
	cfg.Logging.Output = "stderr"
	cfg.Auth.JWTSecret = "wisp-e2e-secret"
	cfg.RateLimit.Enabled = false

	if url := os.Getenv(TestDatabaseEnv); url != "" {
		cfg.Database.Driver = sqldb.DriverPostgres
		cfg.Database.DSN = url
	} else {
		cfg.Database.Driver = sqldb.DriverSQLite
		cfg.Database.DSN = filepath.Join(workDir, "wisp-test.db")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// exposeFixtures loads the requested fixture sets through a short-lived
// connection, closed again before boot so sqlite's single writer is free.
// A load failure aborts the process; tests cannot run against a half-seeded
// database.
func exposeFixtures(ctx context.Context, cfg *config.Config, opts Options) error {
	sets := make([]fixtures.Set, 0, len(opts.Fixtures)+1)
	if opts.CopySettings {
		sets = append(sets, fixtures.Default())
	}
	sets = append(sets, opts.Fixtures...)
	if len(sets) == 0 {
		return nil
	}

	db, err := sqldb.Open(cfg.Database.Driver, cfg.DatabaseDSN(), sqldb.Options{})
	if err != nil {
		return fmt.Errorf("failed to open database for fixtures: %w", err)
	}
	defer db.Close()

	if err := fixtures.NewLoader(sqldb.New(db), log).Load(ctx, sets...); err != nil {
		log.WithError(err).Error("failed to expose fixtures")
		exitFn(1)
	}
	return nil
}

// stageContent prepares the content directory before boot.
func stageContent(contentDir string, opts Options) error {
	if err := os.MkdirAll(filepath.Join(contentDir, "data"), 0o755); err != nil {
		return fmt.Errorf("failed to create content directory: %w", err)
	}
	if opts.CopyThemes {
		if err := theme.CopyDefault(filepath.Join(contentDir, "themes")); err != nil {
			return fmt.Errorf("failed to stage themes: %w", err)
		}
	}
	if opts.RedirectsFile != "" {
		dst := filepath.Join(contentDir, "data", "redirects.yaml")
		if err := copyFile(opts.RedirectsFile, dst); err != nil {
			return fmt.Errorf("failed to stage redirects file: %w", err)
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// boot builds and starts the application, then waits for the health
// endpoint before handing the instance to the test.
func boot(ctx context.Context, cfg *config.Config, opts Options, mode string) (*Instance, error) {
	app, err := runtime.New(runtime.Options{
		Config:      cfg,
		SiteEnabled: opts.Frontend,
		BootMode:    mode,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build application: %w", err)
	}
	if err := app.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start application: %w", err)
	}

	inst := &Instance{
		App:     app,
		BaseURL: "http://" + app.Addr(),
	}
	inst.Client = NewClient(inst.BaseURL)

	if err := inst.Client.WaitHealthy(ctx, healthTimeout); err != nil {
		app.Shutdown(ctx)
		return nil, err
	}

	current = inst
	return inst, nil
}
