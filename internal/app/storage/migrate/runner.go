// Package migrate executes the embedded schema migrations.
//
// Each operation builds a fresh migrate instance with its own database
// connection, so Drop followed by Up recreates the version table cleanly.
// For sqlite the caller must not hold other connections while migrating;
// the runtime and the e2e harness both migrate before opening the pool.
package migrate

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"

	"github.com/wisp-cms/wisp/pkg/logger"
)

//go:embed sql/*.sql
var migrationFiles embed.FS

// Runner executes schema migrations against the configured database.
type Runner struct {
	url string
	log *logger.Logger
}

// NewRunner creates a runner for the given driver and DSN. Postgres DSNs
// must be in URL form; sqlite DSNs are file paths.
func NewRunner(driver, dsn string, log *logger.Logger) (*Runner, error) {
	if log == nil {
		log = logger.NewDefault("migrate")
	}

	var url string
	switch driver {
	case "postgres":
		if !strings.Contains(dsn, "://") {
			return nil, fmt.Errorf("postgres dsn must be a URL, got %q", dsn)
		}
		url = dsn
	case "sqlite":
		if strings.Contains(dsn, "://") {
			url = dsn
		} else {
			url = "sqlite://" + dsn
		}
	default:
		return nil, fmt.Errorf("unknown database driver %q", driver)
	}

	return &Runner{url: url, log: log}, nil
}

func (r *Runner) instance() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationFiles, "sql")
	if err != nil {
		return nil, fmt.Errorf("failed to load migration source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, r.url)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise migrations: %w", err)
	}
	return m, nil
}

func closeInstance(m *migrate.Migrate) {
	srcErr, dbErr := m.Close()
	_ = srcErr
	_ = dbErr
}

// Up applies every pending migration.
func (r *Runner) Up() error {
	m, err := r.instance()
	if err != nil {
		return err
	}
	defer closeInstance(m)

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations up: %w", err)
	}
	r.log.Debug("migrations up to date")
	return nil
}

// Down rolls every applied migration back.
func (r *Runner) Down() error {
	m, err := r.instance()
	if err != nil {
		return err
	}
	defer closeInstance(m)

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to roll migrations back: %w", err)
	}
	r.log.Debug("migrations rolled back")
	return nil
}

// Drop wipes the whole schema, including the migration version table.
func (r *Runner) Drop() error {
	m, err := r.instance()
	if err != nil {
		return err
	}
	defer closeInstance(m)

	if err := m.Drop(); err != nil {
		return fmt.Errorf("failed to drop schema: %w", err)
	}
	r.log.Debug("schema dropped")
	return nil
}

// Version reports the current migration version and whether the schema is
// dirty. A nil error with version 0 means no migration has been applied.
func (r *Runner) Version() (uint, bool, error) {
	m, err := r.instance()
	if err != nil {
		return 0, false, err
	}
	defer closeInstance(m)

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read migration version: %w", err)
	}
	return version, dirty, nil
}
