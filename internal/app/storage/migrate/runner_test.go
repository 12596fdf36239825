package migrate

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func newSQLiteRunner(t *testing.T) (*Runner, string) {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "wisp-test.db")
	r, err := NewRunner("sqlite", dsn, nil)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	return r, dsn
}

func TestUpDownCycle(t *testing.T) {
	r, _ := newSQLiteRunner(t)

	if err := r.Up(); err != nil {
		t.Fatalf("Up: %v", err)
	}

	version, dirty, err := r.Version()
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if version != 2 || dirty {
		t.Fatalf("version = %d dirty = %v, want 2 clean", version, dirty)
	}

	// A second Up is a no-op.
	if err := r.Up(); err != nil {
		t.Fatalf("second Up: %v", err)
	}

	if err := r.Down(); err != nil {
		t.Fatalf("Down: %v", err)
	}
	version, _, err = r.Version()
	if err != nil {
		t.Fatalf("Version after Down: %v", err)
	}
	if version != 0 {
		t.Fatalf("version after Down = %d, want 0", version)
	}
}

func TestDropThenUpRestoresSchema(t *testing.T) {
	r, dsn := newSQLiteRunner(t)

	if err := r.Up(); err != nil {
		t.Fatalf("Up: %v", err)
	}
	if err := r.Drop(); err != nil {
		t.Fatalf("Drop: %v", err)
	}
	if err := r.Up(); err != nil {
		t.Fatalf("Up after Drop: %v", err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	_, err = db.Exec(`INSERT INTO settings (id, key, value, created_at, updated_at)
		VALUES ('1', 'title', 'Wisp', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)
	if err != nil {
		t.Fatalf("settings table unusable after Drop+Up: %v", err)
	}
}

func TestNewRunnerRejectsUnknownDriver(t *testing.T) {
	if _, err := NewRunner("mysql", "dsn", nil); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestNewRunnerRequiresPostgresURL(t *testing.T) {
	if _, err := NewRunner("postgres", "host=localhost dbname=wisp", nil); err == nil {
		t.Fatal("expected error for non-URL postgres dsn")
	}
	if _, err := NewRunner("postgres", "postgres://localhost/wisp?sslmode=disable", nil); err != nil {
		t.Fatalf("URL dsn rejected: %v", err)
	}
}
