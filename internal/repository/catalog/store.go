package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/kailas-cloud/stylesearch/internal/repository/catalog/migrations"
)

// Supported database/sql driver names.
const (
	DriverModernc = "sqlite"
	DriverMattn   = "sqlite3"
)

// Config selects the SQLite driver and database file.
type Config struct {
	Driver string
	Path   string
}

// Option customizes a Store.
type Option func(*Store)

// WithHooks registers the post-commit change hooks.
func WithHooks(h Hooks) Option {
	return func(s *Store) { s.hooks = h }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Store is the authoritative relational catalog of styles.
type Store struct {
	db    *sql.DB
	hooks Hooks
	now   func() time.Time
}

// Open opens (creating if needed) the SQLite database and applies migrations.
func Open(cfg Config, opts ...Option) (*Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverModernc
	}
	if cfg.Path == "" {
		return nil, fmt.Errorf("catalog path is required")
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating catalog directory: %w", err)
		}
	}

	dsn, err := buildDSN(driver, cfg.Path)
	if err != nil {
		return nil, err
	}
	registerFoldFunc()
	db, err := sql.Open(driverName(driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}

	s := &Store{db: db, hooks: nopHooks{}, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.migrate(migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// buildDSN enables WAL, a busy timeout and foreign keys on every pooled connection.
func buildDSN(driver, path string) (string, error) {
	switch driver {
	case DriverModernc:
		return path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", nil
	case DriverMattn:
		return path + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", nil
	}
	return "", fmt.Errorf("unsupported catalog driver %q", driver)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping catalog: %w", err)
	}
	return nil
}

func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			applied_at TEXT DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations: %w", err)
	}
	var upFiles []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".up.sql") {
			upFiles = append(upFiles, e.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= current {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}
	return nil
}
