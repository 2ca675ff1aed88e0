package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/postsync/internal/post"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added index on posts.isSynced for pending counts
const currentSchemaVersion = 1

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store is closed")

// Store provides durable storage for posts.
//
// A Store is constructed once at process start and handed to every component
// that needs it. It is safe for concurrent use; SQLite serializes the writes.
type Store struct {
	db  *sql.DB
	now func() time.Time

	mu          sync.Mutex // guards initialized and closed
	initialized bool
	closed      bool
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used to stamp createdAt (for testing).
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Open creates or opens a SQLite database at the given path.
// The schema is not touched here; it is created lazily by Init.
//
// The connection is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - A single open connection (SQLite has one writer)
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, &post.StorageError{Op: "open", Err: err}
	}

	// A single connection also keeps ":memory:" databases alive for the
	// lifetime of the store.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &post.StorageError{Op: "open", Err: fmt.Errorf("connect to database: %w", err)}
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, &post.StorageError{Op: "open", Err: err}
	}

	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Init creates the posts table and runs migrations if they have not run yet.
//
// Init is idempotent: once it succeeds, later calls return nil immediately.
// A failed Init leaves the store uninitialized so the next call retries.
// Every other operation calls Init first, so calling it directly is optional.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return &post.StorageError{Op: "init", Err: ErrClosed}
	}
	if s.initialized {
		return nil
	}

	if err := applySchema(ctx, s.db); err != nil {
		return &post.StorageError{Op: "init", Err: err}
	}

	s.initialized = true
	slog.Debug("post store initialized", "schema_version", currentSchemaVersion)
	return nil
}

// Close closes the database connection. Calling Close more than once is safe.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.db == nil {
		return nil
	}
	s.closed = true
	return s.db.Close()
}


// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
// This function is idempotent.
func applySchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(ctx, db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(ctx, db); err != nil {
			return err
		}
	}

	if version != currentSchemaVersion {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}

	return nil
}

// migrateToV1 indexes isSynced so pending counts avoid a table scan.
func migrateToV1(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_posts_is_synced
		ON posts(isSynced)
	`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
