package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strconv"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/contfrac/internal/label"
	"github.com/roach88/contfrac/internal/tree"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added (depth, name) index for child lookups by name
const currentSchemaVersion = 1

// Options configures Open.
type Options struct {
	// DecimalPlaces is the fractional precision of the key column. It is
	// fixed when the database is created; reopening with a different value
	// fails. Defaults to label.DefaultPlaces.
	DecimalPlaces int

	// IDs generates content references. Defaults to UUIDv7Generator.
	IDs IDGenerator
}

// Store provides durable storage for the labelled tree.
// Uses SQLite with WAL mode for concurrent read access.
type Store struct {
	db     *sql.DB
	places int
	ids    IDGenerator
}

var _ tree.Store = (*Store)(nil)

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//
// This function is idempotent - safe to call multiple times.
func Open(path string, opts Options) (*Store, error) {
	if opts.DecimalPlaces <= 0 {
		opts.DecimalPlaces = label.DefaultPlaces
	}
	if opts.IDs == nil {
		opts.IDs = UUIDv7Generator{}
	}

	// Open database (creates file if doesn't exist)
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify connection works
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time. A tree operation holds
	// this connection for the whole of its transaction.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	if err := checkPlaces(db, opts.DecimalPlaces); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, places: opts.DecimalPlaces, ids: opts.IDs}, nil
}

// Close closes the database connection.
// Should be called when the store is no longer needed.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer the transactional tree.Tx methods.
func (s *Store) DB() *sql.DB {
	return s.db
}

// DecimalPlaces returns the key precision fixed for this database.
func (s *Store) DecimalPlaces() int {
	return s.places
}

// Begin starts a transaction implementing tree.Tx.
func (s *Store) Begin(ctx context.Context) (tree.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return &Tx{tx: tx, places: s.places, ids: s.ids}, nil
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
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}

	// Set version after all migrations
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// migrateToV1 adds the (depth, name) index used by child lookups.
func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_nodes_depth_name
		ON nodes(depth, name)
	`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// checkPlaces records the key precision on first open and rejects a
// mismatching precision afterwards; keys of different widths do not sort
// together.
func checkPlaces(db *sql.DB, places int) error {
	var stored string
	err := db.QueryRow(`SELECT value FROM meta WHERE name = 'decimal_places'`).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		_, err = db.Exec(`INSERT INTO meta (name, value) VALUES ('decimal_places', ?)`, strconv.Itoa(places))
		if err != nil {
			return fmt.Errorf("record decimal places: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("read decimal places: %w", err)
	}
	if stored != strconv.Itoa(places) {
		return fmt.Errorf("database keys use %s decimal places, configured %d", stored, places)
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
