package pgstore

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/roach88/contfrac/internal/label"
	"github.com/roach88/contfrac/internal/tree"
)

//go:embed schema.sql
var schemaSQL string

type pgBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Options configures a Store.
type Options struct {
	// DecimalPlaces is the scale of the NUMERIC key. Fixed on first use.
	DecimalPlaces int
}

// Store is a tree.Store over a pgx pool.
type Store struct {
	pool   pgBeginner
	close  func()
	places int
}

var _ tree.Store = (*Store)(nil)

// Open connects to dsn, applies the schema and checks the key precision.
func Open(ctx context.Context, dsn string, opts Options) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	s := New(pool, opts)
	s.close = pool.Close
	if err := s.Init(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing pool. Call Init before first use on a fresh
// database.
func New(pool pgBeginner, opts Options) *Store {
	if opts.DecimalPlaces <= 0 {
		opts.DecimalPlaces = label.DefaultPlaces
	}
	return &Store{pool: pool, places: opts.DecimalPlaces}
}

// Close releases the pool if Open created it.
func (s *Store) Close() error {
	if s.close != nil {
		s.close()
		s.close = nil
	}
	return nil
}

// DecimalPlaces returns the key precision.
func (s *Store) DecimalPlaces() int { return s.places }

// Init creates the tables if missing and records or verifies the key
// precision.
func (s *Store) Init(ctx context.Context) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("init: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if _, err := tx.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("init: schema: %w", err)
	}

	var stored string
	err = tx.QueryRow(ctx, `SELECT value FROM contfrac_meta WHERE name = 'decimal_places'`).Scan(&stored)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		if _, err := tx.Exec(ctx, `
INSERT INTO contfrac_meta (name, value) VALUES ('decimal_places', $1)
`, strconv.Itoa(s.places)); err != nil {
			return fmt.Errorf("init: record decimal places: %w", err)
		}
	case err != nil:
		return fmt.Errorf("init: read decimal places: %w", err)
	case stored != strconv.Itoa(s.places):
		return fmt.Errorf("database keys use %s decimal places, configured %d", stored, s.places)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("init: commit: %w", err)
	}
	return nil
}

// Begin starts a transaction implementing tree.Tx bound to ctx. See Tx for
// how Commit and Rollback use it.
func (s *Store) Begin(ctx context.Context) (tree.Tx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return &Tx{tx: tx, ctx: ctx, places: s.places}, nil
}
