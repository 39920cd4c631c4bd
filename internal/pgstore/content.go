package pgstore

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/roach88/contfrac/internal/tree"
)

func parseOID(id string) (uint32, error) {
	v, err := strconv.ParseUint(id, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("content reference %q: %w", id, tree.ErrNotFound)
	}
	return uint32(v), nil
}

// exists checks pg_largeobject_metadata first; opening a missing object
// would abort the transaction.
func (t *Tx) exists(ctx context.Context, oid uint32) (bool, error) {
	var ok bool
	err := t.tx.QueryRow(ctx, `
SELECT EXISTS (SELECT 1 FROM pg_largeobject_metadata WHERE oid = $1)
`, oid).Scan(&ok)
	return ok, err
}

func (t *Tx) open(ctx context.Context, id string, mode pgx.LargeObjectMode) (*pgx.LargeObject, error) {
	oid, err := parseOID(id)
	if err != nil {
		return nil, err
	}
	ok, err := t.exists(ctx, oid)
	if err != nil {
		return nil, fmt.Errorf("open blob %s: %w", id, err)
	}
	if !ok {
		return nil, fmt.Errorf("open blob %s: %w", id, tree.ErrNotFound)
	}
	los := t.tx.LargeObjects()
	lo, err := los.Open(ctx, oid, mode)
	if err != nil {
		return nil, fmt.Errorf("open blob %s: %w", id, err)
	}
	return lo, nil
}

// CreateBlob creates an empty large object.
func (t *Tx) CreateBlob(ctx context.Context) (string, error) {
	los := t.tx.LargeObjects()
	oid, err := los.Create(ctx, 0)
	if err != nil {
		return "", fmt.Errorf("create blob: %w", err)
	}
	return strconv.FormatUint(uint64(oid), 10), nil
}

func (t *Tx) OpenRead(ctx context.Context, id string) (io.ReadCloser, error) {
	return t.open(ctx, id, pgx.LargeObjectModeRead)
}

// OpenWrite truncates the object and returns it for writing.
func (t *Tx) OpenWrite(ctx context.Context, id string) (io.WriteCloser, error) {
	lo, err := t.open(ctx, id, pgx.LargeObjectModeWrite)
	if err != nil {
		return nil, err
	}
	if err := lo.Truncate(0); err != nil {
		lo.Close()
		return nil, fmt.Errorf("truncate blob %s: %w", id, err)
	}
	return lo, nil
}

// DeleteBlob unlinks the object. A missing object is not an error.
func (t *Tx) DeleteBlob(ctx context.Context, id string) error {
	oid, err := parseOID(id)
	if err != nil {
		return nil
	}
	ok, err := t.exists(ctx, oid)
	if err != nil {
		return fmt.Errorf("delete blob %s: %w", id, err)
	}
	if !ok {
		return nil
	}
	los := t.tx.LargeObjects()
	if err := los.Unlink(ctx, oid); err != nil {
		return fmt.Errorf("delete blob %s: %w", id, err)
	}
	return nil
}
