package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/contfrac/internal/label"
	"github.com/roach88/contfrac/internal/tree"
)

// Get retrieves the node labelled l.
// Returns tree.ErrNotFound if there is none, including when another label
// shares l's decimal key.
func (t *Tx) Get(ctx context.Context, l label.Fraction) (tree.Node, error) {
	key, err := label.SortKey(l, t.places)
	if err != nil {
		return tree.Node{}, fmt.Errorf("get: %w", err)
	}

	n, err := scanNode(t.tx.QueryRowContext(ctx, `
		SELECT `+nodeColumns+`
		FROM nodes
		WHERE key = ?
	`, key))
	if errors.Is(err, sql.ErrNoRows) {
		return tree.Node{}, fmt.Errorf("get %s: %w", l, tree.ErrNotFound)
	}
	if err != nil {
		return tree.Node{}, fmt.Errorf("get %s: %w", l, err)
	}
	if !n.Label.Equal(l) {
		return tree.Node{}, fmt.Errorf("get %s: key held by %s: %w", l, n.Label, tree.ErrNotFound)
	}
	return n, nil
}

// Range returns the nodes with lo <= label < hi in ascending label order.
// depth > 0 restricts the result to that depth.
func (t *Tx) Range(ctx context.Context, lo, hi label.Fraction, depth int) ([]tree.Node, error) {
	query, args, err := t.rangeQuery(lo, hi, depth, "")
	if err != nil {
		return nil, fmt.Errorf("range: %w", err)
	}

	rows, err := t.tx.QueryContext(ctx, query+` ORDER BY key ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("query range: %w", err)
	}
	defer rows.Close()

	var nodes []tree.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		nodes = append(nodes, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate range: %w", err)
	}

	// Return empty slice instead of nil
	if nodes == nil {
		nodes = []tree.Node{}
	}

	return nodes, nil
}

// Last returns the greatest node in the range.
// Returns tree.ErrNotFound if the range is empty.
func (t *Tx) Last(ctx context.Context, lo, hi label.Fraction, depth int) (tree.Node, error) {
	query, args, err := t.rangeQuery(lo, hi, depth, "")
	if err != nil {
		return tree.Node{}, fmt.Errorf("last: %w", err)
	}

	n, err := scanNode(t.tx.QueryRowContext(ctx, query+` ORDER BY key DESC LIMIT 1`, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return tree.Node{}, fmt.Errorf("last in [%s, %s): %w", lo, hi, tree.ErrNotFound)
	}
	if err != nil {
		return tree.Node{}, fmt.Errorf("last in [%s, %s): %w", lo, hi, err)
	}
	return n, nil
}

// Child returns the node named name in the range.
// Returns tree.ErrNotFound if there is none.
func (t *Tx) Child(ctx context.Context, lo, hi label.Fraction, depth int, name string) (tree.Node, error) {
	query, args, err := t.rangeQuery(lo, hi, depth, name)
	if err != nil {
		return tree.Node{}, fmt.Errorf("child: %w", err)
	}

	n, err := scanNode(t.tx.QueryRowContext(ctx, query+` ORDER BY key ASC LIMIT 1`, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return tree.Node{}, fmt.Errorf("child %q: %w", name, tree.ErrNotFound)
	}
	if err != nil {
		return tree.Node{}, fmt.Errorf("child %q: %w", name, err)
	}
	return n, nil
}

// rangeQuery builds the shared SELECT for [lo, hi) with optional depth and
// name filters.
func (t *Tx) rangeQuery(lo, hi label.Fraction, depth int, name string) (string, []any, error) {
	loKey, err := label.SortKey(lo, t.places)
	if err != nil {
		return "", nil, err
	}
	hiKey, err := label.SortKey(hi, t.places)
	if err != nil {
		return "", nil, err
	}

	query := `SELECT ` + nodeColumns + ` FROM nodes WHERE key >= ? AND key < ?`
	args := []any{loKey, hiKey}
	if depth > 0 {
		query += ` AND depth = ?`
		args = append(args, depth)
	}
	if name != "" {
		query += ` AND name = ?`
		args = append(args, name)
	}
	return query, args, nil
}
