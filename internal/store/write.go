package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/contfrac/internal/label"
	"github.com/roach88/contfrac/internal/tree"
)

// Tx is a database transaction implementing tree.Tx.
type Tx struct {
	tx     *sql.Tx
	places int
	ids    IDGenerator
}

var _ tree.Tx = (*Tx)(nil)

const insertNode = `
	INSERT INTO nodes
	(key, num, den, bound_key, bound_num, bound_den, depth, name, content)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(key) DO NOTHING
`

const updateNode = `
	UPDATE nodes
	SET key = ?, num = ?, den = ?, bound_key = ?, bound_num = ?, bound_den = ?, depth = ?, name = ?
	WHERE key = ?
`

// Commit commits the transaction.
func (t *Tx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Rollback aborts the transaction. No-op error if already committed.
func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}

// Put inserts a node record.
// Uses ON CONFLICT(key) DO NOTHING and reports tree.ErrExists when no row
// was inserted.
func (t *Tx) Put(ctx context.Context, n tree.Node) error {
	stmt, err := t.tx.PrepareContext(ctx, insertNode)
	if err != nil {
		return fmt.Errorf("put: prepare: %w", err)
	}
	defer stmt.Close()

	return t.put(ctx, stmt, n)
}

func (t *Tx) put(ctx context.Context, stmt *sql.Stmt, n tree.Node) error {
	r, err := marshalNode(n, t.places)
	if err != nil {
		return fmt.Errorf("put: %w", err)
	}

	result, err := stmt.ExecContext(ctx,
		r.Key, r.Num, r.Den,
		r.BoundKey, r.BoundNum, r.BoundDen,
		r.Depth, r.Name, r.Content,
	)
	if err != nil {
		return fmt.Errorf("put %s: %w", n.Label, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("put %s: rows affected: %w", n.Label, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("put %s: %w", n.Label, tree.ErrExists)
	}
	return nil
}

func (t *Tx) update(ctx context.Context, stmt *sql.Stmt, old label.Fraction, n tree.Node) error {
	oldKey, err := label.SortKey(old, t.places)
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}
	r, err := marshalNode(n, t.places)
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}

	result, err := stmt.ExecContext(ctx,
		r.Key, r.Num, r.Den,
		r.BoundKey, r.BoundNum, r.BoundDen,
		r.Depth, r.Name,
		oldKey,
	)
	if err != nil {
		return fmt.Errorf("update %s: %w", old, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s: rows affected: %w", old, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("update %s: %w", old, tree.ErrNotFound)
	}
	return nil
}

// Batch applies every write inside a savepoint, so the batch lands whole or
// not at all even before the enclosing transaction decides.
//
// Updates rewrite the primary key in place; the destination slot of a move
// is always empty, so no new key can collide with a row still waiting to be
// moved.
func (t *Tx) Batch(ctx context.Context, writes []tree.Write) (err error) {
	if len(writes) == 0 {
		return nil
	}

	if _, err := t.tx.ExecContext(ctx, `SAVEPOINT batch`); err != nil {
		return fmt.Errorf("batch: savepoint: %w", err)
	}
	defer func() {
		if err != nil {
			if _, rbErr := t.tx.ExecContext(ctx, `ROLLBACK TO batch`); rbErr != nil {
				err = fmt.Errorf("%w (rollback to savepoint: %v)", err, rbErr)
			}
		}
		if _, relErr := t.tx.ExecContext(ctx, `RELEASE batch`); relErr != nil && err == nil {
			err = fmt.Errorf("batch: release: %w", relErr)
		}
	}()

	insert, err := t.tx.PrepareContext(ctx, insertNode)
	if err != nil {
		return fmt.Errorf("batch: prepare insert: %w", err)
	}
	defer insert.Close()

	update, err := t.tx.PrepareContext(ctx, updateNode)
	if err != nil {
		return fmt.Errorf("batch: prepare update: %w", err)
	}
	defer update.Close()

	for i, w := range writes {
		switch w.Op {
		case tree.OpPut:
			err = t.put(ctx, insert, w.Node)
		case tree.OpUpdate:
			err = t.update(ctx, update, w.Old, w.Node)
		default:
			err = fmt.Errorf("unknown write op %d", w.Op)
		}
		if err != nil {
			return fmt.Errorf("batch[%d]: %w", i, err)
		}
	}

	return nil
}

// DeleteRange removes every node with lo <= label < hi.
func (t *Tx) DeleteRange(ctx context.Context, lo, hi label.Fraction) error {
	loKey, err := label.SortKey(lo, t.places)
	if err != nil {
		return fmt.Errorf("delete range: %w", err)
	}
	hiKey, err := label.SortKey(hi, t.places)
	if err != nil {
		return fmt.Errorf("delete range: %w", err)
	}

	_, err = t.tx.ExecContext(ctx, `
		DELETE FROM nodes
		WHERE key >= ? AND key < ?
	`, loKey, hiKey)
	if err != nil {
		return fmt.Errorf("delete range: %w", err)
	}
	return nil
}

// Rename sets the name of the node labelled l.
func (t *Tx) Rename(ctx context.Context, l label.Fraction, name string) error {
	key, err := label.SortKey(l, t.places)
	if err != nil {
		return fmt.Errorf("rename: %w", err)
	}

	result, err := t.tx.ExecContext(ctx, `
		UPDATE nodes
		SET name = ?
		WHERE key = ?
	`, name, key)
	if err != nil {
		return fmt.Errorf("rename %s: %w", l, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rename %s: rows affected: %w", l, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("rename %s: %w", l, tree.ErrNotFound)
	}
	return nil
}
