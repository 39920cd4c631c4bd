package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/roach88/contfrac/internal/label"
	"github.com/roach88/contfrac/internal/tree"
)

// Tx is a pgx transaction implementing tree.Tx.
//
// tree.Tx commits and rolls back without a context, the way database/sql
// binds a transaction to the context given to BeginTx. ctx is that Begin
// context: Commit honours its cancellation, Rollback only keeps its values
// so an abandoned transaction is still released after ctx is done.
type Tx struct {
	tx     pgx.Tx
	ctx    context.Context
	places int
}

var _ tree.Tx = (*Tx)(nil)

const nodeColumns = `num, den, bound_num, bound_den, depth, name, content`

const insertNode = `
INSERT INTO contfrac_nodes
  (key, num, den, bound_key, bound_num, bound_den, depth, name, content)
VALUES ($1::numeric, $2, $3, $4::numeric, $5, $6, $7, $8, $9)
ON CONFLICT (key) DO NOTHING
`

const updateNode = `
UPDATE contfrac_nodes
SET key = $1::numeric, num = $2, den = $3,
    bound_key = $4::numeric, bound_num = $5, bound_den = $6,
    depth = $7, name = $8
WHERE key = $9::numeric
`

func (t *Tx) Commit() error {
	if err := t.tx.Commit(t.ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (t *Tx) Rollback() error {
	return t.tx.Rollback(context.WithoutCancel(t.ctx))
}

// key is the NUMERIC text of f. Labels too fine for the configured
// precision fail with label.ErrOverflow, as in the SQLite store.
func (t *Tx) key(f label.Fraction) (string, error) {
	if err := label.CheckKey(f, t.places); err != nil {
		return "", err
	}
	return label.DecimalString(f, t.places), nil
}

func (t *Tx) keys(fs ...label.Fraction) ([]string, error) {
	out := make([]string, len(fs))
	for i, f := range fs {
		k, err := t.key(f)
		if err != nil {
			return nil, err
		}
		out[i] = k
	}
	return out, nil
}

func (t *Tx) insertArgs(n tree.Node) ([]any, error) {
	k, err := t.keys(n.Label, n.Bound)
	if err != nil {
		return nil, err
	}
	return []any{
		k[0], n.Label.Num().String(), n.Label.Den().String(),
		k[1], n.Bound.Num().String(), n.Bound.Den().String(),
		n.Depth, n.Name, n.Content,
	}, nil
}

func (t *Tx) updateArgs(old label.Fraction, n tree.Node) ([]any, error) {
	k, err := t.keys(n.Label, n.Bound, old)
	if err != nil {
		return nil, err
	}
	return []any{
		k[0], n.Label.Num().String(), n.Label.Den().String(),
		k[1], n.Bound.Num().String(), n.Bound.Den().String(),
		n.Depth, n.Name,
		k[2],
	}, nil
}

// Put inserts a node record; an occupied key wraps tree.ErrExists.
func (t *Tx) Put(ctx context.Context, n tree.Node) error {
	args, err := t.insertArgs(n)
	if err != nil {
		return fmt.Errorf("put: %w", err)
	}
	tag, err := t.tx.Exec(ctx, insertNode, args...)
	if err != nil {
		return fmt.Errorf("put %s: %w", n.Label, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("put %s: %w", n.Label, tree.ErrExists)
	}
	return nil
}

// Get returns the record labelled exactly l.
func (t *Tx) Get(ctx context.Context, l label.Fraction) (tree.Node, error) {
	key, err := t.key(l)
	if err != nil {
		return tree.Node{}, fmt.Errorf("get: %w", err)
	}
	rows, err := t.tx.Query(ctx, `
SELECT `+nodeColumns+`
FROM contfrac_nodes
WHERE key = $1::numeric
`, key)
	if err != nil {
		return tree.Node{}, fmt.Errorf("get %s: %w", l, err)
	}
	n, err := pgx.CollectExactlyOneRow(rows, scanNode)
	if errors.Is(err, pgx.ErrNoRows) {
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

// Range returns the records in [lo, hi), optionally at one depth.
func (t *Tx) Range(ctx context.Context, lo, hi label.Fraction, depth int) ([]tree.Node, error) {
	query, args, err := t.rangeQuery(lo, hi, depth, "")
	if err != nil {
		return nil, fmt.Errorf("range: %w", err)
	}
	rows, err := t.tx.Query(ctx, query+` ORDER BY key ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("query range: %w", err)
	}
	nodes, err := pgx.CollectRows(rows, scanNode)
	if err != nil {
		return nil, fmt.Errorf("collect range: %w", err)
	}
	if nodes == nil {
		nodes = []tree.Node{}
	}
	return nodes, nil
}

func (t *Tx) Last(ctx context.Context, lo, hi label.Fraction, depth int) (tree.Node, error) {
	query, args, err := t.rangeQuery(lo, hi, depth, "")
	if err != nil {
		return tree.Node{}, fmt.Errorf("last: %w", err)
	}
	return t.one(ctx, query+` ORDER BY key DESC LIMIT 1`, args,
		fmt.Sprintf("last in [%s, %s)", lo, hi))
}

func (t *Tx) Child(ctx context.Context, lo, hi label.Fraction, depth int, name string) (tree.Node, error) {
	query, args, err := t.rangeQuery(lo, hi, depth, name)
	if err != nil {
		return tree.Node{}, fmt.Errorf("child: %w", err)
	}
	return t.one(ctx, query+` ORDER BY key ASC LIMIT 1`, args,
		fmt.Sprintf("child %q", name))
}

func (t *Tx) one(ctx context.Context, query string, args []any, what string) (tree.Node, error) {
	rows, err := t.tx.Query(ctx, query, args...)
	if err != nil {
		return tree.Node{}, fmt.Errorf("%s: %w", what, err)
	}
	n, err := pgx.CollectExactlyOneRow(rows, scanNode)
	if errors.Is(err, pgx.ErrNoRows) {
		return tree.Node{}, fmt.Errorf("%s: %w", what, tree.ErrNotFound)
	}
	if err != nil {
		return tree.Node{}, fmt.Errorf("%s: %w", what, err)
	}
	return n, nil
}

func (t *Tx) rangeQuery(lo, hi label.Fraction, depth int, name string) (string, []any, error) {
	k, err := t.keys(lo, hi)
	if err != nil {
		return "", nil, err
	}
	query := `SELECT ` + nodeColumns + ` FROM contfrac_nodes WHERE key >= $1::numeric AND key < $2::numeric`
	args := []any{k[0], k[1]}
	if depth > 0 {
		args = append(args, depth)
		query += fmt.Sprintf(` AND depth = $%d`, len(args))
	}
	if name != "" {
		args = append(args, name)
		query += fmt.Sprintf(` AND name = $%d`, len(args))
	}
	return query, args, nil
}

func (t *Tx) DeleteRange(ctx context.Context, lo, hi label.Fraction) error {
	k, err := t.keys(lo, hi)
	if err != nil {
		return fmt.Errorf("delete range: %w", err)
	}
	_, err = t.tx.Exec(ctx, `
DELETE FROM contfrac_nodes
WHERE key >= $1::numeric AND key < $2::numeric
`, k[0], k[1])
	if err != nil {
		return fmt.Errorf("delete range: %w", err)
	}
	return nil
}

func (t *Tx) Rename(ctx context.Context, l label.Fraction, name string) error {
	key, err := t.key(l)
	if err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	tag, err := t.tx.Exec(ctx, `
UPDATE contfrac_nodes SET name = $1 WHERE key = $2::numeric
`, name, key)
	if err != nil {
		return fmt.Errorf("rename %s: %w", l, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("rename %s: %w", l, tree.ErrNotFound)
	}
	return nil
}

// Batch sends every write in one round trip inside a savepoint. The first
// failing write rolls the savepoint back and the enclosing transaction
// stays usable.
func (t *Tx) Batch(ctx context.Context, writes []tree.Write) (err error) {
	if len(writes) == 0 {
		return nil
	}

	sp, err := t.tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("batch: savepoint: %w", err)
	}
	defer func() {
		if err != nil {
			_ = sp.Rollback(ctx)
		}
	}()

	b := &pgx.Batch{}
	for i, w := range writes {
		var (
			query string
			args  []any
		)
		switch w.Op {
		case tree.OpPut:
			query = insertNode
			args, err = t.insertArgs(w.Node)
		case tree.OpUpdate:
			query = updateNode
			args, err = t.updateArgs(w.Old, w.Node)
		default:
			return fmt.Errorf("unknown write op %d", w.Op)
		}
		if err != nil {
			return fmt.Errorf("batch[%d] %s: %w", i, w.Node.Label, err)
		}
		b.Queue(query, args...)
	}

	br := sp.SendBatch(ctx, b)
	for i, w := range writes {
		tag, execErr := br.Exec()
		if execErr == nil && tag.RowsAffected() == 0 {
			execErr = tree.ErrExists
			if w.Op == tree.OpUpdate {
				execErr = tree.ErrNotFound
			}
		}
		if isUniqueViolation(execErr) {
			execErr = fmt.Errorf("%w: %v", tree.ErrExists, execErr)
		}
		if execErr != nil {
			_ = br.Close()
			return fmt.Errorf("batch[%d] %s: %w", i, w.Node.Label, execErr)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("batch: %w", err)
	}

	if err := sp.Commit(ctx); err != nil {
		return fmt.Errorf("batch: release: %w", err)
	}
	return nil
}

func scanNode(row pgx.CollectableRow) (tree.Node, error) {
	var (
		num, den, bnum, bden string
		n                    tree.Node
	)
	if err := row.Scan(&num, &den, &bnum, &bden, &n.Depth, &n.Name, &n.Content); err != nil {
		return tree.Node{}, err
	}
	var err error
	if n.Label, err = label.FromStrings(num, den); err != nil {
		return tree.Node{}, fmt.Errorf("unmarshal label: %w", err)
	}
	if n.Bound, err = label.FromStrings(bnum, bden); err != nil {
		return tree.Node{}, fmt.Errorf("unmarshal bound: %w", err)
	}
	return n, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
