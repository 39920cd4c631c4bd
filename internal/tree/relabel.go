package tree

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/contfrac/internal/label"
	"github.com/roach88/contfrac/internal/matrix"
)

// Relabeler moves and copies subtrees. One transform matrix is derived per
// operation and applied to every node of the source range; all resulting
// writes go to the backing store as a single batch.
//
// The caller owns the transaction: a failure anywhere leaves the batch
// unsubmitted or partially applied, and the caller must roll back.
type Relabeler struct {
	limit  label.Limit
	logger *slog.Logger
}

// NewRelabeler creates a Relabeler that rejects matrix entries wider than limit.
func NewRelabeler(limit label.Limit, logger *slog.Logger) *Relabeler {
	if logger == nil {
		logger = discardLogger()
	}
	return &Relabeler{limit: limit, logger: logger}
}

// Move relocates the subtree at src to become the new last child of dst,
// keeping every record's content reference. A non-empty name renames the
// subtree root. Returns the subtree root's new ordinal path.
func (r *Relabeler) Move(ctx context.Context, tx Tx, src, dst label.Path, name string) (label.Path, error) {
	return r.relocate(ctx, tx, src, dst, name, false)
}

// Copy duplicates the subtree at src as the new last child of dst. Each
// copied record gets a fresh content reference holding a byte-for-byte copy;
// the source records are untouched.
func (r *Relabeler) Copy(ctx context.Context, tx Tx, src, dst label.Path, name string) (label.Path, error) {
	return r.relocate(ctx, tx, src, dst, name, true)
}

func (r *Relabeler) relocate(ctx context.Context, tx Tx, src, dst label.Path, name string, dup bool) (label.Path, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	if err := dst.Validate(); err != nil {
		return nil, err
	}
	if len(src) < 2 {
		return nil, newError(ErrCodeInvalidPath, "", "", errors.New("the root cannot be relocated"))
	}
	if !dup && dst.HasPrefix(src) {
		return nil, newError(ErrCodeInvalidPath, "", "", fmt.Errorf("cannot move %s into its own subtree %s", src, dst))
	}

	srcNode, err := r.get(ctx, tx, src)
	if err != nil {
		return nil, err
	}
	parent, err := r.get(ctx, tx, src.Parent())
	if err != nil {
		return nil, err
	}
	dstNode, err := r.get(ctx, tx, dst)
	if err != nil {
		return nil, err
	}

	rootName := srcNode.Name
	if name != "" {
		rootName = name
	}
	_, err = tx.Child(ctx, dstNode.Label, dstNode.Bound, dstNode.Depth+1, rootName)
	if err == nil {
		return nil, newError(ErrCodeAlreadyExists, "", "", fmt.Errorf("%q already exists under %s", rootName, dst))
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	p0 := matrix.FromPair(parent.Pair())
	p1 := matrix.FromPair(dstNode.Pair())
	n := src.Last()
	m, err := nextOrdinal(ctx, tx, dstNode)
	if err != nil {
		return nil, err
	}

	nodes, err := tx.Range(ctx, srcNode.Label, srcNode.Bound, 0)
	if err != nil {
		return nil, err
	}

	writes := make([]Write, 0, len(nodes))
	for _, node := range nodes {
		moved, err := matrix.MoveSubtree(p0, m, p1, n, matrix.FromPair(node.Pair()))
		if err != nil {
			return nil, err
		}
		if err := moved.Check(r.limit); err != nil {
			return nil, err
		}
		pair, err := moved.Pair()
		if err != nil {
			return nil, err
		}

		next := Node{
			Label:   pair.Label,
			Bound:   pair.Bound,
			Depth:   dstNode.Depth + 1 + (node.Depth - srcNode.Depth),
			Name:    node.Name,
			Content: node.Content,
		}
		if node.Label.Equal(srcNode.Label) {
			next.Name = rootName
		}

		if !dup {
			writes = append(writes, Write{Op: OpUpdate, Old: node.Label, Node: next})
			continue
		}

		id, err := tx.CreateBlob(ctx)
		if err != nil {
			return nil, newError(ErrCodeContentIO, "", "", err)
		}
		if err := copyContent(ctx, tx, node.Content, id); err != nil {
			return nil, err
		}
		next.Content = id
		writes = append(writes, Write{Op: OpPut, Node: next})
	}

	if err := tx.Batch(ctx, writes); err != nil {
		return nil, err
	}

	out := dst.Child(m)
	verb := "subtree moved"
	if dup {
		verb = "subtree copied"
	}
	r.logger.Info(verb, "from", src.String(), "to", out.String(), "nodes", len(nodes))
	return out, nil
}

func (r *Relabeler) get(ctx context.Context, tx Tx, p label.Path) (Node, error) {
	l, err := label.ToLabel(p, r.limit)
	if err != nil {
		return Node{}, err
	}
	n, err := tx.Get(ctx, l)
	if errors.Is(err, ErrNotFound) {
		return Node{}, newError(ErrCodeNotFound, "", "", fmt.Errorf("ordinal path %s: %w", p, err))
	}
	return n, err
}

// copyContent duplicates the bytes of blob from into blob to.
func copyContent(ctx context.Context, c Content, from, to string) error {
	in, err := c.OpenRead(ctx, from)
	if err != nil {
		return newError(ErrCodeContentIO, "", "", err)
	}
	defer in.Close()

	out, err := c.OpenWrite(ctx, to)
	if err != nil {
		return newError(ErrCodeContentIO, "", "", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return newError(ErrCodeContentIO, "", "", err)
	}
	if err := out.Close(); err != nil {
		return newError(ErrCodeContentIO, "", "", err)
	}
	return nil
}
