package tree

import (
	"context"
	"errors"
	"log/slog"

	"github.com/roach88/contfrac/internal/label"
	"github.com/roach88/contfrac/internal/pathname"
)

// Deriver resolves name paths to ordinal paths against the backing index,
// appending new children when asked to create.
//
// Ordinals are never stored; an existing child's ordinal is recovered from
// its label and its parent's label pair.
type Deriver struct {
	root   label.Path
	limit  label.Limit
	logger *slog.Logger
}

// NewDeriver creates a Deriver for a tree rooted at root.
func NewDeriver(root label.Path, limit label.Limit, logger *slog.Logger) *Deriver {
	if logger == nil {
		logger = discardLogger()
	}
	return &Deriver{root: root.Clone(), limit: limit, logger: logger}
}

// Resolution is the outcome of resolving a name path.
type Resolution struct {
	Path    label.Path
	Node    Node
	Created bool // at least one component was created
}

// Resolve walks names from the root one component at a time. Missing
// components are appended as new last children when create is set;
// otherwise they fail with NODE_NOT_FOUND.
func (d *Deriver) Resolve(ctx context.Context, tx Tx, names []string, create bool) (Resolution, error) {
	root, err := label.ToLabel(d.root, d.limit)
	if err != nil {
		return Resolution{}, err
	}
	node, err := tx.Get(ctx, root)
	if err != nil {
		return Resolution{}, err
	}

	res := Resolution{Path: d.root.Clone(), Node: node}
	for i, name := range names {
		if name == "" {
			return Resolution{}, newError(ErrCodeInvalidPath, "", pathname.Join(names[:i+1]), errors.New("empty name"))
		}

		child, err := tx.Child(ctx, node.Label, node.Bound, node.Depth+1, name)
		switch {
		case err == nil:
			ord, err := label.OrdinalFromLabels(node.Label, node.Bound, child.Label)
			if err != nil {
				return Resolution{}, err
			}
			res.Path = res.Path.Child(ord)
			node = child

		case errors.Is(err, ErrNotFound) && create:
			created, err := d.append(ctx, tx, res.Path, node, name)
			if err != nil {
				return Resolution{}, err
			}
			res.Path = res.Path.Child(created.ordinal)
			res.Created = true
			node = created.node

		case errors.Is(err, ErrNotFound):
			return Resolution{}, newError(ErrCodeNotFound, "", pathname.Join(names[:i+1]), err)

		default:
			return Resolution{}, err
		}
	}

	res.Node = node
	return res, nil
}

type appended struct {
	node    Node
	ordinal int
}

// append creates name as the new last child of parent, whose ordinal path
// is parentPath.
func (d *Deriver) append(ctx context.Context, tx Tx, parentPath label.Path, parent Node, name string) (appended, error) {
	ord, err := nextOrdinal(ctx, tx, parent)
	if err != nil {
		return appended{}, err
	}

	path := parentPath.Child(ord)
	pair, err := label.Of(path, d.limit)
	if err != nil {
		return appended{}, err
	}

	content, err := tx.CreateBlob(ctx)
	if err != nil {
		return appended{}, newError(ErrCodeContentIO, "", "", err)
	}

	n := Node{
		Label:   pair.Label,
		Bound:   pair.Bound,
		Depth:   len(path),
		Name:    name,
		Content: content,
	}
	if err := tx.Put(ctx, n); err != nil {
		return appended{}, err
	}

	d.logger.Debug("node created", "name", name, "ordinal_path", path.String(), "label", pair.Label.String())
	return appended{node: n, ordinal: ord}, nil
}

// nextOrdinal is the ordinal a new last child of parent receives: one past
// the current last child, or 1 when parent has no children.
func nextOrdinal(ctx context.Context, idx Index, parent Node) (int, error) {
	last, err := idx.Last(ctx, parent.Label, parent.Bound, parent.Depth+1)
	if errors.Is(err, ErrNotFound) {
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	ord, err := label.OrdinalFromLabels(parent.Label, parent.Bound, last.Label)
	if err != nil {
		return 0, err
	}
	return ord + 1, nil
}
