package tree

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/contfrac/internal/label"
	"github.com/roach88/contfrac/internal/logging"
	"github.com/roach88/contfrac/internal/pathname"
)

// DefaultRoot is the ordinal path of the root record.
var DefaultRoot = label.Path{1}

// Options configures a Tree.
type Options struct {
	// RootPath is the ordinal path of the root record. Defaults to DefaultRoot.
	RootPath label.Path

	// Limit bounds label numerators and denominators in bits; 0 is unbounded.
	Limit label.Limit

	// DecimalPlaces is the precision of Entry.Decimal. Defaults to
	// label.DefaultPlaces.
	DecimalPlaces int

	Logger *slog.Logger
}

// Tree is the name-addressed facade over the labelling core. Each method
// runs in exactly one backing-store transaction and either commits all of
// its writes or none of them.
type Tree struct {
	store     Store
	root      label.Path
	limit     label.Limit
	places    int
	logger    *slog.Logger
	deriver   *Deriver
	relabeler *Relabeler
}

// Entry is a node record enriched with its ordinal path and decimal key.
type Entry struct {
	Node
	Path    label.Path
	Decimal string
}

// New opens a tree over store, creating the root record if it is missing.
func New(ctx context.Context, store Store, opts Options) (*Tree, error) {
	if opts.RootPath == nil {
		opts.RootPath = DefaultRoot
	}
	if opts.DecimalPlaces <= 0 {
		opts.DecimalPlaces = label.DefaultPlaces
	}
	if opts.Logger == nil {
		opts.Logger = discardLogger()
	}
	if err := opts.RootPath.Validate(); err != nil {
		return nil, classify("open", "/", err)
	}

	t := &Tree{
		store:     store,
		root:      opts.RootPath.Clone(),
		limit:     opts.Limit,
		places:    opts.DecimalPlaces,
		logger:    opts.Logger,
		deriver:   NewDeriver(opts.RootPath, opts.Limit, opts.Logger),
		relabeler: NewRelabeler(opts.Limit, opts.Logger),
	}

	err := t.withTx(ctx, "open", "/", func(tx Tx) error {
		pair, err := label.Of(t.root, t.limit)
		if err != nil {
			return err
		}
		_, err = tx.Get(ctx, pair.Label)
		if !errors.Is(err, ErrNotFound) {
			return err
		}

		content, err := tx.CreateBlob(ctx)
		if err != nil {
			return newError(ErrCodeContentIO, "", "", err)
		}
		t.logger.Info("root created", "ordinal_path", t.root.String(), "label", pair.Label.String())
		return tx.Put(ctx, Node{
			Label:   pair.Label,
			Bound:   pair.Bound,
			Depth:   len(t.root),
			Name:    "",
			Content: content,
		})
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Root returns the root's ordinal path.
func (t *Tree) Root() label.Path { return t.root.Clone() }

// Limit returns the configured label bound.
func (t *Tree) Limit() label.Limit { return t.limit }

// Create resolves p, creating every missing component, and returns its
// ordinal path.
func (t *Tree) Create(ctx context.Context, p string) (label.Path, error) {
	names, err := pathname.Parse(p)
	if err != nil {
		return nil, classify("create", p, err)
	}

	var res Resolution
	err = t.withTx(ctx, "create", p, func(tx Tx) error {
		res, err = t.deriver.Resolve(ctx, tx, names, true)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res.Path, nil
}

// Lookup resolves p without creating anything.
func (t *Tree) Lookup(ctx context.Context, p string) (Entry, error) {
	names, err := pathname.Parse(p)
	if err != nil {
		return Entry{}, classify("lookup", p, err)
	}

	var res Resolution
	err = t.withTx(ctx, "lookup", p, func(tx Tx) error {
		res, err = t.deriver.Resolve(ctx, tx, names, false)
		return err
	})
	if err != nil {
		return Entry{}, err
	}
	return t.entry(res.Node, res.Path), nil
}

// List returns the direct children of p in ordinal order.
func (t *Tree) List(ctx context.Context, p string) ([]Entry, error) {
	names, err := pathname.Parse(p)
	if err != nil {
		return nil, classify("list", p, err)
	}

	var out []Entry
	err = t.withTx(ctx, "list", p, func(tx Tx) error {
		res, err := t.deriver.Resolve(ctx, tx, names, false)
		if err != nil {
			return err
		}
		parent := res.Node
		children, err := tx.Range(ctx, parent.Label, parent.Bound, parent.Depth+1)
		if err != nil {
			return err
		}

		out = make([]Entry, 0, len(children))
		for _, c := range children {
			ord, err := label.OrdinalFromLabels(parent.Label, parent.Bound, c.Label)
			if err != nil {
				return err
			}
			out = append(out, t.entry(c, res.Path.Child(ord)))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Walk returns p and all of its descendants in pre-order with a single
// range query. Ordinal paths are rebuilt from labels while scanning.
func (t *Tree) Walk(ctx context.Context, p string) ([]Entry, error) {
	names, err := pathname.Parse(p)
	if err != nil {
		return nil, classify("walk", p, err)
	}

	var out []Entry
	err = t.withTx(ctx, "walk", p, func(tx Tx) error {
		res, err := t.deriver.Resolve(ctx, tx, names, false)
		if err != nil {
			return err
		}
		nodes, err := tx.Range(ctx, res.Node.Label, res.Node.Bound, 0)
		if err != nil {
			return err
		}
		out, err = t.entries(nodes, res.Path)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// entries attaches ordinal paths to a pre-order range whose first node has
// ordinal path first.
func (t *Tree) entries(nodes []Node, first label.Path) ([]Entry, error) {
	out := make([]Entry, 0, len(nodes))
	var stack []Entry
	for i, n := range nodes {
		if i == 0 {
			e := t.entry(n, first)
			out = append(out, e)
			stack = append(stack, e)
			continue
		}
		for len(stack) > 0 && !stack[len(stack)-1].Pair().Contains(n.Label) {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			return nil, fmt.Errorf("label %s outside range of %s", n.Label, nodes[0].Label)
		}
		parent := stack[len(stack)-1]
		ord, err := label.OrdinalFromLabels(parent.Label, parent.Bound, n.Label)
		if err != nil {
			return nil, err
		}
		e := t.entry(n, parent.Path.Child(ord))
		out = append(out, e)
		stack = append(stack, e)
	}
	return out, nil
}

func (t *Tree) entry(n Node, p label.Path) Entry {
	return Entry{Node: n, Path: p, Decimal: label.DecimalString(n.Label, t.places)}
}

// WriteFile creates p if needed and replaces its content with r's bytes.
func (t *Tree) WriteFile(ctx context.Context, p string, r io.Reader) error {
	names, err := pathname.Parse(p)
	if err != nil {
		return classify("write", p, err)
	}

	return t.withTx(ctx, "write", p, func(tx Tx) error {
		res, err := t.deriver.Resolve(ctx, tx, names, true)
		if err != nil {
			return err
		}
		w, err := tx.OpenWrite(ctx, res.Node.Content)
		if err != nil {
			return newError(ErrCodeContentIO, "", "", err)
		}
		if _, err := io.Copy(w, r); err != nil {
			w.Close()
			return newError(ErrCodeContentIO, "", "", err)
		}
		if err := w.Close(); err != nil {
			return newError(ErrCodeContentIO, "", "", err)
		}
		return nil
	})
}

// ReadFile returns the content of p. A node that was never written has
// empty content.
func (t *Tree) ReadFile(ctx context.Context, p string) ([]byte, error) {
	names, err := pathname.Parse(p)
	if err != nil {
		return nil, classify("read", p, err)
	}

	var buf bytes.Buffer
	err = t.withTx(ctx, "read", p, func(tx Tx) error {
		res, err := t.deriver.Resolve(ctx, tx, names, false)
		if err != nil {
			return err
		}
		rc, err := tx.OpenRead(ctx, res.Node.Content)
		if err != nil {
			return newError(ErrCodeContentIO, "", "", err)
		}
		defer rc.Close()
		if _, err := io.Copy(&buf, rc); err != nil {
			return newError(ErrCodeContentIO, "", "", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Remove deletes p with its whole descendant range and releases their
// content. The root cannot be removed.
func (t *Tree) Remove(ctx context.Context, p string) error {
	names, err := pathname.Parse(p)
	if err != nil {
		return classify("remove", p, err)
	}
	if len(names) == 0 {
		return newError(ErrCodeInvalidPath, "remove", p, errors.New("the root cannot be removed"))
	}

	return t.withTx(ctx, "remove", p, func(tx Tx) error {
		res, err := t.deriver.Resolve(ctx, tx, names, false)
		if err != nil {
			return err
		}
		n := res.Node
		nodes, err := tx.Range(ctx, n.Label, n.Bound, 0)
		if err != nil {
			return err
		}
		for _, d := range nodes {
			if err := tx.DeleteBlob(ctx, d.Content); err != nil {
				return newError(ErrCodeContentIO, "", "", err)
			}
		}
		if err := tx.DeleteRange(ctx, n.Label, n.Bound); err != nil {
			return err
		}
		t.logger.Info("subtree removed", "path", p, "nodes", len(nodes))
		return nil
	})
}

// Move relocates from. If to exists, from becomes its new last child;
// otherwise to's parent is created as needed and from becomes its new last
// child renamed to to's final component. Returns the new ordinal path.
func (t *Tree) Move(ctx context.Context, from, to string) (label.Path, error) {
	return t.relocate(ctx, "move", from, to, t.relabeler.Move)
}

// Copy duplicates from with the same destination rules as Move.
func (t *Tree) Copy(ctx context.Context, from, to string) (label.Path, error) {
	return t.relocate(ctx, "copy", from, to, t.relabeler.Copy)
}

type relocateFunc func(ctx context.Context, tx Tx, src, dst label.Path, name string) (label.Path, error)

func (t *Tree) relocate(ctx context.Context, op, from, to string, fn relocateFunc) (label.Path, error) {
	srcNames, err := pathname.Parse(from)
	if err != nil {
		return nil, classify(op, from, err)
	}
	dstNames, err := pathname.Parse(to)
	if err != nil {
		return nil, classify(op, to, err)
	}
	if len(srcNames) == 0 {
		return nil, newError(ErrCodeInvalidPath, op, from, errors.New("the root cannot be relocated"))
	}

	var out label.Path
	err = t.withTx(ctx, op, from, func(tx Tx) error {
		src, err := t.deriver.Resolve(ctx, tx, srcNames, false)
		if err != nil {
			return err
		}

		name := ""
		dst, err := t.deriver.Resolve(ctx, tx, dstNames, false)
		if IsNotFound(err) && len(dstNames) > 0 {
			var parent []string
			parent, name = pathname.Split(dstNames)
			dst, err = t.deriver.Resolve(ctx, tx, parent, true)
		}
		if err != nil {
			return err
		}

		out, err = fn(ctx, tx, src.Path, dst.Path, name)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Rename changes the final name of p in place. Labels are unaffected.
func (t *Tree) Rename(ctx context.Context, p, name string) error {
	names, err := pathname.Parse(p)
	if err != nil {
		return classify("rename", p, err)
	}
	if len(names) == 0 {
		return newError(ErrCodeInvalidPath, "rename", p, errors.New("the root cannot be renamed"))
	}
	name, err = pathname.Name(name)
	if err != nil {
		return classify("rename", p, err)
	}

	return t.withTx(ctx, "rename", p, func(tx Tx) error {
		parentNames, _ := pathname.Split(names)
		parent, err := t.deriver.Resolve(ctx, tx, parentNames, false)
		if err != nil {
			return err
		}
		res, err := t.deriver.Resolve(ctx, tx, names, false)
		if err != nil {
			return err
		}

		pn := parent.Node
		child, err := tx.Child(ctx, pn.Label, pn.Bound, pn.Depth+1, name)
		if err == nil {
			if child.Label.Equal(res.Node.Label) {
				return nil
			}
			return newError(ErrCodeAlreadyExists, "", "", fmt.Errorf("%q already exists", name))
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		return tx.Rename(ctx, res.Node.Label, name)
	})
}

// withTx runs fn in one transaction, committing on success and rolling back
// on any failure. Errors come back classified.
func (t *Tree) withTx(ctx context.Context, op, path string, fn func(tx Tx) error) error {
	tx, err := t.store.Begin(ctx)
	if err != nil {
		return classify(op, path, err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			t.logger.Error("rollback failed", "op", op, "path", path, "error", rbErr)
		}
		return classify(op, path, err)
	}

	if err := tx.Commit(); err != nil {
		_ = tx.Rollback()
		return classify(op, path, err)
	}
	return nil
}

func discardLogger() *slog.Logger {
	return logging.Discard()
}
