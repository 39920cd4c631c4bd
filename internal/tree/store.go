package tree

import (
	"context"
	"io"

	"github.com/roach88/contfrac/internal/label"
)

// Node is one stored record of the flat ordered index.
//
// Bound is the label a next sibling would receive; [Label, Bound) holds
// exactly the node and its descendants. Depth is the length of the node's
// ordinal path. Content references the node's bytes in the content store
// and is never shared between two records.
type Node struct {
	Label   label.Fraction
	Bound   label.Fraction
	Depth   int
	Name    string
	Content string
}

// Pair returns the node's label pair.
func (n Node) Pair() label.Pair {
	return label.Pair{Label: n.Label, Bound: n.Bound}
}

// WriteOp selects the kind of a batched write.
type WriteOp int

const (
	// OpPut inserts a new record; the label must be free.
	OpPut WriteOp = iota
	// OpUpdate replaces the record currently stored at Old.
	OpUpdate
)

// Write is one element of a Batch.
type Write struct {
	Op   WriteOp
	Old  label.Fraction // OpUpdate only
	Node Node
}

// Store hands out transactions. Every tree operation runs inside exactly one.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
}

// Tx is a backing-store transaction covering both the ordered index and the
// content store, so node records and their bytes commit together.
type Tx interface {
	Index
	Content

	Commit() error
	Rollback() error
}

// Index is the ordered-index collaborator. Ranges are half-open
// [lo, hi) and ordered ascending by label. A depth of 0 disables the depth
// filter.
type Index interface {
	// Put stores n; wraps ErrExists if its label is occupied.
	Put(ctx context.Context, n Node) error

	// Get returns the record at l; wraps ErrNotFound if there is none.
	Get(ctx context.Context, l label.Fraction) (Node, error)

	Range(ctx context.Context, lo, hi label.Fraction, depth int) ([]Node, error)

	// Last returns the greatest record in the range; wraps ErrNotFound.
	Last(ctx context.Context, lo, hi label.Fraction, depth int) (Node, error)

	// Child returns the record named name in the range; wraps ErrNotFound.
	Child(ctx context.Context, lo, hi label.Fraction, depth int, name string) (Node, error)

	DeleteRange(ctx context.Context, lo, hi label.Fraction) error

	// Batch applies all writes or none.
	Batch(ctx context.Context, writes []Write) error

	// Rename changes the name of the record at l in place.
	Rename(ctx context.Context, l label.Fraction, name string) error
}

// Content is the opaque content-store collaborator.
type Content interface {
	CreateBlob(ctx context.Context) (string, error)
	OpenRead(ctx context.Context, id string) (io.ReadCloser, error)

	// OpenWrite truncates the blob; bytes are visible once the writer is
	// closed.
	OpenWrite(ctx context.Context, id string) (io.WriteCloser, error)
	DeleteBlob(ctx context.Context, id string) error
}
