package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/contfrac/internal/label"
	"github.com/roach88/contfrac/internal/testutil"
	"github.com/roach88/contfrac/internal/tree"
)

// createTestStore creates a new store in a temp dir with deterministic
// content references.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, Options{IDs: testutil.NewSequentialIDs("")})
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// beginTx starts a transaction that is rolled back at cleanup unless the
// test committed it.
func beginTx(t *testing.T, s *Store) *Tx {
	t.Helper()
	tx, err := s.Begin(context.Background())
	if err != nil {
		t.Fatalf("Begin() failed: %v", err)
	}
	t.Cleanup(func() { _ = tx.Rollback() })
	return tx.(*Tx)
}

// createTestNode builds the record for an ordinal path.
func createTestNode(t *testing.T, name, content string, ords ...int) tree.Node {
	t.Helper()
	p := label.Path(ords)
	pair, err := label.Of(p, 0)
	if err != nil {
		t.Fatalf("label.Of(%s) failed: %v", p, err)
	}
	return tree.Node{
		Label:   pair.Label,
		Bound:   pair.Bound,
		Depth:   len(p),
		Name:    name,
		Content: content,
	}
}

// putNodes stores nodes one at a time.
func putNodes(t *testing.T, tx *Tx, nodes ...tree.Node) {
	t.Helper()
	for _, n := range nodes {
		if err := tx.Put(context.Background(), n); err != nil {
			t.Fatalf("Put(%s) failed: %v", n.Name, err)
		}
	}
}

func names(nodes []tree.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name
	}
	return out
}
