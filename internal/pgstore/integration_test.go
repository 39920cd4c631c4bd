package pgstore_test

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/contfrac/internal/label"
	"github.com/roach88/contfrac/internal/pgstore"
	"github.com/roach88/contfrac/internal/tree"
)

// openTestStore connects to CONTFRAC_PG_DSN after clearing any previous
// test data. Tests are skipped when the variable is unset.
func openTestStore(t *testing.T) *pgstore.Store {
	t.Helper()
	dsn := os.Getenv("CONTFRAC_PG_DSN")
	if dsn == "" {
		t.Skip("skip postgres: CONTFRAC_PG_DSN not set")
	}
	ctx := context.Background()

	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		t.Skipf("skip postgres: %v", err)
	}
	_, err = conn.Exec(ctx, `
DROP TABLE IF EXISTS contfrac_nodes, contfrac_meta;
SELECT lo_unlink(oid) FROM pg_largeobject_metadata;
`)
	conn.Close(ctx)
	require.NoError(t, err)

	s, err := pgstore.Open(ctx, dsn, pgstore.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func names(entries []tree.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func TestPostgres_MoveScenario(t *testing.T) {
	ctx := context.Background()
	tr, err := tree.New(ctx, openTestStore(t), tree.Options{})
	require.NoError(t, err)

	for _, p := range []string{"/a", "/a/b", "/a/c", "/a/c/d"} {
		_, err := tr.Create(ctx, p)
		require.NoError(t, err)
	}
	require.NoError(t, tr.WriteFile(ctx, "/a/c/d", strings.NewReader("payload")))

	p, err := tr.Move(ctx, "/a/c", "/e")
	require.NoError(t, err)
	assert.Equal(t, label.Path{1, 2}, p)

	root, err := tr.List(ctx, "/")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "e"}, names(root))

	data, err := tr.ReadFile(ctx, "/e/d")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	all, err := tr.Walk(ctx, "/")
	require.NoError(t, err)
	for _, e := range all {
		pair, err := label.Of(e.Path, 0)
		require.NoError(t, err)
		assert.True(t, e.Label.Equal(pair.Label), "%s: %s != %s", e.Path, e.Label, pair.Label)
	}
}

func TestPostgres_CopyAndRemove(t *testing.T) {
	ctx := context.Background()
	tr, err := tree.New(ctx, openTestStore(t), tree.Options{})
	require.NoError(t, err)

	require.NoError(t, tr.WriteFile(ctx, "/src/file", strings.NewReader("one")))
	_, err = tr.Copy(ctx, "/src", "/dst")
	require.NoError(t, err)

	require.NoError(t, tr.WriteFile(ctx, "/dst/file", strings.NewReader("two")))
	orig, err := tr.ReadFile(ctx, "/src/file")
	require.NoError(t, err)
	assert.Equal(t, "one", string(orig))

	require.NoError(t, tr.Remove(ctx, "/src"))
	_, err = tr.Lookup(ctx, "/src/file")
	assert.True(t, tree.IsNotFound(err))

	_, err = tr.Move(ctx, "/dst", "/dst/file")
	assert.True(t, tree.IsInvalidPath(err), "got %v", err)
}

func TestPostgres_BatchConflictKeepsTxUsable(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	a, err := label.Of(label.Path{1, 1}, 0)
	require.NoError(t, err)
	b, err := label.Of(label.Path{1, 2}, 0)
	require.NoError(t, err)

	require.NoError(t, tx.Put(ctx, tree.Node{Label: a.Label, Bound: a.Bound, Depth: 2, Name: "a", Content: "1"}))
	err = tx.Batch(ctx, []tree.Write{
		{Op: tree.OpPut, Node: tree.Node{Label: b.Label, Bound: b.Bound, Depth: 2, Name: "b", Content: "2"}},
		{Op: tree.OpPut, Node: tree.Node{Label: a.Label, Bound: a.Bound, Depth: 2, Name: "dup", Content: "3"}},
	})
	assert.ErrorIs(t, err, tree.ErrExists)

	_, err = tx.Get(ctx, b.Label)
	assert.ErrorIs(t, err, tree.ErrNotFound, "batch must not be partially applied")
	got, err := tx.Get(ctx, a.Label)
	require.NoError(t, err)
	assert.Equal(t, "a", got.Name)
}
