package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cliRun holds the streams of one command invocation.
type cliRun struct {
	out    string
	errOut string
	err    error
}

func execCLI(t *testing.T, db string, stdin string, args ...string) cliRun {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}

	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--db", db}, args...))

	err := cmd.Execute()
	return cliRun{out: out.String(), errOut: errOut.String(), err: err}
}

func mustCLI(t *testing.T, db string, args ...string) string {
	t.Helper()
	run := execCLI(t, db, "", args...)
	require.NoError(t, run.err, "stderr: %s", run.errOut)
	return run.out
}

func tempDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "tree.db")
}

func TestMkdirPrintsOrdinals(t *testing.T) {
	db := tempDB(t)

	out := mustCLI(t, db, "mkdir", "/home/adrian", "/home/other", "/usr")
	assert.Equal(t, "/home/adrian 1.1.1\n/home/other 1.1.2\n/usr 1.2\n", out)

	out = mustCLI(t, db, "ls", "/home")
	assert.Equal(t, "adrian\nother\n", out)
}

func TestMkdirJSON(t *testing.T) {
	db := tempDB(t)

	out := mustCLI(t, db, "--format", "json", "mkdir", "/a/b")

	var resp struct {
		Status string       `json:"status"`
		Data   []PathResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, []PathResult{{Path: "/a/b", Ordinal: "1.1.1"}}, resp.Data)
}

func TestStatePersistsAcrossInvocations(t *testing.T) {
	db := tempDB(t)

	mustCLI(t, db, "mkdir", "/bin")
	mustCLI(t, db, "mkdir", "/etc")
	assert.Equal(t, "/\n  /bin\n  /etc\n", mustCLI(t, db, "tree"))
}

func TestWriteAndCat(t *testing.T) {
	db := tempDB(t)

	mustCLI(t, db, "write", "/docs/readme", "Hello")
	assert.Equal(t, "Hello", mustCLI(t, db, "cat", "/docs/readme"))

	mustCLI(t, db, "write", "/docs/readme", "Replaced")
	assert.Equal(t, "Replaced", mustCLI(t, db, "cat", "/docs/readme"))
}

func TestWriteFromStdin(t *testing.T) {
	db := tempDB(t)

	run := execCLI(t, db, "from stdin\n", "write", "/notes", "-")
	require.NoError(t, run.err, run.errOut)
	assert.Equal(t, "from stdin\n", mustCLI(t, db, "cat", "/notes"))
}

func TestCatJSON(t *testing.T) {
	db := tempDB(t)
	mustCLI(t, db, "write", "/notes", "text")

	out := mustCLI(t, db, "--format", "json", "cat", "/notes")

	var resp struct {
		Data CatResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, CatResult{Path: "/notes", Content: "text"}, resp.Data)
}

func TestMoveIntoExistingDestination(t *testing.T) {
	db := tempDB(t)
	mustCLI(t, db, "mkdir", "/home/adrian/documents/text", "/home/other")
	mustCLI(t, db, "write", "/home/adrian/documents/text/a", "A")

	out := mustCLI(t, db, "mv", "/home/adrian/documents", "/home/other")
	assert.Equal(t, "1.1.2.1\n", out)

	assert.Equal(t, "A", mustCLI(t, db, "cat", "/home/other/documents/text/a"))
	assert.Empty(t, mustCLI(t, db, "ls", "/home/adrian"))
}

func TestMoveRenamesIntoNewDestination(t *testing.T) {
	db := tempDB(t)
	mustCLI(t, db, "mkdir", "/a/b")

	out := mustCLI(t, db, "--format", "json", "mv", "/a/b", "/c/d")

	var resp struct {
		Data PathResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, PathResult{Path: "/c/d", Ordinal: "1.2.1"}, resp.Data)
	assert.Equal(t, "/\n  /a\n  /c\n    /d\n", mustCLI(t, db, "tree"))
}

func TestCopyKeepsSource(t *testing.T) {
	db := tempDB(t)
	mustCLI(t, db, "write", "/src/file", "data")

	out := mustCLI(t, db, "cp", "/src", "/dst")
	assert.Equal(t, "1.2\n", out)

	assert.Equal(t, "data", mustCLI(t, db, "cat", "/src/file"))
	assert.Equal(t, "data", mustCLI(t, db, "cat", "/dst/file"))
}

func TestRemoveAndRename(t *testing.T) {
	db := tempDB(t)
	mustCLI(t, db, "mkdir", "/a/b/c", "/x")

	mustCLI(t, db, "rename", "/x", "y")
	mustCLI(t, db, "rm", "/a/b")
	assert.Equal(t, "/\n  /a\n  /y\n", mustCLI(t, db, "tree"))
}

func TestTreeLongGolden(t *testing.T) {
	db := tempDB(t)
	mustCLI(t, db, "mkdir", "/home/adrian", "/home/other", "/usr")
	mustCLI(t, db, "write", "/home/adrian/notes", "hi")
	mustCLI(t, db, "mv", "/home/adrian/notes", "/home/other")
	mustCLI(t, db, "cp", "/home/other", "/usr/backup")

	out := mustCLI(t, db, "tree", "--long")

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "tree_long", []byte(out))
}

func TestTreeJSON(t *testing.T) {
	db := tempDB(t)
	mustCLI(t, db, "mkdir", "/a")

	out := mustCLI(t, db, "--format", "json", "tree")

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestTreeCommandErrors(t *testing.T) {
	tests := []struct {
		name     string
		setup    [][]string
		args     []string
		wantCode string
		wantExit int
	}{
		{
			name:     "relative path",
			args:     []string{"mkdir", "home"},
			wantCode: ErrCodeInvalidPath,
			wantExit: ExitCommandError,
		},
		{
			name:     "missing node",
			args:     []string{"cat", "/missing"},
			wantCode: ErrCodeNotFound,
			wantExit: ExitFailure,
		},
		{
			name:     "move into own subtree",
			setup:    [][]string{{"mkdir", "/a/b"}},
			args:     []string{"mv", "/a", "/a/b"},
			wantCode: ErrCodeInvalidPath,
			wantExit: ExitCommandError,
		},
		{
			name:     "rename onto sibling",
			setup:    [][]string{{"mkdir", "/a", "/b"}},
			args:     []string{"rename", "/a", "b"},
			wantCode: ErrCodeAlreadyExists,
			wantExit: ExitFailure,
		},
		{
			name:     "remove root",
			args:     []string{"rm", "/"},
			wantCode: ErrCodeInvalidPath,
			wantExit: ExitCommandError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := tempDB(t)
			for _, args := range tt.setup {
				mustCLI(t, db, args...)
			}

			run := execCLI(t, db, "", tt.args...)
			require.Error(t, run.err)
			assert.Equal(t, tt.wantExit, GetExitCode(run.err))
			assert.True(t, IsReported(run.err))
			assert.Contains(t, run.errOut, "Error ["+tt.wantCode+"]")
			assert.Empty(t, run.out)
		})
	}
}

func TestTreeCommandErrorJSON(t *testing.T) {
	db := tempDB(t)

	run := execCLI(t, db, "", "--format", "json", "ls", "/missing")
	require.Error(t, run.err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(run.out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "contfrac.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("root_path: [2, 3]\n"), 0644))

	out := mustCLI(t, filepath.Join(dir, "tree.db"), "--config", cfgPath, "mkdir", "/a")
	assert.Equal(t, "/a 2.3.1\n", out)
}

func TestInvalidDriverFlag(t *testing.T) {
	run := execCLI(t, tempDB(t), "", "--driver", "oracle", "ls")
	require.Error(t, run.err)
	assert.Equal(t, ExitCommandError, GetExitCode(run.err))
	assert.Contains(t, run.err.Error(), "invalid flags")
}

func TestLabelCommand(t *testing.T) {
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--format", "json", "label", "2.4"})
	require.NoError(t, cmd.Execute())

	var resp struct {
		Data LabelResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, LabelResult{
		Ordinal: "2.4",
		Label:   "14/5",
		Bound:   "17/6",
		Decimal: "2.8000000000000000",
		SortKey: "00000000000000000002.8000000000000000",
	}, resp.Data)
}

func TestLabelCommandText(t *testing.T) {
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs([]string{"label", "1.2"})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "label    5/3\n")
	assert.Contains(t, out.String(), "bound    7/4\n")
}

func TestLabelCommandInvalidPath(t *testing.T) {
	cmd := NewRootCommand()
	errOut := &bytes.Buffer{}
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(errOut)
	cmd.SetArgs([]string{"label", "1.x"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, errOut.String(), "Error [E001]")
}

func TestDemoCommand(t *testing.T) {
	db := tempDB(t)

	out := mustCLI(t, db, "demo")

	want, err := os.ReadFile(filepath.Join("..", "harness", "testdata", "golden", "demo_transcript.golden"))
	require.NoError(t, err)
	assert.Equal(t, string(want), out)

	listing := mustCLI(t, db, "tree", "/home")
	assert.True(t, strings.HasPrefix(listing, "/home\n  /adrian\n  /other\n    /documents\n"), listing)
}

func TestDemoNeedsEmptyTree(t *testing.T) {
	db := tempDB(t)
	mustCLI(t, db, "mkdir", "/existing")

	run := execCLI(t, db, "", "demo")
	require.Error(t, run.err)
	assert.Equal(t, ExitCommandError, GetExitCode(run.err))
	assert.Contains(t, run.errOut, "demo needs an empty tree")
}
