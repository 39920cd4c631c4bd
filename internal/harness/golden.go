package harness

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/contfrac/internal/printer"
	"github.com/roach88/contfrac/internal/tree"
)

// Snapshot renders a trace followed by the long listing of the final tree.
// The text is stable across runs and is what golden files hold.
func Snapshot(ctx context.Context, tr *tree.Tree, name string, result *Result) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n", name)
	for _, ev := range result.Trace {
		writeEvent(&buf, ev)
	}

	entries, err := tr.Walk(ctx, "/")
	if err != nil {
		return nil, err
	}
	buf.WriteString("\nfinal:\n")
	if err := printer.Long(&buf, entries); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeEvent(w io.Writer, ev TraceEvent) {
	fmt.Fprintf(w, "[%d] %s %s", ev.Seq, ev.Op, ev.Path)
	switch {
	case ev.To != "":
		fmt.Fprintf(w, " %s", ev.To)
	case ev.Name != "":
		fmt.Fprintf(w, " %s", ev.Name)
	}
	switch {
	case ev.Error != "":
		fmt.Fprintf(w, " -> error %s", ev.Error)
	case ev.Result != "":
		fmt.Fprintf(w, " -> %s", ev.Result)
	case ev.Op == OpRead:
		fmt.Fprintf(w, " -> %q", ev.Output)
	}
	fmt.Fprintln(w)
	if ev.Op == OpPrint {
		for _, line := range strings.SplitAfter(ev.Output, "\n") {
			if line != "" {
				fmt.Fprintf(w, "    %s", line)
			}
		}
	}
}

// WriteTranscript renders a result as a readable session: step titles as
// headings, listings from print steps, read content and step errors.
func WriteTranscript(w io.Writer, result *Result) error {
	var buf bytes.Buffer
	titled := false
	for _, ev := range result.Trace {
		if ev.Title != "" {
			if titled {
				buf.WriteString("\n")
			}
			fmt.Fprintf(&buf, "%s\n\n", ev.Title)
			titled = true
		}
		switch {
		case ev.Error != "":
			fmt.Fprintf(&buf, "%s %s: %s\n", ev.Op, ev.Path, ev.Error)
		case ev.Op == OpPrint:
			buf.WriteString(ev.Output)
		case ev.Op == OpRead:
			fmt.Fprintln(&buf, ev.Output)
		}
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// RunSnapshot executes a scenario in a fresh tree and returns its result
// together with its Snapshot.
func RunSnapshot(ctx context.Context, scenario *Scenario) (*Result, []byte, error) {
	tr, closeStore, err := openScenarioTree(ctx, scenario)
	if err != nil {
		return nil, nil, err
	}
	defer closeStore()

	result, err := New(tr, nil).Execute(ctx, scenario)
	if err != nil {
		return nil, nil, err
	}

	snap, err := Snapshot(ctx, tr, scenario.Name, result)
	if err != nil {
		return nil, nil, err
	}
	return result, snap, nil
}

// RunWithGolden executes a scenario in a fresh tree and compares its
// snapshot against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can also check Pass.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, snap, err := RunSnapshot(context.Background(), scenario)
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, snap)

	return result, nil
}
