package harness

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/contfrac/internal/label"
	"github.com/roach88/contfrac/internal/logging"
	"github.com/roach88/contfrac/internal/printer"
	"github.com/roach88/contfrac/internal/store"
	"github.com/roach88/contfrac/internal/testutil"
	"github.com/roach88/contfrac/internal/tree"
)

// Harness executes scenarios against a tree.
type Harness struct {
	tree   *tree.Tree
	logger *slog.Logger
}

// New returns a harness driving tr. A nil logger discards.
func New(tr *tree.Tree, logger *slog.Logger) *Harness {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Harness{tree: tr, logger: logger}
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database with sequential content
// references, so two runs produce identical traces.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	tr, closeStore, err := openScenarioTree(ctx, scenario)
	if err != nil {
		return nil, err
	}
	defer closeStore()

	return New(tr, nil).Execute(ctx, scenario)
}

func openScenarioTree(ctx context.Context, scenario *Scenario) (*tree.Tree, func() error, error) {
	st, err := store.Open(":memory:", store.Options{IDs: testutil.NewSequentialIDs("")})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}

	tr, err := tree.New(ctx, st, tree.Options{
		RootPath: label.Path(scenario.Root),
		Limit:    label.Limit(scenario.MaxLabelBits),
	})
	if err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("failed to open tree: %w", err)
	}
	return tr, st.Close, nil
}

// Execute runs setup, flow and assertions against the harness tree.
// A returned error means the scenario could not run; step and assertion
// failures are reported in the Result.
func (h *Harness) Execute(ctx context.Context, scenario *Scenario) (*Result, error) {
	for i, p := range scenario.Setup {
		if _, err := h.tree.Create(ctx, p); err != nil {
			return nil, fmt.Errorf("setup[%d] %s: %w", i, p, err)
		}
	}

	result := NewResult()
	for i, step := range scenario.Flow {
		ev, err := h.executeStep(ctx, step)
		if err != nil {
			return nil, fmt.Errorf("flow[%d]: %w", i, err)
		}
		result.AddTrace(ev)
		for _, msg := range checkExpect(step, ev) {
			result.AddError(fmt.Sprintf("flow[%d] %s %s: %s", i, step.Op, step.Path, msg))
		}

		h.logger.Info("flow step completed",
			"step", i,
			"op", step.Op,
			"path", step.Path,
			"result", ev.Result,
			"error", ev.Error,
		)
	}

	for _, msg := range EvaluateAssertions(ctx, h.tree, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// executeStep performs one operation. Tree errors are recorded in the event;
// only failures outside the tree's taxonomy are returned.
func (h *Harness) executeStep(ctx context.Context, step FlowStep) (TraceEvent, error) {
	ev := TraceEvent{
		Op:    step.Op,
		Path:  step.Path,
		To:    step.To,
		Name:  step.Name,
		Title: step.Title,
	}

	var (
		p   label.Path
		err error
	)
	switch step.Op {
	case OpCreate:
		p, err = h.tree.Create(ctx, step.Path)
	case OpWrite:
		err = h.tree.WriteFile(ctx, step.Path, strings.NewReader(step.Content))
	case OpRead:
		var data []byte
		data, err = h.tree.ReadFile(ctx, step.Path)
		ev.Output = string(data)
	case OpMove:
		p, err = h.tree.Move(ctx, step.Path, step.To)
	case OpCopy:
		p, err = h.tree.Copy(ctx, step.Path, step.To)
	case OpRemove:
		err = h.tree.Remove(ctx, step.Path)
	case OpRename:
		err = h.tree.Rename(ctx, step.Path, step.Name)
	case OpPrint:
		var entries []tree.Entry
		entries, err = h.tree.Walk(ctx, step.Path)
		if err == nil {
			var b strings.Builder
			if perr := printer.Print(&b, entries); perr != nil {
				return ev, perr
			}
			ev.Output = b.String()
		}
	default:
		return ev, fmt.Errorf("unknown op %q", step.Op)
	}

	if err != nil {
		code := tree.CodeOf(err)
		if code == "" {
			return ev, err
		}
		ev.Error = string(code)
		return ev, nil
	}
	if p != nil {
		ev.Result = p.String()
	}
	return ev, nil
}

// checkExpect compares a step outcome with its expect clause.
// A step without one must succeed.
func checkExpect(step FlowStep, ev TraceEvent) []string {
	exp := step.Expect
	if exp == nil {
		if ev.Error != "" {
			return []string{fmt.Sprintf("unexpected error %s", ev.Error)}
		}
		return nil
	}

	var msgs []string
	if exp.Error != ev.Error {
		if exp.Error == "" {
			msgs = append(msgs, fmt.Sprintf("unexpected error %s", ev.Error))
		} else {
			msgs = append(msgs, fmt.Sprintf("expected error %s, got %q", exp.Error, ev.Error))
		}
	}
	if exp.Path != "" && exp.Path != ev.Result {
		msgs = append(msgs, fmt.Sprintf("expected path %s, got %q", exp.Path, ev.Result))
	}
	if exp.Content != nil && *exp.Content != ev.Output {
		msgs = append(msgs, fmt.Sprintf("expected content %q, got %q", *exp.Content, ev.Output))
	}
	return msgs
}
