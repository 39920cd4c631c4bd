package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/contfrac/internal/label"
	"github.com/roach88/contfrac/internal/tree"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Path     string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s", e.Type)
	if e.Path != "" {
		fmt.Fprintf(&buf, " %s", e.Path)
	}
	fmt.Fprintf(&buf, "\n  Expected: %s\n  Actual: %s", e.Expected, e.Actual)
	return buf.String()
}

// assertChildren checks the names of path's children in ordinal order.
func assertChildren(ctx context.Context, tr *tree.Tree, a Assertion) error {
	entries, err := tr.List(ctx, a.Path)
	if err != nil {
		return &AssertionError{Type: a.Type, Path: a.Path, Expected: fmt.Sprint(a.Names), Actual: err.Error()}
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	want := a.Names
	if want == nil {
		want = []string{}
	}
	if !slices.Equal(names, want) {
		return &AssertionError{Type: a.Type, Path: a.Path, Expected: fmt.Sprint(want), Actual: fmt.Sprint(names)}
	}
	return nil
}

func assertContent(ctx context.Context, tr *tree.Tree, a Assertion) error {
	data, err := tr.ReadFile(ctx, a.Path)
	if err != nil {
		return &AssertionError{Type: a.Type, Path: a.Path, Expected: fmt.Sprintf("%q", a.Content), Actual: err.Error()}
	}
	if string(data) != a.Content {
		return &AssertionError{Type: a.Type, Path: a.Path, Expected: fmt.Sprintf("%q", a.Content), Actual: fmt.Sprintf("%q", data)}
	}
	return nil
}

func assertExists(ctx context.Context, tr *tree.Tree, a Assertion, want bool) error {
	_, err := tr.Lookup(ctx, a.Path)
	switch {
	case err == nil && want, tree.IsNotFound(err) && !want:
		return nil
	case err == nil:
		return &AssertionError{Type: a.Type, Path: a.Path, Expected: "no node", Actual: "node exists"}
	case tree.IsNotFound(err):
		return &AssertionError{Type: a.Type, Path: a.Path, Expected: "node exists", Actual: "not found"}
	default:
		return &AssertionError{Type: a.Type, Path: a.Path, Expected: "lookup to succeed", Actual: err.Error()}
	}
}

// assertLabelsConsistent recomputes every label from the ordinal path the
// walk reconstructed and compares it with the stored record.
func assertLabelsConsistent(ctx context.Context, tr *tree.Tree, a Assertion) error {
	entries, err := tr.Walk(ctx, "/")
	if err != nil {
		return &AssertionError{Type: a.Type, Expected: "walk to succeed", Actual: err.Error()}
	}
	for _, e := range entries {
		want, err := label.Of(e.Path, tr.Limit())
		if err != nil {
			return &AssertionError{Type: a.Type, Path: e.Path.String(), Expected: "computable label", Actual: err.Error()}
		}
		if !want.Label.Equal(e.Label) || !want.Bound.Equal(e.Bound) {
			return &AssertionError{
				Type:     a.Type,
				Path:     e.Path.String(),
				Expected: want.String(),
				Actual:   e.Pair().String(),
			}
		}
		if e.Depth != e.Path.Depth() {
			return &AssertionError{
				Type:     a.Type,
				Path:     e.Path.String(),
				Expected: fmt.Sprintf("depth %d", e.Path.Depth()),
				Actual:   fmt.Sprintf("depth %d", e.Depth),
			}
		}
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the final tree.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(ctx context.Context, tr *tree.Tree, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertChildren:
			err = assertChildren(ctx, tr, assertion)
		case AssertContent:
			err = assertContent(ctx, tr, assertion)
		case AssertExists:
			err = assertExists(ctx, tr, assertion, true)
		case AssertAbsent:
			err = assertExists(ctx, tr, assertion, false)
		case AssertLabelsConsistent:
			err = assertLabelsConsistent(ctx, tr, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
