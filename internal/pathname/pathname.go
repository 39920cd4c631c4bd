// Package pathname splits slash-delimited name paths into components.
//
// Components are NFC normalised so that visually identical names typed in
// different Unicode forms address the same node.
package pathname

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Separator delimits name components.
const Separator = "/"

// ErrSyntax is wrapped by every parse failure.
var ErrSyntax = errors.New("invalid path")

// SyntaxError describes why a path was rejected.
type SyntaxError struct {
	Path   string
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid path %q: %s", e.Path, e.Reason)
}

func (e *SyntaxError) Unwrap() error { return ErrSyntax }

// Parse decomposes an absolute path into its ordered name components.
// "/" yields no components. A single trailing separator is tolerated; empty
// interior components and "." or ".." are not.
func Parse(s string) ([]string, error) {
	if !strings.HasPrefix(s, Separator) {
		return nil, &SyntaxError{Path: s, Reason: "must start with " + Separator}
	}

	trimmed := strings.TrimPrefix(s, Separator)
	trimmed = strings.TrimSuffix(trimmed, Separator)
	if trimmed == "" {
		if len(s) > 1 {
			return nil, &SyntaxError{Path: s, Reason: "empty component"}
		}
		return []string{}, nil
	}

	parts := strings.Split(trimmed, Separator)
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		name, err := Name(p)
		if err != nil {
			return nil, &SyntaxError{Path: s, Reason: err.(*SyntaxError).Reason}
		}
		names = append(names, name)
	}
	return names, nil
}

// Name validates and normalises a single component.
func Name(s string) (string, error) {
	switch {
	case s == "":
		return "", &SyntaxError{Path: s, Reason: "empty component"}
	case s == "." || s == "..":
		return "", &SyntaxError{Path: s, Reason: "relative component " + s}
	case strings.Contains(s, Separator):
		return "", &SyntaxError{Path: s, Reason: "component contains " + Separator}
	}
	return norm.NFC.String(s), nil
}

// Join renders components back into an absolute path.
func Join(names []string) string {
	return Separator + strings.Join(names, Separator)
}

// Split returns the parent components and the final name of an absolute
// path. The root has no final name.
func Split(names []string) (parent []string, name string) {
	if len(names) == 0 {
		return nil, ""
	}
	return names[:len(names)-1], names[len(names)-1]
}
