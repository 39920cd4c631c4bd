package tree

import (
	"errors"
	"fmt"

	"github.com/roach88/contfrac/internal/label"
	"github.com/roach88/contfrac/internal/pathname"
)

// Sentinel errors reported by backing stores. Stores wrap them with
// fmt.Errorf("...: %w") and the tree classifies them into an *Error.
var (
	// ErrNotFound is returned when no record has the requested label.
	ErrNotFound = errors.New("node not found")

	// ErrExists is returned by Put when the label is already occupied.
	ErrExists = errors.New("node already exists")
)

// Error is the typed failure surfaced by every tree operation.
//
// Code identifies the kind; Op and Path say where it happened; Err keeps the
// underlying cause for errors.Is / errors.As.
type Error struct {
	Code ErrorCode
	Op   string
	Path string
	Err  error
}

// ErrorCode categorizes tree errors.
type ErrorCode string

const (
	// ErrCodeInvalidPath indicates an empty or malformed path segment, or a
	// structurally impossible request such as moving a node into itself.
	ErrCodeInvalidPath ErrorCode = "INVALID_PATH"

	// ErrCodeLabelOverflow indicates arithmetic would exceed the configured
	// representable range.
	ErrCodeLabelOverflow ErrorCode = "LABEL_OVERFLOW"

	// ErrCodeNotFound indicates a path component does not resolve.
	ErrCodeNotFound ErrorCode = "NODE_NOT_FOUND"

	// ErrCodeAlreadyExists indicates the target label or name is taken.
	ErrCodeAlreadyExists ErrorCode = "NODE_ALREADY_EXISTS"

	// ErrCodeStoreFailure wraps any failure of the backing index.
	ErrCodeStoreFailure ErrorCode = "BACKING_STORE_FAILURE"

	// ErrCodeContentIO wraps failures of content streams.
	ErrCodeContentIO ErrorCode = "CONTENT_IO_FAILURE"
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := string(e.Code)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Path != "" {
		msg += fmt.Sprintf(" (path=%s)", e.Path)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// CodeOf returns the code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) ErrorCode {
	var te *Error
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}

// IsInvalidPath reports whether err is an INVALID_PATH error.
func IsInvalidPath(err error) bool { return CodeOf(err) == ErrCodeInvalidPath }

// IsOverflow reports whether err is a LABEL_OVERFLOW error.
func IsOverflow(err error) bool { return CodeOf(err) == ErrCodeLabelOverflow }

// IsNotFound reports whether err is a NODE_NOT_FOUND error.
func IsNotFound(err error) bool { return CodeOf(err) == ErrCodeNotFound }

// IsAlreadyExists reports whether err is a NODE_ALREADY_EXISTS error.
func IsAlreadyExists(err error) bool { return CodeOf(err) == ErrCodeAlreadyExists }

// IsStoreFailure reports whether err is a BACKING_STORE_FAILURE error.
func IsStoreFailure(err error) bool { return CodeOf(err) == ErrCodeStoreFailure }

// IsContentIO reports whether err is a CONTENT_IO_FAILURE error.
func IsContentIO(err error) bool { return CodeOf(err) == ErrCodeContentIO }

func newError(code ErrorCode, op, path string, err error) *Error {
	return &Error{Code: code, Op: op, Path: path, Err: err}
}

// classify maps an arbitrary failure onto the taxonomy. An existing *Error
// keeps its code; only Op and Path are filled in when missing.
func classify(op, path string, err error) error {
	if err == nil {
		return nil
	}
	var te *Error
	if errors.As(err, &te) {
		if te.Op == "" {
			te.Op = op
		}
		if te.Path == "" {
			te.Path = path
		}
		return err
	}

	switch {
	case errors.Is(err, label.ErrOverflow):
		return newError(ErrCodeLabelOverflow, op, path, err)
	case errors.Is(err, label.ErrInvalidPath), errors.Is(err, pathname.ErrSyntax):
		return newError(ErrCodeInvalidPath, op, path, err)
	case errors.Is(err, ErrNotFound):
		return newError(ErrCodeNotFound, op, path, err)
	case errors.Is(err, ErrExists):
		return newError(ErrCodeAlreadyExists, op, path, err)
	default:
		return newError(ErrCodeStoreFailure, op, path, err)
	}
}
