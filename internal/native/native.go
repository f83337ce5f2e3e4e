// Package native defines the capability set this module consumes from a
// version-control library: a stateful cursor over a collection owned by the
// library, and the error type used to report failures crossing that boundary.
package native

import (
	"errors"
	"fmt"
)

// Raw is an opaque element reference produced by a Cursor. Only the decoder
// supplied by the library that created the cursor knows its concrete type.
type Raw = any

// Cursor is a live position within a collection owned by the native library.
//
// Implementations initialize "at" the first element after Reset, not before
// it: Current must report the first element (or nil for an empty collection)
// without a preceding Advance.
type Cursor interface {
	// Reset moves the cursor to the first element. It is idempotent.
	Reset() error
	// Advance moves to the next element and reports whether one exists.
	Advance() (bool, error)
	// Current returns the element at the cursor, or nil when the cursor is
	// empty or positioned past the end.
	Current() (Raw, error)
	// Release frees the native resource. It must be called exactly once.
	Release() error
}

type Op string

const (
	OpReset   Op = "reset"
	OpAdvance Op = "advance"
	OpCurrent Op = "current"
	OpRelease Op = "release"
	OpOpen    Op = "open"
)

// CodeUnknown is used when the native library does not expose error codes.
const CodeUnknown = -1

// OperationError reports a failed call into the native library.
type OperationError struct {
	Op   Op
	Code int
	Err  error
}

func (e *OperationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("native %s failed (code %d)", e.Op, e.Code)
	}
	return fmt.Sprintf("native %s failed (code %d): %v", e.Op, e.Code, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }

// Failed builds an OperationError with an explicit native code.
func Failed(op Op, code int, err error) error {
	return &OperationError{Op: op, Code: code, Err: err}
}

// Wrap returns err as an OperationError for op. Errors that already are
// OperationErrors keep their original op and code.
func Wrap(op Op, err error) error {
	if err == nil {
		return nil
	}
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return err
	}
	return &OperationError{Op: op, Code: CodeUnknown, Err: err}
}

// Code returns the native error code carried by err, if any.
func Code(err error) (int, bool) {
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.Code, true
	}
	return 0, false
}
