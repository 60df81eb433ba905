// Package engine implements the recursive async task execution engine:
// command dispatch, serial/parallel/race composition, labelled goto
// within a scope, and menu-driven save/load/reload suspension. Grounded
// in the teacher's concurrency idioms (context.Context cancellation trees,
// errgroup-style fan-out) generalized from wingthing's agent/tool loop to
// the interpreter's task tree.
package engine

import (
	"fmt"

	"github.com/tillfalko/interpolation-engine/internal/ioface"
)

// ErrorKind distinguishes the runtime error variants spec.md §7 names
// that the engine itself raises (as opposed to InterpolationError,
// MathError, and ChatError, which are returned as-is from their
// producing packages).
type ErrorKind int

const (
	ErrType ErrorKind = iota
	ErrIndex
	ErrIO
	ErrFatal
)

type Error struct {
	Kind  ErrorKind
	Label string
	Msg   string
}

func (e *Error) Error() string { return e.Msg }

func newError(kind ErrorKind, label, format string, args ...any) *Error {
	return &Error{Kind: kind, Label: label, Msg: fmt.Sprintf(format, args...)}
}

// Cancelled is the sentinel error used to unwind the task tree back to
// the top-level loop without it being treated as a real failure.
type cancelledError struct{}

func (cancelledError) Error() string { return "cancelled" }

var ErrCancelled error = cancelledError{}

func IsCancelled(err error) bool {
	if _, ok := err.(cancelledError); ok {
		return true
	}
	return err == ioface.ErrCancelled
}
