// Package ioface defines the narrow I/O façade the execution engine talks
// to: it unifies the interactive terminal UI and the agent-mode file
// channel behind one interface, following the teacher's interfaces
// package convention of small, single-purpose collaborator interfaces
// (FileSystem, HistoryStore, ConfigManager) kept outside the core logic.
package ioface

import "context"

// MenuAction is what the UI layer reports back when a run is suspended.
type MenuAction int

const (
	MenuNone MenuAction = iota
	MenuSave
	MenuLoad
	MenuReload
	MenuQuit
)

// Channel is the engine's view of its human or agent collaborator. Every
// method is cancellable: a cancelled ctx must return ErrCancelled rather
// than block forever.
type Channel interface {
	// Print appends visible text to the transcript.
	Print(text string)
	// Clear empties the visible transcript.
	Clear()
	// UserInput solicits a single line of free text.
	UserInput(ctx context.Context, prompt string) (string, error)
	// UserChoice solicits a pick among choices (description is shown as a
	// header; an empty choices list still asks for confirmation and the
	// caller stores null).
	UserChoice(ctx context.Context, description string, choices []string) (int, error)
	// ShowInserts renders a pretty-printed snapshot and waits for dismissal.
	ShowInserts(ctx context.Context, pretty string) error
	// PollMenu returns immediately with MenuNone unless the user has
	// triggered a menu action (e.g. via a UI keybinding); used by the
	// engine's cooperative cancellation to decide why a task was cancelled.
	PollMenu() MenuAction
}

// ErrCancelled is the sentinel returned by Channel methods when the owning
// cancellation token fires (the engine's own blocking operations return
// engine.ErrCancelled; engine.IsCancelled accepts both). It is intercepted by the top-level run loop and never surfaced
// to the user as a generic error.
var ErrCancelled = cancelledError{}

type cancelledError struct{}

func (cancelledError) Error() string { return "cancelled" }
