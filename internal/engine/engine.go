package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/tillfalko/interpolation-engine/internal/chat"
	"github.com/tillfalko/interpolation-engine/internal/execlog"
	"github.com/tillfalko/interpolation-engine/internal/interp"
	"github.com/tillfalko/interpolation-engine/internal/ioface"
	"github.com/tillfalko/interpolation-engine/internal/loadctx"
	tasklog "github.com/tillfalko/interpolation-engine/internal/logger"
	"github.com/tillfalko/interpolation-engine/internal/program"
	"github.com/tillfalko/interpolation-engine/internal/value"
)

// OutcomeKind distinguishes a task's non-error result.
type OutcomeKind int

const (
	OutcomeNone OutcomeKind = iota
	OutcomeGoto
)

// Outcome is execute_task's successful return value.
type Outcome struct {
	Kind   OutcomeKind
	Target string
}

// Engine bundles the run-wide collaborators execute_task needs: the
// loaded program, the chat endpoint, the I/O façade, the inserts
// directory context, a logger, and an optional execution log store.
type Engine struct {
	Program    *program.Program
	Endpoint   chat.Endpoint
	IO         ioface.Channel
	LoadCtx    *loadctx.Context
	Logger     *slog.Logger
	Store      *execlog.Store
	HTTPClient *http.Client
	RunID      string
	ProgramDir string

	speakerMu     sync.Mutex
	activeSpeaker Speaker
}

func New(p *program.Program, endpoint chat.Endpoint, io ioface.Channel, lc *loadctx.Context, logger *slog.Logger, store *execlog.Store, programDir string) *Engine {
	runID := uuid.NewString()
	return &Engine{
		Program:    p,
		Endpoint:   endpoint,
		IO:         io,
		LoadCtx:    lc,
		Logger:     tasklog.WithRun(logger, runID),
		Store:      store,
		HTTPClient: &http.Client{},
		RunID:      runID,
		ProgramDir: programDir,
	}
}

// RunOrder drives the top-level order list starting at state.OrderIndex
// (1-based) until the list is exhausted, a menu suspension occurs, or an
// unrecoverable error is raised.
func (e *Engine) RunOrder(ctx context.Context, state *program.State) error {
	return e.runSiblingList(ctx, state, "root", e.Program.Order)
}

// runSiblingList is shared by the top-level order and by serial/for
// frames: it advances a persistent sub-index over tasks, resolving
// Goto(L) results by scanning for a label named L in the same list.
func (e *Engine) runSiblingList(ctx context.Context, state *program.State, runtimeLabel string, tasks []value.Value) error {
	idx := e.getSubIndex(state, runtimeLabel)
	if idx == 0 {
		idx = 1
	}
	for idx >= 1 && idx <= len(tasks) {
		select {
		case <-ctx.Done():
			e.setSubIndex(state, runtimeLabel, idx)
			return ErrCancelled
		default:
		}
		if runtimeLabel == "root" && e.IO != nil && e.IO.PollMenu() != ioface.MenuNone {
			e.setSubIndex(state, runtimeLabel, idx)
			return ErrCancelled
		}
		task := tasks[idx-1]
		outcome, err := e.executeTask(ctx, state, task, childLabel(runtimeLabel, idx))
		if err != nil {
			e.setSubIndex(state, runtimeLabel, idx)
			return err
		}
		switch outcome.Kind {
		case OutcomeGoto:
			target := outcome.Target
			if target == "CONTINUE" {
				idx++
				continue
			}
			pos, ok := findLabel(tasks, target)
			if !ok {
				return newError(ErrFatal, runtimeLabel, "goto target %q not found in sibling list %q", target, runtimeLabel)
			}
			idx = pos + 1
		default:
			idx++
		}
		e.setSubIndex(state, runtimeLabel, idx)
	}
	e.clearSubIndex(state, runtimeLabel)
	return nil
}

func (e *Engine) getSubIndex(state *program.State, runtimeLabel string) int {
	if runtimeLabel == "root" {
		return state.OrderIndex
	}
	if state.SubIndex == nil {
		return 0
	}
	return state.SubIndex[runtimeLabel]
}

func (e *Engine) setSubIndex(state *program.State, runtimeLabel string, idx int) {
	if runtimeLabel == "root" {
		state.OrderIndex = idx
		return
	}
	if state.SubIndex == nil {
		state.SubIndex = map[string]int{}
	}
	state.SubIndex[runtimeLabel] = idx
}

// clearSubIndex removes a completed frame's sub-cursor, per parallel_race
// and ordinary serial/for completion clearing their scratch cursor.
func (e *Engine) clearSubIndex(state *program.State, runtimeLabel string) {
	if runtimeLabel == "root" {
		return
	}
	delete(state.SubIndex, runtimeLabel)
	delete(state.Counter, runtimeLabel)
}

func findLabel(tasks []value.Value, name string) (int, bool) {
	for i, t := range tasks {
		m, ok := t.Map()
		if !ok {
			continue
		}
		cmd, _ := m.Get("cmd")
		cmdStr, _ := cmd.String()
		if cmdStr != "label" {
			continue
		}
		n, _ := m.Get("name")
		nStr, _ := n.String()
		if nStr == name {
			return i, true
		}
	}
	return -1, false
}

func childLabel(parent string, idx int) string {
	return fmt.Sprintf("%s/%d", parent, idx)
}

// executeTask runs the per-task preamble (cancellation check, task_start
// log, inserts snapshot + interpolation) then dispatches to the command
// implementation.
func (e *Engine) executeTask(ctx context.Context, state *program.State, raw value.Value, runtimeLabel string) (Outcome, error) {
	select {
	case <-ctx.Done():
		return Outcome{}, ErrCancelled
	default:
	}

	taskVal := raw.Clone()
	m, ok := taskVal.Map()
	if !ok {
		return Outcome{}, newError(ErrType, runtimeLabel, "task at %q is not an object", runtimeLabel)
	}
	cmdV, _ := m.Get("cmd")
	cmd, _ := cmdV.String()

	var line *int64
	if lv, ok := m.Get("line"); ok {
		if l, ok := lv.Int64(); ok {
			line = &l
		}
	}
	var tracebackLabel string
	if tlv, ok := m.Get("traceback_label"); ok {
		tracebackLabel, _ = tlv.String()
	}

	if e.Logger != nil {
		e.Logger.Info("task_start", "label", runtimeLabel, "cmd", cmd, "line", line, "traceback_label", tracebackLabel)
	}
	if e.Store != nil {
		_ = e.Store.AppendTaskStart(e.RunID, runtimeLabel, cmd, line, nil)
	}

	snapshot := state.Inserts.Clone()
	interpolated := interp.RecursiveInterpolate(snapshot, taskVal, e.LoadCtx)
	im, ok := interpolated.Map()
	if !ok {
		return Outcome{}, newError(ErrType, runtimeLabel, "interpolated task is not an object")
	}

	return e.dispatch(ctx, state, snapshot, im, cmd, runtimeLabel)
}

func (e *Engine) dispatch(ctx context.Context, state *program.State, snapshot *value.Map, task *value.Map, cmd, runtimeLabel string) (Outcome, error) {
	switch cmd {
	case "print":
		return e.cmdPrint(state, task)
	case "clear":
		return e.cmdClear(state)
	case "sleep":
		return e.cmdSleep(ctx, snapshot, task)
	case "set":
		return e.cmdSet(state, task)
	case "unescape":
		return e.cmdUnescape(state, task)
	case "write":
		return e.cmdWrite(state, task)
	case "show_inserts":
		return e.cmdShowInserts(ctx, state)
	case "random_choice":
		return e.cmdRandomChoice(state, task)
	case "list_join":
		return e.cmdListJoin(state, task)
	case "list_concat":
		return e.cmdListConcat(state, task)
	case "list_append":
		return e.cmdListAppend(state, task)
	case "list_remove":
		return e.cmdListRemove(state, task)
	case "list_index":
		return e.cmdListIndex(state, task)
	case "list_slice":
		return e.cmdListSlice(state, task)
	case "user_input":
		return e.cmdUserInput(ctx, state, task)
	case "user_choice":
		return e.cmdUserChoice(ctx, state, task)
	case "await_insert":
		return e.cmdAwaitInsert(ctx, state, task)
	case "label":
		return Outcome{}, nil
	case "goto":
		return e.cmdGoto(task)
	case "goto_map":
		return e.cmdGotoMap(state, snapshot, task)
	case "replace_map":
		return e.cmdReplaceMap(state, snapshot, task)
	case "for":
		return e.cmdFor(ctx, state, snapshot, task, runtimeLabel)
	case "serial":
		return e.cmdSerial(ctx, state, task, runtimeLabel)
	case "parallel_wait":
		return e.cmdParallelWait(ctx, state, task, runtimeLabel)
	case "parallel_race":
		return e.cmdParallelRace(ctx, state, task, runtimeLabel)
	case "run_task":
		return e.cmdRunTask(ctx, state, task, runtimeLabel)
	case "delete":
		return e.cmdDelete(state, task, false)
	case "delete_except":
		return e.cmdDelete(state, task, true)
	case "math":
		return e.cmdMath(state, snapshot, task)
	case "chat":
		return e.cmdChat(ctx, state, snapshot, task)
	case "speak":
		return e.cmdSpeak(ctx, task)
	default:
		return Outcome{}, newError(ErrFatal, runtimeLabel, "unknown command %q", cmd)
	}
}

func getString(m *value.Map, key string) (string, bool) {
	v, ok := m.Get(key)
	if !ok {
		return "", false
	}
	return v.String()
}

func requireString(m *value.Map, key, cmd string) (string, error) {
	s, ok := getString(m, key)
	if !ok {
		return "", newError(ErrType, "", "%s requires string field %q", cmd, key)
	}
	return s, nil
}

