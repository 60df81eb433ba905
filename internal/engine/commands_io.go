package engine

import (
	"context"
	"time"

	"github.com/tillfalko/interpolation-engine/internal/interp"
	"github.com/tillfalko/interpolation-engine/internal/program"
	"github.com/tillfalko/interpolation-engine/internal/value"
)

// escapeUserText re-escapes braces in freshly typed user input so that
// later interpolation passes treat it as literal text rather than as
// a reference to resolve.
func escapeUserText(s string) string {
	v := interp.RecursiveEscape(value.Str(s))
	out, _ := v.String()
	return out
}

func (e *Engine) cmdUserInput(ctx context.Context, state *program.State, task *value.Map) (Outcome, error) {
	prompt, err := requireString(task, "prompt", "user_input")
	if err != nil {
		return Outcome{}, err
	}
	name, err := requireString(task, "output_name", "user_input")
	if err != nil {
		return Outcome{}, err
	}
	text, err := e.IO.UserInput(ctx, prompt)
	if err != nil {
		return Outcome{}, err
	}
	state.Inserts.Set(name, value.Str(escapeUserText(text)))
	return Outcome{}, nil
}

func (e *Engine) cmdUserChoice(ctx context.Context, state *program.State, task *value.Map) (Outcome, error) {
	listV, _ := task.Get("list")
	list, _ := listV.Seq()
	description, _ := getString(task, "description")
	name, err := requireString(task, "output_name", "user_choice")
	if err != nil {
		return Outcome{}, err
	}

	choices := make([]string, len(list))
	for i, item := range list {
		s, ok := item.Stringify()
		if !ok {
			return Outcome{}, newError(ErrType, "", "user_choice: list element %d is not stringifiable", i)
		}
		choices[i] = s
	}

	idx, err := e.IO.UserChoice(ctx, description, choices)
	if err != nil {
		return Outcome{}, err
	}
	if len(list) == 0 || idx < 0 || idx >= len(list) {
		state.Inserts.Set(name, value.Null())
		return Outcome{}, nil
	}
	state.Inserts.Set(name, list[idx])
	return Outcome{}, nil
}

func (e *Engine) cmdAwaitInsert(ctx context.Context, state *program.State, task *value.Map) (Outcome, error) {
	name, err := requireString(task, "name", "await_insert")
	if err != nil {
		return Outcome{}, err
	}
	const pollInterval = 100 * time.Millisecond
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		if _, ok := state.Inserts.Get(name); ok {
			return Outcome{}, nil
		}
		select {
		case <-ctx.Done():
			return Outcome{}, ErrCancelled
		case <-ticker.C:
		}
	}
}
