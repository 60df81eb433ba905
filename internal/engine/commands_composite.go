package engine

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/tillfalko/interpolation-engine/internal/interp"
	"github.com/tillfalko/interpolation-engine/internal/program"
	"github.com/tillfalko/interpolation-engine/internal/value"
)

func (e *Engine) cmdSerial(ctx context.Context, state *program.State, task *value.Map, runtimeLabel string) (Outcome, error) {
	tasksV, _ := task.Get("tasks")
	tasks, ok := tasksV.Seq()
	if !ok {
		return Outcome{}, newError(ErrType, "", "serial.tasks must be an array")
	}
	return Outcome{}, e.runSiblingList(ctx, state, runtimeLabel, tasks)
}

func (e *Engine) cmdFor(ctx context.Context, state *program.State, snapshot *value.Map, task *value.Map, runtimeLabel string) (Outcome, error) {
	nlmRaw, ok := task.Get("name_list_map")
	if !ok {
		return Outcome{}, newError(ErrType, "", "for requires name_list_map")
	}
	nlmResolved := interp.RecursiveInterpolate(snapshot, nlmRaw, e.LoadCtx)
	nlm, ok := nlmResolved.Map()
	if !ok {
		return Outcome{}, newError(ErrType, "", "for.name_list_map must be an object")
	}
	tasksV, _ := task.Get("tasks")
	tasks, ok := tasksV.Seq()
	if !ok {
		return Outcome{}, newError(ErrType, "", "for.tasks must be an array")
	}

	names := nlm.Keys()
	length := -1
	lists := make([][]value.Value, len(names))
	for i, name := range names {
		v, _ := nlm.Get(name)
		items, ok := v.Seq()
		if !ok {
			return Outcome{}, newError(ErrType, "", "for.name_list_map[%q] must be an array", name)
		}
		lists[i] = items
		if length == -1 {
			length = len(items)
		} else if length != len(items) {
			return Outcome{}, newError(ErrType, "", "for: name_list_map lists must share a length")
		}
	}
	if length == -1 {
		length = 0
	}

	bodyLabel := runtimeLabel + "/body"
	iter := state.Counter[runtimeLabel]
	if iter == 0 {
		iter = 1
	}
	for iter <= length {
		select {
		case <-ctx.Done():
			return Outcome{}, ErrCancelled
		default:
		}
		for i, name := range names {
			state.Inserts.Set(name, lists[i][iter-1])
		}
		if err := e.runSiblingList(ctx, state, bodyLabel, tasks); err != nil {
			if state.Counter == nil {
				state.Counter = map[string]int{}
			}
			state.Counter[runtimeLabel] = iter
			return Outcome{}, err
		}
		iter++
		if state.Counter == nil {
			state.Counter = map[string]int{}
		}
		state.Counter[runtimeLabel] = iter
	}
	delete(state.Counter, runtimeLabel)
	return Outcome{}, nil
}

func (e *Engine) cmdParallelWait(ctx context.Context, state *program.State, task *value.Map, runtimeLabel string) (Outcome, error) {
	tasksV, _ := task.Get("tasks")
	tasks, ok := tasksV.Seq()
	if !ok {
		return Outcome{}, newError(ErrType, "", "parallel_wait.tasks must be an array")
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, t := range tasks {
		i, t := i, t
		g.Go(func() error {
			_, err := e.executeTask(gctx, state, t, childLabel(runtimeLabel, i+1))
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return Outcome{}, err
	}
	return Outcome{}, nil
}

func (e *Engine) cmdParallelRace(ctx context.Context, state *program.State, task *value.Map, runtimeLabel string) (Outcome, error) {
	tasksV, _ := task.Get("tasks")
	tasks, ok := tasksV.Seq()
	if !ok {
		return Outcome{}, newError(ErrType, "", "parallel_race.tasks must be an array")
	}

	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		outcome Outcome
		err     error
	}
	results := make(chan result, len(tasks))
	for i, t := range tasks {
		i, t := i, t
		go func() {
			outcome, err := e.executeTask(raceCtx, state, t, childLabel(runtimeLabel, i+1))
			results <- result{outcome, err}
		}()
	}

	var first result
	haveFirst := false
	for range tasks {
		r := <-results
		if !haveFirst {
			first = r
			haveFirst = true
		}
		cancel()
	}

	for i := range tasks {
		delete(state.SubIndex, childLabel(runtimeLabel, i+1))
		delete(state.Counter, childLabel(runtimeLabel, i+1))
	}

	if first.err != nil && !IsCancelled(first.err) {
		return Outcome{}, first.err
	}
	return first.outcome, nil
}

func (e *Engine) cmdRunTask(ctx context.Context, state *program.State, task *value.Map, runtimeLabel string) (Outcome, error) {
	name, err := requireString(task, "task_name", "run_task")
	if err != nil {
		return Outcome{}, err
	}
	named, ok := e.Program.NamedTasks.Get(name)
	if !ok {
		return Outcome{}, newError(ErrFatal, runtimeLabel, "run_task: unknown named task %q", name)
	}
	nested := runtimeLabel + "/" + name
	outcome, err := e.executeTask(ctx, state, named, nested)
	return outcome, err
}
