package engine

import (
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/tillfalko/interpolation-engine/internal/program"
	"github.com/tillfalko/interpolation-engine/internal/value"
)

func (e *Engine) cmdRandomChoice(state *program.State, task *value.Map) (Outcome, error) {
	listV, _ := task.Get("list")
	list, ok := listV.Seq()
	if !ok {
		return Outcome{}, newError(ErrType, "", "random_choice.list must be an array")
	}
	if len(list) == 0 {
		return Outcome{}, newError(ErrType, "", "random_choice.list must be non-empty")
	}
	name, err := requireString(task, "output_name", "random_choice")
	if err != nil {
		return Outcome{}, err
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(list))))
	if err != nil {
		return Outcome{}, newError(ErrIO, "", "random_choice: %v", err)
	}
	state.Inserts.Set(name, list[n.Int64()])
	return Outcome{}, nil
}

func (e *Engine) cmdListJoin(state *program.State, task *value.Map) (Outcome, error) {
	listV, _ := task.Get("list")
	list, ok := listV.Seq()
	if !ok {
		return Outcome{}, newError(ErrType, "", "list_join.list must be an array")
	}
	before, _ := getString(task, "before")
	between, _ := getString(task, "between")
	after, _ := getString(task, "after")
	name, err := requireString(task, "output_name", "list_join")
	if err != nil {
		return Outcome{}, err
	}
	var b strings.Builder
	b.WriteString(before)
	for i, item := range list {
		if i > 0 {
			b.WriteString(between)
		}
		s, ok := item.Stringify()
		if !ok {
			return Outcome{}, newError(ErrType, "", "list_join: element %d is not stringifiable", i)
		}
		b.WriteString(s)
	}
	b.WriteString(after)
	state.Inserts.Set(name, value.Str(b.String()))
	return Outcome{}, nil
}

func (e *Engine) cmdListConcat(state *program.State, task *value.Map) (Outcome, error) {
	listsV, _ := task.Get("lists")
	lists, ok := listsV.Seq()
	if !ok {
		return Outcome{}, newError(ErrType, "", "list_concat.lists must be an array")
	}
	name, err := requireString(task, "output_name", "list_concat")
	if err != nil {
		return Outcome{}, err
	}
	var out []value.Value
	for i, l := range lists {
		items, ok := l.Seq()
		if !ok {
			return Outcome{}, newError(ErrType, "", "list_concat.lists[%d] is not an array", i)
		}
		out = append(out, items...)
	}
	state.Inserts.Set(name, value.Seq(out))
	return Outcome{}, nil
}

func (e *Engine) cmdListAppend(state *program.State, task *value.Map) (Outcome, error) {
	listV, _ := task.Get("list")
	list, ok := listV.Seq()
	if !ok {
		return Outcome{}, newError(ErrType, "", "list_append.list must be an array")
	}
	item, _ := task.Get("item")
	name, err := requireString(task, "output_name", "list_append")
	if err != nil {
		return Outcome{}, err
	}
	out := append(append([]value.Value(nil), list...), item)
	state.Inserts.Set(name, value.Seq(out))
	return Outcome{}, nil
}

func (e *Engine) cmdListRemove(state *program.State, task *value.Map) (Outcome, error) {
	listV, _ := task.Get("list")
	list, ok := listV.Seq()
	if !ok {
		return Outcome{}, newError(ErrType, "", "list_remove.list must be an array")
	}
	item, _ := task.Get("item")
	name, err := requireString(task, "output_name", "list_remove")
	if err != nil {
		return Outcome{}, err
	}
	out := make([]value.Value, 0, len(list))
	removed := false
	for _, it := range list {
		if !removed && value.Equal(it, item) {
			removed = true
			continue
		}
		out = append(out, it)
	}
	state.Inserts.Set(name, value.Seq(out))
	return Outcome{}, nil
}

// resolveIndex1 converts a 1-based (or negative, counting from end) index
// into a 0-based slice position. 0 is invalid.
func resolveIndex1(i, length int) (int, bool) {
	switch {
	case i > 0:
		if i > length {
			return 0, false
		}
		return i - 1, true
	case i < 0:
		pos := length + i
		if pos < 0 {
			return 0, false
		}
		return pos, true
	default:
		return 0, false
	}
}

func (e *Engine) cmdListIndex(state *program.State, task *value.Map) (Outcome, error) {
	listV, _ := task.Get("list")
	list, ok := listV.Seq()
	if !ok {
		return Outcome{}, newError(ErrType, "", "list_index.list must be an array")
	}
	idxV, _ := task.Get("index")
	idx, ok := idxV.Int64()
	if !ok {
		return Outcome{}, newError(ErrType, "", "list_index.index must be an integer")
	}
	name, err := requireString(task, "output_name", "list_index")
	if err != nil {
		return Outcome{}, err
	}
	pos, ok := resolveIndex1(int(idx), len(list))
	if !ok {
		return Outcome{}, newError(ErrIndex, "", "list_index: index %d out of range for length %d", idx, len(list))
	}
	state.Inserts.Set(name, list[pos])
	return Outcome{}, nil
}

func (e *Engine) cmdListSlice(state *program.State, task *value.Map) (Outcome, error) {
	listV, _ := task.Get("list")
	list, ok := listV.Seq()
	if !ok {
		return Outcome{}, newError(ErrType, "", "list_slice.list must be an array")
	}
	fromV, _ := task.Get("from_index")
	from, ok := fromV.Int64()
	if !ok {
		return Outcome{}, newError(ErrType, "", "list_slice.from_index must be an integer")
	}
	toV, _ := task.Get("to_index")
	to, ok := toV.Int64()
	if !ok {
		return Outcome{}, newError(ErrType, "", "list_slice.to_index must be an integer")
	}
	name, err := requireString(task, "output_name", "list_slice")
	if err != nil {
		return Outcome{}, err
	}

	n := len(list)
	if to == 0 {
		state.Inserts.Set(name, value.Seq(nil))
		return Outcome{}, nil
	}
	if from == 0 {
		return Outcome{}, newError(ErrIndex, "", "list_slice.from_index may not be 0")
	}
	fromPos, ok := resolveIndex1(int(from), n)
	if !ok {
		return Outcome{}, newError(ErrIndex, "", "list_slice: from_index %d out of range for length %d", from, n)
	}
	toPos, ok := resolveIndex1(int(to), n)
	if !ok {
		return Outcome{}, newError(ErrIndex, "", "list_slice: to_index %d out of range for length %d", to, n)
	}
	if toPos < fromPos {
		state.Inserts.Set(name, value.Seq(nil))
		return Outcome{}, nil
	}
	out := append([]value.Value(nil), list[fromPos:toPos+1]...)
	state.Inserts.Set(name, value.Seq(out))
	return Outcome{}, nil
}
