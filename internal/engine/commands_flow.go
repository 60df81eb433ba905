package engine

import (
	"strconv"

	"github.com/tillfalko/interpolation-engine/internal/interp"
	"github.com/tillfalko/interpolation-engine/internal/loadctx"
	"github.com/tillfalko/interpolation-engine/internal/program"
	"github.com/tillfalko/interpolation-engine/internal/value"
	"github.com/tillfalko/interpolation-engine/internal/wildcard"
)

func (e *Engine) cmdGoto(task *value.Map) (Outcome, error) {
	name, err := requireString(task, "name", "goto")
	if err != nil {
		return Outcome{}, err
	}
	if name == "CONTINUE" {
		return Outcome{}, nil
	}
	return Outcome{Kind: OutcomeGoto, Target: name}, nil
}

// arms reads a target_maps/wildcard_maps field: an array of single-entry
// {pattern: value} objects.
func arms(task *value.Map, field string) ([][2]value.Value, error) {
	listV, _ := task.Get(field)
	list, ok := listV.Seq()
	if !ok {
		return nil, newError(ErrType, "", "%s must be an array", field)
	}
	out := make([][2]value.Value, 0, len(list))
	for i, item := range list {
		m, ok := item.Map()
		if !ok || m.Len() != 1 {
			return nil, newError(ErrType, "", "%s[%d] must be a single-entry object", field, i)
		}
		k := m.Keys()[0]
		v, _ := m.Get(k)
		out = append(out, [2]value.Value{value.Str(k), v})
	}
	return out, nil
}

// matchArm interpolates each arm's key against snapshot and wildcard-matches
// it against text, returning the first hit in declaration order.
func matchArm(snapshot *value.Map, armList [][2]value.Value, text string, ctx *loadctx.Context) (val value.Value, caps []string, matched bool) {
	for _, a := range armList {
		keyStr, _ := a[0].String()
		resolved, err := interp.Interpolate(snapshot, keyStr, ctx)
		if err != nil {
			continue
		}
		pattern, ok := resolved.Stringify()
		if !ok {
			continue
		}
		if c, ok := wildcard.Match(pattern, text); ok {
			return a[1], c, true
		}
	}
	return value.Value{}, nil, false
}

func bindCaptures(inserts *value.Map, caps []string) *value.Map {
	scratch := inserts.Clone()
	for i, c := range caps {
		scratch.Set(strconv.Itoa(i+1), value.Str(c))
	}
	return scratch
}

func (e *Engine) cmdGotoMap(state *program.State, snapshot *value.Map, task *value.Map) (Outcome, error) {
	textRaw, err := requireString(task, "text", "goto_map")
	if err != nil {
		return Outcome{}, err
	}
	armList, err := arms(task, "target_maps")
	if err != nil {
		return Outcome{}, err
	}

	text := "NULL"
	if resolved, ierr := interp.Interpolate(snapshot, textRaw, e.LoadCtx); ierr == nil {
		if s, ok := resolved.Stringify(); ok {
			text = s
		}
	}

	val, caps, matched := matchArm(snapshot, armList, text, e.LoadCtx)
	if !matched {
		return Outcome{}, newError(ErrFatal, "", "goto_map: no arm matches %q", text)
	}
	valStr, ok := val.String()
	if !ok {
		return Outcome{}, newError(ErrType, "", "goto_map arm value must be a string")
	}
	scratch := bindCaptures(snapshot, caps)
	resolved, err := interp.Interpolate(scratch, valStr, e.LoadCtx)
	if err != nil {
		return Outcome{}, err
	}
	target, ok := resolved.Stringify()
	if !ok {
		return Outcome{}, newError(ErrType, "", "goto_map arm value resolved to a non-stringifiable value")
	}
	if target == "CONTINUE" {
		return Outcome{}, nil
	}
	return Outcome{Kind: OutcomeGoto, Target: target}, nil
}

func (e *Engine) cmdReplaceMap(state *program.State, snapshot *value.Map, task *value.Map) (Outcome, error) {
	item, _ := task.Get("item")
	armList, err := arms(task, "wildcard_maps")
	if err != nil {
		return Outcome{}, err
	}
	name, err := requireString(task, "output_name", "replace_map")
	if err != nil {
		return Outcome{}, err
	}
	repeat := false
	if v, ok := task.Get("repeat_until_done"); ok {
		repeat, _ = v.Bool()
	}

	out, err := e.replaceMapWalk(snapshot, item, armList, repeat)
	if err != nil {
		return Outcome{}, err
	}
	state.Inserts.Set(name, out)
	return Outcome{}, nil
}

func (e *Engine) replaceMapWalk(snapshot *value.Map, v value.Value, armList [][2]value.Value, repeat bool) (value.Value, error) {
	switch v.Kind() {
	case value.KindString:
		s, _ := v.String()
		out, err := e.replaceMapString(snapshot, s, armList, repeat)
		if err != nil {
			return value.Value{}, err
		}
		return value.Str(out), nil
	case value.KindSeq:
		items, _ := v.Seq()
		out := make([]value.Value, len(items))
		for i, it := range items {
			nv, err := e.replaceMapWalk(snapshot, it, armList, repeat)
			if err != nil {
				return value.Value{}, err
			}
			out[i] = nv
		}
		return value.Seq(out), nil
	case value.KindMap:
		m, _ := v.Map()
		out := value.NewMap()
		for _, k := range m.Keys() {
			newKey, err := e.replaceMapString(snapshot, k, armList, repeat)
			if err != nil {
				return value.Value{}, err
			}
			val, _ := m.Get(k)
			nv, err := e.replaceMapWalk(snapshot, val, armList, repeat)
			if err != nil {
				return value.Value{}, err
			}
			out.Set(newKey, nv)
		}
		return value.MapV(out), nil
	default:
		return v, nil
	}
}

func (e *Engine) replaceMapString(snapshot *value.Map, s string, armList [][2]value.Value, repeat bool) (string, error) {
	cur := s
	for {
		text := "NULL"
		nullMode := false
		resolved, ierr := interp.Interpolate(snapshot, cur, e.LoadCtx)
		if ierr == nil {
			if sv, ok := resolved.Stringify(); ok {
				text = sv
			}
		} else {
			nullMode = true
		}

		val, caps, matched := matchArm(snapshot, armList, text, e.LoadCtx)
		if !matched {
			if nullMode {
				return "", newError(ErrFatal, "", "replace_map: interpolation failed and no NULL arm for %q", cur)
			}
			return cur, nil
		}
		valStr, ok := val.String()
		if !ok {
			return "", newError(ErrType, "", "replace_map arm value must be a string")
		}
		scratch := bindCaptures(snapshot, caps)
		replaced, err := interp.Interpolate(scratch, valStr, e.LoadCtx)
		if err != nil {
			return "", err
		}
		next, ok := replaced.Stringify()
		if !ok {
			return "", newError(ErrType, "", "replace_map arm value resolved to a non-stringifiable value")
		}
		if !repeat || next == cur {
			return next, nil
		}
		cur = next
	}
}

func (e *Engine) cmdDelete(state *program.State, task *value.Map, except bool) (Outcome, error) {
	listV, _ := task.Get("wildcards")
	list, ok := listV.Seq()
	if !ok {
		return Outcome{}, newError(ErrType, "", "wildcards must be an array")
	}
	patterns := make([]string, len(list))
	for i, p := range list {
		s, ok := p.String()
		if !ok {
			return Outcome{}, newError(ErrType, "", "wildcards[%d] must be a string", i)
		}
		patterns[i] = s
	}

	for _, k := range append([]string(nil), state.Inserts.Keys()...) {
		matches := false
		for _, p := range patterns {
			if _, ok := wildcard.Match(p, k); ok {
				matches = true
				break
			}
		}
		if matches != except {
			state.Inserts.Delete(k)
		}
	}
	return Outcome{}, nil
}
