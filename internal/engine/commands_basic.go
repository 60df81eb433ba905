package engine

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tillfalko/interpolation-engine/internal/interp"
	"github.com/tillfalko/interpolation-engine/internal/matheval"
	"github.com/tillfalko/interpolation-engine/internal/program"
	"github.com/tillfalko/interpolation-engine/internal/value"
)

func unescapeText(s string) string {
	v := interp.RecursiveUnescape(value.Str(s))
	out, _ := v.String()
	return out
}

func (e *Engine) cmdPrint(state *program.State, task *value.Map) (Outcome, error) {
	text, err := requireString(task, "text", "print")
	if err != nil {
		return Outcome{}, err
	}
	text = unescapeText(text)
	state.Output.WriteString(text)
	e.IO.Print(text)
	return Outcome{}, nil
}

func (e *Engine) cmdClear(state *program.State) (Outcome, error) {
	state.Output.Reset()
	e.IO.Clear()
	return Outcome{}, nil
}

func (e *Engine) cmdSleep(ctx context.Context, snapshot *value.Map, task *value.Map) (Outcome, error) {
	var seconds float64
	if v, ok := task.Get("seconds"); ok {
		if n, ok := v.Number(); ok {
			seconds = n
		} else if s, ok := v.String(); ok {
			n, err := matheval.Eval(snapshot, s, e.LoadCtx)
			if err != nil {
				return Outcome{}, err
			}
			seconds = float64(n)
		}
	}
	if seconds <= 0 {
		return Outcome{}, nil
	}
	timer := time.NewTimer(time.Duration(seconds * float64(time.Second)))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return Outcome{}, ErrCancelled
	case <-timer.C:
		return Outcome{}, nil
	}
}

func (e *Engine) cmdSet(state *program.State, task *value.Map) (Outcome, error) {
	item, _ := task.Get("item")
	name, err := requireString(task, "output_name", "set")
	if err != nil {
		return Outcome{}, err
	}
	state.Inserts.Set(name, item)
	return Outcome{}, nil
}

func (e *Engine) cmdUnescape(state *program.State, task *value.Map) (Outcome, error) {
	item, _ := task.Get("item")
	name, err := requireString(task, "output_name", "unescape")
	if err != nil {
		return Outcome{}, err
	}
	unescaped := interp.RecursiveUnescape(item)
	reinterpolated := interp.RecursiveInterpolate(state.Inserts, unescaped, e.LoadCtx)
	state.Inserts.Set(name, reinterpolated)
	return Outcome{}, nil
}

func (e *Engine) cmdWrite(state *program.State, task *value.Map) (Outcome, error) {
	item, _ := task.Get("item")
	path, err := requireString(task, "path", "write")
	if err != nil {
		return Outcome{}, err
	}
	resolved, err := e.resolveWritePath(path)
	if err != nil {
		return Outcome{}, err
	}
	dir := filepath.Dir(resolved)
	if st, err := os.Stat(dir); err != nil || !st.IsDir() {
		return Outcome{}, newError(ErrIO, "", "write: parent directory %q does not exist", dir)
	}
	if st, err := os.Stat(resolved); err == nil && st.IsDir() {
		return Outcome{}, newError(ErrIO, "", "write: target %q is a directory", resolved)
	}

	unescaped := interp.RecursiveUnescape(item)
	var content string
	switch unescaped.Kind() {
	case value.KindString:
		content, _ = unescaped.String()
	case value.KindNumber, value.KindBool:
		content, _ = unescaped.Stringify()
	default:
		data, err := json.MarshalIndent(toJSONAny(unescaped), "", "  ")
		if err != nil {
			return Outcome{}, newError(ErrIO, "", "write: marshal json: %v", err)
		}
		content = string(data)
	}
	if err := os.WriteFile(resolved, []byte(content), 0644); err != nil {
		return Outcome{}, newError(ErrIO, "", "write: %v", err)
	}
	return Outcome{}, nil
}

func (e *Engine) resolveWritePath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", newError(ErrIO, "", "write: resolve home dir: %v", err)
		}
		path = filepath.Join(home, path[2:])
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(e.ProgramDir, path)
	}
	return path, nil
}

func toJSONAny(v value.Value) any {
	switch v.Kind() {
	case value.KindNull:
		return nil
	case value.KindBool:
		b, _ := v.Bool()
		return b
	case value.KindNumber:
		n, _ := v.Number()
		return n
	case value.KindString:
		s, _ := v.String()
		return s
	case value.KindSeq:
		items, _ := v.Seq()
		out := make([]any, len(items))
		for i, it := range items {
			out[i] = toJSONAny(it)
		}
		return out
	case value.KindMap:
		m, _ := v.Map()
		out := map[string]any{}
		for _, k := range m.Keys() {
			val, _ := m.Get(k)
			out[k] = toJSONAny(val)
		}
		return out
	}
	return nil
}

func (e *Engine) cmdShowInserts(ctx context.Context, state *program.State) (Outcome, error) {
	pretty := prettyPrintMap(state.Inserts, 0)
	if err := e.IO.ShowInserts(ctx, pretty); err != nil {
		return Outcome{}, err
	}
	return Outcome{}, nil
}

func prettyPrintMap(m *value.Map, indent int) string {
	var b strings.Builder
	pad := strings.Repeat("  ", indent)
	for _, k := range m.Keys() {
		v, _ := m.Get(k)
		b.WriteString(pad)
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(prettyPrintValue(v, indent))
		b.WriteString("\n")
	}
	return b.String()
}

func prettyPrintValue(v value.Value, indent int) string {
	switch v.Kind() {
	case value.KindMap:
		m, _ := v.Map()
		return "\n" + prettyPrintMap(m, indent+1)
	case value.KindSeq:
		items, _ := v.Seq()
		parts := make([]string, len(items))
		for i, it := range items {
			parts[i] = prettyPrintValue(it, indent)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		s, ok := v.Stringify()
		if !ok {
			return "null"
		}
		return s
	}
}
