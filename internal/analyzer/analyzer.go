// Package analyzer implements the static pre-flight validator: given a
// fully loaded program it walks order and every named_tasks entry and
// reports a diagnostic for every schema violation, structural rule
// violation, unreachable interpolation key, or unbalanced brace group it
// finds, without ever executing a task. Grounded in the same value/program
// model the engine runs against so the two stay in lockstep; wildcard
// matching and interpolation key extraction are reused as-is from
// internal/wildcard and internal/interp rather than reimplemented.
package analyzer

import (
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/tillfalko/interpolation-engine/internal/interp"
	"github.com/tillfalko/interpolation-engine/internal/loadctx"
	"github.com/tillfalko/interpolation-engine/internal/program"
	"github.com/tillfalko/interpolation-engine/internal/value"
	"github.com/tillfalko/interpolation-engine/internal/wildcard"
)

// Diagnostic is one analyzer finding. Line and TracebackLabel are best
// effort: a task missing its injected line (e.g. synthesized at runtime)
// simply omits one.
type Diagnostic struct {
	Message        string
	TracebackLabel string
	Line           *int64
}

func (d Diagnostic) String() string {
	if d.Line != nil {
		return "line " + strconv.FormatInt(*d.Line, 10) + ": " + d.Message
	}
	return d.Message
}

type analyzer struct {
	prog       *program.Program
	ctx        *loadctx.Context
	staticKeys map[string]bool // default inserts + every output_name/for-binding/capture key in the program
	diags      []Diagnostic
}

// Analyze runs every check named in the static analysis design and
// returns the accumulated diagnostics (nil/empty means the program is
// clean). ctx may be nil if the program has no configured inserts
// directory.
func Analyze(p *program.Program, ctx *loadctx.Context) []Diagnostic {
	a := &analyzer{prog: p, ctx: ctx, staticKeys: map[string]bool{}}
	a.collectStaticKeys()

	a.checkSiblingList(p.Order, "root")
	for _, name := range p.NamedTasks.Keys() {
		v, _ := p.NamedTasks.Get(name)
		a.checkTask(v, "named_tasks."+name, nil)
	}
	return a.diags
}

func (a *analyzer) report(task *value.Map, label, format string, args ...any) {
	d := Diagnostic{Message: fmt.Sprintf(format, args...), TracebackLabel: label}
	if task != nil {
		if lv, ok := task.Get("line"); ok {
			if l, ok := lv.Int64(); ok {
				d.Line = &l
			}
		}
	}
	a.diags = append(a.diags, d)
}

// collectStaticKeys gathers every key the reachability check treats as
// "producible somewhere in the program": default_state.inserts, every
// output_name value, every for.name_list_map binding name. Positional
// captures ("1".."n") are recognized structurally rather than collected
// here, since they are pure digit strings.
func (a *analyzer) collectStaticKeys() {
	if inserts, ok := a.prog.DefaultState.Get("inserts"); ok {
		if m, ok := inserts.Map(); ok {
			for _, k := range m.Keys() {
				a.staticKeys[k] = true
			}
		}
	}
	var walk func(value.Value)
	walk = func(v value.Value) {
		switch v.Kind() {
		case value.KindSeq:
			items, _ := v.Seq()
			for _, it := range items {
				walk(it)
			}
		case value.KindMap:
			m, _ := v.Map()
			cmd := cmdOf(m)
			if out, ok := m.Get("output_name"); ok {
				if s, ok := out.String(); ok {
					a.staticKeys[s] = true
				}
			}
			if cmd == "for" {
				if nlmV, ok := m.Get("name_list_map"); ok {
					if nlm, ok := nlmV.Map(); ok {
						for _, name := range nlm.Keys() {
							a.staticKeys[name] = true
						}
					}
				}
			}
			for _, k := range m.Keys() {
				val, _ := m.Get(k)
				walk(val)
			}
		}
	}
	for _, t := range a.prog.Order {
		walk(t)
	}
	for _, name := range a.prog.NamedTasks.Keys() {
		v, _ := a.prog.NamedTasks.Get(name)
		walk(v)
	}
}

func cmdOf(m *value.Map) string {
	if v, ok := m.Get("cmd"); ok {
		s, _ := v.String()
		return s
	}
	return ""
}

// checkSiblingList validates label uniqueness within tasks, then checks
// each task (passing the list's label set down for goto resolution) and
// recurses into any nested sibling list (serial/for/parallel_*.tasks).
func (a *analyzer) checkSiblingList(tasks []value.Value, scopeLabel string) {
	labels := map[string]bool{}
	var dupReported map[string]bool
	for _, t := range tasks {
		m, ok := t.Map()
		if !ok {
			continue
		}
		if cmdOf(m) != "label" {
			continue
		}
		name, _ := getStr(m, "name")
		if name == "" {
			continue
		}
		if labels[name] {
			if dupReported == nil {
				dupReported = map[string]bool{}
			}
			if !dupReported[name] {
				a.report(m, scopeLabel, "duplicate label %q in sibling list %q", name, scopeLabel)
				dupReported[name] = true
			}
			continue
		}
		labels[name] = true
	}

	for _, t := range tasks {
		a.checkTask(t, scopeLabel, labels)
	}
}

func getStr(m *value.Map, key string) (string, bool) {
	v, ok := m.Get(key)
	if !ok {
		return "", false
	}
	return v.String()
}

// isLiteral reports whether v is a plain string containing no unescaped
// interpolation brace — the analyzer can only resolve goto targets and
// wildcard arms statically when they are literal.
func isLiteral(s string) bool {
	return len(interp.FindTopLevelGroups(s)) == 0
}

func (a *analyzer) checkTask(t value.Value, scopeLabel string, siblingLabels map[string]bool) {
	m, ok := t.Map()
	if !ok {
		a.report(nil, scopeLabel, "task in %q is not an object", scopeLabel)
		return
	}
	cmd := cmdOf(m)
	if cmd == "" {
		a.report(m, scopeLabel, "task in %q is missing cmd", scopeLabel)
		return
	}

	a.checkSchema(m, cmd, scopeLabel)
	a.checkStructural(m, cmd, scopeLabel, siblingLabels)
	a.checkBraceBalance(m, scopeLabel)
	a.checkReachability(m, cmd, scopeLabel)

	switch cmd {
	case "serial", "parallel_wait", "parallel_race", "for":
		if tv, ok := m.Get("tasks"); ok {
			if items, ok := tv.Seq(); ok {
				childScope := scopeLabel + "/" + cmd
				if cmd == "parallel_wait" || cmd == "parallel_race" {
					for _, it := range items {
						if cm, ok := it.Map(); ok {
							if c := cmdOf(cm); c == "goto" || c == "goto_map" {
								a.report(cm, childScope, "%s is not allowed inside %s", c, cmd)
							}
						}
					}
				}
				a.checkSiblingList(items, childScope)
			}
		}
	}
}

func (a *analyzer) checkBraceBalance(m *value.Map, scopeLabel string) {
	var walk func(value.Value)
	walk = func(v value.Value) {
		switch v.Kind() {
		case value.KindString:
			s, _ := v.String()
			if _, err := interp.Interpolate(value.NewMap(), s, nil); err != nil {
				if ie, ok := err.(*interp.Error); ok && ie.Kind == interp.ErrUnevenBraces {
					a.report(m, scopeLabel, "unbalanced interpolation braces in %q", s)
				}
			}
		case value.KindSeq:
			items, _ := v.Seq()
			for _, it := range items {
				walk(it)
			}
		case value.KindMap:
			mm, _ := v.Map()
			if mm == m {
				for _, k := range mm.Keys() {
					if k == "tasks" || k == "cmd" || k == "line" || k == "traceback_label" {
						continue
					}
					val, _ := mm.Get(k)
					walk(val)
				}
				return
			}
			for _, k := range mm.Keys() {
				val, _ := mm.Get(k)
				walk(val)
			}
		}
	}
	walk(value.MapV(m))
}

func probeVoicePath(path string) error {
	st, err := os.Stat(path)
	if err != nil {
		return err
	}
	if st.IsDir() {
		return os.ErrInvalid
	}
	return nil
}

// keyMatchesAny reports whether extracted key (which may itself contain a
// `*` if it came from a wildcarded insert reference) can resolve against
// the known-keys set, expanding `*` to `.*` in either direction per the
// reachability rule.
func keyMatchesAny(key string, known map[string]bool) bool {
	if known[key] {
		return true
	}
	covers := func(pattern, s string) bool {
		re, err := regexp.Compile(wildcard.ExpandToRegexSource(pattern))
		return err == nil && re.MatchString(s)
	}
	for k := range known {
		if containsStar(key) && covers(key, k) {
			return true
		}
		if containsStar(k) && covers(k, key) {
			return true
		}
	}
	return false
}

func containsStar(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == '*' {
			return true
		}
	}
	return false
}
