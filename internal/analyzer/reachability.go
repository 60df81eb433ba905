package analyzer

import (
	"github.com/tillfalko/interpolation-engine/internal/interp"
	"github.com/tillfalko/interpolation-engine/internal/value"
)

// checkReachability extracts every interpolation key referenced anywhere
// in task's own fields (excluding its tasks sub-tree and any nested
// task-object value) and reports one diagnostic per key that cannot
// possibly resolve: not in default inserts, not a synthetic clock key,
// not an ARG<digits> argument, not a positional capture, not a file in
// the inserts directory, and not a key produced statically elsewhere in
// the program (an output_name, a for binding name).
func (a *analyzer) checkReachability(m *value.Map, cmd, scopeLabel string) {
	for _, key := range extractTaskKeys(m) {
		if a.keyReachable(key) {
			continue
		}
		a.report(m, scopeLabel, "interpolation key %q is not reachable", key)
	}
}

func (a *analyzer) keyReachable(key string) bool {
	switch key {
	case "HH:MM", "HH:MM:SS":
		return true
	}
	if key == "" {
		return false
	}
	if isArgKey(key) {
		return true
	}
	if isDigits(key) {
		return true // a replace_map positional capture
	}
	if keyMatchesAny(key, a.staticKeys) {
		return true
	}
	if a.ctx != nil {
		for _, k := range a.ctx.Keys() {
			if k == key {
				return true
			}
		}
		if containsStar(key) {
			for _, k := range a.ctx.Keys() {
				if keyMatchesAny(key, map[string]bool{k: true}) {
					return true
				}
			}
		}
	}
	return false
}

func isArgKey(key string) bool {
	if len(key) < 4 || key[:3] != "ARG" {
		return false
	}
	return isDigits(key[3:])
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// extractTaskKeys walks m's own fields (skipping cmd/line/traceback_label
// and the tasks sub-tree entirely), extracting interpolation keys from
// every string and map key, but not descending into a nested value that
// is itself a task object (has its own cmd field) — those are visited on
// their own turn by the sibling-list walk.
func extractTaskKeys(m *value.Map) []string {
	var out []string
	var walk func(value.Value)
	walk = func(v value.Value) {
		switch v.Kind() {
		case value.KindString:
			s, _ := v.String()
			out = append(out, interp.FindTopLevelGroups(s)...)
		case value.KindSeq:
			items, _ := v.Seq()
			for _, it := range items {
				walk(it)
			}
		case value.KindMap:
			mm, _ := v.Map()
			if mm != m && mm.Has("cmd") {
				return
			}
			for _, k := range mm.Keys() {
				if mm == m && (k == "cmd" || k == "line" || k == "traceback_label" || k == "tasks") {
					continue
				}
				out = append(out, interp.FindTopLevelGroups(k)...)
				val, _ := mm.Get(k)
				walk(val)
			}
		}
	}
	walk(value.MapV(m))
	return out
}
