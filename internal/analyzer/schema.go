package analyzer

import "github.com/tillfalko/interpolation-engine/internal/value"

// fieldKind is the coarse field-type vocabulary the per-command schema
// table checks against; "any" skips type checking entirely (used for
// fields the command itself type-switches on at runtime).
type fieldKind int

const (
	kAny fieldKind = iota
	kString
	kNumber
	kIntOrString
	kArray
	kObject
	kArrayOfObjects
)

type fieldSpec struct {
	name     string
	required bool
	kind     fieldKind
}

// commandSchema lists every field a command's minimal contract names,
// per the per-command required-fields table; fields not listed here are
// simply not schema-checked (e.g. chat's reserved optional knobs).
var commandSchema = map[string][]fieldSpec{
	"print":         {{"text", true, kString}},
	"clear":         {},
	"sleep":         {{"seconds", true, kNumber}},
	"set":           {{"item", true, kAny}, {"output_name", true, kString}},
	"unescape":      {{"item", true, kAny}, {"output_name", true, kString}},
	"write":         {{"item", true, kAny}, {"path", true, kString}},
	"show_inserts":  {},
	"random_choice": {{"list", true, kArray}, {"output_name", true, kString}},
	"list_join":     {{"list", true, kArray}, {"before", true, kString}, {"between", true, kString}, {"after", true, kString}, {"output_name", true, kString}},
	"list_concat":   {{"lists", true, kArray}, {"output_name", true, kString}},
	"list_append":   {{"list", true, kArray}, {"item", true, kAny}, {"output_name", true, kString}},
	"list_remove":   {{"list", true, kArray}, {"item", true, kAny}, {"output_name", true, kString}},
	"list_index":    {{"list", true, kArray}, {"index", true, kIntOrString}, {"output_name", true, kString}},
	"list_slice":    {{"list", true, kArray}, {"from_index", true, kIntOrString}, {"to_index", true, kIntOrString}, {"output_name", true, kString}},
	"user_input":    {{"prompt", true, kString}, {"output_name", true, kString}},
	"user_choice":   {{"list", true, kArray}, {"description", true, kString}, {"output_name", true, kString}},
	"await_insert":  {{"name", true, kString}},
	"label":         {{"name", true, kString}},
	"goto":          {{"name", true, kString}},
	"goto_map":      {{"text", true, kString}, {"target_maps", true, kArrayOfObjects}},
	"replace_map":   {{"item", true, kAny}, {"output_name", true, kString}, {"wildcard_maps", true, kArrayOfObjects}},
	"for":           {{"name_list_map", true, kObject}, {"tasks", true, kArray}},
	"serial":        {{"tasks", true, kArray}},
	"parallel_wait": {{"tasks", true, kArray}},
	"parallel_race": {{"tasks", true, kArray}},
	"run_task":      {{"task_name", true, kString}},
	"delete":        {{"wildcards", true, kArray}},
	"delete_except": {{"wildcards", true, kArray}},
	"math":          {{"input", true, kString}, {"output_name", true, kString}},
	"chat":          {{"messages", true, kArray}, {"output_name", true, kString}},
	"speak":         {{"text", true, kString}, {"voice_path", true, kString}},
}

func (a *analyzer) checkSchema(m *value.Map, cmd, scopeLabel string) {
	specs, known := commandSchema[cmd]
	if !known {
		a.report(m, scopeLabel, "unknown command %q", cmd)
		return
	}
	for _, spec := range specs {
		v, present := m.Get(spec.name)
		if !present {
			a.report(m, scopeLabel, "%s requires field %q", cmd, spec.name)
			continue
		}
		if spec.kind == kAny {
			continue
		}
		if !a.fieldMatchesKind(v, spec.kind) {
			a.report(m, scopeLabel, "%s.%s does not resolve to the expected type", cmd, spec.name)
		}
	}
}

// staticScalar resolves v to the value an execution would see, as far as
// that's determinable statically: a literal simple interpolation {K} is
// looked up against default inserts; everything else (including any
// interpolation the analyzer can't resolve without running) passes
// through unchanged so the caller can still recognize its literal Kind.
func (a *analyzer) staticScalar(v value.Value) value.Value {
	s, ok := v.String()
	if !ok {
		return v
	}
	key, simple := simpleKey(s)
	if !simple {
		return v
	}
	if iv, ok := a.prog.DefaultState.Get("inserts"); ok {
		if m, ok := iv.Map(); ok {
			if resolved, ok := m.Get(key); ok {
				return resolved
			}
		}
	}
	return v
}

func (a *analyzer) fieldMatchesKind(v value.Value, kind fieldKind) bool {
	resolved := a.staticScalar(v)
	switch kind {
	case kString:
		if resolved.Kind() == value.KindString {
			return true
		}
		// An unresolved interpolation (not a literal, not a default-inserts
		// hit) is given the benefit of the doubt: its runtime type is
		// unknowable until execution.
		return isUnresolvable(v)
	case kNumber:
		if resolved.Kind() == value.KindNumber {
			return true
		}
		return isUnresolvable(v)
	case kIntOrString:
		if resolved.Kind() == value.KindNumber || resolved.Kind() == value.KindString {
			return true
		}
		return isUnresolvable(v)
	case kArray:
		if resolved.Kind() == value.KindSeq {
			return true
		}
		return isUnresolvable(v)
	case kObject:
		if resolved.Kind() == value.KindMap {
			return true
		}
		return isUnresolvable(v)
	case kArrayOfObjects:
		if resolved.Kind() == value.KindSeq {
			items, _ := resolved.Seq()
			for _, it := range items {
				if it.Kind() != value.KindMap {
					return false
				}
			}
			return true
		}
		return isUnresolvable(v)
	}
	return true
}

// isUnresolvable reports whether v is a string the analyzer cannot check
// further: it is not itself a string literal that failed typing outright,
// but rather spliced text or a key that isn't in default inserts.
func isUnresolvable(v value.Value) bool {
	s, ok := v.String()
	if !ok {
		return false
	}
	_, simple := simpleKey(s)
	return simple || len(topLevelGroupsOf(s)) > 0
}
