// Package program holds the Program and State data model and the loader
// that turns a JSON-with-comments program file into a Program. YAML is a
// structural superset of JSON and tolerates '#' comments, so the loader
// decodes through gopkg.in/yaml.v3's yaml.Node to preserve map key order
// (the same library and technique the teacher uses for skill frontmatter),
// rather than going through a plain map[string]any that Go cannot order.
package program

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tillfalko/interpolation-engine/internal/value"
)

// Program is a loaded, not-yet-analyzed task script.
type Program struct {
	DefaultState   *value.Map
	Order          []value.Value
	NamedTasks     *value.Map
	SaveStates     *value.Map
	CompletionArgs *value.Map

	// SourcePath is the file Program was loaded from; menu Save splices
	// save_states back into this file.
	SourcePath string
	// SourceText is the raw file text as loaded. The menu Save splice
	// re-reads SourcePath and does not use it.
	SourceText string
}

// State is the runtime mutation target, initialized from DefaultState.
type State struct {
	Inserts    *value.Map
	Output     strings.Builder
	OrderIndex int // 1-based cursor over Order

	// SubIndex keys a runtime-path label (e.g. "root/3" or "root/3/body") to
	// its own 1-based sub-cursor, so serial/for frames resume correctly
	// after save/load.
	SubIndex map[string]int
	// Counter keys a runtime-path label to a for-loop's iteration counter.
	Counter map[string]int
}

func NewState(defaultState *value.Map) *State {
	s := &State{SubIndex: map[string]int{}, Counter: map[string]int{}}
	if defaultState != nil {
		if v, ok := defaultState.Get("inserts"); ok {
			if m, ok := v.Map(); ok {
				s.Inserts = m.Clone()
			}
		}
	}
	if s.Inserts == nil {
		s.Inserts = value.NewMap()
	}
	return s
}

// Clone deep-copies a State for the save-slot snapshot.
func (s *State) Clone() *State {
	out := &State{
		Inserts:    s.Inserts.Clone(),
		OrderIndex: s.OrderIndex,
		SubIndex:   map[string]int{},
		Counter:    map[string]int{},
	}
	out.Output.WriteString(s.Output.String())
	for k, v := range s.SubIndex {
		out.SubIndex[k] = v
	}
	for k, v := range s.Counter {
		out.Counter[k] = v
	}
	return out
}

var cmdLineRe = regexp.MustCompile(`\bcmd["']?\s*:\s*"`)

// Load reads path, tolerates '#' line comments via a YAML decode, injects a
// `line: N` field next to every `cmd: "..."` occurrence (key quoted or bare)
// by scanning the raw source line by line, and renames the legacy `tasks` top-level field to
// `named_tasks`.
func Load(path string) (*Program, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read program: %w", err)
	}
	lineOf := scanCmdLines(string(raw))

	var root yaml.Node
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("parse program: %w", err)
	}
	if len(root.Content) == 0 {
		return nil, fmt.Errorf("empty program file")
	}
	doc := root.Content[0]

	top := nodeToValue(doc)
	topMap, ok := top.Map()
	if !ok {
		return nil, fmt.Errorf("program file must be a top-level object")
	}

	injectLines([]value.Value{top}, lineOf)

	if legacy, ok := topMap.Get("tasks"); ok && !topMap.Has("named_tasks") {
		topMap.Set("named_tasks", legacy)
		topMap.Delete("tasks")
	}

	p := &Program{SourcePath: path, SourceText: string(raw)}

	if v, ok := topMap.Get("default_state"); ok {
		if m, ok := v.Map(); ok {
			p.DefaultState = m
		}
	}
	if p.DefaultState == nil {
		p.DefaultState = value.NewMap()
	}
	if v, ok := topMap.Get("order"); ok {
		if seq, ok := v.Seq(); ok {
			p.Order = seq
		}
	}
	if v, ok := topMap.Get("named_tasks"); ok {
		if m, ok := v.Map(); ok {
			p.NamedTasks = m
		}
	}
	if p.NamedTasks == nil {
		p.NamedTasks = value.NewMap()
	}
	if v, ok := topMap.Get("save_states"); ok {
		if m, ok := v.Map(); ok {
			p.SaveStates = m
		}
	}
	if p.SaveStates == nil {
		p.SaveStates = value.NewMap()
	}
	if v, ok := topMap.Get("completion_args"); ok {
		if m, ok := v.Map(); ok {
			p.CompletionArgs = m
		}
	}
	if p.CompletionArgs == nil {
		p.CompletionArgs = value.NewMap()
	}

	return p, nil
}

// scanCmdLines walks src line by line, returning the 1-based line number
// of the Nth occurrence of a `cmd: "..."` pattern (key quoted or bare), in
// source order — used
// to stamp each task's `line` field for traceback messages.
func scanCmdLines(src string) []int {
	var lines []int
	sc := bufio.NewScanner(strings.NewReader(src))
	sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		if cmdLineRe.MatchString(sc.Text()) {
			lines = append(lines, lineNo)
		}
	}
	return lines
}

// injectLines walks task values in document order, consuming one entry of
// lineOf per task encountered (a task is any map with a "cmd" field), and
// sets its "line" field.
func injectLines(tasks []value.Value, lineOf []int) {
	idx := 0
	var walk func(v value.Value)
	walk = func(v value.Value) {
		switch v.Kind() {
		case value.KindMap:
			m, _ := v.Map()
			if m.Has("cmd") {
				if idx < len(lineOf) {
					m.Set("line", value.Int(int64(lineOf[idx])))
					idx++
				}
			}
			for _, k := range m.Keys() {
				val, _ := m.Get(k)
				walk(val)
			}
		case value.KindSeq:
			items, _ := v.Seq()
			for _, it := range items {
				walk(it)
			}
		}
	}
	for _, t := range tasks {
		walk(t)
	}
}

func injectLinesValue(v value.Value, lineOf []int) {
	injectLines([]value.Value{v}, lineOf)
}

// nodeToValue converts a decoded yaml.Node tree into a Value, preserving
// mapping-node key order (yaml.Node always records keys in document
// order, unlike map[string]any).
func nodeToValue(n *yaml.Node) value.Value {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return value.Null()
		}
		return nodeToValue(n.Content[0])
	case yaml.MappingNode:
		m := value.NewMap()
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i].Value
			m.Set(key, nodeToValue(n.Content[i+1]))
		}
		return value.MapV(m)
	case yaml.SequenceNode:
		items := make([]value.Value, len(n.Content))
		for i, c := range n.Content {
			items[i] = nodeToValue(c)
		}
		return value.Seq(items)
	case yaml.ScalarNode:
		return scalarToValue(n)
	case yaml.AliasNode:
		if n.Alias != nil {
			return nodeToValue(n.Alias)
		}
		return value.Null()
	}
	return value.Null()
}

func scalarToValue(n *yaml.Node) value.Value {
	switch n.Tag {
	case "!!null":
		return value.Null()
	case "!!bool":
		return value.Bool(n.Value == "true")
	case "!!int":
		var i int64
		if _, err := fmt.Sscanf(n.Value, "%d", &i); err == nil {
			return value.Int(i)
		}
		return value.Str(n.Value)
	case "!!float":
		var f float64
		if _, err := fmt.Sscanf(n.Value, "%g", &f); err == nil {
			return value.Float(f)
		}
		return value.Str(n.Value)
	default:
		return value.Str(n.Value)
	}
}
