package analyzer

import (
	"strconv"

	"github.com/tillfalko/interpolation-engine/internal/value"
	"github.com/tillfalko/interpolation-engine/internal/wildcard"
)

// checkStructural implements every rule in the structural-rules list:
// target_maps/wildcard_maps shape, goto/goto_map target resolution
// against the enclosing sibling list, static wildcard pre-matching,
// list_index/list_slice literal bounds, random_choice emptiness,
// for.name_list_map shape agreement, list_concat element shape, and
// voice_path disk probing.
func (a *analyzer) checkStructural(m *value.Map, cmd, scopeLabel string, siblingLabels map[string]bool) {
	switch cmd {
	case "goto":
		a.checkGotoTarget(m, scopeLabel, siblingLabels, "name")
	case "goto_map":
		a.checkArmList(m, cmd, scopeLabel, "target_maps", true)
		a.checkGotoMapStatic(m, scopeLabel)
	case "replace_map":
		a.checkArmList(m, cmd, scopeLabel, "wildcard_maps", false)
	case "list_index":
		a.checkIndexBounds(m, scopeLabel, "index")
	case "list_slice":
		a.checkIndexBounds(m, scopeLabel, "from_index")
		a.checkIndexBounds(m, scopeLabel, "to_index")
	case "random_choice":
		a.checkNonEmptyList(m, scopeLabel, "list")
	case "for":
		a.checkForShape(m, scopeLabel)
	case "list_concat":
		a.checkListConcatShape(m, scopeLabel)
	case "speak":
		a.checkVoicePath(m, scopeLabel, "voice_path")
	case "chat":
		if _, ok := m.Get("voice_path"); ok {
			a.checkVoicePath(m, scopeLabel, "voice_path")
		}
	}
}

func (a *analyzer) checkGotoTarget(m *value.Map, scopeLabel string, siblingLabels map[string]bool, field string) {
	s, ok := getStr(m, field)
	if !ok || !isLiteral(s) || s == "CONTINUE" {
		return
	}
	if siblingLabels != nil && !siblingLabels[s] {
		a.report(m, scopeLabel, "goto target %q not found in sibling list %q", s, scopeLabel)
	}
}

// checkArmList validates goto_map.target_maps / replace_map.wildcard_maps:
// an array of single-entry {pattern: value} objects, string-valued (or a
// simple interpolation). requireNonEmpty is set for target_maps only.
func (a *analyzer) checkArmList(m *value.Map, cmd, scopeLabel, field string, requireNonEmpty bool) {
	v, ok := m.Get(field)
	if !ok {
		return
	}
	items, ok := v.Seq()
	if !ok {
		a.report(m, scopeLabel, "%s.%s must be an array", cmd, field)
		return
	}
	if requireNonEmpty && len(items) == 0 {
		a.report(m, scopeLabel, "%s.%s must be non-empty", cmd, field)
	}
	for _, it := range items {
		am, ok := it.Map()
		if !ok || am.Len() != 1 {
			a.report(m, scopeLabel, "%s.%s entries must be single-entry {pattern: value} objects", cmd, field)
			continue
		}
		val, _ := am.Get(am.Keys()[0])
		if val.Kind() != value.KindString {
			a.report(m, scopeLabel, "%s.%s arm value must be a string or a simple interpolation", cmd, field)
		}
	}
}

func valueString(v value.Value) string {
	s, _ := v.String()
	return s
}

// checkGotoMapStatic attempts the wildcard match at analysis time when
// both goto_map.text and every target_maps key are literal: if no arm
// matches and no literal "NULL" arm exists, that's a diagnostic (the
// run would otherwise fail with an unrecovered interpolation/match
// error at that exact point).
func (a *analyzer) checkGotoMapStatic(m *value.Map, scopeLabel string) {
	text, ok := getStr(m, "text")
	if !ok || !isLiteral(text) {
		return
	}
	tmV, ok := m.Get("target_maps")
	if !ok {
		return
	}
	items, ok := tmV.Seq()
	if !ok {
		return
	}
	hasNull := false
	matched := false
	for _, it := range items {
		am, ok := it.Map()
		if !ok || am.Len() != 1 {
			return // shape diagnostic already reported elsewhere
		}
		key := am.Keys()[0]
		if key == "NULL" {
			hasNull = true
		}
		if !isLiteral(key) {
			return // can't resolve statically once any key needs interpolation
		}
		if _, ok := wildcard.Match(key, text); ok {
			matched = true
		}
	}
	if !matched && !hasNull {
		a.report(m, scopeLabel, "goto_map.text %q matches no target_maps arm and no NULL arm exists", text)
	}
}

func (a *analyzer) checkIndexBounds(m *value.Map, scopeLabel, field string) {
	iv, ok := m.Get(field)
	if !ok {
		return
	}
	n, isInt := iv.Int64()
	if !isInt {
		return // not a literal integer; can't check statically
	}
	if n == 0 {
		a.report(m, scopeLabel, "%s must not be 0 (1-based indexing)", field)
		return
	}
	lv, ok := m.Get("list")
	if !ok {
		return
	}
	items, ok := lv.Seq()
	if !ok {
		return // list itself isn't statically known
	}
	length := int64(len(items))
	abs := n
	if abs < 0 {
		abs = -abs
	}
	if abs > length {
		a.report(m, scopeLabel, "%s %d is out of bounds for a list of length %d", field, n, length)
	}
}

func (a *analyzer) checkNonEmptyList(m *value.Map, scopeLabel, field string) {
	v, ok := m.Get(field)
	if !ok {
		return
	}
	items, ok := v.Seq()
	if !ok {
		return
	}
	if len(items) == 0 {
		a.report(m, scopeLabel, "%s must not be a statically empty list", field)
	}
}

func (a *analyzer) checkForShape(m *value.Map, scopeLabel string) {
	v, ok := m.Get("name_list_map")
	if !ok {
		return
	}
	nlm, ok := v.Map()
	if !ok {
		return
	}
	length := -1
	for _, k := range nlm.Keys() {
		val, _ := nlm.Get(k)
		if val.Kind() == value.KindString {
			if _, simple := simpleKey(valueString(val)); !simple {
				a.report(m, scopeLabel, "for.name_list_map[%q] must be an array or a simple interpolation", k)
			}
			continue // a simple interpolation's runtime shape can't be checked here
		}
		items, ok := val.Seq()
		if !ok {
			a.report(m, scopeLabel, "for.name_list_map[%q] must be an array or a simple interpolation", k)
			continue
		}
		if length == -1 {
			length = len(items)
		} else if length != len(items) {
			a.report(m, scopeLabel, "for.name_list_map lists have mismatched static lengths")
		}
	}
}

func (a *analyzer) checkListConcatShape(m *value.Map, scopeLabel string) {
	v, ok := m.Get("lists")
	if !ok {
		return
	}
	items, ok := v.Seq()
	if !ok {
		return
	}
	for i, it := range items {
		if it.Kind() == value.KindSeq {
			continue
		}
		if it.Kind() == value.KindString {
			if _, simple := simpleKey(valueString(it)); simple {
				continue
			}
		}
		a.report(m, scopeLabel, "list_concat.lists[%s] must be an array or a simple interpolation", strconv.Itoa(i))
	}
}

func (a *analyzer) checkVoicePath(m *value.Map, scopeLabel, field string) {
	s, ok := getStr(m, field)
	if !ok || !isLiteral(s) {
		return
	}
	if err := probeVoicePath(s); err != nil {
		a.report(m, scopeLabel, "%s %q: %v", field, s, err)
	}
}
