package interp

import "github.com/tillfalko/interpolation-engine/internal/value"

// ExtractInsertKeys walks a Value, yielding every top-level interpolation
// key that appears in any string or map key. Nested `{…{…}…}` groups
// contribute only the outermost key; escaped braces never produce a key.
func ExtractInsertKeys(v value.Value) []string {
	var out []string
	var walk func(value.Value)
	walk = func(v value.Value) {
		switch v.Kind() {
		case value.KindString:
			s, _ := v.String()
			out = append(out, FindTopLevelGroups(s)...)
		case value.KindSeq:
			items, _ := v.Seq()
			for _, it := range items {
				walk(it)
			}
		case value.KindMap:
			m, _ := v.Map()
			for _, k := range m.Keys() {
				out = append(out, FindTopLevelGroups(k)...)
				val, _ := m.Get(k)
				walk(val)
			}
		}
	}
	walk(v)
	return out
}
