package value

import "sort"

// FromAny converts a generic decoded structure (as produced by yaml.v3's
// Unmarshal into interface{}, or json.Unmarshal into interface{}) into a
// Value tree. A plain Go map carries no key order: map[string]any keys come
// out sorted, map[any]any keys in Go's map iteration order. Any type not
// listed below (an *Map included) converts to null.
func FromAny(x any) Value {
	switch t := x.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(t)
	case string:
		return Str(t)
	case int:
		return Int(int64(t))
	case int64:
		return Int(t)
	case float64:
		return Float(t)
	case float32:
		return Float(float64(t))
	case []any:
		items := make([]Value, len(t))
		for i, it := range t {
			items[i] = FromAny(it)
		}
		return Seq(items)
	case map[string]any:
		m := NewMap()
		for _, k := range sortedKeysForMapAny(t) {
			m.Set(k, FromAny(t[k]))
		}
		return MapV(m)
	case map[any]any:
		m := NewMap()
		for k, v := range t {
			ks, _ := k.(string)
			m.Set(ks, FromAny(v))
		}
		return MapV(m)
	default:
		return Null()
	}
}

// sortedKeysForMapAny gives a deterministic (if not insertion-preserving)
// order for a plain map[string]any, used only as a last-resort fallback
// when the caller didn't decode through the order-preserving yaml.Node
// path (see internal/program for that path).
func sortedKeysForMapAny(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// insertion order is unavailable from a plain Go map; callers that
	// need stable order should decode through yaml.Node instead.
	sort.Strings(keys)
	return keys
}
