package value

// Map is an insertion-ordered string-keyed map. Iteration order is
// observable behavior in several commands (for's zipped bindings,
// target_maps/wildcard_maps arm order, show_inserts pretty-printing), so
// every map in this codebase goes through Map rather than a plain Go map.
type Map struct {
	keys   []string
	values map[string]Value
}

func NewMap() *Map {
	return &Map{values: make(map[string]Value)}
}

func (m *Map) Get(key string) (Value, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Set inserts or updates key. New keys are appended to the end of the
// iteration order; existing keys keep their original position.
func (m *Map) Set(key string, v Value) {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

func (m *Map) Delete(key string) {
	if _, exists := m.values[key]; !exists {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

func (m *Map) Has(key string) bool {
	_, ok := m.values[key]
	return ok
}

// Keys returns the keys in insertion order. Callers must not mutate it.
func (m *Map) Keys() []string {
	return m.keys
}

func (m *Map) Len() int {
	return len(m.keys)
}

func (m *Map) Clone() *Map {
	out := NewMap()
	for _, k := range m.keys {
		out.Set(k, m.values[k].Clone())
	}
	return out
}

// Merge overlays other on top of m, returning a new Map. Keys present in
// both keep m's position but other's value.
func (m *Map) Merge(other *Map) *Map {
	out := m.Clone()
	if other == nil {
		return out
	}
	for _, k := range other.keys {
		v, _ := other.Get(k)
		out.Set(k, v.Clone())
	}
	return out
}
