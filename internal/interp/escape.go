package interp

import (
	"strings"

	"github.com/tillfalko/interpolation-engine/internal/value"
)

// RecursiveEscape walks a value and turns every literal `{`/`}` into the
// two-character escape `\{`/`\}`, in strings, map keys, and nested
// structures. Used to make file-loaded insert content immune to further
// interpolation.
func RecursiveEscape(v value.Value) value.Value { return walkEscape(v, true) }

// RecursiveUnescape is RecursiveEscape's inverse: `\{`/`\}` become bare
// braces everywhere.
func RecursiveUnescape(v value.Value) value.Value { return walkEscape(v, false) }

func walkEscape(v value.Value, escape bool) value.Value {
	switch v.Kind() {
	case value.KindString:
		s, _ := v.String()
		return value.Str(transformEscape(s, escape))
	case value.KindSeq:
		items, _ := v.Seq()
		out := make([]value.Value, len(items))
		for i, it := range items {
			out[i] = walkEscape(it, escape)
		}
		return value.Seq(out)
	case value.KindMap:
		m, _ := v.Map()
		out := value.NewMap()
		for _, k := range m.Keys() {
			val, _ := m.Get(k)
			out.Set(transformEscape(k, escape), walkEscape(val, escape))
		}
		return value.MapV(out)
	default:
		return v
	}
}

func transformEscape(s string, escape bool) string {
	if escape {
		var b strings.Builder
		for _, r := range s {
			switch r {
			case '{':
				b.WriteString(`\{`)
			case '}':
				b.WriteString(`\}`)
			default:
				b.WriteRune(r)
			}
		}
		return b.String()
	}
	var b strings.Builder
	rs := []rune(s)
	for i := 0; i < len(rs); i++ {
		if rs[i] == '\\' && i+1 < len(rs) && (rs[i+1] == '{' || rs[i+1] == '}') {
			b.WriteRune(rs[i+1])
			i++
			continue
		}
		b.WriteRune(rs[i])
	}
	return b.String()
}
