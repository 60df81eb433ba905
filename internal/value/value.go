// Package value implements the dynamic, JSON-like value model tasks and
// inserts are built from: null, bool, number, string, ordered map, and
// sequence. A Task is a Map with the convention that a "cmd" key holds a
// string.
package value

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind tags which alternative a Value holds.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindMap
	KindSeq
)

// Value is the tagged variant every insert, task field, and sub-value is
// built from. Zero value is KindNull.
type Value struct {
	kind Kind
	b    bool
	n    float64
	isInt bool
	s    string
	m    *Map
	seq  []Value
}

func Null() Value { return Value{kind: KindNull} }

func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

func Int(i int64) Value { return Value{kind: KindNumber, n: float64(i), isInt: true} }

func Float(f float64) Value {
	v := Value{kind: KindNumber, n: f}
	v.isInt = f == float64(int64(f))
	return v
}

func Str(s string) Value { return Value{kind: KindString, s: s} }

func Seq(items []Value) Value { return Value{kind: KindSeq, seq: items} }

func MapV(m *Map) Value { return Value{kind: KindMap, m: m} }

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) Bool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

func (v Value) Number() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.n, true
}

// Int64 returns the value as an integer, true only if the value is a number
// with no fractional part.
func (v Value) Int64() (int64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return int64(v.n), v.isInt
}

func (v Value) String() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

func (v Value) Map() (*Map, bool) {
	if v.kind != KindMap {
		return nil, false
	}
	return v.m, true
}

func (v Value) Seq() ([]Value, bool) {
	if v.kind != KindSeq {
		return nil, false
	}
	return v.seq, true
}

// Stringify renders a Value the way interpolation splices it into text:
// numbers canonically, arrays by concatenating stringified elements,
// objects and null are not representable and return ok=false.
func (v Value) Stringify() (string, bool) {
	switch v.kind {
	case KindString:
		return v.s, true
	case KindNumber:
		if v.isInt {
			return strconv.FormatInt(int64(v.n), 10), true
		}
		return strconv.FormatFloat(v.n, 'g', -1, 64), true
	case KindBool:
		return strconv.FormatBool(v.b), true
	case KindSeq:
		var sb strings.Builder
		for _, item := range v.seq {
			s, ok := item.Stringify()
			if !ok {
				return "", false
			}
			sb.WriteString(s)
		}
		return sb.String(), true
	default:
		return "", false
	}
}

// Equal reports deep equality, used by list_remove's item comparison.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		return a.n == b.n
	case KindString:
		return a.s == b.s
	case KindSeq:
		if len(a.seq) != len(b.seq) {
			return false
		}
		for i := range a.seq {
			if !Equal(a.seq[i], b.seq[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if a.m.Len() != b.m.Len() {
			return false
		}
		for _, k := range a.m.Keys() {
			av, _ := a.m.Get(k)
			bv, ok := b.m.Get(k)
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	}
	return false
}

// Clone returns a deep copy; tasks are copied on entry to execution so
// interpolation never mutates the program's stored value.
func (v Value) Clone() Value {
	switch v.kind {
	case KindSeq:
		out := make([]Value, len(v.seq))
		for i, item := range v.seq {
			out[i] = item.Clone()
		}
		return Seq(out)
	case KindMap:
		return MapV(v.m.Clone())
	default:
		return v
	}
}

func (v Value) GoString() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		s, _ := v.Stringify()
		return s
	case KindString:
		return fmt.Sprintf("%q", v.s)
	case KindSeq:
		parts := make([]string, len(v.seq))
		for i, item := range v.seq {
			parts[i] = item.GoString()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindMap:
		keys := append([]string(nil), v.m.Keys()...)
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			val, _ := v.m.Get(k)
			parts = append(parts, fmt.Sprintf("%q: %s", k, val.GoString()))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return "?"
}
