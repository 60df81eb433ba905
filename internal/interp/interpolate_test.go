package interp

import (
	"testing"

	"github.com/tillfalko/interpolation-engine/internal/value"
)

func TestInterpolateSimpleKeyIdentity(t *testing.T) {
	inserts := value.NewMap()
	inserts.Set("xs", value.Seq([]value.Value{value.Int(1), value.Int(2)}))
	v, err := Interpolate(inserts, "{xs}", nil)
	if err != nil {
		t.Fatalf("Interpolate: %v", err)
	}
	if v.Kind() != value.KindSeq {
		t.Fatalf("simple key interpolation should return the raw value unchanged, got kind %v", v.Kind())
	}
}

func TestInterpolateSplicedString(t *testing.T) {
	inserts := value.NewMap()
	inserts.Set("name", value.Str("Ada"))
	v, err := Interpolate(inserts, "hello {name}!", nil)
	if err != nil {
		t.Fatalf("Interpolate: %v", err)
	}
	s, ok := v.String()
	if !ok || s != "hello Ada!" {
		t.Errorf("got %v, want %q", v, "hello Ada!")
	}
}

func TestInterpolateNestedAlias(t *testing.T) {
	inserts := value.NewMap()
	inserts.Set("alias", value.Str("name"))
	inserts.Set("name", value.Str("Grace"))
	v, err := Interpolate(inserts, "{{alias}}", nil)
	if err != nil {
		t.Fatalf("Interpolate: %v", err)
	}
	s, ok := v.String()
	if !ok || s != "Grace" {
		t.Errorf("got %v, want Grace", v)
	}
}

func TestInterpolateUnknownKeyErrors(t *testing.T) {
	inserts := value.NewMap()
	if _, err := Interpolate(inserts, "{missing}", nil); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestEscapeRoundTrip(t *testing.T) {
	inserts := value.NewMap()
	v, err := Interpolate(inserts, `\{A\}`, nil)
	if err != nil {
		t.Fatalf("Interpolate: %v", err)
	}
	s, ok := v.String()
	if !ok || s != "{A}" {
		t.Errorf("got %q, want %q", s, "{A}")
	}
}

func TestRecursiveEscapeUnescapeRoundTrip(t *testing.T) {
	v := value.Str("{literal} braces")
	escaped := RecursiveEscape(v)
	s, _ := escaped.String()
	if s != `\{literal\} braces` {
		t.Fatalf("got %q", s)
	}
	back := RecursiveUnescape(escaped)
	s2, _ := back.String()
	if s2 != "{literal} braces" {
		t.Fatalf("round trip got %q", s2)
	}
}

func TestGetSimpleInsertKey(t *testing.T) {
	key, ok := GetSimpleInsertKey("{foo}")
	if !ok || key != "foo" {
		t.Fatalf("got %q, %v", key, ok)
	}
	if _, ok := GetSimpleInsertKey("prefix {foo}"); ok {
		t.Fatal("expected not-simple for text with a prefix")
	}
}

func TestRecursiveInterpolateSkipsGotoMap(t *testing.T) {
	inserts := value.NewMap()
	task := value.NewMap()
	task.Set("cmd", value.Str("goto_map"))
	task.Set("input", value.Str("{unresolvable}"))
	out := RecursiveInterpolate(inserts, value.MapV(task), nil)
	m, ok := out.Map()
	if !ok {
		t.Fatal("expected map result")
	}
	v, _ := m.Get("input")
	s, _ := v.String()
	if s != "{unresolvable}" {
		t.Errorf("goto_map fields should pass through unresolved, got %q", s)
	}
}
