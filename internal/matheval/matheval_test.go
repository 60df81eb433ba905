package matheval

import (
	"testing"

	"github.com/tillfalko/interpolation-engine/internal/value"
)

func inserts(pairs ...any) *value.Map {
	m := value.NewMap()
	for i := 0; i+1 < len(pairs); i += 2 {
		m.Set(pairs[i].(string), pairs[i+1].(value.Value))
	}
	return m
}

func TestEvalLengthOfList(t *testing.T) {
	xs := value.Seq([]value.Value{value.Int(1), value.Int(2), value.Int(3), value.Int(4)})
	m := inserts("xs", xs)
	n, err := Eval(m, "length(xs) + 1", nil)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if n != 5 {
		t.Errorf("got %d, want 5", n)
	}
}

func TestEvalMinMax(t *testing.T) {
	xs := value.Seq([]value.Value{value.Int(1), value.Int(2), value.Int(3), value.Int(4)})
	m := inserts("xs", xs)
	n, err := Eval(m, "min(xs)", nil)
	if err != nil || n != 1 {
		t.Fatalf("min(xs) = %d, %v, want 1", n, err)
	}
	n, err = Eval(m, "max(1,2,3)", nil)
	if err != nil || n != 3 {
		t.Fatalf("max(1,2,3) = %d, %v, want 3", n, err)
	}
}

func TestEvalEmptyListError(t *testing.T) {
	xs := value.Seq(nil)
	m := inserts("xs", xs)
	_, err := Eval(m, "min(xs)", nil)
	if err == nil {
		t.Fatal("expected error for min of empty list")
	}
	if me, ok := err.(*Error); !ok || me.Kind != ErrEmptyList {
		t.Errorf("got %v, want ErrEmptyList", err)
	}
}

func TestEvalNonIntegerResult(t *testing.T) {
	m := value.NewMap()
	_, err := Eval(m, "1/3", nil)
	if err == nil {
		t.Fatal("expected error for non-integer result")
	}
	if me, ok := err.(*Error); !ok || me.Kind != ErrNotInteger {
		t.Errorf("got %v, want ErrNotInteger", err)
	}
}

func TestEvalIllegalChar(t *testing.T) {
	m := value.NewMap()
	_, err := Eval(m, "1 & 2", nil)
	if err == nil {
		t.Fatal("expected error for illegal character")
	}
	if me, ok := err.(*Error); !ok || me.Kind != ErrIllegalChar {
		t.Errorf("got %v, want ErrIllegalChar", err)
	}
}

func TestEvalParensAndPrecedence(t *testing.T) {
	m := value.NewMap()
	n, err := Eval(m, "(2 + 3) * 4", nil)
	if err != nil || n != 20 {
		t.Fatalf("(2+3)*4 = %d, %v, want 20", n, err)
	}
}
