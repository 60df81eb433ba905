package analyzer

import (
	"strings"
	"testing"

	"github.com/tillfalko/interpolation-engine/internal/program"
	"github.com/tillfalko/interpolation-engine/internal/value"
)

func task(cmd string, fields map[string]value.Value) value.Value {
	m := value.NewMap()
	m.Set("cmd", value.Str(cmd))
	for k, v := range fields {
		m.Set(k, v)
	}
	return value.MapV(m)
}

func newProgram(order []value.Value) *program.Program {
	def := value.NewMap()
	def.Set("inserts", value.MapV(value.NewMap()))
	return &program.Program{
		DefaultState: def,
		Order:        order,
		NamedTasks:   value.NewMap(),
		SaveStates:   value.NewMap(),
	}
}

func TestAnalyzeFlagsMissingRequiredField(t *testing.T) {
	p := newProgram([]value.Value{
		task("print", nil), // missing required "text"
	})
	diags := Analyze(p, nil)
	if len(diags) == 0 {
		t.Fatal("expected a diagnostic for print missing its required text field")
	}
}

func TestAnalyzeAcceptsWellFormedProgram(t *testing.T) {
	p := newProgram([]value.Value{
		task("print", map[string]value.Value{"text": value.Str("hello")}),
		task("sleep", map[string]value.Value{"seconds": value.Int(1)}),
	})
	diags := Analyze(p, nil)
	if len(diags) != 0 {
		t.Fatalf("expected no diagnostics, got %v", diags)
	}
}

func TestAnalyzeFlagsUnknownGotoTarget(t *testing.T) {
	p := newProgram([]value.Value{
		task("goto", map[string]value.Value{"name": value.Str("nowhere")}),
		task("label", map[string]value.Value{"name": value.Str("somewhere")}),
	})
	diags := Analyze(p, nil)
	found := false
	for _, d := range diags {
		if strings.Contains(d.Message, "goto target") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a goto-target diagnostic, got %v", diags)
	}
}

func TestAnalyzeAllowsContinueAsGotoTarget(t *testing.T) {
	p := newProgram([]value.Value{
		task("goto", map[string]value.Value{"name": value.Str("CONTINUE")}),
	})
	diags := Analyze(p, nil)
	for _, d := range diags {
		if strings.Contains(d.Message, "goto target") {
			t.Errorf("CONTINUE should never be flagged as an unresolved goto target, got %v", diags)
		}
	}
}

func TestAnalyzeFlagsOutOfBoundsListIndex(t *testing.T) {
	list := value.Seq([]value.Value{value.Str("a"), value.Str("b")})
	p := newProgram([]value.Value{
		task("list_index", map[string]value.Value{
			"list":        list,
			"index":       value.Int(5),
			"output_name": value.Str("x"),
		}),
	})
	diags := Analyze(p, nil)
	found := false
	for _, d := range diags {
		if strings.Contains(d.Message, "out of bounds") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an out-of-bounds diagnostic, got %v", diags)
	}
}

func TestAnalyzeFlagsUnreachableInterpolationKey(t *testing.T) {
	p := newProgram([]value.Value{
		task("print", map[string]value.Value{"text": value.Str("hello {nosuchkey}")}),
	})
	diags := Analyze(p, nil)
	found := false
	for _, d := range diags {
		if strings.Contains(d.Message, "not reachable") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an unreachable-key diagnostic, got %v", diags)
	}
}

func TestAnalyzeTreatsOutputNameAsReachable(t *testing.T) {
	p := newProgram([]value.Value{
		task("set", map[string]value.Value{"item": value.Str("hi"), "output_name": value.Str("greeting")}),
		task("print", map[string]value.Value{"text": value.Str("{greeting}")}),
	})
	diags := Analyze(p, nil)
	for _, d := range diags {
		if strings.Contains(d.Message, "not reachable") {
			t.Errorf("output_name-produced keys should be statically reachable, got %v", diags)
		}
	}
}

func TestAnalyzeFlagsDuplicateLabelsInSameScope(t *testing.T) {
	p := newProgram([]value.Value{
		task("label", map[string]value.Value{"name": value.Str("top")}),
		task("label", map[string]value.Value{"name": value.Str("top")}),
	})
	diags := Analyze(p, nil)
	found := false
	for _, d := range diags {
		if strings.Contains(d.Message, "duplicate label") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a duplicate-label diagnostic, got %v", diags)
	}
}
