package program

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tillfalko/interpolation-engine/internal/value"
)

func writeProgram(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.tsk.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write program: %v", err)
	}
	return path
}

func TestLoadInjectsLineNumbers(t *testing.T) {
	path := writeProgram(t, `
default_state:
  inserts: {}
order:
  - cmd: "print"
    text: "hello"
  - cmd: "sleep"
    seconds: 1
named_tasks: {}
save_states: {}
`)
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(p.Order) != 2 {
		t.Fatalf("Order len = %d, want 2", len(p.Order))
	}
	first, _ := p.Order[0].Map()
	lv, ok := first.Get("line")
	if !ok {
		t.Fatal("expected line field to be injected")
	}
	if n, _ := lv.Int64(); n != 5 {
		t.Errorf("line = %d, want 5", n)
	}
	second, _ := p.Order[1].Map()
	lv2, _ := second.Get("line")
	if n, _ := lv2.Int64(); n != 7 {
		t.Errorf("line = %d, want 7", n)
	}
}

func TestLoadRenamesLegacyTasksField(t *testing.T) {
	path := writeProgram(t, `
default_state:
  inserts: {}
order: []
tasks:
  greet:
    - cmd: "print"
      text: "hi"
save_states: {}
`)
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !p.NamedTasks.Has("greet") {
		t.Error("expected legacy 'tasks' field to be renamed to named_tasks")
	}
}

func TestLoadPreservesInsertKeyOrder(t *testing.T) {
	path := writeProgram(t, `
default_state:
  inserts:
    zebra: 1
    apple: 2
    mango: 3
order: []
named_tasks: {}
save_states: {}
`)
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	inserts, ok := p.DefaultState.Get("inserts")
	if !ok {
		t.Fatal("expected inserts field")
	}
	m, _ := inserts.Map()
	got := m.Keys()
	want := []string{"zebra", "apple", "mango"}
	if len(got) != len(want) {
		t.Fatalf("keys = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("keys[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestNewStateClonesDefaultInserts(t *testing.T) {
	def := value.NewMap()
	inserts := value.NewMap()
	inserts.Set("name", value.Str("Ada"))
	def.Set("inserts", value.MapV(inserts))

	s := NewState(def)
	inserts.Set("name", value.Str("mutated"))

	v, _ := s.Inserts.Get("name")
	got, _ := v.String()
	if got != "Ada" {
		t.Errorf("State.Inserts should be a clone; got %q after mutating source", got)
	}
}

func TestCloneDeepCopiesSubIndexAndCounter(t *testing.T) {
	s := NewState(nil)
	s.SubIndex["root/for:3"] = 2
	s.Counter["root/for:3"] = 5

	clone := s.Clone()
	clone.SubIndex["root/for:3"] = 9
	clone.Counter["root/for:3"] = 99

	if s.SubIndex["root/for:3"] != 2 {
		t.Error("mutating clone's SubIndex should not affect the original")
	}
	if s.Counter["root/for:3"] != 5 {
		t.Error("mutating clone's Counter should not affect the original")
	}
}

func TestLoadRejectsNonObjectTopLevel(t *testing.T) {
	path := writeProgram(t, `- just
- a
- list
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for non-object top-level program")
	}
}
