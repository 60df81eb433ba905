package program

import (
	"strings"
	"testing"

	"github.com/tillfalko/interpolation-engine/internal/value"
)

func newTestProgram() *Program {
	return &Program{
		DefaultState: value.NewMap(),
		NamedTasks:   value.NewMap(),
		SaveStates:   value.NewMap(),
	}
}

func TestSaveSlotRoundTripsSubIndexAndCounter(t *testing.T) {
	p := newTestProgram()
	s := NewState(p.DefaultState)
	s.OrderIndex = 4
	s.SubIndex["root/serial:2"] = 3
	s.Counter["root/serial:2/for:1"] = 7

	p.SaveSlot("1", "midway", s)

	cur := NewState(p.DefaultState)
	loaded, ok := p.LoadSlot("1", cur)
	if !ok {
		t.Fatal("expected slot 1 to load")
	}
	if loaded.OrderIndex != 4 {
		t.Errorf("OrderIndex = %d, want 4", loaded.OrderIndex)
	}
	if loaded.SubIndex["root/serial:2"] != 3 {
		t.Errorf("SubIndex[root/serial:2] = %d, want 3", loaded.SubIndex["root/serial:2"])
	}
	if loaded.Counter["root/serial:2/for:1"] != 7 {
		t.Errorf("Counter[root/serial:2/for:1] = %d, want 7", loaded.Counter["root/serial:2/for:1"])
	}
}

func TestSaveSlotPreservesArgsAcrossLoad(t *testing.T) {
	p := newTestProgram()
	s := NewState(p.DefaultState)
	p.SaveSlot("1", "root", s)

	cur := NewState(p.DefaultState)
	cur.Inserts.Set("ARG1", value.Str("startup"))
	loaded, ok := p.LoadSlot("1", cur)
	if !ok {
		t.Fatal("expected slot 1 to load")
	}
	v, ok := loaded.Inserts.Get("ARG1")
	if !ok {
		t.Fatal("expected ARG1 to survive a load")
	}
	got, _ := v.String()
	if got != "startup" {
		t.Errorf("ARG1 = %q, want %q", got, "startup")
	}
}

func TestCollectSlotsReportsNineEntriesWithEmptyDefault(t *testing.T) {
	p := newTestProgram()
	s := NewState(p.DefaultState)
	p.SaveSlot("3", "checkpoint", s)

	slots := p.CollectSlots()
	if len(slots) != 9 {
		t.Fatalf("len(slots) = %d, want 9", len(slots))
	}
	for i, slot := range slots {
		if i == 2 {
			if slot.Empty || slot.Label != "checkpoint" {
				t.Errorf("slot 3 = %+v, want occupied with label 'checkpoint'", slot)
			}
			continue
		}
		if !slot.Empty || slot.Label != "(Empty Slot)" {
			t.Errorf("slot %d = %+v, want empty", i+1, slot)
		}
	}
}

func TestLoadSlotRejectsUnknownSlot(t *testing.T) {
	p := newTestProgram()
	cur := NewState(p.DefaultState)
	if _, ok := p.LoadSlot("9", cur); ok {
		t.Error("expected an unoccupied slot to fail to load")
	}
}

func TestSpliceKeyIntoJSON5PreservesSurroundingText(t *testing.T) {
	source := `{
  // a leading comment
  default_state: {},
  save_states: {
    "1": {label: "old"}
  },
  order: []
}
`
	saved := value.NewMap()
	slot := value.NewMap()
	slot.Set("label", value.Str("new"))
	saved.Set("1", value.MapV(slot))

	out, err := spliceKeyIntoJSON5(source, "save_states", value.MapV(saved), 4)
	if err != nil {
		t.Fatalf("spliceKeyIntoJSON5: %v", err)
	}
	if !strings.Contains(out, "a leading comment") {
		t.Error("expected the comment outside save_states to survive the splice")
	}
	if !strings.Contains(out, `"new"`) {
		t.Error("expected the new label to appear in the spliced output")
	}
	if strings.Contains(out, `"old"`) {
		t.Error("expected the old label to be gone after the splice")
	}
	if !strings.Contains(out, "order: []") {
		t.Error("expected content after save_states to survive the splice")
	}
}
