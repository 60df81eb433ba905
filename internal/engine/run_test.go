package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/tillfalko/interpolation-engine/internal/ioface"
	"github.com/tillfalko/interpolation-engine/internal/program"
	"github.com/tillfalko/interpolation-engine/internal/value"
)

// scriptedChannel answers UserChoice/UserInput from fixed queues and
// records everything Print writes, so saveMenu/loadMenu can be driven
// without a real terminal or agent protocol.
type scriptedChannel struct {
	choices []int
	inputs  []string
	printed strings.Builder
}

func (c *scriptedChannel) Print(text string) { c.printed.WriteString(text) }
func (c *scriptedChannel) Clear()             {}

func (c *scriptedChannel) UserInput(ctx context.Context, prompt string) (string, error) {
	v := c.inputs[0]
	c.inputs = c.inputs[1:]
	return v, nil
}

func (c *scriptedChannel) UserChoice(ctx context.Context, description string, choices []string) (int, error) {
	v := c.choices[0]
	c.choices = c.choices[1:]
	return v, nil
}

func (c *scriptedChannel) ShowInserts(ctx context.Context, pretty string) error { return nil }
func (c *scriptedChannel) PollMenu() ioface.MenuAction                         { return ioface.MenuNone }

func newTestEngine(ch ioface.Channel) *Engine {
	p := &program.Program{
		DefaultState: value.NewMap(),
		NamedTasks:   value.NewMap(),
		SaveStates:   value.NewMap(),
	}
	return &Engine{Program: p, IO: ch}
}

func TestSaveMenuPicksSlotAndLabelFromChannel(t *testing.T) {
	ch := &scriptedChannel{choices: []int{2}, inputs: []string{"checkpoint"}}
	e := newTestEngine(ch)
	state := program.NewState(e.Program.DefaultState)
	state.OrderIndex = 5
	state.SubIndex["root/for:1"] = 3

	if err := e.saveMenu(context.Background(), state); err != nil {
		t.Fatalf("saveMenu: %v", err)
	}

	cur := program.NewState(e.Program.DefaultState)
	loaded, ok := e.Program.LoadSlot("3", cur)
	if !ok {
		t.Fatal("expected slot 3 to be populated by saveMenu")
	}
	if loaded.OrderIndex != 5 {
		t.Errorf("OrderIndex = %d, want 5", loaded.OrderIndex)
	}
	if loaded.SubIndex["root/for:1"] != 3 {
		t.Errorf("SubIndex[root/for:1] = %d, want 3", loaded.SubIndex["root/for:1"])
	}
	if !strings.Contains(ch.printed.String(), "checkpoint") {
		t.Errorf("expected the chosen label to be echoed back, got %q", ch.printed.String())
	}
}

func TestSaveMenuDefaultsLabelToExistingSlotLabel(t *testing.T) {
	ch := &scriptedChannel{choices: []int{0}, inputs: []string{""}}
	e := newTestEngine(ch)
	seed := program.NewState(e.Program.DefaultState)
	e.Program.SaveSlot("1", "original", seed)

	state := program.NewState(e.Program.DefaultState)
	if err := e.saveMenu(context.Background(), state); err != nil {
		t.Fatalf("saveMenu: %v", err)
	}

	cur := program.NewState(e.Program.DefaultState)
	loaded, ok := e.Program.LoadSlot("1", cur)
	if !ok {
		t.Fatal("expected slot 1 to remain populated")
	}
	if _, ok := loaded.Inserts.Get("label"); ok {
		t.Error("label is not an insert, should not be set on Inserts")
	}
	v, _ := e.Program.SaveStates.Get("1")
	m, _ := v.Map()
	lv, _ := m.Get("label")
	got, _ := lv.String()
	if got != "original" {
		t.Errorf("label = %q, want the preserved default %q", got, "original")
	}
}

func TestLoadMenuRefusesEmptySlot(t *testing.T) {
	ch := &scriptedChannel{choices: []int{4}}
	e := newTestEngine(ch)
	state := program.NewState(e.Program.DefaultState)
	state.OrderIndex = 9

	if err := e.loadMenu(context.Background(), state); err != nil {
		t.Fatalf("loadMenu: %v", err)
	}
	if state.OrderIndex != 9 {
		t.Error("loading an empty slot must not mutate the in-flight state")
	}
	if !strings.Contains(ch.printed.String(), "Cannot load empty slot") {
		t.Errorf("expected an empty-slot refusal message, got %q", ch.printed.String())
	}
}
