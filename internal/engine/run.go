package engine

import (
	"context"
	"fmt"

	"github.com/tillfalko/interpolation-engine/internal/ioface"
	"github.com/tillfalko/interpolation-engine/internal/program"
)

// Run drives RunOrder to completion, handling the menu-driven save/load/
// reload suspension described in the concurrency design: runSiblingList
// cooperatively checks for a pending menu action at the top-level scope
// and returns early (as a cancellation) so Run can apply it and resume
// from the just-persisted cursor.
func (e *Engine) Run(ctx context.Context, state *program.State) error {
	for {
		err := e.RunOrder(ctx, state)
		if err != nil && !IsCancelled(err) {
			return err
		}

		action := e.IO.PollMenu()
		switch action {
		case ioface.MenuSave:
			if serr := e.saveMenu(ctx, state); serr != nil && !IsCancelled(serr) {
				return serr
			}
		case ioface.MenuLoad:
			if lerr := e.loadMenu(ctx, state); lerr != nil && !IsCancelled(lerr) {
				return lerr
			}
		case ioface.MenuReload:
			// fall through to resume RunOrder from the current cursor
		case ioface.MenuQuit:
			return nil
		default:
			if err == nil {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return nil
		default:
		}
	}
}

// saveMenu solicits a slot and a label the same way the original
// implementation's menu does (select a slot, then confirm or override
// its label) before snapshotting the whole State into it.
func (e *Engine) saveMenu(ctx context.Context, state *program.State) error {
	slots := e.Program.CollectSlots()
	idx, err := e.IO.UserChoice(ctx, "Select a save slot", slotLabels(slots))
	if err != nil {
		return err
	}
	chosen := slots[idx]
	prompt := "What do you want to call this save state?"
	defaultLabel := ""
	if !chosen.Empty {
		defaultLabel = chosen.Label
		prompt = fmt.Sprintf("What do you want to call this save state? (enter to keep %q)", defaultLabel)
	}
	label, err := e.IO.UserInput(ctx, prompt)
	if err != nil {
		return err
	}
	if label == "" {
		label = defaultLabel
	}
	e.Program.SaveSlot(chosen.Slot, label, state)
	if e.Program.SourcePath != "" {
		if serr := (program.JSON5Splicer{}).SpliceSaveStates(e.Program.SourcePath, e.Program.SaveStates); serr != nil && e.Logger != nil {
			e.Logger.Warn("save_states splice failed", "error", serr)
		}
	}
	e.IO.Print(fmt.Sprintf("Saved %q to slot %s.\n", label, chosen.Slot))
	return nil
}

// loadMenu solicits a slot to load, refusing empty slots the way the
// original's select_index/collect_slots pairing does.
func (e *Engine) loadMenu(ctx context.Context, state *program.State) error {
	slots := e.Program.CollectSlots()
	idx, err := e.IO.UserChoice(ctx, "Select a save slot to load", slotLabels(slots))
	if err != nil {
		return err
	}
	chosen := slots[idx]
	if chosen.Empty {
		e.IO.Print("Cannot load empty slot.\n")
		return nil
	}
	if next, ok := e.Program.LoadSlot(chosen.Slot, state); ok {
		*state = *next
		e.IO.Print(fmt.Sprintf("Loaded %q.\n", chosen.Label))
	}
	return nil
}

func slotLabels(slots []program.SlotSummary) []string {
	labels := make([]string, len(slots))
	for i, s := range slots {
		labels[i] = s.Label
	}
	return labels
}
