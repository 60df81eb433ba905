package program

import (
	"strconv"

	"github.com/tillfalko/interpolation-engine/internal/value"
)

// Splicer rewrites a program file's save_states object in place, leaving
// everything else (including comments) untouched. It is an external
// collaborator with a minimal contract — the core interpreter only needs
// to call it after a menu Save; the splicing strategy itself (diffing
// source text vs. a naive full rewrite) is not part of the core engine.
type Splicer interface {
	SpliceSaveStates(path string, saveStates *value.Map) error
}

// SlotSummary describes one of the nine save slots for menu display,
// mirroring the original interpreter's collect_slots: an occupied slot
// reports its label, an unused one reports as an empty slot so the menu
// can show a fixed nine-entry picker every time.
type SlotSummary struct {
	Slot  string
	Label string
	Empty bool
}

// CollectSlots returns a fixed nine-entry summary of save slots "1".."9".
func (p *Program) CollectSlots() []SlotSummary {
	slots := make([]SlotSummary, 9)
	for i := range slots {
		slot := strconv.Itoa(i + 1)
		slots[i] = SlotSummary{Slot: slot, Label: "(Empty Slot)", Empty: true}
		v, ok := p.SaveStates.Get(slot)
		if !ok {
			continue
		}
		m, ok := v.Map()
		if !ok {
			continue
		}
		label := "(Unlabelled Slot)"
		if lv, ok := m.Get("label"); ok {
			if s, ok := lv.String(); ok {
				label = s
			}
		}
		slots[i] = SlotSummary{Slot: slot, Label: label}
	}
	return slots
}

// SaveSlot records the current State under slot (a string "1".."9")
// together with the label the player was at when they saved. The full
// State is snapshotted — Inserts, OrderIndex, and every serial/for
// frame's SubIndex and Counter — so a save taken mid-frame resumes that
// frame instead of re-entering it from the top.
func (p *Program) SaveSlot(slot, label string, s *State) {
	snapshot := value.NewMap()
	snapshot.Set("label", value.Str(label))
	snapshot.Set("inserts", value.MapV(s.Inserts.Clone()))
	snapshot.Set("order_index", value.Int(int64(s.OrderIndex)))
	snapshot.Set("sub_index", intMapToValue(s.SubIndex))
	snapshot.Set("counter", intMapToValue(s.Counter))
	p.SaveStates.Set(slot, value.MapV(snapshot))
}

// LoadSlot restores a previously saved slot into a fresh State, preserving
// any ARG* keys currently held by cur (startup arguments survive reload).
func (p *Program) LoadSlot(slot string, cur *State) (*State, bool) {
	v, ok := p.SaveStates.Get(slot)
	if !ok {
		return nil, false
	}
	saved, ok := v.Map()
	if !ok {
		return nil, false
	}
	next := NewState(p.DefaultState)
	if insertsV, ok := saved.Get("inserts"); ok {
		if m, ok := insertsV.Map(); ok {
			next.Inserts = m.Clone()
		}
	}
	if oi, ok := saved.Get("order_index"); ok {
		if i, ok := oi.Int64(); ok {
			next.OrderIndex = int(i)
		}
	}
	if si, ok := saved.Get("sub_index"); ok {
		next.SubIndex = valueToIntMap(si)
	}
	if c, ok := saved.Get("counter"); ok {
		next.Counter = valueToIntMap(c)
	}
	preserveArgs(next.Inserts, cur.Inserts)
	return next, true
}

func intMapToValue(m map[string]int) value.Value {
	out := value.NewMap()
	for k, v := range m {
		out.Set(k, value.Int(int64(v)))
	}
	return value.MapV(out)
}

func valueToIntMap(v value.Value) map[string]int {
	out := map[string]int{}
	m, ok := v.Map()
	if !ok {
		return out
	}
	for _, k := range m.Keys() {
		iv, ok := m.Get(k)
		if !ok {
			continue
		}
		if i, ok := iv.Int64(); ok {
			out[k] = int(i)
		}
	}
	return out
}

func preserveArgs(dst, src *value.Map) {
	if src == nil {
		return
	}
	for _, k := range src.Keys() {
		if isArgKey(k) {
			v, _ := src.Get(k)
			dst.Set(k, v)
		}
	}
}

func isArgKey(key string) bool {
	if len(key) <= 3 || key[:3] != "ARG" {
		return false
	}
	for _, r := range key[3:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
