package execlog

import "testing"

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAppendAndListByRun(t *testing.T) {
	s := openTestStore(t)

	line := int64(12)
	if err := s.AppendTaskStart("run-1", "root", "print", &line, nil); err != nil {
		t.Fatalf("append task_start: %v", err)
	}
	detail := "order_index=3"
	if err := s.AppendEvent("run-1", "root", "menu_save", &detail); err != nil {
		t.Fatalf("append event: %v", err)
	}
	if err := s.AppendTaskStart("run-2", "root", "sleep", nil, nil); err != nil {
		t.Fatalf("append task_start for other run: %v", err)
	}

	entries, err := s.ListByRun("run-1")
	if err != nil {
		t.Fatalf("list by run: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].Cmd != "print" || entries[0].Event != "task_start" {
		t.Errorf("entries[0] = %+v, want cmd=print event=task_start", entries[0])
	}
	if entries[1].Event != "menu_save" {
		t.Errorf("entries[1].Event = %q, want menu_save", entries[1].Event)
	}
}
