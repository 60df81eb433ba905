package filter

import "testing"

func TestOutputFilterNoMarkersPassthrough(t *testing.T) {
	f := NewOutputFilter("", "", false)
	emitted := f.Feed("hello world")
	if emitted != "hello world" {
		t.Errorf("got %q", emitted)
	}
	if got := f.Outputs(); len(got) != 1 || got[0] != "hello world" {
		t.Errorf("got %v", got)
	}
}

func TestOutputFilterSingleBracketedOutput(t *testing.T) {
	f := NewOutputFilter("<<<", ">>>", false)
	var visible string
	visible += f.Feed("preamble <<<answer one>>> trailer")
	if visible != "answer one" {
		t.Errorf("visible = %q, want %q", visible, "answer one")
	}
	outs := f.Outputs()
	if len(outs) != 1 || outs[0] != "answer one" {
		t.Errorf("outputs = %v", outs)
	}
}

func TestOutputFilterMarkerSplitAcrossFeeds(t *testing.T) {
	// "before <<< bracketed text >>> after" fed in chunks that split both
	// markers mid-sequence; no marker fragment should ever leak into the
	// visible output regardless of where the chunk boundaries fall.
	f := NewOutputFilter("<<<", ">>>", false)
	var visible string
	visible += f.Feed("before <<")
	visible += f.Feed("< bracketed text >")
	visible += f.Feed(">> after")
	for _, marker := range []string{"<", ">"} {
		if containsRune(visible, marker) {
			t.Errorf("visible output %q leaked a marker fragment", visible)
		}
	}
	outs := f.Outputs()
	if len(outs) != 1 || outs[0] != "bracketed text" {
		t.Errorf("got %v", outs)
	}
}

func containsRune(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}

func TestOutputFilterEnumeratesMultipleOutputs(t *testing.T) {
	f := NewOutputFilter("<<<", ">>>", true)
	visible := f.Feed("<<<first>>> mid <<<second>>>")
	if visible != "first\n\n2. second" {
		t.Errorf("got %q", visible)
	}
	outs := f.Outputs()
	if len(outs) != 2 || outs[0] != "first" || outs[1] != "second" {
		t.Errorf("got %v", outs)
	}
}

func TestInvertedFilterHidesBracketedRegion(t *testing.T) {
	f := NewInvertedFilter("<think>", "</think>")
	visible := f.Feed("before <think>secret</think> after")
	if visible != "before  after" {
		t.Errorf("got %q", visible)
	}
}

func TestInvertedFilterNoMarkersPassthrough(t *testing.T) {
	f := NewInvertedFilter("", "")
	visible := f.Feed("plain text")
	if visible != "plain text" {
		t.Errorf("got %q", visible)
	}
}
