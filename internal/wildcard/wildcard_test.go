package wildcard

import (
	"reflect"
	"regexp"
	"testing"
)

func TestMatchNoWildcard(t *testing.T) {
	caps, ok := Match("hello", "hello")
	if !ok || len(caps) != 0 {
		t.Fatalf("got %v, %v", caps, ok)
	}
	if _, ok := Match("hello", "hellox"); ok {
		t.Fatal("expected no match")
	}
}

func TestMatchSingleWildcard(t *testing.T) {
	caps, ok := Match("foo*bar", "foo123bar")
	if !ok {
		t.Fatal("expected match")
	}
	if !reflect.DeepEqual(caps, []string{"123"}) {
		t.Errorf("got %v", caps)
	}
}

func TestMatchLeadingTrailingWildcard(t *testing.T) {
	caps, ok := Match("*quit*", "please quit now")
	if !ok {
		t.Fatal("expected match")
	}
	if len(caps) != 2 || caps[0] != "please " || caps[1] != " now" {
		t.Errorf("got %v", caps)
	}
}

func TestMatchMultipleWildcardsGreedyBacktrack(t *testing.T) {
	caps, ok := Match("*-*", "a-b-c")
	if !ok {
		t.Fatal("expected match")
	}
	// greedy: first capture takes as much as possible while still matching
	if !reflect.DeepEqual(caps, []string{"a-b", "c"}) {
		t.Errorf("got %v", caps)
	}
}

func TestMatchEmptyWildcard(t *testing.T) {
	caps, ok := Match("*", "")
	if !ok || len(caps) != 1 || caps[0] != "" {
		t.Errorf("got %v, %v", caps, ok)
	}
}

func TestExpandToRegexSource(t *testing.T) {
	src := ExpandToRegexSource("foo.*bar*")
	re, err := regexp.Compile(src)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !re.MatchString("foo.*barbaz") {
		t.Errorf("expected regex %q to match literal-dot-star text", src)
	}
	if re.MatchString("fooXbarbaz") {
		t.Errorf("regex %q should not match when literal dot isn't present", src)
	}
}
