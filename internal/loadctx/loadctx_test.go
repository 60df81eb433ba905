package loadctx

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func TestNewWithoutInsertsDirHasNoKeys(t *testing.T) {
	c, err := New(t.TempDir(), "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()
	if c.HasKey("anything") {
		t.Error("a directory-less context should never report a key present")
	}
	if len(c.Keys()) != 0 {
		t.Error("expected no keys")
	}
}

func TestNewScansExistingFilesAndJSON5Stems(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "name"), "Ada")
	mustWrite(t, filepath.Join(dir, "profile.json5"), `{greeting:"hi"}`)

	c, err := New(t.TempDir(), dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	if !c.HasKey("name") {
		t.Error("expected 'name' to be a reachable key")
	}
	if !c.HasKey("profile") {
		t.Error("expected 'profile.json5' to contribute the stem key 'profile'")
	}
	if c.HasKey("profile.json5") {
		t.Error("the literal filename (with extension) should not itself be a key")
	}

	keys := c.Keys()
	sort.Strings(keys)
	want := []string{"name", "profile"}
	if len(keys) != len(want) {
		t.Fatalf("Keys() = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("Keys()[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestHasKeyFallsBackToDirectStatWhenUnscanned(t *testing.T) {
	dir := t.TempDir()
	c, err := New(t.TempDir(), dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	// Write a file after the initial scan without forcing a rescan: HasKey
	// must still find it via the direct-stat fallback.
	mustWrite(t, filepath.Join(dir, "late"), "arrived")
	if !c.HasKey("late") {
		t.Error("expected HasKey to fall back to a direct stat for a file added after the initial scan")
	}
}

func TestFilePathResolutionOrder(t *testing.T) {
	dir := t.TempDir()
	c, err := New(t.TempDir(), dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	json5Path, plainPath := c.FilePath("widget")
	if filepath.Base(json5Path) != "widget.json5" {
		t.Errorf("json5Path = %q, want basename widget.json5", json5Path)
	}
	if filepath.Base(plainPath) != "widget" {
		t.Errorf("plainPath = %q, want basename widget", plainPath)
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}
