package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestManagerLoadMergesProjectOverUser(t *testing.T) {
	userDir := t.TempDir()
	projectDir := t.TempDir()

	mustWrite(t, filepath.Join(userDir, "settings.json"), `{"api_url":"https://user.example","model":"user-model"}`)
	mustWrite(t, filepath.Join(projectDir, ".tscript", "settings.json"), `{"model":"project-model"}`)

	m := NewManager()
	if err := m.Load(userDir, projectDir); err != nil {
		t.Fatalf("Load: %v", err)
	}

	cfg := m.Get()
	if cfg.APIURL != "https://user.example" {
		t.Errorf("APIURL = %q, want user value to survive", cfg.APIURL)
	}
	if cfg.Model != "project-model" {
		t.Errorf("Model = %q, want project override", cfg.Model)
	}
}

func TestManagerLoadDefaultsWhenFilesMissing(t *testing.T) {
	m := NewManager()
	if err := m.Load(t.TempDir(), t.TempDir()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg := m.Get()
	if cfg.APIURL != "https://api.openai.com" {
		t.Errorf("APIURL = %q, want default", cfg.APIURL)
	}
	if cfg.Model != "gpt-4o-mini" {
		t.Errorf("Model = %q, want default", cfg.Model)
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}
