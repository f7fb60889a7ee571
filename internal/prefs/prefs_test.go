package prefs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewStore_MissingFileDefaultsLight(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "prefs.yaml"))
	if s.Theme() != ThemeLight {
		t.Errorf("Theme() = %q, want light", s.Theme())
	}
}

func TestNewStore_CorruptFileDefaultsLight(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	if err := os.WriteFile(path, []byte("theme: [not a scalar"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewStore(path)
	if s.Theme() != ThemeLight {
		t.Errorf("Theme() = %q, want light", s.Theme())
	}
}

func TestToggle_PersistsAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")

	s := NewStore(path)
	theme, err := s.Toggle()
	if err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if theme != ThemeDark {
		t.Errorf("Toggle() = %q, want dark", theme)
	}

	// A fresh store sees the persisted value.
	if reloaded := NewStore(path); reloaded.Theme() != ThemeDark {
		t.Errorf("reloaded Theme() = %q, want dark", reloaded.Theme())
	}
}

func TestToggle_FlipsBack(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "prefs.yaml"))

	if theme, _ := s.Toggle(); theme != ThemeDark {
		t.Fatalf("first Toggle() = %q, want dark", theme)
	}
	if theme, _ := s.Toggle(); theme != ThemeLight {
		t.Errorf("second Toggle() = %q, want light", theme)
	}
}
