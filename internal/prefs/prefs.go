// Package prefs persists user preferences across restarts. Currently only
// the display theme; stored as a small YAML file read once at startup and
// rewritten on change.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Theme is the display theme preference.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

type prefsFile struct {
	Theme Theme `yaml:"theme"`
}

// Store holds preferences in memory and mirrors changes to disk. Disk write
// failures are returned but leave the in-memory value applied, so a
// read-only filesystem degrades persistence, not behavior.
type Store struct {
	path string

	mu    sync.RWMutex
	theme Theme
}

// NewStore loads preferences from path, defaulting to the light theme when
// the file is missing or unreadable.
func NewStore(path string) *Store {
	s := &Store{path: path, theme: ThemeLight}

	data, err := os.ReadFile(path)
	if err != nil {
		return s
	}

	var pf prefsFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return s
	}
	if pf.Theme == ThemeDark {
		s.theme = ThemeDark
	}
	return s
}

// Theme returns the active theme.
func (s *Store) Theme() Theme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme
}

// Toggle flips the theme and persists it, returning the new value.
func (s *Store) Toggle() (Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.theme == ThemeLight {
		s.theme = ThemeDark
	} else {
		s.theme = ThemeLight
	}
	return s.theme, s.writeLocked()
}

func (s *Store) writeLocked() error {
	data, err := yaml.Marshal(prefsFile{Theme: s.theme})
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return fmt.Errorf("create prefs dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}
