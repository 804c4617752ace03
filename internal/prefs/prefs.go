// Package prefs persists user preferences between runs.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"gopkg.in/yaml.v3"
)

// Theme values as stored on disk. Anything other than ThemeDark means
// light.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

const fileName = "preferences.yml"

type preferences struct {
	Theme string `yaml:"theme,omitempty"`
}

// Store reads and writes the preferences file.
type Store struct {
	path string

	mu    sync.Mutex
	prefs preferences
}

// DefaultPath returns the preferences file in the user data directory.
func DefaultPath() (string, error) {
	scope := gap.NewScope(gap.User, "signspeak")
	path, err := scope.DataPath(fileName)
	if err != nil {
		return "", fmt.Errorf("failed to resolve data path: %w", err)
	}
	return path, nil
}

// Open loads the preferences at path. A missing or unreadable file yields
// the defaults.
func Open(path string) *Store {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		log.Warn("Unable to read preferences", "path", path, "err", err)
	default:
		if err := yaml.Unmarshal(data, &s.prefs); err != nil {
			log.Warn("Ignoring malformed preferences", "path", path, "err", err)
			s.prefs = preferences{}
		}
	}

	return s
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// DarkMode reports whether the dark theme was chosen.
func (s *Store) DarkMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs.Theme == ThemeDark
}

// SetDarkMode records the theme and writes the file.
func (s *Store) SetDarkMode(dark bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prefs.Theme = ThemeLight
	if dark {
		s.prefs.Theme = ThemeDark
	}
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	if s.path == "" {
		return nil
	}

	data, err := yaml.Marshal(s.prefs)
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create preferences directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	return nil
}
