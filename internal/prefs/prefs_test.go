package prefs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDarkModeRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", fileName)

	s := Open(path)
	if s.DarkMode() {
		t.Fatal("missing file should mean light mode")
	}

	if err := s.SetDarkMode(true); err != nil {
		t.Fatalf("SetDarkMode: %v", err)
	}
	if !Open(path).DarkMode() {
		t.Error("dark mode not persisted")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "theme: dark") {
		t.Errorf("file contents = %q", data)
	}

	if err := s.SetDarkMode(false); err != nil {
		t.Fatal(err)
	}
	if Open(path).DarkMode() {
		t.Error("light mode not persisted")
	}
}

func TestOpenTreatsUnknownValuesAsLight(t *testing.T) {
	tests := map[string]string{
		"other value": "theme: solarized\n",
		"malformed":   "theme: [dark\n",
		"empty":       "",
	}

	for name, contents := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), fileName)
			if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
				t.Fatal(err)
			}
			if Open(path).DarkMode() {
				t.Error("expected light mode")
			}
		})
	}
}

func TestEmptyPathIsInMemory(t *testing.T) {
	s := Open("")
	if err := s.SetDarkMode(true); err != nil {
		t.Fatalf("SetDarkMode: %v", err)
	}
	if !s.DarkMode() {
		t.Error("in-memory store lost the theme")
	}
}
