package ui

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/signspeak/signspeak/internal/controller"
	"github.com/signspeak/signspeak/internal/lang"
	"github.com/signspeak/signspeak/internal/prefs"
)

type fakeController struct {
	mu        sync.Mutex
	state     controller.State
	calls     []string
	languages []string
}

func (f *fakeController) State() controller.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeController) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeController) TriggerTranslation() { f.record("translate") }
func (f *fakeController) Clear()              { f.record("clear") }
func (f *fakeController) SpeakGesture()       { f.record("speak") }

func (f *fakeController) SetLanguage(code string) {
	f.record("lang")
	f.mu.Lock()
	f.languages = append(f.languages, code)
	f.mu.Unlock()
}

func testLanguages(t *testing.T) []lang.Language {
	t.Helper()
	langs, err := lang.Catalogue([]string{"en", "fr", "es"})
	if err != nil {
		t.Fatal(err)
	}
	return langs
}

func newTestModel(t *testing.T, ctrl *fakeController) model {
	t.Helper()
	store := prefs.Open(filepath.Join(t.TempDir(), "prefs.yml"))
	return newModel(Config{
		Languages:       testLanguages(t),
		Server:          "http://127.0.0.1:5000",
		TransitionDelay: 400 * time.Millisecond,
	}, ctrl, store)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// update feeds msg to m, runs the resulting command, if any, and waits for
// queued controller calls.
func update(t *testing.T, m model, msg tea.Msg) (model, tea.Msg) {
	t.Helper()
	next, cmd := m.Update(msg)
	var out tea.Msg
	if cmd != nil {
		out = cmd()
	}
	m.calls.wait()
	return next.(model), out
}

func TestKeysCallController(t *testing.T) {
	tests := []struct {
		key  tea.KeyMsg
		want string
	}{
		{runes("c"), "clear"},
		{tea.KeyMsg{Type: tea.KeyEnter}, "translate"},
		{runes("s"), "speak"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			ctrl := &fakeController{}
			m := newTestModel(t, ctrl)
			update(t, m, tt.key)
			if len(ctrl.calls) != 1 || ctrl.calls[0] != tt.want {
				t.Errorf("calls = %v, want [%s]", ctrl.calls, tt.want)
			}
		})
	}
}

func TestLanguageCycling(t *testing.T) {
	ctrl := &fakeController{state: controller.State{Language: "en"}}
	m := newTestModel(t, ctrl)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	_, _ = update(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})

	want := []string{"fr", "es", "en", "es"}
	if strings.Join(ctrl.languages, ",") != strings.Join(want, ",") {
		t.Errorf("languages = %v, want %v", ctrl.languages, want)
	}
}

type translatorFunc func(ctx context.Context, text, lang string) (string, error)

func (f translatorFunc) Translate(ctx context.Context, text, lang string) (string, error) {
	return f(ctx, text, lang)
}

func TestLanguageSelectionsReachControllerInOrder(t *testing.T) {
	echo := translatorFunc(func(_ context.Context, text, _ string) (string, error) {
		return text, nil
	})

	for i := 0; i < 50; i++ {
		ctrl, err := controller.New(controller.DefaultConfig(), echo, nil, nil)
		if err != nil {
			t.Fatal(err)
		}
		m := newModel(Config{Languages: testLanguages(t)}, ctrl, prefs.Open(""))

		// Two quick presses, as the event loop would deliver them.
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
		next, _ = next.(model).Update(tea.KeyMsg{Type: tea.KeyTab})
		m = next.(model)
		m.calls.wait()

		if got := ctrl.State().Language; got != "es" {
			t.Fatalf("run %d: controller language = %q, want es", i, got)
		}
		if m.langIndex != 2 {
			t.Fatalf("run %d: langIndex = %d, want 2", i, m.langIndex)
		}
		_ = ctrl.Close()
	}
}

func TestSelectedLanguageSurvivesIntermediateState(t *testing.T) {
	ctrl := &fakeController{state: controller.State{Language: "en"}}
	m := newTestModel(t, ctrl)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})

	// The controller reports the first selection before the second.
	m, _ = update(t, m, stateMsg(controller.State{Version: 1, Language: "fr"}))
	if m.langIndex != 2 || m.state.Language != "es" {
		t.Errorf("after intermediate state: langIndex = %d, language = %q, want 2 es", m.langIndex, m.state.Language)
	}

	m, _ = update(t, m, stateMsg(controller.State{Version: 2, Language: "es"}))
	if m.wantLang != "" {
		t.Errorf("wantLang = %q, want cleared once reported", m.wantLang)
	}

	// From then on the controller is authoritative again.
	m, _ = update(t, m, stateMsg(controller.State{Version: 3, Language: "fr"}))
	if m.langIndex != 1 {
		t.Errorf("langIndex = %d, want 1", m.langIndex)
	}
}

func TestLanguageSearch(t *testing.T) {
	ctrl := &fakeController{state: controller.State{Language: "en"}}
	m := newTestModel(t, ctrl)

	m, _ = update(t, m, runes("/"))
	if !m.searching {
		t.Fatal("search not started")
	}
	for _, r := range "spa" {
		m, _ = update(t, m, runes(string(r)))
	}
	if m.match == nil || m.match.Code != "es" {
		t.Fatalf("match = %+v, want Spanish", m.match)
	}
	if len(ctrl.calls) != 0 {
		t.Errorf("typing reached the controller: %v", ctrl.calls)
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.searching {
		t.Error("search still active after enter")
	}
	if len(ctrl.languages) != 1 || ctrl.languages[0] != "es" {
		t.Errorf("languages = %v, want [es]", ctrl.languages)
	}
}

func TestStaleStateDropped(t *testing.T) {
	m := newTestModel(t, &fakeController{})

	m, _ = update(t, m, stateMsg(controller.State{Version: 5, Status: controller.StatusTranslating}))
	m, _ = update(t, m, stateMsg(controller.State{Version: 3, Status: controller.StatusListening}))

	if m.state.Version != 5 || m.state.Status != controller.StatusTranslating {
		t.Errorf("state = %+v, want version 5 translating", m.state)
	}
}

func TestPanelTransition(t *testing.T) {
	m := newTestModel(t, &fakeController{})

	next, cmd := m.Update(stateMsg(controller.State{
		Version:     1,
		Status:      controller.StatusListening,
		Gesture:     controller.Prediction{Gesture: "hello", Confidence: 93},
		Predictions: 1,
	}))
	m = next.(model)
	if m.panelVisible {
		t.Error("panel should hide while a new gesture transitions in")
	}
	if cmd == nil {
		t.Fatal("expected a command to re-show the panel")
	}

	// An older transition must not re-show the panel.
	m, _ = update(t, m, showPanelMsg{gen: m.panelGen - 1})
	if m.panelVisible {
		t.Error("stale transition showed the panel")
	}

	m, _ = update(t, m, showPanelMsg{gen: m.panelGen})
	if !m.panelVisible {
		t.Error("panel not shown after transition")
	}
	if !strings.Contains(m.View(), "HELLO") {
		t.Error("gesture word not rendered upper-case")
	}
}

func TestThemeTogglePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yml")
	m := newModel(Config{Languages: testLanguages(t)}, &fakeController{}, prefs.Open(path))
	if m.dark {
		t.Fatal("default theme should be light")
	}

	m, msg := update(t, m, runes("t"))
	if msg != nil {
		t.Fatalf("saving theme failed: %v", msg)
	}
	if !m.dark {
		t.Error("theme not toggled")
	}
	if !prefs.Open(path).DarkMode() {
		t.Error("dark theme not persisted")
	}

	restarted := newModel(Config{Languages: testLanguages(t)}, &fakeController{}, prefs.Open(path))
	if !restarted.dark {
		t.Error("theme not restored on start")
	}
}

func TestViewShowsState(t *testing.T) {
	ctrl := &fakeController{state: controller.State{
		Version:      2,
		Status:       controller.StatusPaused,
		Language:     "fr",
		SentenceText: "hello world",
		History:      []string{"world", "hello"},
		Translation:  "bonjour le monde",
	}}
	m := newTestModel(t, ctrl)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})

	view := m.View()
	for _, want := range []string{
		"Paused, waiting to translate...",
		"hello world",
		"bonjour le monde",
		"Translation (French)",
		"World",
		"Hello",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestCopyWithoutTranslation(t *testing.T) {
	m := newTestModel(t, &fakeController{state: controller.State{Translation: controller.MsgTranslationFailed}})
	m, _ = m.handleKeyNoCmd(runes("y"))
	if m.statusMessage != "Nothing to copy" {
		t.Errorf("status message = %q", m.statusMessage)
	}
}

func TestCapitalize(t *testing.T) {
	tests := map[string]string{
		"hello": "Hello",
		"été":   "Été",
		"":      "",
		"A":     "A",
	}
	for in, want := range tests {
		if got := capitalize(in); got != want {
			t.Errorf("capitalize(%q) = %q, want %q", in, got, want)
		}
	}
}

// handleKeyNoCmd applies a key without running the returned command.
func (m model) handleKeyNoCmd(msg tea.KeyMsg) (model, tea.Cmd) {
	next, cmd := m.handleKey(msg)
	return next.(model), cmd
}
