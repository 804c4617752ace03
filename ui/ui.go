// Package ui provides the terminal interface for signspeak.
package ui

import (
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/signspeak/signspeak/internal/controller"
	"github.com/signspeak/signspeak/internal/lang"
	"github.com/signspeak/signspeak/internal/prefs"
)

const (
	statusMessageTimeout = time.Second * 3
	clockInterval        = time.Second
)

// Controller is the part of the sentence controller the UI drives.
type Controller interface {
	State() controller.State
	TriggerTranslation()
	SetLanguage(code string)
	Clear()
	SpeakGesture()
}

// NewProgram returns a new Tea program. Attach bridge to it before Run.
func NewProgram(cfg Config, ctrl Controller, store *prefs.Store) *tea.Program {
	log.Debug("Starting signspeak UI", "alt_screen", cfg.AltScreen, "languages", len(cfg.Languages))

	var opts []tea.ProgramOption
	if cfg.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	return tea.NewProgram(newModel(cfg, ctrl, store), opts...)
}

type (
	stateMsg controller.State
	connMsg  struct {
		connected bool
		err       error
	}
	showPanelMsg            struct{ gen int }
	statusMessageTimeoutMsg struct{ gen int }
	clockMsg                time.Time
	errMsg                  struct{ err error }
)

func (e errMsg) Error() string { return e.err.Error() }

type model struct {
	cfg   Config
	ctrl  Controller
	calls *callQueue
	prefs *prefs.Store

	keys     keyMap
	help     help.Model
	progress progress.Model
	search   textinput.Model

	state     controller.State
	langIndex int
	// wantLang is the last language selected but not yet reported back
	// by the controller.
	wantLang string

	dark   bool
	styles styles

	// The prediction panel hides briefly whenever a new gesture arrives.
	panelVisible bool
	panelGen     int

	connected bool
	connErr   error

	searching bool
	match     *lang.Language

	statusMessage string
	statusGen     int

	now    time.Time
	width  int
	height int
}

func newModel(cfg Config, ctrl Controller, store *prefs.Store) model {
	if len(cfg.Languages) == 0 {
		cfg.Languages, _ = lang.Catalogue(nil)
	}
	if store == nil {
		store = prefs.Open("")
	}

	search := textinput.New()
	search.Prompt = "language: "
	search.Placeholder = "name or code"
	search.CharLimit = 32

	dark := store.DarkMode()
	m := model{
		cfg:          cfg,
		ctrl:         ctrl,
		calls:        newCallQueue(),
		prefs:        store,
		keys:         newKeyMap(),
		help:         help.New(),
		progress:     progress.New(progress.WithGradient("#5A56E0", "#EE6FF8"), progress.WithoutPercentage()),
		search:       search,
		dark:         dark,
		styles:       newStyles(dark),
		panelVisible: true,
		now:          time.Now(),
	}
	m.applyState(ctrl.State())
	return m
}

func (m model) Init() tea.Cmd {
	return clockTick()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.progress.Width = min(max(msg.Width-16, 10), 40)
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.handleKey(msg)

	case stateMsg:
		cmd := m.applyState(controller.State(msg))
		return m, cmd

	case connMsg:
		m.connected = msg.connected
		m.connErr = msg.err
		return m, nil

	case showPanelMsg:
		if msg.gen == m.panelGen {
			m.panelVisible = true
		}
		return m, nil

	case statusMessageTimeoutMsg:
		if msg.gen == m.statusGen {
			m.statusMessage = ""
		}
		return m, nil

	case clockMsg:
		m.now = time.Time(msg)
		return m, clockTick()

	case errMsg:
		log.Error("UI error", "err", msg.err)
		cmd := m.showStatusMessage(msg.Error())
		return m, cmd
	}

	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Clear):
		m.calls.push(m.ctrl.Clear)
		return m, nil

	case key.Matches(msg, m.keys.Translate):
		m.calls.push(m.ctrl.TriggerTranslation)
		return m, nil

	case key.Matches(msg, m.keys.Speak):
		m.calls.push(m.ctrl.SpeakGesture)
		return m, nil

	case key.Matches(msg, m.keys.NextLang):
		return m.selectLanguage(m.langIndex + 1)

	case key.Matches(msg, m.keys.PrevLang):
		return m.selectLanguage(m.langIndex - 1)

	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.match = nil
		m.search.SetValue("")
		cmd := m.search.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.Copy):
		text := m.state.Translation
		if text == "" || text == controller.MsgTranslationFailed || text == controller.MsgTranslationError {
			cmd := m.showStatusMessage("Nothing to copy")
			return m, cmd
		}
		// Copy using OSC 52
		termenv.Copy(text)
		// Copy using native system clipboard
		_ = clipboard.WriteAll(text)
		cmd := m.showStatusMessage("Copied translation")
		return m, cmd

	case key.Matches(msg, m.keys.Theme):
		m.dark = !m.dark
		m.styles = newStyles(m.dark)
		return m, saveTheme(m.prefs, m.dark)

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}

	return m, nil
}

func (m model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+c":
		m.searching = false
		m.search.Blur()
		return m, nil

	case "enter":
		m.searching = false
		m.search.Blur()
		if m.match == nil {
			cmd := m.showStatusMessage("No matching language")
			return m, cmd
		}
		return m.selectLanguage(lang.Index(m.cfg.Languages, m.match.Code))
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if l, ok := lang.Find(m.search.Value(), m.cfg.Languages); ok {
		m.match = &l
	} else {
		m.match = nil
	}
	return m, cmd
}

// selectLanguage switches to the language at i, wrapping around.
func (m model) selectLanguage(i int) (tea.Model, tea.Cmd) {
	n := len(m.cfg.Languages)
	if n == 0 {
		return m, nil
	}
	i = ((i % n) + n) % n
	if i == m.langIndex && m.cfg.Languages[i].Code == m.state.Language {
		return m, nil
	}
	m.langIndex = i
	code := m.cfg.Languages[i].Code
	m.state.Language = code
	m.wantLang = code
	ctrl := m.ctrl
	m.calls.push(func() { ctrl.SetLanguage(code) })
	return m, nil
}

// applyState takes a controller snapshot unless a newer one was already
// shown.
func (m *model) applyState(s controller.State) tea.Cmd {
	if s.Version < m.state.Version {
		return nil
	}

	var cmd tea.Cmd
	if s.Predictions > m.state.Predictions {
		m.panelVisible = false
		m.panelGen++
		gen := m.panelGen
		cmd = tea.Tick(m.cfg.TransitionDelay, func(time.Time) tea.Msg {
			return showPanelMsg{gen: gen}
		})
	}

	m.state = s
	if m.wantLang != "" {
		if s.Language != m.wantLang {
			// Earlier selections are still being applied.
			m.state.Language = m.wantLang
			return cmd
		}
		m.wantLang = ""
	}
	if i := lang.Index(m.cfg.Languages, s.Language); i >= 0 {
		m.langIndex = i
	}
	return cmd
}

func (m *model) showStatusMessage(msg string) tea.Cmd {
	m.statusMessage = msg
	m.statusGen++
	gen := m.statusGen
	return tea.Tick(statusMessageTimeout, func(time.Time) tea.Msg {
		return statusMessageTimeoutMsg{gen: gen}
	})
}

func saveTheme(store *prefs.Store, dark bool) tea.Cmd {
	return func() tea.Msg {
		if err := store.SetDarkMode(dark); err != nil {
			return errMsg{fmt.Errorf("unable to save theme: %w", err)}
		}
		return nil
	}
}

func clockTick() tea.Cmd {
	return tea.Tick(clockInterval, func(t time.Time) tea.Msg {
		return clockMsg(t)
	})
}
