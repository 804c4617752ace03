package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Clear     key.Binding
	Translate key.Binding
	Speak     key.Binding
	NextLang  key.Binding
	PrevLang  key.Binding
	Search    key.Binding
	Copy      key.Binding
	Theme     key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Clear: key.NewBinding(
			key.WithKeys("c", "backspace"),
			key.WithHelp("c", "clear sentence"),
		),
		Translate: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "translate now"),
		),
		Speak: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "speak gesture"),
		),
		NextLang: key.NewBinding(
			key.WithKeys("tab", "right", "l"),
			key.WithHelp("tab", "next language"),
		),
		PrevLang: key.NewBinding(
			key.WithKeys("shift+tab", "left", "h"),
			key.WithHelp("shift+tab", "prev language"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "find language"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy translation"),
		),
		Theme: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "toggle theme"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Clear, k.NextLang, k.Speak, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Clear, k.Translate, k.Speak},
		{k.NextLang, k.PrevLang, k.Search},
		{k.Copy, k.Theme, k.Help, k.Quit},
	}
}
