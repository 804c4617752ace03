package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/signspeak/signspeak/internal/controller"
)

var (
	mintGreen = lipgloss.Color("#89F0CB")
	darkGreen = lipgloss.Color("#1C8760")
	fuchsia   = lipgloss.Color("#EE6FF8")
	yellow    = lipgloss.Color("#ECFD65")
	amber     = lipgloss.Color("#F5A623")
	blue      = lipgloss.Color("#4A90E2")
	red       = lipgloss.Color("#FF5F87")
)

// palette holds the colors that differ between the light and dark themes.
type palette struct {
	fg, subtle, faint   lipgloss.Color
	statusBg, panelEdge lipgloss.Color
	accent              lipgloss.Color
}

var (
	lightPalette = palette{
		fg:        lipgloss.Color("#1A1A1A"),
		subtle:    lipgloss.Color("#656565"),
		faint:     lipgloss.Color("#A8A8A8"),
		statusBg:  lipgloss.Color("#E6E6E6"),
		panelEdge: lipgloss.Color("#C2C2C2"),
		accent:    darkGreen,
	}
	darkPalette = palette{
		fg:        lipgloss.Color("#DDDDDD"),
		subtle:    lipgloss.Color("#7D7D7D"),
		faint:     lipgloss.Color("#4A4A4A"),
		statusBg:  lipgloss.Color("#242424"),
		panelEdge: lipgloss.Color("#3C3C3C"),
		accent:    mintGreen,
	}
)

type styles struct {
	logo        lipgloss.Style
	panel       lipgloss.Style
	gesture     lipgloss.Style
	label       lipgloss.Style
	text        lipgloss.Style
	subtle      lipgloss.Style
	translation lipgloss.Style
	history     lipgloss.Style
	historyHead lipgloss.Style
	statusBar   lipgloss.Style
	statusNote  lipgloss.Style
	message     lipgloss.Style
	connected   lipgloss.Style
	offline     lipgloss.Style
	status      map[controller.Status]lipgloss.Style
}

func newStyles(dark bool) styles {
	p := lightPalette
	if dark {
		p = darkPalette
	}

	pill := lipgloss.NewStyle().Padding(0, 1).Bold(true)

	return styles{
		logo: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ECFD65")).
			Background(fuchsia).
			Bold(true).
			Padding(0, 1),
		panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.panelEdge).
			Padding(0, 2),
		gesture:     lipgloss.NewStyle().Foreground(p.accent).Bold(true),
		label:       lipgloss.NewStyle().Foreground(p.subtle),
		text:        lipgloss.NewStyle().Foreground(p.fg),
		subtle:      lipgloss.NewStyle().Foreground(p.faint),
		translation: lipgloss.NewStyle().Foreground(p.accent).Italic(true),
		history:     lipgloss.NewStyle().Foreground(p.fg),
		historyHead: lipgloss.NewStyle().Foreground(p.accent).Bold(true),
		statusBar:   lipgloss.NewStyle().Foreground(p.subtle).Background(p.statusBg),
		statusNote:  lipgloss.NewStyle().Foreground(p.subtle).Background(p.statusBg).Padding(0, 1),
		message:     lipgloss.NewStyle().Foreground(mintGreen).Background(darkGreen).Padding(0, 1),
		connected:   lipgloss.NewStyle().Foreground(darkGreen).Background(p.statusBg).Padding(0, 1),
		offline:     lipgloss.NewStyle().Foreground(red).Background(p.statusBg).Padding(0, 1),
		status: map[controller.Status]lipgloss.Style{
			controller.StatusIdle:        pill.Foreground(p.subtle),
			controller.StatusListening:   pill.Foreground(lipgloss.Color("#FFFFFF")).Background(blue),
			controller.StatusPaused:      pill.Foreground(lipgloss.Color("#1A1A1A")).Background(yellow),
			controller.StatusTranslating: pill.Foreground(lipgloss.Color("#1A1A1A")).Background(amber),
		},
	}
}
