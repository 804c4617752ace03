package ui

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	runewidth "github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
	"github.com/signspeak/signspeak/internal/lang"
)

const (
	ellipsis     = "…"
	defaultWidth = 80
	minTextWidth = 20
	historyWidth = 18
)

func (m model) View() string {
	width := m.width
	if width <= 0 {
		width = defaultWidth
	}
	textWidth := max(width-6, minTextWidth)

	var b strings.Builder

	b.WriteString(m.headerView())
	b.WriteString("\n\n")
	b.WriteString(m.panelView(textWidth))
	b.WriteString("\n\n")
	b.WriteString(m.sentenceView(textWidth))
	b.WriteString("\n\n")
	b.WriteString(m.historyView())
	b.WriteString("\n\n")

	if m.searching {
		b.WriteString(m.searchView())
		b.WriteString("\n")
	}

	b.WriteString(m.statusBarView(width))
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))

	return b.String()
}

func (m model) headerView() string {
	status := m.state.Status
	style, ok := m.styles.status[status]
	if !ok {
		style = m.styles.label
	}
	return lipgloss.JoinHorizontal(lipgloss.Center,
		m.styles.logo.Render("signspeak"),
		" ",
		style.Render(status.Label()),
	)
}

func (m model) panelView(width int) string {
	g := m.state.Gesture
	if g.Gesture == "" {
		return m.styles.panel.Render(m.styles.subtle.Render("Waiting for gestures..."))
	}
	if !m.panelVisible {
		// Keep the height stable while the panel is hidden.
		return m.styles.panel.Render(strings.Repeat("\n", 3))
	}

	word := m.styles.gesture.Render(strings.ToUpper(g.Gesture))
	confidence := fmt.Sprintf("Confidence: %s%%", humanize.FtoaWithDigits(g.Confidence, 2))
	bar := m.progress.ViewAs(clamp(g.Confidence/100, 0, 1))
	image := truncate.StringWithTail(g.ImagePath(), uint(width), ellipsis)

	return m.styles.panel.Render(lipgloss.JoinVertical(lipgloss.Left,
		word,
		m.styles.label.Render(confidence),
		bar,
		m.styles.subtle.Render(image),
	))
}

func (m model) sentenceView(width int) string {
	sentence := m.state.SentenceText
	if sentence == "" {
		sentence = m.styles.subtle.Render("(empty)")
	} else {
		sentence = m.styles.text.Render(wordwrap.String(sentence, width))
	}

	target := m.state.Language
	if i := lang.Index(m.cfg.Languages, target); i >= 0 {
		target = m.cfg.Languages[i].Name
	} else {
		target = lang.DisplayName(target)
	}

	translation := m.state.Translation
	if translation != "" {
		translation = m.styles.translation.Render(wordwrap.String(translation, width))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.styles.label.Render("Sentence"),
		sentence,
		"",
		m.styles.label.Render("Translation ("+target+")"),
		translation,
	)
}

func (m model) historyView() string {
	lines := []string{m.styles.historyHead.Render("History")}
	if len(m.state.History) == 0 {
		lines = append(lines, m.styles.subtle.Render("  none yet"))
	}
	for i, g := range m.state.History {
		style := m.styles.history
		if i > 0 {
			style = m.styles.label
		}
		lines = append(lines, style.Render(padRight("  "+capitalize(g), historyWidth)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m model) searchView() string {
	v := m.search.View()
	if m.match != nil {
		v += "  " + m.styles.gesture.Render("→ "+m.match.String())
	}
	return v
}

func (m model) statusBarView(width int) string {
	var conn string
	switch {
	case m.connected:
		conn = m.styles.connected.Render("● online")
	case m.connErr != nil:
		conn = m.styles.offline.Render("● offline")
	default:
		conn = m.styles.offline.Render("○ connecting")
	}

	var note string
	if m.statusMessage != "" {
		note = m.styles.message.Render(m.statusMessage)
	} else {
		parts := []string{m.cfg.Server}
		if m.cfg.SpeechEngine != "" {
			parts = append(parts, "speech: "+m.cfg.SpeechEngine)
		}
		if m.state.Predictions > 0 {
			parts = append(parts, fmt.Sprintf("%s signs, last %s",
				humanize.Comma(int64(m.state.Predictions)),
				humanize.RelTime(m.state.LastEventAt, m.now, "ago", "from now")))
		}
		note = m.styles.statusNote.Render(strings.Join(parts, " · "))
	}

	used := lipgloss.Width(conn)
	note = truncate.StringWithTail(note, uint(max(width-used, 0)), ellipsis)
	used += lipgloss.Width(note)

	padding := ""
	if width > used {
		padding = m.styles.statusBar.Render(strings.Repeat(" ", width-used))
	}
	return conn + note + padding
}

// capitalize upper-cases the first letter of s.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}

// padRight pads s with spaces to width cells.
func padRight(s string, width int) string {
	if w := runewidth.StringWidth(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
