package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/signspeak/signspeak/internal/lang"
	"github.com/signspeak/signspeak/internal/speech"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const voiceListTimeout = 10 * time.Second

var speakCmd = &cobra.Command{
	Use:     "speak TEXT...",
	Short:   "Speak text with the configured speech engine",
	Long:    paragraph(fmt.Sprintf("\n%s text the way translations are spoken, using the voice picked for --lang.", keyword("Speak"))),
	Example: paragraph("signspeak speak hello world\nsignspeak speak --lang fr bonjour"),
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings()
		if err != nil {
			return err
		}

		speaker := newSpeaker(s)
		defer speaker.Close() //nolint:errcheck
		if !speaker.Available() {
			return speech.ErrNoEngine
		}

		voiceCtx, cancelVoices := context.WithTimeout(cmd.Context(), voiceListTimeout)
		speaker.WaitForVoices(voiceCtx)
		cancelVoices()

		if err := speaker.Speak(strings.Join(args, " "), s.language); err != nil {
			return fmt.Errorf("unable to speak: %w", err)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()
		return speaker.Wait(ctx) //nolint:wrapcheck
	},
}

var voicesCmd = &cobra.Command{
	Use:     "voices",
	Short:   "List the voices of the configured speech engine",
	Example: paragraph("signspeak voices\nsignspeak voices --lang fr --speech gtts"),
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := loadSettings()
		if err != nil {
			return err
		}

		synth, err := speech.New(speech.Options{Engine: s.speechEngine})
		if err != nil {
			return fmt.Errorf("unable to start speech engine: %w", err)
		}
		if synth == nil {
			return speech.ErrNoEngine
		}
		defer synth.Close() //nolint:errcheck

		ctx, cancel := context.WithTimeout(cmd.Context(), voiceListTimeout)
		defer cancel()
		voices := speech.WaitForVoices(ctx, synth)

		filter := ""
		if cmd.Flags().Changed("lang") {
			filter = s.language
		}
		return printVoices(voices, filter)
	},
}

var translateCmd = &cobra.Command{
	Use:     "translate TEXT...",
	Short:   "Translate text with the configured translator",
	Example: paragraph("signspeak translate --lang es hello world"),
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings()
		if err != nil {
			return err
		}

		translator, err := newTranslator(s)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		out, err := translator.Translate(ctx, strings.Join(args, " "), s.language)
		if err != nil {
			return fmt.Errorf("unable to translate: %w", err)
		}
		fmt.Println(out)
		return nil
	},
}

// voicesMarkdown renders voices as a markdown table. Voices whose language
// does not start with filter are skipped.
func voicesMarkdown(voices []speech.Voice, filter string) string {
	matching := make([]speech.Voice, 0, len(voices))
	for _, v := range voices {
		if _, ok := speech.FindVoice([]speech.Voice{v}, filter); ok || filter == "" {
			matching = append(matching, v)
		}
	}

	sort.SliceStable(matching, func(i, j int) bool {
		return matching[i].Lang < matching[j].Lang
	})

	var b strings.Builder
	fmt.Fprintf(&b, "# Voices\n\n%s available.\n\n", voiceCount(len(matching)))
	if len(matching) == 0 {
		b.WriteString("No voices found.\n")
		return b.String()
	}
	b.WriteString("| Language | Code | Voice |\n|---|---|---|\n")
	for _, v := range matching {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", lang.DisplayName(v.Lang), v.Lang, v.Name)
	}
	return b.String()
}

func voiceCount(n int) string {
	if n == 1 {
		return "1 voice"
	}
	return humanize.Comma(int64(n)) + " voices"
}

func printVoices(voices []speech.Voice, filter string) error {
	md := voicesMarkdown(voices, filter)

	style := styles.AutoStyle
	width := 80
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		style = styles.NoTTYStyle
	} else if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width = min(w, 120)
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithColorProfile(lipgloss.ColorProfile()),
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return fmt.Errorf("unable to create renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("unable to render voices: %w", err)
	}
	fmt.Print(out)
	return nil
}
