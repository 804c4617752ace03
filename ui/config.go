package ui

import (
	"time"

	"github.com/signspeak/signspeak/internal/lang"
)

// Config contains TUI-specific configuration.
type Config struct {
	// Selectable target languages, in tab order.
	Languages []lang.Language

	// Shown in the status bar.
	Server       string
	SpeechEngine string

	// How long the prediction panel stays hidden when a new gesture
	// arrives.
	TransitionDelay time.Duration `env:"SIGNSPEAK_TRANSITION_DELAY" envDefault:"400ms"`

	AltScreen bool `env:"SIGNSPEAK_ALT_SCREEN" envDefault:"true"`
}
