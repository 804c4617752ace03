package speech

import (
	"context"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// Speaker speaks text in a language using the best matching voice.
type Speaker struct {
	mu    sync.Mutex
	synth Synthesizer
	rate  float64
}

// NewSpeaker wraps synth. synth may be nil, in which case Speak does
// nothing.
func NewSpeaker(synth Synthesizer, rate float64) *Speaker {
	if rate <= 0 {
		rate = 1
	}
	return &Speaker{synth: synth, rate: rate}
}

// Available reports whether speech can be produced.
func (s *Speaker) Available() bool {
	return s != nil && s.synth != nil
}

// Speak cancels current speech and speaks text in lang. It is a no-op when
// speech is unavailable or text is empty.
func (s *Speaker) Speak(text, lang string) error {
	if !s.Available() || strings.TrimSpace(text) == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.synth.Cancel()

	u := Utterance{Text: text, Lang: lang, Rate: s.rate}
	if v, ok := FindVoice(s.synth.Voices(), lang); ok {
		u.Voice = &v
		log.Debug("Speaking", "lang", lang, "voice", v.Name)
	} else {
		log.Debug("No voice for language, letting the engine choose", "lang", lang)
	}

	return s.synth.Speak(u)
}

// Cancel stops current speech.
func (s *Speaker) Cancel() {
	if s.Available() {
		s.synth.Cancel()
	}
}

// Wait blocks until current speech has finished or ctx is done.
func (s *Speaker) Wait(ctx context.Context) error {
	if !s.Available() {
		return nil
	}
	return Wait(ctx, s.synth)
}

// WaitForVoices blocks until the engine has loaded its voices or ctx is
// done.
func (s *Speaker) WaitForVoices(ctx context.Context) []Voice {
	if !s.Available() {
		return nil
	}
	return WaitForVoices(ctx, s.synth)
}

// Voices lists the voices of the underlying engine.
func (s *Speaker) Voices() []Voice {
	if !s.Available() {
		return nil
	}
	return s.synth.Voices()
}

// Close releases the engine.
func (s *Speaker) Close() error {
	if !s.Available() {
		return nil
	}
	return s.synth.Close()
}
