package speech

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// ErrNoEngine is returned when no speech engine is installed.
var ErrNoEngine = errors.New("no speech engine available")

// Voice is a voice offered by a synthesizer.
type Voice struct {
	Name    string
	Lang    string // BCP 47-ish tag as reported by the engine, e.g. "en-gb"
	Default bool
}

// Utterance is a request to speak.
type Utterance struct {
	Text string

	// Voice is used when set; otherwise the engine picks a voice for Lang.
	Voice *Voice
	Lang  string

	// Rate scales the engine's normal speed; 1 is normal.
	Rate float64
}

// Synthesizer is a speech engine.
type Synthesizer interface {
	// Voices returns the voices known so far. Engines load their voice
	// list in the background, so this may be empty right after creation.
	Voices() []Voice

	// Speak starts speaking u and returns without waiting for it to end.
	Speak(u Utterance) error

	// Cancel stops any speech in progress.
	Cancel()

	Close() error
}

// WaitForVoices blocks until synth has finished loading its voices or ctx
// is done.
func WaitForVoices(ctx context.Context, synth Synthesizer) []Voice {
	if r, ok := synth.(interface{ Ready() <-chan struct{} }); ok {
		select {
		case <-r.Ready():
		case <-ctx.Done():
		}
	}
	return synth.Voices()
}

// Wait blocks until synth has finished speaking or ctx is done. Engines
// that cannot report completion return immediately.
func Wait(ctx context.Context, synth Synthesizer) error {
	w, ok := synth.(interface{ Wait(context.Context) error })
	if !ok {
		return nil
	}
	return w.Wait(ctx)
}

// FindVoice returns the first voice whose language tag starts with lang.
func FindVoice(voices []Voice, lang string) (Voice, bool) {
	lang = normalizeTag(lang)
	if lang == "" {
		return Voice{}, false
	}
	for _, v := range voices {
		if strings.HasPrefix(normalizeTag(v.Lang), lang) {
			return v, true
		}
	}
	return Voice{}, false
}

func normalizeTag(tag string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(tag), "_", "-"))
}

// waitGroup waits for wg or ctx.
func waitGroup(ctx context.Context, wg *sync.WaitGroup) error {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// pollInterval is how often playback completion is checked.
const pollInterval = 50 * time.Millisecond
