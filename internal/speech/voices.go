package speech

import (
	"sync"

	"github.com/charmbracelet/log"
)

// voiceList is a voice list populated once in the background.
type voiceList struct {
	mu     sync.RWMutex
	voices []Voice
	ready  chan struct{}
}

func newVoiceList() *voiceList {
	return &voiceList{ready: make(chan struct{})}
}

// load runs fn in a goroutine and stores its result.
func (l *voiceList) load(engine string, fn func() ([]Voice, error)) {
	go func() {
		defer close(l.ready)
		voices, err := fn()
		if err != nil {
			log.Warn("Unable to list voices", "engine", engine, "err", err)
			return
		}
		l.mu.Lock()
		l.voices = voices
		l.mu.Unlock()
		log.Debug("Voices loaded", "engine", engine, "count", len(voices))
	}()
}

func (l *voiceList) Voices() []Voice {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Voice, len(l.voices))
	copy(out, l.voices)
	return out
}

// Ready is closed once loading has finished, successfully or not.
func (l *voiceList) Ready() <-chan struct{} {
	return l.ready
}
