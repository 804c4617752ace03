package main

import (
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/signspeak/signspeak/internal/controller"
)

// headlessView prints state changes as log lines.
type headlessView struct {
	logger *log.Logger

	mu   sync.Mutex
	last controller.State
}

func newHeadlessView(w io.Writer) *headlessView {
	return &headlessView{
		logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      time.TimeOnly,
		}),
	}
}

// Render implements controller.View.
func (v *headlessView) Render(s controller.State) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if s.Version < v.last.Version {
		return
	}
	prev := v.last
	v.last = s

	if s.Predictions != prev.Predictions {
		v.logger.Info("Gesture", "word", strings.ToUpper(s.Gesture.Gesture), "confidence", s.Gesture.Confidence)
	}
	if s.SentenceText != prev.SentenceText {
		v.logger.Info("Sentence", "text", s.SentenceText)
	}
	if s.Language != prev.Language {
		v.logger.Info("Language", "code", s.Language)
	}
	if s.Status != prev.Status {
		v.logger.Info(s.Status.Label())
	}
	if s.Translation != prev.Translation && s.Translation != "" {
		v.logger.Info("Translation", "lang", s.Language, "text", s.Translation)
	}
}

// Connection logs connection changes.
func (v *headlessView) Connection(connected bool, err error) {
	if connected {
		v.logger.Info("Connected")
		return
	}
	v.logger.Warn("Disconnected", "err", err)
}
