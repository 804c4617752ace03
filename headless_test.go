package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/signspeak/signspeak/internal/controller"
)

func TestHeadlessViewPrintsChanges(t *testing.T) {
	var buf bytes.Buffer
	v := newHeadlessView(&buf)

	v.Render(controller.State{
		Version:      1,
		Status:       controller.StatusListening,
		Language:     "fr",
		Gesture:      controller.Prediction{Gesture: "hello", Confidence: 90},
		Predictions:  1,
		SentenceText: "hello",
	})
	v.Render(controller.State{
		Version:      3,
		Status:       controller.StatusTranslating,
		Language:     "fr",
		Gesture:      controller.Prediction{Gesture: "hello", Confidence: 90},
		Predictions:  1,
		SentenceText: "hello",
		Translation:  "bonjour",
	})
	// Stale snapshot.
	v.Render(controller.State{Version: 2, Status: controller.StatusPaused})

	out := buf.String()
	for _, want := range []string{"HELLO", "Listening...", "Translating...", "bonjour"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Paused") {
		t.Errorf("stale snapshot was printed:\n%s", out)
	}
	if strings.Count(out, "Sentence") != 1 {
		t.Errorf("unchanged sentence printed twice:\n%s", out)
	}
}
