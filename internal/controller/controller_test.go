package controller

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/signspeak/signspeak/internal/translate"
)

func bonjour(_ context.Context, text, _ string) (string, error) {
	if text == "hello world" {
		return "bonjour monde", nil
	}
	return "bonjour", nil
}

func TestPredictionsAccumulateSentence(t *testing.T) {
	h := newHarness(t, bonjour)

	for _, g := range []string{"hello", "hello", "world"} {
		h.ctrl.OnPrediction(Prediction{Gesture: g, Confidence: 90})
	}

	s := h.ctrl.State()
	if want := []string{"hello", "world"}; !reflect.DeepEqual(s.Sentence, want) {
		t.Errorf("Sentence = %v, want %v", s.Sentence, want)
	}
	if s.SentenceText != "hello world" {
		t.Errorf("SentenceText = %q", s.SentenceText)
	}
	if want := []string{"world", "hello", "hello"}; !reflect.DeepEqual(s.History, want) {
		t.Errorf("History = %v, want %v", s.History, want)
	}
	if s.Status != StatusListening {
		t.Errorf("Status = %s, want listening", s.Status)
	}
	if s.Gesture.Gesture != "world" || s.Predictions != 3 {
		t.Errorf("Gesture = %+v, Predictions = %d", s.Gesture, s.Predictions)
	}
}

func TestHistoryBounded(t *testing.T) {
	h := newHarness(t, bonjour)

	for i := 0; i < 8; i++ {
		h.ctrl.OnPrediction(Prediction{Gesture: fmt.Sprintf("g%d", i)})
	}

	s := h.ctrl.State()
	want := []string{"g7", "g6", "g5", "g4", "g3"}
	if !reflect.DeepEqual(s.History, want) {
		t.Errorf("History = %v, want %v", s.History, want)
	}
}

func TestPauseThenTranslate(t *testing.T) {
	h := newHarness(t, bonjour)

	h.ctrl.OnPrediction(Prediction{Gesture: "hello", Confidence: 80})
	h.ctrl.OnPrediction(Prediction{Gesture: "world", Confidence: 95})

	h.clock.Advance(1499 * time.Millisecond)
	if s := h.ctrl.State(); s.Status != StatusListening {
		t.Fatalf("Status after 1499ms = %s, want listening", s.Status)
	}

	h.clock.Advance(time.Millisecond)
	if s := h.ctrl.State(); s.Status != StatusPaused {
		t.Fatalf("Status after 1500ms = %s, want paused", s.Status)
	}

	h.clock.Advance(999 * time.Millisecond)
	if n := len(h.translator.Calls()); n != 0 {
		t.Fatalf("translation fired early (%d calls)", n)
	}

	h.clock.Advance(time.Millisecond)
	s := h.view.waitFor(t, func(s State) bool { return s.Translation != "" })
	if s.Translation != "bonjour monde" {
		t.Errorf("Translation = %q", s.Translation)
	}
	if s.Status != StatusTranslating {
		t.Errorf("Status = %s, want translating", s.Status)
	}
	h.ctrl.wg.Wait()

	calls := h.translator.Calls()
	if len(calls) != 1 || calls[0] != (translateCall{text: "hello world", lang: "fr"}) {
		t.Errorf("translator calls = %+v", calls)
	}
	if spoken := h.speaker.Calls(); len(spoken) != 1 || spoken[0] != (translateCall{text: "bonjour monde", lang: "fr"}) {
		t.Errorf("speaker calls = %+v", spoken)
	}

	h.clock.Advance(1999 * time.Millisecond)
	if s := h.ctrl.State(); s.Status != StatusTranslating {
		t.Fatalf("Status before idle delay = %s", s.Status)
	}
	h.clock.Advance(time.Millisecond)
	if s := h.ctrl.State(); s.Status != StatusIdle {
		t.Fatalf("Status after idle delay = %s, want idle", s.Status)
	}
	if s := h.ctrl.State(); s.Translation != "bonjour monde" {
		t.Errorf("translation should stay visible, got %q", s.Translation)
	}
}

func TestNewPredictionCancelsTimers(t *testing.T) {
	h := newHarness(t, bonjour)

	h.ctrl.OnPrediction(Prediction{Gesture: "hello"})
	h.clock.Advance(2 * time.Second)
	if s := h.ctrl.State(); s.Status != StatusPaused {
		t.Fatalf("Status = %s, want paused", s.Status)
	}

	h.ctrl.OnPrediction(Prediction{Gesture: "world"})
	if s := h.ctrl.State(); s.Status != StatusListening {
		t.Fatalf("Status = %s, want listening", s.Status)
	}
	if n := h.clock.Pending(); n != 2 {
		t.Fatalf("pending timers = %d, want 2", n)
	}

	// The first prediction's translate timer would have fired here.
	h.clock.Advance(2 * time.Second)
	if n := len(h.translator.Calls()); n != 0 {
		t.Fatalf("stale timer triggered %d translations", n)
	}

	h.clock.Advance(500 * time.Millisecond)
	h.view.waitFor(t, func(s State) bool { return s.Translation != "" })
	if n := len(h.translator.Calls()); n != 1 {
		t.Errorf("translations = %d, want 1", n)
	}
}

func TestStaleTimerCallbackIgnored(t *testing.T) {
	h := newHarness(t, bonjour)

	h.ctrl.OnPrediction(Prediction{Gesture: "hello"})
	h.ctrl.mu.Lock()
	oldGen := h.ctrl.timerGen
	h.ctrl.mu.Unlock()

	h.ctrl.OnPrediction(Prediction{Gesture: "world"})

	// Simulate callbacks that fired before being stopped.
	h.ctrl.onPaused(oldGen)
	h.ctrl.onPauseElapsed(oldGen)

	if s := h.ctrl.State(); s.Status != StatusListening {
		t.Errorf("Status = %s, want listening", s.Status)
	}
	if n := len(h.translator.Calls()); n != 0 {
		t.Errorf("stale callback started %d translations", n)
	}
}

func TestTranslationMissingField(t *testing.T) {
	h := newHarness(t, func(context.Context, string, string) (string, error) {
		return "", fmt.Errorf("%w (status 200)", translate.ErrNoTranslation)
	})

	h.ctrl.OnPrediction(Prediction{Gesture: "hello"})
	h.clock.Advance(2500 * time.Millisecond)

	s := h.view.waitFor(t, func(s State) bool { return s.Translation != "" })
	if s.Translation != MsgTranslationFailed {
		t.Errorf("Translation = %q, want %q", s.Translation, MsgTranslationFailed)
	}
	if n := len(h.speaker.Calls()); n != 0 {
		t.Errorf("failure message was spoken (%d calls)", n)
	}

	h.clock.Advance(2 * time.Second)
	if s := h.ctrl.State(); s.Status != StatusIdle {
		t.Errorf("Status = %s, want idle", s.Status)
	}
}

func TestTranslationNetworkError(t *testing.T) {
	h := newHarness(t, func(context.Context, string, string) (string, error) {
		return "", &translate.Error{Code: translate.ErrorCodeNetwork, Message: "request failed", Cause: errors.New("connection refused")}
	})

	h.ctrl.OnPrediction(Prediction{Gesture: "hello"})
	h.clock.Advance(2500 * time.Millisecond)

	s := h.view.waitFor(t, func(s State) bool { return s.Translation != "" })
	if s.Translation != MsgTranslationError {
		t.Errorf("Translation = %q, want %q", s.Translation, MsgTranslationError)
	}

	h.clock.Advance(2 * time.Second)
	if s := h.ctrl.State(); s.Status != StatusIdle {
		t.Errorf("Status = %s, want idle", s.Status)
	}
}

func TestClearResetsEverything(t *testing.T) {
	h := newHarness(t, bonjour)

	h.ctrl.OnPrediction(Prediction{Gesture: "hello"})
	h.ctrl.OnPrediction(Prediction{Gesture: "world"})
	h.ctrl.Clear()

	s := h.ctrl.State()
	if len(s.Sentence) != 0 || s.SentenceText != "" || s.Translation != "" {
		t.Errorf("state not cleared: %+v", s)
	}
	if s.Status != StatusIdle {
		t.Errorf("Status = %s, want idle", s.Status)
	}
	if h.ctrl.PendingTimers() || h.clock.Pending() != 0 {
		t.Errorf("timers still pending after clear")
	}

	h.clock.Advance(10 * time.Second)
	if n := len(h.translator.Calls()); n != 0 {
		t.Errorf("translation fired after clear (%d calls)", n)
	}
}

func TestClearDropsInFlightResult(t *testing.T) {
	release := make(chan struct{})
	h := newHarness(t, func(context.Context, string, string) (string, error) {
		<-release
		return "bonjour", nil
	})

	h.ctrl.OnPrediction(Prediction{Gesture: "hello"})
	h.ctrl.TriggerTranslation()
	h.ctrl.Clear()
	close(release)
	h.ctrl.wg.Wait()

	if s := h.ctrl.State(); s.Translation != "" || s.Status != StatusIdle {
		t.Errorf("late result applied after clear: %+v", s)
	}
}

func TestTriggerWithEmptySentence(t *testing.T) {
	h := newHarness(t, bonjour)

	h.ctrl.TriggerTranslation()

	if s := h.ctrl.State(); s.Status != StatusIdle {
		t.Errorf("Status = %s, want idle", s.Status)
	}
	if n := len(h.translator.Calls()); n != 0 {
		t.Errorf("empty sentence was translated (%d calls)", n)
	}
}

func TestLanguageChangeRetranslates(t *testing.T) {
	h := newHarness(t, func(_ context.Context, _ string, lang string) (string, error) {
		return "hola-" + lang, nil
	})

	h.ctrl.OnPrediction(Prediction{Gesture: "hello"})
	h.ctrl.SetLanguage("es")

	s := h.view.waitFor(t, func(s State) bool { return s.Translation != "" })
	if s.Translation != "hola-es" || s.Language != "es" {
		t.Errorf("state = %+v", s)
	}
	calls := h.translator.Calls()
	if len(calls) != 1 || calls[0].lang != "es" {
		t.Errorf("calls = %+v", calls)
	}
}

func TestStaleTranslationDropped(t *testing.T) {
	release := make(chan struct{})
	h := newHarness(t, func(_ context.Context, _ string, lang string) (string, error) {
		if lang == "fr" {
			<-release
			return "bonjour", nil
		}
		return "hola", nil
	})

	h.ctrl.OnPrediction(Prediction{Gesture: "hello"})
	h.ctrl.TriggerTranslation()
	h.ctrl.SetLanguage("es")

	h.view.waitFor(t, func(s State) bool { return s.Translation == "hola" })

	close(release)
	h.ctrl.wg.Wait()

	if s := h.ctrl.State(); s.Translation != "hola" {
		t.Errorf("stale result overwrote newer one: %q", s.Translation)
	}
	spoken := h.speaker.Calls()
	if len(spoken) != 1 || spoken[0].text != "hola" {
		t.Errorf("speaker calls = %+v", spoken)
	}
}

func TestPredictionDuringTranslationKeepsListening(t *testing.T) {
	h := newHarness(t, bonjour)

	h.ctrl.OnPrediction(Prediction{Gesture: "hello"})
	h.clock.Advance(2500 * time.Millisecond)
	h.view.waitFor(t, func(s State) bool { return s.Translation != "" })

	h.ctrl.OnPrediction(Prediction{Gesture: "world"})
	h.clock.Advance(2 * time.Second)

	if s := h.ctrl.State(); s.Status == StatusIdle {
		t.Errorf("idle reset clobbered the new countdown")
	}
}

func TestSpeakGesture(t *testing.T) {
	h := newHarness(t, bonjour)

	h.ctrl.SpeakGesture()
	if n := len(h.speaker.Calls()); n != 0 {
		t.Fatalf("spoke without a gesture (%d calls)", n)
	}

	h.ctrl.OnPrediction(Prediction{Gesture: "mother"})
	h.ctrl.SpeakGesture()

	calls := h.speaker.Calls()
	if len(calls) != 1 || calls[0] != (translateCall{text: "mother", lang: "en"}) {
		t.Errorf("speaker calls = %+v", calls)
	}
}

func TestNilSpeaker(t *testing.T) {
	clock := newFakeClock()
	view := newRecordingView()
	ctrl, err := New(DefaultConfig(), &fakeTranslator{fn: bonjour}, nil, view, WithClock(clock))
	if err != nil {
		t.Fatal(err)
	}
	defer ctrl.Close() //nolint:errcheck

	ctrl.OnPrediction(Prediction{Gesture: "hello"})
	clock.Advance(2500 * time.Millisecond)
	view.waitFor(t, func(s State) bool { return s.Translation != "" })
	ctrl.SpeakGesture()
}

func TestSetPauseDuration(t *testing.T) {
	h := newHarness(t, bonjour)
	h.ctrl.SetPauseDuration(5 * time.Second)

	h.ctrl.OnPrediction(Prediction{Gesture: "hello"})
	h.clock.Advance(3999 * time.Millisecond)
	if s := h.ctrl.State(); s.Status != StatusListening {
		t.Fatalf("Status = %s, want listening", s.Status)
	}
	h.clock.Advance(time.Millisecond)
	if s := h.ctrl.State(); s.Status != StatusPaused {
		t.Fatalf("Status = %s, want paused", s.Status)
	}
}

func TestVersionsIncrease(t *testing.T) {
	h := newHarness(t, bonjour)

	h.ctrl.OnPrediction(Prediction{Gesture: "a"})
	h.ctrl.OnPrediction(Prediction{Gesture: "b"})

	first := <-h.view.states
	second := <-h.view.states
	if second.Version <= first.Version {
		t.Errorf("versions not increasing: %d then %d", first.Version, second.Version)
	}
}

func TestClosedControllerIgnoresEvents(t *testing.T) {
	h := newHarness(t, bonjour)
	if err := h.ctrl.Close(); err != nil {
		t.Fatal(err)
	}

	h.ctrl.OnPrediction(Prediction{Gesture: "hello"})
	if s := h.ctrl.State(); len(s.Sentence) != 0 {
		t.Errorf("closed controller accepted a prediction")
	}
}

func TestNewRequiresTranslator(t *testing.T) {
	if _, err := New(DefaultConfig(), nil, nil, nil); err == nil {
		t.Fatal("expected error for nil translator")
	}
}

func TestStatusLabels(t *testing.T) {
	tests := []struct {
		status Status
		label  string
		name   string
	}{
		{StatusIdle, "Idle", "idle"},
		{StatusListening, "Listening...", "listening"},
		{StatusPaused, "Paused, waiting to translate...", "paused"},
		{StatusTranslating, "Translating...", "translating"},
	}
	for _, tt := range tests {
		if tt.status.Label() != tt.label || tt.status.String() != tt.name {
			t.Errorf("%d: Label=%q String=%q", tt.status, tt.status.Label(), tt.status.String())
		}
	}
}

func TestPredictionImagePath(t *testing.T) {
	if got := (Prediction{Gesture: "dog"}).ImagePath(); got != "/static/images/dog.png" {
		t.Errorf("ImagePath = %q", got)
	}
	if got := (Prediction{}).ImagePath(); got != "" {
		t.Errorf("empty ImagePath = %q", got)
	}
}
