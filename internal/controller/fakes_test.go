package controller

import (
	"context"
	"sync"
	"testing"
	"time"
)

// fakeClock fires timers only when advanced.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	f       func()
	fired   bool
	stopped bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves time forward, running due callbacks in deadline order.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	for {
		var next *fakeTimer
		for _, t := range c.timers {
			if t.fired || t.stopped || t.at.After(target) {
				continue
			}
			if next == nil || t.at.Before(next.at) {
				next = t
			}
		}
		if next == nil {
			break
		}
		next.fired = true
		c.now = next.at
		c.mu.Unlock()
		next.f()
		c.mu.Lock()
	}
	c.now = target
	c.mu.Unlock()
}

// Pending counts timers that can still fire.
func (c *fakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.fired && !t.stopped {
			n++
		}
	}
	return n
}

type translateCall struct {
	text string
	lang string
}

// fakeTranslator records calls and answers through fn.
type fakeTranslator struct {
	mu    sync.Mutex
	calls []translateCall
	fn    func(ctx context.Context, text, lang string) (string, error)
}

func (f *fakeTranslator) Translate(ctx context.Context, text, lang string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, translateCall{text: text, lang: lang})
	fn := f.fn
	f.mu.Unlock()
	if fn == nil {
		return "", nil
	}
	return fn(ctx, text, lang)
}

func (f *fakeTranslator) Calls() []translateCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]translateCall, len(f.calls))
	copy(out, f.calls)
	return out
}

type fakeSpeaker struct {
	mu    sync.Mutex
	calls []translateCall
}

func (f *fakeSpeaker) Speak(text, lang string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, translateCall{text: text, lang: lang})
	return nil
}

func (f *fakeSpeaker) Calls() []translateCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]translateCall, len(f.calls))
	copy(out, f.calls)
	return out
}

// recordingView buffers every rendered snapshot.
type recordingView struct {
	states chan State
}

func newRecordingView() *recordingView {
	return &recordingView{states: make(chan State, 256)}
}

func (v *recordingView) Render(s State) {
	v.states <- s
}

// waitFor drains snapshots until cond holds.
func (v *recordingView) waitFor(t *testing.T, cond func(State) bool) State {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case s := <-v.states:
			if cond(s) {
				return s
			}
		case <-timeout:
			t.Fatal("timed out waiting for state")
			return State{}
		}
	}
}

type harness struct {
	ctrl       *Controller
	clock      *fakeClock
	translator *fakeTranslator
	speaker    *fakeSpeaker
	view       *recordingView
}

func newHarness(t *testing.T, fn func(ctx context.Context, text, lang string) (string, error)) *harness {
	t.Helper()
	h := &harness{
		clock:      newFakeClock(),
		translator: &fakeTranslator{fn: fn},
		speaker:    &fakeSpeaker{},
		view:       newRecordingView(),
	}
	cfg := DefaultConfig()
	cfg.Language = "fr"
	ctrl, err := New(cfg, h.translator, h.speaker, h.view, WithClock(h.clock))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h.ctrl = ctrl
	t.Cleanup(func() { _ = ctrl.Close() })
	return h
}
