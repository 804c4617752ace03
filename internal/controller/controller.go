package controller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/signspeak/signspeak/internal/sentence"
	"github.com/signspeak/signspeak/internal/translate"
)

// Messages shown in place of a translation.
const (
	MsgTranslationFailed = "Translation failed."
	MsgTranslationError  = "Translation error."
)

// ErrClosed is returned by operations on a closed controller.
var ErrClosed = errors.New("controller closed")

// Speaker speaks text in a language. Implementations must not block for
// the duration of the speech.
type Speaker interface {
	Speak(text, lang string) error
}

// Config holds the controller timings.
type Config struct {
	// PauseDuration is the quiet period after the last prediction that
	// triggers translation.
	PauseDuration time.Duration

	// PausedLead is how long before translation the status switches to
	// paused.
	PausedLead time.Duration

	// IdleDelay is how long after a translation resolves the status
	// returns to idle.
	IdleDelay time.Duration

	// RequestTimeout bounds a single translation request.
	RequestTimeout time.Duration

	// Language is the initial target language code.
	Language string

	// HistorySize bounds the gesture history.
	HistorySize int
}

// DefaultConfig returns the timings of the web demo the backend ships with.
func DefaultConfig() Config {
	return Config{
		PauseDuration:  2500 * time.Millisecond,
		PausedLead:     1000 * time.Millisecond,
		IdleDelay:      2000 * time.Millisecond,
		RequestTimeout: 10 * time.Second,
		Language:       "en",
		HistorySize:    sentence.DefaultHistorySize,
	}
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces the wall clock.
func WithClock(clock Clock) Option {
	return func(c *Controller) {
		c.clock = clock
	}
}

// Controller owns the sentence, the gesture history and the debounce
// timers. All methods are safe for concurrent use.
type Controller struct {
	cfg        Config
	clock      Clock
	translator translate.Translator
	speaker    Speaker
	view       View

	mu          sync.Mutex
	closed      bool
	version     uint64
	status      Status
	language    string
	gesture     Prediction
	predictions uint64
	lastEventAt time.Time
	sentence    sentence.Sentence
	history     *sentence.History
	translation string

	// Debounce: only callbacks carrying the current timerGen act.
	timerGen       uint64
	pauseTimer     Timer
	translateTimer Timer

	// Only the result of the request carrying the current requestGen is
	// applied.
	requestGen uint64
	idleTimer  Timer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a controller. speaker may be nil when speech is unavailable.
func New(cfg Config, translator translate.Translator, speaker Speaker, view View, opts ...Option) (*Controller, error) {
	if translator == nil {
		return nil, errors.New("translator cannot be nil")
	}

	def := DefaultConfig()
	if cfg.PauseDuration <= 0 {
		cfg.PauseDuration = def.PauseDuration
	}
	if cfg.PausedLead <= 0 {
		cfg.PausedLead = def.PausedLead
	}
	if cfg.IdleDelay <= 0 {
		cfg.IdleDelay = def.IdleDelay
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = def.RequestTimeout
	}
	if cfg.Language == "" {
		cfg.Language = def.Language
	}
	if view == nil {
		view = ViewFunc(func(State) {})
	}

	c := &Controller{
		cfg:        cfg,
		clock:      realClock{},
		translator: translator,
		speaker:    speaker,
		view:       view,
		status:     StatusIdle,
		language:   cfg.Language,
		history:    sentence.NewHistory(cfg.HistorySize),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())

	return c, nil
}

// OnPrediction handles a gesture pushed by the backend.
func (c *Controller) OnPrediction(p Prediction) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	c.cancelTimersLocked()
	c.status = StatusListening
	c.gesture = p
	c.predictions++
	c.lastEventAt = c.clock.Now()

	if c.sentence.Append(p.Gesture) {
		log.Debug("Sentence updated", "sentence", c.sentence.String())
	}
	c.history.Push(p.Gesture)
	c.armTimersLocked()

	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.view.Render(snap)
}

// TriggerTranslation translates the current sentence right away.
func (c *Controller) TriggerTranslation() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.startTranslationLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.view.Render(snap)
}

// SetLanguage selects a new target language and re-translates the current
// sentence immediately, regardless of any pending pause timer.
func (c *Controller) SetLanguage(code string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.language = code
	log.Debug("Language changed", "lang", code)
	c.startTranslationLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.view.Render(snap)
}

// Clear empties the sentence and the translation, cancels all pending
// timers and returns to idle.
func (c *Controller) Clear() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.sentence.Clear()
	c.translation = ""
	c.cancelTimersLocked()
	c.stopIdleTimerLocked()
	// A request still in flight belongs to the cleared sentence.
	c.requestGen++
	c.status = StatusIdle
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.view.Render(snap)
}

// SpeakGesture speaks the last recognized gesture in English.
func (c *Controller) SpeakGesture() {
	c.mu.Lock()
	gesture := c.gesture.Gesture
	c.mu.Unlock()

	c.speak(gesture, "en")
}

// SetPauseDuration changes the quiet period used by the next armed timers.
func (c *Controller) SetPauseDuration(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	c.cfg.PauseDuration = d
	c.mu.Unlock()
}

// PendingTimers reports whether a pause/translate timer pair is armed.
func (c *Controller) PendingTimers() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pauseTimer != nil || c.translateTimer != nil
}

// State returns the current snapshot without bumping its version.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buildStateLocked()
}

// Close cancels pending timers and in-flight requests and waits for them.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.cancelTimersLocked()
	c.stopIdleTimerLocked()
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
	return nil
}

func (c *Controller) armTimersLocked() {
	gen := c.timerGen
	pausedAt := c.cfg.PauseDuration - c.cfg.PausedLead
	if pausedAt < 0 {
		pausedAt = 0
	}

	c.pauseTimer = c.clock.AfterFunc(pausedAt, func() { c.onPaused(gen) })
	c.translateTimer = c.clock.AfterFunc(c.cfg.PauseDuration, func() { c.onPauseElapsed(gen) })
}

// cancelTimersLocked stops the pending pair and invalidates any callback
// that already fired but has not acquired the lock yet.
func (c *Controller) cancelTimersLocked() {
	c.timerGen++
	if c.pauseTimer != nil {
		c.pauseTimer.Stop()
		c.pauseTimer = nil
	}
	if c.translateTimer != nil {
		c.translateTimer.Stop()
		c.translateTimer = nil
	}
}

func (c *Controller) stopIdleTimerLocked() {
	if c.idleTimer != nil {
		c.idleTimer.Stop()
		c.idleTimer = nil
	}
}

func (c *Controller) onPaused(gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.timerGen {
		c.mu.Unlock()
		return
	}
	c.pauseTimer = nil
	c.status = StatusPaused
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.view.Render(snap)
}

func (c *Controller) onPauseElapsed(gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.timerGen {
		c.mu.Unlock()
		return
	}
	c.pauseTimer = nil
	c.translateTimer = nil
	c.startTranslationLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.view.Render(snap)
}

func (c *Controller) startTranslationLocked() {
	text := c.sentence.String()
	lang := c.language
	if text == "" {
		c.status = StatusIdle
		return
	}

	c.stopIdleTimerLocked()
	c.requestGen++
	gen := c.requestGen
	c.status = StatusTranslating

	log.Info("Translating", "text", text, "lang", lang, "request", gen)

	c.wg.Add(1)
	go c.translate(gen, text, lang)
}

func (c *Controller) translate(gen uint64, text, lang string) {
	defer c.wg.Done()

	ctx, cancel := context.WithTimeout(c.ctx, c.cfg.RequestTimeout)
	defer cancel()

	translated, err := c.translator.Translate(ctx, text, lang)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if gen != c.requestGen {
		c.mu.Unlock()
		log.Debug("Dropping stale translation", "request", gen, "latest", c.latestRequest())
		return
	}

	switch {
	case err == nil:
		c.translation = translated
		log.Info("Translation received", "text", translated, "lang", lang)
	case errors.Is(err, translate.ErrNoTranslation):
		c.translation = MsgTranslationFailed
		log.Warn("Translation failed", "err", err)
	default:
		c.translation = MsgTranslationError
		log.Error("Translation error", "err", err)
	}

	c.idleTimer = c.clock.AfterFunc(c.cfg.IdleDelay, func() { c.onIdle(gen) })
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.view.Render(snap)

	if err == nil {
		c.speak(translated, lang)
	}
}

func (c *Controller) onIdle(gen uint64) {
	c.mu.Lock()
	// A newer request, a clear, or a fresh prediction owns the status now.
	if c.closed || gen != c.requestGen || c.status != StatusTranslating {
		c.mu.Unlock()
		return
	}
	c.idleTimer = nil
	c.status = StatusIdle
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.view.Render(snap)
}

func (c *Controller) speak(text, lang string) {
	if c.speaker == nil || text == "" {
		return
	}
	if err := c.speaker.Speak(text, lang); err != nil {
		log.Warn("Unable to speak", "lang", lang, "err", err)
	}
}

func (c *Controller) latestRequest() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requestGen
}

// snapshotLocked bumps the version and returns the state to render.
func (c *Controller) snapshotLocked() State {
	c.version++
	return c.buildStateLocked()
}

func (c *Controller) buildStateLocked() State {
	return State{
		Version:      c.version,
		Status:       c.status,
		Language:     c.language,
		Gesture:      c.gesture,
		Predictions:  c.predictions,
		LastEventAt:  c.lastEventAt,
		Sentence:     c.sentence.Words(),
		SentenceText: c.sentence.String(),
		History:      c.history.Items(),
		Translation:  c.translation,
	}
}
