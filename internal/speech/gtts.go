package speech

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/signspeak/signspeak/internal/audio"
	"github.com/signspeak/signspeak/internal/cache"
	"golang.org/x/time/rate"
)

const (
	gttsMaxTextSize = 5000
	gttsTimeout     = 30 * time.Second
	ffmpegTimeout   = 15 * time.Second
)

// AudioPlayer plays 16-bit mono PCM at 44100 Hz.
type AudioPlayer interface {
	Play(pcm []byte) error
	Stop()
}

// GTTSConfig configures the gTTS engine.
type GTTSConfig struct {
	// Player is required.
	Player AudioPlayer

	// Cache stores converted PCM; optional.
	Cache *cache.DiskCache

	// Slow passes --slow to gtts-cli.
	Slow bool

	// TempDir holds intermediate MP3 files; defaults to the system temp dir.
	TempDir string

	// RequestsPerMinute limits calls to Google (defaults to 50).
	RequestsPerMinute int
}

// GTTS speaks through Google Translate's TTS endpoint via gtts-cli and
// ffmpeg.
type GTTS struct {
	*voiceList

	player  AudioPlayer
	cache   *cache.DiskCache
	slow    bool
	tempDir string
	limiter *rate.Limiter

	// synthesize is replaced in tests.
	synthesize func(ctx context.Context, text, lang string, speed float64) ([]byte, error)

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewGTTS checks that gtts-cli and ffmpeg are installed and starts loading
// the supported languages.
func NewGTTS(cfg GTTSConfig) (*GTTS, error) {
	if !installed("gtts-cli") {
		return nil, errors.New("gtts-cli not found in PATH\n\nInstall with: pip install gtts")
	}
	if !installed("ffmpeg") {
		return nil, errors.New("ffmpeg not found in PATH\n\nInstall ffmpeg for audio conversion")
	}

	g, err := newGTTS(cfg)
	if err != nil {
		return nil, err
	}
	g.load("gtts", func() ([]Voice, error) {
		ctx, cancel := context.WithTimeout(context.Background(), gttsTimeout)
		defer cancel()
		out, err := output(ctx, "gtts-cli", nil, "--all")
		if err != nil {
			return nil, err
		}
		return parseGTTSLanguages(out), nil
	})
	return g, nil
}

func newGTTS(cfg GTTSConfig) (*GTTS, error) {
	if cfg.Player == nil {
		return nil, errors.New("gtts requires an audio player")
	}
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	if err := os.MkdirAll(cfg.TempDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 50
	}

	g := &GTTS{
		voiceList: newVoiceList(),
		player:    cfg.Player,
		cache:     cfg.Cache,
		slow:      cfg.Slow,
		tempDir:   cfg.TempDir,
		limiter:   rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1),
	}
	g.synthesize = g.fetch
	return g, nil
}

// Speak synthesizes u in the background and plays it, replacing any
// earlier utterance.
func (g *GTTS) Speak(u Utterance) error {
	text := strings.TrimSpace(u.Text)
	if text == "" {
		return errors.New("text cannot be empty")
	}
	if len(text) > gttsMaxTextSize {
		return fmt.Errorf("text too long: %d characters (max %d)", len(text), gttsMaxTextSize)
	}

	lang := u.Lang
	if u.Voice != nil && u.Voice.Lang != "" {
		lang = u.Voice.Lang
	}
	if lang == "" {
		lang = "en"
	}
	speed := u.Rate
	if speed <= 0 {
		speed = 1
	}

	g.Cancel()

	ctx, cancel := context.WithCancel(context.Background())
	g.mu.Lock()
	g.cancel = cancel
	g.mu.Unlock()

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer cancel()

		key := cache.Key(text, lang, speed)
		pcm, cached, err := g.pcm(ctx, key, text, lang, speed)
		if err != nil {
			if ctx.Err() == nil {
				log.Warn("gTTS synthesis failed", "lang", lang, "err", err)
			}
			return
		}
		if ctx.Err() != nil {
			return
		}

		log.Debug("Playing", "lang", lang, "duration", audio.Duration(audio.DefaultPlayerConfig(), len(pcm)), "cached", cached)
		if err := g.player.Play(pcm); err != nil {
			log.Warn("Unable to play audio", "err", err)
			if cached {
				// Synthesize again next time.
				_ = g.cache.Delete(key)
			}
		}
	}()

	return nil
}

// pcm returns cached audio or synthesizes and caches it. cached reports
// whether the audio came from the cache.
func (g *GTTS) pcm(ctx context.Context, key, text, lang string, speed float64) (pcm []byte, cached bool, err error) {
	if g.cache != nil {
		if pcm, ok := g.cache.Get(key); ok {
			log.Debug("Audio cache hit", "lang", lang)
			return pcm, true, nil
		}
	}

	pcm, err = g.synthesize(ctx, text, lang, speed)
	if err != nil {
		return nil, false, err
	}

	if g.cache != nil {
		if err := g.cache.Put(key, pcm); err != nil {
			log.Debug("Unable to cache audio", "err", err)
		}
	}
	return pcm, false, nil
}

// fetch runs text through gtts-cli and ffmpeg.
func (g *GTTS) fetch(ctx context.Context, text, lang string, speed float64) ([]byte, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	mp3, err := g.toMP3(ctx, text, lang)
	if err != nil {
		return nil, fmt.Errorf("MP3 generation failed: %w", err)
	}

	pcm, err := g.toPCM(ctx, mp3, speed)
	if err != nil {
		return nil, fmt.Errorf("MP3 to PCM conversion failed: %w", err)
	}
	return pcm, nil
}

func (g *GTTS) toMP3(ctx context.Context, text, lang string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, gttsTimeout)
	defer cancel()

	args := []string{"-l", lang, "-o", "-"}
	if g.slow {
		args = append(args, "--slow")
	}
	// "-" reads the text from stdin.
	args = append(args, "-")

	mp3, err := output(ctx, "gtts-cli", []byte(text), args...)
	if err != nil {
		return nil, err
	}
	if len(mp3) == 0 {
		return nil, errors.New("gtts-cli produced no MP3 output")
	}
	return mp3, nil
}

func (g *GTTS) toPCM(ctx context.Context, mp3 []byte, speed float64) ([]byte, error) {
	mp3File, err := os.CreateTemp(g.tempDir, "signspeak-*.mp3")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp MP3 file: %w", err)
	}
	defer os.Remove(mp3File.Name()) //nolint:errcheck

	_, err = mp3File.Write(mp3)
	closeErr := mp3File.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to write MP3 data: %w", err)
	}
	if closeErr != nil {
		return nil, fmt.Errorf("failed to write MP3 data: %w", closeErr)
	}

	ctx, cancel := context.WithTimeout(ctx, ffmpegTimeout)
	defer cancel()

	pcm, err := output(ctx, "ffmpeg", nil, ffmpegArgs(mp3File.Name(), speed)...)
	if err != nil {
		return nil, err
	}
	if len(pcm) == 0 {
		return nil, errors.New("ffmpeg produced no PCM output")
	}
	return pcm, nil
}

// ffmpegArgs converts input to 16-bit mono PCM at 44100 Hz on stdout.
func ffmpegArgs(input string, speed float64) []string {
	args := []string{
		"-loglevel", "error",
		"-i", input,
		"-f", "s16le",
		"-ar", "44100",
		"-ac", "1",
	}
	if speed != 1.0 {
		// atempo accepts 0.5 to 2.0.
		if speed < 0.5 {
			speed = 0.5
		} else if speed > 2.0 {
			speed = 2.0
		}
		args = append(args, "-filter:a", fmt.Sprintf("atempo=%.2f", speed))
	}
	return append(args, "-")
}

// Cancel stops synthesis and playback.
func (g *GTTS) Cancel() {
	g.mu.Lock()
	cancel := g.cancel
	g.cancel = nil
	g.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	g.player.Stop()
}

// Wait blocks until the current utterance has been synthesized and
// played.
func (g *GTTS) Wait(ctx context.Context) error {
	if err := waitGroup(ctx, &g.wg); err != nil {
		return err
	}
	p, ok := g.player.(interface{ IsPlaying() bool })
	if !ok {
		return nil
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for p.IsPlaying() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// Close stops speech and releases the player and the cache.
func (g *GTTS) Close() error {
	g.Cancel()
	g.wg.Wait()

	if c, ok := g.player.(interface{ Close() error }); ok {
		_ = c.Close()
	}
	if g.cache != nil {
		if err := g.cache.Close(); err != nil {
			return fmt.Errorf("failed to close cache: %w", err)
		}
	}
	return nil
}

// parseGTTSLanguages parses `gtts-cli --all`, one "  code: Name" per line.
func parseGTTSLanguages(out []byte) []Voice {
	var voices []Voice
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		code, name, ok := strings.Cut(scanner.Text(), ":")
		code = strings.TrimSpace(code)
		if !ok || code == "" || strings.ContainsAny(code, " \t") {
			continue
		}
		voices = append(voices, Voice{Name: strings.TrimSpace(name), Lang: code})
	}
	return voices
}

var _ Synthesizer = (*GTTS)(nil)
