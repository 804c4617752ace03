package speech

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/signspeak/signspeak/internal/audio"
	"github.com/signspeak/signspeak/internal/cache"
)

// Engine names accepted by New.
const (
	EngineAuto   = "auto"
	EngineESpeak = "espeak"
	EngineGTTS   = "gtts"
	EngineNone   = "none"
)

// Options selects and configures an engine.
type Options struct {
	Engine string

	// CacheDir enables the gTTS audio cache when set.
	CacheDir string
	// CacheMaxSize is the cache capacity in bytes.
	CacheMaxSize int64

	// Volume from 0.0 to 1.0; zero means full volume.
	Volume float64
}

// New creates the named engine. EngineNone yields a nil Synthesizer and no
// error. EngineAuto prefers espeak-ng and falls back to gTTS, returning
// ErrNoEngine when neither is installed.
func New(opts Options) (Synthesizer, error) {
	switch opts.Engine {
	case EngineNone:
		return nil, nil
	case EngineESpeak:
		e, err := NewESpeak(ESpeakConfig{Volume: opts.Volume})
		if err != nil {
			return nil, err
		}
		return e, nil
	case EngineGTTS:
		g, err := newGTTSWithDevice(opts)
		if err != nil {
			return nil, err
		}
		return g, nil
	case EngineAuto, "":
		e, err := NewESpeak(ESpeakConfig{Volume: opts.Volume})
		if err == nil {
			return e, nil
		}
		log.Debug("espeak unavailable", "err", err)

		g, err := newGTTSWithDevice(opts)
		if err == nil {
			return g, nil
		}
		log.Debug("gtts unavailable", "err", err)
		return nil, ErrNoEngine
	default:
		return nil, fmt.Errorf("unknown speech engine %q", opts.Engine)
	}
}

func newGTTSWithDevice(opts Options) (*GTTS, error) {
	if !installed("gtts-cli") || !installed("ffmpeg") {
		return nil, errors.New("gtts-cli and ffmpeg are required for the gtts engine")
	}

	player, err := audio.NewPlayer(audio.DefaultPlayerConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open audio device: %w", err)
	}
	if opts.Volume > 0 {
		if err := player.SetVolume(opts.Volume); err != nil {
			return nil, err
		}
	}

	cfg := GTTSConfig{Player: player}
	if opts.CacheDir != "" {
		size := opts.CacheMaxSize
		if size <= 0 {
			size = 100 << 20
		}
		dc, err := cache.NewDiskCache(opts.CacheDir, size, cache.DefaultCompressionLevel)
		if err != nil {
			log.Warn("Audio cache disabled", "err", err)
		} else {
			cfg.Cache = dc
		}
	}

	return NewGTTS(cfg)
}
