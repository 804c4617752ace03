package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/signspeak/signspeak/internal/controller"
	"github.com/signspeak/signspeak/internal/prefs"
	"github.com/signspeak/signspeak/internal/socket"
	"github.com/signspeak/signspeak/internal/speech"
	"github.com/signspeak/signspeak/internal/translate"
	"github.com/signspeak/signspeak/ui"
	"github.com/spf13/viper"
)

// run wires the socket client, the controller and the interface together
// and blocks until the user quits or a signal arrives.
func run(parent context.Context, s settings) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if s.headless {
		logToStderr(s.debug)
	}

	translator, err := newTranslator(s)
	if err != nil {
		return err
	}

	speaker := newSpeaker(s)
	defer speaker.Close() //nolint:errcheck

	var (
		view     controller.View
		bridge   *ui.Bridge
		onStatus func(bool, error)
	)
	if s.headless {
		hv := newHeadlessView(os.Stdout)
		view = hv
		onStatus = hv.Connection
	} else {
		bridge = ui.NewBridge()
		view = bridge
		onStatus = bridge.Connection
	}

	cfg := controller.DefaultConfig()
	cfg.PauseDuration = s.pause
	cfg.Language = s.language
	ctrl, err := controller.New(cfg, translator, speaker, view)
	if err != nil {
		return fmt.Errorf("unable to create controller: %w", err)
	}
	defer ctrl.Close() //nolint:errcheck

	watchConfig(ctrl)

	client, err := socket.NewClient(socket.Config{
		ServerURL: s.server,
		OnPrediction: func(p socket.Prediction) {
			ctrl.OnPrediction(controller.Prediction{Gesture: p.Gesture, Confidence: p.Confidence})
		},
		OnStatus: onStatus,
	})
	if err != nil {
		return fmt.Errorf("unable to create socket client: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Info("Connecting to prediction server", "url", client.URL())
		_ = client.Run(ctx)
	}()

	if s.headless {
		<-ctx.Done()
		log.Info("Shutting down")
	} else if err := runTUI(ctx, s, ctrl, bridge, speaker); err != nil {
		cancel()
		<-done
		return err
	}

	cancel()
	<-done
	return nil
}

func runTUI(ctx context.Context, s settings, ctrl *controller.Controller, bridge *ui.Bridge, speaker *speech.Speaker) error {
	// Read environment to get UI tweaks
	cfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}
	cfg.Languages = s.languages
	cfg.Server = s.server
	cfg.SpeechEngine = s.speechEngine
	if !speaker.Available() {
		cfg.SpeechEngine = speech.EngineNone
	}

	store := prefs.Open("")
	if path, err := prefs.DefaultPath(); err != nil {
		log.Warn("Preferences will not be saved", "err", err)
	} else {
		store = prefs.Open(path)
	}

	p := ui.NewProgram(cfg, ctrl, store)
	bridge.Attach(p)

	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}
	return nil
}

func newTranslator(s settings) (translate.Translator, error) {
	switch s.translator {
	case translatorOpenAI:
		t, err := translate.NewOpenAITranslator(os.Getenv("OPENAI_API_KEY"), s.openAIModel)
		if err != nil {
			return nil, fmt.Errorf("unable to create translator: %w", err)
		}
		return t, nil
	default:
		c, err := translate.NewClient(translate.ClientConfig{BaseURL: s.server})
		if err != nil {
			return nil, fmt.Errorf("unable to create translator: %w", err)
		}
		return c, nil
	}
}

// newSpeaker never fails: without an engine, speech is silently skipped.
func newSpeaker(s settings) *speech.Speaker {
	synth, err := speech.New(speech.Options{
		Engine:       s.speechEngine,
		CacheDir:     s.cacheDir,
		CacheMaxSize: s.cacheMaxSize,
		Volume:       s.speechVolume,
	})
	switch {
	case errors.Is(err, speech.ErrNoEngine):
		log.Warn("Speech disabled: install espeak-ng, or gtts-cli and ffmpeg")
	case err != nil:
		log.Warn("Speech disabled", "engine", s.speechEngine, "err", err)
	case synth == nil:
		log.Info("Speech disabled")
	default:
		log.Debug("Speech enabled", "engine", fmt.Sprintf("%T", synth))
	}
	if err != nil {
		synth = nil
	}
	return speech.NewSpeaker(synth, s.speechRate)
}

// watchConfig applies a changed pause to the next armed timers.
func watchConfig(ctrl *controller.Controller) {
	if viper.ConfigFileUsed() == "" {
		return
	}
	viper.OnConfigChange(func(e fsnotify.Event) {
		log.Info("Configuration changed", "file", e.Name)
		if err := reloadPause(ctrl, viper.GetDuration("pause")); err != nil {
			log.Warn("Ignoring configured pause", "err", err)
		}
	})
	viper.WatchConfig()
}

type pauseSetter interface {
	SetPauseDuration(time.Duration)
}

// reloadPause applies pause unless it is out of bounds.
func reloadPause(ctrl pauseSetter, pause time.Duration) error {
	if err := validatePause(pause); err != nil {
		return err
	}
	log.Info("Pause changed", "pause", pause)
	ctrl.SetPauseDuration(pause)
	return nil
}
