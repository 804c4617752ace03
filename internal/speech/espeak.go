package speech

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// ESpeak speed limits in words per minute.
const (
	espeakDefaultSpeed = 175
	espeakMinSpeed     = 80
	espeakMaxSpeed     = 450

	// Amplitude at full volume; espeak accepts up to 200.
	espeakFullAmplitude = 100
)

// ESpeakConfig configures the espeak-ng engine.
type ESpeakConfig struct {
	// Binary defaults to espeak-ng, falling back to espeak.
	Binary string

	// Speed in words per minute at rate 1.
	Speed int

	// Volume from 0.0 to 1.0; zero means full volume.
	Volume float64
}

// ESpeak speaks through the espeak-ng command line tool.
type ESpeak struct {
	*voiceList

	binary    string
	speed     int
	amplitude int // 0 leaves the espeak default

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewESpeak checks that espeak is installed and starts loading voices.
func NewESpeak(cfg ESpeakConfig) (*ESpeak, error) {
	if cfg.Binary == "" {
		for _, name := range []string{"espeak-ng", "espeak"} {
			if installed(name) {
				cfg.Binary = name
				break
			}
		}
	}
	if cfg.Binary == "" || !installed(cfg.Binary) {
		return nil, errors.New("espeak-ng not found in PATH\n\nInstall with: apt install espeak-ng")
	}
	if cfg.Speed <= 0 {
		cfg.Speed = espeakDefaultSpeed
	}

	if cfg.Volume < 0 || cfg.Volume > 1 {
		return nil, fmt.Errorf("volume must be between 0.0 and 1.0, got %f", cfg.Volume)
	}

	e := &ESpeak{
		voiceList: newVoiceList(),
		binary:    cfg.Binary,
		speed:     cfg.Speed,
	}
	if cfg.Volume > 0 && cfg.Volume < 1 {
		e.amplitude = int(cfg.Volume * espeakFullAmplitude)
	}
	e.load("espeak", func() ([]Voice, error) {
		out, err := output(context.Background(), e.binary, nil, "--voices")
		if err != nil {
			return nil, err
		}
		return parseESpeakVoices(out), nil
	})

	return e, nil
}

// Speak starts espeak for u, stopping any earlier utterance.
func (e *ESpeak) Speak(u Utterance) error {
	if strings.TrimSpace(u.Text) == "" {
		return errors.New("text cannot be empty")
	}

	e.Cancel()

	ctx, cancel := context.WithCancel(context.Background())
	cmd := command(ctx, e.binary, e.args(u)...)
	cmd.Stdin = strings.NewReader(u.Text)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("failed to start %s: %w", e.binary, err)
	}

	e.mu.Lock()
	e.cancel = cancel
	e.mu.Unlock()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer cancel()
		if err := cmd.Wait(); err != nil && ctx.Err() == nil {
			log.Warn("espeak failed", "err", err, "stderr", stderr.String())
		}
	}()

	return nil
}

func (e *ESpeak) args(u Utterance) []string {
	voice := u.Lang
	if u.Voice != nil && u.Voice.Lang != "" {
		voice = u.Voice.Lang
	}

	rate := u.Rate
	if rate <= 0 {
		rate = 1
	}
	speed := int(float64(e.speed) * rate)
	if speed < espeakMinSpeed {
		speed = espeakMinSpeed
	} else if speed > espeakMaxSpeed {
		speed = espeakMaxSpeed
	}

	args := []string{"-s", strconv.Itoa(speed)}
	if e.amplitude > 0 {
		args = append(args, "-a", strconv.Itoa(e.amplitude))
	}
	if voice != "" {
		args = append(args, "-v", voice)
	}
	return append(args, "--stdin")
}

// Cancel stops the current utterance.
func (e *ESpeak) Cancel() {
	e.mu.Lock()
	cancel := e.cancel
	e.cancel = nil
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Wait blocks until the current utterance has been spoken.
func (e *ESpeak) Wait(ctx context.Context) error {
	return waitGroup(ctx, &e.wg)
}

// Close stops speech and waits for the subprocess to exit.
func (e *ESpeak) Close() error {
	e.Cancel()
	e.wg.Wait()
	return nil
}

// parseESpeakVoices parses the table printed by `espeak-ng --voices`:
//
//	Pty Language       Age/Gender VoiceName          File          Other Languages
//	 5  af              --/M      Afrikaans          gmw/af
func parseESpeakVoices(out []byte) []Voice {
	var voices []Voice
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 || fields[0] == "Pty" {
			continue
		}
		if _, err := strconv.Atoi(fields[0]); err != nil {
			continue
		}
		voices = append(voices, Voice{
			Name: strings.ReplaceAll(fields[3], "_", " "),
			Lang: fields[1],
		})
	}
	return voices
}

var _ Synthesizer = (*ESpeak)(nil)
