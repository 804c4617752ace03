package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
)

const (
	translatePath = "/translate"

	// maxResponseSize bounds the body read from the backend.
	maxResponseSize = 1 << 20
)

// ClientConfig configures the backend translation client.
type ClientConfig struct {
	// BaseURL of the prediction backend, e.g. http://127.0.0.1:5000.
	BaseURL string

	// Timeout for a single request (defaults to 10s).
	Timeout time.Duration

	// HTTPClient overrides the default HTTP client.
	HTTPClient *http.Client

	// MaxFailures is the number of consecutive transport failures that
	// opens the circuit (defaults to 5).
	MaxFailures uint32

	// OpenTimeout is how long the circuit stays open (defaults to 30s).
	OpenTimeout time.Duration
}

// Client posts sentences to the backend's /translate endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

type translateRequest struct {
	Text       string `json:"text"`
	TargetLang string `json:"target_lang"`
}

type translateResponse struct {
	TranslatedText string `json:"translated_text"`
	Error          string `json:"error,omitempty"`
}

// NewClient creates a backend translation client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base URL cannot be empty")
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%s is not a supported protocol", u.Scheme)
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.OpenTimeout == 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	maxFailures := cfg.MaxFailures
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "translate",
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		// A reachable backend that simply had nothing to say is healthy.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNoTranslation)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Translation circuit changed state", "name", name, "from", from.String(), "to", to.String())
		},
	})

	return &Client{
		endpoint:   strings.TrimRight(u.String(), "/") + translatePath,
		httpClient: httpClient,
		breaker:    breaker,
	}, nil
}

// Endpoint returns the full URL requests are posted to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Translate posts text and targetLang to the backend. It issues at most one
// request and never retries. While the circuit is open it sends nothing and
// returns an *Error with ErrorCodeUnavailable.
func (c *Client) Translate(ctx context.Context, text, targetLang string) (string, error) {
	if err := validate(text, targetLang); err != nil {
		return "", err
	}

	requestID := uuid.NewString()
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.do(ctx, requestID, text, targetLang)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			e := newError(ErrorCodeUnavailable, "translation backend unavailable", err)
			e.RequestID = requestID
			return "", e
		}
		return "", err
	}
	return out.(string), nil
}

func (c *Client) do(ctx context.Context, requestID, text, targetLang string) (string, error) {
	body, err := json.Marshal(translateRequest{Text: text, TargetLang: targetLang})
	if err != nil {
		return "", fmt.Errorf("unable to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("unable to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		e := newError(ErrorCodeNetwork, "request failed", err)
		e.RequestID = requestID
		return "", e
	}
	defer resp.Body.Close() //nolint:errcheck

	log.Debug("Translation response", "id", requestID, "status", resp.StatusCode, "took", time.Since(start))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		e := newError(ErrorCodeNetwork, "unable to read response", err)
		e.RequestID = requestID
		e.StatusCode = resp.StatusCode
		return "", e
	}

	// The backend answers errors with JSON too, so the status code alone
	// does not decide the outcome.
	var out translateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		e := newError(ErrorCodeDecode, "unable to decode response", err)
		e.RequestID = requestID
		e.StatusCode = resp.StatusCode
		return "", e
	}

	if out.TranslatedText == "" {
		if out.Error != "" {
			return "", fmt.Errorf("%w: %s (status %d)", ErrNoTranslation, out.Error, resp.StatusCode)
		}
		return "", fmt.Errorf("%w (status %d)", ErrNoTranslation, resp.StatusCode)
	}

	return out.TranslatedText, nil
}

var _ Translator = (*Client)(nil)
