package socket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// PredictionEvent is the event the backend emits for each recognized
// gesture.
const PredictionEvent = "new_prediction"

// Prediction is the payload of a new_prediction event. Confidence is a
// percentage.
type Prediction struct {
	Gesture    string  `json:"gesture"`
	Confidence float64 `json:"confidence"`
}

// Config configures a Client.
type Config struct {
	// ServerURL is the backend's base URL, e.g. http://127.0.0.1:5000.
	ServerURL string

	// OnPrediction is called, in arrival order, for every prediction.
	OnPrediction func(Prediction)

	// OnStatus is called when the connection comes up (err == nil) or
	// goes down.
	OnStatus func(connected bool, err error)

	// ReconnectInterval is the minimum time between connection attempts.
	ReconnectInterval time.Duration

	Dialer *websocket.Dialer
}

// Client keeps a Socket.IO connection open and dispatches predictions.
type Client struct {
	cfg     Config
	url     string
	limiter *rate.Limiter

	writeMu sync.Mutex
}

// NewClient validates cfg and builds the websocket URL.
func NewClient(cfg Config) (*Client, error) {
	if cfg.OnPrediction == nil {
		return nil, errors.New("prediction handler cannot be nil")
	}
	wsURL, err := socketURL(cfg.ServerURL)
	if err != nil {
		return nil, err
	}
	if cfg.ReconnectInterval <= 0 {
		cfg.ReconnectInterval = 2 * time.Second
	}
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}
	if cfg.OnStatus == nil {
		cfg.OnStatus = func(bool, error) {}
	}

	return &Client{
		cfg:     cfg,
		url:     wsURL,
		limiter: rate.NewLimiter(rate.Every(cfg.ReconnectInterval), 1),
	}, nil
}

// URL returns the websocket endpoint.
func (c *Client) URL() string {
	return c.url
}

// Run connects and reconnects until ctx is done.
func (c *Client) Run(ctx context.Context) error {
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return ctx.Err()
		}

		err := c.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn("Disconnected from prediction server", "url", c.url, "err", err)
		c.cfg.OnStatus(false, err)
	}
}

// session runs one connection until it fails or ctx is done.
func (c *Client) session(ctx context.Context) error {
	conn, _, err := c.cfg.Dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.url, err)
	}
	defer conn.Close() //nolint:errcheck

	stop := context.AfterFunc(ctx, func() {
		c.writeMu.Lock()
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "client shutdown"))
		c.writeMu.Unlock()
		_ = conn.Close()
	})
	defer stop()

	_, msg, err := conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("failed to read handshake: %w", err)
	}
	hs, err := parseHandshake(msg)
	if err != nil {
		return err
	}
	timeout := hs.readTimeout()

	if err := c.write(conn, string(packetMessage)+string(sioConnect)); err != nil {
		return fmt.Errorf("failed to join namespace: %w", err)
	}

	for {
		_ = conn.SetReadDeadline(time.Now().Add(timeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return errors.New("server closed the connection")
			}
			return err
		}
		if err := c.handle(conn, msg); err != nil {
			return err
		}
	}
}

// handle processes one packet. Only errors that end the session are
// returned.
func (c *Client) handle(conn *websocket.Conn, msg []byte) error {
	if len(msg) == 0 {
		return nil
	}

	switch msg[0] {
	case packetPing:
		return c.write(conn, string(packetPong)+string(msg[1:]))
	case packetClose:
		return errors.New("server closed the session")
	case packetMessage:
	default:
		return nil
	}

	if len(msg) < 2 {
		return nil
	}
	switch msg[1] {
	case sioConnect:
		log.Info("Connected to prediction server", "url", c.url)
		c.cfg.OnStatus(true, nil)
	case sioConnectError:
		return fmt.Errorf("namespace connect refused: %s", truncate(msg[2:]))
	case sioDisconnect:
		return errors.New("server left the namespace")
	case sioEvent:
		c.dispatch(msg)
	}
	return nil
}

func (c *Client) dispatch(msg []byte) {
	ev, err := decodeEvent(msg)
	if err != nil {
		log.Warn("Dropping malformed event", "err", err)
		return
	}
	if ev.Name != PredictionEvent {
		log.Debug("Ignoring event", "name", ev.Name)
		return
	}
	if len(ev.Args) == 0 {
		log.Warn("Dropping prediction without payload")
		return
	}

	var p Prediction
	if err := json.Unmarshal(ev.Args[0], &p); err != nil {
		log.Warn("Dropping malformed prediction", "err", err)
		return
	}
	p.Gesture = strings.TrimSpace(p.Gesture)
	if p.Gesture == "" {
		log.Warn("Dropping prediction without gesture")
		return
	}

	log.Debug("Prediction", "gesture", p.Gesture, "confidence", p.Confidence)
	c.cfg.OnPrediction(p)
}

func (c *Client) write(conn *websocket.Conn, s string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, []byte(s))
}

// socketURL turns an http(s) base URL into the Socket.IO websocket
// endpoint.
func socketURL(server string) (string, error) {
	u, err := url.Parse(server)
	if err != nil {
		return "", fmt.Errorf("failed to parse server URL: %w", err)
	}

	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported server URL scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("server URL %q has no host", server)
	}

	u.Path = strings.TrimSuffix(u.Path, "/") + "/socket.io/"
	u.RawQuery = url.Values{"EIO": {"4"}, "transport": {"websocket"}}.Encode()
	return u.String(), nil
}
