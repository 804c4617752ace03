package socket

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Engine.IO packet types.
const (
	packetOpen    = '0'
	packetClose   = '1'
	packetPing    = '2'
	packetPong    = '3'
	packetMessage = '4'
)

// Socket.IO packet types, carried inside an Engine.IO message.
const (
	sioConnect      = '0'
	sioDisconnect   = '1'
	sioEvent        = '2'
	sioConnectError = '4'
)

var errNotEvent = errors.New("not an event packet")

// handshake is the payload of the Engine.IO open packet.
type handshake struct {
	SID          string `json:"sid"`
	PingInterval int    `json:"pingInterval"`
	PingTimeout  int    `json:"pingTimeout"`
}

// readTimeout is how long the server may stay silent before the
// connection is considered dead.
func (h handshake) readTimeout() time.Duration {
	d := time.Duration(h.PingInterval+h.PingTimeout) * time.Millisecond
	if d <= 0 {
		return 45 * time.Second
	}
	return d
}

func parseHandshake(msg []byte) (handshake, error) {
	var h handshake
	if len(msg) == 0 || msg[0] != packetOpen {
		return h, fmt.Errorf("expected open packet, got %q", truncate(msg))
	}
	if err := json.Unmarshal(msg[1:], &h); err != nil {
		return h, fmt.Errorf("invalid open packet: %w", err)
	}
	return h, nil
}

// event is a decoded Socket.IO EVENT.
type event struct {
	Name string
	Args []json.RawMessage
}

// decodeEvent decodes the body of a "42..." message, skipping an optional
// namespace and ack id: 42/ns,17["name",{...}].
func decodeEvent(msg []byte) (event, error) {
	var ev event
	if len(msg) < 2 || msg[0] != packetMessage || msg[1] != sioEvent {
		return ev, errNotEvent
	}
	body := string(msg[2:])

	if strings.HasPrefix(body, "/") {
		i := strings.IndexByte(body, ',')
		if i < 0 {
			return ev, fmt.Errorf("malformed namespace in %q", truncate(msg))
		}
		body = body[i+1:]
	}
	body = strings.TrimLeft(body, "0123456789")

	var parts []json.RawMessage
	if err := json.Unmarshal([]byte(body), &parts); err != nil {
		return ev, fmt.Errorf("invalid event payload: %w", err)
	}
	if len(parts) == 0 {
		return ev, fmt.Errorf("event without a name: %q", truncate(msg))
	}
	if err := json.Unmarshal(parts[0], &ev.Name); err != nil {
		return ev, fmt.Errorf("invalid event name: %w", err)
	}
	ev.Args = parts[1:]
	return ev, nil
}

func truncate(msg []byte) string {
	const max = 64
	if len(msg) > max {
		return string(msg[:max]) + "..."
	}
	return string(msg)
}
