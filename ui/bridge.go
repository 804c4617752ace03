package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/signspeak/signspeak/internal/controller"
)

// Bridge forwards controller snapshots and connection changes into a
// running program. It can be handed to the controller before the program
// exists; anything sent before Attach is dropped and the model reads the
// current state on start.
type Bridge struct {
	mu      sync.RWMutex
	program *tea.Program
}

// NewBridge returns a detached bridge.
func NewBridge() *Bridge {
	return &Bridge{}
}

// Attach connects the bridge to p.
func (b *Bridge) Attach(p *tea.Program) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.program = p
}

// Render implements controller.View.
func (b *Bridge) Render(s controller.State) {
	b.send(stateMsg(s))
}

// Connection reports the prediction server connection state.
func (b *Bridge) Connection(connected bool, err error) {
	b.send(connMsg{connected: connected, err: err})
}

func (b *Bridge) send(msg tea.Msg) {
	b.mu.RLock()
	p := b.program
	b.mu.RUnlock()
	if p != nil {
		p.Send(msg)
	}
}

var _ controller.View = (*Bridge)(nil)
