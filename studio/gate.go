package studio

import (
	"go.uber.org/atomic"
)

// Gate is the process-wide connectivity guard. Commands that would call the
// generation gateway check it synchronously first and fail fast with
// ErrOffline while it is closed; blocked commands are rejected, never
// queued. It is fed by the background probe in main and by the admin
// endpoint.
type Gate struct {
	online atomic.Bool
}

// NewGate returns an open gate. The process assumes connectivity until the
// probe says otherwise.
func NewGate() *Gate {
	g := &Gate{}
	g.online.Store(true)
	return g
}

// SetOnline opens or closes the gate.
func (g *Gate) SetOnline(online bool) {
	g.online.Store(online)
}

// Online reports the current gate state.
func (g *Gate) Online() bool {
	return g.online.Load()
}

// Require returns ErrOffline when the gate is closed.
func (g *Gate) Require() error {
	if !g.online.Load() {
		return ErrOffline
	}
	return nil
}
