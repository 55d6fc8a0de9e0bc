package can

import "sync"

// Loopback is an in-process virtual bus. Frames sent on it are delivered
// straight back to the registered receive handler (self-reception), and
// Inject delivers a frame as if it arrived from a remote node. It is used by
// the bridge server for local deployments and by tests.
type Loopback struct {
	mu       sync.Mutex
	settings Settings
	handler  Handler
	on       bool
}

// NewLoopback returns a loopback bus in the bus-off state with no handler.
func NewLoopback() *Loopback {
	return &Loopback{}
}

// Configure stores the settings. A loopback has no physical bit timing, so
// any settings are accepted.
func (l *Loopback) Configure(settings Settings) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.settings = settings
	return nil
}

// Settings returns the last configured settings.
func (l *Loopback) Settings() Settings {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.settings
}

// Send delivers the frame back to the current receive handler. It fails with
// ErrBusOff until BusOn has been called.
func (l *Loopback) Send(frame Frame) error {
	l.mu.Lock()
	if !l.on {
		l.mu.Unlock()
		return ErrBusOff
	}
	handler := l.handler
	l.mu.Unlock()

	// The handler runs outside the lock so it may call Send itself.
	if handler != nil {
		handler(frame)
	}
	return nil
}

// OnReceive replaces the receive handler. It never fails.
func (l *Loopback) OnReceive(handler Handler) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handler = handler
	return nil
}

// BusOn enables transmission.
func (l *Loopback) BusOn() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.on = true
	return nil
}

// Inject delivers a frame to the receive handler as if a remote node had
// transmitted it. Unlike Send it does not require the bus to be on.
func (l *Loopback) Inject(frame Frame) {
	l.mu.Lock()
	handler := l.handler
	l.mu.Unlock()
	if handler != nil {
		handler(frame)
	}
}
