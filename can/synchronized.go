package can

import "sync"

type synchronizedBus struct {
	inner Bus
	mu    *sync.Mutex
}

// Synchronized decorates a bus so the registered receive callback always
// runs under the given mutex. A layer that mutates routing state from other
// goroutines can take the same mutex to satisfy a router's single-context
// access constraint.
func Synchronized(bus Bus, mu *sync.Mutex) Bus {
	return synchronizedBus{inner: bus, mu: mu}
}

func (b synchronizedBus) Configure(settings Settings) error { return b.inner.Configure(settings) }

func (b synchronizedBus) Send(frame Frame) error { return b.inner.Send(frame) }

func (b synchronizedBus) BusOn() error { return b.inner.BusOn() }

func (b synchronizedBus) OnReceive(handler Handler) error {
	return b.inner.OnReceive(func(frame Frame) {
		b.mu.Lock()
		defer b.mu.Unlock()
		handler(frame)
	})
}
