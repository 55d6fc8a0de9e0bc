// Package engine provides a gnet-backed variant of the bridge for
// deployments that prefer one event loop over a goroutine per connection.
// It speaks the same envelope protocol as the root Server.
package engine

import (
	"context"
	"os"
	"sync"
	"sync/atomic"

	"github.com/etwodev/canmux/can"
	"github.com/etwodev/canmux/parsing"
	"github.com/etwodev/canmux/router"
	"github.com/panjf2000/gnet/v2"
	"github.com/rs/zerolog"
)

var log = zerolog.New(zerolog.ConsoleWriter{
	Out:        os.Stdout,
	TimeFormat: "2006-01-02T15:04:05",
}).With().Timestamp().Str("Group", "canmux-engine").Logger()

// connState carries the route handles owned by one connection. It is only
// touched from the connection's event loop.
type connState struct {
	routes []*router.Route
}

// Bridge is a gnet event handler multiplexing one CAN bus to socket clients.
type Bridge struct {
	gnet.BuiltinEventEngine
	Engine            gnet.Engine
	ActiveConnections int64
	MaxConnections    int64

	mu     sync.Mutex
	router *router.Router
}

// NewBridge binds a Bridge to the given bus. As with router.New, a failed
// receive registration means no Bridge exists afterwards.
func NewBridge(bus can.Bus, maxConnections int) (*Bridge, error) {
	b := &Bridge{MaxConnections: int64(maxConnections)}
	r, err := router.New(can.Synchronized(bus, &b.mu))
	if err != nil {
		return nil, err
	}
	b.router = r
	return b, nil
}

// Run starts the event loop on the given proto address (e.g. "tcp://:29536")
// and blocks until the engine stops.
func (b *Bridge) Run(protoAddr string, opts ...gnet.Option) error {
	return gnet.Run(b, protoAddr, opts...)
}

// Stop shuts the engine down and neutralizes the bus registration.
func (b *Bridge) Stop(ctx context.Context) error {
	if err := b.Engine.Stop(ctx); err != nil {
		return err
	}
	return b.router.Close()
}

func (b *Bridge) OnBoot(eng gnet.Engine) gnet.Action {
	b.Engine = eng
	return gnet.None
}

func (b *Bridge) OnOpen(c gnet.Conn) ([]byte, gnet.Action) {
	if atomic.LoadInt64(&b.ActiveConnections) >= b.MaxConnections {
		return nil, gnet.Close
	}
	atomic.AddInt64(&b.ActiveConnections, 1)
	c.SetContext(&connState{})
	return nil, gnet.None
}

func (b *Bridge) OnClose(c gnet.Conn, err error) gnet.Action {
	atomic.AddInt64(&b.ActiveConnections, -1)

	if state, ok := c.Context().(*connState); ok {
		b.mu.Lock()
		for _, rt := range state.routes {
			rt.Handler = func(can.Frame) {}
		}
		b.mu.Unlock()
	}
	return gnet.None
}

func (b *Bridge) OnTraffic(c gnet.Conn) gnet.Action {
	for c.InboundBuffered() >= parsing.EnvelopeSize {
		buf, err := c.Next(parsing.EnvelopeSize)
		if err != nil {
			log.Warn().
				Err(err).
				Str("remote", c.RemoteAddr().String()).
				Msg("failed to read envelope from connection")

			return gnet.Close
		}

		envelope, err := parsing.DecodeEnvelope(buf)
		if err != nil {
			log.Warn().
				Err(err).
				Str("remote", c.RemoteAddr().String()).
				Msg("failed to decode envelope")

			return gnet.Close
		}

		switch envelope.Op {
		case parsing.OpSubscribe:
			state, ok := c.Context().(*connState)
			if !ok {
				return gnet.Close
			}

			b.mu.Lock()
			route, err := b.router.AddMessageCallback(envelope.Frame.ID, b.forwardHandler(c))
			b.mu.Unlock()
			if err != nil {
				log.Error().
					Err(err).
					Str("remote", c.RemoteAddr().String()).
					Msg("failed to register subscription")

				return gnet.Close
			}
			state.routes = append(state.routes, route)

		case parsing.OpFrame:
			if err := b.router.Bus().Send(envelope.Frame); err != nil {
				log.Warn().
					Err(err).
					Uint32("id", envelope.Frame.ID).
					Msg("failed to transmit frame")
			}
		}
	}
	return gnet.None
}

// forwardHandler writes matching frames back to the subscribed client.
// AsyncWrite is used because dispatch may run outside the event loop.
func (b *Bridge) forwardHandler(c gnet.Conn) router.HandlerFunc {
	return func(frame can.Frame) {
		if err := c.AsyncWrite(parsing.EncodeEnvelope(parsing.OpFrame, frame), nil); err != nil {
			log.Warn().
				Err(err).
				Uint32("id", frame.ID).
				Msg("failed to forward frame")
		}
	}
}
