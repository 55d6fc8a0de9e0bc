package canmux

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/etwodev/canmux/can"
	"github.com/etwodev/canmux/config"
	"github.com/etwodev/canmux/log"
	"github.com/etwodev/canmux/middleware"
	"github.com/etwodev/canmux/parsing"
	"github.com/etwodev/canmux/router"
	"github.com/rs/zerolog"
)

// Server bridges one CAN bus to TCP clients. Clients subscribe to the
// identifiers they care about and transmit frames onto the bus; matching
// inbound frames are forwarded back over the connection.
//
// Subscriptions go through the core router: the first client to subscribe to
// an identifier owns its route (first-match dispatch), and on disconnect the
// retained route handles are neutralized rather than removed.
type Server struct {
	listener    net.Listener
	connections map[net.Conn]struct{}
	mu          sync.Mutex // guards listener and connections
	routerMu    sync.Mutex // serializes route table mutation against dispatch
	wg          sync.WaitGroup
	quit        chan struct{}
	router      *router.Router
	middlewares []middleware.Middleware // global middleware applied on all subscriptions
	cfgOverride *config.Config
	logger      log.Logger
}

// Option allows configuring the Server during creation.
type Option func(*Server)

// WithConfig installs a configuration directly instead of loading the
// JSON config file from disk.
func WithConfig(cfg *config.Config) Option {
	return func(s *Server) {
		s.cfgOverride = cfg
	}
}

// New returns a new Server bound to the given bus. The bus registration
// happens here, exactly once; a registration failure is returned and no
// Server exists afterwards.
func New(bus can.Bus, opts ...Option) (*Server, error) {
	if bus == nil {
		return nil, errors.New("canmux: bus cannot be nil")
	}

	s := &Server{
		connections: make(map[net.Conn]struct{}),
		quit:        make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.cfgOverride != nil {
		config.Use(s.cfgOverride)
	} else if err := config.New(nil); err != nil {
		return nil, fmt.Errorf("canmux: failed to load config: %w", err)
	}

	level, err := zerolog.ParseLevel(config.LogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	format := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "2006-01-02T15:04:05"}
	baseLogger := zerolog.New(format).With().Timestamp().Str("Group", "canmux").Logger()
	s.logger = log.NewZeroLogger(baseLogger)

	// The router's dispatch runs on the bus's receive context while
	// connection goroutines mutate the route table, so every dispatch is
	// funneled through routerMu as well.
	rt, err := router.New(can.Synchronized(bus, &s.routerMu))
	if err != nil {
		return nil, err
	}
	s.router = rt

	return s, nil
}

// LoadMiddleware appends global middleware to be applied to all subscriptions.
func (s *Server) LoadMiddleware(mws []middleware.Middleware) {
	s.middlewares = append(s.middlewares, mws...)
}

// Addr returns the listener address once Start has bound it, or nil.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Start configures the bus, begins accepting connections on the configured
// TCP address and port, and blocks until Shutdown is called.
func (s *Server) Start() error {
	bus := s.router.Bus()
	settings := can.Settings{BaudRate: config.BaudRate()}
	if err := bus.Configure(settings); err != nil {
		return fmt.Errorf("failed to configure bus at %d Hz: %w", settings.BaudRate, err)
	}
	if err := bus.BusOn(); err != nil {
		return fmt.Errorf("failed to bring bus on: %w", err)
	}

	addr := net.JoinHostPort(config.Address(), config.Port())
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	s.logger.Debug().
		Str("Port", config.Port()).
		Str("Address", config.Address()).
		Uint32("BaudRate", config.BaudRate()).
		Msg("Bridge starting")

	go s.acceptLoop(listener)

	<-s.quit

	s.logger.Warn().Str("Function", "Shutdown").Msg("Shutting bridge down...")
	_ = listener.Close()
	s.closeAllConnections()
	s.wg.Wait()

	// Neutralize the bus registration so the bus never invokes a dispatch
	// path for a bridge that is gone.
	s.routerMu.Lock()
	defer s.routerMu.Unlock()
	return s.router.Close()
}

// acceptLoop continuously accepts new connections and handles them.
func (s *Server) acceptLoop(listener net.Listener) {
	sem := make(chan struct{}, config.MaxConnections())

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return
			default:
				s.logger.Error().
					Str("Function", "acceptLoop").
					Err(err).
					Msg("Accept failed")

				continue
			}
		}

		sem <- struct{}{} // acquire slot

		s.mu.Lock()
		s.connections[conn] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go func(c net.Conn) {
			defer s.wg.Done()
			defer func() {
				s.mu.Lock()
				delete(s.connections, c)
				s.mu.Unlock()
				<-sem // release slot
				_ = c.Close()
			}()

			// Set timeouts on connection if configured
			if c, ok := c.(*net.TCPConn); ok {
				if rt := config.ReadTimeout(); rt > 0 {
					_ = c.SetReadDeadline(time.Now().Add(time.Duration(rt) * time.Second))
				}
				if it := config.IdleTimeout(); it > 0 {
					_ = c.SetDeadline(time.Now().Add(time.Duration(it) * time.Second))
				}
				if config.EnableKeepAlive() {
					_ = c.SetKeepAlive(true)
				}
			}

			s.handleConnection(c)
		}(conn)
	}
}

// handleConnection reads envelopes from the connection: subscriptions
// register a forwarding route for the requested identifier, frames are
// transmitted onto the bus through the router's pass-through capability.
func (s *Server) handleConnection(conn net.Conn) {
	var writeMu sync.Mutex
	var routes []*router.Route

	defer func() {
		// No route removal exists; the handles stay valid, so forwarding
		// for a gone client is switched off through them instead.
		s.routerMu.Lock()
		for _, rt := range routes {
			rt.Handler = func(can.Frame) {}
		}
		s.routerMu.Unlock()
	}()

	for {
		envelope, err := parsing.ParseEnvelope(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.logger.Warn().
					Str("Function", "handleConnection").
					Err(err).
					Msg("Failed to parse envelope")
			}
			return
		}

		switch envelope.Op {
		case parsing.OpSubscribe:
			handler := s.forwardHandler(conn, &writeMu)

			// Apply global middleware
			for i := len(s.middlewares) - 1; i >= 0; i-- {
				mw := s.middlewares[i]
				if mw.Status() {
					handler = mw.Method()(handler)
				}
			}

			// Apply root middleware (outermost) - RUNS FIRST
			if config.EnableFrameLogging() {
				handler = middleware.NewFrameLoggingMiddleware(s.logger).Method()(handler)
			}

			s.routerMu.Lock()
			route, err := s.router.AddMessageCallback(envelope.Frame.ID, handler)
			s.routerMu.Unlock()
			if err != nil {
				s.logger.Error().
					Str("Function", "handleConnection").
					Err(err).
					Msg("Failed to register subscription")
				return
			}
			routes = append(routes, route)

			s.logger.Debug().
				Uint32("ID", route.ID()).
				Str("Remote", conn.RemoteAddr().String()).
				Msg("Registering subscription")

		case parsing.OpFrame:
			if err := s.router.Bus().Send(envelope.Frame); err != nil {
				s.logger.Warn().
					Uint32("ID", envelope.Frame.ID).
					Err(err).
					Msg("Failed to transmit frame")
			}
		}
	}
}

// forwardHandler returns the route handler that writes matching frames back
// to the subscribed client.
func (s *Server) forwardHandler(conn net.Conn, writeMu *sync.Mutex) router.HandlerFunc {
	return func(frame can.Frame) {
		buf := parsing.EncodeEnvelope(parsing.OpFrame, frame)

		writeMu.Lock()
		defer writeMu.Unlock()
		if wt := config.WriteTimeout(); wt > 0 {
			_ = conn.SetWriteDeadline(time.Now().Add(time.Duration(wt) * time.Second))
		}
		if _, err := conn.Write(buf); err != nil {
			s.logger.Warn().
				Uint32("ID", frame.ID).
				Str("Remote", conn.RemoteAddr().String()).
				Err(err).
				Msg("Failed to forward frame")
		}
	}
}

// closeAllConnections closes all active client connections.
func (s *Server) closeAllConnections() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.connections {
		_ = conn.Close()
	}
}

// Shutdown initiates a graceful shutdown, closing the listener and waiting for all active connections.
func (s *Server) Shutdown(ctx context.Context) error {
	close(s.quit)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}
