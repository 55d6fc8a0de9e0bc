// Package router multiplexes one CAN controller's receive callback into any
// number of per-identifier application handlers.
//
// The package performs no internal locking: dispatch executes on whatever
// context the bus invokes its receive callback from, and mutating the route
// table while dispatch may run concurrently requires external
// synchronization by the embedding layer.
package router

import (
	"errors"
	"fmt"

	"github.com/etwodev/canmux/can"
)

// ErrUnbound is returned when a Router that has transferred or released its
// receive registration is asked to act on it again.
var ErrUnbound = errors.New("router: instance no longer holds the receive registration")

// Router owns a route table and the receive registration of exactly one CAN
// bus. The bus is a borrowed capability: it must outlive the Router, or the
// Router must be closed before the bus goes away.
//
// A Router's identity is bound 1:1 to the bus registration, so Router values
// must not be copied; the API deals exclusively in *Router. Transfer is the
// supported way to relocate the registration and table to a fresh instance.
type Router struct {
	bus    can.Bus
	routes []*Route
	bound  bool
}

// New binds a Router to the given bus by registering its dispatch entry
// point as the bus's receive callback. If the registration fails no Router
// is returned and no partial state is left behind.
func New(bus can.Bus) (*Router, error) {
	r := &Router{bus: bus}
	if err := bus.OnReceive(r.dispatch); err != nil {
		return nil, fmt.Errorf("router: failed to register receive handler: %w", err)
	}
	r.bound = true
	return r, nil
}

// AddMessageCallback inserts a route for the given identifier and returns a
// handle to it. A nil fn installs a no-op handler so the route can be
// assigned later through the handle.
//
// Inserting a second route for an identifier that already has one is
// allowed: both entries coexist and the first-inserted route wins on
// dispatch.
func (r *Router) AddMessageCallback(id uint32, fn HandlerFunc) (*Route, error) {
	if !r.bound {
		return nil, ErrUnbound
	}
	if fn == nil {
		fn = noop
	}
	route := &Route{id: id, Handler: fn}
	r.routes = append(r.routes, route)
	return route, nil
}

// Bus returns the underlying bus capability for direct Send/Configure use.
// The Router does not wrap or intercept it; errors from the bus propagate
// to the caller unchanged. After Transfer or Close the capability is gone
// and Bus returns nil.
func (r *Router) Bus() can.Bus {
	return r.bus
}

// Size returns the number of routes in the table.
func (r *Router) Size() int {
	return len(r.routes)
}

// Routes returns the route table in insertion order, for iteration and
// introspection. The returned slice is read-only.
func (r *Router) Routes() []*Route {
	return r.routes
}

// Transfer relocates the bus registration and the route table to a new
// Router and returns it. The bus sees exactly one new registration (the new
// instance's dispatch entry point). The receiver becomes unbound: closing it
// is a no-op and any other use is rejected with ErrUnbound. There is no way
// back from unbound to bound.
//
// If re-registration fails the receiver is left untouched and still bound.
func (r *Router) Transfer() (*Router, error) {
	if !r.bound {
		return nil, ErrUnbound
	}
	next := &Router{bus: r.bus, routes: r.routes}
	if err := next.bus.OnReceive(next.dispatch); err != nil {
		return nil, fmt.Errorf("router: failed to re-register receive handler: %w", err)
	}
	next.bound = true
	r.bound = false
	r.bus = nil
	r.routes = nil
	return next, nil
}

// Close neutralizes the bus registration by installing a no-op receive
// callback, so the bus never invokes a dispatch path whose Router is gone.
// Closing an unbound (transferred) or already closed Router takes no bus
// action. Close is idempotent.
func (r *Router) Close() error {
	if !r.bound {
		return nil
	}
	r.bound = false
	bus := r.bus
	r.bus = nil
	r.routes = nil
	return bus.OnReceive(can.Handler(noop))
}

// dispatch is the bus-facing entry point: it scans the table in insertion
// order and invokes the first route matching the frame's identifier. Frames
// with no matching route are dropped.
func (r *Router) dispatch(frame can.Frame) {
	for _, route := range r.routes {
		if route.id == frame.ID {
			invoke(route.Handler, frame)
			return
		}
	}
}

// invoke shields the bus's receive context from handler panics: a panic is
// recovered and the frame dropped, since unwinding into the driver's
// delivery context (often an interrupt or event loop) is never acceptable.
func invoke(fn HandlerFunc, frame can.Frame) {
	defer func() {
		_ = recover()
	}()
	fn(frame)
}
