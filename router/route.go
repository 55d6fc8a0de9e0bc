package router

import "github.com/etwodev/canmux/can"

// HandlerFunc processes one received frame. Handlers run synchronously on
// whatever context the bus delivers frames from, so they must be
// short-running and non-blocking.
type HandlerFunc func(frame can.Frame)

// noop is the concrete do-nothing handler. Representing "no handler" as a
// callable avoids a nil check on every dispatch.
func noop(can.Frame) {}

// Route is a stored association between one identifier and one handler.
//
// A *Route returned by AddMessageCallback stays valid until the owning
// Router is closed: routes are allocated individually and the table only
// ever holds pointers to them, so table growth never relocates a Route.
type Route struct {
	id uint32

	// Handler may be reassigned at any time through a retained handle.
	// This is the only mutation a handle grants; the identifier and the
	// table structure are owned by the Router.
	Handler HandlerFunc
}

// ID returns the identifier this route matches.
func (r *Route) ID() uint32 {
	return r.id
}
