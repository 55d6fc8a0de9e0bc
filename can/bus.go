package can

import "errors"

// Settings holds the bit-timing configuration applied to a controller
// through Configure.
type Settings struct {
	BaudRate uint32 // bus frequency in Hz (e.g. 125_000, 500_000, 1_000_000)
}

// Handler is the narrow callable contract for receiving frames. Any closure
// or bound method satisfying it qualifies; no interface hierarchy is needed.
//
// Handlers may be invoked from the controller's receive context (interrupt or
// polling loop) and must be short-running and non-blocking.
type Handler func(frame Frame)

// Bus is the capability interface for a CAN controller. Implementations are
// expected to hold at most one active receive handler: each OnReceive call
// fully replaces the previous registration, and the controller invokes the
// currently registered handler synchronously for every received frame.
type Bus interface {
	// Configure applies bit-timing settings to the controller.
	Configure(settings Settings) error

	// Send queues a frame for transmission on the bus.
	Send(frame Frame) error

	// OnReceive registers the receive callback, replacing any previous one.
	// It must be callable any number of times.
	OnReceive(handler Handler) error

	// BusOn transitions the controller into active bus participation.
	BusOn() error
}

var (
	// ErrNotSupported indicates an operation the controller cannot perform.
	ErrNotSupported = errors.New("can: operation not supported")

	// ErrUnknown indicates a controller failure with no further detail.
	ErrUnknown = errors.New("can: unknown failure")

	// ErrBusOff indicates the controller is not participating on the bus.
	ErrBusOff = errors.New("can: bus is off")
)
