package middleware

import "github.com/etwodev/canmux/router"

// Middleware defines the interface for canmux middleware that wraps
// router.HandlerFunc and provides metadata about the middleware such as
// name, status, and experimental flag.
//
// This interface enables middleware management, dynamic enabling/disabling, and identification.
type Middleware interface {
	// Method returns the middleware function that wraps a router.HandlerFunc.
	// The function signature is: func(router.HandlerFunc) router.HandlerFunc
	Method() func(router.HandlerFunc) router.HandlerFunc

	// Status returns true if the middleware is enabled, false otherwise.
	Status() bool

	// Experimental returns true if the middleware is experimental or unstable.
	Experimental() bool

	// Name returns the unique name of the middleware.
	Name() string
}

type middleware struct {
	method       func(router.HandlerFunc) router.HandlerFunc
	name         string
	status       bool
	experimental bool
}

func (m middleware) Method() func(router.HandlerFunc) router.HandlerFunc {
	return m.method
}

func (m middleware) Status() bool {
	return m.status
}

func (m middleware) Experimental() bool {
	return m.experimental
}

func (m middleware) Name() string {
	return m.name
}

// NewMiddleware wraps a handler-wrapping function with its metadata.
func NewMiddleware(
	method func(router.HandlerFunc) router.HandlerFunc,
	name string,
	status, experimental bool,
) Middleware {
	return middleware{
		method:       method,
		name:         name,
		status:       status,
		experimental: experimental,
	}
}
