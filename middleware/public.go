package middleware

import (
	"github.com/etwodev/canmux/can"
	"github.com/etwodev/canmux/log"
	"github.com/etwodev/canmux/router"
)

// NewFrameLoggingMiddleware logs every frame reaching the wrapped handler.
func NewFrameLoggingMiddleware(logger log.Logger) Middleware {
	return NewMiddleware(func(next router.HandlerFunc) router.HandlerFunc {
		return func(frame can.Frame) {
			logger.Debug().
				Uint32("ID", frame.ID).
				Uint8("Length", frame.Length).
				Bool("Remote", frame.Remote).
				Msg("Dispatching frame")

			next(frame)
		}
	}, "frame_logging", true, false)
}
