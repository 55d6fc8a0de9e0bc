package middleware

import (
	"testing"

	"github.com/etwodev/canmux/can"
	"github.com/etwodev/canmux/log"
	"github.com/etwodev/canmux/router"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewMiddleware_Metadata(t *testing.T) {
	mw := NewMiddleware(func(next router.HandlerFunc) router.HandlerFunc {
		return next
	}, "identity", true, false)

	assert.Equal(t, "identity", mw.Name())
	assert.True(t, mw.Status())
	assert.False(t, mw.Experimental())
}

func TestFrameLoggingMiddleware_CallsNext(t *testing.T) {
	logger := log.NewZeroLogger(zerolog.Nop())
	mw := NewFrameLoggingMiddleware(logger)

	var received can.Frame
	wrapped := mw.Method()(func(frame can.Frame) { received = frame })

	expected := can.Frame{ID: 0x100, Data: [8]byte{0xAA}, Length: 1}
	wrapped(expected)

	assert.Equal(t, expected, received)
	assert.Equal(t, "frame_logging", mw.Name())
	assert.True(t, mw.Status())
}
