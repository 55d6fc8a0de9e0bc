package canmux

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/etwodev/canmux/can"
	"github.com/etwodev/canmux/config"
	"github.com/etwodev/canmux/parsing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Address:         "127.0.0.1",
		Port:            "0",
		LogLevel:        "error",
		MaxConnections:  4,
		WriteTimeout:    5,
		ShutdownTimeout: 5,
		BaudRate:        500_000,
	}
}

func startServer(t *testing.T, bus can.Bus) (*Server, <-chan error) {
	t.Helper()

	s, err := New(bus, WithConfig(testConfig()))
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() { errCh <- s.Start() }()

	deadline := time.Now().Add(5 * time.Second)
	for s.Addr() == nil {
		if time.Now().After(deadline) {
			t.Fatal("server did not start listening")
		}
		time.Sleep(10 * time.Millisecond)
	}
	return s, errCh
}

func TestServer_New_NilBus(t *testing.T) {
	s, err := New(nil)

	require.Error(t, err)
	assert.Nil(t, s)
}

func TestServer_SubscribeTransmitReceive(t *testing.T) {
	bus := can.NewLoopback()
	s, errCh := startServer(t, bus)

	conn, err := net.Dial("tcp", s.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	// Subscribe to 0x100, then transmit a frame for an unsubscribed
	// identifier followed by one for 0x100. The loopback bus echoes both;
	// only the subscribed frame must come back.
	_, err = conn.Write(parsing.EncodeEnvelope(parsing.OpSubscribe, can.Frame{ID: 0x100}))
	require.NoError(t, err)

	unmatched := can.Frame{ID: 0x200, Data: [8]byte{0x01}, Length: 1}
	expected := can.Frame{ID: 0x100, Data: [8]byte{0xAA, 0xBB}, Length: 2}
	_, err = conn.Write(parsing.EncodeEnvelope(parsing.OpFrame, unmatched))
	require.NoError(t, err)
	_, err = conn.Write(parsing.EncodeEnvelope(parsing.OpFrame, expected))
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	envelope, err := parsing.ParseEnvelope(conn)
	require.NoError(t, err)
	assert.Equal(t, parsing.OpFrame, envelope.Op)
	assert.Equal(t, expected, envelope.Frame)

	// The bus was configured and brought on at startup.
	assert.Equal(t, can.Settings{BaudRate: 500_000}, bus.Settings())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	assert.NoError(t, <-errCh)
}

func TestServer_InjectedFramesReachSubscriber(t *testing.T) {
	bus := can.NewLoopback()
	s, errCh := startServer(t, bus)

	conn, err := net.Dial("tcp", s.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write(parsing.EncodeEnvelope(parsing.OpSubscribe, can.Frame{ID: 0x123}))
	require.NoError(t, err)

	// Wait for the subscription to land before injecting: the loopback
	// echo of a sentinel transmit proves the subscribe was processed.
	sentinel := can.Frame{ID: 0x123, Data: [8]byte{0x00}, Length: 1}
	_, err = conn.Write(parsing.EncodeEnvelope(parsing.OpFrame, sentinel))
	require.NoError(t, err)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, err = parsing.ParseEnvelope(conn)
	require.NoError(t, err)

	// A frame from a "remote node" now reaches the subscriber.
	expected := can.Frame{ID: 0x123, Data: [8]byte{0xEE, 0xFF}, Length: 2}
	bus.Inject(expected)

	envelope, err := parsing.ParseEnvelope(conn)
	require.NoError(t, err)
	assert.Equal(t, expected, envelope.Frame)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	assert.NoError(t, <-errCh)
}
