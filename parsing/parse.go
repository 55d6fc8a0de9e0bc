// Package parsing implements the fixed-size envelope the bridge speaks over
// TCP. Every envelope is EnvelopeSize bytes:
//
//	+--------+---------+-----------+----------+------------+
//	|  op    |  flags  |    id     |  length  |    data    |
//	| (1 B)  |  (1 B)  | (4 B, BE) |  (1 B)   |   (8 B)    |
//	+--------+---------+-----------+----------+------------+
//
// OpFrame carries a CAN frame in either direction; OpSubscribe registers the
// sending client's interest in the identifier (flags, length and data are
// ignored for subscriptions).
package parsing

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"

	"github.com/etwodev/canmux/can"
)

// EnvelopeSize is the fixed wire size of every envelope.
const EnvelopeSize = 15

const (
	// OpFrame carries one CAN frame.
	OpFrame byte = 0x01
	// OpSubscribe registers interest in the envelope's identifier.
	OpSubscribe byte = 0x02
)

// FlagRemote marks a remote transmission request.
const FlagRemote byte = 0x01

// Envelope is one decoded bridge message.
type Envelope struct {
	Op    byte
	Frame can.Frame
}

// ParseEnvelope reads exactly one envelope from the connection.
func ParseEnvelope(conn net.Conn) (*Envelope, error) {
	buf := make([]byte, EnvelopeSize)
	if _, err := io.ReadFull(conn, buf); err != nil {
		return nil, fmt.Errorf("failed to read envelope: %w", err)
	}
	return DecodeEnvelope(buf)
}

// DecodeEnvelope decodes an envelope from a buffer of at least EnvelopeSize
// bytes. Unknown ops and out-of-range lengths are decode errors.
func DecodeEnvelope(buf []byte) (*Envelope, error) {
	if len(buf) < EnvelopeSize {
		return nil, fmt.Errorf("envelope too short: %d bytes", len(buf))
	}

	op := buf[0]
	if op != OpFrame && op != OpSubscribe {
		return nil, fmt.Errorf("unknown envelope op 0x%02X", op)
	}

	length := buf[6]
	if length > can.MaxDataLength {
		return nil, fmt.Errorf("frame length %d exceeds %d bytes", length, can.MaxDataLength)
	}

	e := &Envelope{
		Op: op,
		Frame: can.Frame{
			ID:     binary.BigEndian.Uint32(buf[2:6]),
			Length: length,
			Remote: buf[1]&FlagRemote != 0,
		},
	}
	copy(e.Frame.Data[:], buf[7:7+can.MaxDataLength])
	return e, nil
}

// EncodeEnvelope encodes one envelope into a freshly allocated buffer.
func EncodeEnvelope(op byte, frame can.Frame) []byte {
	buf := make([]byte, EnvelopeSize)
	buf[0] = op
	if frame.Remote {
		buf[1] |= FlagRemote
	}
	binary.BigEndian.PutUint32(buf[2:6], frame.ID)
	length := frame.Length
	if length > can.MaxDataLength {
		length = can.MaxDataLength
	}
	buf[6] = length
	copy(buf[7:], frame.Data[:])
	return buf
}
