package can

import (
	"fmt"
	"strings"
)

// MaxDataLength is the payload capacity of a classic CAN data frame.
const MaxDataLength = 8

const (
	// StandardIDMask covers the 11-bit base identifier range.
	StandardIDMask uint32 = 0x7FF
	// ExtendedIDMask covers the 29-bit extended identifier range.
	ExtendedIDMask uint32 = 0x1FFFFFFF
)

// Frame represents a single CAN bus message. It is passed by value and
// treated as immutable once received from a bus.
type Frame struct {
	ID     uint32              // standard (11-bit) or extended (29-bit) identifier
	Data   [MaxDataLength]byte // payload bytes, only the first Length are meaningful
	Length uint8               // number of valid bytes in Data (0-8)
	Remote bool                // remote transmission request flag
}

// Payload returns the valid portion of the frame's data. The returned slice
// aliases the frame's storage and must not be mutated.
func (f Frame) Payload() []byte {
	n := f.Length
	if n > MaxDataLength {
		n = MaxDataLength
	}
	return f.Data[:n]
}

// Extended reports whether the identifier falls outside the standard 11-bit range.
func (f Frame) Extended() bool {
	return f.ID > StandardIDMask
}

// String provides a human-readable representation of the frame.
func (f Frame) String() string {
	formatted := make([]string, 0, f.Length)
	for _, b := range f.Payload() {
		formatted = append(formatted, fmt.Sprintf("0x%02X", b))
	}
	if f.Remote {
		return fmt.Sprintf("ID: 0x%X, RTR, Length: %d", f.ID, f.Length)
	}
	return fmt.Sprintf("ID: 0x%X, Length: %d, Data: %s", f.ID, f.Length, strings.Join(formatted, " "))
}
