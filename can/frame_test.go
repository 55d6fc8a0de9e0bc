package can

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrame_Payload(t *testing.T) {
	f := Frame{ID: 0x111, Data: [8]byte{0xAA, 0xBB, 0xCC, 0xDD}, Length: 3}

	assert.Equal(t, []byte{0xAA, 0xBB, 0xCC}, f.Payload())
}

func TestFrame_PayloadClampsLength(t *testing.T) {
	f := Frame{ID: 0x111, Length: 12}

	assert.Len(t, f.Payload(), MaxDataLength)
}

func TestFrame_Extended(t *testing.T) {
	tests := []struct {
		name     string
		id       uint32
		extended bool
	}{
		{name: "standard", id: 0x7FF, extended: false},
		{name: "extended", id: 0x800, extended: true},
		{name: "max_extended", id: ExtendedIDMask, extended: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Frame{ID: tt.id}
			assert.Equal(t, tt.extended, f.Extended())
		})
	}
}

func TestFrame_String(t *testing.T) {
	f := Frame{ID: 0x111, Data: [8]byte{0xAA, 0xBB, 0xCC}, Length: 3}
	assert.Equal(t, "ID: 0x111, Length: 3, Data: 0xAA 0xBB 0xCC", f.String())

	remote := Frame{ID: 0x120, Length: 2, Remote: true}
	assert.Equal(t, "ID: 0x120, RTR, Length: 2", remote.String())
}
