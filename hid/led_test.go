package hid_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/keybridge/hid"
)

func TestLEDState_Binary(t *testing.T) {
	tests := []struct {
		name string
		in   byte
		want hid.LEDState
	}{
		{name: "none", in: 0x00, want: hid.LEDState{}},
		{name: "caps", in: hid.LEDCapsLock, want: hid.LEDState{CapsLock: true}},
		{name: "num and scroll", in: hid.LEDNumLock | hid.LEDScrollLock, want: hid.LEDState{NumLock: true, ScrollLock: true}},
		{name: "all", in: 0x1f, want: hid.LEDState{NumLock: true, CapsLock: true, ScrollLock: true, Compose: true, Kana: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var st hid.LEDState
			require.NoError(t, st.UnmarshalBinary([]byte{tt.in}))
			assert.Equal(t, tt.want, st)

			b, err := st.MarshalBinary()
			require.NoError(t, err)
			assert.Equal(t, []byte{tt.in}, b)
		})
	}

	var st hid.LEDState
	assert.ErrorIs(t, st.UnmarshalBinary(nil), io.ErrUnexpectedEOF)
	assert.Equal(t, "none", st.String())
	assert.Equal(t, "num,caps", hid.LEDState{NumLock: true, CapsLock: true}.String())
}
