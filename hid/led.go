package hid

import (
	"io"
	"strings"
)

// LED bitmasks of the keyboard output report.
const (
	LEDNumLock    = 0x01
	LEDCapsLock   = 0x02
	LEDScrollLock = 0x04
	LEDCompose    = 0x08
	LEDKana       = 0x10
)

// LEDState is the lock-light state set by the remote host.
type LEDState struct {
	NumLock    bool `json:"numLock"`
	CapsLock   bool `json:"capsLock"`
	ScrollLock bool `json:"scrollLock"`
	Compose    bool `json:"compose"`
	Kana       bool `json:"kana"`
}

// UnmarshalBinary decodes a 1-byte LED bitmask.
func (st *LEDState) UnmarshalBinary(data []byte) error {
	if len(data) < 1 {
		return io.ErrUnexpectedEOF
	}
	b := data[0]
	st.NumLock = b&LEDNumLock != 0
	st.CapsLock = b&LEDCapsLock != 0
	st.ScrollLock = b&LEDScrollLock != 0
	st.Compose = b&LEDCompose != 0
	st.Kana = b&LEDKana != 0
	return nil
}

// MarshalBinary encodes the 1-byte LED bitmask.
func (st LEDState) MarshalBinary() ([]byte, error) {
	var b byte
	if st.NumLock {
		b |= LEDNumLock
	}
	if st.CapsLock {
		b |= LEDCapsLock
	}
	if st.ScrollLock {
		b |= LEDScrollLock
	}
	if st.Compose {
		b |= LEDCompose
	}
	if st.Kana {
		b |= LEDKana
	}
	return []byte{b}, nil
}

func (st LEDState) String() string {
	var on []string
	for _, l := range []struct {
		name string
		set  bool
	}{
		{"num", st.NumLock},
		{"caps", st.CapsLock},
		{"scroll", st.ScrollLock},
		{"compose", st.Compose},
		{"kana", st.Kana},
	} {
		if l.set {
			on = append(on, l.name)
		}
	}
	if len(on) == 0 {
		return "none"
	}
	return strings.Join(on, ",")
}
