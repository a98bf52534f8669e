// Package hid models the keyboard side of the HID protocol: usage codes,
// the modifier byte, and the full-state keyboard report.
package hid

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// DefaultMaxKeys is the boot-protocol limit of simultaneously reported keys.
const DefaultMaxKeys = 6

// ErrKeyLimitExceeded is returned when adding a key would grow a report past
// its key limit. The report is left unchanged.
var ErrKeyLimitExceeded = errors.New("key limit exceeded")

// Report is a HID keyboard report. It always describes the complete set of
// held keys and modifiers; there is no separate release packet.
//
// Keys holds no duplicates and keeps press order.
type Report struct {
	Modifiers ModifierSet
	Keys      []KeyCode
}

// Add inserts k. Adding a key that is already present is a no-op. When the
// report already holds limit keys the new key is rejected with
// ErrKeyLimitExceeded and the existing keys are kept. A limit <= 0 means no limit.
func (r *Report) Add(k KeyCode, limit int) error {
	if k == KeyNone {
		return nil
	}
	if r.Contains(k) {
		return nil
	}
	if limit > 0 && len(r.Keys) >= limit {
		return fmt.Errorf("%w: %s rejected, %d keys held", ErrKeyLimitExceeded, k, len(r.Keys))
	}
	r.Keys = append(r.Keys, k)
	return nil
}

// Remove deletes k and reports whether it was present.
func (r *Report) Remove(k KeyCode) bool {
	for i, have := range r.Keys {
		if have == k {
			r.Keys = append(r.Keys[:i], r.Keys[i+1:]...)
			return true
		}
	}
	return false
}

func (r Report) Contains(k KeyCode) bool {
	for _, have := range r.Keys {
		if have == k {
			return true
		}
	}
	return false
}

// IsEmpty reports whether nothing is held.
func (r Report) IsEmpty() bool { return r.Modifiers == 0 && len(r.Keys) == 0 }

// Clone returns a copy that does not share the key slice.
func (r Report) Clone() Report {
	out := Report{Modifiers: r.Modifiers}
	if len(r.Keys) > 0 {
		out.Keys = append([]KeyCode(nil), r.Keys...)
	}
	return out
}

// Equal compares modifiers and key membership, ignoring key order.
func (r Report) Equal(o Report) bool {
	if r.Modifiers != o.Modifiers || len(r.Keys) != len(o.Keys) {
		return false
	}
	for _, k := range r.Keys {
		if !o.Contains(k) {
			return false
		}
	}
	return true
}

func (r Report) String() string {
	names := make([]string, len(r.Keys))
	for i, k := range r.Keys {
		names[i] = k.String()
	}
	return fmt.Sprintf("keys=[%s] mods=%s", strings.Join(names, ","), r.Modifiers)
}

// MarshalBinary encodes the report to the variable-length stream format.
//
// Wire format:
//
//	Byte 0: Modifiers
//	Byte 1: Key count
//	Bytes 2+: Key codes (HID usage codes of pressed keys)
func (r Report) MarshalBinary() ([]byte, error) {
	if len(r.Keys) > 255 {
		return nil, fmt.Errorf("%w: %d keys do not fit the count byte", ErrKeyLimitExceeded, len(r.Keys))
	}
	b := make([]byte, 2+len(r.Keys))
	b[0] = uint8(r.Modifiers)
	b[1] = uint8(len(r.Keys))
	for i, k := range r.Keys {
		b[2+i] = uint8(k)
	}
	return b, nil
}

// UnmarshalBinary decodes the variable-length stream format. Duplicate key
// codes collapse into one entry.
func (r *Report) UnmarshalBinary(data []byte) error {
	if len(data) < 2 {
		return io.ErrUnexpectedEOF
	}
	keyCount := int(data[1])
	if len(data) < 2+keyCount {
		return io.ErrUnexpectedEOF
	}

	r.Modifiers = ModifierSet(data[0])
	r.Keys = r.Keys[:0]
	for i := 0; i < keyCount; i++ {
		_ = r.Add(KeyCode(data[2+i]), 0)
	}
	return nil
}

// BootReport encodes the report as the 8-byte boot protocol keyboard report.
//
// Report layout (8 bytes):
//
//	Byte 0: Modifiers (8 bits)
//	Byte 1: Reserved (0x00)
//	Bytes 2-7: Up to six key codes
//
// A report holding more than six keys is sent as ErrorRollOver in every slot.
func (r Report) BootReport() [8]byte {
	var b [8]byte
	b[0] = uint8(r.Modifiers)
	if len(r.Keys) > DefaultMaxKeys {
		for i := 2; i < 8; i++ {
			b[i] = uint8(KeyRollOver)
		}
		return b
	}
	for i, k := range r.Keys {
		b[2+i] = uint8(k)
	}
	return b
}
