package keyboard

import "github.com/Alia5/keybridge/hid"

// HostModifiers are the modifier flags a host keyboard event carries
// (shiftKey, ctrlKey, altKey, metaKey and getModifierState("AltGraph")).
type HostModifiers struct {
	Shift    bool
	Ctrl     bool
	Alt      bool
	AltGraph bool
	Meta     bool
}

// allows reports which held modifier bits the flags still allow. AltLeft and
// AltRight are resolved independently: AltRight survives when either Alt or
// AltGraph is reported.
func (m HostModifiers) allows() hid.ModifierSet {
	var s hid.ModifierSet
	if m.Shift {
		s |= hid.ShiftMask
	}
	if m.Ctrl {
		s |= hid.CtrlMask
	}
	if m.Alt {
		s = s.With(hid.AltLeft)
	}
	if m.Alt || m.AltGraph {
		s = s.With(hid.AltRight)
	}
	if m.Meta {
		s |= hid.MetaMask
	}
	return s
}

// KeyEvent is a host keyboard event.
type KeyEvent struct {
	// Code is the physical key identifier (KeyboardEvent.code).
	Code string
	// Key is the produced character or named key (KeyboardEvent.key).
	Key       string
	Modifiers HostModifiers
	// Repeat marks OS auto-repeat presses.
	Repeat bool
}
