package keyboard

import (
	"fmt"
	"strings"

	"github.com/Alia5/keybridge/hid"
)

// Sticky is the latched modifier state of the on-screen keyboard. It is
// separate from the tracker: a click has no held duration.
type Sticky struct {
	CapsLock bool `json:"capsLock"`
	Shift    bool `json:"shift"`
	Ctrl     bool `json:"ctrl"`
	Alt      bool `json:"alt"`
	Meta     bool `json:"meta"`
	AltGr    bool `json:"altGr"`
}

// Modifiers returns the report bits of the latched one-shot modifiers.
// CapsLock is not a report bit.
func (s Sticky) Modifiers() hid.ModifierSet {
	var m hid.ModifierSet
	if s.Shift {
		m = m.With(hid.ShiftLeft)
	}
	if s.Ctrl {
		m = m.With(hid.CtrlLeft)
	}
	if s.Alt {
		m = m.With(hid.AltLeft)
	}
	if s.Meta {
		m = m.With(hid.MetaLeft)
	}
	if s.AltGr {
		m = m.With(hid.AltRight)
	}
	return m
}

func (s *Sticky) clearOneShot() {
	*s = Sticky{CapsLock: s.CapsLock}
}

// take returns the one-shot modifiers and clears them.
func (s *Sticky) take() hid.ModifierSet {
	m := s.Modifiers()
	s.clearOneShot()
	return m
}

// toggle flips the latch named name. ok is false for names that are not a
// latchable modifier.
func (s *Sticky) toggle(name string) (ok bool) {
	switch normalizeModifierName(name) {
	case "capslock":
		s.CapsLock = !s.CapsLock
	case "shift":
		s.Shift = !s.Shift
	case "ctrl":
		s.Ctrl = !s.Ctrl
	case "alt":
		s.Alt = !s.Alt
	case "meta":
		s.Meta = !s.Meta
	case "altgr":
		s.AltGr = !s.AltGr
	default:
		return false
	}
	return true
}

func normalizeModifierName(name string) string {
	switch strings.ToLower(name) {
	case "capslock":
		return "capslock"
	case "shift", "shiftleft", "shiftright":
		return "shift"
	case "control", "ctrl", "controlleft", "controlright":
		return "ctrl"
	case "alt", "altleft":
		return "alt"
	case "meta", "metaleft", "metaright", "os", "osleft", "osright":
		return "meta"
	case "altgr", "altgraph", "altright":
		return "altgr"
	}
	return ""
}

// VirtualKeyboard drives the pipeline from on-screen key clicks.
type VirtualKeyboard struct {
	p       *Pipeline
	enabled bool
}

func NewVirtualKeyboard(p *Pipeline, stickyEnabled bool) *VirtualKeyboard {
	return &VirtualKeyboard{p: p, enabled: stickyEnabled}
}

// State returns the latched modifiers.
func (v *VirtualKeyboard) State() Sticky { return v.p.sticky }

// Click handles one on-screen key. Modifier keys latch (or, with sticky
// modifiers disabled, tap). Any other key is pressed and released in one
// step with the latched modifiers applied, after which every latch except
// CapsLock clears. CapsLock inverts Shift for letter keys given by physical
// code; it is never sent to the remote and never removes a Shift the layout
// requires.
func (v *VirtualKeyboard) Click(name string) error {
	if normalizeModifierName(name) == "capslock" {
		v.p.sticky.toggle(name)
		return nil
	}
	if normalizeModifierName(name) != "" {
		if v.enabled {
			v.p.sticky.toggle(name)
			return nil
		}
		bit, ok := modifierBitFor(name)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownKey, name)
		}
		return v.p.tap(hid.KeyNone, hid.Modifiers(bit))
	}

	res, ok := resolveNamed(v.p.layouts.Active(), name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, name)
	}
	mods := Resolve(0, res.implied, v.p.sticky.Modifiers())
	if v.p.sticky.CapsLock && !res.byChar && isLetterKey(res.keyCode) {
		if mods.Any(hid.ShiftMask) {
			mods &^= hid.ShiftMask
		} else {
			mods = mods.With(hid.ShiftLeft)
		}
	}
	if err := v.p.tap(res.keyCode, mods); err != nil {
		return err
	}
	v.p.sticky.clearOneShot()
	return nil
}

// Toggle flips a latch without clicking a key.
func (v *VirtualKeyboard) Toggle(name string) error {
	if !v.p.sticky.toggle(name) {
		return fmt.Errorf("%w: %s is not a modifier", ErrUnknownKey, name)
	}
	return nil
}

// Clear drops every latch including CapsLock.
func (v *VirtualKeyboard) Clear() { v.p.sticky = Sticky{} }

func modifierBitFor(name string) (hid.ModifierBit, bool) {
	if b, ok := hid.ParseModifier(name); ok {
		return b, true
	}
	switch normalizeModifierName(name) {
	case "shift":
		return hid.ShiftLeft, true
	case "ctrl":
		return hid.CtrlLeft, true
	case "alt":
		return hid.AltLeft, true
	case "meta":
		return hid.MetaLeft, true
	case "altgr":
		return hid.AltRight, true
	}
	return 0, false
}
