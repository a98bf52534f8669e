package keyboard

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Alia5/keybridge/hid"
	"github.com/Alia5/keybridge/layout"
)

// Implied are the modifiers a layout required to produce a key's character.
type Implied struct {
	Shift    bool
	AltLeft  bool
	AltRight bool
}

// ImpliedBy returns the modifiers a char mapping requires.
func ImpliedBy(m layout.CharMapping) Implied {
	return Implied{Shift: m.RequiresShift, AltRight: m.RequiresAltRight}
}

// Set returns the report bits for the implied modifiers.
func (i Implied) Set() hid.ModifierSet {
	var s hid.ModifierSet
	if i.Shift {
		s = s.With(hid.ShiftLeft)
	}
	if i.AltLeft {
		s = s.With(hid.AltLeft)
	}
	if i.AltRight {
		s = s.With(hid.AltRight)
	}
	return s
}

// dependsOn reports whether losing every bit of the released modifier's
// family (as far as still held bits go) makes the character unreachable.
func (i Implied) dependsOn(released hid.ModifierBit, stillHeld hid.ModifierSet) bool {
	switch released {
	case hid.ShiftLeft, hid.ShiftRight:
		return i.Shift && !stillHeld.Any(hid.ShiftMask)
	case hid.AltLeft:
		return i.AltLeft
	case hid.AltRight:
		return i.AltRight
	}
	return false
}

// Resolve computes the modifier set for one key event. Every bit is decided
// on its own:
//
//   - Shift: held, sticky, or required by the mapping (added as ShiftLeft).
//   - AltLeft / AltRight: held or sticky; AltRight is forced on when the
//     mapping requires it.
//   - Ctrl / Meta: held or sticky only.
//
// Modifiers the mapping requires are never removed.
func Resolve(held hid.ModifierSet, implied Implied, sticky hid.ModifierSet) hid.ModifierSet {
	out := held | sticky
	if implied.Shift && !out.Any(hid.ShiftMask) {
		out = out.With(hid.ShiftLeft)
	}
	if implied.AltLeft {
		out = out.With(hid.AltLeft)
	}
	if implied.AltRight {
		out = out.With(hid.AltRight)
	}
	return out
}

// resolution is a key translated against one layout.
type resolution struct {
	keyCode hid.KeyCode
	implied Implied
	// byChar is set when the key was translated through the char table.
	byChar bool
}

// resolveEvent translates a host event. The character is tried first so the
// remote sees the layout's key for it; keypad keys and characters produced
// by the host's CapsLock go by physical code. Unmapped characters fall back
// to the physical code. ok is false when neither path knows the key.
func resolveEvent(l *layout.Layout, ev KeyEvent) (res resolution, ok bool, unmapped bool) {
	if ev.Key != "" && !strings.HasPrefix(ev.Code, "Numpad") {
		if m, err := l.Char(ev.Key); err == nil {
			if !(m.RequiresShift && !ev.Modifiers.Shift && isUpperLetter(ev.Key)) {
				return resolution{keyCode: m.KeyCode, implied: ImpliedBy(m), byChar: true}, true, false
			}
		} else {
			unmapped = isCharacter(ev.Key)
		}
	}
	if k, found := l.KeyCode(ev.Code); found {
		return resolution{keyCode: k}, true, unmapped
	}
	return resolution{}, false, unmapped
}

// resolveNamed translates an on-screen key name: a physical code, or else a
// character or named key of the layout.
func resolveNamed(l *layout.Layout, name string) (resolution, bool) {
	if k, ok := l.KeyCode(name); ok {
		return resolution{keyCode: k}, true
	}
	if m, err := l.Char(name); err == nil {
		return resolution{keyCode: m.KeyCode, implied: ImpliedBy(m), byChar: true}, true
	}
	return resolution{}, false
}

// isCharacter reports whether key is a single printable character rather
// than a named key such as "Dead" or "Unidentified".
func isCharacter(key string) bool {
	r, size := utf8.DecodeRuneInString(key)
	return size == len(key) && r != utf8.RuneError && unicode.IsPrint(r)
}

func isUpperLetter(key string) bool {
	r, size := utf8.DecodeRuneInString(key)
	return size == len(key) && unicode.IsUpper(r)
}

// isLetterKey reports whether k is one of the alphabetic usages, which are
// the keys CapsLock affects.
func isLetterKey(k hid.KeyCode) bool { return k >= hid.KeyA && k <= hid.KeyZ }
