package hid

import "strings"

// ModifierBit is one of the eight physical modifier keys. The values match
// the bit positions of the modifier byte in a HID keyboard report.
type ModifierBit uint8

// Modifier key bitmasks
const (
	CtrlLeft   ModifierBit = 0x01
	ShiftLeft  ModifierBit = 0x02
	AltLeft    ModifierBit = 0x04
	MetaLeft   ModifierBit = 0x08 // Windows/Command key
	CtrlRight  ModifierBit = 0x10
	ShiftRight ModifierBit = 0x20
	AltRight   ModifierBit = 0x40 // AltGr on most non-US layouts
	MetaRight  ModifierBit = 0x80
)

// Modifier family masks.
const (
	CtrlMask  ModifierSet = ModifierSet(CtrlLeft | CtrlRight)
	ShiftMask ModifierSet = ModifierSet(ShiftLeft | ShiftRight)
	AltMask   ModifierSet = ModifierSet(AltLeft | AltRight)
	MetaMask  ModifierSet = ModifierSet(MetaLeft | MetaRight)
)

// AllModifiers lists every modifier bit in report bit order.
var AllModifiers = []ModifierBit{
	CtrlLeft, ShiftLeft, AltLeft, MetaLeft,
	CtrlRight, ShiftRight, AltRight, MetaRight,
}

var modifierNames = map[ModifierBit]string{
	CtrlLeft:   "ControlLeft",
	ShiftLeft:  "ShiftLeft",
	AltLeft:    "AltLeft",
	MetaLeft:   "MetaLeft",
	CtrlRight:  "ControlRight",
	ShiftRight: "ShiftRight",
	AltRight:   "AltRight",
	MetaRight:  "MetaRight",
}

// modifierAliases accepts the browser KeyboardEvent.code names plus the short
// and legacy spellings found in stored macros.
var modifierAliases = map[string]ModifierBit{
	"controlleft":  CtrlLeft,
	"ctrlleft":     CtrlLeft,
	"controlright": CtrlRight,
	"ctrlright":    CtrlRight,
	"shiftleft":    ShiftLeft,
	"shiftright":   ShiftRight,
	"altleft":      AltLeft,
	"altright":     AltRight,
	"altgr":        AltRight,
	"metaleft":     MetaLeft,
	"metaright":    MetaRight,
	"osleft":       MetaLeft,
	"osright":      MetaRight,
}

func (b ModifierBit) String() string {
	if n, ok := modifierNames[b]; ok {
		return n
	}
	return "Modifier(" + hexByte(uint8(b)) + ")"
}

// ParseModifier resolves a modifier name such as "ShiftLeft" or "CtrlRight".
// Matching is case-insensitive.
func ParseModifier(name string) (ModifierBit, bool) {
	b, ok := modifierAliases[strings.ToLower(strings.TrimSpace(name))]
	return b, ok
}

// ModifierForCode reports whether the physical code identifies a modifier key.
func ModifierForCode(code string) (ModifierBit, bool) {
	switch code {
	case "ControlLeft":
		return CtrlLeft, true
	case "ControlRight":
		return CtrlRight, true
	case "ShiftLeft":
		return ShiftLeft, true
	case "ShiftRight":
		return ShiftRight, true
	case "AltLeft":
		return AltLeft, true
	case "AltRight":
		return AltRight, true
	case "MetaLeft", "OSLeft":
		return MetaLeft, true
	case "MetaRight", "OSRight":
		return MetaRight, true
	}
	return 0, false
}

// ModifierSet is a set of ModifierBits serialized as the HID modifier byte.
type ModifierSet uint8

// Modifiers builds a set from individual bits.
func Modifiers(bits ...ModifierBit) ModifierSet {
	var s ModifierSet
	for _, b := range bits {
		s |= ModifierSet(b)
	}
	return s
}

func (s ModifierSet) Has(b ModifierBit) bool { return s&ModifierSet(b) != 0 }

// Any reports whether any bit of mask is set.
func (s ModifierSet) Any(mask ModifierSet) bool { return s&mask != 0 }

func (s ModifierSet) With(bits ...ModifierBit) ModifierSet { return s | Modifiers(bits...) }

func (s ModifierSet) Without(bits ...ModifierBit) ModifierSet { return s &^ Modifiers(bits...) }

// Bits returns the set members in report bit order.
func (s ModifierSet) Bits() []ModifierBit {
	var out []ModifierBit
	for _, b := range AllModifiers {
		if s.Has(b) {
			out = append(out, b)
		}
	}
	return out
}

func (s ModifierSet) String() string {
	if s == 0 {
		return "none"
	}
	bits := s.Bits()
	names := make([]string, len(bits))
	for i, b := range bits {
		names[i] = b.String()
	}
	return strings.Join(names, "|")
}

// ParseModifiers resolves a list of modifier names. The first unknown name is
// returned with ok=false.
func ParseModifiers(names []string) (set ModifierSet, unknown string, ok bool) {
	for _, n := range names {
		b, found := ParseModifier(n)
		if !found {
			return set, n, false
		}
		set |= ModifierSet(b)
	}
	return set, "", true
}

func hexByte(b uint8) string {
	const hexdigits = "0123456789abcdef"
	return "0x" + string([]byte{hexdigits[b>>4], hexdigits[b&0x0f]})
}
