package hid

import "sort"

// physicalCodes maps browser KeyboardEvent.code values to HID usage codes.
// This is the closed set of non-modifier physical keys the translator knows;
// modifier keys are handled by ModifierForCode.
var physicalCodes = map[string]KeyCode{
	// Letters
	"KeyA": KeyA, "KeyB": KeyB, "KeyC": KeyC, "KeyD": KeyD, "KeyE": KeyE, "KeyF": KeyF, "KeyG": KeyG,
	"KeyH": KeyH, "KeyI": KeyI, "KeyJ": KeyJ, "KeyK": KeyK, "KeyL": KeyL, "KeyM": KeyM, "KeyN": KeyN,
	"KeyO": KeyO, "KeyP": KeyP, "KeyQ": KeyQ, "KeyR": KeyR, "KeyS": KeyS, "KeyT": KeyT, "KeyU": KeyU,
	"KeyV": KeyV, "KeyW": KeyW, "KeyX": KeyX, "KeyY": KeyY, "KeyZ": KeyZ,

	// Digits
	"Digit1": Key1, "Digit2": Key2, "Digit3": Key3, "Digit4": Key4, "Digit5": Key5,
	"Digit6": Key6, "Digit7": Key7, "Digit8": Key8, "Digit9": Key9, "Digit0": Key0,

	// Special keys
	"Enter":         KeyEnter,
	"Escape":        KeyEscape,
	"Backspace":     KeyBackspace,
	"Tab":           KeyTab,
	"Space":         KeySpace,
	"Minus":         KeyMinus,
	"Equal":         KeyEqual,
	"BracketLeft":   KeyLeftBrace,
	"BracketRight":  KeyRightBrace,
	"Backslash":     KeyBackslash,
	"IntlHash":      KeyNonUSHash,
	"Semicolon":     KeySemicolon,
	"Quote":         KeyApostrophe,
	"Backquote":     KeyGrave,
	"Comma":         KeyComma,
	"Period":        KeyPeriod,
	"Slash":         KeySlash,
	"CapsLock":      KeyCapsLock,
	"IntlBackslash": KeyNonUSBackslash,
	"ContextMenu":   KeyApplication,
	"Power":         KeyPower,

	// Function keys
	"F1": KeyF1, "F2": KeyF2, "F3": KeyF3, "F4": KeyF4, "F5": KeyF5, "F6": KeyF6,
	"F7": KeyF7, "F8": KeyF8, "F9": KeyF9, "F10": KeyF10, "F11": KeyF11, "F12": KeyF12,
	"F13": KeyF13, "F14": KeyF14, "F15": KeyF15, "F16": KeyF16, "F17": KeyF17, "F18": KeyF18,
	"F19": KeyF19, "F20": KeyF20, "F21": KeyF21, "F22": KeyF22, "F23": KeyF23, "F24": KeyF24,

	// Control keys
	"PrintScreen": KeyPrintScreen,
	"ScrollLock":  KeyScrollLock,
	"Pause":       KeyPause,
	"Insert":      KeyInsert,
	"Home":        KeyHome,
	"PageUp":      KeyPageUp,
	"Delete":      KeyDelete,
	"End":         KeyEnd,
	"PageDown":    KeyPageDown,

	// Arrow keys
	"ArrowRight": KeyRight,
	"ArrowLeft":  KeyLeft,
	"ArrowDown":  KeyDown,
	"ArrowUp":    KeyUp,

	// Numpad
	"NumLock":        KeyNumLock,
	"NumpadDivide":   KeyKpSlash,
	"NumpadMultiply": KeyKpAsterisk,
	"NumpadSubtract": KeyKpMinus,
	"NumpadAdd":      KeyKpPlus,
	"NumpadEnter":    KeyKpEnter,
	"Numpad1":        KeyKp1,
	"Numpad2":        KeyKp2,
	"Numpad3":        KeyKp3,
	"Numpad4":        KeyKp4,
	"Numpad5":        KeyKp5,
	"Numpad6":        KeyKp6,
	"Numpad7":        KeyKp7,
	"Numpad8":        KeyKp8,
	"Numpad9":        KeyKp9,
	"Numpad0":        KeyKp0,
	"NumpadDecimal":  KeyKpDot,
	"NumpadEqual":    KeyKpEqual,
	"NumpadComma":    KeyKpComma,

	// Execution and media keys
	"Help":            KeyHelp,
	"Select":          KeySelect,
	"Again":           KeyAgain,
	"Undo":            KeyUndo,
	"Cut":             KeyCut,
	"Copy":            KeyCopy,
	"Paste":           KeyPaste,
	"Find":            KeyFind,
	"AudioVolumeMute": KeyMute,
	"AudioVolumeUp":   KeyVolumeUp,
	"AudioVolumeDown": KeyVolumeDown,

	// International
	"IntlRo":     KeyRo,
	"KanaMode":   KeyKatakana,
	"IntlYen":    KeyYen,
	"Convert":    KeyHenkan,
	"NonConvert": KeyMuhenkan,
	"Lang1":      KeyHangeul,
	"Lang2":      KeyHanja,
}

var keyNames = func() map[KeyCode]string {
	m := make(map[KeyCode]string, len(physicalCodes))
	for name, code := range physicalCodes {
		// IntlHash and Backslash never share a code, so the reverse map is unique.
		m[code] = name
	}
	return m
}()

// CodeFor returns the HID usage code for a physical key code name.
func CodeFor(physicalCode string) (KeyCode, bool) {
	k, ok := physicalCodes[physicalCode]
	return k, ok
}

// IsPhysicalCode reports whether name is a known physical key or modifier code.
func IsPhysicalCode(name string) bool {
	if _, ok := physicalCodes[name]; ok {
		return true
	}
	_, ok := ModifierForCode(name)
	return ok
}

// PhysicalCodes returns all known non-modifier physical code names, sorted.
func PhysicalCodes() []string {
	out := make([]string, 0, len(physicalCodes))
	for name := range physicalCodes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// String returns the physical code name for k, or a hex literal when k has no name.
func (k KeyCode) String() string {
	if n, ok := keyNames[k]; ok {
		return n
	}
	return hexByte(uint8(k))
}
