package hid

// KeyCode is a HID usage code on the Keyboard/Keypad usage page (0x07).
// Keycodes do not depend on the locale; only the mapping to them does.
type KeyCode uint8

// HID Usage codes for keyboard keys (USB HID Keyboard/Keypad usage page)
const (
	KeyNone     KeyCode = 0x00
	KeyRollOver KeyCode = 0x01 // ErrorRollOver, reported in every slot on overflow

	// Letters A-Z
	KeyA KeyCode = 0x04
	KeyB KeyCode = 0x05
	KeyC KeyCode = 0x06
	KeyD KeyCode = 0x07
	KeyE KeyCode = 0x08
	KeyF KeyCode = 0x09
	KeyG KeyCode = 0x0A
	KeyH KeyCode = 0x0B
	KeyI KeyCode = 0x0C
	KeyJ KeyCode = 0x0D
	KeyK KeyCode = 0x0E
	KeyL KeyCode = 0x0F
	KeyM KeyCode = 0x10
	KeyN KeyCode = 0x11
	KeyO KeyCode = 0x12
	KeyP KeyCode = 0x13
	KeyQ KeyCode = 0x14
	KeyR KeyCode = 0x15
	KeyS KeyCode = 0x16
	KeyT KeyCode = 0x17
	KeyU KeyCode = 0x18
	KeyV KeyCode = 0x19
	KeyW KeyCode = 0x1A
	KeyX KeyCode = 0x1B
	KeyY KeyCode = 0x1C
	KeyZ KeyCode = 0x1D

	// Numbers 1-0 (top row)
	Key1 KeyCode = 0x1E
	Key2 KeyCode = 0x1F
	Key3 KeyCode = 0x20
	Key4 KeyCode = 0x21
	Key5 KeyCode = 0x22
	Key6 KeyCode = 0x23
	Key7 KeyCode = 0x24
	Key8 KeyCode = 0x25
	Key9 KeyCode = 0x26
	Key0 KeyCode = 0x27

	// Special keys
	KeyEnter      KeyCode = 0x28
	KeyEscape     KeyCode = 0x29
	KeyBackspace  KeyCode = 0x2A
	KeyTab        KeyCode = 0x2B
	KeySpace      KeyCode = 0x2C
	KeyMinus      KeyCode = 0x2D // - and _
	KeyEqual      KeyCode = 0x2E // = and +
	KeyLeftBrace  KeyCode = 0x2F // [ and {
	KeyRightBrace KeyCode = 0x30 // ] and }
	KeyBackslash  KeyCode = 0x31 // \ and |
	KeyNonUSHash  KeyCode = 0x32 // Non-US # and ~
	KeySemicolon  KeyCode = 0x33 // ; and :
	KeyApostrophe KeyCode = 0x34 // ' and "
	KeyGrave      KeyCode = 0x35 // ` and ~
	KeyComma      KeyCode = 0x36 // , and <
	KeyPeriod     KeyCode = 0x37 // . and >
	KeySlash      KeyCode = 0x38 // / and ?
	KeyCapsLock   KeyCode = 0x39

	// Function keys
	KeyF1  KeyCode = 0x3A
	KeyF2  KeyCode = 0x3B
	KeyF3  KeyCode = 0x3C
	KeyF4  KeyCode = 0x3D
	KeyF5  KeyCode = 0x3E
	KeyF6  KeyCode = 0x3F
	KeyF7  KeyCode = 0x40
	KeyF8  KeyCode = 0x41
	KeyF9  KeyCode = 0x42
	KeyF10 KeyCode = 0x43
	KeyF11 KeyCode = 0x44
	KeyF12 KeyCode = 0x45

	// Control keys
	KeyPrintScreen KeyCode = 0x46
	KeyScrollLock  KeyCode = 0x47
	KeyPause       KeyCode = 0x48
	KeyInsert      KeyCode = 0x49
	KeyHome        KeyCode = 0x4A
	KeyPageUp      KeyCode = 0x4B
	KeyDelete      KeyCode = 0x4C
	KeyEnd         KeyCode = 0x4D
	KeyPageDown    KeyCode = 0x4E

	// Arrow keys
	KeyRight KeyCode = 0x4F
	KeyLeft  KeyCode = 0x50
	KeyDown  KeyCode = 0x51
	KeyUp    KeyCode = 0x52

	// Numpad
	KeyNumLock    KeyCode = 0x53
	KeyKpSlash    KeyCode = 0x54 // Keypad /
	KeyKpAsterisk KeyCode = 0x55 // Keypad *
	KeyKpMinus    KeyCode = 0x56 // Keypad -
	KeyKpPlus     KeyCode = 0x57 // Keypad +
	KeyKpEnter    KeyCode = 0x58 // Keypad Enter
	KeyKp1        KeyCode = 0x59 // Keypad 1 and End
	KeyKp2        KeyCode = 0x5A // Keypad 2 and Down
	KeyKp3        KeyCode = 0x5B // Keypad 3 and PageDn
	KeyKp4        KeyCode = 0x5C // Keypad 4 and Left
	KeyKp5        KeyCode = 0x5D // Keypad 5
	KeyKp6        KeyCode = 0x5E // Keypad 6 and Right
	KeyKp7        KeyCode = 0x5F // Keypad 7 and Home
	KeyKp8        KeyCode = 0x60 // Keypad 8 and Up
	KeyKp9        KeyCode = 0x61 // Keypad 9 and PageUp
	KeyKp0        KeyCode = 0x62 // Keypad 0 and Insert
	KeyKpDot      KeyCode = 0x63 // Keypad . and Delete

	// Additional keys
	KeyNonUSBackslash KeyCode = 0x64 // Non-US \ and |
	KeyApplication    KeyCode = 0x65 // Application (Windows Menu key)
	KeyPower          KeyCode = 0x66
	KeyKpEqual        KeyCode = 0x67 // Keypad =

	// Extended function keys
	KeyF13 KeyCode = 0x68
	KeyF14 KeyCode = 0x69
	KeyF15 KeyCode = 0x6A
	KeyF16 KeyCode = 0x6B
	KeyF17 KeyCode = 0x6C
	KeyF18 KeyCode = 0x6D
	KeyF19 KeyCode = 0x6E
	KeyF20 KeyCode = 0x6F
	KeyF21 KeyCode = 0x70
	KeyF22 KeyCode = 0x71
	KeyF23 KeyCode = 0x72
	KeyF24 KeyCode = 0x73

	// Execution keys
	KeyExecute    KeyCode = 0x74
	KeyHelp       KeyCode = 0x75
	KeyMenu       KeyCode = 0x76
	KeySelect     KeyCode = 0x77
	KeyStop       KeyCode = 0x78
	KeyAgain      KeyCode = 0x79 // Redo
	KeyUndo       KeyCode = 0x7A
	KeyCut        KeyCode = 0x7B
	KeyCopy       KeyCode = 0x7C
	KeyPaste      KeyCode = 0x7D
	KeyFind       KeyCode = 0x7E
	KeyMute       KeyCode = 0x7F
	KeyVolumeUp   KeyCode = 0x80
	KeyVolumeDown KeyCode = 0x81

	// International keys
	KeyKpComma  KeyCode = 0x85
	KeyRo       KeyCode = 0x87 // International1
	KeyKatakana KeyCode = 0x88 // International2
	KeyYen      KeyCode = 0x89 // International3
	KeyHenkan   KeyCode = 0x8A // International4
	KeyMuhenkan KeyCode = 0x8B // International5
	KeyHangeul  KeyCode = 0x90 // LANG1
	KeyHanja    KeyCode = 0x91 // LANG2
)
