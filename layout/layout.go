// Package layout holds per-locale keyboard tables mapping characters and
// physical key identifiers to HID usage codes.
//
// A Layout is immutable once compiled. Switching layouts swaps the active
// pointer in a Registry; tables in use are never mutated.
package layout

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Alia5/keybridge/hid"
)

var (
	// ErrUnknownLayout is returned when a layout name is not registered.
	ErrUnknownLayout = errors.New("unknown layout")
	// ErrUnmappedCharacter is returned when a character has no entry in a layout.
	ErrUnmappedCharacter = errors.New("unmapped character")
	// ErrInvalidLayout is returned when a definition fails validation.
	ErrInvalidLayout = errors.New("invalid layout")
)

// CharDef is the serialized form of a character mapping, keyed by the
// physical code that produces it.
type CharDef struct {
	Code     string `json:"code" yaml:"code" toml:"code"`
	Shift    bool   `json:"shift,omitempty" yaml:"shift,omitempty" toml:"shift,omitempty"`
	AltRight bool   `json:"altRight,omitempty" yaml:"altRight,omitempty" toml:"altRight,omitempty"`
}

// Definition is the authoring format of a layout. Built-in layouts and layout
// files both compile from it.
type Definition struct {
	Name        string `json:"name" yaml:"name" toml:"name"`
	DisplayName string `json:"displayName,omitempty" yaml:"displayName,omitempty" toml:"displayName,omitempty"`
	// Keys remaps physical codes to the code whose usage should be sent. Codes
	// not listed map to their own usage.
	Keys  map[string]string  `json:"keys,omitempty" yaml:"keys,omitempty" toml:"keys,omitempty"`
	Chars map[string]CharDef `json:"chars" yaml:"chars" toml:"chars"`
	// Aliases map extra characters onto a canonical entry of Chars. Aliases are
	// excluded from reverse lookup.
	Aliases map[string]string `json:"aliases,omitempty" yaml:"aliases,omitempty" toml:"aliases,omitempty"`
}

// CharMapping is the compiled mapping of one character.
type CharMapping struct {
	Code             string
	KeyCode          hid.KeyCode
	RequiresShift    bool
	RequiresAltRight bool
}

// Modifiers returns the modifiers the mapping needs on the remote side.
func (m CharMapping) Modifiers() hid.ModifierSet {
	var s hid.ModifierSet
	if m.RequiresShift {
		s = s.With(hid.ShiftLeft)
	}
	if m.RequiresAltRight {
		s = s.With(hid.AltRight)
	}
	return s
}

type combo struct {
	key      hid.KeyCode
	shift    bool
	altRight bool
}

// Layout is a compiled, immutable layout.
type Layout struct {
	name        string
	displayName string
	keyTable    map[string]hid.KeyCode
	charTable   map[string]CharMapping
	reverse     map[combo]string
}

func (l *Layout) Name() string { return l.name }

func (l *Layout) DisplayName() string {
	if l.displayName == "" {
		return l.name
	}
	return l.displayName
}

// KeyCode resolves a physical code through the layout's key table.
func (l *Layout) KeyCode(physicalCode string) (hid.KeyCode, bool) {
	k, ok := l.keyTable[physicalCode]
	return k, ok
}

// Char returns the mapping for a character or named key.
func (l *Layout) Char(ch string) (CharMapping, error) {
	m, ok := l.charTable[ch]
	if !ok {
		return CharMapping{}, fmt.Errorf("%w: %q in %s", ErrUnmappedCharacter, ch, l.name)
	}
	return m, nil
}

// Lookup is the reverse of Char: it returns the canonical character produced
// by keyCode with the given shift and AltRight state.
func (l *Layout) Lookup(keyCode hid.KeyCode, shift, altRight bool) (string, bool) {
	ch, ok := l.reverse[combo{key: keyCode, shift: shift, altRight: altRight}]
	return ch, ok
}

// Chars returns every mapped character, sorted.
func (l *Layout) Chars() []string {
	out := make([]string, 0, len(l.charTable))
	for ch := range l.charTable {
		out = append(out, ch)
	}
	sort.Strings(out)
	return out
}

// Compile validates a definition and builds its lookup tables. Validation is
// complete at load time so lookups never fail on malformed data.
func Compile(def Definition) (*Layout, error) {
	name := strings.TrimSpace(def.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: missing name", ErrInvalidLayout)
	}

	l := &Layout{
		name:        name,
		displayName: def.DisplayName,
		keyTable:    make(map[string]hid.KeyCode),
		charTable:   make(map[string]CharMapping, len(def.Chars)+len(def.Aliases)+len(namedKeys)),
		reverse:     make(map[combo]string, len(def.Chars)),
	}

	for _, code := range hid.PhysicalCodes() {
		target := code
		if remap, ok := def.Keys[code]; ok {
			target = remap
		}
		k, ok := hid.CodeFor(target)
		if !ok {
			return nil, fmt.Errorf("%w: %s: key %s remapped to unknown code %q", ErrInvalidLayout, name, code, target)
		}
		l.keyTable[code] = k
	}
	for code := range def.Keys {
		if _, ok := hid.CodeFor(code); !ok {
			return nil, fmt.Errorf("%w: %s: unknown physical code %q", ErrInvalidLayout, name, code)
		}
	}

	chars := make([]string, 0, len(def.Chars))
	for ch := range def.Chars {
		chars = append(chars, ch)
	}
	sort.Strings(chars)

	for _, ch := range chars {
		cd := def.Chars[ch]
		if ch == "" {
			return nil, fmt.Errorf("%w: %s: empty character", ErrInvalidLayout, name)
		}
		k, ok := hid.CodeFor(cd.Code)
		if !ok {
			return nil, fmt.Errorf("%w: %s: character %q uses unknown code %q", ErrInvalidLayout, name, ch, cd.Code)
		}
		m := CharMapping{Code: cd.Code, KeyCode: k, RequiresShift: cd.Shift, RequiresAltRight: cd.AltRight}
		c := combo{key: k, shift: cd.Shift, altRight: cd.AltRight}
		if other, dup := l.reverse[c]; dup {
			return nil, fmt.Errorf("%w: %s: %q and %q both map to %s", ErrInvalidLayout, name, other, ch, describe(cd))
		}
		l.reverse[c] = ch
		l.charTable[ch] = m
	}

	for _, nk := range namedKeys {
		if _, ok := l.charTable[nk]; ok {
			continue
		}
		k, _ := hid.CodeFor(nk)
		l.charTable[nk] = CharMapping{Code: nk, KeyCode: k}
		if _, taken := l.reverse[combo{key: k}]; !taken {
			l.reverse[combo{key: k}] = nk
		}
	}

	for alias, canonical := range def.Aliases {
		m, ok := l.charTable[canonical]
		if !ok {
			return nil, fmt.Errorf("%w: %s: alias %q targets unmapped %q", ErrInvalidLayout, name, alias, canonical)
		}
		if _, exists := def.Chars[alias]; exists {
			return nil, fmt.Errorf("%w: %s: alias %q shadows a character", ErrInvalidLayout, name, alias)
		}
		l.charTable[alias] = m
	}

	return l, nil
}

func describe(cd CharDef) string {
	parts := []string{}
	if cd.AltRight {
		parts = append(parts, "AltRight")
	}
	if cd.Shift {
		parts = append(parts, "Shift")
	}
	parts = append(parts, cd.Code)
	return strings.Join(parts, "+")
}

// namedKeys are KeyboardEvent.key values that name a key rather than a
// character. They translate to the key of the same name on every layout.
var namedKeys = []string{
	"Enter", "Tab", "Backspace", "Escape", "Delete", "Insert",
	"Home", "End", "PageUp", "PageDown",
	"ArrowUp", "ArrowDown", "ArrowLeft", "ArrowRight",
	"CapsLock", "NumLock", "ScrollLock", "PrintScreen", "Pause", "ContextMenu",
	"F1", "F2", "F3", "F4", "F5", "F6", "F7", "F8", "F9", "F10", "F11", "F12",
	"F13", "F14", "F15", "F16", "F17", "F18", "F19", "F20", "F21", "F22", "F23", "F24",
	"Help", "Undo", "Again", "Copy", "Cut", "Paste", "Find",
	"AudioVolumeMute", "AudioVolumeUp", "AudioVolumeDown",
}
