package apitypes

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ApiError represents an RFC 7807 (problem+json) error response.
type ApiError struct {
	// Status is the HTTP-style status code (e.g., 400, 404, 500)
	Status int `json:"status"`
	// Title is a short, human-readable summary of the problem type
	Title string `json:"title"`
	// Detail is a human-readable explanation specific to this occurrence
	Detail string `json:"detail"`
	// Reason is the machine-readable rejection reason of a macro save, if any.
	Reason string `json:"reason,omitempty"`
}

func (e ApiError) Error() string {
	if e.Status == 0 && e.Title == "" {
		return "unknown error"
	}
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Title, e.Detail)
	}
	return fmt.Sprintf("%d %s: %s", e.Status, e.Title, e.Detail)
}

// --

type PingResponse struct {
	Server  string `json:"server"`
	Version string `json:"version"`
}

type Layout struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

type LayoutListResponse struct {
	Active  string   `json:"active"`
	Layouts []Layout `json:"layouts"`
}

type LayoutSetResponse struct {
	Active string `json:"active"`
	// Fallback is set when the requested layout was unknown and the default
	// was activated instead.
	Fallback bool `json:"fallback,omitempty"`
}

type MacroStep struct {
	Keys      []string `json:"keys"`
	Modifiers []string `json:"modifiers"`
	Delay     int      `json:"delay"`
}

type Macro struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Steps     []MacroStep `json:"steps"`
	SortOrder int         `json:"sortOrder"`
}

type MacroListResponse struct {
	Macros []Macro `json:"macros"`
}

type MacroRemoveResponse struct {
	ID string `json:"id"`
}

type MacroPlayResponse struct {
	ID      string `json:"id"`
	Warning string `json:"warning,omitempty"`
}

type TypeResponse struct {
	Typed   int      `json:"typed"`
	Skipped []string `json:"skipped,omitempty"`
}

type Report struct {
	Modifiers uint8    `json:"modifiers"`
	Keys      []uint8  `json:"keys"`
	Names     []string `json:"names,omitempty"`
}

type Sticky struct {
	CapsLock bool `json:"capsLock"`
	Shift    bool `json:"shift"`
	Ctrl     bool `json:"ctrl"`
	Alt      bool `json:"alt"`
	Meta     bool `json:"meta"`
	AltGr    bool `json:"altGr"`
}

type LEDs struct {
	NumLock    bool `json:"numLock"`
	CapsLock   bool `json:"capsLock"`
	ScrollLock bool `json:"scrollLock"`
	Compose    bool `json:"compose"`
	Kana       bool `json:"kana"`
}

type KeyboardStateResponse struct {
	Layout  string `json:"layout"`
	Report  Report `json:"report"`
	Sticky  Sticky `json:"sticky"`
	LEDs    *LEDs  `json:"leds,omitempty"`
	Held    int    `json:"held"`
	MacroID string `json:"macroId,omitempty"`
}

// Keyboard stream event types.
const (
	EventKeyDown    = "keydown"
	EventKeyUp      = "keyup"
	EventBlur       = "blur"
	EventVisibility = "visibilitychange"
	EventClick      = "click"
	EventSticky     = "sticky"
	EventReset      = "reset"
	EventType       = "type"
)

// HostModifiers are the modifier flags of a browser keyboard event.
type HostModifiers struct {
	Shift    bool `json:"shift"`
	Ctrl     bool `json:"ctrl"`
	Alt      bool `json:"alt"`
	AltGraph bool `json:"altGraph"`
	Meta     bool `json:"meta"`
}

// KeyboardEvent is one JSON line sent by a client on the keyboard stream.
type KeyboardEvent struct {
	Type      string        `json:"type"`
	Code      string        `json:"code,omitempty"`
	Key       string        `json:"key,omitempty"`
	Modifiers HostModifiers `json:"modifiers"`
	Repeat    bool          `json:"repeat,omitempty"`
	// Text is the payload of "type" events.
	Text string `json:"text,omitempty"`
}

// UnmarshalJSON accepts modifiers either as an object of flags or as a list
// of flag names (e.g. ["shift","altGraph"]).
func (e *KeyboardEvent) UnmarshalJSON(data []byte) error {
	type plain KeyboardEvent
	var raw struct {
		plain
		Modifiers json.RawMessage `json:"modifiers"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = KeyboardEvent(raw.plain)
	e.Modifiers = HostModifiers{}

	m := strings.TrimSpace(string(raw.Modifiers))
	switch {
	case m == "" || m == "null":
		return nil
	case strings.HasPrefix(m, "["):
		var names []string
		if err := json.Unmarshal(raw.Modifiers, &names); err != nil {
			return fmt.Errorf("modifiers: %w", err)
		}
		for _, n := range names {
			if err := e.Modifiers.set(n); err != nil {
				return err
			}
		}
		return nil
	default:
		if err := json.Unmarshal(raw.Modifiers, &e.Modifiers); err != nil {
			return fmt.Errorf("modifiers: %w", err)
		}
		return nil
	}
}

func (m *HostModifiers) set(name string) error {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "shift":
		m.Shift = true
	case "ctrl", "control":
		m.Ctrl = true
	case "alt":
		m.Alt = true
	case "altgraph", "altgr":
		m.AltGraph = true
	case "meta", "cmd", "super", "win":
		m.Meta = true
	default:
		return fmt.Errorf("modifiers: unknown flag %q", name)
	}
	return nil
}

// Notice types sent by the server on the keyboard stream.
const (
	NoticeWarning = "warning"
	NoticeError   = "error"
	NoticeLEDs    = "leds"
	NoticeReport  = "report"
)

// Notice is one JSON line sent by the server on the keyboard stream.
type Notice struct {
	Type   string  `json:"type"`
	Detail string  `json:"detail,omitempty"`
	Code   string  `json:"code,omitempty"`
	LEDs   *LEDs   `json:"leds,omitempty"`
	Report *Report `json:"report,omitempty"`
}
