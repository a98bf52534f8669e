// Package macro models stored key macros and validates them against the
// configured limits. Rejections carry a typed reason for the UI layer.
package macro

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Alia5/keybridge/hid"
)

// Step is one chord of a macro: all keys and modifiers pressed together,
// held for Delay milliseconds, then released.
type Step struct {
	Keys      []string `json:"keys" yaml:"keys" toml:"keys"`
	Modifiers []string `json:"modifiers" yaml:"modifiers" toml:"modifiers"`
	// Delay is in milliseconds. Zero means the player default.
	Delay int `json:"delay" yaml:"delay" toml:"delay"`
}

// IsWait reports whether the step only waits.
func (s Step) IsWait() bool { return len(s.Keys) == 0 && len(s.Modifiers) == 0 }

// Duration returns the step delay.
func (s Step) Duration() time.Duration { return time.Duration(s.Delay) * time.Millisecond }

// Macro is a named, ordered list of steps.
type Macro struct {
	ID        string `json:"id" yaml:"id" toml:"id"`
	Name      string `json:"name" yaml:"name" toml:"name"`
	Steps     []Step `json:"steps" yaml:"steps" toml:"steps"`
	SortOrder int    `json:"sortOrder" yaml:"sortOrder" toml:"sortOrder"`
}

// Limits bound stored macros.
type Limits struct {
	MaxKeysPerStep   int
	MaxStepsPerMacro int
	MaxTotalMacros   int
	MaxNameLength    int
	MaxStepDelay     time.Duration
}

func DefaultLimits() Limits {
	return Limits{
		MaxKeysPerStep:   10,
		MaxStepsPerMacro: 10,
		MaxTotalMacros:   25,
		MaxNameLength:    50,
		MaxStepDelay:     10 * time.Second,
	}
}

// ErrInvalidMacro is matched by every ValidationError.
var ErrInvalidMacro = errors.New("invalid macro")

// ErrNotFound is returned for an unknown macro id.
var ErrNotFound = errors.New("macro not found")

// Reason classifies a rejected macro.
type Reason string

const (
	ReasonTooManyMacros   Reason = "too_many_macros"
	ReasonTooManySteps    Reason = "too_many_steps"
	ReasonTooManyKeys     Reason = "too_many_keys"
	ReasonNameEmpty       Reason = "name_empty"
	ReasonNameTooLong     Reason = "name_too_long"
	ReasonUnknownKey      Reason = "unknown_key"
	ReasonUnknownModifier Reason = "unknown_modifier"
	ReasonDuplicateID     Reason = "duplicate_id"
	ReasonDelayOutOfRange Reason = "delay_out_of_range"
)

// ValidationError is a typed macro rejection.
type ValidationError struct {
	Reason Reason
	// Field locates the offending value, e.g. "steps[2].keys[0]".
	Field string
	// Limit is the exceeded bound, when there is one.
	Limit int
	Value string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("invalid macro: ")
	b.WriteString(string(e.Reason))
	if e.Field != "" {
		fmt.Fprintf(&b, " at %s", e.Field)
	}
	if e.Value != "" {
		fmt.Fprintf(&b, " (%q)", e.Value)
	}
	if e.Limit > 0 {
		fmt.Fprintf(&b, ", limit %d", e.Limit)
	}
	return b.String()
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidMacro }

// IsLimit reports whether the rejection is a size bound rather than bad data.
func (e *ValidationError) IsLimit() bool {
	switch e.Reason {
	case ReasonTooManyMacros, ReasonTooManySteps, ReasonTooManyKeys, ReasonNameTooLong:
		return true
	}
	return false
}

// Validate checks one macro. Keys must be non-modifier physical key codes;
// modifiers must be modifier names.
func Validate(m Macro, l Limits) error {
	name := strings.TrimSpace(m.Name)
	if name == "" {
		return &ValidationError{Reason: ReasonNameEmpty, Field: "name"}
	}
	if l.MaxNameLength > 0 && utf8.RuneCountInString(name) > l.MaxNameLength {
		return &ValidationError{Reason: ReasonNameTooLong, Field: "name", Limit: l.MaxNameLength}
	}
	if l.MaxStepsPerMacro > 0 && len(m.Steps) > l.MaxStepsPerMacro {
		return &ValidationError{Reason: ReasonTooManySteps, Field: "steps", Limit: l.MaxStepsPerMacro}
	}
	for i, s := range m.Steps {
		if l.MaxKeysPerStep > 0 && len(s.Keys) > l.MaxKeysPerStep {
			return &ValidationError{Reason: ReasonTooManyKeys, Field: fmt.Sprintf("steps[%d].keys", i), Limit: l.MaxKeysPerStep}
		}
		for j, k := range s.Keys {
			if _, isMod := hid.ModifierForCode(k); isMod || !hid.IsPhysicalCode(k) {
				return &ValidationError{Reason: ReasonUnknownKey, Field: fmt.Sprintf("steps[%d].keys[%d]", i, j), Value: k}
			}
		}
		if _, unknown, ok := hid.ParseModifiers(s.Modifiers); !ok {
			return &ValidationError{Reason: ReasonUnknownModifier, Field: fmt.Sprintf("steps[%d].modifiers", i), Value: unknown}
		}
		if s.Delay < 0 || (l.MaxStepDelay > 0 && s.Duration() > l.MaxStepDelay) {
			return &ValidationError{
				Reason: ReasonDelayOutOfRange,
				Field:  fmt.Sprintf("steps[%d].delay", i),
				Limit:  int(l.MaxStepDelay / time.Millisecond),
				Value:  fmt.Sprint(s.Delay),
			}
		}
	}
	return nil
}

// ValidateAll checks a complete macro set, including the total bound and id
// uniqueness.
func ValidateAll(ms []Macro, l Limits) error {
	if l.MaxTotalMacros > 0 && len(ms) > l.MaxTotalMacros {
		return &ValidationError{Reason: ReasonTooManyMacros, Limit: l.MaxTotalMacros}
	}
	seen := make(map[string]bool, len(ms))
	for i, m := range ms {
		if seen[m.ID] {
			return &ValidationError{Reason: ReasonDuplicateID, Field: fmt.Sprintf("macros[%d].id", i), Value: m.ID}
		}
		seen[m.ID] = true
		if err := Validate(m, l); err != nil {
			return fmt.Errorf("macro %q: %w", m.ID, err)
		}
	}
	return nil
}

// Sort orders macros by SortOrder, then name.
func Sort(ms []Macro) {
	sort.SliceStable(ms, func(i, j int) bool {
		if ms[i].SortOrder != ms[j].SortOrder {
			return ms[i].SortOrder < ms[j].SortOrder
		}
		return ms[i].Name < ms[j].Name
	})
}

// Clone returns a deep copy.
func (m Macro) Clone() Macro {
	out := m
	out.Steps = make([]Step, len(m.Steps))
	for i, s := range m.Steps {
		out.Steps[i] = Step{
			Keys:      append([]string(nil), s.Keys...),
			Modifiers: append([]string(nil), s.Modifiers...),
			Delay:     s.Delay,
		}
	}
	return out
}
