package keyboard

import (
	"errors"
	"fmt"

	"github.com/Alia5/keybridge/layout"
)

var (
	// ErrOrphanRelease is reported when a release arrives for a physical key
	// that has no active record. Callers ignore it.
	ErrOrphanRelease = errors.New("orphan release")
	// ErrMacroCancelled is passed to a playback's completion callback when
	// the macro was stopped before its last step.
	ErrMacroCancelled = errors.New("macro cancelled")
	// ErrSessionClosed is returned by Session methods after Close.
	ErrSessionClosed = errors.New("session closed")
	// ErrUnknownKey is returned for a named key that neither the active
	// layout nor the physical code table knows.
	ErrUnknownKey = errors.New("unknown key")
)

// UnmappedError lists characters the active layout could not type. It
// matches layout.ErrUnmappedCharacter.
type UnmappedError struct {
	Layout string
	Chars  []string
}

func (e *UnmappedError) Error() string {
	return fmt.Sprintf("%v: %q in %s", layout.ErrUnmappedCharacter, e.Chars, e.Layout)
}

func (e *UnmappedError) Unwrap() error { return layout.ErrUnmappedCharacter }
