package keyboard

import (
	"time"

	"github.com/Alia5/keybridge/hid"
)

// Config tunes the translation engine.
type Config struct {
	// StickyModifiers enables latching modifiers on the virtual keyboard.
	// When disabled a modifier click is sent as a plain tap.
	StickyModifiers bool
	// MaxSimultaneousKeys caps the keys of one report.
	MaxSimultaneousKeys int
	// MetaReleaseDelay is how long after a Meta-held press the pipeline
	// forces that press released.
	MetaReleaseDelay time.Duration
	// ISOBackquoteFix swaps Backquote and IntlBackslash when the produced
	// character shows the browser reported the other key.
	ISOBackquoteFix bool
	// StepDelay replaces a macro step delay of zero.
	StepDelay time.Duration
	// StepGap separates the release of one macro step from the next press.
	StepGap time.Duration
}

func DefaultConfig() Config {
	return Config{
		StickyModifiers:     true,
		MaxSimultaneousKeys: hid.DefaultMaxKeys,
		MetaReleaseDelay:    10 * time.Millisecond,
		ISOBackquoteFix:     true,
		StepDelay:           50 * time.Millisecond,
		StepGap:             10 * time.Millisecond,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxSimultaneousKeys <= 0 {
		c.MaxSimultaneousKeys = d.MaxSimultaneousKeys
	}
	if c.MetaReleaseDelay <= 0 {
		c.MetaReleaseDelay = d.MetaReleaseDelay
	}
	if c.StepDelay <= 0 {
		c.StepDelay = d.StepDelay
	}
	if c.StepGap < 0 {
		c.StepGap = 0
	}
	return c
}
