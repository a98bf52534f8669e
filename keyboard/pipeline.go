package keyboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Alia5/keybridge/hid"
	"github.com/Alia5/keybridge/internal/log"
	"github.com/Alia5/keybridge/layout"
)

// LayoutSource returns the layout new presses are translated with.
type LayoutSource interface {
	Active() *layout.Layout
}

// Pipeline turns host key events into full-state HID reports. Every state
// change emits the complete report; there is no release packet.
//
// A Pipeline is not safe for concurrent use. Timer callbacks from its
// Scheduler must run on the goroutine calling its methods.
type Pipeline struct {
	cfg     Config
	layouts LayoutSource
	sched   Scheduler
	emit    func(hid.Report)
	logger  *slog.Logger

	tracker *Tracker
	// held are the physically held modifier keys.
	held      hid.ModifierSet
	sticky    Sticky
	metaTimer Timer
}

// NewPipeline builds a pipeline that hands every report to emit.
func NewPipeline(cfg Config, layouts LayoutSource, sched Scheduler, emit func(hid.Report), logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if sched == nil {
		sched = ClockScheduler{}
	}
	return &Pipeline{
		cfg:     cfg.withDefaults(),
		layouts: layouts,
		sched:   sched,
		emit:    emit,
		logger:  logger,
		tracker: NewTracker(),
	}
}

// KeyDown handles a host key press. A press that would exceed the key limit
// is dropped and reported with an error wrapping hid.ErrKeyLimitExceeded;
// the keys already held are unaffected. Unmapped characters fall back to
// the physical code and are not errors.
func (p *Pipeline) KeyDown(ev KeyEvent) error {
	// Records stay keyed by the host code; the swap only affects the key
	// code sent, so the release finds the record whatever its character.
	code := ev.Code
	ev = p.fixISO(ev)
	p.correctHeld(ev.Modifiers)

	if bit, ok := hid.ModifierForCode(ev.Code); ok {
		p.held = p.held.With(bit)
		p.send()
		return nil
	}

	l := p.layouts.Active()
	res, ok, unmapped := resolveEvent(l, ev)
	if unmapped {
		p.logger.Debug("unmapped character, using physical code",
			"key", ev.Key, "code", ev.Code, "layout", l.Name())
	}
	if !ok {
		p.logger.Debug("ignoring unknown key", "code", ev.Code, "key", ev.Key)
		return fmt.Errorf("%w: %s", ErrUnknownKey, ev.Code)
	}

	if _, exists := p.tracker.Get(code); exists {
		// Auto-repeat: state is unchanged, the report is sent again.
		p.send()
		return nil
	}

	probe := p.Report()
	if err := probe.Add(res.keyCode, p.cfg.MaxSimultaneousKeys); err != nil {
		p.logger.Warn("key press dropped", "code", ev.Code, "error", err)
		return err
	}

	underMeta := ev.Modifiers.Meta || p.held.Any(hid.MetaMask)
	p.tracker.OnPress(Record{
		Code:      code,
		KeyCode:   res.keyCode,
		Implied:   res.implied,
		Sticky:    p.sticky.take(),
		Layout:    l.Name(),
		UnderMeta: underMeta,
	})
	p.send()

	if underMeta {
		p.scheduleMetaRelease()
	}
	return nil
}

// KeyUp handles a host key release. Releases without a matching press are
// ignored.
func (p *Pipeline) KeyUp(ev KeyEvent) error {
	if bit, ok := hid.ModifierForCode(ev.Code); ok {
		p.correctHeld(ev.Modifiers)
		p.releaseModifier(bit)
		p.send()
		return nil
	}

	rec, err := p.tracker.OnRelease(ev.Code)
	if err != nil {
		p.logger.Log(context.Background(), log.LevelTrace, "orphan release ignored", "code", ev.Code)
		p.correctHeld(ev.Modifiers)
		return nil
	}
	p.logger.Log(context.Background(), log.LevelTrace, "key released", "code", rec.Code, "keycode", rec.KeyCode.String())
	p.correctHeld(ev.Modifiers)
	p.send()
	return nil
}

// ResetAll drops every record, held and sticky modifier except CapsLock,
// cancels the deferred Meta release and emits an empty report. Calling it
// repeatedly emits the same empty report each time.
func (p *Pipeline) ResetAll() {
	n := p.tracker.ResetAll()
	p.held = 0
	p.sticky.clearOneShot()
	if p.metaTimer != nil {
		p.metaTimer.Stop()
		p.metaTimer = nil
	}
	if n > 0 {
		p.logger.Debug("keyboard state reset", "records", n)
	}
	p.send()
}

// Report returns the report describing the current state. Latched
// on-screen modifiers are not part of it until a key consumes them.
func (p *Pipeline) Report() hid.Report {
	r := hid.Report{Modifiers: p.held}
	for _, rec := range p.tracker.Records() {
		// Records were admitted under the limit, so no key is rejected here.
		_ = r.Add(rec.KeyCode, 0)
		r.Modifiers |= rec.Modifiers()
	}
	return r
}

// Records returns the active key records in press order.
func (p *Pipeline) Records() []Record { return p.tracker.Records() }

// Held returns the physically held modifiers.
func (p *Pipeline) Held() hid.ModifierSet { return p.held }

// tap sends k as pressed with mods on top of the current state and then
// restores the current state.
func (p *Pipeline) tap(k hid.KeyCode, mods hid.ModifierSet) error {
	press := p.Report()
	if err := press.Add(k, p.cfg.MaxSimultaneousKeys); err != nil {
		return err
	}
	press.Modifiers |= mods
	p.emit(press)
	p.send()
	return nil
}

func (p *Pipeline) send() {
	if p.emit != nil {
		p.emit(p.Report())
	}
}

// correctHeld drops held bits whose family the host no longer reports.
// A dropped bit is a release the host swallowed, so it cascades too.
func (p *Pipeline) correctHeld(m HostModifiers) {
	stale := p.held &^ m.allows()
	for _, bit := range stale.Bits() {
		p.logger.Debug("held modifier not reported by host, releasing", "modifier", bit.String())
		p.releaseModifier(bit)
	}
}

// releaseModifier clears bit and retracts the records whose character
// depended on it.
func (p *Pipeline) releaseModifier(bit hid.ModifierBit) {
	p.held = p.held.Without(bit)
	for _, rec := range p.tracker.RetractDependents(bit, p.held) {
		p.logger.Debug("retracted key with modifier release",
			"code", rec.Code, "modifier", bit.String())
	}
}

// scheduleMetaRelease arms the forced release for presses made while Meta
// was held. Some hosts never deliver their key-up.
func (p *Pipeline) scheduleMetaRelease() {
	if p.metaTimer != nil {
		p.metaTimer.Stop()
	}
	p.metaTimer = p.sched.AfterFunc(p.cfg.MetaReleaseDelay, func() {
		p.metaTimer = nil
		if recs := p.tracker.RetractUnderMeta(); len(recs) > 0 {
			p.logger.Debug("forced release of keys pressed with meta", "keys", len(recs))
			p.send()
		}
	})
}

// fixISO undoes the Backquote / IntlBackslash swap some browsers apply on
// ISO keyboards, using the produced character as the witness.
func (p *Pipeline) fixISO(ev KeyEvent) KeyEvent {
	if !p.cfg.ISOBackquoteFix {
		return ev
	}
	switch {
	case ev.Code == "IntlBackslash" && (ev.Key == "`" || ev.Key == "~"):
		ev.Code = "Backquote"
	case ev.Code == "Backquote" && (ev.Key == "§" || ev.Key == "±"):
		ev.Code = "IntlBackslash"
	}
	return ev
}

// IsKeyLimit reports whether err is a dropped key due to the report limit.
func IsKeyLimit(err error) bool { return errors.Is(err, hid.ErrKeyLimitExceeded) }
