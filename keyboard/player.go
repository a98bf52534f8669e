package keyboard

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Alia5/keybridge/hid"
	"github.com/Alia5/keybridge/macro"
)

// Player replays macros step by step through timers. For each step it
// emits a report with the step's keys and modifiers, waits the step delay,
// emits the base report, waits the step gap and moves on. The step's own
// modifier list is authoritative; physically held state is not merged into
// the press, but the release goes back to it.
//
// Player is not safe for concurrent use; see Pipeline.
type Player struct {
	cfg     Config
	layouts LayoutSource
	sched   Scheduler
	emit    func(hid.Report)
	logger  *slog.Logger
	// base is the state releases return to; nil means the empty report.
	base func() hid.Report

	run *playback
}

type playback struct {
	id    string
	steps []playStep
	next  int
	timer Timer
	done  func(error)
}

type playStep struct {
	report hid.Report
	delay  time.Duration
	wait   bool
}

func NewPlayer(cfg Config, layouts LayoutSource, sched Scheduler, emit func(hid.Report), logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.Default()
	}
	if sched == nil {
		sched = ClockScheduler{}
	}
	return &Player{cfg: cfg.withDefaults(), layouts: layouts, sched: sched, emit: emit, logger: logger}
}

// Play starts m, cancelling any macro already playing. The first step is
// emitted before Play returns. done, if set, runs once with nil after the
// last release, or with ErrMacroCancelled.
//
// Keys past the report limit are dropped; the returned error then wraps
// hid.ErrKeyLimitExceeded while playback still goes ahead. Unknown keys or
// modifiers fail without emitting anything.
func (p *Player) Play(m macro.Macro, done func(error)) error {
	steps, warn, err := p.compile(m)
	if err != nil {
		return err
	}
	p.Cancel()

	p.run = &playback{id: m.ID, steps: steps, done: done}
	p.logger.Info("playing macro", "id", m.ID, "name", m.Name, "steps", len(steps))
	p.step(p.run)
	return warn
}

// Cancel stops the playing macro before its next emission and emits a
// final release so no macro key is left held.
func (p *Player) Cancel() bool {
	run := p.run
	if run == nil {
		return false
	}
	p.run = nil
	if run.timer != nil {
		run.timer.Stop()
	}
	p.emit(p.release())
	p.logger.Info("macro cancelled", "id", run.id, "step", run.next)
	if run.done != nil {
		run.done(fmt.Errorf("%w: %s", ErrMacroCancelled, run.id))
	}
	return true
}

// Running returns the id of the playing macro.
func (p *Player) Running() (string, bool) {
	if p.run == nil {
		return "", false
	}
	return p.run.id, true
}

func (p *Player) step(run *playback) {
	if p.run != run {
		return
	}
	if run.next >= len(run.steps) {
		p.run = nil
		p.logger.Debug("macro finished", "id", run.id)
		if run.done != nil {
			run.done(nil)
		}
		return
	}
	st := run.steps[run.next]
	run.next++
	if st.wait {
		run.timer = p.sched.AfterFunc(st.delay, func() { p.step(run) })
		return
	}
	p.emit(st.report)
	run.timer = p.sched.AfterFunc(st.delay, func() {
		if p.run != run {
			return
		}
		p.emit(p.release())
		if run.next >= len(run.steps) {
			p.step(run)
			return
		}
		run.timer = p.sched.AfterFunc(p.cfg.StepGap, func() { p.step(run) })
	})
}

func (p *Player) release() hid.Report {
	if p.base == nil {
		return hid.Report{}
	}
	return p.base()
}

// compile resolves every step up front so a bad macro emits nothing.
func (p *Player) compile(m macro.Macro) (steps []playStep, warn error, err error) {
	l := p.layouts.Active()
	out := make([]playStep, 0, len(m.Steps))
	for i, s := range m.Steps {
		delay := s.Duration()
		if delay <= 0 {
			delay = p.cfg.StepDelay
		}
		if s.IsWait() {
			out = append(out, playStep{delay: delay, wait: true})
			continue
		}
		mods, unknown, ok := hid.ParseModifiers(s.Modifiers)
		if !ok {
			return nil, nil, fmt.Errorf("step %d: %w: modifier %q", i, ErrUnknownKey, unknown)
		}
		r := hid.Report{Modifiers: Resolve(0, Implied{}, mods)}
		for _, name := range s.Keys {
			k, ok := l.KeyCode(name)
			if !ok {
				return nil, nil, fmt.Errorf("step %d: %w: %q", i, ErrUnknownKey, name)
			}
			if addErr := r.Add(k, p.cfg.MaxSimultaneousKeys); addErr != nil && warn == nil {
				warn = fmt.Errorf("step %d: %w", i, addErr)
				p.logger.Warn("macro step key dropped", "id", m.ID, "step", i, "key", name)
			}
		}
		out = append(out, playStep{report: r, delay: delay})
	}
	return out, warn, nil
}
