// Package keyboard translates host keyboard events, on-screen key clicks and
// stored macros into HID keyboard reports.
//
// All state lives on a single goroutine owned by a Session. Events are
// handled strictly in arrival order, and timer callbacks (macro steps, the
// deferred Meta release) are queued behind them on the same goroutine.
package keyboard

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/Alia5/keybridge/hid"
	"github.com/Alia5/keybridge/layout"
	"github.com/Alia5/keybridge/macro"
)

// Sink receives every report. Reports are full state; a sink that drops one
// is corrected by the next.
type Sink interface {
	WriteReport(r hid.Report) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(r hid.Report) error

func (f SinkFunc) WriteReport(r hid.Report) error { return f(r) }

// Session owns a Pipeline, VirtualKeyboard and Player and runs them on one
// event loop. Its methods are safe for concurrent use and block until the
// loop has handled the call.
type Session struct {
	cfg      Config
	registry *layout.Registry
	sink     Sink
	logger   *slog.Logger

	pipeline *Pipeline
	virtual  *VirtualKeyboard
	player   *Player

	inbox     chan func()
	done      chan struct{}
	closeOnce sync.Once
	unsub     func()

	lastMu sync.Mutex
	last   hid.Report
}

// SessionOption configures a Session.
type SessionOption func(*sessionOptions)

type sessionOptions struct {
	sched Scheduler
}

// WithScheduler replaces the wall clock, for tests.
func WithScheduler(s Scheduler) SessionOption {
	return func(o *sessionOptions) { o.sched = s }
}

// NewSession starts a session translating against registry's active layout.
// Switching the active layout cancels a playing macro; held keys keep the
// key codes they were pressed with.
func NewSession(cfg Config, registry *layout.Registry, sink Sink, logger *slog.Logger, opts ...SessionOption) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	o := sessionOptions{sched: ClockScheduler{}}
	for _, opt := range opts {
		opt(&o)
	}
	cfg = cfg.withDefaults()
	s := &Session{
		cfg:      cfg,
		registry: registry,
		sink:     sink,
		logger:   logger,
		inbox:    make(chan func(), 64),
		done:     make(chan struct{}),
	}
	sched := loopScheduler{inner: o.sched, post: s.post}
	s.pipeline = NewPipeline(cfg, registry, sched, s.emit, logger)
	s.virtual = NewVirtualKeyboard(s.pipeline, cfg.StickyModifiers)
	s.player = NewPlayer(cfg, registry, sched, s.emit, logger)
	s.player.base = s.pipeline.Report

	s.unsub = registry.Subscribe(func(l *layout.Layout) {
		s.post(func() {
			if s.player.Cancel() {
				s.logger.Info("layout changed, macro cancelled", "layout", l.Name())
			}
		})
	})
	go s.loop()
	return s
}

func (s *Session) loop() {
	for {
		select {
		case fn := <-s.inbox:
			fn()
		case <-s.done:
			return
		}
	}
}

// post queues fn on the loop. It reports false once the session is closed.
func (s *Session) post(fn func()) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.inbox <- fn:
		return true
	case <-s.done:
		return false
	}
}

// do runs fn on the loop and waits for it.
func (s *Session) do(fn func() error) error {
	result := make(chan error, 1)
	if !s.post(func() { result <- fn() }) {
		return ErrSessionClosed
	}
	select {
	case err := <-result:
		return err
	case <-s.done:
		return ErrSessionClosed
	}
}

func (s *Session) emit(r hid.Report) {
	s.lastMu.Lock()
	s.last = r.Clone()
	s.lastMu.Unlock()
	if s.sink == nil {
		return
	}
	if err := s.sink.WriteReport(r); err != nil {
		s.logger.Error("failed to write report", "report", r.String(), "error", err)
	}
}

// KeyDown handles a host key press. Dropped presses return an error
// wrapping hid.ErrKeyLimitExceeded.
func (s *Session) KeyDown(ev KeyEvent) error {
	return s.do(func() error { return s.pipeline.KeyDown(ev) })
}

// KeyUp handles a host key release.
func (s *Session) KeyUp(ev KeyEvent) error {
	return s.do(func() error { return s.pipeline.KeyUp(ev) })
}

// Blur handles the window losing focus: all state is reset.
func (s *Session) Blur() error { return s.Reset() }

// VisibilityChange handles the document being hidden or shown: all state
// is reset.
func (s *Session) VisibilityChange() error { return s.Reset() }

// Reset cancels a playing macro, drops all key state and emits an empty
// report.
func (s *Session) Reset() error {
	return s.do(func() error {
		s.player.Cancel()
		s.pipeline.ResetAll()
		return nil
	})
}

// Click handles an on-screen key.
func (s *Session) Click(name string) error {
	return s.do(func() error { return s.virtual.Click(name) })
}

// ToggleSticky flips an on-screen modifier latch.
func (s *Session) ToggleSticky(name string) error {
	return s.do(func() error { return s.virtual.Toggle(name) })
}

// Sticky returns the on-screen modifier latches.
func (s *Session) Sticky() Sticky {
	var st Sticky
	_ = s.do(func() error { st = s.virtual.State(); return nil })
	return st
}

// TypeText clicks every character of text through the active layout.
// Characters the layout cannot produce are skipped; the returned error
// holds an *UnmappedError naming them.
func (s *Session) TypeText(text string) error {
	return s.do(func() error {
		var skipped []string
		var errs []error
		l := s.registry.Active()
		for _, r := range text {
			ch := string(r)
			m, err := l.Char(ch)
			if err != nil {
				skipped = append(skipped, ch)
				continue
			}
			mods := Resolve(0, ImpliedBy(m), s.pipeline.sticky.Modifiers())
			if err := s.pipeline.tap(m.KeyCode, mods); err != nil {
				errs = append(errs, err)
				continue
			}
			s.pipeline.sticky.clearOneShot()
		}
		if len(skipped) > 0 {
			s.logger.Warn("characters not typed", "layout", l.Name(), "chars", skipped)
			errs = append(errs, &UnmappedError{Layout: l.Name(), Chars: skipped})
		}
		return errors.Join(errs...)
	})
}

// StartMacro starts playing m and returns once the first step is sent. done
// runs on the event loop when playback ends.
func (s *Session) StartMacro(m macro.Macro, done func(error)) error {
	return s.do(func() error { return s.player.Play(m, done) })
}

// PlayMacro plays m and waits for it to finish. Cancelling ctx cancels the
// macro and returns an error wrapping ErrMacroCancelled.
func (s *Session) PlayMacro(ctx context.Context, m macro.Macro) error {
	finished := make(chan error, 1)
	err := s.StartMacro(m, func(err error) { finished <- err })
	if err != nil && !errors.Is(err, hid.ErrKeyLimitExceeded) {
		return err
	}
	select {
	case perr := <-finished:
		return errors.Join(err, perr)
	case <-ctx.Done():
		_ = s.CancelMacro()
		select {
		case perr := <-finished:
			return errors.Join(err, perr)
		case <-s.done:
			return ErrSessionClosed
		}
	case <-s.done:
		return ErrSessionClosed
	}
}

// CancelMacro stops a playing macro. It is a no-op when none is playing.
func (s *Session) CancelMacro() error {
	return s.do(func() error {
		s.player.Cancel()
		return nil
	})
}

// MacroRunning returns the id of the playing macro.
func (s *Session) MacroRunning() (string, bool) {
	var id string
	var ok bool
	_ = s.do(func() error { id, ok = s.player.Running(); return nil })
	return id, ok
}

// Report returns the last report sent.
func (s *Session) Report() hid.Report {
	s.lastMu.Lock()
	defer s.lastMu.Unlock()
	return s.last.Clone()
}

// Records returns the active key records.
func (s *Session) Records() []Record {
	var out []Record
	_ = s.do(func() error { out = s.pipeline.Records(); return nil })
	return out
}

// Flush waits until everything queued before the call has been handled.
func (s *Session) Flush() error {
	return s.do(func() error { return nil })
}

// Close cancels a playing macro, releases every key and stops the loop.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.unsub()
		err = s.do(func() error {
			s.player.Cancel()
			s.pipeline.ResetAll()
			return nil
		})
		close(s.done)
	})
	return err
}
