// Package transport delivers HID reports to the controlled machine and
// carries lock-light state back.
package transport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/Alia5/keybridge/hid"
	"github.com/Alia5/keybridge/internal/log"
)

// Sink receives full-state reports. It satisfies keyboard.Sink.
type Sink interface {
	WriteReport(r hid.Report) error
	io.Closer
}

// Multi fans reports out to every sink. A failing sink does not stop the
// others; the errors are joined.
type Multi []Sink

func (m Multi) WriteReport(r hid.Report) error {
	var errs []error
	for _, s := range m {
		if err := s.WriteReport(r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}

// LogSink logs every report. It is the default output when no device is
// configured.
type LogSink struct {
	logger *slog.Logger
	level  slog.Level
}

// NewLogSink returns a sink logging at level.
func NewLogSink(logger *slog.Logger, level slog.Level) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger, level: level}
}

func (l *LogSink) WriteReport(r hid.Report) error {
	l.logger.Log(context.Background(), l.level, "hid report", "report", r.String())
	return nil
}

func (l *LogSink) Close() error { return nil }

// rawSink hex-dumps each report in stream format before passing it on.
type rawSink struct {
	Sink
	raw log.RawLogger
}

// WithRaw wraps s so every report is also written to raw.
func WithRaw(s Sink, raw log.RawLogger) Sink {
	if raw == nil {
		return s
	}
	return &rawSink{Sink: s, raw: raw}
}

func (s *rawSink) WriteReport(r hid.Report) error {
	if b, err := r.MarshalBinary(); err == nil {
		s.raw.Log(log.Outbound, b)
	}
	return s.Sink.WriteReport(r)
}

// LEDHub keeps the latest lock-light state reported by any sink and
// notifies subscribers of changes.
type LEDHub struct {
	mu     sync.Mutex
	state  hid.LEDState
	known  bool
	nextID int
	subs   map[int]func(hid.LEDState)
}

// NewLEDHub returns an empty hub.
func NewLEDHub() *LEDHub {
	return &LEDHub{subs: map[int]func(hid.LEDState){}}
}

// Set records st and notifies subscribers when it differs from the last
// state.
func (h *LEDHub) Set(st hid.LEDState) {
	h.mu.Lock()
	if h.known && h.state == st {
		h.mu.Unlock()
		return
	}
	h.state, h.known = st, true
	subs := make([]func(hid.LEDState), 0, len(h.subs))
	for _, fn := range h.subs {
		subs = append(subs, fn)
	}
	h.mu.Unlock()

	for _, fn := range subs {
		fn(st)
	}
}

// Get returns the last state and whether any was reported yet.
func (h *LEDHub) Get() (hid.LEDState, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state, h.known
}

// Subscribe calls fn on every change until the returned func is called.
func (h *LEDHub) Subscribe(fn func(hid.LEDState)) (unsubscribe func()) {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.subs[id] = fn
	h.mu.Unlock()
	return func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}
}
