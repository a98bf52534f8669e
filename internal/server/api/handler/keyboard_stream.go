package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/Alia5/keybridge/apitypes"
	"github.com/Alia5/keybridge/hid"
	"github.com/Alia5/keybridge/internal/server/api"
	"github.com/Alia5/keybridge/keyboard"
	"github.com/Alia5/keybridge/layout"
	"github.com/Alia5/keybridge/transport"
)

const maxEventLine = 64 * 1024

// KeyboardStream returns a stream handler fed one JSON KeyboardEvent per
// line. The server answers with JSON Notice lines: warnings for rejected
// events, LED changes and, after every event that changed it, the current
// report. Disconnecting releases every key.
func KeyboardStream(session *keyboard.Session, leds *transport.LEDHub) api.StreamHandlerFunc {
	return func(ctx context.Context, conn net.Conn, params map[string]string, logger *slog.Logger) error {
		n := &notifier{enc: json.NewEncoder(conn)}
		defer func() {
			if err := session.Reset(); err != nil && !errors.Is(err, keyboard.ErrSessionClosed) {
				logger.Error("failed to release keys", "error", err)
			}
		}()

		if leds != nil {
			unsub := leds.Subscribe(func(st hid.LEDState) {
				n.send(apitypes.Notice{Type: apitypes.NoticeLEDs, LEDs: toAPILEDs(st)})
			})
			defer unsub()
			if st, known := leds.Get(); known {
				n.send(apitypes.Notice{Type: apitypes.NoticeLEDs, LEDs: toAPILEDs(st)})
			}
		}

		logger.Info("keyboard stream started")
		last := session.Report()
		sc := bufio.NewScanner(conn)
		sc.Buffer(make([]byte, 0, 4096), maxEventLine)
		for sc.Scan() {
			line := sc.Bytes()
			if len(line) == 0 {
				continue
			}
			var ev apitypes.KeyboardEvent
			if err := json.Unmarshal(line, &ev); err != nil {
				n.send(apitypes.Notice{Type: apitypes.NoticeError, Detail: fmt.Sprintf("invalid event: %v", err)})
				continue
			}
			err := dispatch(session, ev)
			if errors.Is(err, keyboard.ErrSessionClosed) {
				return err
			}
			if err != nil {
				logger.Debug("event rejected", "type", ev.Type, "code", ev.Code, "error", err)
				n.send(apitypes.Notice{Type: apitypes.NoticeWarning, Detail: err.Error(), Code: ev.Code})
			}
			if r := session.Report(); !r.Equal(last) {
				last = r
				ar := toAPIReport(r)
				n.send(apitypes.Notice{Type: apitypes.NoticeReport, Report: &ar})
			}
			if n.failed() {
				break
			}
		}
		if err := sc.Err(); err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) && ctx.Err() == nil {
			return err
		}
		logger.Info("keyboard stream closed")
		return nil
	}
}

func dispatch(session *keyboard.Session, ev apitypes.KeyboardEvent) error {
	switch ev.Type {
	case apitypes.EventKeyDown:
		return session.KeyDown(toKeyEvent(ev))
	case apitypes.EventKeyUp:
		return session.KeyUp(toKeyEvent(ev))
	case apitypes.EventBlur:
		return session.Blur()
	case apitypes.EventVisibility:
		return session.VisibilityChange()
	case apitypes.EventClick:
		return session.Click(keyName(ev))
	case apitypes.EventSticky:
		return session.ToggleSticky(keyName(ev))
	case apitypes.EventReset:
		return session.Reset()
	case apitypes.EventType:
		err := session.TypeText(ev.Text)
		var unmapped *keyboard.UnmappedError
		if errors.As(err, &unmapped) {
			return fmt.Errorf("%w: skipped %q", layout.ErrUnmappedCharacter, unmapped.Chars)
		}
		return err
	default:
		return fmt.Errorf("unknown event type %q", ev.Type)
	}
}

func toKeyEvent(ev apitypes.KeyboardEvent) keyboard.KeyEvent {
	return keyboard.KeyEvent{
		Code:      ev.Code,
		Key:       ev.Key,
		Modifiers: keyboard.HostModifiers(ev.Modifiers),
		Repeat:    ev.Repeat,
	}
}

// keyName picks the on-screen key name of a click, preferring the code.
func keyName(ev apitypes.KeyboardEvent) string {
	if ev.Code != "" {
		return ev.Code
	}
	return ev.Key
}

// notifier serializes notice writes from the read loop and LED callbacks.
type notifier struct {
	mu  sync.Mutex
	enc *json.Encoder
	err error
}

func (n *notifier) send(notice apitypes.Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return
	}
	n.err = n.enc.Encode(notice)
}

func (n *notifier) failed() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.err != nil
}
