package handler

import (
	"errors"
	"log/slog"
	"unicode/utf8"

	"github.com/Alia5/keybridge/apitypes"
	"github.com/Alia5/keybridge/internal/server/api"
	apierror "github.com/Alia5/keybridge/internal/server/api/error"
	"github.com/Alia5/keybridge/keyboard"
	"github.com/Alia5/keybridge/layout"
	"github.com/Alia5/keybridge/transport"
)

// KeyboardReset returns a handler releasing every key and cancelling a
// running macro.
func KeyboardReset(session *keyboard.Session) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		if err := session.Reset(); err != nil {
			return err
		}
		return writeJSON(res, toAPIReport(session.Report()))
	}
}

// KeyboardType returns a handler typing the payload through the active
// layout. Characters the layout cannot produce are skipped and listed.
func KeyboardType(session *keyboard.Session) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		if req.Payload == "" {
			return apierror.ErrBadRequest("missing text")
		}
		out := apitypes.TypeResponse{Typed: utf8.RuneCountInString(req.Payload)}
		err := session.TypeText(req.Payload)
		var unmapped *keyboard.UnmappedError
		if errors.As(err, &unmapped) {
			out.Skipped = unmapped.Chars
			out.Typed -= len(unmapped.Chars)
		} else if err != nil && !errors.Is(err, layout.ErrUnmappedCharacter) {
			return err
		}
		return writeJSON(res, out)
	}
}

// KeyboardState returns a handler describing the current keyboard state.
// leds may be nil when the sink cannot report them.
func KeyboardState(session *keyboard.Session, reg *layout.Registry, leds *transport.LEDHub) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		st := session.Sticky()
		out := apitypes.KeyboardStateResponse{
			Layout: reg.Active().Name(),
			Report: toAPIReport(session.Report()),
			Sticky: apitypes.Sticky(st),
			Held:   len(session.Records()),
		}
		if id, ok := session.MacroRunning(); ok {
			out.MacroID = id
		}
		if leds != nil {
			if l, known := leds.Get(); known {
				out.LEDs = toAPILEDs(l)
			}
		}
		return writeJSON(res, out)
	}
}
