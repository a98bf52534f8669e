package handler_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Alia5/keybridge/internal/server/api"
	"github.com/Alia5/keybridge/internal/server/api/handler"
	th "github.com/Alia5/keybridge/internal/testing"
	"github.com/Alia5/keybridge/keyboard"
	"github.com/Alia5/keybridge/layout"
	"github.com/Alia5/keybridge/macro"
	"github.com/Alia5/keybridge/transport"
)

type fixture struct {
	addr    string
	reg     *layout.Registry
	store   *macro.Store
	session *keyboard.Session
	sink    *th.RecordingSink
	leds    *transport.LEDHub
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		reg:  layout.NewRegistry(nil),
		sink: &th.RecordingSink{},
		leds: transport.NewLEDHub(),
	}
	var err error
	f.store, err = macro.Open(filepath.Join(t.TempDir(), "macros.json"), macro.DefaultLimits(), nil)
	require.NoError(t, err)
	f.session = keyboard.NewSession(keyboard.DefaultConfig(), f.reg, f.sink, nil)
	t.Cleanup(func() { _ = f.session.Close() })

	f.addr = th.StartAPIServer(t, api.ServerConfig{}, func(r *api.Router) {
		r.Register("ping", handler.Ping("test"))
		r.Register("layout/list", handler.LayoutList(f.reg))
		r.Register("layout/set", handler.LayoutSet(f.reg))
		r.Register("macro/list", handler.MacroList(f.store))
		r.Register("macro/save", handler.MacroSave(f.store))
		r.Register("macro/cancel", handler.MacroCancel(f.session))
		r.Register("macro/{id}/remove", handler.MacroRemove(f.store))
		r.Register("macro/{id}/play", handler.MacroPlay(f.store, f.session))
		r.Register("keyboard/reset", handler.KeyboardReset(f.session))
		r.Register("keyboard/type", handler.KeyboardType(f.session))
		r.Register("keyboard/state", handler.KeyboardState(f.session, f.reg, f.leds))
		r.RegisterStream("keyboard", handler.KeyboardStream(f.session, f.leds))
	})
	return f
}

func decode[T any](t *testing.T, line string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(line), &v), "response: %s", line)
	return v
}
