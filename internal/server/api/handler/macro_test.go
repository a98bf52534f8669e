package handler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/keybridge/apitypes"
	"github.com/Alia5/keybridge/hid"
	th "github.com/Alia5/keybridge/internal/testing"
	"github.com/Alia5/keybridge/macro"
)

func TestMacroSaveListRemove(t *testing.T) {
	f := newFixture(t)

	saved := decode[apitypes.Macro](t, th.ExecCmd(t, f.addr,
		`macro/save {"name":"copy","steps":[{"keys":["KeyC"],"modifiers":["ControlLeft"],"delay":50}]}`))
	require.NotEmpty(t, saved.ID)
	assert.Equal(t, "copy", saved.Name)

	list := decode[apitypes.MacroListResponse](t, th.ExecCmd(t, f.addr, "macro/list"))
	require.Len(t, list.Macros, 1)
	assert.Equal(t, saved, list.Macros[0])

	removed := decode[apitypes.MacroRemoveResponse](t, th.ExecCmd(t, f.addr, "macro/"+saved.ID+"/remove"))
	assert.Equal(t, saved.ID, removed.ID)
	assert.Empty(t, f.store.List())

	notFound := decode[apitypes.ApiError](t, th.ExecCmd(t, f.addr, "macro/"+saved.ID+"/remove"))
	assert.Equal(t, 404, notFound.Status)
}

func TestMacroSaveRejections(t *testing.T) {
	tests := []struct {
		name       string
		payload    string
		wantStatus int
		wantReason macro.Reason
	}{
		{name: "missing payload", payload: "", wantStatus: 400},
		{name: "bad json", payload: "{", wantStatus: 400},
		{name: "empty name", payload: `{"name":"","steps":[]}`, wantStatus: 400, wantReason: macro.ReasonNameEmpty},
		{name: "unknown key", payload: `{"name":"x","steps":[{"keys":["KeyQQ"]}]}`, wantStatus: 400, wantReason: macro.ReasonUnknownKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			cmd := "macro/save"
			if tt.payload != "" {
				cmd += " " + tt.payload
			}
			out := decode[apitypes.ApiError](t, th.ExecCmd(t, f.addr, cmd))
			assert.Equal(t, tt.wantStatus, out.Status)
			assert.Equal(t, string(tt.wantReason), out.Reason)
		})
	}
}

func TestMacroPlayAndCancel(t *testing.T) {
	f := newFixture(t)
	m, err := f.store.Save(macro.Macro{ID: "long", Name: "long", Steps: []macro.Step{
		{Keys: []string{"KeyL"}, Delay: 10000},
	}})
	require.NoError(t, err)

	out := decode[apitypes.MacroPlayResponse](t, th.ExecCmd(t, f.addr, "macro/long/play"))
	assert.Equal(t, apitypes.MacroPlayResponse{ID: m.ID}, out)
	assert.Equal(t, hid.Report{Keys: []hid.KeyCode{hid.KeyL}}, f.sink.Last())

	state := decode[apitypes.KeyboardStateResponse](t, th.ExecCmd(t, f.addr, "keyboard/state"))
	assert.Equal(t, "long", state.MacroID)

	cancelled := decode[apitypes.MacroRemoveResponse](t, th.ExecCmd(t, f.addr, "macro/cancel"))
	assert.Equal(t, "long", cancelled.ID)
	assert.Equal(t, hid.Report{}, f.sink.Last())

	cancelled = decode[apitypes.MacroRemoveResponse](t, th.ExecCmd(t, f.addr, "macro/cancel"))
	assert.Empty(t, cancelled.ID)

	missing := decode[apitypes.ApiError](t, th.ExecCmd(t, f.addr, "macro/nope/play"))
	assert.Equal(t, 404, missing.Status)
}
