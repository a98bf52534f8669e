package apitypes_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/keybridge/apitypes"
)

func TestKeyboardEvent_UnmarshalModifiers(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    apitypes.HostModifiers
		wantErr bool
	}{
		{name: "object", in: `{"type":"keydown","code":"KeyA","modifiers":{"shift":true,"altGraph":true}}`,
			want: apitypes.HostModifiers{Shift: true, AltGraph: true}},
		{name: "list", in: `{"type":"keydown","code":"KeyA","modifiers":["Control","meta"]}`,
			want: apitypes.HostModifiers{Ctrl: true, Meta: true}},
		{name: "missing", in: `{"type":"blur"}`},
		{name: "null", in: `{"type":"keyup","modifiers":null}`},
		{name: "unknown flag", in: `{"type":"keydown","modifiers":["hyper"]}`, wantErr: true},
		{name: "wrong type", in: `{"type":"keydown","modifiers":"shift"}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ev apitypes.KeyboardEvent
			err := json.Unmarshal([]byte(tt.in), &ev)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ev.Modifiers)
		})
	}
}

func TestKeyboardEvent_KeepsOtherFields(t *testing.T) {
	var ev apitypes.KeyboardEvent
	require.NoError(t, json.Unmarshal([]byte(`{"type":"keydown","code":"Digit2","key":"@","repeat":true,"modifiers":["shift"]}`), &ev))
	assert.Equal(t, apitypes.KeyboardEvent{
		Type:      apitypes.EventKeyDown,
		Code:      "Digit2",
		Key:       "@",
		Repeat:    true,
		Modifiers: apitypes.HostModifiers{Shift: true},
	}, ev)
}

func TestApiError_Error(t *testing.T) {
	assert.Equal(t, "unknown error", apitypes.ApiError{}.Error())
	assert.Equal(t, "404 Not Found: macro x", apitypes.ApiError{Status: 404, Title: "Not Found", Detail: "macro x"}.Error())
	assert.Equal(t, "Oops: bad", apitypes.ApiError{Title: "Oops", Detail: "bad"}.Error())
}
