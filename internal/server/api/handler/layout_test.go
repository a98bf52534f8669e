package handler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/keybridge/apitypes"
	th "github.com/Alia5/keybridge/internal/testing"
	"github.com/Alia5/keybridge/layout"
)

func TestLayoutList(t *testing.T) {
	f := newFixture(t)
	out := decode[apitypes.LayoutListResponse](t, th.ExecCmd(t, f.addr, "layout/list"))
	assert.Equal(t, layout.DefaultLayout, out.Active)

	names := make([]string, 0, len(out.Layouts))
	for _, l := range out.Layouts {
		names = append(names, l.Name)
		assert.NotEmpty(t, l.DisplayName)
	}
	assert.Equal(t, f.reg.Names(), names)
}

func TestLayoutSet(t *testing.T) {
	tests := []struct {
		name    string
		cmd     string
		want    apitypes.LayoutSetResponse
		wantErr int
	}{
		{name: "known", cmd: "layout/set de_DE", want: apitypes.LayoutSetResponse{Active: "de_DE"}},
		{name: "unknown falls back", cmd: "layout/set xx_XX", want: apitypes.LayoutSetResponse{Active: layout.DefaultLayout, Fallback: true}},
		{name: "missing name", cmd: "layout/set", wantErr: 400},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			line := th.ExecCmd(t, f.addr, tt.cmd)
			if tt.wantErr != 0 {
				assert.Equal(t, tt.wantErr, decode[apitypes.ApiError](t, line).Status)
				return
			}
			require.Equal(t, tt.want, decode[apitypes.LayoutSetResponse](t, line))
			assert.Equal(t, tt.want.Active, f.reg.Active().Name())
		})
	}
}
