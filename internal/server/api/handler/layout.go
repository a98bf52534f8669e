package handler

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/Alia5/keybridge/apitypes"
	"github.com/Alia5/keybridge/internal/server/api"
	apierror "github.com/Alia5/keybridge/internal/server/api/error"
	"github.com/Alia5/keybridge/layout"
)

// LayoutList returns a handler listing the registered layouts.
func LayoutList(reg *layout.Registry) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		out := apitypes.LayoutListResponse{Active: reg.Active().Name(), Layouts: []apitypes.Layout{}}
		for _, l := range reg.Layouts() {
			out.Layouts = append(out.Layouts, apitypes.Layout{Name: l.Name(), DisplayName: l.DisplayName()})
		}
		return writeJSON(res, out)
	}
}

// LayoutSet returns a handler switching the active layout. The payload is
// the layout name. Unknown names activate the default layout and set
// Fallback in the response.
func LayoutSet(reg *layout.Registry) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		name := strings.TrimSpace(req.Payload)
		if name == "" {
			return apierror.ErrBadRequest("missing layout name")
		}
		l, err := reg.SetActive(name)
		if err != nil && !errors.Is(err, layout.ErrUnknownLayout) {
			return err
		}
		return writeJSON(res, apitypes.LayoutSetResponse{Active: l.Name(), Fallback: err != nil})
	}
}
