package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Alia5/keybridge/apitypes"
	"github.com/Alia5/keybridge/hid"
	"github.com/Alia5/keybridge/internal/server/api"
	apierror "github.com/Alia5/keybridge/internal/server/api/error"
	"github.com/Alia5/keybridge/keyboard"
	"github.com/Alia5/keybridge/macro"
)

// MacroList returns a handler listing the stored macros in sort order.
func MacroList(store *macro.Store) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		out := apitypes.MacroListResponse{Macros: []apitypes.Macro{}}
		for _, m := range store.List() {
			out.Macros = append(out.Macros, toAPIMacro(m))
		}
		return writeJSON(res, out)
	}
}

// MacroSave returns a handler creating or replacing a macro. The payload is
// a JSON macro; an empty id creates a new one.
func MacroSave(store *macro.Store) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		if req.Payload == "" {
			return apierror.ErrBadRequest("missing payload")
		}
		var in apitypes.Macro
		if err := json.Unmarshal([]byte(req.Payload), &in); err != nil {
			return apierror.ErrBadRequest(fmt.Sprintf("invalid JSON payload: %v", err))
		}
		saved, err := store.Save(fromAPIMacro(in))
		if err != nil {
			return err
		}
		logger.Info("macro saved", "id", saved.ID, "name", saved.Name)
		return writeJSON(res, toAPIMacro(saved))
	}
}

// MacroRemove returns a handler deleting the macro named by the id param.
func MacroRemove(store *macro.Store) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		id, ok := req.Params["id"]
		if !ok || id == "" {
			return apierror.ErrBadRequest("missing id parameter")
		}
		if err := store.Remove(id); err != nil {
			return err
		}
		logger.Info("macro removed", "id", id)
		return writeJSON(res, apitypes.MacroRemoveResponse{ID: id})
	}
}

// MacroPlay returns a handler starting the macro named by the id param. It
// returns once the first step is sent; a running macro is replaced.
func MacroPlay(store *macro.Store, session *keyboard.Session) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		id, ok := req.Params["id"]
		if !ok || id == "" {
			return apierror.ErrBadRequest("missing id parameter")
		}
		m, err := store.Get(id)
		if err != nil {
			return err
		}
		out := apitypes.MacroPlayResponse{ID: m.ID}
		err = session.StartMacro(m, func(err error) {
			if err != nil {
				logger.Debug("macro stopped", "id", m.ID, "error", err)
				return
			}
			logger.Debug("macro finished", "id", m.ID)
		})
		switch {
		case errors.Is(err, hid.ErrKeyLimitExceeded):
			out.Warning = err.Error()
		case err != nil:
			return err
		}
		return writeJSON(res, out)
	}
}

// MacroCancel returns a handler stopping the running macro.
func MacroCancel(session *keyboard.Session) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		id, running := session.MacroRunning()
		if err := session.CancelMacro(); err != nil {
			return err
		}
		if !running {
			id = ""
		}
		return writeJSON(res, apitypes.MacroRemoveResponse{ID: id})
	}
}
