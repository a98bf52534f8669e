// Package handler implements the API routes of the keybridge server.
package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Alia5/keybridge/apitypes"
	"github.com/Alia5/keybridge/internal/server/api"
	apierror "github.com/Alia5/keybridge/internal/server/api/error"
)

// Ping returns a handler reporting the server identity and version.
func Ping(version string) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		return writeJSON(res, apitypes.PingResponse{Server: "keybridge", Version: version})
	}
}

func writeJSON(res *api.Response, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return apierror.ErrInternal(fmt.Sprintf("failed to marshal response: %v", err))
	}
	res.JSON = string(payload)
	return nil
}
