// Package apierror builds problem+json errors and maps domain errors onto
// them.
package apierror

import (
	"errors"

	"github.com/Alia5/keybridge/apitypes"
	"github.com/Alia5/keybridge/hid"
	"github.com/Alia5/keybridge/keyboard"
	"github.com/Alia5/keybridge/layout"
	"github.com/Alia5/keybridge/macro"
)

func ErrBadRequest(detail string) apitypes.ApiError {
	return apitypes.ApiError{Status: 400, Title: "Bad Request", Detail: detail}
}
func ErrUnauthorized(detail string) apitypes.ApiError {
	return apitypes.ApiError{Status: 401, Title: "Unauthorized", Detail: detail}
}
func ErrNotFound(detail string) apitypes.ApiError {
	return apitypes.ApiError{Status: 404, Title: "Not Found", Detail: detail}
}
func ErrConflict(detail string) apitypes.ApiError {
	return apitypes.ApiError{Status: 409, Title: "Conflict", Detail: detail}
}
func ErrInternal(detail string) apitypes.ApiError {
	return apitypes.ApiError{Status: 500, Title: "Internal Server Error", Detail: detail}
}
func ErrUnavailable(detail string) apitypes.ApiError {
	return apitypes.ApiError{Status: 503, Title: "Service Unavailable", Detail: detail}
}

// WrapError normalizes any error into apitypes.ApiError. Known domain
// errors get their own status; everything else is a 500.
func WrapError(err error) apitypes.ApiError {
	var ae *apitypes.ApiError
	if errors.As(err, &ae) {
		return *ae
	}
	var av apitypes.ApiError
	if errors.As(err, &av) {
		return av
	}

	var verr *macro.ValidationError
	switch {
	case errors.As(err, &verr):
		out := ErrBadRequest(err.Error())
		if verr.IsLimit() {
			out = ErrConflict(err.Error())
		}
		out.Reason = string(verr.Reason)
		return out
	case errors.Is(err, macro.ErrNotFound), errors.Is(err, layout.ErrUnknownLayout):
		return ErrNotFound(err.Error())
	case errors.Is(err, keyboard.ErrUnknownKey), errors.Is(err, layout.ErrUnmappedCharacter):
		return ErrBadRequest(err.Error())
	case errors.Is(err, hid.ErrKeyLimitExceeded):
		return ErrConflict(err.Error())
	case errors.Is(err, keyboard.ErrSessionClosed):
		return ErrUnavailable(err.Error())
	}
	return ErrInternal(err.Error())
}
