package api

import (
	"github.com/Alia5/keybridge/apitypes"
	apierror "github.com/Alia5/keybridge/internal/server/api/error"
)

// Factory helpers returning *apitypes.ApiError (single canonical error type).
func ErrBadRequest(detail string) *apitypes.ApiError {
	e := apierror.ErrBadRequest(detail)
	return &e
}
func ErrNotFound(detail string) *apitypes.ApiError {
	e := apierror.ErrNotFound(detail)
	return &e
}

// WrapError normalizes any error into *apitypes.ApiError.
func WrapError(err error) *apitypes.ApiError {
	if err == nil {
		return nil
	}
	e := apierror.WrapError(err)
	return &e
}

func ErrUnauthorized(detail string) *apitypes.ApiError {
	e := apierror.ErrUnauthorized(detail)
	return &e
}
