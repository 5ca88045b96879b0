package handlers

import (
	"errors"
	"net/http"

	"github.com/dharmateja03/GoodTurkey/internal/models"
	pkgauth "github.com/dharmateja03/GoodTurkey/pkg/auth"
	pkghttp "github.com/dharmateja03/GoodTurkey/pkg/http"
	"github.com/dharmateja03/GoodTurkey/pkg/policy"
)

// writeServiceError maps service and core errors onto the JSON envelope.
func writeServiceError(w http.ResponseWriter, err error) {
	var (
		notReady *policy.UnlockNotReadyError
		invalid  *policy.ValidationError
		reqErr   *RequestValidationError
	)

	switch {
	case errors.As(err, &notReady):
		pkghttp.WriteUnlockNotReady(w, notReady.RemainingMs())
	case errors.Is(err, policy.ErrUnlockNotRequested):
		pkghttp.WriteUnlockNotRequested(w)
	case errors.As(err, &reqErr):
		pkghttp.WriteValidationError(w, reqErr.Error(), reqErr.Details())
	case errors.As(err, &invalid):
		pkghttp.WriteValidationError(w, invalid.Error(), invalid.Field)
	case errors.Is(err, pkgauth.ErrInvalidPassword):
		pkghttp.WriteValidationError(w, "Password does not meet requirements", "password")
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, "Invalid request")
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "Resource not found")
	case errors.Is(err, models.ErrStale):
		pkghttp.WriteConflict(w, "Resource was modified concurrently, reload and retry")
	case errors.Is(err, models.ErrConflict):
		pkghttp.WriteConflict(w, "Resource already exists")
	case errors.Is(err, models.ErrUnauthorized):
		pkghttp.WriteUnauthorized(w, "Authentication failed")
	case errors.Is(err, models.ErrForbidden):
		pkghttp.WriteForbidden(w, "Forbidden")
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}

// decodeAndValidate reads the body into dst and runs struct validation.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := pkghttp.DecodeJSON(w, r, dst); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return false
	}
	if err := ValidateRequest(dst); err != nil {
		writeServiceError(w, err)
		return false
	}
	return true
}
