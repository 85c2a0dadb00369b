package httpx

import (
	"errors"
	"net/http"

	"github.com/qrstock/qrstock/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807. Each
// failure kind keeps a stable title so clients can distinguish a missing
// product from an oversell from a server fault.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrInvalidArgument):
		Problem(w, http.StatusBadRequest, "Invalid Argument", err.Error())
	case errors.Is(err, shared.ErrInsufficientStock):
		Problem(w, http.StatusConflict, "Insufficient Stock", err.Error())
	case errors.Is(err, shared.ErrConflict):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, shared.ErrStorageFailure):
		Problem(w, http.StatusInternalServerError, "Storage Failure", "")
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
