package httpx

import (
	"errors"
	"net/http"

	"github.com/deristok/deristok/internal/shared"
)

// RespondError maps domain errors to failure envelopes.
// A workflow failure never crosses the boundary as anything but
// `{success:false, error:...}`; only the status code varies.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Fail(w, http.StatusNotFound, err.Error())
	case errors.Is(err, shared.ErrValidation):
		Fail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, shared.ErrConflict):
		Fail(w, http.StatusConflict, err.Error())
	case errors.Is(err, shared.ErrUnauthorized):
		Fail(w, http.StatusUnauthorized, err.Error())
	default:
		Fail(w, http.StatusInternalServerError, err.Error())
	}
}
