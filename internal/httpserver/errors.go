package httpserver

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"skillswap/internal/domain"
)

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

// writeError maps domain errors to HTTP status codes. Anything unrecognised
// is logged and reported as a 500 without details.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotAuthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrInvalidTransition):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		loggerFrom(r).Error("request failed", zap.Error(err))
		writeJSON(w, status, errorBody("internal server error"))
		return
	}
	writeJSON(w, status, errorBody(err.Error()))
}
