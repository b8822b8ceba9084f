package helpers

import (
	"errors"
	"log/slog"
	"net/http"

	"eventplanner/internal/domain"
)

// WriteServiceError maps an error returned by a domain service to the response envelope.
// Unexpected errors are logged and reported as 500.
func WriteServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, APIResponse{Error: &APIError{
			Code:    ErrCodeBadRequest,
			Message: verr.Error(),
			Details: verr.Fields,
		}})
	case errors.Is(err, domain.ErrInvalidInput):
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		WriteJSONError(w, http.StatusNotFound, ErrCodeNotFound, "event not found")
	case errors.Is(err, domain.ErrUnauthorized):
		WriteJSONError(w, http.StatusForbidden, ErrCodeForbidden, "forbidden")
	default:
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		WriteJSONError(w, http.StatusInternalServerError, ErrCodeInternalError, "internal error")
	}
}

// PartialFailure reports whether err describes a write that went through with a failed
// follow-up step, and returns its details.
func PartialFailure(err error) (*domain.PartialFailureError, bool) {
	var pf *domain.PartialFailureError
	if errors.As(err, &pf) {
		return pf, true
	}
	return nil, false
}
