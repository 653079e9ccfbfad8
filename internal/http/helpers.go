package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"fintrack/internal/log"
	"fintrack/internal/services"
)

// apiError carries the status a handler wants reported.
type apiError struct {
	status  int
	message string
}

func (e *apiError) Error() string { return e.message }

func notFound(format string, args ...any) error {
	return &apiError{status: http.StatusNotFound, message: fmt.Sprintf(format, args...)}
}

func unprocessable(err error) error {
	return &apiError{status: http.StatusUnprocessableEntity, message: err.Error()}
}

func badRequest(err error) error {
	return &apiError{status: http.StatusBadRequest, message: err.Error()}
}

func conflict(format string, args ...any) error {
	return &apiError{status: http.StatusConflict, message: fmt.Sprintf(format, args...)}
}

// fail writes err as a JSON error. Unknown errors are logged and reported
// as 500 without their text.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var ae *apiError
	switch {
	case errors.As(err, &ae):
		ErrorResponse(ae.status, ae.message).Write(w)
	case errors.Is(err, services.ErrPendingNotFound):
		NotFoundError(err.Error()).Write(w)
	case errors.Is(err, errBodyTooLarge):
		s.metrics.countOversized()
		ErrorResponse(http.StatusRequestEntityTooLarge, err.Error()).Write(w)
	default:
		s.structured(r.Context()).LogError(r.Context(), "Request failed", err,
			log.ComponentHTTP, r.Method, log.NewFields().WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", ""))
		InternalServerError("internal error").Write(w)
	}
}

// decode reads a JSON body, reporting malformed input as 400.
func decode(r *http.Request, v any, allowEmpty bool) error {
	if err := decodeJSON(r, v, allowEmpty); err != nil {
		if errors.Is(err, errBodyTooLarge) {
			return err
		}
		return badRequest(err)
	}
	return nil
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	return "req_" + uuid.NewString()
}
