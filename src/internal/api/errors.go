package api

import (
	"encoding/json"
	"net/http"

	"github.com/nmstate/nmstate-go/src/internal/errors"
)

// APIError represents a structured API error response. Code is the nmstate
// error kind.
type APIError struct {
	Code    errors.ErrorKind       `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ErrorResponse wraps an APIError for JSON responses.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// NewAPIError creates a new APIError with the given code and message.
func NewAPIError(code errors.ErrorKind, message string) APIError {
	return APIError{
		Code:    code,
		Message: message,
	}
}

// WriteError writes an error response to the HTTP response writer.
func WriteError(w http.ResponseWriter, statusCode int, err APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: err})
}

// WriteInvalidRequest writes a 400 Bad Request error.
func WriteInvalidRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, NewAPIError(errors.KindInvalidArgument, message))
}

// WriteInternalError writes a 500 Internal Server Error.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, NewAPIError(errors.KindBug, message))
}

// WriteNmstateError maps an error returned by the library to a response.
func WriteNmstateError(w http.ResponseWriter, err error) {
	kind := errors.KindOf(err)
	msg := err.Error()
	if e, ok := errors.As(err); ok {
		msg = e.Msg()
	}
	WriteError(w, statusForKind(kind), NewAPIError(kind, msg))
}

func statusForKind(kind errors.ErrorKind) int {
	switch kind {
	case errors.KindInvalidArgument, errors.KindPolicyError:
		return http.StatusBadRequest
	case errors.KindPermissionError:
		return http.StatusForbidden
	case errors.KindVerificationError, errors.KindKernelIntegerRounded:
		return http.StatusConflict
	case errors.KindNotSupported, errors.KindNotImplemented:
		return http.StatusNotImplemented
	case errors.KindTimeout:
		return http.StatusGatewayTimeout
	case errors.KindDependencyError, errors.KindSrIovVfNotFound:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
