package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	apperrors "github.com/wanderai/api-server/internal/errors"
)

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	OK      bool                `json:"ok"`
	Error   apperrors.ErrorCode `json:"error"`
	Message string              `json:"message"`
	Details any                 `json:"details,omitempty"`
}

// WriteError writes an AppError as an HTTP response with appropriate status code
func WriteError(w http.ResponseWriter, err error) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		// Wrap unknown errors as internal errors
		appErr = apperrors.Internal("An unexpected error occurred")
	}

	WriteErrorWithStatus(w, StatusFromCode(appErr.Code), appErr)
}

// WriteErrorWithStatus writes an error with a specific HTTP status code
func WriteErrorWithStatus(w http.ResponseWriter, status int, err *apperrors.AppError) {
	response := ErrorResponse{
		Error:   err.Code,
		Message: err.Message,
		Details: err.Details,
	}
	WriteJSON(w, status, response)
}

// DecodeJSON decodes a request body into dst. An empty body is not an error
// so that handlers can report the missing field instead.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperrors.ValidationError("Invalid request body").WithCause(err)
	}
	return nil
}

// StatusFromCode maps ErrorCode to HTTP status code
func StatusFromCode(code apperrors.ErrorCode) int {
	switch code {
	// 400 Bad Request
	case apperrors.ErrCodeValidation,
		apperrors.ErrCodeInvalidInput,
		apperrors.ErrCodeMissingRequired:
		return http.StatusBadRequest

	// 401 Unauthorized
	case apperrors.ErrCodeUnauthorized,
		apperrors.ErrCodeInvalidToken:
		return http.StatusUnauthorized

	// 404 Not Found
	case apperrors.ErrCodeNotFound,
		apperrors.ErrCodePlaceNotFound:
		return http.StatusNotFound

	// 409 Conflict
	case apperrors.ErrCodeConflict,
		apperrors.ErrCodeSessionBusy:
		return http.StatusConflict

	// 429 Too Many Requests
	case apperrors.ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests

	// 502 Bad Gateway
	case apperrors.ErrCodeExternal:
		return http.StatusBadGateway

	// 500 Internal Server Error
	case apperrors.ErrCodeInternal,
		apperrors.ErrCodeDatabase,
		apperrors.ErrCodeChat:
		return http.StatusInternalServerError

	default:
		return http.StatusInternalServerError
	}
}
