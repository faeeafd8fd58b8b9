// Package response writes JSON bodies and error payloads for handlers that
// bypass the OpenAPI layer (multipart uploads, file downloads, guards).
package response

import (
	"encoding/json"
	"log/slog"
	"net/http"

	domainerrors "github.com/docshelf/docshelf-server/internal/errors"
)

// ErrorBody is the wire shape of every error response.
type ErrorBody struct {
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Additional error details"`
}

// JSON writes data as a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil && logger != nil {
		logger.Error("Failed to encode JSON response", "error", err)
	}
}

// Success writes a 200 OK JSON response.
func Success(w http.ResponseWriter, data any, logger *slog.Logger) {
	JSON(w, http.StatusOK, data, logger)
}

// NoContent writes a 204 No Content response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Body builds the error payload and status for err.
// Internal errors never expose their cause.
func Body(err error) (int, ErrorBody) {
	kind, message := domainerrors.Classify(err)
	if kind == "" {
		kind = domainerrors.KindInternal
		message = "internal server error"
	}
	return kind.HTTPStatus(), ErrorBody{
		Code:    string(kind),
		Message: message,
		Details: domainerrors.DetailsOf(err),
	}
}

// Error writes the classified error response for err. Server-side failures
// are logged with their cause.
func Error(w http.ResponseWriter, err error, logger *slog.Logger) {
	status, body := Body(err)
	if status >= http.StatusInternalServerError && logger != nil {
		logger.Error("Unhandled error", "error", err)
	}
	JSON(w, status, body, logger)
}
