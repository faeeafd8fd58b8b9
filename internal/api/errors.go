package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/docshelf/docshelf-server/internal/errors"
	"github.com/docshelf/docshelf-server/internal/http/response"
)

// APIError is a custom error type that implements huma.StatusError.
// Every error body the API writes has this shape.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status  int
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Additional error details"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

// newAPIError classifies err into a response.
func newAPIError(err error) *APIError {
	status, body := response.Body(err)
	return &APIError{
		status:  status,
		Code:    body.Code,
		Message: body.Message,
		Details: body.Details,
	}
}

// RegisterErrorHandler configures huma to build every error through Classify.
// Call this after creating the huma.API but before registering routes.
func RegisterErrorHandler(logger *slog.Logger) {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		var details map[string]string
		for _, err := range errs {
			if err == nil {
				continue
			}

			var domainErr *domainerrors.Error
			if errors.As(err, &domainErr) {
				return newAPIError(err)
			}

			var detail *huma.ErrorDetail
			if errors.As(err, &detail) {
				if details == nil {
					details = make(map[string]string)
				}
				details[fieldName(detail.Location)] = detail.Message
				continue
			}

			if status >= http.StatusInternalServerError {
				logger.Error("request failed", "error", err)
				return newAPIError(err)
			}
		}

		// Huma reports schema failures as 422; clients only ever see 400.
		if status == http.StatusUnprocessableEntity || status == http.StatusBadRequest {
			apiErr := &APIError{
				status:  http.StatusBadRequest,
				Code:    string(domainerrors.KindValidation),
				Message: "validation failed",
			}
			if details != nil {
				apiErr.Details = details
			}
			return apiErr
		}

		return &APIError{
			status:  status,
			Code:    statusToCode(status),
			Message: message,
		}
	}
}

// fieldName trims huma's location prefix, so "body.email" becomes "email".
func fieldName(location string) string {
	for _, prefix := range []string{"body.", "query.", "path.", "header."} {
		if rest, ok := strings.CutPrefix(location, prefix); ok {
			return rest
		}
	}
	if location == "" {
		return "body"
	}
	return location
}

// statusToCode maps HTTP status codes to our domain error codes.
func statusToCode(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusRequestEntityTooLarge:
		return string(domainerrors.KindValidation)
	case http.StatusUnauthorized:
		return string(domainerrors.KindUnauthorized)
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return string(domainerrors.KindNotFound)
	case http.StatusConflict:
		return string(domainerrors.KindConflict)
	default:
		return string(domainerrors.KindInternal)
	}
}
