package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/docshelf/docshelf-server/internal/errors"
)

func TestRegisterErrorHandler(t *testing.T) {
	RegisterErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil)))

	tests := []struct {
		name    string
		status  int
		message string
		errs    []error
		want    APIError
	}{
		{
			name:   "domain error keeps its kind",
			status: http.StatusInternalServerError,
			errs:   []error{fmt.Errorf("wrap: %w", domainerrors.NotFound("document not found"))},
			want:   APIError{status: http.StatusNotFound, Code: "NOT_FOUND", Message: "document not found"},
		},
		{
			name:   "plain error is hidden",
			status: http.StatusInternalServerError,
			errs:   []error{errors.New("disk on fire")},
			want:   APIError{status: http.StatusInternalServerError, Code: "INTERNAL_ERROR", Message: "internal server error"},
		},
		{
			name:   "schema failures become 400 with details",
			status: http.StatusUnprocessableEntity,
			errs:   []error{&huma.ErrorDetail{Location: "body.email", Message: "expected string"}},
			want: APIError{
				status:  http.StatusBadRequest,
				Code:    "VALIDATION_ERROR",
				Message: "validation failed",
				Details: map[string]string{"email": "expected string"},
			},
		},
		{
			name:    "bare status maps to a code",
			status:  http.StatusUnauthorized,
			message: "nope",
			want:    APIError{status: http.StatusUnauthorized, Code: "UNAUTHORIZED", Message: "nope"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := huma.NewError(tt.status, tt.message, tt.errs...)
			apiErr, ok := got.(*APIError)
			require.True(t, ok)
			assert.Equal(t, tt.want.status, apiErr.GetStatus())
			assert.Equal(t, tt.want.Code, apiErr.Code)
			assert.Equal(t, tt.want.Message, apiErr.Message)
			assert.Equal(t, tt.want.Details, apiErr.Details)
		})
	}
}

func TestFieldName(t *testing.T) {
	assert.Equal(t, "email", fieldName("body.email"))
	assert.Equal(t, "limit", fieldName("query.limit"))
	assert.Equal(t, "body", fieldName(""))
	assert.Equal(t, "other", fieldName("other"))
}
