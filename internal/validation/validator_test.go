package validation_test

import (
	"testing"

	domainerrors "github.com/docshelf/docshelf-server/internal/errors"
	"github.com/docshelf/docshelf-server/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type registerRequest struct {
	Username string  `json:"username" validate:"required,notblank,max=100"`
	Email    string  `json:"email" validate:"required,email,max=254"`
	Password string  `json:"password" validate:"required,max=1024"`
	Price    float64 `json:"price,omitempty" validate:"gte=0"`
}

func TestValidator_Valid(t *testing.T) {
	v := validation.New()

	err := v.Validate(registerRequest{Username: "u1", Email: "a@x.com", Password: "p1"})
	assert.NoError(t, err)
}

func TestValidator_Errors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		req       registerRequest
		wantField string
		wantMsg   string
	}{
		{"missing username", registerRequest{Email: "a@x.com", Password: "p"}, "username", "is required"},
		{"blank username", registerRequest{Username: "   ", Email: "a@x.com", Password: "p"}, "username", "must not be blank"},
		{"bad email", registerRequest{Username: "u", Email: "nope", Password: "p"}, "email", "must be a valid email address"},
		{"missing password", registerRequest{Username: "u", Email: "a@x.com"}, "password", "is required"},
		{"negative price", registerRequest{Username: "u", Email: "a@x.com", Password: "p", Price: -1}, "price", "must be greater than or equal to 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			require.Error(t, err)

			var domainErr *domainerrors.Error
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, domainerrors.KindValidation, domainErr.Kind)

			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Equal(t, tt.wantMsg, details[tt.wantField])
		})
	}
}

func TestValidator_Var(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Var("email", "a@x.com", "email"))

	err := v.Var("email", "not-an-email", "email")
	require.Error(t, err)
	assert.Equal(t, map[string]string{"email": "must be a valid email address"}, domainerrors.DetailsOf(err))
}
