package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/docshelf/docshelf-server/internal/domain"
	"github.com/docshelf/docshelf-server/internal/service"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "register",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/register",
		Summary:     "Register",
		Description: "Creates an account and returns its bearer token",
		Tags:        []string{"Auth"},
	}, s.handleRegister)

	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/login",
		Summary:     "Login",
		Description: "Verifies basic credentials and rotates the caller's bearer token",
		Tags:        []string{"Auth"},
		Security:    basicSecurity,
		Middlewares: huma.Middlewares{s.humaGuard(s.basic)},
	}, s.handleLogin)
}

// RegisterRequest is the request body for registration.
type RegisterRequest struct {
	Username string `json:"username" doc:"Display name"`
	Email    string `json:"email" doc:"Email address, unique across accounts"`
	Password string `json:"password" doc:"Password"`
}

// RegisterInput wraps the registration request for Huma.
type RegisterInput struct {
	Body RegisterRequest
}

// LoginInput documents the credentials the basic guard consumes.
type LoginInput struct {
	Authorization string `header:"Authorization" doc:"Basic credentials: email and password"`
}

// TokenOutput wraps a bearer token for Huma.
type TokenOutput struct {
	Body domain.Token
}

func (s *Server) handleRegister(ctx context.Context, input *RegisterInput) (*TokenOutput, error) {
	_, token, err := s.services.Auth.Register(ctx, service.RegisterRequest{
		Username: input.Body.Username,
		Email:    input.Body.Email,
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, err
	}
	return &TokenOutput{Body: *token}, nil
}

func (s *Server) handleLogin(ctx context.Context, _ *LoginInput) (*TokenOutput, error) {
	identity, err := IdentityFrom(ctx)
	if err != nil {
		return nil, err
	}

	token, err := s.services.Auth.RotateToken(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}
	return &TokenOutput{Body: *token}, nil
}
