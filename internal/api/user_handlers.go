package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/docshelf/docshelf-server/internal/auth"
	"github.com/docshelf/docshelf-server/internal/domain"
	domainerrors "github.com/docshelf/docshelf-server/internal/errors"
	"github.com/docshelf/docshelf-server/internal/service"
)

func (s *Server) registerUserRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listUsers",
		Method:      http.MethodGet,
		Path:        "/api/v1/users",
		Summary:     "List users",
		Description: "Returns the public profile of every account",
		Tags:        []string{"Users"},
	}, s.handleListUsers)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCurrentUser",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/me",
		Summary:     "Get current user",
		Description: "Returns the caller's public profile",
		Tags:        []string{"Users"},
		Security:    bearerSecurity,
		Middlewares: huma.Middlewares{s.humaGuard(s.bearer)},
	}, s.handleGetCurrentUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateProfile",
		Method:      http.MethodPut,
		Path:        "/api/v1/users",
		Summary:     "Update profile",
		Description: "Changes the caller's username, email or password",
		Tags:        []string{"Users"},
		Security:    bearerSecurity,
		Middlewares: huma.Middlewares{s.humaGuard(s.bearer)},
	}, s.handleUpdateProfile)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteCurrentUser",
		Method:        http.MethodDelete,
		Path:          "/api/v1/users/me",
		Summary:       "Delete account",
		Description:   "Deletes the caller with their token, documents and stored files",
		Tags:          []string{"Users"},
		DefaultStatus: http.StatusNoContent,
		Security:      bearerSecurity,
		Middlewares:   huma.Middlewares{s.humaGuard(s.bearer)},
	}, s.handleDeleteCurrentUser)
}

// ListUsersOutput wraps the user list for Huma.
type ListUsersOutput struct {
	Body []domain.PublicUser
}

// UserOutput wraps a public user for Huma.
type UserOutput struct {
	Body domain.PublicUser
}

// UpdateProfileRequest is the request body for a profile update.
// Omitted fields are left unchanged.
type UpdateProfileRequest struct {
	Username *string `json:"username,omitempty" doc:"New display name"`
	Email    *string `json:"email,omitempty" doc:"New email address"`
	Password *string `json:"password,omitempty" doc:"New password"`
}

// UpdateProfileInput wraps the profile update for Huma.
type UpdateProfileInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token"`
	Body          UpdateProfileRequest
}

func (s *Server) handleListUsers(ctx context.Context, _ *struct{}) (*ListUsersOutput, error) {
	users, err := s.services.Users.List(ctx)
	if err != nil {
		return nil, err
	}
	return &ListUsersOutput{Body: users}, nil
}

func (s *Server) handleGetCurrentUser(ctx context.Context, _ *struct{}) (*UserOutput, error) {
	identity, err := IdentityFrom(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.services.Users.Get(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: user.Public()}, nil
}

func (s *Server) handleUpdateProfile(ctx context.Context, input *UpdateProfileInput) (*UserOutput, error) {
	if _, err := IdentityFrom(ctx); err != nil {
		return nil, err
	}

	// The profile is addressed by the token itself, not the resolved ID.
	value, err := auth.ParseBearer(input.Authorization)
	if err != nil {
		return nil, domainerrors.Unauthorized("malformed bearer token")
	}

	user, err := s.services.Users.UpdateProfile(ctx, value, service.UpdateProfileRequest{
		Username: input.Body.Username,
		Email:    input.Body.Email,
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: user.Public()}, nil
}

func (s *Server) handleDeleteCurrentUser(ctx context.Context, _ *struct{}) (*struct{}, error) {
	identity, err := IdentityFrom(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Users.DeleteAccount(ctx, identity.UserID); err != nil {
		return nil, err
	}
	return nil, nil
}
