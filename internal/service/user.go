package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/docshelf/docshelf-server/internal/auth"
	"github.com/docshelf/docshelf-server/internal/domain"
	domainerrors "github.com/docshelf/docshelf-server/internal/errors"
	"github.com/docshelf/docshelf-server/internal/store"
)

// UserService manages profiles and account removal.
type UserService struct {
	store     store.Store
	documents *DocumentService
	logger    *slog.Logger
}

// NewUserService creates a new user service. documents is used to clean up
// stored files when an account is deleted.
func NewUserService(store store.Store, documents *DocumentService, logger *slog.Logger) *UserService {
	return &UserService{store: store, documents: documents, logger: logger}
}

// UpdateProfileRequest is a partial profile update. Omitted fields are kept;
// supplied fields may not be empty.
type UpdateProfileRequest struct {
	Username *string `json:"username,omitempty" validate:"omitempty,notblank,max=100"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email,max=254"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=1,max=1024"`
}

// Patch converts the request into a domain patch.
func (r UpdateProfileRequest) Patch() domain.UserPatch {
	return domain.UserPatch{Username: r.Username, Email: r.Email, Password: r.Password}
}

// List returns every user's public profile.
func (s *UserService) List(ctx context.Context) ([]domain.PublicUser, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	out := make([]domain.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out, nil
}

// Get returns a single user.
func (s *UserService) Get(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// UpdateProfile applies req to the user owning bearerValue. The owner is
// read from the token store directly. A user removed after the lookup is
// reported as not found; a taken email as a conflict.
func (s *UserService) UpdateProfile(ctx context.Context, bearerValue string, req UpdateProfileRequest) (*domain.User, error) {
	if req.Username != nil {
		v := strings.TrimSpace(*req.Username)
		req.Username = &v
	}
	if req.Email != nil {
		v := strings.TrimSpace(*req.Email)
		req.Email = &v
	}
	if err := validate.Validate(req); err != nil {
		return nil, err
	}
	token, err := s.store.GetTokenByValue(ctx, bearerValue)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.Unauthorized("invalid bearer token")
		}
		return nil, fmt.Errorf("lookup token: %w", err)
	}

	user, err := s.Get(ctx, token.UserID)
	if err != nil {
		return nil, err
	}

	patch := req.Patch()
	if patch.IsEmpty() {
		return user, nil
	}

	if patch.Username != nil {
		user.Username = *patch.Username
	}
	if patch.Email != nil {
		user.Email = *patch.Email
	}
	if patch.Password != nil {
		hash, err := auth.HashPassword(*patch.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil, domainerrors.NotFound("user not found")
		case errors.Is(err, store.ErrAlreadyExists):
			return nil, domainerrors.Conflict("email already registered")
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.Info("profile updated", "user_id", user.ID)

	return user, nil
}

// DeleteAccount removes the user's files, then the user together with its
// token and document rows.
func (s *UserService) DeleteAccount(ctx context.Context, userID string) error {
	if s.documents != nil {
		if err := s.documents.purgeFiles(ctx, userID); err != nil {
			return err
		}
	}

	if err := s.store.DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("user not found")
		}
		return fmt.Errorf("delete user: %w", err)
	}

	s.logger.Info("account deleted", "user_id", userID)
	return nil
}
