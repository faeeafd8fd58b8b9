// Package service implements the account, token and document operations
// behind the HTTP API.
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
	"github.com/docshelf/docshelf-server/internal/id"
	"github.com/docshelf/docshelf-server/internal/store"
	"github.com/docshelf/docshelf-server/internal/validation"
)

// validate is the shared request validator.
var validate = validation.New()

// invalidCredentials is returned for every basic-auth failure so callers
// can't tell an unknown email from a wrong password.
const invalidCredentials = "invalid email or password"

// AuthService registers users, verifies credentials and issues the single
// bearer token each user holds.
type AuthService struct {
	store  store.Store
	logger *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(store store.Store, logger *slog.Logger) *AuthService {
	return &AuthService{store: store, logger: logger}
}

// RegisterRequest contains user registration data.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,notblank,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=1024"`
}

// Register creates a user and persists a fresh token for it.
// A duplicate email is a conflict.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*domain.User, *domain.Token, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if err := validate.Validate(req); err != nil {
		return nil, nil, err
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := id.Generate(id.PrefixUser)
	if err != nil {
		return nil, nil, fmt.Errorf("generate user ID: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           userID,
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, nil, domainerrors.Conflict("email already registered")
		}
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.upsertToken(ctx, user.ID)
	if err != nil {
		// Roll the account back so the email can be registered again.
		if delErr := s.store.DeleteUser(context.WithoutCancel(ctx), user.ID); delErr != nil {
			s.logger.Error("failed to remove user after token error", "user_id", user.ID, "error", delErr)
		}
		return nil, nil, err
	}

	s.logger.Info("user registered", "user_id", user.ID)

	return user, token, nil
}

// Login verifies basic credentials and rotates the user's token.
// The token row is created on first login and overwritten afterwards.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Token, error) {
	user, err := s.verifyCredentials(ctx, email, password)
	if err != nil {
		return nil, err
	}

	return s.RotateToken(ctx, user.ID)
}

// ResolveBasic verifies basic credentials without touching the token.
func (s *AuthService) ResolveBasic(ctx context.Context, email, password string) (*domain.Identity, error) {
	user, err := s.verifyCredentials(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return &domain.Identity{UserID: user.ID, Email: user.Email}, nil
}

// ResolveBearer maps a token value to its owner. Tokens do not expire.
func (s *AuthService) ResolveBearer(ctx context.Context, value string) (*domain.Identity, error) {
	if value == "" {
		return nil, domainerrors.Unauthorized("missing bearer token")
	}

	token, err := s.store.GetTokenByValue(ctx, value)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.Unauthorized("invalid bearer token")
		}
		return nil, fmt.Errorf("lookup token: %w", err)
	}

	user, err := s.store.GetUser(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.Unauthorized("invalid bearer token")
		}
		return nil, fmt.Errorf("lookup token owner: %w", err)
	}

	return &domain.Identity{UserID: user.ID, Email: user.Email}, nil
}

func (s *AuthService) verifyCredentials(ctx context.Context, email, password string) (*domain.User, error) {
	if email == "" || password == "" {
		return nil, domainerrors.InvalidCredentials(invalidCredentials)
	}

	user, err := s.store.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.InvalidCredentials(invalidCredentials)
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	valid, err := auth.VerifyPassword(user.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return nil, domainerrors.InvalidCredentials(invalidCredentials)
	}

	if auth.NeedsRehash(user.PasswordHash) {
		s.upgradeHash(ctx, user, password)
	}

	return user, nil
}

// upgradeHash re-hashes a legacy bcrypt password with argon2id.
// Failures are logged; the login itself still succeeds.
func (s *AuthService) upgradeHash(ctx context.Context, user *domain.User, password string) {
	hash, err := auth.HashPassword(password)
	if err == nil {
		user.PasswordHash = hash
		user.UpdatedAt = time.Now().UTC()
		err = s.store.UpdateUser(ctx, user)
	}
	if err != nil {
		s.logger.Warn("failed to upgrade password hash", "user_id", user.ID, "error", err)
		return
	}
	s.logger.Info("upgraded password hash", "user_id", user.ID)
}

// RotateToken replaces the user's token value, creating the row on first use.
// Callers must have verified the user's credentials.
func (s *AuthService) RotateToken(ctx context.Context, userID string) (*domain.Token, error) {
	token, err := s.upsertToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("token rotated", "user_id", userID)

	return token, nil
}

// upsertToken mints a value and upserts it as the user's only token.
// A value collision is retried once with a new value.
func (s *AuthService) upsertToken(ctx context.Context, userID string) (*domain.Token, error) {
	var lastErr error
	for range 2 {
		value, err := auth.GenerateTokenValue()
		if err != nil {
			return nil, fmt.Errorf("generate token: %w", err)
		}
		tokenID, err := id.Generate(id.PrefixToken)
		if err != nil {
			return nil, fmt.Errorf("generate token ID: %w", err)
		}

		token, err := s.store.UpsertToken(ctx, &domain.Token{ID: tokenID, UserID: userID, Value: value})
		if err == nil {
			return token, nil
		}
		if !errors.Is(err, store.ErrAlreadyExists) {
			return nil, fmt.Errorf("save token: %w", err)
		}
		lastErr = err
	}
	return nil, fmt.Errorf("save token: %w", lastErr)
}
