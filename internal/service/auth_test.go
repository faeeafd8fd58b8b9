package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/docshelf/docshelf-server/internal/domain"
	domainerrors "github.com/docshelf/docshelf-server/internal/errors"
	"github.com/docshelf/docshelf-server/internal/store"
)

func TestAuthService_Register_Success(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	user, token, err := env.auth.Register(ctx, RegisterRequest{
		Username: "u1",
		Email:    "a@x.com",
		Password: "p1",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, token.Value)
	assert.Equal(t, user.ID, token.UserID)
	assert.True(t, strings.HasPrefix(user.PasswordHash, "$argon2id$"))
	assert.NotContains(t, user.PasswordHash, "p1")

	stored, err := env.store.GetTokenByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, token.Value, stored.Value, "registration token must be usable immediately")

	identity, err := env.auth.ResolveBearer(ctx, token.Value)
	require.NoError(t, err)
	assert.Equal(t, user.ID, identity.UserID)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	env := setupServices(t)
	env.register(t, "u1", "a@x.com", "p1")

	_, _, err := env.auth.Register(context.Background(), RegisterRequest{
		Username: "u2",
		Email:    "A@X.com",
		Password: "p2",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrConflict)
}

// failingTokenStore fails token writes.
type failingTokenStore struct {
	store.Store
	upsertErr error
}

func (f *failingTokenStore) UpsertToken(ctx context.Context, token *domain.Token) (*domain.Token, error) {
	if f.upsertErr != nil {
		return nil, f.upsertErr
	}
	return f.Store.UpsertToken(ctx, token)
}

func TestAuthService_Register_TokenFailureRemovesUser(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	req := RegisterRequest{Username: "u1", Email: "a@x.com", Password: "p1"}

	failing := newTestEnv(&failingTokenStore{Store: env.store, upsertErr: errors.New("disk full")}, env.blobs, env.index)
	_, _, err := failing.auth.Register(ctx, req)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domainerrors.ErrConflict)

	_, err = env.store.GetUserByEmail(ctx, "a@x.com")
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Retrying with a working store succeeds instead of conflicting.
	user, token, err := env.auth.Register(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, user.ID, token.UserID)
}

func TestAuthService_Register_Validation(t *testing.T) {
	env := setupServices(t)

	tests := []struct {
		name  string
		req   RegisterRequest
		field string
	}{
		{"missing username", RegisterRequest{Email: "a@x.com", Password: "p"}, "username"},
		{"blank username", RegisterRequest{Username: "   ", Email: "a@x.com", Password: "p"}, "username"},
		{"bad email", RegisterRequest{Username: "u", Email: "nope", Password: "p"}, "email"},
		{"missing password", RegisterRequest{Username: "u", Email: "a@x.com"}, "password"},
		{"long password", RegisterRequest{Username: "u", Email: "a@x.com", Password: strings.Repeat("x", 1025)}, "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := env.auth.Register(context.Background(), tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, domainerrors.ErrValidation)

			details, ok := domainerrors.DetailsOf(err).(map[string]string)
			require.True(t, ok)
			assert.Contains(t, details, tt.field)
		})
	}
}

func TestAuthService_Login_RotatesToken(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	userID, registered := env.register(t, "u1", "a@x.com", "p1")

	first, err := env.auth.Login(ctx, "a@x.com", "p1")
	require.NoError(t, err)
	second, err := env.auth.Login(ctx, "a@x.com", "p1")
	require.NoError(t, err)

	assert.NotEqual(t, first.Value, second.Value)
	assert.NotEqual(t, registered, first.Value)
	assert.Equal(t, first.ID, second.ID, "rotation keeps the token row")
	assert.Equal(t, userID, second.UserID)

	// Old values stop working.
	_, err = env.auth.ResolveBearer(ctx, first.Value)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
	_, err = env.auth.ResolveBearer(ctx, registered)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)

	identity, err := env.auth.ResolveBearer(ctx, second.Value)
	require.NoError(t, err)
	assert.Equal(t, userID, identity.UserID)
}

func TestAuthService_Login_BadCredentials(t *testing.T) {
	env := setupServices(t)
	env.register(t, "u1", "a@x.com", "p1")

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "a@x.com", "wrong"},
		{"unknown email", "b@x.com", "p1"},
		{"empty password", "a@x.com", ""},
		{"empty email", "", "p1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Login(context.Background(), tt.email, tt.password)
			require.Error(t, err)
			assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
			assert.Equal(t, invalidCredentials, err.Error())
		})
	}
}

func TestAuthService_Login_ConcurrentKeepsOneRow(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	userID, _ := env.register(t, "u1", "a@x.com", "p1")

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.auth.Login(ctx, "a@x.com", "p1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := env.store.GetTokenByUser(ctx, userID)
	require.NoError(t, err)

	identity, err := env.auth.ResolveBearer(ctx, stored.Value)
	require.NoError(t, err)
	assert.Equal(t, userID, identity.UserID)
}

func TestAuthService_ResolveBasic(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	userID, token := env.register(t, "u1", "a@x.com", "p1")

	identity, err := env.auth.ResolveBasic(ctx, "a@x.com", "p1")
	require.NoError(t, err)
	assert.Equal(t, &domain.Identity{UserID: userID, Email: "a@x.com"}, identity)

	// Resolving does not rotate.
	_, err = env.auth.ResolveBearer(ctx, token)
	assert.NoError(t, err)

	_, err = env.auth.ResolveBasic(ctx, "a@x.com", "nope")
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
}

func TestAuthService_ResolveBearer_Unknown(t *testing.T) {
	env := setupServices(t)

	_, err := env.auth.ResolveBearer(context.Background(), "")
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)

	_, err = env.auth.ResolveBearer(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
}

func TestAuthService_Login_UpgradesBcryptHash(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	legacy, err := bcrypt.GenerateFromPassword([]byte("old-secret"), bcrypt.MinCost)
	require.NoError(t, err)

	now := time.Now().UTC()
	require.NoError(t, env.store.CreateUser(ctx, &domain.User{
		ID:           "usr-legacy",
		Username:     "legacy",
		Email:        "legacy@x.com",
		PasswordHash: string(legacy),
		CreatedAt:    now,
		UpdatedAt:    now,
	}))

	token, err := env.auth.Login(ctx, "legacy@x.com", "old-secret")
	require.NoError(t, err)
	assert.Equal(t, "usr-legacy", token.UserID)

	user, err := env.store.GetUser(ctx, "usr-legacy")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(user.PasswordHash, "$argon2id$"))

	_, err = env.auth.Login(ctx, "legacy@x.com", "old-secret")
	assert.NoError(t, err)
}
