package service

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/docshelf/docshelf-server/internal/blob"
	"github.com/docshelf/docshelf-server/internal/search"
	"github.com/docshelf/docshelf-server/internal/store"
	"github.com/docshelf/docshelf-server/internal/store/sqlite"
)

// testEnv wires the services against a temporary SQLite database, a local
// blob directory and an in-memory search index.
type testEnv struct {
	store     store.Store
	blobs     *blob.Local
	index     *search.Index
	auth      *AuthService
	users     *UserService
	documents *DocumentService
}

func setupServices(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	s, err := sqlite.Open(filepath.Join(dir, "test.db"), slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	blobs, err := blob.NewLocal(filepath.Join(dir, "public"))
	require.NoError(t, err)

	index, err := search.NewMemOnly(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	return newTestEnv(s, blobs, index)
}

func newTestEnv(s store.Store, blobs *blob.Local, index *search.Index) *testEnv {
	logger := slog.New(slog.DiscardHandler)
	documents := NewDocumentService(s, blobs, index, logger)
	return &testEnv{
		store:     s,
		blobs:     blobs,
		index:     index,
		auth:      NewAuthService(s, logger),
		users:     NewUserService(s, documents, logger),
		documents: documents,
	}
}

// register creates a user through the auth service and returns its id and token value.
func (e *testEnv) register(t *testing.T, username, email, password string) (string, string) {
	t.Helper()
	user, token, err := e.auth.Register(context.Background(), RegisterRequest{
		Username: username,
		Email:    email,
		Password: password,
	})
	require.NoError(t, err)
	return user.ID, token.Value
}
