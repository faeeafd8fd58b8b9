package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docshelf/docshelf-server/internal/blob"
	"github.com/docshelf/docshelf-server/internal/domain"
	"github.com/docshelf/docshelf-server/internal/search"
	"github.com/docshelf/docshelf-server/internal/service"
	"github.com/docshelf/docshelf-server/internal/store/sqlite"
)

// testServer wraps a Server with a humatest client. The embedded server's
// huma.API is shadowed by the test client of the same name.
type testServer struct {
	*Server
	api   humatest.TestAPI
	blobs *blob.Local
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	return setupTestServerWithOptions(t, Options{MaxUploadSize: 1 << 20})
}

func setupTestServerWithOptions(t *testing.T, opts Options) *testServer {
	t.Helper()
	dir := t.TempDir()

	// Create a no-op logger for tests (discards all logs).
	logger := slog.New(slog.DiscardHandler)

	st, err := sqlite.Open(filepath.Join(dir, "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	blobs, err := blob.NewLocal(filepath.Join(dir, "public"))
	require.NoError(t, err)

	index, err := search.NewMemOnly(logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	documents := service.NewDocumentService(st, blobs, index, logger)
	services := Services{
		Auth:      service.NewAuthService(st, logger),
		Users:     service.NewUserService(st, documents, logger),
		Documents: documents,
	}

	srv := NewServer(st, index, services, opts, logger)
	return &testServer{
		Server: srv,
		api:    humatest.Wrap(t, srv.api),
		blobs:  blobs,
	}
}

func bearerHeader(value string) string {
	return "Authorization: Bearer " + value
}

func basicHeader(email, password string) string {
	return "Authorization: Basic " + base64.StdEncoding.EncodeToString([]byte(email+":"+password))
}

func decodeJSON[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v), "body: %s", body)
	return v
}

func assertErrorCode(t *testing.T, resp *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	require.Equal(t, status, resp.Code, "body: %s", resp.Body.String())
	body := decodeJSON[APIError](t, resp.Body.Bytes())
	assert.Equal(t, code, body.Code)
	assert.NotEmpty(t, body.Message)
}

// register creates an account over HTTP and returns its token.
func (ts *testServer) register(t *testing.T, username, email, password string) domain.Token {
	t.Helper()
	resp := ts.api.Post("/api/v1/auth/register", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, resp.Code, "body: %s", resp.Body.String())
	return decodeJSON[domain.Token](t, resp.Body.Bytes())
}

func testMetadata(artist, composition string) map[string]any {
	return map[string]any{
		"fileType":        "score",
		"createTime":      "2024-03-01T12:00:00Z",
		"artistName":      artist,
		"artistNickname":  "",
		"compositionName": composition,
		"price":           "12.50",
	}
}

// uploadRequest builds a multipart upload. A nil meta omits the data part.
func uploadRequest(t *testing.T, token, fileName string, content []byte, meta map[string]any) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if content != nil {
		part, err := mw.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	if meta != nil {
		data, err := json.Marshal(meta)
		require.NoError(t, err)
		require.NoError(t, mw.WriteField("data", string(data)))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func (ts *testServer) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)
	return rec
}

// upload stores a document and returns its public projection.
func (ts *testServer) upload(t *testing.T, token, fileName string, content []byte, meta map[string]any) domain.PublicDocument {
	t.Helper()
	resp := ts.serve(uploadRequest(t, token, fileName, content, meta))
	require.Equal(t, http.StatusOK, resp.Code, "body: %s", resp.Body.String())
	return decodeJSON[domain.PublicDocument](t, resp.Body.Bytes())
}

func (ts *testServer) download(token, docID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+docID+"/download", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return ts.serve(req)
}

func TestNotFoundRoute(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/nope")
	assertErrorCode(t, resp, http.StatusNotFound, "NOT_FOUND")
}

func TestCORSPreflight(t *testing.T) {
	ts := setupTestServerWithOptions(t, Options{CORSAllowedOrigins: []string{"https://app.example.com"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/documents", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")

	resp := ts.serve(req)
	assert.Equal(t, "https://app.example.com", resp.Header().Get("Access-Control-Allow-Origin"))
}

func TestNewServer_Defaults(t *testing.T) {
	ts := setupTestServerWithOptions(t, Options{})

	assert.Positive(t, ts.maxUploadSize)
	assert.Equal(t, []string{"*"}, ts.corsOrigins)
	assert.NotNil(t, ts.API().OpenAPI().Paths["/api/v1/documents/{id}"])
}

// seedOwner registers a user and returns the resolved user ID with the token.
func (ts *testServer) seedOwner(t *testing.T, username, email string) (string, string) {
	t.Helper()
	token := ts.register(t, username, email, "p1")
	identity, err := ts.services.Auth.ResolveBearer(context.Background(), token.Value)
	require.NoError(t, err)
	return identity.UserID, token.Value
}
