// ABOUTME: Test harness and lifecycle tests for the assembled gateway
// ABOUTME: Drives the full route table over httptest with a cookie jar client

package gateway

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lugha/lugha-gateway/internal/config"
	"github.com/lugha/lugha-gateway/internal/store"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Server.HTTPAddr = "127.0.0.1:0"
	cfg.Database.Driver = "memory"
	cfg.Auth.JWTSecret = "test-secret"
	cfg.AI.Providers = []string{"gemini"}
	cfg.Uploads.Dir = t.TempDir()
	cfg.Uploads.MaxBytes = config.DefaultUploadMaxBytes
	return cfg
}

func newTestGateway(t *testing.T) (*Gateway, *httptest.Server, *http.Client) {
	t.Helper()

	gw, err := New(testConfig(t), nil)
	require.NoError(t, err)
	t.Cleanup(func() { gw.store.Close() })

	srv := httptest.NewServer(gw.Handler())
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar}

	return gw, srv, client
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := client.Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

// registerUser creates a user through the API; the client keeps its session.
func registerUser(t *testing.T, client *http.Client, baseURL, username string) *store.User {
	t.Helper()
	resp := doJSON(t, client, http.MethodPost, baseURL+"/api/register", map[string]string{
		"username":          username,
		"password":          "hunter22",
		"preferredLanguage": "swa",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	user := decode[store.User](t, resp)
	return &user
}

// promoteToAdmin flips the user's role directly in the store.
func promoteToAdmin(t *testing.T, gw *Gateway, userID int64) {
	t.Helper()
	role := store.RoleAdmin
	_, err := gw.store.UpdateUser(t.Context(), userID, store.UserUpdate{Role: &role})
	require.NoError(t, err)
}

func TestHealthEndpoints(t *testing.T) {
	_, srv, client := newTestGateway(t)

	resp, err := client.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = client.Get(srv.URL + "/health/ready")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLanguagesArePublic(t *testing.T) {
	_, srv, _ := newTestGateway(t)

	// No session, plain client.
	resp, err := http.Get(srv.URL + "/api/languages")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	langs := decode[[]*store.Language](t, resp)
	assert.Len(t, langs, 6)

	codes := make(map[string]bool)
	for _, l := range langs {
		codes[l.Code] = true
	}
	for _, want := range []string{"mas", "swa", "kik", "luo", "kam", "eng"} {
		assert.True(t, codes[want], "missing language %s", want)
	}
}

func TestConversationRoutesRequireAuth(t *testing.T) {
	_, srv, _ := newTestGateway(t)

	resp, err := http.Get(srv.URL + "/api/conversations")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestNewGateway_SQLiteDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.Driver = "sqlite"
	cfg.Database.Path = t.TempDir() + "/gw.db"

	gw, err := New(cfg, nil)
	require.NoError(t, err)
	defer gw.store.Close()

	langs, err := gw.store.GetLanguages(t.Context())
	require.NoError(t, err)
	assert.Len(t, langs, 6)
}
