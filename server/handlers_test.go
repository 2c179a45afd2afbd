package server_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/screenvault/go-drive-gateway/auth"
	"github.com/screenvault/go-drive-gateway/delegation"
	"github.com/screenvault/go-drive-gateway/delegation/staterepo"
	"github.com/screenvault/go-drive-gateway/drive"
	"github.com/screenvault/go-drive-gateway/internal/config"
	"github.com/screenvault/go-drive-gateway/server"
	"github.com/screenvault/go-drive-gateway/sessions"
	"github.com/screenvault/go-drive-gateway/users"
)

const (
	testEmail    = "a@x.com"
	testPassword = "pw"
	testName     = "Ann"
)

type gatewayFixture struct {
	gateway  *httptest.Server
	client   *http.Client
	provider *httptest.Server

	// provider switches, togglable per test
	failListing atomic.Bool
}

// newGatewayFixture stands up the full stack against a fake provider
// that serves both the token endpoint and the Drive API.
func newGatewayFixture(t *testing.T) *gatewayFixture {
	t.Helper()

	f := &gatewayFixture{}

	providerMux := http.NewServeMux()
	providerMux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"ya29.test","token_type":"Bearer","refresh_token":"refresh-1","expires_in":3600}`)
	})
	providerMux.HandleFunc("GET /drive/files", func(w http.ResponseWriter, r *http.Request) {
		if f.failListing.Load() {
			http.Error(w, `{"error":"backend"}`, http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"files":[{"id":"f1","name":"shot1.png","mimeType":"image/png","createdTime":"2025-06-02T10:00:00Z"}]}`)
	})
	providerMux.HandleFunc("GET /drive/files/{fileID}", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("alt") == "media" {
			w.Header().Set("Content-Type", "image/png")
			fmt.Fprint(w, "png-bytes")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"name":"shot1.png","mimeType":"image/png"}`)
	})

	f.provider = httptest.NewServer(providerMux)
	t.Cleanup(f.provider.Close)

	cfg := config.New()
	logger := zerolog.Nop()

	userRepo := users.NewInMemoryRepo()
	authority, err := sessions.NewAuthority(sessions.NewInMemoryRepo(), cfg.GetSessionTTL(), logger)
	require.NoError(t, err)
	authService, err := auth.NewService(userRepo, authority)
	require.NoError(t, err)

	oauthConfig := &oauth2.Config{
		ClientID:     "client-1",
		ClientSecret: "secret-1",
		RedirectURL:  "http://localhost:5000/auth/google/callback",
		Scopes:       cfg.GetDriveScopes(),
		Endpoint: oauth2.Endpoint{
			AuthURL:  f.provider.URL + "/auth",
			TokenURL: f.provider.URL + "/token",
		},
	}

	broker, err := delegation.NewBroker(userRepo, staterepo.NewInMemoryRepo(), oauthConfig,
		"test-secret", 10*time.Minute, 5*time.Second, logger)
	require.NoError(t, err)

	driveClient := drive.NewClient(f.provider.URL+"/drive", oauthConfig, 5*time.Second, 100, logger,
		drive.WithHTTPClient(f.provider.Client()))

	srv, err := server.New(cfg, authService, authority, broker, driveClient, logger)
	require.NoError(t, err)

	f.gateway = httptest.NewServer(srv)
	t.Cleanup(f.gateway.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	f.client = &http.Client{Jar: jar}

	return f
}

func (f *gatewayFixture) postJSON(t *testing.T, path string, payload interface{}) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := f.client.Post(f.gateway.URL+path, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func (f *gatewayFixture) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := f.client.Get(f.gateway.URL + path)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func (f *gatewayFixture) register(t *testing.T) {
	t.Helper()
	resp := f.postJSON(t, "/api/auth/register", map[string]string{
		"email": testEmail, "password": testPassword, "name": testName,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func (f *gatewayFixture) login(t *testing.T) {
	t.Helper()
	resp := f.postJSON(t, "/api/auth/login", map[string]string{
		"email": testEmail, "password": testPassword,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

// connect walks the full delegation flow through the HTTP surface.
func (f *gatewayFixture) connect(t *testing.T) {
	t.Helper()

	var authResp struct {
		AuthURL string `json:"authUrl"`
	}
	resp := f.get(t, "/api/drive/authorize")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &authResp)

	parsed, err := url.Parse(authResp.AuthURL)
	require.NoError(t, err)
	state := parsed.Query().Get("state")
	require.NotEmpty(t, state)

	resp = f.get(t, "/auth/google/callback?code=fake-code&state="+url.QueryEscape(state))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), "Connected Successfully")
}

type statusResponse struct {
	Authenticated bool `json:"authenticated"`
	User          *struct {
		Email          string `json:"email"`
		Name           string `json:"name"`
		DriveConnected bool   `json:"driveConnected"`
	} `json:"user"`
}

func TestEndToEnd_RegisterLoginConnectDisconnect(t *testing.T) {
	f := newGatewayFixture(t)

	// Register, then login
	f.register(t)
	f.login(t)

	// Status: authenticated, not yet connected
	var status statusResponse
	resp := f.get(t, "/api/auth/status")
	decodeJSON(t, resp, &status)
	require.True(t, status.Authenticated)
	require.NotNil(t, status.User)
	assert.Equal(t, testEmail, status.User.Email)
	assert.False(t, status.User.DriveConnected)

	// Authorize and complete the callback
	f.connect(t)

	// Status now shows connected
	resp = f.get(t, "/api/auth/status")
	decodeJSON(t, resp, &status)
	require.True(t, status.Authenticated)
	assert.True(t, status.User.DriveConnected)

	// Disconnect clears the flag
	resp = f.postJSON(t, "/api/drive/disconnect", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = f.get(t, "/api/auth/status")
	decodeJSON(t, resp, &status)
	assert.False(t, status.User.DriveConnected)
}

func TestRegister_DuplicateYields409(t *testing.T) {
	f := newGatewayFixture(t)
	f.register(t)

	resp := f.postJSON(t, "/api/auth/register", map[string]string{
		"email": testEmail, "password": "other", "name": "Other",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestRegister_MissingFieldsYield400(t *testing.T) {
	f := newGatewayFixture(t)

	resp := f.postJSON(t, "/api/auth/register", map[string]string{"email": testEmail})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogin_BadCredentialsYield401(t *testing.T) {
	f := newGatewayFixture(t)
	f.register(t)

	resp := f.postJSON(t, "/api/auth/login", map[string]string{
		"email": testEmail, "password": "wrong",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var body map[string]string
	decodeJSON(t, resp, &body)
	assert.NotEmpty(t, body["error"])
}

func TestGatedRoutes_RejectWithoutSession(t *testing.T) {
	f := newGatewayFixture(t)

	gated := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/user/profile"},
		{http.MethodGet, "/api/drive/authorize"},
		{http.MethodGet, "/api/drive/screenshots"},
		{http.MethodGet, "/api/drive/download/f1"},
		{http.MethodPost, "/api/drive/disconnect"},
	}

	for _, route := range gated {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			req, err := http.NewRequest(route.method, f.gateway.URL+route.path, nil)
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestLogout_InvalidatesSession(t *testing.T) {
	f := newGatewayFixture(t)
	f.register(t)
	f.login(t)

	resp := f.postJSON(t, "/api/auth/logout", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	var status statusResponse
	resp = f.get(t, "/api/auth/status")
	decodeJSON(t, resp, &status)
	assert.False(t, status.Authenticated)

	// Gated route now rejects
	resp = f.get(t, "/api/drive/screenshots")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestScreenshots_NotConnectedYields400(t *testing.T) {
	f := newGatewayFixture(t)
	f.register(t)
	f.login(t)

	resp := f.get(t, "/api/drive/screenshots")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]string
	decodeJSON(t, resp, &body)
	assert.Equal(t, "not connected", body["error"])
}

func TestScreenshots_ListsFiles(t *testing.T) {
	f := newGatewayFixture(t)
	f.register(t)
	f.login(t)
	f.connect(t)

	var listed struct {
		Success bool `json:"success"`
		Files   []struct {
			ID       string `json:"id"`
			Name     string `json:"name"`
			MimeType string `json:"mimeType"`
		} `json:"files"`
	}
	resp := f.get(t, "/api/drive/screenshots")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &listed)

	require.True(t, listed.Success)
	require.Len(t, listed.Files, 1)
	assert.Equal(t, "f1", listed.Files[0].ID)
	assert.Equal(t, "shot1.png", listed.Files[0].Name)
}

func TestScreenshots_ProviderFailureYields502(t *testing.T) {
	f := newGatewayFixture(t)
	f.register(t)
	f.login(t)
	f.connect(t)

	f.failListing.Store(true)
	resp := f.get(t, "/api/drive/screenshots")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestDownload_StreamsWithHeaders(t *testing.T) {
	f := newGatewayFixture(t)
	f.register(t)
	f.login(t)
	f.connect(t)

	resp := f.get(t, "/api/drive/download/f1")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "shot1.png")

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestCallback_RejectsForgedState(t *testing.T) {
	f := newGatewayFixture(t)
	f.register(t)
	f.login(t)

	resp := f.get(t, "/auth/google/callback?code=fake-code&state=forged")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "Authorization Failed"))
}

func TestHealth(t *testing.T) {
	f := newGatewayFixture(t)

	var body map[string]interface{}
	resp := f.get(t, "/health")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
}
