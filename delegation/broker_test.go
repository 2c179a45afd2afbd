package delegation_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/screenvault/go-drive-gateway/delegation"
	"github.com/screenvault/go-drive-gateway/delegation/staterepo"
	"github.com/screenvault/go-drive-gateway/internal/apperrors"
	"github.com/screenvault/go-drive-gateway/users"
)

const (
	testUserEmail = "a@x.com"
	testSecret    = "test-state-secret"
)

type brokerFixture struct {
	userRepo *users.InMemoryRepo
	broker   *delegation.Broker
	provider *httptest.Server
}

// fakeProvider answers the token endpoint. failExchange makes every
// exchange return an OAuth error instead of a token.
func fakeProvider(t *testing.T, failExchange *atomic.Bool) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		if failExchange != nil && failExchange.Load() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":"invalid_grant"}`)
			return
		}
		require.NoError(t, r.ParseForm())
		assert.NotEmpty(t, r.Form.Get("code"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"ya29.test","token_type":"Bearer","refresh_token":"refresh-1","expires_in":3600,"scope":"drive.readonly"}`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func setupBrokerFixture(t *testing.T, failExchange *atomic.Bool) *brokerFixture {
	t.Helper()

	provider := fakeProvider(t, failExchange)

	oauthConfig := &oauth2.Config{
		ClientID:     "client-1",
		ClientSecret: "secret-1",
		RedirectURL:  "http://localhost:5000/auth/google/callback",
		Scopes:       []string{"https://www.googleapis.com/auth/drive.readonly"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  provider.URL + "/auth",
			TokenURL: provider.URL + "/token",
		},
	}

	userRepo := users.NewInMemoryRepo()
	require.NoError(t, userRepo.Create(&users.User{Email: testUserEmail, Name: "Ann", PasswordHash: "hash"}))

	broker, err := delegation.NewBroker(
		userRepo,
		staterepo.NewInMemoryRepo(),
		oauthConfig,
		testSecret,
		10*time.Minute,
		5*time.Second,
		zerolog.Nop(),
	)
	require.NoError(t, err)

	return &brokerFixture{userRepo: userRepo, broker: broker, provider: provider}
}

// stateFromAuthURL pulls the state parameter out of the authorization URL.
func stateFromAuthURL(t *testing.T, authURL string) string {
	t.Helper()
	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	state := parsed.Query().Get("state")
	require.NotEmpty(t, state)
	return state
}

func TestBeginAuthorization_BuildsProviderURL(t *testing.T) {
	f := setupBrokerFixture(t, nil)

	authURL, err := f.broker.BeginAuthorization(testUserEmail)
	require.NoError(t, err)

	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	q := parsed.Query()
	assert.Equal(t, "client-1", q.Get("client_id"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Contains(t, q.Get("scope"), "drive.readonly")
	assert.NotEmpty(t, q.Get("state"))
	// The state is a nonce, never the bare identity
	assert.NotEqual(t, testUserEmail, q.Get("state"))
}

func TestBeginAuthorization_UnknownUser(t *testing.T) {
	f := setupBrokerFixture(t, nil)

	_, err := f.broker.BeginAuthorization("nobody@x.com")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCompleteAuthorization_ConnectsUser(t *testing.T) {
	f := setupBrokerFixture(t, nil)

	authURL, err := f.broker.BeginAuthorization(testUserEmail)
	require.NoError(t, err)
	state := stateFromAuthURL(t, authURL)

	email, err := f.broker.CompleteAuthorization(context.Background(), "fake-code", state)
	require.NoError(t, err)
	assert.Equal(t, testUserEmail, email)

	user, err := f.userRepo.GetByEmail(testUserEmail)
	require.NoError(t, err)
	assert.True(t, user.DriveConnected)
	require.NotNil(t, user.DriveToken)
	assert.Equal(t, "ya29.test", user.DriveToken.AccessToken)
	assert.Equal(t, "refresh-1", user.DriveToken.RefreshToken)
}

func TestCompleteAuthorization_StateIsSingleUse(t *testing.T) {
	f := setupBrokerFixture(t, nil)

	authURL, err := f.broker.BeginAuthorization(testUserEmail)
	require.NoError(t, err)
	state := stateFromAuthURL(t, authURL)

	_, err = f.broker.CompleteAuthorization(context.Background(), "fake-code", state)
	require.NoError(t, err)

	// Replaying the same state must fail even though the signature is valid
	_, err = f.broker.CompleteAuthorization(context.Background(), "fake-code", state)
	assert.ErrorIs(t, err, apperrors.ErrDelegationFailed)
}

func TestCompleteAuthorization_RejectsForgedState(t *testing.T) {
	f := setupBrokerFixture(t, nil)

	tests := []struct {
		name  string
		code  string
		state string
	}{
		{"missing state", "fake-code", ""},
		{"missing code", "", "some-state"},
		{"unsigned garbage", "fake-code", "not-a-signed-state"},
		{"bare identity", "fake-code", testUserEmail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.broker.CompleteAuthorization(context.Background(), tt.code, tt.state)
			assert.ErrorIs(t, err, apperrors.ErrDelegationFailed)
		})
	}
}

func TestCompleteAuthorization_ExchangeFailure(t *testing.T) {
	var fail atomic.Bool
	f := setupBrokerFixture(t, &fail)

	authURL, err := f.broker.BeginAuthorization(testUserEmail)
	require.NoError(t, err)
	state := stateFromAuthURL(t, authURL)

	fail.Store(true)
	_, err = f.broker.CompleteAuthorization(context.Background(), "fake-code", state)
	assert.ErrorIs(t, err, apperrors.ErrDelegationFailed)

	user, err := f.userRepo.GetByEmail(testUserEmail)
	require.NoError(t, err)
	assert.False(t, user.DriveConnected, "failed exchange must not connect the user")
}

func TestDisconnect(t *testing.T) {
	f := setupBrokerFixture(t, nil)

	authURL, err := f.broker.BeginAuthorization(testUserEmail)
	require.NoError(t, err)
	_, err = f.broker.CompleteAuthorization(context.Background(), "fake-code", stateFromAuthURL(t, authURL))
	require.NoError(t, err)

	require.NoError(t, f.broker.Disconnect(testUserEmail))

	user, err := f.userRepo.GetByEmail(testUserEmail)
	require.NoError(t, err)
	assert.False(t, user.DriveConnected)
	assert.Nil(t, user.DriveToken)

	// Idempotent when already disconnected
	require.NoError(t, f.broker.Disconnect(testUserEmail))
}

func TestTokenFor(t *testing.T) {
	f := setupBrokerFixture(t, nil)

	_, err := f.broker.TokenFor(testUserEmail)
	assert.ErrorIs(t, err, apperrors.ErrNotConnected)

	authURL, err := f.broker.BeginAuthorization(testUserEmail)
	require.NoError(t, err)
	_, err = f.broker.CompleteAuthorization(context.Background(), "fake-code", stateFromAuthURL(t, authURL))
	require.NoError(t, err)

	token, err := f.broker.TokenFor(testUserEmail)
	require.NoError(t, err)
	assert.Equal(t, "ya29.test", token.AccessToken)
}
