package config

import "time"

// OAuthConfig describes the delegated-authorization settings for the
// Google Drive provider.
type OAuthConfig interface {
	GetGoogleClientID() string
	GetGoogleClientSecret() string
	GetGoogleRedirectURL() string
	GetDriveScopes() []string
	GetStateSecret() string
	GetStateTimeout() time.Duration
	GetProviderTimeout() time.Duration
	GetDriveBaseURL() string
	GetListPageSize() int
}

type OAuth struct{}

var _ OAuthConfig = OAuth{}

func (OAuth) GetGoogleClientID() string {
	return GetEnv("GOOGLE_CLIENT_ID", "")
}

func (OAuth) GetGoogleClientSecret() string {
	return GetEnv("GOOGLE_CLIENT_SECRET", "")
}

func (o OAuth) GetGoogleRedirectURL() string {
	return GetEnv("GOOGLE_REDIRECT_URI", EnvVars{}.GetBaseURL()+"/auth/google/callback")
}

// GetDriveScopes returns the minimal read-only scopes needed for listing
// and fetching files.
func (OAuth) GetDriveScopes() []string {
	return []string{
		"https://www.googleapis.com/auth/drive.readonly",
		"https://www.googleapis.com/auth/drive.metadata.readonly",
	}
}

// GetStateSecret returns the HMAC key used to sign the state nonce that
// correlates the provider callback with the session that initiated it.
func (OAuth) GetStateSecret() string {
	return GetEnv("STATE_SECRET", "change-me-in-production")
}

func (OAuth) GetStateTimeout() time.Duration {
	return 10 * time.Minute
}

// GetProviderTimeout bounds every outbound call to the provider, so a
// hung exchange or listing never pins a request goroutine.
func (OAuth) GetProviderTimeout() time.Duration {
	return 30 * time.Second
}

func (OAuth) GetDriveBaseURL() string {
	return GetEnv("DRIVE_BASE_URL", "https://www.googleapis.com/drive/v3")
}

func (OAuth) GetListPageSize() int {
	return 100
}
