package config

import (
	"fmt"
	"os"
)

const (
	portEnvVar     = "PORT"
	appNameVar     = "APP_NAME"
	baseURLVar     = "BASE_URL"
	frontendVar    = "FRONTEND_ORIGIN"
	environmentVar = "ENV"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "5000")
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Drive Gateway")
}

// GetBaseURL returns the externally reachable base URL of the gateway.
// It is used to build the OAuth redirect URI for the provider callback.
func (EnvVars) GetBaseURL() string {
	return GetEnv(baseURLVar, "http://localhost:5000")
}

// GetFrontendOrigin returns the origin of the browser frontend that calls
// the JSON API with credentials. Defaults to the Streamlit dev port.
func (EnvVars) GetFrontendOrigin() string {
	return GetEnv(frontendVar, "http://localhost:8501")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv(environmentVar)
	if env == "" {
		return "DEV"
	}
	return env
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
