package config

import "time"

type SecurityConfig interface {
	GetSessionTTL() time.Duration
	GetSessionSweepInterval() time.Duration
	GetSessionCookieName() string
}

type Security struct{}

var _ SecurityConfig = Security{}

func (Security) GetSessionTTL() time.Duration {
	return 24 * time.Hour
}

func (Security) GetSessionSweepInterval() time.Duration {
	return 15 * time.Minute
}

func (Security) GetSessionCookieName() string {
	return "session_id"
}
