package sessions

import "time"

// Repo defines the interface for session storage operations.
type Repo interface {
	// Upsert creates or updates a session keyed by its token
	Upsert(token string, session Session) error

	// Get retrieves a session by token
	Get(token string) (Session, error)

	// Delete removes a session. Succeeds when the token is already absent.
	Delete(token string) error

	// DeleteExpired removes every session whose expiry is at or before now
	DeleteExpired(now time.Time) error
}
