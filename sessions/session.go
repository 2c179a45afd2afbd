package sessions

import "time"

// Session binds an opaque token to an authenticated user for a fixed
// duration. Sessions are read on every gated call and never mutated
// after creation.
type Session struct {
	Token     string    // Opaque, unguessable credential
	Email     string    // Bound user identity
	Name      string    // Bound display name
	CreatedAt time.Time // When the session was created
	ExpiresAt time.Time // When the session stops resolving
}
