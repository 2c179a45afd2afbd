package users

import "golang.org/x/oauth2"

// Repo is the credential store. Implementations must serialize
// conflicting writes to the same email: two concurrent Create calls for
// one identity yield exactly one success and one apperrors.ErrConflict.
type Repo interface {
	// Create stores a new user. Fails with apperrors.ErrConflict if the
	// email is already registered.
	Create(user *User) error

	// GetByEmail retrieves a user by identity. Fails with
	// apperrors.ErrNotFound if absent.
	GetByEmail(email string) (*User, error)

	// AttachDriveToken attaches (or replaces) the delegated token set and
	// sets the connection flag in a single atomic step.
	AttachDriveToken(email string, token *oauth2.Token) error

	// ClearDriveToken removes the token set and clears the connection
	// flag. Idempotent when already disconnected.
	ClearDriveToken(email string) error
}
