package users

import (
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
)

// User is one registered account. The password hash is never serialized
// and the Drive token set only exists while DriveConnected is true.
type User struct {
	Email          string        `json:"email"`           // Unique, case-sensitive identity
	Name           string        `json:"name"`            // Display name
	PasswordHash   string        `json:"-"`               // bcrypt hash - never serialize
	CreatedAt      time.Time     `json:"created_at"`      // Registration time
	DriveConnected bool          `json:"drive_connected"` // True iff DriveToken is attached
	DriveToken     *oauth2.Token `json:"-"`               // Delegated token set - never serialize
}

// Profile is the caller-facing view of a user record.
type Profile struct {
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	DriveConnected bool      `json:"driveConnected"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (u *User) Profile() Profile {
	return Profile{
		Email:          u.Email,
		Name:           u.Name,
		DriveConnected: u.DriveConnected,
		CreatedAt:      u.CreatedAt,
	}
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash compares a candidate password against a stored hash.
// bcrypt performs the comparison in constant time with respect to the
// hash, so rejection timing does not reveal matching prefixes.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
