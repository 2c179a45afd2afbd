package auth

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/screenvault/go-drive-gateway/internal/apperrors"
)

// ValidateRegistration checks the registration fields before any state
// is touched.
func ValidateRegistration(email, password, name string) error {
	if err := ValidateCredentials(email, password); err != nil {
		return err
	}
	if strings.TrimSpace(name) == "" {
		return errors.Wrap(apperrors.ErrInvalidInput, "name is required")
	}
	return nil
}

// ValidateCredentials checks login credentials for presence and basic
// email shape.
func ValidateCredentials(email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.Wrap(apperrors.ErrInvalidInput, "email is required")
	}
	if !strings.Contains(email, "@") {
		return errors.Wrap(apperrors.ErrInvalidInput, "invalid email format")
	}
	if password == "" {
		return errors.Wrap(apperrors.ErrInvalidInput, "password is required")
	}
	return nil
}
