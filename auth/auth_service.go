// Package auth implements credential verification and the session
// lifecycle around it: registration, login, logout, and status.
package auth

import (
	"time"

	"github.com/pkg/errors"

	"github.com/screenvault/go-drive-gateway/internal/apperrors"
	"github.com/screenvault/go-drive-gateway/sessions"
	"github.com/screenvault/go-drive-gateway/users"
)

// dummyHash is compared against when the identity is unknown, so login
// latency does not reveal whether an email is registered.
var dummyHash, _ = users.HashPassword("dummy-password-for-timing")

// Service provides registration and credential-backed session creation.
type Service struct {
	users     users.Repo
	authority *sessions.Authority
	nowTime   func() time.Time // nowTime function (injectable for testing)
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// NewService initializes a new Service with required dependencies.
func NewService(userRepo users.Repo, authority *sessions.Authority, options ...ServiceOption) (*Service, error) {
	if userRepo == nil {
		return nil, errors.New("[NewService] Users repo is required")
	}
	if authority == nil {
		return nil, errors.New("[NewService] session authority is required")
	}

	service := &Service{
		users:     userRepo,
		authority: authority,
		nowTime:   time.Now,
	}

	for _, opt := range options {
		opt(service)
	}

	return service, nil
}

// Register creates a new user record with a salted hash of the password.
// Fails with ErrInvalidInput on missing fields and ErrConflict when the
// email is already registered.
func (s *Service) Register(email, password, name string) (*users.User, error) {
	if err := ValidateRegistration(email, password, name); err != nil {
		return nil, errors.Wrap(err, "[Service.Register] validation")
	}

	passwordHash, err := users.HashPassword(password)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Register] HashPassword")
	}

	user := &users.User{
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    s.nowTime(),
	}

	if err := s.users.Create(user); err != nil {
		return nil, errors.Wrap(err, "[Service.Register] users.Create")
	}

	return user, nil
}

// Verify checks the credentials and returns the matching user record.
// Unknown identity and wrong password both fail with the same
// ErrUnauthenticated.
func (s *Service) Verify(email, password string) (*users.User, error) {
	if err := ValidateCredentials(email, password); err != nil {
		return nil, errors.Wrap(err, "[Service.Verify] validation")
	}

	user, err := s.users.GetByEmail(email)
	if err != nil {
		// Burn a comparison anyway so the miss costs the same as a mismatch.
		users.CheckPasswordHash(password, dummyHash)
		return nil, errors.Wrap(apperrors.ErrUnauthenticated, "[Service.Verify] invalid credentials")
	}

	if !users.CheckPasswordHash(password, user.PasswordHash) {
		return nil, errors.Wrap(apperrors.ErrUnauthenticated, "[Service.Verify] invalid credentials")
	}

	return user, nil
}

// Login verifies the credentials and mints a session for the user.
func (s *Service) Login(email, password string) (string, *users.User, error) {
	user, err := s.Verify(email, password)
	if err != nil {
		return "", nil, err
	}

	token, err := s.authority.Create(user.Email, user.Name)
	if err != nil {
		return "", nil, errors.Wrap(err, "[Service.Login] authority.Create")
	}

	return token, user, nil
}

// Logout destroys the session. Idempotent.
func (s *Service) Logout(token string) error {
	if err := s.authority.Destroy(token); err != nil {
		return errors.Wrap(err, "[Service.Logout] authority.Destroy")
	}
	return nil
}

// Profile returns the caller-facing view of the user record, excluding
// the password hash and token set.
func (s *Service) Profile(email string) (users.Profile, error) {
	user, err := s.users.GetByEmail(email)
	if err != nil {
		return users.Profile{}, errors.Wrap(err, "[Service.Profile] users.GetByEmail")
	}
	return user.Profile(), nil
}
