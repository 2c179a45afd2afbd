package users

import (
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/screenvault/go-drive-gateway/internal/apperrors"
)

// InMemoryRepo is a thread-safe in-memory implementation of Repo.
// State lives for the process lifetime only.
type InMemoryRepo struct {
	mu    sync.RWMutex
	users map[string]*User // email -> user
}

// NewInMemoryRepo creates a new in-memory user repository
func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		users: make(map[string]*User),
	}
}

// Create stores a new user. The existence check and insert happen under
// one write lock, so a duplicate-registration race resolves to exactly
// one winner.
func (r *InMemoryRepo) Create(user *User) error {
	if user == nil || user.Email == "" {
		return errors.Wrap(apperrors.ErrInvalidInput, "[InMemoryRepo.Create] user email is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[user.Email]; exists {
		return errors.Wrap(apperrors.ErrConflict, "[InMemoryRepo.Create] user")
	}

	u := *user
	r.users[user.Email] = &u
	return nil
}

func (r *InMemoryRepo) GetByEmail(email string) (*User, error) {
	if email == "" {
		return nil, errors.Wrap(apperrors.ErrInvalidInput, "[InMemoryRepo.GetByEmail] email is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[email]
	if !exists {
		return nil, errors.Wrap(apperrors.ErrNotFound, "[InMemoryRepo.GetByEmail] user")
	}

	// Return a copy to prevent external modifications
	u := *user
	return &u, nil
}

func (r *InMemoryRepo) AttachDriveToken(email string, token *oauth2.Token) error {
	if token == nil {
		return errors.Wrap(apperrors.ErrInvalidInput, "[InMemoryRepo.AttachDriveToken] token is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	user, exists := r.users[email]
	if !exists {
		return errors.Wrap(apperrors.ErrNotFound, "[InMemoryRepo.AttachDriveToken] user")
	}

	t := *token
	user.DriveToken = &t
	user.DriveConnected = true
	return nil
}

func (r *InMemoryRepo) ClearDriveToken(email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, exists := r.users[email]
	if !exists {
		return errors.Wrap(apperrors.ErrNotFound, "[InMemoryRepo.ClearDriveToken] user")
	}

	user.DriveToken = nil
	user.DriveConnected = false
	return nil
}

var _ Repo = (*InMemoryRepo)(nil)
