package sessions

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/screenvault/go-drive-gateway/internal/apperrors"
)

// InMemoryRepo is a thread-safe in-memory implementation of Repo
type InMemoryRepo struct {
	mu       sync.RWMutex
	sessions map[string]Session // token -> session
}

// NewInMemoryRepo creates a new in-memory session repository
func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		sessions: make(map[string]Session),
	}
}

func (r *InMemoryRepo) Upsert(token string, session Session) error {
	if token == "" {
		return errors.Wrap(apperrors.ErrInvalidInput, "[InMemoryRepo.Upsert] token is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[token] = session
	return nil
}

func (r *InMemoryRepo) Get(token string) (Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[token]
	if !ok {
		return Session{}, errors.Wrap(apperrors.ErrNotFound, "[InMemoryRepo.Get] session")
	}
	return session, nil
}

func (r *InMemoryRepo) Delete(token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, token)
	return nil
}

func (r *InMemoryRepo) DeleteExpired(now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for token, session := range r.sessions {
		if !session.ExpiresAt.After(now) {
			delete(r.sessions, token)
		}
	}
	return nil
}

var _ Repo = (*InMemoryRepo)(nil)
