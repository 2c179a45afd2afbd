package staterepo

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/screenvault/go-drive-gateway/internal/apperrors"
)

// InMemoryRepo is a thread-safe in-memory implementation of Repo
type InMemoryRepo struct {
	mu     sync.Mutex
	states map[string]FlowState
}

// NewInMemoryRepo creates a new in-memory flow state repository
func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		states: make(map[string]FlowState),
	}
}

func (r *InMemoryRepo) Upsert(nonceID string, state FlowState) error {
	if nonceID == "" {
		return errors.Wrap(apperrors.ErrInvalidInput, "[InMemoryRepo.Upsert] nonceID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.states[nonceID] = state
	return nil
}

// Take removes the entry under the same lock that reads it, so two
// callbacks presenting the same nonce cannot both succeed.
func (r *InMemoryRepo) Take(nonceID string) (FlowState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.states[nonceID]
	if !ok {
		return FlowState{}, errors.Wrap(apperrors.ErrNotFound, "[InMemoryRepo.Take] flow state")
	}

	delete(r.states, nonceID)
	return state, nil
}

func (r *InMemoryRepo) DeleteExpired(now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, state := range r.states {
		if !state.ExpiresAt.After(now) {
			delete(r.states, id)
		}
	}
	return nil
}

var _ Repo = (*InMemoryRepo)(nil)
