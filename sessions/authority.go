package sessions

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/screenvault/go-drive-gateway/internal/apperrors"
)

const tokenGenerationLength = 32

// Authority issues, resolves, and destroys session tokens. It is the
// sole arbiter of whether a request is authenticated.
type Authority struct {
	repo    Repo
	ttl     time.Duration
	logger  zerolog.Logger
	nowTime func() time.Time // nowTime function (injectable for testing)
}

// AuthorityOption defines a function type to modify the Authority instance.
type AuthorityOption func(*Authority)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) AuthorityOption {
	return func(a *Authority) {
		a.nowTime = nowFunc
	}
}

// NewAuthority initializes a new Authority with the given session store
// and fixed session lifetime.
func NewAuthority(repo Repo, ttl time.Duration, logger zerolog.Logger, options ...AuthorityOption) (*Authority, error) {
	if repo == nil {
		return nil, errors.New("[NewAuthority] Sessions repo is required")
	}
	if ttl <= 0 {
		return nil, errors.New("[NewAuthority] ttl must be positive")
	}

	authority := &Authority{
		repo:    repo,
		ttl:     ttl,
		logger:  logger,
		nowTime: time.Now,
	}

	for _, opt := range options {
		opt(authority)
	}

	return authority, nil
}

// Create mints a cryptographically random token and records a session
// bound to the given identity. The token is returned for delivery as an
// httpOnly cookie.
func (a *Authority) Create(email, name string) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", errors.Wrap(err, "[Authority.Create] generateToken")
	}

	now := a.nowTime()
	session := Session{
		Token:     token,
		Email:     email,
		Name:      name,
		CreatedAt: now,
		ExpiresAt: now.Add(a.ttl),
	}

	if err := a.repo.Upsert(token, session); err != nil {
		return "", errors.Wrap(err, "[Authority.Create] repo.Upsert")
	}

	return token, nil
}

// Resolve returns the session bound to token. Missing, unknown, and
// expired tokens all fail with the same ErrUnauthenticated so the caller
// cannot distinguish the cases. Expired sessions are evicted lazily.
func (a *Authority) Resolve(token string) (Session, error) {
	if token == "" {
		return Session{}, errors.Wrap(apperrors.ErrUnauthenticated, "[Authority.Resolve] empty token")
	}

	session, err := a.repo.Get(token)
	if err != nil {
		return Session{}, errors.Wrap(apperrors.ErrUnauthenticated, "[Authority.Resolve] unknown token")
	}

	if !session.ExpiresAt.After(a.nowTime()) {
		_ = a.repo.Delete(token)
		return Session{}, errors.Wrap(apperrors.ErrUnauthenticated, "[Authority.Resolve] expired token")
	}

	return session, nil
}

// Destroy removes a session unconditionally. Destroying an absent token
// is not an error, so logout is idempotent.
func (a *Authority) Destroy(token string) error {
	if token == "" {
		return nil
	}
	if err := a.repo.Delete(token); err != nil {
		return errors.Wrap(err, "[Authority.Destroy] repo.Delete")
	}
	return nil
}

// StartSweeper runs a periodic eviction of expired sessions until ctx is
// canceled. Lazy eviction in Resolve already guarantees correctness; the
// sweep keeps the store from accumulating dead entries.
func (a *Authority) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := a.repo.DeleteExpired(a.nowTime()); err != nil {
					a.logger.Warn().Err(err).Msg("session sweep failed")
				}
			}
		}
	}()
}

// generateToken creates a random base64url token
func generateToken() (string, error) {
	b := make([]byte, tokenGenerationLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
