// Package delegation drives the authorization-code exchange with the
// storage provider and binds the resulting token set to the local user
// who initiated the flow.
package delegation

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/screenvault/go-drive-gateway/delegation/staterepo"
	"github.com/screenvault/go-drive-gateway/internal/apperrors"
	"github.com/screenvault/go-drive-gateway/users"
)

// Broker walks a user through Disconnected -> AuthorizationRequested ->
// Connected. The connection state is stored on the user record; the
// in-flight step lives in the state repo.
type Broker struct {
	users       users.Repo
	states      staterepo.Repo
	oauth       *oauth2.Config
	stateSecret []byte
	stateTTL    time.Duration
	timeout     time.Duration
	logger      zerolog.Logger
	nowTime     func() time.Time // nowTime function (injectable for testing)
}

// BrokerOption defines a function type to modify the Broker instance.
type BrokerOption func(*Broker)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) BrokerOption {
	return func(b *Broker) {
		b.nowTime = nowFunc
	}
}

// NewBroker initializes a new Broker with required dependencies.
func NewBroker(
	userRepo users.Repo,
	stateRepo staterepo.Repo,
	oauthConfig *oauth2.Config,
	stateSecret string,
	stateTTL time.Duration,
	providerTimeout time.Duration,
	logger zerolog.Logger,
	options ...BrokerOption,
) (*Broker, error) {
	if userRepo == nil {
		return nil, errors.New("[NewBroker] Users repo is required")
	}
	if stateRepo == nil {
		return nil, errors.New("[NewBroker] state repo is required")
	}
	if oauthConfig == nil {
		return nil, errors.New("[NewBroker] oauth config is required")
	}
	if stateSecret == "" {
		return nil, errors.New("[NewBroker] state secret is required")
	}

	broker := &Broker{
		users:       userRepo,
		states:      stateRepo,
		oauth:       oauthConfig,
		stateSecret: []byte(stateSecret),
		stateTTL:    stateTTL,
		timeout:     providerTimeout,
		logger:      logger,
		nowTime:     time.Now,
	}

	for _, opt := range options {
		opt(broker)
	}

	return broker, nil
}

// BeginAuthorization builds the provider authorization URL for email and
// registers the signed state nonce that the callback must return.
// Requests offline access so the provider grants a refresh credential.
func (b *Broker) BeginAuthorization(email string) (string, error) {
	if _, err := b.users.GetByEmail(email); err != nil {
		return "", errors.Wrap(err, "[Broker.BeginAuthorization] users.GetByEmail")
	}

	now := b.nowTime()
	state, nonceID, err := mintState(b.stateSecret, email, b.stateTTL, now)
	if err != nil {
		return "", errors.Wrap(err, "[Broker.BeginAuthorization] mintState")
	}

	if err := b.states.Upsert(nonceID, staterepo.FlowState{
		Email:     email,
		CreatedAt: now,
		ExpiresAt: now.Add(b.stateTTL),
	}); err != nil {
		return "", errors.Wrap(err, "[Broker.BeginAuthorization] states.Upsert")
	}

	authURL := b.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline)

	b.logger.Info().Str("email", email).Msg("authorization requested")
	return authURL, nil
}

// CompleteAuthorization handles the provider redirect: it verifies the
// state nonce, consumes it, exchanges the code for a token set, and
// attaches the token set to the initiating user. Returns the identity
// the flow was bound to.
func (b *Broker) CompleteAuthorization(ctx context.Context, code, state string) (string, error) {
	if code == "" || state == "" {
		return "", errors.Wrap(apperrors.ErrDelegationFailed, "[Broker.CompleteAuthorization] missing code or state")
	}

	email, nonceID, err := parseState(b.stateSecret, state, b.nowTime())
	if err != nil {
		return "", errors.Wrapf(apperrors.ErrDelegationFailed, "[Broker.CompleteAuthorization] bad state: %v", err)
	}

	// Single use: a replayed state fails here even if the signature is valid.
	flow, err := b.states.Take(nonceID)
	if err != nil {
		return "", errors.Wrap(apperrors.ErrDelegationFailed, "[Broker.CompleteAuthorization] unknown or reused state")
	}
	if flow.Email != email {
		return "", errors.Wrap(apperrors.ErrDelegationFailed, "[Broker.CompleteAuthorization] state identity mismatch")
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	token, err := b.oauth.Exchange(ctx, code)
	if err != nil {
		if ctx.Err() != nil {
			return "", errors.Wrapf(apperrors.ErrUnavailable, "[Broker.CompleteAuthorization] exchange timed out: %v", err)
		}
		return "", errors.Wrapf(apperrors.ErrDelegationFailed, "[Broker.CompleteAuthorization] exchange: %v", err)
	}

	if err := b.users.AttachDriveToken(email, token); err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return "", errors.Wrap(apperrors.ErrDelegationFailed, "[Broker.CompleteAuthorization] unknown identity")
		}
		return "", errors.Wrap(err, "[Broker.CompleteAuthorization] users.AttachDriveToken")
	}

	b.logger.Info().Str("email", email).Msg("drive connected")
	return email, nil
}

// StartSweeper periodically drops flow states whose window has passed
// without a callback, until ctx is canceled. An expired state already
// fails signature validation before the repo is consulted; the sweep
// keeps abandoned flows from piling up.
func (b *Broker) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := b.states.DeleteExpired(b.nowTime()); err != nil {
					b.logger.Warn().Err(err).Msg("flow state sweep failed")
				}
			}
		}
	}()
}

// Disconnect clears the token set. Idempotent when already disconnected.
func (b *Broker) Disconnect(email string) error {
	if err := b.users.ClearDriveToken(email); err != nil {
		return errors.Wrap(err, "[Broker.Disconnect] users.ClearDriveToken")
	}

	b.logger.Info().Str("email", email).Msg("drive disconnected")
	return nil
}

// TokenFor returns the delegated token set for a connected user, or
// ErrNotConnected.
func (b *Broker) TokenFor(email string) (*oauth2.Token, error) {
	user, err := b.users.GetByEmail(email)
	if err != nil {
		return nil, errors.Wrap(err, "[Broker.TokenFor] users.GetByEmail")
	}
	if !user.DriveConnected || user.DriveToken == nil {
		return nil, errors.Wrap(apperrors.ErrNotConnected, "[Broker.TokenFor]")
	}
	return user.DriveToken, nil
}
