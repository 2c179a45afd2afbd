// Package staterepo tracks in-flight authorization flows. Each entry is
// keyed by the nonce ID embedded in the signed state parameter and is
// consumed exactly once when the provider callback arrives.
package staterepo

import "time"

type FlowState struct {
	Email     string    // Identity that initiated the flow
	CreatedAt time.Time // When the flow began
	ExpiresAt time.Time // After this, the callback is rejected
}

type Repo interface {
	// Upsert stores a pending flow keyed by nonce ID
	Upsert(nonceID string, state FlowState) error

	// Take retrieves and removes a pending flow in one step, enforcing
	// single use. The second call for the same nonce ID fails.
	Take(nonceID string) (FlowState, error)

	// DeleteExpired removes flows whose expiry is at or before now
	DeleteExpired(now time.Time) error
}
