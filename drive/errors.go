// Package drive is an HTTP client for the Google Drive v3 API scoped to
// what the gateway needs: listing image files and streaming downloads.
// Provider failures are classified into the gateway's error taxonomy.
package drive

import (
	"fmt"
	"net/http"

	"github.com/screenvault/go-drive-gateway/internal/apperrors"
)

// APIError wraps a taxonomy sentinel with the HTTP status code and the
// provider's error body for debugging.
type APIError struct {
	StatusCode int
	Message    string
	Err        error // sentinel, for errors.Is()
}

func (e *APIError) Error() string {
	return fmt.Sprintf("drive: HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// classifyStatus maps a provider HTTP status to a taxonomy sentinel.
// Returns nil for 2xx success codes.
func classifyStatus(code int) error {
	switch {
	case code >= http.StatusOK && code < http.StatusMultipleChoices:
		return nil
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		// Expired or revoked delegated credential.
		return apperrors.ErrDelegationFailed
	case code == http.StatusNotFound:
		return apperrors.ErrNotFound
	case code == http.StatusTooManyRequests:
		return apperrors.ErrRateLimited
	default:
		return apperrors.ErrUnavailable
	}
}
