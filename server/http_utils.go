package server

import (
	"encoding/json"
	"net/http"

	"github.com/screenvault/go-drive-gateway/internal/apperrors"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeTaxonomyError maps a taxonomy sentinel to its HTTP status and a
// uniform {error} body. Internal detail never reaches the client.
func writeTaxonomyError(w http.ResponseWriter, err error) {
	switch {
	case apperrors.Is(err, apperrors.ErrInvalidInput):
		writeJSONError(w, http.StatusBadRequest, apperrors.ErrInvalidInput.Error())
	case apperrors.Is(err, apperrors.ErrConflict):
		writeJSONError(w, http.StatusConflict, "user already exists")
	case apperrors.Is(err, apperrors.ErrUnauthenticated):
		writeJSONError(w, http.StatusUnauthorized, "invalid credentials")
	case apperrors.Is(err, apperrors.ErrNotConnected):
		writeJSONError(w, http.StatusBadRequest, "not connected")
	case apperrors.Is(err, apperrors.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, apperrors.ErrNotFound.Error())
	case apperrors.Is(err, apperrors.ErrRateLimited):
		writeJSONError(w, http.StatusTooManyRequests, apperrors.ErrRateLimited.Error())
	case apperrors.Is(err, apperrors.ErrDelegationFailed):
		writeJSONError(w, http.StatusInternalServerError, apperrors.ErrDelegationFailed.Error())
	case apperrors.Is(err, apperrors.ErrUnavailable):
		writeJSONError(w, http.StatusBadGateway, apperrors.ErrUnavailable.Error())
	default:
		writeJSONError(w, http.StatusInternalServerError, "internal error")
	}
}

// setSessionCookie delivers the session token as an httpOnly cookie.
// Secure is set whenever the request arrived over an encrypted
// transport (directly or via a proxy).
func (s *Server) setSessionCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.config.GetSessionCookieName(),
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.config.GetSessionTTL().Seconds()),
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.config.GetSessionCookieName(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
	})
}
