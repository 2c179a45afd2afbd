package server

import (
	"encoding/json"
	"net/http"
	"time"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userPayload struct {
	Email          string `json:"email"`
	Name           string `json:"name"`
	DriveConnected bool   `json:"driveConnected"`
}

// RegisterHandler creates a new account.
func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		user, err := s.auth.Register(req.Email, req.Password, req.Name)
		if err != nil {
			writeTaxonomyError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"user":    map[string]string{"email": user.Email, "name": user.Name},
		})
	}
}

// LoginHandler verifies credentials and sets the session cookie.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		token, user, err := s.auth.Login(req.Email, req.Password)
		if err != nil {
			writeTaxonomyError(w, err)
			return
		}

		s.setSessionCookie(w, r, token)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"user": userPayload{
				Email:          user.Email,
				Name:           user.Name,
				DriveConnected: user.DriveConnected,
			},
		})
	}
}

// LogoutHandler destroys the session. Succeeds even without one.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(s.config.GetSessionCookieName()); err == nil {
			if err := s.auth.Logout(cookie.Value); err != nil {
				s.logger.Warn().Err(err).Msg("logout failed")
				writeJSONError(w, http.StatusInternalServerError, "logout failed")
				return
			}
		}
		s.clearSessionCookie(w, r)
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

// StatusHandler reports whether the caller holds a valid session. It is
// deliberately ungated: an anonymous caller gets authenticated:false,
// not a 401.
func (s *Server) StatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(s.config.GetSessionCookieName())
		if err != nil {
			writeJSON(w, http.StatusOK, map[string]bool{"authenticated": false})
			return
		}

		session, err := s.authority.Resolve(cookie.Value)
		if err != nil {
			writeJSON(w, http.StatusOK, map[string]bool{"authenticated": false})
			return
		}

		profile, err := s.auth.Profile(session.Email)
		if err != nil {
			writeJSON(w, http.StatusOK, map[string]bool{"authenticated": false})
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"authenticated": true,
			"user": userPayload{
				Email:          profile.Email,
				Name:           profile.Name,
				DriveConnected: profile.DriveConnected,
			},
		})
	}
}

// ProfileHandler returns the full caller-facing view of the record.
func (s *Server) ProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessionFromContext(r.Context())
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		profile, err := s.auth.Profile(session.Email)
		if err != nil {
			writeTaxonomyError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, profile)
	}
}

// HealthHandler is a liveness probe.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
		})
	}
}
