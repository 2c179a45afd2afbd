package server

import (
	"context"
	"net/http"

	"github.com/screenvault/go-drive-gateway/sessions"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeySession stores the resolved session for the request
	ContextKeySession ContextKey = "session"
)

// RequireSession is the authorization gate: it extracts the session
// cookie, resolves it, and either injects the bound identity into the
// request context or rejects with a uniform 401 before any downstream
// code runs.
func (s *Server) RequireSession() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(s.config.GetSessionCookieName())
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "not authenticated")
				return
			}

			session, err := s.authority.Resolve(cookie.Value)
			if err != nil {
				// Missing, unknown, and expired all read the same.
				writeJSONError(w, http.StatusUnauthorized, "not authenticated")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeySession, session)
			next(w, r.WithContext(ctx))
		}
	}
}

// sessionFromContext returns the session injected by RequireSession.
func sessionFromContext(ctx context.Context) (sessions.Session, bool) {
	session, ok := ctx.Value(ContextKeySession).(sessions.Session)
	return session, ok
}
