package server

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/screenvault/go-drive-gateway/auth"
	"github.com/screenvault/go-drive-gateway/delegation"
	"github.com/screenvault/go-drive-gateway/drive"
	"github.com/screenvault/go-drive-gateway/internal/config"
	"github.com/screenvault/go-drive-gateway/sessions"
)

// Server wires the HTTP surface over the auth service, session
// authority, delegation broker, and drive client. Every route that
// touches the delegated account passes through RequireSession.
type Server struct {
	env       string // Environment (e.g., "DEV", "PROD")
	mux       *http.ServeMux
	routes    []string
	config    config.Config
	auth      *auth.Service
	authority *sessions.Authority
	broker    *delegation.Broker
	drive     *drive.Client
	logger    zerolog.Logger
}

func New(
	cfg config.Config,
	authService *auth.Service,
	authority *sessions.Authority,
	broker *delegation.Broker,
	driveClient *drive.Client,
	logger zerolog.Logger,
) (*Server, error) {
	s := &Server{
		mux:       http.NewServeMux(),
		config:    cfg,
		auth:      authService,
		authority: authority,
		broker:    broker,
		drive:     driveClient,
		logger:    logger,
	}
	s.env = cfg.GetEnv()

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			s.logger.Info().Str("method", parts[0]).Str("path", parts[1]).Msg("route")
		} else {
			s.logger.Info().Str("path", parts[0]).Msg("route")
		}
	}
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
