package server

import "net/http"

func (s *Server) initRoutes() {
	// AUTH
	s.RegisterRouteHandler("POST "+RouteRegister, ChainMiddleware(s.RegisterHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteStatus, ChainMiddleware(s.StatusHandler(), s.APIMiddleware()...))

	// Gated routes: the session filter is the single enforcement point
	// for everything that touches the delegated account.
	s.RegisterRouteHandler("GET "+RouteProfile, ChainMiddleware(s.ProfileHandler(), s.GatedMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteDriveAuthorize, ChainMiddleware(s.DriveAuthorizeHandler(), s.GatedMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteDriveScreenshots, ChainMiddleware(s.DriveScreenshotsHandler(), s.GatedMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteDriveDownload, ChainMiddleware(s.DriveDownloadHandler(), s.GatedMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteDriveDisconnect, ChainMiddleware(s.DriveDisconnectHandler(), s.GatedMiddleware()...))

	// Provider-invoked callback: not session-gated, the signed state
	// nonce stands in for the session here.
	s.RegisterRouteHandler("GET "+RouteDriveCallback, ChainMiddleware(s.DriveCallbackHandler(), s.LoggingMiddleware, s.RecoverMiddleware))

	s.RegisterRouteHandler("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.APIMiddleware()...))
}

// GatedMiddleware is the API chain plus the session authorization gate.
func (s *Server) GatedMiddleware() []func(http.HandlerFunc) http.HandlerFunc {
	return append(s.APIMiddleware(), s.RequireSession())
}
