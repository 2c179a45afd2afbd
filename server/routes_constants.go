package server

const (
	RouteRegister = "/api/auth/register"
	RouteLogin    = "/api/auth/login"
	RouteLogout   = "/api/auth/logout"
	RouteStatus   = "/api/auth/status"
	RouteProfile  = "/api/user/profile"

	RouteDriveAuthorize   = "/api/drive/authorize"
	RouteDriveCallback    = "/auth/google/callback"
	RouteDriveScreenshots = "/api/drive/screenshots"
	RouteDriveDownload    = "/api/drive/download/{fileID}"
	RouteDriveDisconnect  = "/api/drive/disconnect"

	RouteHealth = "/health"
)
