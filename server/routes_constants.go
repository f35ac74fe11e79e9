package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Account service
	RouteLogin   = "/api/login/{$}"
	RouteRefresh = "/api/refresh/{$}"
	RouteLogout  = "/api/logout/{$}"
	RouteMe      = "/api/me/{$}"
	RouteMetrics = "/metrics"

	// F&B service
	RouteResourceList   = "/api/{resource}/{$}"
	RouteResourceDetail = "/api/{resource}/{id}/{$}"
	RouteSchedulesBulk  = "/api/restaurant-schedules/bulk/{$}"
)

// RefreshCookieName is the httpOnly cookie carrying the refresh token.
const RefreshCookieName = "refresh_token"
