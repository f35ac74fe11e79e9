package oauthmodel

import "github.com/jrsteele09/fnb-console/tenants"

// LoginRequest is the body of POST /api/login/.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`

	// ClientUsername selects the client account for multi-client users.
	// Required: No (omitted when blank)
	// Example: "NEWHOUSE"
	ClientUsername string `json:"client_username,omitempty"`
}

// LoginResponse is returned by a successful login.
// The refresh credential is also set as an httpOnly cookie by the backend.
type LoginResponse struct {
	// TokenType names the Authorization scheme. Example: "Bearer"
	TokenType string `json:"token_type"`

	// AccessToken is the short-lived bearer credential.
	AccessToken string `json:"access_token"`

	// RefreshToken is optional in the body; the cookie is authoritative.
	RefreshToken string `json:"refresh_token,omitempty"`

	// Permissions is an opaque map consumed by the console UI.
	Permissions map[string]any `json:"permissions"`

	Tenant *tenants.Tenant `json:"tenant"`
}

// RefreshRequest is the body of POST /api/refresh/. An empty body falls back to the cookie.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`
}

// RefreshResponse carries a new access token and, optionally, updated tenant and permissions.
type RefreshResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token,omitempty"`
	Permissions  map[string]any  `json:"permissions,omitempty"`
	Tenant       *tenants.Tenant `json:"tenant,omitempty"`
}
