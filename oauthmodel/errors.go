package oauthmodel

// Detail messages the backend uses to reject an access token.
// A 401/403 carrying one of these is recoverable by a token refresh.
const (
	DetailTokenExpired       = "Token expired."
	DetailInvalidOrExpired   = "Invalid or expired token"
	DetailCredentialsMissing = "Authentication credentials were not provided."
)

// ExpiredTokenSignals lists every detail that triggers a refresh.
var ExpiredTokenSignals = []string{
	DetailTokenExpired,
	DetailInvalidOrExpired,
	DetailCredentialsMissing,
}

// ErrorResponse is the error body shape of the REST backend.
type ErrorResponse struct {
	Detail  string `json:"detail,omitempty"`
	Message string `json:"message,omitempty"`
}
