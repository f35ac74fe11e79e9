package tenants

// Tenant identifies the authenticated principal and the client account it acts for.
// It is replaced wholesale by a login, or by a refresh response that carries one.
type Tenant struct {
	Alias          string `json:"alias"`           // Tenant alias shown in the console header
	ClientUsername string `json:"client_username"` // Client account login name (e.g. "NEWHOUSE")
	ClientID       int64  `json:"client_id"`
	UserID         int64  `json:"user_id"`
	Username       string `json:"username"`
}

// DisplayName returns the username, or "User" when the tenant has none.
func (t *Tenant) DisplayName() string {
	if t == nil || t.Username == "" {
		return "User"
	}
	return t.Username
}

// GetUsername returns the username, or "" on a nil tenant.
func (t *Tenant) GetUsername() string {
	if t == nil {
		return ""
	}
	return t.Username
}

// GetClientUsername returns the client account name, or "" on a nil tenant.
func (t *Tenant) GetClientUsername() string {
	if t == nil {
		return ""
	}
	return t.ClientUsername
}
