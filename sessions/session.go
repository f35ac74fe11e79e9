package sessions

import (
	"maps"

	apperrors "github.com/jrsteele09/fnb-console/internal/errors"
	"github.com/jrsteele09/fnb-console/oauthmodel"
	"github.com/jrsteele09/fnb-console/tenants"
)

// DefaultTokenType is used for states created from a refresh response.
const DefaultTokenType = "Bearer"

// AuthState is the live credential set of a console session.
// It is created by a successful login or refresh and cleared on logout.
type AuthState struct {
	TokenType    string          `json:"token_type"`
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token,omitempty"`
	Permissions  map[string]any  `json:"permissions"`
	Tenant       *tenants.Tenant `json:"tenant"`
}

// FromLogin builds a fresh AuthState from a login response.
func FromLogin(resp *oauthmodel.LoginResponse) (*AuthState, error) {
	if resp == nil || resp.AccessToken == "" {
		return nil, apperrors.ErrMissingAccessToken
	}
	permissions := resp.Permissions
	if permissions == nil {
		permissions = map[string]any{}
	}
	tokenType := resp.TokenType
	if tokenType == "" {
		tokenType = DefaultTokenType
	}
	return &AuthState{
		TokenType:    tokenType,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		Permissions:  permissions,
		Tenant:       copyTenant(resp.Tenant),
	}, nil
}

// ApplyRefresh returns the state that results from merging a refresh response into prev.
// prev is never modified. Without a previous state the response must carry a tenant.
func ApplyRefresh(prev *AuthState, resp *oauthmodel.RefreshResponse) (*AuthState, error) {
	if resp == nil || resp.AccessToken == "" {
		return nil, apperrors.ErrMissingAccessToken
	}

	if prev == nil {
		if resp.Tenant == nil {
			return nil, apperrors.ErrMissingTenant
		}
		permissions := resp.Permissions
		if permissions == nil {
			permissions = map[string]any{}
		}
		return &AuthState{
			TokenType:    DefaultTokenType,
			AccessToken:  resp.AccessToken,
			RefreshToken: resp.RefreshToken,
			Permissions:  maps.Clone(permissions),
			Tenant:       copyTenant(resp.Tenant),
		}, nil
	}

	next := prev.Clone()
	next.AccessToken = resp.AccessToken
	if resp.RefreshToken != "" {
		next.RefreshToken = resp.RefreshToken
	}
	if resp.Permissions != nil {
		next.Permissions = maps.Clone(resp.Permissions)
	}
	if resp.Tenant != nil {
		next.Tenant = copyTenant(resp.Tenant)
	}
	return next, nil
}

// Clone returns a deep copy of the state.
func (s *AuthState) Clone() *AuthState {
	if s == nil {
		return nil
	}
	c := *s
	c.Permissions = maps.Clone(s.Permissions)
	c.Tenant = copyTenant(s.Tenant)
	return &c
}

// HasAccessToken reports whether the state can authenticate requests.
func (s *AuthState) HasAccessToken() bool {
	return s != nil && s.AccessToken != ""
}

func copyTenant(t *tenants.Tenant) *tenants.Tenant {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
