package sessions_test

import (
	"testing"

	apperrors "github.com/jrsteele09/fnb-console/internal/errors"
	"github.com/jrsteele09/fnb-console/oauthmodel"
	"github.com/jrsteele09/fnb-console/sessions"
	"github.com/jrsteele09/fnb-console/tenants"
	"github.com/stretchr/testify/require"
)

func testTenant() *tenants.Tenant {
	return &tenants.Tenant{
		Alias:          "newhouse",
		ClientUsername: "NEWHOUSE",
		ClientID:       7,
		UserID:         42,
		Username:       "alice",
	}
}

func TestFromLogin(t *testing.T) {
	t.Run("builds state", func(t *testing.T) {
		state, err := sessions.FromLogin(&oauthmodel.LoginResponse{
			TokenType:   "Bearer",
			AccessToken: "access-1",
			Tenant:      testTenant(),
		})
		require.NoError(t, err)
		require.Equal(t, "access-1", state.AccessToken)
		require.NotNil(t, state.Permissions)
		require.Equal(t, "alice", state.Tenant.Username)
	})

	t.Run("defaults token type", func(t *testing.T) {
		state, err := sessions.FromLogin(&oauthmodel.LoginResponse{AccessToken: "a"})
		require.NoError(t, err)
		require.Equal(t, sessions.DefaultTokenType, state.TokenType)
	})

	t.Run("missing access token", func(t *testing.T) {
		_, err := sessions.FromLogin(&oauthmodel.LoginResponse{})
		require.ErrorIs(t, err, apperrors.ErrMissingAccessToken)
	})
}

func TestApplyRefresh(t *testing.T) {
	prev := &sessions.AuthState{
		TokenType:   "Bearer",
		AccessToken: "old",
		Permissions: map[string]any{"pos": true},
		Tenant:      testTenant(),
	}

	t.Run("replaces token and keeps the rest", func(t *testing.T) {
		next, err := sessions.ApplyRefresh(prev, &oauthmodel.RefreshResponse{AccessToken: "new"})
		require.NoError(t, err)
		require.Equal(t, "new", next.AccessToken)
		require.Equal(t, map[string]any{"pos": true}, next.Permissions)
		require.Equal(t, "alice", next.Tenant.Username)
		require.Equal(t, "old", prev.AccessToken, "previous state must not change")
	})

	t.Run("replaces tenant and permissions when present", func(t *testing.T) {
		tenant := testTenant()
		tenant.Username = "bob"
		next, err := sessions.ApplyRefresh(prev, &oauthmodel.RefreshResponse{
			AccessToken: "new",
			Permissions: map[string]any{"admin": true},
			Tenant:      tenant,
		})
		require.NoError(t, err)
		require.Equal(t, "bob", next.Tenant.Username)
		require.Equal(t, map[string]any{"admin": true}, next.Permissions)
		require.Equal(t, "alice", prev.Tenant.Username)
	})

	t.Run("missing access token", func(t *testing.T) {
		_, err := sessions.ApplyRefresh(prev, &oauthmodel.RefreshResponse{})
		require.ErrorIs(t, err, apperrors.ErrMissingAccessToken)
	})

	t.Run("no previous state needs tenant", func(t *testing.T) {
		_, err := sessions.ApplyRefresh(nil, &oauthmodel.RefreshResponse{AccessToken: "new"})
		require.ErrorIs(t, err, apperrors.ErrMissingTenant)
	})

	t.Run("no previous state with tenant", func(t *testing.T) {
		next, err := sessions.ApplyRefresh(nil, &oauthmodel.RefreshResponse{AccessToken: "new", Tenant: testTenant()})
		require.NoError(t, err)
		require.Equal(t, sessions.DefaultTokenType, next.TokenType)
		require.Empty(t, next.Permissions)
		require.NotNil(t, next.Permissions)
	})
}

func TestAuthState_Clone(t *testing.T) {
	state := &sessions.AuthState{AccessToken: "a", Permissions: map[string]any{"x": 1}, Tenant: testTenant()}
	c := state.Clone()
	c.Permissions["x"] = 2
	c.Tenant.Alias = "changed"
	require.Equal(t, 1, state.Permissions["x"])
	require.Equal(t, "newhouse", state.Tenant.Alias)

	var nilState *sessions.AuthState
	require.Nil(t, nilState.Clone())
	require.False(t, nilState.HasAccessToken())
}
