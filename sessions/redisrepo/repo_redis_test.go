package redisrepo_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	apperrors "github.com/jrsteele09/fnb-console/internal/errors"
	"github.com/jrsteele09/fnb-console/sessions"
	"github.com/jrsteele09/fnb-console/sessions/redisrepo"
	"github.com/jrsteele09/fnb-console/tenants"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T, ttl time.Duration) (*redisrepo.RedisRepo, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return redisrepo.New(rdb, "fnbconsole:session:test", ttl), mr
}

func TestRedisRepo(t *testing.T) {
	ctx := context.Background()
	repo, mr := newTestRepo(t, time.Hour)

	_, err := repo.Load(ctx)
	require.ErrorIs(t, err, apperrors.ErrSessionNotFound)

	state := &sessions.AuthState{
		TokenType:   "Bearer",
		AccessToken: "access-1",
		Permissions: map[string]any{"pos": true},
		Tenant:      &tenants.Tenant{Alias: "newhouse", ClientID: 3},
	}
	require.NoError(t, repo.Save(ctx, state))
	require.Equal(t, time.Hour, mr.TTL("fnbconsole:session:test"))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, state, loaded)

	mr.FastForward(2 * time.Hour)
	_, err = repo.Load(ctx)
	require.ErrorIs(t, err, apperrors.ErrSessionNotFound)
}

func TestRedisRepo_ClearAndCorrupt(t *testing.T) {
	ctx := context.Background()
	repo, mr := newTestRepo(t, 0)

	require.NoError(t, repo.Save(ctx, &sessions.AuthState{AccessToken: "a"}))
	require.NoError(t, repo.Clear(ctx))
	require.False(t, mr.Exists("fnbconsole:session:test"))

	require.NoError(t, mr.Set("fnbconsole:session:test", "{broken"))
	_, err := repo.Load(ctx)
	require.ErrorIs(t, err, apperrors.ErrSessionCorrupt)
}
