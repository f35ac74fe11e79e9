package filerepo_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/jrsteele09/fnb-console/internal/errors"
	"github.com/jrsteele09/fnb-console/sessions"
	"github.com/jrsteele09/fnb-console/sessions/filerepo"
	"github.com/jrsteele09/fnb-console/tenants"
	"github.com/stretchr/testify/require"
)

func TestFileRepo(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	repo := filerepo.New(path)

	_, err := repo.Load(ctx)
	require.ErrorIs(t, err, apperrors.ErrSessionNotFound)

	state := &sessions.AuthState{
		TokenType:   "Bearer",
		AccessToken: "access-1",
		Permissions: map[string]any{"pos": true},
		Tenant:      &tenants.Tenant{Alias: "newhouse", Username: "alice"},
	}
	require.NoError(t, repo.Save(ctx, state))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, state, loaded)

	require.NoError(t, repo.Clear(ctx))
	require.NoError(t, repo.Clear(ctx), "clearing twice is fine")
	_, err = repo.Load(ctx)
	require.ErrorIs(t, err, apperrors.ErrSessionNotFound)
}

func TestFileRepo_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := filerepo.New(path).Load(context.Background())
	require.ErrorIs(t, err, apperrors.ErrSessionCorrupt)
}
