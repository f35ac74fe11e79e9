package sessions

import "context"

// Repo mirrors the AuthState to persistent storage so a session survives restarts.
// Load returns errors.ErrSessionNotFound when nothing has been saved.
type Repo interface {
	Load(ctx context.Context) (*AuthState, error)
	Save(ctx context.Context, state *AuthState) error
	Clear(ctx context.Context) error
}
