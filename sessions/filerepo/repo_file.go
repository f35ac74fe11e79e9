package filerepo

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	apperrors "github.com/jrsteele09/fnb-console/internal/errors"
	"github.com/jrsteele09/fnb-console/sessions"
)

var _ sessions.Repo = (*FileRepo)(nil)

// FileRepo stores the AuthState as a JSON document readable only by the current user.
type FileRepo struct {
	path string
	lock sync.Mutex
}

func New(path string) *FileRepo {
	return &FileRepo{path: path}
}

func (r *FileRepo) Load(_ context.Context) (*sessions.AuthState, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return nil, apperrors.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("[FileRepo.Load] read %s: %w", r.path, err)
	}

	var state sessions.AuthState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrSessionCorrupt, "[FileRepo.Load] %s: %v", r.path, err)
	}
	return &state, nil
}

// Save writes to a temporary file and renames it so readers never see a partial document.
func (r *FileRepo) Save(_ context.Context, state *sessions.AuthState) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("[FileRepo.Save] marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o700); err != nil {
		return fmt.Errorf("[FileRepo.Save] mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".session-*")
	if err != nil {
		return fmt.Errorf("[FileRepo.Save] create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("[FileRepo.Save] write: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("[FileRepo.Save] chmod: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("[FileRepo.Save] close: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("[FileRepo.Save] rename: %w", err)
	}
	return nil
}

func (r *FileRepo) Clear(_ context.Context) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if err := os.Remove(r.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("[FileRepo.Clear] %w", err)
	}
	return nil
}
