package fakesessionrepo

import (
	"context"
	"sync"

	apperrors "github.com/jrsteele09/fnb-console/internal/errors"
	"github.com/jrsteele09/fnb-console/sessions"
)

var _ sessions.Repo = (*FakeSessionRepo)(nil)

type FakeSessionRepo struct {
	state *sessions.AuthState
	saves int
	lock  sync.RWMutex
}

func NewFakeSessionRepo() *FakeSessionRepo {
	return &FakeSessionRepo{}
}

func (sr *FakeSessionRepo) Load(_ context.Context) (*sessions.AuthState, error) {
	sr.lock.RLock()
	defer sr.lock.RUnlock()
	if sr.state == nil {
		return nil, apperrors.ErrSessionNotFound
	}
	return sr.state.Clone(), nil
}

func (sr *FakeSessionRepo) Save(_ context.Context, state *sessions.AuthState) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()
	sr.state = state.Clone()
	sr.saves++
	return nil
}

func (sr *FakeSessionRepo) Clear(_ context.Context) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()
	sr.state = nil
	return nil
}

// Saves returns how many times Save has been called.
func (sr *FakeSessionRepo) Saves() int {
	sr.lock.RLock()
	defer sr.lock.RUnlock()
	return sr.saves
}
