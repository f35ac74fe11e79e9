package refreshtokens

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	apperrors "github.com/jrsteele09/fnb-console/internal/errors"
	"github.com/pkg/errors"
)

const (
	defaultTokenLength = 32 // bytes
	defaultExpiry      = 7 * 24 * time.Hour
)

// Manager creates, validates and rotates refresh tokens.
type Manager struct {
	repo        Repo
	tokenLength int
	expiry      time.Duration
	nowFunc     func() time.Time
}

// ManagerOption defines a function type to modify the Manager instance.
type ManagerOption func(*Manager)

func WithTokenLength(length int) ManagerOption {
	return func(m *Manager) {
		if length > 0 {
			m.tokenLength = length
		}
	}
}

func WithExpiry(expiry time.Duration) ManagerOption {
	return func(m *Manager) {
		if expiry > 0 {
			m.expiry = expiry
		}
	}
}

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

// NewManager creates a new refresh token manager
func NewManager(repo Repo, options ...ManagerOption) *Manager {
	m := &Manager{
		repo:        repo,
		tokenLength: defaultTokenLength,
		expiry:      defaultExpiry,
		nowFunc:     time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// Expiry is how long a refresh token stays valid.
func (m *Manager) Expiry() time.Duration {
	return m.expiry
}

// Create generates a new refresh token for the user acting for clientUsername.
func (m *Manager) Create(userID int64, clientUsername string) (string, error) {
	tokenBytes := make([]byte, m.tokenLength)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", errors.Wrap(err, "[Manager.Create] failed to generate random bytes")
	}

	tokenStr := hex.EncodeToString(tokenBytes)
	if err := m.repo.Upsert(&StoredRefreshToken{
		Token:          tokenStr,
		UserID:         userID,
		ClientUsername: clientUsername,
		Iat:            m.nowFunc(),
	}); err != nil {
		return "", errors.Wrap(err, "[Manager.Create] failed to store refresh token")
	}
	return tokenStr, nil
}

// Validate returns the record of a live token. Expired tokens are deleted.
func (m *Manager) Validate(token string) (*StoredRefreshToken, error) {
	if token == "" {
		return nil, apperrors.ErrInvalidRefreshToken
	}
	rt, err := m.repo.Get(token)
	if err != nil {
		return nil, errors.Wrap(apperrors.ErrInvalidRefreshToken, err.Error())
	}
	if m.nowFunc().Sub(rt.Iat) > m.expiry {
		_ = m.repo.Delete(token)
		return nil, apperrors.ErrRefreshTokenExpired
	}
	return rt, nil
}

// Rotate replaces a live token with a new one for the same user and client.
func (m *Manager) Rotate(token string) (*StoredRefreshToken, string, error) {
	rt, err := m.Validate(token)
	if err != nil {
		return nil, "", err
	}
	if err := m.repo.Delete(token); err != nil {
		return nil, "", errors.Wrap(apperrors.ErrInvalidRefreshToken, err.Error())
	}
	next, err := m.Create(rt.UserID, rt.ClientUsername)
	if err != nil {
		return nil, "", err
	}
	return rt, next, nil
}

// Delete removes a refresh token from storage
func (m *Manager) Delete(token string) error {
	return m.repo.Delete(token)
}

// DeleteAll removes every refresh token of a user.
func (m *Manager) DeleteAll(userID int64) error {
	return m.repo.DeleteByUserID(userID)
}
