package token

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/fnb-console/internal/errors"
	"github.com/jrsteele09/fnb-console/tenants"
	"github.com/pkg/errors"
)

const (
	defaultAccessTokenExpiry = 5 * time.Minute
	defaultIssuer            = "fnb-devbackend"
	revocationListSize       = 10_000
)

// AccessClaims are the claims of an access token.
type AccessClaims struct {
	jwt.RegisteredClaims
	ClientID       int64  `json:"client_id"`
	ClientUsername string `json:"client_username"`
	Username       string `json:"username"`
}

// UserID returns the subject as a user id.
func (c *AccessClaims) UserID() int64 {
	id, _ := strconv.ParseInt(c.Subject, 10, 64)
	return id
}

// Manager issues and verifies the access tokens of the development backend.
type Manager struct {
	signer            Signer
	accessTokenExpiry time.Duration
	issuer            string
	revoked           RevocationList
	nowFunc           func() time.Time
}

// ManagerOption defines a function type to modify the Manager instance.
type ManagerOption func(*Manager)

func WithTokenExpiry(accessTokenExpiry time.Duration) ManagerOption {
	return func(m *Manager) {
		m.accessTokenExpiry = accessTokenExpiry
	}
}

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func WithIssuer(issuer string) ManagerOption {
	return func(m *Manager) {
		m.issuer = issuer
	}
}

func WithRevocationList(list RevocationList) ManagerOption {
	return func(m *Manager) {
		m.revoked = list
	}
}

func New(signer Signer, options ...ManagerOption) *Manager {
	m := &Manager{
		signer:            signer,
		accessTokenExpiry: defaultAccessTokenExpiry,
		issuer:            defaultIssuer,
		nowFunc:           time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	if m.revoked == nil {
		m.revoked = NewInMemoryRevocationList(revocationListSize, m.accessTokenExpiry)
	}
	return m
}

// CreateAccessToken signs a token for the principal described by tenant.
func (m *Manager) CreateAccessToken(tenant *tenants.Tenant) (string, error) {
	if tenant == nil {
		return "", errors.Wrap(apperrors.ErrMissingTenant, "[Manager.CreateAccessToken]")
	}
	now := m.nowFunc()
	claims := &AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   strconv.FormatInt(tenant.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTokenExpiry)),
			ID:        uuid.NewString(),
		},
		ClientID:       tenant.ClientID,
		ClientUsername: tenant.ClientUsername,
		Username:       tenant.Username,
	}
	signed, err := m.signer.Sign(claims)
	if err != nil {
		return "", errors.Wrap(err, "[Manager.CreateAccessToken]")
	}
	return signed, nil
}

// Verify checks the signature, expiry and revocation of raw. An expired token is
// reported as apperrors.ErrTokenExpired, anything else as apperrors.ErrInvalidToken.
func (m *Manager) Verify(raw string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, m.signer.Keyfunc,
		jwt.WithValidMethods([]string{m.signer.SigningMethod().Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithTimeFunc(m.nowFunc),
		jwt.WithExpirationRequired(),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, apperrors.ErrTokenExpired
	case err != nil:
		return nil, apperrors.Wrapf(apperrors.ErrInvalidToken, "%v", err)
	case m.revoked.IsRevoked(claims.ID):
		return nil, apperrors.Wrapf(apperrors.ErrInvalidToken, "revoked")
	}
	return claims, nil
}

// Revoke invalidates raw before it expires. Tokens that do not verify are ignored.
func (m *Manager) Revoke(raw string) {
	claims, err := m.Verify(raw)
	if err != nil {
		return
	}
	m.revoked.Revoke(claims.ID)
}
