package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/fnb-console/apiclient"
	apperrors "github.com/jrsteele09/fnb-console/internal/errors"
	"github.com/jrsteele09/fnb-console/oauthmodel"
	"github.com/jrsteele09/fnb-console/sessions"
	"github.com/jrsteele09/fnb-console/tenants"
	"github.com/jrsteele09/fnb-console/token/refresh"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// Credentials are what a user types on the login form.
type Credentials struct {
	Username       string
	Password       string
	ClientUsername string // Optional, selects the client account
}

// Paths are the account endpoints relative to the account service base URL.
type Paths struct {
	Login   string
	Refresh string
	Logout  string
}

// DefaultPaths are the account endpoints of the REST backend.
var DefaultPaths = Paths{
	Login:   "/login/",
	Refresh: "/refresh/",
	Logout:  "/logout/",
}

// ReLoginPrompt asks the user for credentials after the refresh token was rejected.
// Returning an error declines the re-login.
type ReLoginPrompt func(ctx context.Context) (*Credentials, error)

// Service owns the AuthState of a console session. It logs in and out, keeps the
// state mirrored in a sessions.Repo and renews the access token for API clients.
// A Service is safe for concurrent use.
type Service struct {
	client      *apiclient.Client // account service, without a Session attached
	repo        sessions.Repo
	paths       Paths
	logger      zerolog.Logger
	nowTime     func() time.Time
	reLogin     ReLoginPrompt
	reLoginOnce singleflight.Group
	coordinator *refresh.Coordinator

	lock        sync.RWMutex
	state       *sessions.AuthState
	version     uint64 // bumped on every replacement of state
	refreshedAt time.Time
}

var _ apiclient.Session = (*Service)(nil)

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithReLogin enables an interactive login when the refresh token itself is rejected.
func WithReLogin(prompt ReLoginPrompt) ServiceOption {
	return func(s *Service) {
		s.reLogin = prompt
	}
}

// WithPaths overrides the account endpoints.
func WithPaths(paths Paths) ServiceOption {
	return func(s *Service) {
		s.paths = paths
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// NewService returns a Service talking to the account endpoints through client.
// client must not have the Service itself attached as its Session.
func NewService(client *apiclient.Client, repo sessions.Repo, options ...ServiceOption) (*Service, error) {
	if client == nil {
		return nil, errors.New("[NewService] client is required")
	}
	if repo == nil {
		return nil, errors.New("[NewService] session repo is required")
	}

	s := &Service{
		client:  client,
		repo:    repo,
		paths:   DefaultPaths,
		logger:  log.Logger,
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	s.coordinator = refresh.NewCoordinator(s.refreshToken, s.AccessToken, refresh.WithLogger(s.logger))
	return s, nil
}

// Restore loads the state saved by a previous run. A missing or unreadable session
// leaves the Service logged out.
func (s *Service) Restore(ctx context.Context) error {
	state, err := s.repo.Load(ctx)
	switch {
	case apperrors.Is(err, apperrors.ErrSessionNotFound):
		return nil
	case apperrors.Is(err, apperrors.ErrSessionCorrupt):
		s.logger.Warn().Err(err).Msg("discarding unreadable session")
		return s.repo.Clear(ctx)
	case err != nil:
		return errors.Wrap(err, "[Service.Restore] failed to load session")
	}

	s.lock.Lock()
	s.setStateLocked(state)
	s.lock.Unlock()
	return nil
}

// Login exchanges credentials for a new AuthState. A rejection by the backend is
// reported as apperrors.ErrInvalidCredentials and is never retried.
func (s *Service) Login(ctx context.Context, creds Credentials) error {
	if strings.TrimSpace(creds.Username) == "" || creds.Password == "" {
		return ErrMissingCredentials
	}

	resp, err := s.client.Post(ctx, s.paths.Login, oauthmodel.LoginRequest{
		Username:       strings.TrimSpace(creds.Username),
		Password:       creds.Password,
		ClientUsername: strings.TrimSpace(creds.ClientUsername),
	})
	if err != nil {
		var apiErr *apiclient.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError {
			return errors.Wrap(fmt.Errorf("%w: %w", apperrors.ErrInvalidCredentials, apiErr), "[Service.Login]")
		}
		return errors.Wrap(err, "[Service.Login] login request failed")
	}

	var payload oauthmodel.LoginResponse
	if err := resp.Decode(&payload); err != nil {
		return errors.Wrap(err, "[Service.Login] invalid login response")
	}
	state, err := sessions.FromLogin(&payload)
	if err != nil {
		return errors.Wrap(err, "[Service.Login] invalid login response")
	}

	s.lock.Lock()
	s.setStateLocked(state)
	s.refreshedAt = s.nowTime()
	s.lock.Unlock()

	s.persist(ctx, state)
	s.logger.Info().
		Str("username", state.Tenant.GetUsername()).
		Str("client", state.Tenant.GetClientUsername()).
		Msg("logged in")
	return nil
}

// Refresh obtains a new access token, joining a refresh already in flight.
func (s *Service) Refresh(ctx context.Context) error {
	_, err := s.coordinator.Refresh(ctx)
	return err
}

// Renew returns a usable access token after the backend rejected the token rejected.
// When the refresh fails and a ReLoginPrompt is configured, the user is asked to log
// in again; concurrent callers share one prompt. Any other error, such as a cancelled
// ctx, is returned unchanged.
func (s *Service) Renew(ctx context.Context, rejected string) (string, error) {
	token, err := s.coordinator.Renew(ctx, rejected)
	if err == nil || s.reLogin == nil || !apperrors.Is(err, apperrors.ErrRefreshFailed) {
		return token, err
	}

	s.logger.Warn().Err(err).Msg("refresh rejected, asking for credentials")
	v, loginErr, _ := s.reLoginOnce.Do("relogin", func() (any, error) {
		if current := s.AccessToken(); current != "" && current != rejected {
			return current, nil
		}
		creds, err := s.reLogin(ctx)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrReLoginDeclined, err)
		}
		if creds == nil {
			return "", ErrReLoginDeclined
		}
		if err := s.Login(ctx, *creds); err != nil {
			return "", err
		}
		return s.AccessToken(), nil
	})
	if loginErr != nil {
		return "", loginErr
	}
	return v.(string), nil
}

// Bootstrap tries to obtain an access token from the refresh cookie alone, as done when
// the console starts. It never prompts.
func (s *Service) Bootstrap(ctx context.Context) bool {
	if _, err := s.coordinator.Refresh(ctx); err != nil {
		s.logger.Debug().Err(err).Msg("no session to resume")
		return false
	}
	return true
}

// Logout tells the backend to revoke the refresh token and clears the local state.
// The local state is cleared even when the backend call fails.
func (s *Service) Logout(ctx context.Context) error {
	state := s.State()
	if state != nil {
		req, err := apiclient.NewJSONRequest(http.MethodPost, s.paths.Logout,
			oauthmodel.RefreshRequest{RefreshToken: state.RefreshToken})
		if err == nil {
			_, err = s.client.Do(ctx, req.WithToken(state.AccessToken))
		}
		if err != nil {
			s.logger.Warn().Err(err).Msg("logout request failed, clearing session locally")
		}
	}
	return s.LogoutLocal(ctx)
}

// LogoutLocal clears the state in memory and in the repo without calling the backend.
func (s *Service) LogoutLocal(ctx context.Context) error {
	s.lock.Lock()
	s.setStateLocked(nil)
	s.refreshedAt = time.Time{}
	s.lock.Unlock()

	if err := s.repo.Clear(ctx); err != nil {
		return errors.Wrap(err, "[Service.LogoutLocal] failed to clear session")
	}
	return nil
}

// IsAuthenticated reports whether an access token is held.
func (s *Service) IsAuthenticated() bool {
	return s.AccessToken() != ""
}

// AccessToken returns the current access token or "".
func (s *Service) AccessToken() string {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.state == nil {
		return ""
	}
	return s.state.AccessToken
}

// Tenant returns a copy of the tenant of the session, or nil when logged out.
func (s *Service) Tenant() *tenants.Tenant {
	state := s.State()
	if state == nil {
		return nil
	}
	return state.Tenant
}

// Permissions returns a copy of the permission map, or nil when logged out.
func (s *Service) Permissions() map[string]any {
	state := s.State()
	if state == nil {
		return nil
	}
	return state.Permissions
}

// State returns a copy of the AuthState, or nil when logged out.
func (s *Service) State() *sessions.AuthState {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.state.Clone()
}

// RefreshedAt is when the access token was last obtained by this process.
func (s *Service) RefreshedAt() time.Time {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.refreshedAt
}

// Token implements oauth2.TokenSource. Expiry is read from the access token claims
// when it is a JWT.
func (s *Service) Token() (*oauth2.Token, error) {
	state := s.State()
	if !state.HasAccessToken() {
		return nil, apperrors.ErrNotAuthenticated
	}
	return &oauth2.Token{
		AccessToken:  state.AccessToken,
		TokenType:    state.TokenType,
		RefreshToken: state.RefreshToken,
		Expiry:       tokenExpiry(state.AccessToken),
	}, nil
}

// TokenSource exposes the session to libraries built on golang.org/x/oauth2.
func (s *Service) TokenSource() oauth2.TokenSource {
	return s
}

// ExpiresIn returns how long the access token stays valid, when that is known.
func (s *Service) ExpiresIn() (time.Duration, bool) {
	expiry := tokenExpiry(s.AccessToken())
	if expiry.IsZero() {
		return 0, false
	}
	return expiry.Sub(s.nowTime()), true
}

// refreshToken is the single refresh call run by the coordinator. A state replaced while
// the call was out (login, logout, restore) wins over the refresh result.
func (s *Service) refreshToken(ctx context.Context) (string, error) {
	s.lock.RLock()
	prev, version := s.state.Clone(), s.version
	s.lock.RUnlock()

	body := oauthmodel.RefreshRequest{}
	if prev != nil {
		body.RefreshToken = prev.RefreshToken
	}
	resp, err := s.client.Post(ctx, s.paths.Refresh, body)
	if err != nil {
		return "", errors.Wrap(err, "[Service.refreshToken] refresh request failed")
	}

	var payload oauthmodel.RefreshResponse
	if err := resp.Decode(&payload); err != nil {
		return "", errors.Wrap(err, "[Service.refreshToken] invalid refresh response")
	}
	next, err := sessions.ApplyRefresh(prev, &payload)
	if err != nil {
		return "", errors.Wrap(err, "[Service.refreshToken] invalid refresh response")
	}

	s.lock.Lock()
	if s.version != version {
		current := s.state
		s.lock.Unlock()
		if current == nil {
			return "", errors.Wrap(apperrors.ErrNotAuthenticated, "[Service.refreshToken] logged out during refresh")
		}
		s.logger.Debug().Msg("session replaced during refresh, discarding refresh result")
		return current.AccessToken, nil
	}
	s.setStateLocked(next)
	s.refreshedAt = s.nowTime()
	s.lock.Unlock()

	s.persist(ctx, next)
	return next.AccessToken, nil
}

func (s *Service) setStateLocked(state *sessions.AuthState) {
	s.state = state
	s.version++
}

func (s *Service) persist(ctx context.Context, state *sessions.AuthState) {
	if err := s.repo.Save(ctx, state); err != nil {
		s.logger.Warn().Err(err).Msg("failed to save session")
	}
}

func tokenExpiry(accessToken string) time.Time {
	if accessToken == "" {
		return time.Time{}
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
