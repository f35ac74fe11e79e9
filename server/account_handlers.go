package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/jrsteele09/fnb-console/internal/errors"
	"github.com/jrsteele09/fnb-console/oauthmodel"
	"github.com/jrsteele09/fnb-console/users"
)

const (
	detailBadCredentials   = "Unable to log in with provided credentials."
	detailUnknownClient    = "No access to the requested client account."
	detailRefreshMissing   = "Refresh token was not provided."
	detailRefreshInvalid   = "Refresh token is invalid or expired."
	detailInvalidBody      = "Invalid request body."
	detailLoggedOut        = "Successfully logged out."
	detailInternal         = "Internal server error."
	defaultTokenType       = "Bearer"
	maxAccountRequestBytes = 64 << 10
)

// LoginHandler checks a username and password and issues an access token and a
// refresh token. The refresh token is returned in the body and as an httpOnly cookie.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req oauthmodel.LoginRequest
		if err := decodeBody(r, &req); err != nil {
			writeDetail(w, http.StatusBadRequest, detailInvalidBody)
			return
		}

		user, err := s.users.GetByUsername(strings.TrimSpace(req.Username))
		if err != nil || user.Blocked || !user.CheckPassword(req.Password) {
			// Don't reveal if user exists or not
			s.metrics.observeAuth("login", false)
			writeDetail(w, http.StatusBadRequest, detailBadCredentials)
			return
		}

		client, ok := user.Client(strings.TrimSpace(req.ClientUsername))
		if !ok {
			s.metrics.observeAuth("login", false)
			writeDetail(w, http.StatusBadRequest, detailUnknownClient)
			return
		}

		tenant := user.Tenant(client)
		accessToken, err := s.tokens.CreateAccessToken(tenant)
		if err != nil {
			s.internalError(w, r, err)
			return
		}
		refreshToken, err := s.refresh.Create(user.ID, client.ClientUsername)
		if err != nil {
			s.internalError(w, r, err)
			return
		}
		if err := s.users.SetLastLogin(user.Username, s.nowTime()); err != nil {
			s.logger.Warn().Err(err).Str("username", user.Username).Msg("failed to record last login")
		}

		s.setRefreshCookie(w, r, refreshToken)
		s.metrics.observeAuth("login", true)
		s.logger.Info().Str("username", user.Username).Str("client", client.ClientUsername).Msg("login")

		writeJSON(w, http.StatusOK, oauthmodel.LoginResponse{
			TokenType:    defaultTokenType,
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			Permissions:  user.Permissions,
			Tenant:       tenant,
		})
	}
}

// RefreshHandler rotates a refresh token taken from the body or, failing that, the cookie.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req oauthmodel.RefreshRequest
		if err := decodeBody(r, &req); err != nil {
			writeDetail(w, http.StatusBadRequest, detailInvalidBody)
			return
		}
		presented := req.RefreshToken
		if presented == "" {
			if c, err := r.Cookie(RefreshCookieName); err == nil {
				presented = c.Value
			}
		}
		if presented == "" {
			s.metrics.observeAuth("refresh", false)
			writeDetail(w, http.StatusBadRequest, detailRefreshMissing)
			return
		}

		stored, next, err := s.refresh.Rotate(presented)
		if err != nil {
			s.metrics.observeAuth("refresh", false)
			writeDetail(w, http.StatusUnauthorized, detailRefreshInvalid)
			return
		}

		user, err := s.users.GetByID(stored.UserID)
		if err != nil || user.Blocked {
			_ = s.refresh.Delete(next)
			s.metrics.observeAuth("refresh", false)
			writeDetail(w, http.StatusUnauthorized, detailRefreshInvalid)
			return
		}
		client, ok := user.Client(stored.ClientUsername)
		if !ok {
			_ = s.refresh.Delete(next)
			s.metrics.observeAuth("refresh", false)
			writeDetail(w, http.StatusUnauthorized, detailUnknownClient)
			return
		}

		tenant := user.Tenant(client)
		accessToken, err := s.tokens.CreateAccessToken(tenant)
		if err != nil {
			s.internalError(w, r, err)
			return
		}

		s.setRefreshCookie(w, r, next)
		s.metrics.observeAuth("refresh", true)
		writeJSON(w, http.StatusOK, oauthmodel.RefreshResponse{
			AccessToken:  accessToken,
			RefreshToken: next,
			Permissions:  user.Permissions,
			Tenant:       tenant,
		})
	}
}

// LogoutHandler revokes the presented access token, deletes the refresh token and
// clears the cookie. It succeeds even when nothing valid was presented.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if scheme, raw, ok := strings.Cut(r.Header.Get("Authorization"), " "); ok && validScheme(scheme) {
			s.tokens.Revoke(strings.TrimSpace(raw))
		}

		var req oauthmodel.RefreshRequest
		_ = decodeBody(r, &req)
		for _, presented := range []string{req.RefreshToken, cookieValue(r, RefreshCookieName)} {
			if presented != "" {
				_ = s.refresh.Delete(presented)
			}
		}

		s.clearRefreshCookie(w, r)
		s.metrics.observeAuth("logout", true)
		writeDetail(w, http.StatusOK, detailLoggedOut)
	}
}

// MeHandler describes the authenticated principal.
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			writeDetail(w, http.StatusUnauthorized, oauthmodel.DetailCredentialsMissing)
			return
		}
		user, err := s.users.GetByID(claims.UserID())
		if err != nil {
			writeDetail(w, http.StatusNotFound, "Not found.")
			return
		}
		client, ok := user.Client(claims.ClientUsername)
		if !ok {
			writeDetail(w, http.StatusForbidden, detailUnknownClient)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Tenant      any                   `json:"tenant"`
			Permissions map[string]any        `json:"permissions"`
			Clients     []users.ClientAccount `json:"clients"`
		}{
			Tenant:      user.Tenant(client),
			Permissions: user.Permissions,
			Clients:     user.Clients,
		})
	}
}

func (s *Server) setRefreshCookie(w http.ResponseWriter, r *http.Request, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(s.refresh.Expiry().Seconds()),
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearRefreshCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error().
		Err(fmt.Errorf("%w: %w", apperrors.ErrInternal, err)).
		Str("path", r.URL.Path).
		Str("request_id", RequestID(r.Context())).
		Msg("request failed")
	writeDetail(w, http.StatusInternalServerError, detailInternal)
}

// decodeBody decodes a JSON body into v. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxAccountRequestBytes)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return apperrors.Wrapf(apperrors.ErrInvalidRequest, "%v", err)
	}
	return nil
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
