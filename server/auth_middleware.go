package server

import (
	"context"
	"net/http"
	"strings"

	apperrors "github.com/jrsteele09/fnb-console/internal/errors"
	"github.com/jrsteele09/fnb-console/oauthmodel"
	"github.com/jrsteele09/fnb-console/token"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyClaims stores the verified access token claims
	ContextKeyClaims ContextKey = "claims"
)

// ClaimsFromContext returns the claims RequireAuth attached to the request.
func ClaimsFromContext(ctx context.Context) (*token.AccessClaims, bool) {
	claims, ok := ctx.Value(ContextKeyClaims).(*token.AccessClaims)
	return claims, ok
}

// RequireAuth is middleware that validates the access token in the Authorization header.
// Both "Bearer" and "Token" schemes are accepted. Rejections carry one of the details the
// console treats as recoverable by a refresh.
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeDetail(w, http.StatusUnauthorized, oauthmodel.DetailCredentialsMissing)
				return
			}

			scheme, raw, ok := strings.Cut(authHeader, " ")
			if !ok || raw == "" || !validScheme(scheme) {
				writeDetail(w, http.StatusUnauthorized, oauthmodel.DetailInvalidOrExpired)
				return
			}

			claims, err := s.tokens.Verify(strings.TrimSpace(raw))
			switch {
			case apperrors.Is(err, apperrors.ErrTokenExpired):
				writeDetail(w, http.StatusUnauthorized, oauthmodel.DetailTokenExpired)
				return
			case err != nil:
				s.logger.Debug().Err(err).Str("request_id", RequestID(r.Context())).Msg("access token rejected")
				writeDetail(w, http.StatusUnauthorized, oauthmodel.DetailInvalidOrExpired)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyClaims, claims)
			next(w, r.WithContext(ctx))
		}
	}
}

func validScheme(scheme string) bool {
	return strings.EqualFold(scheme, "bearer") || strings.EqualFold(scheme, "token")
}
