package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jchevalier/auth-api/internal/httputil"
)

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const (
	UserIDContextKey       ContextKey = "user_id"
	UserEmailContextKey    ContextKey = "user_email"
	RefreshTokenContextKey ContextKey = "refresh_token"
)

// Middleware guards protected routes with the issuer's verifiers.
type Middleware struct {
	issuer *TokenIssuer
}

func NewMiddleware(issuer *TokenIssuer) *Middleware {
	return &Middleware{issuer: issuer}
}

// RequireAuth validates a bearer access token and puts the user identity
// into the request context.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(w, r)
		if !ok {
			return
		}

		claims, err := m.issuer.VerifyAccess(token)
		if err != nil {
			respondTokenError(w, err)
			return
		}

		userID, err := claims.UserID()
		if err != nil {
			httputil.RespondErrorWithCode(w, "invalid user ID in token", httputil.CodeInvalidTokenUserID, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDContextKey, userID)
		ctx = context.WithValue(ctx, UserEmailContextKey, claims.Email)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRefresh validates a bearer refresh token. It pre-authenticates the
// user ID from the token's claims and hands the RAW token onward so the
// service can compare it against the stored hash.
func (m *Middleware) RequireRefresh(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(w, r)
		if !ok {
			return
		}

		claims, err := m.issuer.VerifyRefresh(token)
		if err != nil {
			// Invalid and expired collapse to one 403; the response must
			// not reveal which check failed.
			httputil.RespondErrorWithCode(w, "invalid or expired refresh token", httputil.CodeInvalidCredentials, http.StatusForbidden)
			return
		}

		userID, err := claims.UserID()
		if err != nil {
			httputil.RespondErrorWithCode(w, "invalid or expired refresh token", httputil.CodeInvalidCredentials, http.StatusForbidden)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDContextKey, userID)
		ctx = context.WithValue(ctx, RefreshTokenContextKey, token)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return "", false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		httputil.RespondErrorWithCode(w, "invalid authorization header format", httputil.CodeInvalidAuthHeader, http.StatusUnauthorized)
		return "", false
	}

	return strings.TrimSpace(parts[1]), true
}

func respondTokenError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrExpiredToken) {
		httputil.RespondErrorWithCode(w, "token has expired", httputil.CodeTokenExpired, http.StatusUnauthorized)
		return
	}
	httputil.RespondErrorWithCode(w, "invalid token", httputil.CodeInvalidToken, http.StatusUnauthorized)
}

// GetUserIDFromContext extracts the user ID from the request context
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDContextKey).(uuid.UUID)
	return userID, ok
}

// GetUserEmailFromContext extracts the user email from the request context
func GetUserEmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(UserEmailContextKey).(string)
	return email, ok
}

// GetRefreshTokenFromContext extracts the raw refresh token set by RequireRefresh
func GetRefreshTokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(RefreshTokenContextKey).(string)
	return token, ok
}
