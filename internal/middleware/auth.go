package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"gamehub-api/internal/model"
	"gamehub-api/internal/service"
	"gamehub-api/pkg/apierror"
	"gamehub-api/pkg/response"
)

// UserKey is the context key for the authenticated user.
const UserKey contextKey = "user"

// TokenKey is the context key for the raw session token (needed by logout).
const TokenKey contextKey = "token"

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	UserService *service.UserService
}

// NewAuthenticator creates a middleware that resolves the bearer session
// token, when present, to its account and stores it in the request
// context. The account is loaded fresh on every request so role and
// active-flag changes apply immediately. Requests without a token pass
// through anonymously; route guards decide whether that is acceptable.
func NewAuthenticator(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := cfg.UserService.Authenticate(r.Context(), token)
			if err != nil {
				response.Error(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), UserKey, user)
			ctx = context.WithValue(ctx, TokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects anonymous requests.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUser(r.Context()) == nil {
			response.Error(w, apierror.Unauthorized("authentication required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetUser retrieves the authenticated user from context, nil when
// anonymous.
func GetUser(ctx context.Context) *model.User {
	if u, ok := ctx.Value(UserKey).(*model.User); ok {
		return u
	}
	return nil
}

// GetToken retrieves the raw session token from context.
func GetToken(ctx context.Context) string {
	if t, ok := ctx.Value(TokenKey).(string); ok {
		return t
	}
	return ""
}

// extractToken reads the session token from the Authorization header or
// the X-Token header.
func extractToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return r.Header.Get("X-Token")
}

// ClientIP extracts the originating address: the first X-Forwarded-For
// entry when present, the peer address otherwise.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
