package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/shashiranjanraj/pustak/pkg/auth"
	"github.com/shashiranjanraj/pustak/pkg/logger"
	"github.com/shashiranjanraj/pustak/pkg/response"
)

// Identity is the authenticated caller attached to the request context.
type Identity struct {
	UserID string
	Role   string
}

// RoleResolver looks up the caller's current role. Tokens carry the role
// they were minted with, but demotions and promotions must take effect
// before the token expires, so the role is re-resolved on every request.
type RoleResolver interface {
	RoleOf(ctx context.Context, userID string) (string, error)
}

type identityKey struct{}

// IdentityFromCtx extracts the authenticated identity from ctx.
func IdentityFromCtx(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// WithIdentity stores an identity in ctx. Exported for handler tests.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// Authenticate verifies the bearer token and attaches the caller's
// identity to the request context. The role comes from the resolver,
// not the token claims; a nil resolver falls back to the claim.
func Authenticate(resolver RoleResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				response.Unauthorized(w)
				return
			}

			claims, err := auth.ValidateToken(token)
			if err != nil {
				response.Unauthorized(w)
				return
			}

			role := claims.Role
			if resolver != nil {
				current, err := resolver.RoleOf(r.Context(), claims.UserID)
				if err != nil {
					logger.WithCtx(r.Context()).Warn("role lookup failed", "user_id", claims.UserID, "error", err)
					response.Unauthorized(w)
					return
				}
				role = current
			}

			ctx := WithIdentity(r.Context(), Identity{UserID: claims.UserID, Role: role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		// browsers cannot set headers on WebSocket upgrades
		return r.URL.Query().Get("token")
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
