package middleware

import (
	"net/http"

	"github.com/shashiranjanraj/pustak/pkg/response"
)

// RequireRole allows the request through only when the authenticated
// identity holds one of the given roles. Must run after Authenticate.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromCtx(r.Context())
			if !ok {
				response.Unauthorized(w)
				return
			}

			if _, ok := allowed[id.Role]; !ok {
				response.Forbidden(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
