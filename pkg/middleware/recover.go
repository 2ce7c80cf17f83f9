package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/shashiranjanraj/pustak/pkg/logger"
	"github.com/shashiranjanraj/pustak/pkg/response"
)

// Recovery turns handler panics into a 500 response instead of killing
// the connection.
func Recovery() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.WithCtx(r.Context()).Error("panic recovered",
						"panic", rec,
						"stack", string(debug.Stack()),
					)
					response.Error(w, http.StatusInternalServerError, "Internal Server Error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
