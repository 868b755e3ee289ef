package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/stumpedhq/clubpay/pkg/response"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// AdminKey is the context key marking an authenticated admin request
	AdminKey ContextKey = "admin"
)

// AdminKeyMiddleware guards the admin surface with a shared API key passed
// in X-Admin-Key. When no key is configured the check is disabled, which
// keeps local development friction-free.
func AdminKeyMiddleware(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				ctx := context.WithValue(r.Context(), AdminKey, true)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			provided := r.Header.Get("X-Admin-Key")
			if provided == "" {
				response.Unauthorized(w, "X-Admin-Key header required")
				return
			}
			if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
				response.Unauthorized(w, "Invalid admin key")
				return
			}

			ctx := context.WithValue(r.Context(), AdminKey, true)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IsAdmin reports whether the request passed admin authentication.
func IsAdmin(ctx context.Context) bool {
	ok, _ := ctx.Value(AdminKey).(bool)
	return ok
}
