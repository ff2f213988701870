// Package api implements the Alma REST API using chi.
package api

import (
	"context"
	"net/http"
	"strings"
)

type ctxKey int

const userKey ctxKey = iota

// AuthConfig controls the Bearer-token check.
type AuthConfig struct {
	Enabled bool
	Token   string
	// User is recorded as the owner of notes created through the API.
	User string
}

// AuthMiddleware returns middleware that validates a Bearer token and
// stores the configured user in the request context. When auth is
// disabled every request passes through as that user.
func AuthMiddleware(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Enabled {
				auth := r.Header.Get("Authorization")
				if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != cfg.Token {
					writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
					return
				}
			}
			ctx := context.WithValue(r.Context(), userKey, cfg.User)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the authenticated user, or "" when none.
func UserFromContext(ctx context.Context) string {
	u, _ := ctx.Value(userKey).(string)
	return u
}
