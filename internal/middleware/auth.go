// Package middleware provides HTTP middleware for the wisp server.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/wisp-cms/wisp/internal/app/httputil"
	"github.com/wisp-cms/wisp/internal/app/services/auth"
	"github.com/wisp-cms/wisp/pkg/logger"
)

type claimsKey struct{}

// Auth validates the bearer token on every request and stores the session
// claims in the request context. Applied to the admin subrouter.
func Auth(svc *auth.Service, log *logger.Logger) mux.MiddlewareFunc {
	if log == nil {
		log = logger.NewDefault("auth")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				httputil.Unauthorized(w, "missing authorization header")
				return
			}
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				httputil.Unauthorized(w, "invalid authorization header")
				return
			}

			claims, err := svc.Verify(parts[1])
			if err != nil {
				log.WithContext(r.Context()).WithError(err).Warnf("token rejected")
				httputil.Unauthorized(w, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext returns the session claims stored by Auth, or nil.
func ClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey{}).(*auth.Claims)
	return claims
}

// RequireRole rejects authenticated requests whose role is not listed.
func RequireRole(roles ...string) mux.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				httputil.Unauthorized(w, "authentication required")
				return
			}
			if !allowed[claims.Role] {
				httputil.Forbidden(w, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
