package labs

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wisp-cms/wisp/internal/app/httputil"
)

// EnabledMiddleware hides the wrapped routes while the flag is off,
// answering 404 as if they were never registered.
func (s *Service) EnabledMiddleware(flag string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !s.IsEnabled(flag) {
				httputil.NotFound(w, "resource not found")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
