package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/gorilla/mux"

	"github.com/wisp-cms/wisp/internal/app/httputil"
	"github.com/wisp-cms/wisp/pkg/logger"
)

// Recover turns handler panics into 500 responses instead of dropped
// connections.
func Recover(log *logger.Logger) mux.MiddlewareFunc {
	if log == nil {
		log = logger.NewDefault("http")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.WithContext(r.Context()).WithField("stack", string(debug.Stack())).
						Errorf("panic serving %s %s: %v", r.Method, r.URL.Path, rec)
					httputil.InternalError(w, errors.New("internal server error"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
