// Package httpapi exposes the admin API, the content API, and the site.
package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wisp-cms/wisp/internal/app/httputil"
	"github.com/wisp-cms/wisp/internal/app/metrics"
	"github.com/wisp-cms/wisp/internal/app/services/auth"
	"github.com/wisp-cms/wisp/internal/app/services/labs"
	"github.com/wisp-cms/wisp/internal/app/services/posts"
	"github.com/wisp-cms/wisp/internal/app/services/settings"
	"github.com/wisp-cms/wisp/internal/app/theme"
	"github.com/wisp-cms/wisp/internal/config"
	"github.com/wisp-cms/wisp/internal/middleware"
	"github.com/wisp-cms/wisp/pkg/logger"
)

// Deps collects everything the handler serves from.
type Deps struct {
	Config    *config.Config
	Log       *logger.Logger
	Settings  *settings.Service
	Labs      *labs.Service
	Auth      *auth.Service
	Posts     *posts.Service
	Theme     *theme.Engine // nil disables site routes
	Redirects []Redirect
}

// Handler bundles the HTTP endpoints.
type Handler struct {
	cfg       *config.Config
	log       *logger.Logger
	settings  *settings.Service
	labs      *labs.Service
	auth      *auth.Service
	posts     *posts.Service
	theme     *theme.Engine
	redirects []Redirect
}

// New constructs the handler.
func New(deps Deps) *Handler {
	log := deps.Log
	if log == nil {
		log = logger.NewDefault("httpapi")
	}
	return &Handler{
		cfg:       deps.Config,
		log:       log,
		settings:  deps.Settings,
		labs:      deps.Labs,
		auth:      deps.Auth,
		posts:     deps.Posts,
		theme:     deps.Theme,
		redirects: deps.Redirects,
	}
}

// Router assembles the route set with the middleware chain.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Recover(h.log))
	r.Use(middleware.Logging(h.log))
	if h.cfg.RateLimit.Enabled {
		rl := middleware.NewRateLimiter(h.cfg.RateLimit.RPS, h.cfg.RateLimit.Burst, h.log)
		r.Use(rl.Handler)
	}
	r.Use(middleware.CORS([]string{"*"}))

	r.HandleFunc("/healthz", h.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/wisp/api").Subrouter()
	api.HandleFunc("/admin/session", h.handleLogin).Methods(http.MethodPost)

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.Auth(h.auth, h.log))
	admin.HandleFunc("/settings", h.handleListSettings).Methods(http.MethodGet)
	admin.Handle("/settings",
		middleware.RequireRole(adminRoles()...)(http.HandlerFunc(h.handleUpdateSettings)),
	).Methods(http.MethodPut)
	admin.HandleFunc("/labs", h.handleLabs).Methods(http.MethodGet)

	content := api.PathPrefix("/content").Subrouter()
	content.HandleFunc("/posts", h.handleListPosts).Methods(http.MethodGet)
	content.Handle("/collections",
		h.labs.EnabledMiddleware("collections")(http.HandlerFunc(h.handleCollections)),
	).Methods(http.MethodGet)

	if h.theme != nil {
		h.registerSite(r)
	}
	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "env": h.cfg.Env})
}
