package httpapi

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wisp-cms/wisp/internal/app/httputil"
	"github.com/wisp-cms/wisp/internal/app/storage"
	"github.com/wisp-cms/wisp/internal/app/theme"
)

// registerSite adds the redirect table and the theme-rendered routes. They
// are registered last so API paths keep precedence over the slug catch-all.
func (h *Handler) registerSite(r *mux.Router) {
	for _, redirect := range h.redirects {
		status := http.StatusFound
		if redirect.Permanent {
			status = http.StatusMovedPermanently
		}
		r.Handle(redirect.From, http.RedirectHandler(redirect.To, status)).Methods(http.MethodGet)
	}

	r.HandleFunc("/", h.handleSiteIndex).Methods(http.MethodGet)
	r.HandleFunc("/{slug}", h.handleSitePost).Methods(http.MethodGet)
}

func (h *Handler) site() theme.Site {
	cache := h.settings.Cache()
	return theme.Site{
		Title:       cache.GetString("title"),
		Description: cache.GetString("description"),
	}
}

func (h *Handler) handleSiteIndex(w http.ResponseWriter, r *http.Request) {
	list, err := h.posts.Published(r.Context(), 0)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	h.renderPage(w, r, "index", theme.RenderContext{
		Site:  h.site(),
		Posts: list,
		Labs:  h.labs.All(),
	})
}

func (h *Handler) handleSitePost(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]
	p, err := h.posts.BySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		httputil.InternalError(w, err)
		return
	}

	h.renderPage(w, r, "post", theme.RenderContext{
		Site: h.site(),
		Post: &p,
		Labs: h.labs.All(),
	})
}

// renderPage executes the template into a buffer first so a failed render
// becomes a clean 500 instead of a torn response.
func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, name string, data theme.RenderContext) {
	var buf bytes.Buffer
	if err := h.theme.Render(&buf, name, data); err != nil {
		h.log.WithContext(r.Context()).WithError(err).Errorf("failed to render %s", name)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
