package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/wisp-cms/wisp/internal/app/httputil"
)

func (h *Handler) handleListPosts(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			httputil.BadRequest(w, errors.New("limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	list, err := h.posts.Published(r.Context(), limit)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"posts": list})
}

func (h *Handler) handleCollections(w http.ResponseWriter, r *http.Request) {
	cols, err := h.posts.Collections(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"collections": cols})
}
