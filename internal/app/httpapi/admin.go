package httpapi

import (
	"errors"
	"net/http"

	"github.com/wisp-cms/wisp/internal/app/domain/user"
	"github.com/wisp-cms/wisp/internal/app/httputil"
	"github.com/wisp-cms/wisp/internal/app/services/auth"
	"github.com/wisp-cms/wisp/internal/app/services/settings"
)

func adminRoles() []string {
	return []string{user.RoleAdmin, user.RoleOwner}
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := httputil.DecodeJSON(r.Body, &payload); err != nil {
		httputil.BadRequest(w, err)
		return
	}

	token, u, err := h.auth.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) || errors.Is(err, auth.ErrUserInactive) {
			httputil.Unauthorized(w, "invalid credentials")
			return
		}
		httputil.InternalError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"token": token,
		"user":  u,
	})
}

func (h *Handler) handleListSettings(w http.ResponseWriter, r *http.Request) {
	list, err := h.settings.List(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"settings": list})
}

func (h *Handler) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Settings []settings.Update `json:"settings"`
	}
	if err := httputil.DecodeJSON(r.Body, &payload); err != nil {
		httputil.BadRequest(w, err)
		return
	}
	if len(payload.Settings) == 0 {
		httputil.BadRequest(w, errors.New("settings are required"))
		return
	}

	applied, err := h.settings.Apply(r.Context(), payload.Settings)
	if err != nil {
		if errors.Is(err, settings.ErrUnknownSetting) {
			httputil.NotFound(w, err.Error())
			return
		}
		httputil.BadRequest(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"settings": applied})
}

func (h *Handler) handleLabs(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"labs":  h.labs.All(),
		"flags": h.labs.Flags(),
	})
}
