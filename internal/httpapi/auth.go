package httpapi

import (
	"net/http"

	"azbeauty-be/internal/apperror"
	"azbeauty-be/internal/auth"
	"azbeauty-be/internal/respond"
	"azbeauty-be/internal/user"
	"azbeauty-be/internal/validation"
)

type AuthHandler struct {
	Users user.Service
}

func NewAuthHandler(users user.Service) *AuthHandler {
	return &AuthHandler{Users: users}
}

// Me is GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if auth.PrincipalFrom(ctx) == nil {
		respond.Error(ctx, w, apperror.Unauthorized("Unauthorized"))
		return
	}

	profile, err := h.Users.Me(ctx)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	if profile == nil {
		respond.Error(ctx, w, apperror.NotFound("Profile not found"))
		return
	}
	respond.JSON(w, http.StatusOK, profile)
}

// UpsertProfile is POST /api/auth/upsert-profile.
func (h *AuthHandler) UpsertProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if auth.PrincipalFrom(ctx) == nil {
		respond.Error(ctx, w, apperror.Unauthorized("Unauthorized"))
		return
	}

	var input user.UpsertProfileInput
	if err := validation.DecodeJSONBody(r, &input); err != nil {
		respond.Error(ctx, w, err)
		return
	}

	_, created, err := h.Users.UpsertIfMissing(ctx, input)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"ok": true, "created": created})
}

// BootstrapOwner is POST /api/auth/bootstrap-owner.
func (h *AuthHandler) BootstrapOwner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.Users.BootstrapOwner(ctx); err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"ok": true, "role": auth.RoleOwner})
}
