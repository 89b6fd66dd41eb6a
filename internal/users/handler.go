package users

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/authboard/authboard/internal/platform/httpx"
	"github.com/authboard/authboard/internal/shared"
)

// Handler wires user management endpoints. Self-service routes sit under
// /profile and /account; the rest are mounted behind the admin gate.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountSelfRoutes registers routes available to any signed-in user.
func (h *Handler) MountSelfRoutes(r chi.Router) {
	r.Get("/profile", h.getProfile)
	r.Patch("/profile", h.updateProfile)
	r.Delete("/account", h.deleteAccount)
}

// MountAdminRoutes registers the admin-gated user management routes.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/stats", h.stats)
	r.Get("/{id}", h.get)
	r.Post("/{id}/role", h.setRole)
	r.Post("/{id}/ban", h.ban)
	r.Post("/{id}/unban", h.unban)
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	user := shared.UserFromContext(r.Context())
	full, err := h.service.Get(r.Context(), user.ID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"user": full})
}

type profileUpdateRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=2"`
	Image *string `json:"image" validate:"omitempty,url"`
	Phone *string `json:"phone" validate:"omitempty,e164"`
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	user := shared.UserFromContext(r.Context())
	var req profileUpdateRequest
	if !h.decode(w, r, &req) {
		return
	}
	updated, err := h.service.UpdateProfile(r.Context(), user.ID, ProfileUpdate{
		Name:  req.Name,
		Image: req.Image,
		Phone: req.Phone,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"user": updated})
}

func (h *Handler) deleteAccount(w http.ResponseWriter, r *http.Request) {
	user := shared.UserFromContext(r.Context())
	if err := h.service.DeleteAccount(r.Context(), user.ID); err != nil {
		h.logger.Error("delete account", slog.String("user_id", user.ID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("perPage"))
	users, pagination, err := h.service.List(r.Context(), page, perPage)
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"users": users,
		"pagination": map[string]any{
			"page":       pagination.Page,
			"perPage":    pagination.PerPage,
			"total":      pagination.Total,
			"totalPages": pagination.TotalPages,
		},
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"user": user})
}

type setRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin moderator"`
}

func (h *Handler) setRole(w http.ResponseWriter, r *http.Request) {
	actor := shared.UserFromContext(r.Context())
	var req setRoleRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.service.SetRole(r.Context(), actor.ID, chi.URLParam(r, "id"), req.Role); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true})
}

type banRequest struct {
	Reason  string     `json:"reason" validate:"required"`
	Expires *time.Time `json:"expires"`
}

func (h *Handler) ban(w http.ResponseWriter, r *http.Request) {
	actor := shared.UserFromContext(r.Context())
	var req banRequest
	if !h.decode(w, r, &req) {
		return
	}
	err := h.service.BanUser(r.Context(), actor.ID, chi.URLParam(r, "id"), Ban{
		Reason:  req.Reason,
		Expires: req.Expires,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) unban(w http.ResponseWriter, r *http.Request) {
	if err := h.service.UnbanUser(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return false
	}
	if err := h.validator.Struct(target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return false
	}
	return true
}
