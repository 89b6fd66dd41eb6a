package admin

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/authboard/authboard/internal/platform/httpx"
	"github.com/authboard/authboard/internal/registry"
	"github.com/authboard/authboard/internal/shared"
)

// Handler exposes the dispatcher as a JSON API. Routes are mounted behind
// the admin-role gate, so a missing caller identity is a programming error
// upstream, not a user condition.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

// MountRoutes registers admin routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/config", h.getConfig)
	r.Get("/data", h.getData)
	r.Post("/crud", h.handleCRUD)
}

type adminIdentity struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type configResponse struct {
	Admin    adminIdentity         `json:"admin"`
	Entities []registry.Descriptor `json:"entities"`
}

func (h *Handler) getConfig(w http.ResponseWriter, r *http.Request) {
	user := shared.UserFromContext(r.Context())
	if user == nil {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	httpx.JSON(w, http.StatusOK, configResponse{
		Admin:    adminIdentity{Name: user.Name, Email: user.Email, Role: user.Role},
		Entities: h.service.Registry().List(),
	})
}

func (h *Handler) getData(w http.ResponseWriter, r *http.Request) {
	entity := r.URL.Query().Get("entity")
	if entity == "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "entity query parameter required")
		return
	}
	result, err := h.service.Execute(r.Context(), entity, ActionFind, nil)
	if err != nil {
		h.logger.Error("admin find", slog.String("entity", entity), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

type crudRequest struct {
	Entity string         `json:"entity" validate:"required"`
	Action string         `json:"action" validate:"required,oneof=create update delete find"`
	Data   map[string]any `json:"data"`
}

func (h *Handler) handleCRUD(w http.ResponseWriter, r *http.Request) {
	var req crudRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		// An out-of-range action is part of the dispatcher taxonomy rather
		// than a plain validation failure.
		if req.Entity != "" && req.Action != "" {
			httpx.RespondError(w, shared.ErrUnsupportedAction)
			return
		}
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "entity and action required")
		return
	}

	action, err := ParseAction(req.Action)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	result, err := h.service.Execute(r.Context(), req.Entity, action, Record(req.Data))
	if err != nil {
		h.logger.Error("admin crud",
			slog.String("entity", req.Entity),
			slog.String("action", req.Action),
			slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}
