// Package panel is the server-rendered admin shell: entity tables with
// pagination and bulk delete-with-undo, generic create/edit forms, and the
// login screen gating it all.
package panel

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/authboard/authboard/internal/admin"
	"github.com/authboard/authboard/internal/auth"
	"github.com/authboard/authboard/internal/registry"
	"github.com/authboard/authboard/internal/shared"
	"github.com/authboard/authboard/internal/view"
)

// Handler serves the HTML admin panel.
type Handler struct {
	logger   *slog.Logger
	registry *registry.Registry
	dispatch Dispatcher
	auth     *auth.Service
	sessions *shared.SessionManager
	csrf     *shared.CSRFManager
	views    *view.Engine
	pending  *PendingDeletes
}

// NewHandler constructs the panel handler.
func NewHandler(
	logger *slog.Logger,
	reg *registry.Registry,
	dispatch Dispatcher,
	authService *auth.Service,
	sessions *shared.SessionManager,
	csrf *shared.CSRFManager,
	views *view.Engine,
	pending *PendingDeletes,
) *Handler {
	return &Handler{
		logger:   logger,
		registry: reg,
		dispatch: dispatch,
		auth:     authService,
		sessions: sessions,
		csrf:     csrf,
		views:    views,
		pending:  pending,
	}
}

// MountRoutes registers the panel routes, mounted under /admin.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.loginForm)
	r.Post("/login", h.login)
	r.Post("/logout", h.logout)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAdmin)
		r.Get("/", h.home)
		r.Route("/{entity}", func(r chi.Router) {
			r.Get("/", h.table)
			r.Get("/new", h.createForm)
			r.Post("/new", h.create)
			r.Get("/{id}/edit", h.editForm)
			r.Post("/{id}/edit", h.update)
			r.Post("/delete", h.scheduleDelete)
			r.Post("/undo", h.undoDelete)
		})
	})
}

// requireAdmin redirects anonymous or non-admin visitors to the login page.
// The JSON API uses problem responses instead; HTML navigation wants a
// redirect.
func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := shared.UserFromContext(r.Context())
		if user == nil || user.Role != auth.RoleAdmin {
			http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) loginForm(w http.ResponseWriter, r *http.Request) {
	if user := shared.UserFromContext(r.Context()); user != nil && user.Role == auth.RoleAdmin {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	h.render(w, r, "login", "Sign in", nil)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.flashError(r.Context(), "Invalid form submission")
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
		return
	}
	email := r.PostFormValue("email")
	password := r.PostFormValue("password")

	user, err := h.auth.Authenticate(r.Context(), email, password)
	if err != nil {
		h.flashError(r.Context(), shared.UserSafeMessage(err))
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
		return
	}
	if user.Role != auth.RoleAdmin {
		h.flashError(r.Context(), "Admin access required")
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
		return
	}

	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during panel login")
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
		return
	}
	if err := h.sessions.Rotate(r.Context(), sess); err != nil {
		h.logger.Warn("rotate session", slog.Any("error", err))
	}
	sess.SetUser(user.ID)
	expiresAt := time.Now().Add(h.sessions.TTL())
	if err := h.auth.IssueSession(r.Context(), sess.ID, user.ID, expiresAt, r.RemoteAddr, r.UserAgent()); err != nil {
		h.logger.Warn("issue session", slog.Any("error", err))
	}
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if err := h.auth.RemoveSession(r.Context(), sess.ID); err != nil {
			h.logger.Warn("remove session", slog.Any("error", err))
		}
		h.sessions.Destroy(sess)
	}
	http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
}

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	names := h.registry.Names()
	if len(names) == 0 {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, "/admin/"+names[0], http.StatusSeeOther)
}

type tablePage struct {
	Entities   []registry.Descriptor
	Entity     registry.Descriptor
	Headers    []string
	Rows       []Row
	Page       int
	PrevPage   int
	NextPage   int
	TotalPages int
	Total      int
	PageSize   int
	PageSizes  []int
	Pending    *PendingView
}

func (h *Handler) table(w http.ResponseWriter, r *http.Request) {
	desc, ok := h.resolveEntity(w, r)
	if !ok {
		return
	}

	result, err := h.dispatch.Execute(r.Context(), desc.Name, admin.ActionFind, nil)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	records, _ := result.([]admin.Record)

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	pagination := shared.NewPagination(page, size, len(records))
	from, to := pagination.Slice()

	var pendingView *PendingView
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		pendingView = h.pending.View(sess.ID, desc.Name)
	}

	h.render(w, r, "table", desc.Label, tablePage{
		Entities:   h.registry.List(),
		Entity:     desc,
		Headers:    buildHeaders(desc),
		Rows:       buildRows(desc, records[from:to]),
		Page:       pagination.Page,
		PrevPage:   pagination.Page - 1,
		NextPage:   pagination.Page + 1,
		TotalPages: pagination.TotalPages,
		Total:      pagination.Total,
		PageSize:   pagination.PerPage,
		PageSizes:  shared.PageSizes,
		Pending:    pendingView,
	})
}

type formPage struct {
	Entities []registry.Descriptor
	Entity   registry.Descriptor
	Mode     string
	Action   string
	Inputs   []Input
}

func (h *Handler) createForm(w http.ResponseWriter, r *http.Request) {
	desc, ok := h.resolveEntity(w, r)
	if !ok {
		return
	}
	h.render(w, r, "form", "New "+desc.Label, formPage{
		Entities: h.registry.List(),
		Entity:   desc,
		Mode:     "create",
		Action:   "/admin/" + desc.Name + "/new",
		Inputs:   buildInputs(desc, nil),
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	desc, ok := h.resolveEntity(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, err)
		return
	}
	data := mergeForm(desc, nil, r.PostForm)
	if _, err := h.dispatch.Execute(r.Context(), desc.Name, admin.ActionCreate, data); err != nil {
		h.flashError(r.Context(), shared.UserSafeMessage(err))
		http.Redirect(w, r, "/admin/"+desc.Name+"/new", http.StatusSeeOther)
		return
	}
	h.flashSuccess(r.Context(), desc.Label+" created")
	http.Redirect(w, r, "/admin/"+desc.Name, http.StatusSeeOther)
}

func (h *Handler) editForm(w http.ResponseWriter, r *http.Request) {
	desc, ok := h.resolveEntity(w, r)
	if !ok {
		return
	}
	record, err := h.findRecord(r.Context(), desc.Name, chi.URLParam(r, "id"))
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.render(w, r, "form", "Edit "+desc.Label, formPage{
		Entities: h.registry.List(),
		Entity:   desc,
		Mode:     "edit",
		Action:   "/admin/" + desc.Name + "/" + record.ID() + "/edit",
		Inputs:   buildInputs(desc, record),
	})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	desc, ok := h.resolveEntity(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")
	record, err := h.findRecord(r.Context(), desc.Name, id)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	data := mergeForm(desc, record, r.PostForm)
	data["id"] = id
	if _, err := h.dispatch.Execute(r.Context(), desc.Name, admin.ActionUpdate, data); err != nil {
		h.flashError(r.Context(), shared.UserSafeMessage(err))
	} else {
		h.flashSuccess(r.Context(), desc.Label+" updated")
	}
	http.Redirect(w, r, "/admin/"+desc.Name, http.StatusSeeOther)
}

func (h *Handler) scheduleDelete(w http.ResponseWriter, r *http.Request) {
	desc, ok := h.resolveEntity(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, err)
		return
	}
	ids := r.PostForm["ids"]
	if len(ids) == 0 {
		h.flashError(r.Context(), "No records selected")
		http.Redirect(w, r, "/admin/"+desc.Name, http.StatusSeeOther)
		return
	}

	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
		return
	}
	if err := h.pending.Schedule(sess.ID, desc.Name, ids, shared.UserFromContext(r.Context())); err != nil {
		h.flashError(r.Context(), shared.UserSafeMessage(err))
	}
	http.Redirect(w, r, "/admin/"+desc.Name, http.StatusSeeOther)
}

func (h *Handler) undoDelete(w http.ResponseWriter, r *http.Request) {
	desc, ok := h.resolveEntity(w, r)
	if !ok {
		return
	}
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		if h.pending.Undo(sess.ID) {
			h.flashSuccess(r.Context(), "Delete cancelled")
		}
	}
	http.Redirect(w, r, "/admin/"+desc.Name, http.StatusSeeOther)
}

func (h *Handler) resolveEntity(w http.ResponseWriter, r *http.Request) (registry.Descriptor, bool) {
	desc, err := h.registry.Resolve(chi.URLParam(r, "entity"))
	if err != nil {
		http.NotFound(w, r)
		return registry.Descriptor{}, false
	}
	return desc, true
}

// findRecord locates one record inside the find batch. The dispatcher has no
// point lookup; the batch already covers everything the table can show.
func (h *Handler) findRecord(ctx context.Context, entity, id string) (admin.Record, error) {
	result, err := h.dispatch.Execute(ctx, entity, admin.ActionFind, nil)
	if err != nil {
		return nil, err
	}
	records, _ := result.([]admin.Record)
	for _, rec := range records {
		if rec.ID() == id {
			return rec, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, name, title string, data any) {
	sess := shared.SessionFromContext(r.Context())
	token := ""
	if sess != nil {
		if t, err := h.csrf.EnsureToken(r.Context(), sess); err == nil {
			token = t
		}
	}
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	err := h.views.Render(w, name, view.TemplateData{
		Title:       title,
		CSRFToken:   token,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Admin:       shared.UserFromContext(r.Context()),
		Data:        data,
	})
	if err != nil {
		h.logger.Error("render template", slog.String("template", name), slog.Any("error", err))
	}
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("panel request", slog.String("path", r.URL.Path), slog.Any("error", err))
	h.flashError(r.Context(), shared.UserSafeMessage(err))
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (h *Handler) flashError(ctx context.Context, message string) {
	if sess := shared.SessionFromContext(ctx); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "error", Message: message})
	}
}

func (h *Handler) flashSuccess(ctx context.Context, message string) {
	if sess := shared.SessionFromContext(ctx); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: message})
	}
}
