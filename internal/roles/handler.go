package roles

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/innkeep/innkeep/internal/guard"
	"github.com/innkeep/innkeep/internal/platform/httpx"
	"github.com/innkeep/innkeep/internal/rbac"
	"github.com/innkeep/innkeep/internal/session"
)

// Handler manages role management endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   guard.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw guard.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, guard: mw}
}

// MountRoutes registers role routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAny(rbac.PermRolesView))
		r.Get("/", h.listRoles)
		r.Get("/{id}", h.showRole)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAll(rbac.PermRolesManage))
		r.Post("/", h.createRole)
		r.Put("/{id}", h.editRole)
	})
}

// MountPermissionRoutes registers the grouped catalog listing.
func (h *Handler) MountPermissionRoutes(r chi.Router) {
	r.With(h.guard.RequireAny(rbac.PermRolesView)).Get("/", h.listPermissions)
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": h.service.List(r.Context())})
}

func (h *Handler) showRole(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, detail)
}

func (h *Handler) listPermissions(w http.ResponseWriter, _ *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"groups": h.service.Catalog().Groups()})
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	var draft Draft
	if err := httpx.DecodeJSON(r, &draft); err != nil {
		httpx.RespondError(w, err)
		return
	}
	proposal, err := h.service.ProposeCreate(r.Context(), actor(r), draft)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, proposal)
}

func (h *Handler) editRole(w http.ResponseWriter, r *http.Request) {
	var draft Draft
	if err := httpx.DecodeJSON(r, &draft); err != nil {
		httpx.RespondError(w, err)
		return
	}
	proposal, err := h.service.ProposeEdit(r.Context(), actor(r), chi.URLParam(r, "id"), draft)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, proposal)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		httpx.ValidationProblem(w, verr.Fields)
		return
	}
	if !errors.Is(err, httpx.ErrNotFound) {
		h.logger.Error("role proposal failed", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func actor(r *http.Request) string {
	holder := session.FromContext(r.Context())
	if holder == nil {
		return ""
	}
	if user, ok := holder.CurrentUser(); ok {
		return user.Email
	}
	return ""
}
