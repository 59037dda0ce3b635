package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/innkeep/innkeep/internal/platform/httpx"
	"github.com/innkeep/innkeep/internal/rbac"
	"github.com/innkeep/innkeep/internal/session"
)

// LoginObserver receives login outcomes.
type LoginObserver interface {
	ObserveLogin(result string)
}

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger     *slog.Logger
	service    *Service
	observer   LoginObserver
	validator  *validator.Validate
	loginLimit int
}

// NewHandler constructs a Handler instance. service may be nil when the
// session authenticator is not backed by the directory.
func NewHandler(logger *slog.Logger, service *Service, observer LoginObserver, loginLimit int) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if loginLimit <= 0 {
		loginLimit = 10
	}
	return &Handler{
		logger:     logger,
		service:    service,
		observer:   observer,
		validator:  validator.New(),
		loginLimit: loginLimit,
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(httprate.LimitByIP(h.loginLimit, time.Minute)).Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Get("/me", h.showCurrent)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// CurrentResponse describes the session as seen by the client.
type CurrentResponse struct {
	Status      string             `json:"status"`
	User        *rbac.UserWithRole `json:"user,omitempty"`
	Permissions []string           `json:"permissions"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	holder := session.FromContext(r.Context())
	if holder == nil {
		h.logger.Error("session missing during login")
		httpx.RespondError(w, errors.New("session missing"))
		return
	}

	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		fields := make(map[string]string)
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fieldErr := range verrs {
				fields[fieldErr.Field()] = fieldErr.Tag()
			}
		}
		httpx.ValidationProblem(w, fields)
		return
	}

	if !holder.Login(r.Context(), req.Email, req.Password) {
		h.observe("failure")
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "Invalid email or password")
		return
	}
	h.observe("success")

	user, _ := holder.CurrentUser()
	if h.service != nil && user != nil && user.LastLogin != nil {
		if err := h.service.RecordLogin(r.Context(), user.ID, *user.LastLogin); err != nil {
			h.logger.Warn("record login", slog.String("user_id", user.ID), slog.Any("error", err))
		}
	}
	httpx.JSON(w, http.StatusOK, currentResponse(holder))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if holder := session.FromContext(r.Context()); holder != nil {
		holder.Logout(r.Context())
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) showCurrent(w http.ResponseWriter, r *http.Request) {
	holder := session.FromContext(r.Context())
	if holder == nil {
		httpx.JSON(w, http.StatusOK, CurrentResponse{Status: session.StatusUnauthenticated.String(), Permissions: []string{}})
		return
	}
	httpx.JSON(w, http.StatusOK, currentResponse(holder))
}

func (h *Handler) observe(result string) {
	if h.observer != nil {
		h.observer.ObserveLogin(result)
	}
}

func currentResponse(holder *session.Holder) CurrentResponse {
	resp := CurrentResponse{Status: holder.Status().String(), Permissions: []string{}}
	if user, ok := holder.CurrentUser(); ok {
		resp.User = user
		if user.Role != nil {
			resp.Permissions = user.Role.Permissions
		}
	}
	return resp
}
