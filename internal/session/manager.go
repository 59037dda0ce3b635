package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// ManagerConfig groups dependencies for a Manager.
type ManagerConfig struct {
	Store         Store
	Authenticator Authenticator
	Roles         RoleLookup
	Logger        *slog.Logger
	CookieName    string
	TTL           time.Duration
	Secure        bool
}

// Manager binds browser sessions, identified by cookie, to Holders whose
// records live in a shared Store.
type Manager struct {
	store      *sharedLoads
	auth       Authenticator
	roles      RoleLookup
	logger     *slog.Logger
	cookieName string
	ttl        time.Duration
	secure     bool
}

// NewManager constructs a Manager.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	if cfg.Store == nil || cfg.Authenticator == nil || cfg.Roles == nil {
		return nil, ErrNotConfigured
	}
	if cfg.CookieName == "" {
		return nil, errors.New("session: cookie name required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:      &sharedLoads{Store: cfg.Store},
		auth:       cfg.Authenticator,
		roles:      cfg.Roles,
		logger:     logger,
		cookieName: cfg.CookieName,
		ttl:        cfg.TTL,
		secure:     cfg.Secure,
	}, nil
}

// Load returns a settled Holder for the request's session cookie, or a fresh
// unauthenticated one when the request carries none. A store failure is
// returned as an error so the caller does not expire a session it could not
// read.
func (m *Manager) Load(ctx context.Context, r *http.Request) (*Holder, error) {
	id := ""
	if cookie, err := r.Cookie(m.cookieName); err == nil {
		id = cookie.Value
	} else if !errors.Is(err, http.ErrNoCookie) {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		id = ""
	}

	fresh := id == ""
	if fresh {
		id = uuid.NewString()
	}
	h, err := NewHolder(Config{
		ID:            id,
		Key:           recordKey(id),
		Store:         m.store,
		Authenticator: m.auth,
		Roles:         m.roles,
		Logger:        m.logger.With(slog.String("session_id", id)),
		Rotate:        newSessionID,
	})
	if err != nil {
		return nil, err
	}
	if fresh {
		h.set(StatusUnauthenticated, nil)
		return h, nil
	}
	if _, err := h.Resume(ctx); err != nil {
		return nil, fmt.Errorf("session: restore: %w", err)
	}
	return h, nil
}

// Commit writes the cookie matching the holder's state: set while
// authenticated, expired otherwise.
func (m *Manager) Commit(w http.ResponseWriter, r *http.Request, h *Holder) {
	if h == nil {
		return
	}
	if h.Status() == StatusAuthenticated {
		http.SetCookie(w, &http.Cookie{
			Name:     m.cookieName,
			Value:    h.ID(),
			Path:     "/",
			HttpOnly: true,
			Secure:   m.secure,
			SameSite: http.SameSiteStrictMode,
			Expires:  time.Now().Add(m.ttl),
		})
		return
	}
	if _, err := r.Cookie(m.cookieName); err == nil {
		http.SetCookie(w, &http.Cookie{
			Name:     m.cookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   m.secure,
			SameSite: http.SameSiteStrictMode,
		})
	}
}

// CookieName returns the cookie identifier used for sessions.
func (m *Manager) CookieName() string {
	return m.cookieName
}

// TTL exposes the configured session lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

func newSessionID() (string, string) {
	id := uuid.NewString()
	return id, recordKey(id)
}

func recordKey(id string) string {
	return "session:" + id + ":" + StorageKey
}
