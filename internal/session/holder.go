package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/innkeep/innkeep/internal/rbac"
)

// ErrNotConfigured indicates a Holder built without its collaborators.
var ErrNotConfigured = errors.New("session: holder not configured")

// Status is the lifecycle state of a Holder.
type Status int

const (
	// StatusLoading means a restore or login is in flight.
	StatusLoading Status = iota
	// StatusUnauthenticated means no user is present.
	StatusUnauthenticated
	// StatusAuthenticated means a user with a resolved role is present.
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusUnauthenticated:
		return "unauthenticated"
	case StatusAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Identity is what an authentication provider returns for valid credentials.
type Identity struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	RoleID string `json:"roleId"`
}

// Authenticator verifies credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (Identity, error)
}

// RoleLookup resolves role ids. *rbac.Registry satisfies it.
type RoleLookup interface {
	GetByID(id string) (rbac.Role, bool)
}

// Config groups Holder collaborators.
type Config struct {
	ID            string
	Key           string
	Store         Store
	Authenticator Authenticator
	Roles         RoleLookup
	Logger        *slog.Logger
	Clock         func() time.Time
	// Rotate, when set, issues a fresh id and storage key on every
	// successful login. The record under the previous key is removed.
	Rotate func() (id, key string)
}

// Holder owns at most one authenticated user. Login, Logout and Restore are
// serialised against each other; permission queries never wait on them.
type Holder struct {
	id     string
	key    string
	store  Store
	auth   Authenticator
	roles  RoleLookup
	logger *slog.Logger
	clock  func() time.Time
	rotate func() (string, string)

	// writeMu guards key and serialises Login, Logout and Restore.
	writeMu sync.Mutex

	mu     sync.RWMutex
	status Status
	user   *rbac.UserWithRole
}

// NewHolder constructs a Holder in the Loading state; call Restore to settle it.
func NewHolder(cfg Config) (*Holder, error) {
	if cfg.Store == nil || cfg.Authenticator == nil || cfg.Roles == nil {
		return nil, ErrNotConfigured
	}
	h := &Holder{
		id:     cfg.ID,
		key:    cfg.Key,
		store:  cfg.Store,
		auth:   cfg.Authenticator,
		roles:  cfg.Roles,
		logger: cfg.Logger,
		clock:  cfg.Clock,
		rotate: cfg.Rotate,
		status: StatusLoading,
	}
	if h.key == "" {
		h.key = StorageKey
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.clock == nil {
		h.clock = time.Now
	}
	return h, nil
}

// ID returns the browser session id the holder was created for, if any.
func (h *Holder) ID() string {
	h.must()
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.id
}

// Status reports the current lifecycle state.
func (h *Holder) Status() Status {
	h.must()
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.status
}

// CurrentUser returns a copy of the authenticated user.
func (h *Holder) CurrentUser() (*rbac.UserWithRole, bool) {
	user := h.current()
	if user == nil {
		return nil, false
	}
	return user.Clone(), true
}

// Restore loads the persisted session. Missing or corrupt data leaves the
// holder unauthenticated, and so does an unreachable store; use Resume to
// tell the two apart.
func (h *Holder) Restore(ctx context.Context) Status {
	status, err := h.Resume(ctx)
	if err != nil {
		h.logger.Warn("restore session", slog.Any("error", err))
	}
	return status
}

// Resume is Restore that reports store failures. On error the holder is
// unauthenticated but the persisted record is left untouched.
func (h *Holder) Resume(ctx context.Context) (Status, error) {
	h.must()
	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	h.set(StatusLoading, nil)

	data, err := h.store.Load(ctx, h.key)
	if err != nil {
		h.set(StatusUnauthenticated, nil)
		if errors.Is(err, ErrNoRecord) {
			return StatusUnauthenticated, nil
		}
		return StatusUnauthenticated, err
	}
	user, err := DecodeRecord(data)
	if err != nil {
		h.logger.Warn("discard corrupt session", slog.String("key", h.key), slog.Any("error", err))
		if delErr := h.store.Delete(ctx, h.key); delErr != nil {
			h.logger.Warn("delete corrupt session", slog.String("key", h.key), slog.Any("error", delErr))
		}
		h.set(StatusUnauthenticated, nil)
		return StatusUnauthenticated, nil
	}
	h.set(StatusAuthenticated, user)
	return StatusAuthenticated, nil
}

// Login authenticates the credentials and, on success, attaches the user's
// role and persists the session. Failures are reported as false.
func (h *Holder) Login(ctx context.Context, email, password string) bool {
	h.must()
	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	h.set(StatusLoading, nil)

	identity, err := h.auth.Authenticate(ctx, email, password)
	if err != nil {
		h.logger.Info("login rejected", slog.String("email", email), slog.Any("error", err))
		h.set(StatusUnauthenticated, nil)
		return false
	}

	now := h.clock().UTC()
	user := &rbac.UserWithRole{
		ID:        identity.ID,
		Name:      identity.Name,
		Email:     identity.Email,
		RoleID:    identity.RoleID,
		Active:    true,
		LastLogin: &now,
	}
	if role, ok := h.roles.GetByID(identity.RoleID); ok {
		user.Role = &role
	} else {
		h.logger.Warn("login role not found", slog.String("user_id", identity.ID), slog.String("role_id", identity.RoleID))
	}

	previous := h.key
	if h.rotate != nil {
		id, key := h.rotate()
		h.mu.Lock()
		h.id = id
		h.mu.Unlock()
		h.key = key
	}

	data, err := EncodeRecord(user)
	if err == nil {
		err = h.store.Save(ctx, h.key, data)
	}
	if err != nil {
		h.logger.Warn("persist session", slog.String("key", h.key), slog.Any("error", err))
	}
	if previous != h.key {
		if err := h.store.Delete(ctx, previous); err != nil {
			h.logger.Warn("delete previous session", slog.String("key", previous), slog.Any("error", err))
		}
	}

	h.set(StatusAuthenticated, user)
	return true
}

// Logout clears the user and the persisted session. It is idempotent.
func (h *Holder) Logout(ctx context.Context) {
	h.must()
	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	h.set(StatusUnauthenticated, nil)
	if err := h.store.Delete(ctx, h.key); err != nil {
		h.logger.Warn("delete session", slog.String("key", h.key), slog.Any("error", err))
	}
}

// HasPermission reports whether the current user holds id.
func (h *Holder) HasPermission(id string) bool {
	return rbac.HasPermission(h.current(), id)
}

// HasAnyPermission reports whether the current user holds any of ids.
func (h *Holder) HasAnyPermission(ids []string) bool {
	return rbac.HasAnyPermission(h.current(), ids)
}

// HasAllPermissions reports whether the current user holds every id. An
// empty list is satisfied even without a user.
func (h *Holder) HasAllPermissions(ids []string) bool {
	return rbac.HasAllPermissions(h.current(), ids)
}

func (h *Holder) current() *rbac.UserWithRole {
	h.must()
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.user
}

func (h *Holder) set(status Status, user *rbac.UserWithRole) {
	h.mu.Lock()
	h.status = status
	h.user = user
	h.mu.Unlock()
}

func (h *Holder) must() {
	if h == nil {
		panic("session: Holder used before construction")
	}
}

var _ rbac.Checker = (*Holder)(nil)
