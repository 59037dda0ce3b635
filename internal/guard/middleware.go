package guard

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/innkeep/innkeep/internal/platform/httpx"
	"github.com/innkeep/innkeep/internal/session"
)

// Observer receives guard decisions.
type Observer interface {
	ObserveGuard(decision string)
}

// Middleware wires guards in front of HTTP handlers, reading the current
// holder from the request context.
type Middleware struct {
	Logger   *slog.Logger
	Observer Observer
}

// RequireAny ensures the current user has at least one of the permissions.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	return m.Require(Guard{Requirement: Any(normalizePermissions(perms)...)})
}

// RequireAll ensures the current user has every permission.
func (m Middleware) RequireAll(perms ...string) func(http.Handler) http.Handler {
	return m.Require(Guard{Requirement: All(normalizePermissions(perms)...)})
}

// Require installs an arbitrary guard.
func (m Middleware) Require(g Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			holder := session.FromContext(r.Context())
			if holder == nil {
				m.logger().Error("guard: session missing", slog.String("path", r.URL.Path))
			}
			var outcome Outcome
			if holder != nil {
				outcome = g.Evaluate(holder)
			} else {
				outcome = g.Evaluate(nil)
			}
			if m.Observer != nil {
				m.Observer.ObserveGuard(outcome.Decision.String())
			}
			if outcome.Granted() {
				next.ServeHTTP(w, r)
				return
			}
			status := http.StatusForbidden
			if holder == nil || holder.Status() != session.StatusAuthenticated {
				status = http.StatusUnauthorized
			}
			httpx.Problem(w, status, outcome.Fallback.Title, outcome.Fallback.Message)
		})
	}
}

func (m Middleware) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.Default()
}

func normalizePermissions(perms []string) []string {
	seen := make(map[string]struct{}, len(perms))
	normalized := make([]string, 0, len(perms))
	for _, p := range perms {
		p = strings.TrimSpace(strings.ToLower(p))
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		normalized = append(normalized, p)
	}
	return normalized
}
