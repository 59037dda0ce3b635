// Package guard decides whether protected content may be shown to the
// current session.
package guard

import (
	"reflect"

	"github.com/innkeep/innkeep/internal/rbac"
)

// Decision is the outcome of evaluating a Requirement.
type Decision int

const (
	// Denied means the fallback should be shown.
	Denied Decision = iota
	// Granted means the protected content may be shown.
	Granted
)

func (d Decision) String() string {
	if d == Granted {
		return "granted"
	}
	return "denied"
}

// Requirement describes the permissions protected content needs. With
// RequireAll false any one of the ids suffices.
type Requirement struct {
	Permission  string
	Permissions []string
	RequireAll  bool
}

// Any builds an any-of requirement.
func Any(ids ...string) Requirement {
	return Requirement{Permissions: ids}
}

// All builds an all-of requirement.
func All(ids ...string) Requirement {
	return Requirement{Permissions: ids, RequireAll: true}
}

// IDs merges Permission into Permissions without altering the receiver.
func (r Requirement) IDs() []string {
	ids := make([]string, 0, len(r.Permissions)+1)
	ids = append(ids, r.Permissions...)
	if r.Permission != "" {
		ids = append(ids, r.Permission)
	}
	return ids
}

// Decide evaluates the requirement against a checker. A nil checker, typed
// or not, behaves like a session without a user.
func Decide(req Requirement, c rbac.Checker) Decision {
	if isNil(c) {
		c = rbac.UserChecker{}
	}
	ids := req.IDs()
	var ok bool
	if req.RequireAll {
		ok = c.HasAllPermissions(ids)
	} else {
		ok = c.HasAnyPermission(ids)
	}
	if ok {
		return Granted
	}
	return Denied
}

// DecideFor evaluates the requirement directly against a user.
func DecideFor(req Requirement, user *rbac.UserWithRole) Decision {
	return Decide(req, rbac.UserChecker{User: user})
}

// Fallback is the content shown in place of denied content.
type Fallback struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// AccessDenied is the default fallback.
var AccessDenied = Fallback{
	Title:   "Access Denied",
	Message: "You don't have permission to access this resource.",
}

// Guard pairs a requirement with the fallback to show on denial.
type Guard struct {
	Requirement Requirement
	Fallback    *Fallback
}

// Outcome is a decision plus, when denied, the fallback to render.
type Outcome struct {
	Decision Decision
	Fallback *Fallback
}

// Granted reports whether the protected content may be shown.
func (o Outcome) Granted() bool {
	return o.Decision == Granted
}

// Evaluate decides and selects the fallback.
func (g Guard) Evaluate(c rbac.Checker) Outcome {
	if Decide(g.Requirement, c) == Granted {
		return Outcome{Decision: Granted}
	}
	fb := AccessDenied
	if g.Fallback != nil {
		fb = *g.Fallback
	}
	return Outcome{Decision: Denied, Fallback: &fb}
}

func isNil(c rbac.Checker) bool {
	if c == nil {
		return true
	}
	v := reflect.ValueOf(c)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return v.IsNil()
	}
	return false
}
