package rbac

import (
	"slices"
	"time"
)

// Permission represents a single action within a dashboard module.
type Permission struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Module      string `json:"module"`
	Action      string `json:"action"`
}

// Role groups a set of permission ids under a name.
type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Has reports whether the role grants the permission id.
func (r *Role) Has(id string) bool {
	if r == nil {
		return false
	}
	return slices.Contains(r.Permissions, id)
}

// Clone returns a deep copy of the role.
func (r *Role) Clone() *Role {
	if r == nil {
		return nil
	}
	out := *r
	out.Permissions = slices.Clone(r.Permissions)
	return &out
}

// UserWithRole is an identity joined with its resolved role.
type UserWithRole struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	RoleID    string     `json:"roleId"`
	Role      *Role      `json:"role,omitempty"`
	Active    bool       `json:"active"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

// Clone returns a deep copy of the user, including the attached role.
func (u *UserWithRole) Clone() *UserWithRole {
	if u == nil {
		return nil
	}
	out := *u
	out.Role = u.Role.Clone()
	if u.LastLogin != nil {
		t := *u.LastLogin
		out.LastLogin = &t
	}
	return &out
}

// Checker answers permission questions for some implicit subject.
type Checker interface {
	HasPermission(id string) bool
	HasAnyPermission(ids []string) bool
	HasAllPermissions(ids []string) bool
}
