package users

import (
	"context"
	"fmt"

	"github.com/innkeep/innkeep/internal/auth"
	"github.com/innkeep/innkeep/internal/rbac"
)

// RoleLookup resolves role ids. *rbac.Registry satisfies it.
type RoleLookup interface {
	GetByID(id string) (rbac.Role, bool)
}

// Filter narrows a directory listing.
type Filter struct {
	RoleID     string
	ActiveOnly bool
}

// Service handles user business logic.
type Service struct {
	repo  auth.Repository
	roles RoleLookup
}

// NewService builds Service instance.
func NewService(repo auth.Repository, roles RoleLookup) *Service {
	return &Service{repo: repo, roles: roles}
}

// List returns directory users joined with their roles. A user whose role id
// is not in the registry is listed without a role.
func (s *Service) List(ctx context.Context, f Filter) ([]rbac.UserWithRole, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("users: list: %w", err)
	}
	out := make([]rbac.UserWithRole, 0, len(users))
	for _, u := range users {
		if f.RoleID != "" && u.RoleID != f.RoleID {
			continue
		}
		if f.ActiveOnly && !u.IsActive {
			continue
		}
		entry := rbac.UserWithRole{
			ID:        u.ID,
			Name:      u.Name,
			Email:     u.Email,
			RoleID:    u.RoleID,
			Active:    u.IsActive,
			LastLogin: u.LastLogin,
		}
		if role, ok := s.roles.GetByID(u.RoleID); ok {
			entry.Role = &role
		}
		out = append(out, entry)
	}
	return out, nil
}
