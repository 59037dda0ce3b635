package rbac

import (
	"slices"
	"time"
)

// Predefined role identifiers.
const (
	RoleOwner        = "owner"
	RoleManager      = "manager"
	RoleReceptionist = "receptionist"
	RoleAccountant   = "accountant"
)

// RoleRule declares a role whose permission set is derived from a catalog.
type RoleRule struct {
	ID          string
	Name        string
	Description string
	Grants      func(Permission) bool
}

// PredefinedRules returns the dashboard's built-in role definitions.
func PredefinedRules() []RoleRule {
	return []RoleRule{
		{
			ID:          RoleOwner,
			Name:        "Owner",
			Description: "Full access to all features and settings",
			Grants:      func(Permission) bool { return true },
		},
		{
			ID:          RoleManager,
			Name:        "Manager",
			Description: "Can manage properties, bookings, and staff",
			Grants:      excluding(PermUsersDelete, PermRolesManage, PermPropertiesDelete),
		},
		{
			ID:          RoleReceptionist,
			Name:        "Receptionist",
			Description: "Can manage bookings and guests",
			Grants:      modulesPlus([]string{ModuleBookings, ModuleGuests}, PermRoomsView, PermPropertiesView),
		},
		{
			ID:          RoleAccountant,
			Name:        "Accountant",
			Description: "Can access financial data and reports",
			Grants:      modulesPlus([]string{ModuleFinance}, PermBookingsView, PermGuestsView),
		},
	}
}

func excluding(ids ...string) func(Permission) bool {
	return func(p Permission) bool {
		return !slices.Contains(ids, p.ID)
	}
}

func modulesPlus(modules []string, ids ...string) func(Permission) bool {
	return func(p Permission) bool {
		return slices.Contains(modules, p.Module) || slices.Contains(ids, p.ID)
	}
}

// Registry holds the predefined roles. It is read-only after construction.
type Registry struct {
	catalog *Catalog
	roles   []Role
	index   map[string]int
}

// NewRegistry derives roles from the catalog by applying each rule.
func NewRegistry(catalog *Catalog, now time.Time, rules ...RoleRule) *Registry {
	reg := &Registry{
		catalog: catalog,
		roles:   make([]Role, 0, len(rules)),
		index:   make(map[string]int, len(rules)),
	}
	for _, rule := range rules {
		role := Role{
			ID:          rule.ID,
			Name:        rule.Name,
			Description: rule.Description,
			Permissions: []string{},
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		for _, p := range catalog.ListAll() {
			if rule.Grants != nil && rule.Grants(p) {
				role.Permissions = append(role.Permissions, p.ID)
			}
		}
		reg.index[role.ID] = len(reg.roles)
		reg.roles = append(reg.roles, role)
	}
	return reg
}

// DefaultRegistry builds the predefined roles over the given catalog.
func DefaultRegistry(catalog *Catalog) *Registry {
	return NewRegistry(catalog, time.Now().UTC(), PredefinedRules()...)
}

// Catalog exposes the catalog the roles were derived from.
func (r *Registry) Catalog() *Catalog {
	return r.catalog
}

// ListAll returns every role in definition order.
func (r *Registry) ListAll() []Role {
	out := make([]Role, 0, len(r.roles))
	for i := range r.roles {
		out = append(out, *r.roles[i].Clone())
	}
	return out
}

// GetByID returns the role with the given id, if any.
func (r *Registry) GetByID(id string) (Role, bool) {
	i, ok := r.index[id]
	if !ok {
		return Role{}, false
	}
	return *r.roles[i].Clone(), true
}
