package roles

import (
	"slices"
	"strings"
	"time"

	"github.com/innkeep/innkeep/internal/rbac"
)

// Draft is the editable form of a role. It never changes the registry by
// itself; the service turns it into a Proposal.
type Draft struct {
	Name        string   `json:"name" validate:"required,min=2"`
	Description string   `json:"description" validate:"required,min=10"`
	Permissions []string `json:"permissions" validate:"min=1,dive,permission"`
}

// DraftFromRole prefills a draft with an existing role.
func DraftFromRole(role rbac.Role) Draft {
	return Draft{
		Name:        role.Name,
		Description: role.Description,
		Permissions: slices.Clone(role.Permissions),
	}
}

// Has reports whether the draft grants id.
func (d *Draft) Has(id string) bool {
	return slices.Contains(d.Permissions, id)
}

// Toggle grants id when absent and revokes it when present.
func (d *Draft) Toggle(id string) {
	if i := slices.Index(d.Permissions, id); i >= 0 {
		d.Permissions = slices.Delete(d.Permissions, i, i+1)
		return
	}
	d.Permissions = append(d.Permissions, id)
}

// ToggleModule grants or revokes every permission of a catalog module.
func (d *Draft) ToggleModule(catalog *rbac.Catalog, module string, on bool) {
	for _, p := range catalog.ListByModule(module) {
		switch {
		case on && !d.Has(p.ID):
			d.Permissions = append(d.Permissions, p.ID)
		case !on:
			d.Permissions = slices.DeleteFunc(d.Permissions, func(id string) bool { return id == p.ID })
		}
	}
}

// Normalize trims text fields and orders permissions as the catalog does,
// dropping duplicates. Unknown ids are kept at the end so validation can
// report them.
func (d *Draft) Normalize(catalog *rbac.Catalog) {
	d.Name = strings.TrimSpace(d.Name)
	d.Description = strings.TrimSpace(d.Description)

	seen := make(map[string]struct{}, len(d.Permissions))
	var known, unknown []string
	for _, id := range d.Permissions {
		id = strings.ToLower(strings.TrimSpace(id))
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := catalog.Lookup(id); ok {
			known = append(known, id)
		} else {
			unknown = append(unknown, id)
		}
	}
	order := make(map[string]int, len(known))
	for i, id := range catalog.IDs() {
		order[id] = i
	}
	slices.SortFunc(known, func(a, b string) int { return order[a] - order[b] })
	d.Permissions = append(known, unknown...)
	if d.Permissions == nil {
		d.Permissions = []string{}
	}
}

// Change lists permissions a draft adds to or removes from a role.
type Change struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
}

// Empty reports whether the change grants or revokes nothing.
func (c Change) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0
}

// Diff compares granted permission sets, keeping the order of each side.
func Diff(before, after []string) Change {
	c := Change{Added: []string{}, Removed: []string{}}
	for _, id := range after {
		if !slices.Contains(before, id) {
			c.Added = append(c.Added, id)
		}
	}
	for _, id := range before {
		if !slices.Contains(after, id) {
			c.Removed = append(c.Removed, id)
		}
	}
	return c
}

// Proposal actions.
const (
	ActionCreate = "create"
	ActionEdit   = "edit"
)

// Proposal records an intended role change.
type Proposal struct {
	Action     string    `json:"action"`
	RoleID     string    `json:"roleId,omitempty"`
	Draft      Draft     `json:"draft"`
	Change     Change    `json:"change"`
	ProposedBy string    `json:"proposedBy,omitempty"`
	ProposedAt time.Time `json:"proposedAt"`
}

// GrantedPermission is a catalog entry annotated with whether a role holds it.
type GrantedPermission struct {
	rbac.Permission
	Granted bool `json:"granted"`
}

// GrantGroup is one module of a role's permission sheet.
type GrantGroup struct {
	Module      string              `json:"module"`
	Title       string              `json:"title"`
	Permissions []GrantedPermission `json:"permissions"`
}

// RoleDetail is a role plus its full permission sheet.
type RoleDetail struct {
	Role   rbac.Role    `json:"role"`
	Groups []GrantGroup `json:"groups"`
}
