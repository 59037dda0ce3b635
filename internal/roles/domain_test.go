package roles

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/innkeep/innkeep/internal/rbac"
)

func TestDraftToggle(t *testing.T) {
	d := Draft{}
	d.Toggle(rbac.PermRoomsView)
	d.Toggle(rbac.PermGuestsView)
	assert.Equal(t, []string{rbac.PermRoomsView, rbac.PermGuestsView}, d.Permissions)

	d.Toggle(rbac.PermRoomsView)
	assert.Equal(t, []string{rbac.PermGuestsView}, d.Permissions)
	assert.False(t, d.Has(rbac.PermRoomsView))
}

func TestDraftToggleModule(t *testing.T) {
	catalog := rbac.DefaultCatalog()
	d := Draft{Permissions: []string{rbac.PermFinanceView}}

	d.ToggleModule(catalog, rbac.ModuleFinance, true)
	assert.Equal(t, []string{rbac.PermFinanceView, rbac.PermFinanceManage, rbac.PermFinanceReports}, d.Permissions)

	d.ToggleModule(catalog, rbac.ModuleRoles, true)
	d.ToggleModule(catalog, rbac.ModuleFinance, false)
	assert.Equal(t, []string{rbac.PermRolesView, rbac.PermRolesManage}, d.Permissions)

	d.ToggleModule(catalog, "spa", true)
	assert.Len(t, d.Permissions, 2)
}

func TestDraftNormalize(t *testing.T) {
	d := Draft{
		Name:        "  Night Audit ",
		Description: " Reviews the day's folios ",
		Permissions: []string{"finance.reports", " Bookings.View", "spa.view", "finance.reports"},
	}
	d.Normalize(rbac.DefaultCatalog())

	assert.Equal(t, "Night Audit", d.Name)
	assert.Equal(t, "Reviews the day's folios", d.Description)
	assert.Equal(t, []string{rbac.PermBookingsView, rbac.PermFinanceReports, "spa.view"}, d.Permissions)

	empty := Draft{}
	empty.Normalize(rbac.DefaultCatalog())
	assert.NotNil(t, empty.Permissions)
	assert.Empty(t, empty.Permissions)
}

func TestDiff(t *testing.T) {
	c := Diff(
		[]string{rbac.PermBookingsView, rbac.PermGuestsView},
		[]string{rbac.PermGuestsView, rbac.PermFinanceView},
	)
	assert.Equal(t, []string{rbac.PermFinanceView}, c.Added)
	assert.Equal(t, []string{rbac.PermBookingsView}, c.Removed)
	assert.False(t, c.Empty())

	assert.True(t, Diff([]string{"a"}, []string{"a"}).Empty())
}

func TestDraftFromRoleCopies(t *testing.T) {
	role, ok := rbac.DefaultRegistry(rbac.DefaultCatalog()).GetByID(rbac.RoleAccountant)
	assert.True(t, ok)

	d := DraftFromRole(role)
	d.Toggle(rbac.PermFinanceView)
	assert.True(t, role.Has(rbac.PermFinanceView))
	assert.False(t, d.Has(rbac.PermFinanceView))
}
