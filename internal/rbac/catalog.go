package rbac

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	// ErrDuplicatePermission indicates two catalog entries share an id.
	ErrDuplicatePermission = errors.New("rbac: duplicate permission")
	// ErrInvalidPermission indicates a catalog entry without id or module.
	ErrInvalidPermission = errors.New("rbac: invalid permission")
)

// Dashboard modules.
const (
	ModuleProperties = "properties"
	ModuleRooms      = "rooms"
	ModuleBookings   = "bookings"
	ModuleGuests     = "guests"
	ModuleFinance    = "finance"
	ModuleUsers      = "users"
	ModuleRoles      = "roles"
)

// Permission identifiers of the default catalog.
const (
	PermPropertiesView   = "properties.view"
	PermPropertiesCreate = "properties.create"
	PermPropertiesEdit   = "properties.edit"
	PermPropertiesDelete = "properties.delete"

	PermRoomsView   = "rooms.view"
	PermRoomsCreate = "rooms.create"
	PermRoomsEdit   = "rooms.edit"
	PermRoomsDelete = "rooms.delete"

	PermBookingsView     = "bookings.view"
	PermBookingsCreate   = "bookings.create"
	PermBookingsEdit     = "bookings.edit"
	PermBookingsDelete   = "bookings.delete"
	PermBookingsCheckIn  = "bookings.checkin"
	PermBookingsCheckOut = "bookings.checkout"

	PermGuestsView   = "guests.view"
	PermGuestsCreate = "guests.create"
	PermGuestsEdit   = "guests.edit"
	PermGuestsDelete = "guests.delete"

	PermFinanceView    = "finance.view"
	PermFinanceManage  = "finance.manage"
	PermFinanceReports = "finance.reports"

	PermUsersView   = "users.view"
	PermUsersCreate = "users.create"
	PermUsersEdit   = "users.edit"
	PermUsersDelete = "users.delete"

	PermRolesView   = "roles.view"
	PermRolesManage = "roles.manage"
)

var defaultPermissions = []Permission{
	{ID: PermPropertiesView, Name: "View Properties", Module: ModuleProperties, Action: "view"},
	{ID: PermPropertiesCreate, Name: "Create Properties", Module: ModuleProperties, Action: "create"},
	{ID: PermPropertiesEdit, Name: "Edit Properties", Module: ModuleProperties, Action: "edit"},
	{ID: PermPropertiesDelete, Name: "Delete Properties", Module: ModuleProperties, Action: "delete"},

	{ID: PermRoomsView, Name: "View Rooms", Module: ModuleRooms, Action: "view"},
	{ID: PermRoomsCreate, Name: "Create Rooms", Module: ModuleRooms, Action: "create"},
	{ID: PermRoomsEdit, Name: "Edit Rooms", Module: ModuleRooms, Action: "edit"},
	{ID: PermRoomsDelete, Name: "Delete Rooms", Module: ModuleRooms, Action: "delete"},

	{ID: PermBookingsView, Name: "View Bookings", Module: ModuleBookings, Action: "view"},
	{ID: PermBookingsCreate, Name: "Create Bookings", Module: ModuleBookings, Action: "create"},
	{ID: PermBookingsEdit, Name: "Edit Bookings", Module: ModuleBookings, Action: "edit"},
	{ID: PermBookingsDelete, Name: "Delete Bookings", Module: ModuleBookings, Action: "delete"},
	{ID: PermBookingsCheckIn, Name: "Check-in Guests", Module: ModuleBookings, Action: "checkin"},
	{ID: PermBookingsCheckOut, Name: "Check-out Guests", Module: ModuleBookings, Action: "checkout"},

	{ID: PermGuestsView, Name: "View Guests", Module: ModuleGuests, Action: "view"},
	{ID: PermGuestsCreate, Name: "Create Guests", Module: ModuleGuests, Action: "create"},
	{ID: PermGuestsEdit, Name: "Edit Guests", Module: ModuleGuests, Action: "edit"},
	{ID: PermGuestsDelete, Name: "Delete Guests", Module: ModuleGuests, Action: "delete"},

	{ID: PermFinanceView, Name: "View Financial Data", Module: ModuleFinance, Action: "view"},
	{ID: PermFinanceManage, Name: "Manage Payments", Module: ModuleFinance, Action: "manage"},
	{ID: PermFinanceReports, Name: "Generate Reports", Module: ModuleFinance, Action: "reports"},

	{ID: PermUsersView, Name: "View Users", Module: ModuleUsers, Action: "view"},
	{ID: PermUsersCreate, Name: "Create Users", Module: ModuleUsers, Action: "create"},
	{ID: PermUsersEdit, Name: "Edit Users", Module: ModuleUsers, Action: "edit"},
	{ID: PermUsersDelete, Name: "Delete Users", Module: ModuleUsers, Action: "delete"},

	{ID: PermRolesView, Name: "View Roles", Module: ModuleRoles, Action: "view"},
	{ID: PermRolesManage, Name: "Manage Roles", Module: ModuleRoles, Action: "manage"},
}

var moduleDescriptions = map[string]string{
	ModuleProperties: "Manage hotel properties and settings",
	ModuleRooms:      "Manage rooms and room types",
	ModuleBookings:   "Manage reservations and guest stays",
	ModuleGuests:     "Manage guest information",
	ModuleFinance:    "Manage financial data and reports",
	ModuleUsers:      "Manage system users",
	ModuleRoles:      "Manage roles and their permissions",
}

// Key composes a permission id from module and action.
func Key(module, action string) string {
	return strings.ToLower(module + "." + action)
}

// Catalog is an immutable, ordered set of permissions.
type Catalog struct {
	perms []Permission
	index map[string]int
}

// PermissionGroup is a module's permissions as shown on the role form.
type PermissionGroup struct {
	Module      string       `json:"module"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Permissions []Permission `json:"permissions"`
}

// NewCatalog builds a catalog preserving declaration order.
func NewCatalog(perms ...Permission) (*Catalog, error) {
	c := &Catalog{
		perms: make([]Permission, 0, len(perms)),
		index: make(map[string]int, len(perms)),
	}
	for _, p := range perms {
		if strings.TrimSpace(p.ID) == "" || strings.TrimSpace(p.Module) == "" {
			return nil, fmt.Errorf("%w: %+v", ErrInvalidPermission, p)
		}
		if _, ok := c.index[p.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePermission, p.ID)
		}
		c.index[p.ID] = len(c.perms)
		c.perms = append(c.perms, p)
	}
	return c, nil
}

// DefaultCatalog returns the dashboard's standard permission catalog.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(defaultPermissions...)
	if err != nil {
		panic(err)
	}
	return c
}

// ListAll returns every permission in declaration order.
func (c *Catalog) ListAll() []Permission {
	out := make([]Permission, len(c.perms))
	copy(out, c.perms)
	return out
}

// ListByModule returns the permissions of one module, empty when unknown.
func (c *Catalog) ListByModule(module string) []Permission {
	out := []Permission{}
	for _, p := range c.perms {
		if p.Module == module {
			out = append(out, p)
		}
	}
	return out
}

// IDs returns the ids of every permission in declaration order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.perms))
	for i, p := range c.perms {
		ids[i] = p.ID
	}
	return ids
}

// Lookup finds a permission by id.
func (c *Catalog) Lookup(id string) (Permission, bool) {
	i, ok := c.index[id]
	if !ok {
		return Permission{}, false
	}
	return c.perms[i], true
}

// Modules lists module keys in order of first appearance.
func (c *Catalog) Modules() []string {
	seen := make(map[string]struct{})
	var modules []string
	for _, p := range c.perms {
		if _, ok := seen[p.Module]; ok {
			continue
		}
		seen[p.Module] = struct{}{}
		modules = append(modules, p.Module)
	}
	return modules
}

// Groups partitions the catalog by module.
func (c *Catalog) Groups() []PermissionGroup {
	title := cases.Title(language.English)
	modules := c.Modules()
	groups := make([]PermissionGroup, 0, len(modules))
	for _, m := range modules {
		groups = append(groups, PermissionGroup{
			Module:      m,
			Title:       title.String(m),
			Description: moduleDescriptions[m],
			Permissions: c.ListByModule(m),
		})
	}
	return groups
}
