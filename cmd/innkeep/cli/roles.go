package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/innkeep/innkeep/internal/rbac"
)

// RolesCLI prints the effective permission matrix of the predefined roles.
type RolesCLI struct {
	registry *rbac.Registry
}

// NewRolesCLI constructs the helper around a registry.
func NewRolesCLI(registry *rbac.Registry) *RolesCLI {
	return &RolesCLI{registry: registry}
}

// RolesOptions defines available flags for the roles command.
type RolesOptions struct {
	RoleID     string
	JSONOutput bool
	Stdout     io.Writer
	Stderr     io.Writer
}

// RolesSummary is the JSON shape of the matrix.
type RolesSummary struct {
	Permissions []string      `json:"permissions"`
	Roles       []RoleSummary `json:"roles"`
}

// RoleSummary lists one role's granted and withheld permissions.
type RoleSummary struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Granted  []string `json:"granted"`
	Withheld []string `json:"withheld"`
}

// MatrixCommand renders the matrix and returns the process exit code.
func (c *RolesCLI) MatrixCommand(opts RolesOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	roles := c.registry.ListAll()
	if id := strings.TrimSpace(opts.RoleID); id != "" {
		role, ok := c.registry.GetByID(id)
		if !ok {
			_, _ = fmt.Fprintf(opts.Stderr, "roles: unknown role %q\n", id)
			return 1
		}
		roles = []rbac.Role{role}
	}
	summary := c.summarize(roles)
	if opts.JSONOutput {
		if err := json.NewEncoder(opts.Stdout).Encode(summary); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "roles: encode json: %v\n", err)
			return 1
		}
		return 0
	}
	renderMatrix(opts.Stdout, summary)
	return 0
}

func (c *RolesCLI) summarize(roles []rbac.Role) RolesSummary {
	ids := c.registry.Catalog().IDs()
	summary := RolesSummary{Permissions: ids, Roles: make([]RoleSummary, 0, len(roles))}
	for _, role := range roles {
		rs := RoleSummary{ID: role.ID, Name: role.Name, Granted: []string{}, Withheld: []string{}}
		for _, id := range ids {
			if role.Has(id) {
				rs.Granted = append(rs.Granted, id)
			} else {
				rs.Withheld = append(rs.Withheld, id)
			}
		}
		summary.Roles = append(summary.Roles, rs)
	}
	return summary
}

func renderMatrix(out io.Writer, summary RolesSummary) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	header := []string{"PERMISSION"}
	for _, r := range summary.Roles {
		header = append(header, strings.ToUpper(r.ID))
	}
	_, _ = fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, id := range summary.Permissions {
		row := []string{id}
		for _, r := range summary.Roles {
			mark := "-"
			for _, g := range r.Granted {
				if g == id {
					mark = "x"
					break
				}
			}
			row = append(row, mark)
		}
		_, _ = fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	_ = tw.Flush()
	for _, r := range summary.Roles {
		_, _ = fmt.Fprintf(out, "%s (%s): %d of %d permissions\n", r.Name, r.ID, len(r.Granted), len(summary.Permissions))
	}
}
