package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/innkeep/innkeep/cmd/innkeep/cli"
	"github.com/innkeep/innkeep/internal/rbac"
)

var (
	rolesRoleID string
	rolesJSON   bool
)

var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "Print the role/permission matrix",
	Long: `Print which catalog permissions each predefined role holds.

Derived roles pick up new catalog permissions automatically; run this after
changing the catalog to review what each role gained.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		code := cli.NewRolesCLI(rbac.DefaultRegistry(rbac.DefaultCatalog())).MatrixCommand(cli.RolesOptions{
			RoleID:     rolesRoleID,
			JSONOutput: rolesJSON,
			Stdout:     cmd.OutOrStdout(),
			Stderr:     cmd.ErrOrStderr(),
		})
		if code != 0 {
			return fmt.Errorf("roles: exit status %d", code)
		}
		return nil
	},
}

func init() {
	rolesCmd.Flags().StringVar(&rolesRoleID, "role", "", "only show this role id")
	rolesCmd.Flags().BoolVar(&rolesJSON, "json", false, "emit JSON instead of a table")
}
