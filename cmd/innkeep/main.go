package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "innkeep",
	Short: "Hotel dashboard access-control server",
	Long: `innkeep serves the dashboard's session and role-based access API.

Without a subcommand it runs the HTTP server.`,
	Example: `  # Run the API with Redis sessions and the sample staff directory
  REDIS_ADDR=127.0.0.1:6379 innkeep serve

  # Review which permissions each role holds
  innkeep roles
  innkeep roles --role manager --json`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(rolesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
