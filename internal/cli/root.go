// Package cli wires the cobra command tree: daemon, config, and query.
package cli

import (
	"fmt"
	"os"

	"github.com/clankers-dev/clankers/internal/paths"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"

	configPath string
)

// RootCmd builds the top-level "clankers" command.
func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "clankers",
		Short: "Clankers - local AI session telemetry daemon",
		Long: `Clankers records AI coding-session telemetry that editor/harness
plugins send over JSON-RPC into a local SQLite database.

Usage:
  clankers daemon          Run the background daemon
  clankers config          Manage configuration
  clankers query           Query session data
`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.Help()
			fmt.Fprintln(os.Stderr)
			fmt.Fprintln(os.Stderr, "Error: No subcommand specified. Use 'clankers daemon' to start the daemon.")
			return fmt.Errorf("no subcommand specified")
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", fmt.Sprintf("config file path (default: %s)", paths.GetConfigPath()))
	root.PersistentFlags().String("profile", "", "profile name (not read by any subcommand; CLANKERS_PROFILE is not read either — the config file's active_profile applies)")

	root.AddCommand(daemonCmd())
	root.AddCommand(configCmd())
	root.AddCommand(queryCmd())

	return root
}

// Execute runs the root command.
func Execute() error {
	return RootCmd().Execute()
}
