package cmd

import (
	"github.com/spf13/cobra"
)

// ConfigCmd is the top-level config command.
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage SOPSie configuration",
	Long: `Provides commands for managing your SOPSie settings.

Settings control what happens when governed files are opened and saved:
open_behavior, save_behavior, view_mode, and the sops and editor
integration. They live in a per-user config file.

Examples:
  # Write a starter config file
  sopsie config init

  # See the active settings and where they come from
  sopsie config show

  # JSON output for scripting
  sopsie config show --json`,
}

func init() {
	ConfigCmd.AddCommand(configInitCmd)
	ConfigCmd.AddCommand(configShowCmd)
}

// GetConfigCmd returns the ConfigCmd for testing.
func GetConfigCmd() *cobra.Command {
	return ConfigCmd
}
