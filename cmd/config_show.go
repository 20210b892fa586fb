package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/JinxCappa/SOPSie/internal/configs"
	"github.com/JinxCappa/SOPSie/internal/ui"

	"github.com/spf13/cobra"
)

var configShowJSON bool

func init() {
	configShowCmd.Flags().BoolVar(&configShowJSON, "json", false, "output in JSON format")
}

// resetConfigShowState resets the config show command's global state for testing.
func resetConfigShowState() {
	configShowJSON = false
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the active configuration",
	Long: `Displays the settings sopsie is running with.

Missing config files are fine; the defaults are shown instead.

Examples:
  sopsie config show
  sopsie config show --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting config show command")

		path, err := configs.SettingsPath()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to locate config path: %v", err)
		}

		settings, err := configs.LoadSettings()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load settings: %v", err)
		}

		if configShowJSON {
			output, err := json.MarshalIndent(settings, "", "  ")
			if err != nil {
				return Logger.ErrorfAndReturn("failed to marshal settings: %v", err)
			}
			fmt.Println(string(output))
			return nil
		}

		source := ui.Path.Sprint(path)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			source = ui.Muted.Sprint("defaults (no config file)")
		}

		fmt.Println(ui.Highlight.Sprint("Configuration") + " (" + source + "):")
		fmt.Println()
		fmt.Printf("  %-22s %s\n", "open_behavior:", ui.Code.Sprint(settings.Behavior.OpenBehavior))
		fmt.Printf("  %-22s %s\n", "save_behavior:", ui.Code.Sprint(settings.Behavior.SaveBehavior))
		fmt.Printf("  %-22s %s\n", "view_mode:", ui.Code.Sprint(settings.Behavior.ViewMode))
		fmt.Printf("  %-22s %t\n", "open_decrypted_beside:", settings.Behavior.OpenDecryptedBeside)
		fmt.Printf("  %-22s %t\n", "auto_close_paired_tab:", settings.Behavior.AutoClosePairedTab)
		fmt.Printf("  %-22s %dms\n", "cooldown:", settings.Behavior.CooldownMillis)
		fmt.Println()
		fmt.Printf("  %-22s %s\n", "sops.binary:", ui.Code.Sprint(settings.Sops.Binary))
		fmt.Printf("  %-22s %ds\n", "sops.timeout:", settings.Sops.TimeoutSeconds)
		fmt.Println()

		editorCommand := settings.Editor.Command
		if editorCommand == "" {
			editorCommand = "$EDITOR"
		}
		fmt.Printf("  %-22s %s\n", "editor.command:", ui.Code.Sprint(editorCommand))

		tempDir := settings.Editor.TempDir
		if tempDir == "" {
			tempDir = os.TempDir()
		}
		fmt.Printf("  %-22s %s\n", "editor.temp_dir:", ui.Path.Sprint(tempDir))

		return nil
	},
}
