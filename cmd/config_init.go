package cmd

import (
	"fmt"
	"os"

	"github.com/JinxCappa/SOPSie/internal/configs"
	"github.com/JinxCappa/SOPSie/internal/ui"

	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"
)

var (
	configInitOpenBehavior string
	configInitSaveBehavior string
	configInitViewMode     string
	configInitEditor       string
	configInitForce        bool
)

func init() {
	configInitCmd.Flags().StringVar(&configInitOpenBehavior, "open-behavior", "", "what to do when a governed encrypted file opens (show-as-is, auto-decrypt, decrypted-view)")
	configInitCmd.Flags().StringVar(&configInitSaveBehavior, "save-behavior", "", "what to do when a decrypted view saves (manual, auto-encrypt, prompt)")
	configInitCmd.Flags().StringVar(&configInitViewMode, "view-mode", "", "kind of decrypted view to open (preview, edit)")
	configInitCmd.Flags().StringVar(&configInitEditor, "editor", "", "editor command (defaults to $EDITOR)")
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing config file")
}

// resetConfigInitState resets the config init command's global state for testing.
func resetConfigInitState() {
	configInitOpenBehavior = ""
	configInitSaveBehavior = ""
	configInitViewMode = ""
	configInitEditor = ""
	configInitForce = false
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter configuration file",
	Long: `Writes a config file with the default settings, optionally adjusted
by flags.

The file location honors $SOPSIE_CONFIG, falling back to the platform
config directory. An existing file is only replaced with --force.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting config init command")

		path, err := configs.SettingsPath()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to locate config path: %v", err)
		}
		Logger.Debugf("Config path: %s", path)

		if _, err := os.Stat(path); err == nil && !configInitForce {
			fmt.Println(ui.Warning.Sprint("⚠") + " Config already exists at " + ui.Path.Sprint(path))
			fmt.Println(ui.Info.Sprint("→") + " Use " + ui.Flag.Sprint("--force") + " to overwrite it")
			return nil
		}

		settings := configs.DefaultSettings()
		if configInitOpenBehavior != "" {
			settings.Behavior.OpenBehavior = configInitOpenBehavior
		}
		if configInitSaveBehavior != "" {
			settings.Behavior.SaveBehavior = configInitSaveBehavior
		}
		if configInitViewMode != "" {
			settings.Behavior.ViewMode = configInitViewMode
		}
		if configInitEditor != "" {
			settings.Editor.Command = configInitEditor
		}

		if err := settings.Validate(); err != nil {
			return Logger.ErrorfAndReturn("invalid settings: %v", err)
		}

		if err := configs.SaveSettings(settings); err != nil {
			return Logger.ErrorfAndReturn("failed to write config: %v", err)
		}

		fmt.Println()
		banner := figure.NewColorFigure("SOPSie", "", "green", true)
		banner.Print()
		fmt.Println()

		fmt.Println(ui.Success.Sprint("✓") + " Wrote configuration to " + ui.Path.Sprint(path))
		fmt.Println(ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("sopsie config show") + " to inspect it")
		return nil
	},
}
