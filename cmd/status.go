package cmd

import (
	"fmt"

	"github.com/JinxCappa/SOPSie/internal/ui"
	"github.com/JinxCappa/SOPSie/internal/view"
	"github.com/JinxCappa/SOPSie/internal/workflows"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status [files...]",
	Short: "Show the encryption state of governed files",
	Long: `Lists every file governed by .sops.yaml with its current state.

A governed file should be encrypted whenever you are not actively
working on it. Plaintext entries usually mean a decrypt was never
followed by an encrypt. The summary also reports leftover ephemeral
views from crashed edit sessions; remove them with 'sopsie clean'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting status command")
		spinner, cleanup := startSpinner("Inspecting governed files...", verbose)
		defer cleanup()

		env, err := loadEnv()
		if err != nil || env == nil {
			return err
		}

		result, err := workflows.Status(cmd.Context(), env, workflows.StatusOptions{Paths: args})
		if err != nil {
			return Logger.ErrorfAndReturn("failed to inspect project: %v", err)
		}

		spinner.FinalMSG = ""
		cleanup()

		fmt.Println(ui.Highlight.Sprint("Project: ") + ui.Path.Sprint(result.Root))
		fmt.Println(ui.Highlight.Sprint("Rules:   ") + ui.Path.Sprint(result.ConfigPath))
		fmt.Println()

		if len(result.Files) == 0 {
			fmt.Println(ui.Muted.Sprint("No governed files found."))
			return nil
		}

		for _, file := range result.Files {
			fmt.Printf("  %s  %s\n", stateBadge(file.State), file.Path)
		}
		fmt.Println()

		if result.PlainTextCount > 0 {
			fmt.Println(ui.Warning.Sprint("⚠") + fmt.Sprintf(" %d governed file(s) hold plaintext", result.PlainTextCount))
			fmt.Println(ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("sopsie encrypt") + " to secure them")
		} else {
			fmt.Println(ui.Success.Sprint("✓") + " All governed files are encrypted")
		}

		if result.LeftoverViews > 0 {
			fmt.Println(ui.Warning.Sprint("⚠") + fmt.Sprintf(" %d leftover decrypted view(s) in the ephemeral store", result.LeftoverViews))
			fmt.Println(ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("sopsie clean") + " to remove them")
		}

		return nil
	},
}

// stateBadge renders a fixed-width colored label for a file state.
func stateBadge(state view.EncryptionState) string {
	switch state {
	case view.StateEncrypted:
		return ui.Success.Sprint("encrypted")
	case view.StatePlainText:
		return ui.Warning.Sprint("plaintext")
	default:
		return ui.Muted.Sprint("unreadable")
	}
}
