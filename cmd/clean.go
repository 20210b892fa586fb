package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/JinxCappa/SOPSie/internal/ui"
	"github.com/JinxCappa/SOPSie/internal/workflows"

	"github.com/spf13/cobra"
)

var (
	cleanForce  bool
	cleanDryRun bool
)

func init() {
	cleanCmd.Flags().BoolVar(&cleanForce, "force", false, "skip confirmation prompt")
	cleanCmd.Flags().BoolVar(&cleanDryRun, "dry-run", false, "show what would be removed without making changes")
}

// resetCleanCommandState resets the clean command's global state for testing.
func resetCleanCommandState() {
	cleanForce = false
	cleanDryRun = false
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove leftover decrypted views",
	Long: `Removes leftover plaintext files from the ephemeral store.

A leftover is a decrypted view whose edit session ended without cleanup,
usually because the process crashed or was killed. These files hold
plaintext secrets and should not linger.

Use --dry-run to preview what would be removed.
Use --force to skip the confirmation prompt.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting clean command")

		env, err := loadEnv()
		if err != nil || env == nil {
			return err
		}

		preview, err := workflows.Clean(cmd.Context(), env, workflows.CleanOptions{DryRun: true})
		if err != nil {
			return Logger.ErrorfAndReturn("failed to inspect ephemeral store: %v", err)
		}

		if len(preview.Leftovers) == 0 {
			fmt.Println(ui.Success.Sprint("✓") + " No leftover decrypted views found. Nothing to clean.")
			return nil
		}

		if cleanDryRun {
			fmt.Printf("[dry-run] Would remove %d leftover file(s):\n", len(preview.Leftovers))
		} else {
			fmt.Printf("Found %d leftover decrypted view(s):\n\n", len(preview.Leftovers))
		}

		for _, path := range preview.Leftovers {
			fmt.Printf("  %s\n", ui.Path.Sprint(path))
		}

		if cleanDryRun {
			fmt.Println("\nNo changes made.")
			return nil
		}

		if !cleanForce {
			fmt.Println("\nThese files hold plaintext secrets and will be permanently deleted.")
			fmt.Println()

			if !confirmCleanAction() {
				fmt.Println("Aborted.")
				return nil
			}
		}

		result, err := workflows.Clean(cmd.Context(), env, workflows.CleanOptions{})
		if err != nil {
			return Logger.ErrorfAndReturn("failed to clean ephemeral store: %v", err)
		}

		fmt.Printf("%s Removed %d leftover file(s)\n", ui.Success.Sprint("✓"), result.RemovedCount)
		return nil
	},
}

// confirmCleanAction prompts the user to confirm the clean operation.
func confirmCleanAction() bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print("Do you want to continue? [y/N]: ")
	response, err := reader.ReadString('\n')
	if err != nil {
		Logger.Errorf("Failed to read response: %v", err)
		return false
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
