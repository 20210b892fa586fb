package cmd

import (
	"context"
	"errors"
	"fmt"

	kerrors "github.com/JinxCappa/SOPSie/internal/errors"
	"github.com/JinxCappa/SOPSie/internal/ui"
	"github.com/JinxCappa/SOPSie/internal/utils"
	"github.com/JinxCappa/SOPSie/internal/workflows"

	"github.com/spf13/cobra"
)

var rotateCmd = &cobra.Command{
	Use:   "rotate [files...]",
	Short: "Rotate the data keys of encrypted files",
	Long: `Generates a fresh data key for each governed encrypted file and
re-encrypts it in place.

Rotate after a key may have been exposed, or on a regular schedule.
Plaintext files are skipped; they have no data key to rotate.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting rotate command")
		return runKeyMaintenance(cmd.Context(), args, "Rotating data keys...", workflows.Rotate)
	},
}

var updatekeysCmd = &cobra.Command{
	Use:   "updatekeys [files...]",
	Short: "Re-encrypt data keys against the current recipients",
	Long: `Re-encrypts each governed file's data key against the recipients
currently listed in .sops.yaml.

Run this after adding or removing a recipient so every file reflects
the new key set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting updatekeys command")
		return runKeyMaintenance(cmd.Context(), args, "Updating data keys...", workflows.UpdateKeys)
	},
}

// runKeyMaintenance runs rotate or updatekeys with shared output handling.
func runKeyMaintenance(ctx context.Context, args []string, message string, run func(context.Context, *workflows.Env, workflows.RotateOptions) (*workflows.RotateResult, error)) error {
	spinner, cleanup := startSpinner(message, verbose)
	defer cleanup()

	env, err := loadEnv()
	if err != nil || env == nil {
		return err
	}

	result, err := run(ctx, env, workflows.RotateOptions{Paths: args})
	if err != nil {
		if errors.Is(err, kerrors.ErrNoFilesFound) {
			spinner.FinalMSG = ui.Error.Sprint("✗") + " No governed files found under " + ui.Path.Sprint(env.Matcher.Root())
			return nil
		}
		spinner.FinalMSG = ui.Error.Sprint("✗") + " Key maintenance failed\n" + ui.Error.Sprint("Error: ") + err.Error()
		return nil
	}

	if len(result.Processed) == 0 {
		spinner.FinalMSG = ui.Error.Sprint("✗") + " No encrypted files to process\n" +
			ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("sopsie encrypt") + " first"
		return nil
	}

	spinner.FinalMSG = ui.Success.Sprint("✓") + fmt.Sprintf(" Processed %d file(s):", len(result.Processed)) +
		utils.FormatPaths(result.Processed)
	return nil
}
