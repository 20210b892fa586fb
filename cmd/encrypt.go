package cmd

import (
	"errors"
	"fmt"

	kerrors "github.com/JinxCappa/SOPSie/internal/errors"
	"github.com/JinxCappa/SOPSie/internal/ui"
	"github.com/JinxCappa/SOPSie/internal/utils"
	"github.com/JinxCappa/SOPSie/internal/workflows"

	"github.com/spf13/cobra"
)

var (
	encryptDryRun bool
	decryptDryRun bool
)

func init() {
	encryptCmd.Flags().BoolVar(&encryptDryRun, "dry-run", false, "show which files would be encrypted without changing them")
	decryptCmd.Flags().BoolVar(&decryptDryRun, "dry-run", false, "show which files would be decrypted without changing them")
}

// resetCryptoCommandState resets the encrypt and decrypt commands' global state for testing.
func resetCryptoCommandState() {
	encryptDryRun = false
	decryptDryRun = false
}

var encryptCmd = &cobra.Command{
	Use:   "encrypt [files...]",
	Short: "Encrypt governed plaintext files in place",
	Long: `Rewrites governed plaintext files with their encrypted form.

Without arguments, every file matched by a creation rule in .sops.yaml
is processed. Files that already carry a sops envelope are skipped, so
the command is safe to run repeatedly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting encrypt command")
		spinner, cleanup := startSpinner("Encrypting governed files...", verbose)
		defer cleanup()

		env, err := loadEnv()
		if err != nil || env == nil {
			return err
		}

		result, err := workflows.Encrypt(cmd.Context(), env, workflows.EncryptOptions{Paths: args, DryRun: encryptDryRun})
		if err != nil {
			if errors.Is(err, kerrors.ErrNoFilesFound) {
				spinner.FinalMSG = ui.Error.Sprint("✗") + " No governed files found under " + ui.Path.Sprint(env.Matcher.Root())
				return nil
			}
			spinner.FinalMSG = ui.Error.Sprint("✗") + " Encryption failed\n" + ui.Error.Sprint("Error: ") + err.Error()
			return nil
		}

		if len(result.Encrypted) == 0 {
			spinner.FinalMSG = ui.Success.Sprint("✓") + " Nothing to do, all governed files are already encrypted"
			return nil
		}

		if result.DryRun {
			spinner.FinalMSG = ui.Info.Sprint("ℹ") + fmt.Sprintf(" [dry-run] Would encrypt %d file(s):", len(result.Encrypted)) +
				utils.FormatPaths(result.Encrypted)
			return nil
		}

		spinner.FinalMSG = ui.Success.Sprint("✓") + fmt.Sprintf(" Encrypted %d file(s):", len(result.Encrypted)) +
			utils.FormatPaths(result.Encrypted) +
			ui.Info.Sprint("→") + " The plaintext content is gone from disk"
		return nil
	},
}

var decryptCmd = &cobra.Command{
	Use:   "decrypt [files...]",
	Short: "Decrypt governed files in place",
	Long: `Rewrites governed encrypted files with their plaintext form.

The files stay decrypted on disk until you run 'sopsie encrypt' again.
Prefer 'sopsie edit' or 'sopsie view' when you only need the plaintext
briefly; they never leave plaintext behind.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting decrypt command")
		spinner, cleanup := startSpinner("Decrypting governed files...", verbose)
		defer cleanup()

		env, err := loadEnv()
		if err != nil || env == nil {
			return err
		}

		result, err := workflows.Decrypt(cmd.Context(), env, workflows.DecryptOptions{Paths: args, DryRun: decryptDryRun})
		if err != nil {
			if errors.Is(err, kerrors.ErrNoFilesFound) {
				spinner.FinalMSG = ui.Error.Sprint("✗") + " No governed files found under " + ui.Path.Sprint(env.Matcher.Root())
				return nil
			}
			spinner.FinalMSG = ui.Error.Sprint("✗") + " Decryption failed\n" + ui.Error.Sprint("Error: ") + err.Error()
			return nil
		}

		if len(result.Decrypted) == 0 {
			spinner.FinalMSG = ui.Success.Sprint("✓") + " Nothing to do, no governed file holds ciphertext"
			return nil
		}

		if result.DryRun {
			spinner.FinalMSG = ui.Info.Sprint("ℹ") + fmt.Sprintf(" [dry-run] Would decrypt %d file(s):", len(result.Decrypted)) +
				utils.FormatPaths(result.Decrypted)
			return nil
		}

		spinner.FinalMSG = ui.Warning.Sprint("⚠") + fmt.Sprintf(" Decrypted %d file(s):", len(result.Decrypted)) +
			utils.FormatPaths(result.Decrypted) +
			ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("sopsie encrypt") + " before committing"
		return nil
	},
}
