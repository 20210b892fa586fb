package cmd

import (
	"errors"
	"fmt"

	kerrors "github.com/JinxCappa/SOPSie/internal/errors"
	"github.com/JinxCappa/SOPSie/internal/ui"
	"github.com/JinxCappa/SOPSie/internal/workflows"

	"github.com/spf13/cobra"
)

var editReadOnly bool

func init() {
	editCmd.Flags().BoolVar(&editReadOnly, "read-only", false, "open a read-only preview instead of a writable view")
}

// resetEditCommandState resets the edit command's global state for testing.
func resetEditCommandState() {
	editReadOnly = false
}

var editCmd = &cobra.Command{
	Use:   "edit <file>",
	Short: "Edit an encrypted file through a decrypted view",
	Long: `Opens a decrypted view of a governed file in your editor.

The plaintext lives in a private temp directory for the duration of the
session. What happens on save depends on your save_behavior setting:

  auto-encrypt  every save re-encrypts straight to the source
  prompt        each save asks whether to encrypt (default)
  manual        saves accumulate until the view is closed

When the editor closes the view, the plaintext file is deleted. The
source file is never rewritten unless encryption succeeded.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting edit command for %s", args[0])

		env, err := loadEnv()
		if err != nil || env == nil {
			return err
		}

		// No spinner here: the external editor owns the terminal.
		result, err := workflows.Edit(cmd.Context(), env, workflows.EditOptions{
			Path:     args[0],
			ReadOnly: editReadOnly,
		})
		if err != nil {
			return formatFileError(args[0], err)
		}

		fmt.Println(ui.Success.Sprint("✓") + " Session for " + ui.Path.Sprint(result.Source) + " closed, plaintext removed")
		return nil
	},
}

// formatFileError prints a friendly message for the well-known failure
// modes of file-scoped commands and returns the error for exit status.
func formatFileError(path string, err error) error {
	switch {
	case errors.Is(err, kerrors.ErrNotGoverned):
		fmt.Println(notGovernedMessage(path))
	case errors.Is(err, kerrors.ErrInvalidFile):
		fmt.Println(ui.Error.Sprint("✗") + " " + ui.Path.Sprint(path) + " does not carry a sops envelope")
		fmt.Println(ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("sopsie encrypt "+path) + " first")
	case errors.Is(err, kerrors.ErrKeyAccessDenied):
		fmt.Println(ui.Error.Sprint("✗") + " sops could not access a decryption key for " + ui.Path.Sprint(path))
	case errors.Is(err, kerrors.ErrCliNotFound):
		fmt.Println(ui.Error.Sprint("✗") + " The sops binary was not found")
		fmt.Println(ui.Info.Sprint("→") + " Install sops or set " + ui.Code.Sprint("sops.binary") + " in your config")
	default:
		Logger.Errorf("%v", err)
	}
	return err
}
