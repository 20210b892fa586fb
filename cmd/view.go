package cmd

import (
	"fmt"
	"os"

	"github.com/JinxCappa/SOPSie/internal/ui"
	"github.com/JinxCappa/SOPSie/internal/utils"
	"github.com/JinxCappa/SOPSie/internal/workflows"

	"github.com/spf13/cobra"
)

var (
	viewStdout bool
	viewPeek   bool
)

func init() {
	viewCmd.Flags().BoolVar(&viewStdout, "stdout", false, "print the plaintext to stdout instead of opening the editor")
	viewCmd.Flags().BoolVar(&viewPeek, "peek", false, "show the plaintext on the terminal and clear it after Enter")
}

// resetViewCommandState resets the view command's global state for testing.
func resetViewCommandState() {
	viewStdout = false
	viewPeek = false
}

var viewCmd = &cobra.Command{
	Use:   "view <file>",
	Short: "Show the decrypted content of an encrypted file",
	Long: `Shows a governed file's plaintext without leaving it on disk.

By default this opens a read-only decrypted view in your editor, same as
'sopsie edit --read-only'. Two alternatives skip the editor:

  --stdout  print the plaintext to stdout (for piping)
  --peek    print to the terminal, wait for Enter, then clear the screen

With --peek nothing is written anywhere; the plaintext only ever exists
in memory and on your terminal.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting view command for %s", args[0])

		env, err := loadEnv()
		if err != nil || env == nil {
			return err
		}

		if !viewStdout && !viewPeek {
			result, err := workflows.Edit(cmd.Context(), env, workflows.EditOptions{
				Path:     args[0],
				ReadOnly: true,
			})
			if err != nil {
				return formatFileError(args[0], err)
			}
			fmt.Println(ui.Success.Sprint("✓") + " Preview of " + ui.Path.Sprint(result.Source) + " closed, plaintext removed")
			return nil
		}

		result, err := workflows.View(cmd.Context(), env, workflows.ViewOptions{Path: args[0]})
		if err != nil {
			return formatFileError(args[0], err)
		}

		if viewPeek {
			return peekPlaintext(result.Plaintext)
		}

		if utils.IsStdoutTerminal() {
			Logger.Warnf("Printing plaintext to an interactive terminal; it will stay in your scrollback")
		}
		_, err = os.Stdout.Write(result.Plaintext)
		return err
	},
}

// peekPlaintext shows content on the controlling terminal, waits for
// Enter, and clears the screen so nothing lingers in the scrollback.
func peekPlaintext(content []byte) error {
	if !utils.IsTTYAvailable() {
		return Logger.ErrorfAndReturn("--peek needs a terminal; use --stdout when piping")
	}

	if err := utils.WriteToTTY(string(content)); err != nil {
		return Logger.ErrorfAndReturn("failed to write to terminal: %v", err)
	}
	if err := utils.WriteToTTY("\n[press Enter to clear]"); err != nil {
		return Logger.ErrorfAndReturn("failed to write to terminal: %v", err)
	}
	if err := utils.WaitForEnterFromTTY(); err != nil {
		return Logger.ErrorfAndReturn("failed to read from terminal: %v", err)
	}
	return utils.ClearScreen()
}
