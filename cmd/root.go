package cmd

import (
	logger "github.com/JinxCappa/SOPSie/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	verbose bool
	debug   bool
	Logger  logger.Logger

	// RootCmd is the top-level sopsie command.
	RootCmd = &cobra.Command{
		Use:   "sopsie",
		Short: "Manage decrypted views of sops-encrypted files",
		Long: `SOPSie keeps secrets encrypted at rest and decrypted only for the
moment you look at them.

Files governed by .sops.yaml stay encrypted in the repository. SOPSie
opens ephemeral decrypted views in your editor, re-encrypts edits back
to the source, and removes the plaintext when the view closes.

Common commands:
  sopsie edit secrets/app.yaml     # edit through a decrypted view
  sopsie view secrets/app.yaml     # read-only decrypted view
  sopsie status                    # see which files are encrypted
  sopsie clean                     # remove leftover plaintext views

Run 'sopsie help <command>' for more details on a specific command.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			Logger = logger.Logger{
				Verbose: verbose,
				Debug:   debug,
			}
			Logger.Debugf("Initializing sopsie with verbose=%t, debug=%t", verbose, debug)
		},
	}
)

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	RootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")

	RootCmd.AddCommand(editCmd)
	RootCmd.AddCommand(viewCmd)
	RootCmd.AddCommand(encryptCmd)
	RootCmd.AddCommand(decryptCmd)
	RootCmd.AddCommand(rotateCmd)
	RootCmd.AddCommand(updatekeysCmd)
	RootCmd.AddCommand(statusCmd)
	RootCmd.AddCommand(cleanCmd)
	RootCmd.AddCommand(logCmd)
	RootCmd.AddCommand(ConfigCmd)
}

// Helper functions for testing

// GetRootCmd returns the RootCmd for testing.
func GetRootCmd() *cobra.Command {
	return RootCmd
}

// ResetGlobalState resets all global variables to their default values for testing.
func ResetGlobalState() {
	verbose = false
	debug = false
	resetEditCommandState()
	resetViewCommandState()
	resetCryptoCommandState()
	resetCleanCommandState()
	resetLogCommandState()
	resetConfigInitState()
	resetConfigShowState()
	resetCobraFlagState(RootCmd)
}

// resetCobraFlagState clears the Changed marker on every flag so that a
// reused command tree parses like a fresh process.
func resetCobraFlagState(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(flag *pflag.Flag) {
		flag.Changed = false
	})
	cmd.PersistentFlags().VisitAll(func(flag *pflag.Flag) {
		flag.Changed = false
	})
	for _, sub := range cmd.Commands() {
		resetCobraFlagState(sub)
	}
}

// SetLogger sets the logger for testing.
func SetLogger(l logger.Logger) {
	Logger = l
}
