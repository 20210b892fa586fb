package cmd

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	kerrors "github.com/JinxCappa/SOPSie/internal/errors"
	"github.com/JinxCappa/SOPSie/internal/ui"
	"github.com/JinxCappa/SOPSie/internal/workflows"
	"github.com/briandowns/spinner"
)

// startSpinner creates and starts a spinner with the given message when not in verbose or debug mode.
// Returns the spinner and a function that should be deferred to clean up.
//
// IMPORTANT: spinner.FinalMSG values do NOT need trailing newlines. The cleanup function
// automatically calls ui.EnsureNewline() on the final message before printing it.
// This ensures consistent output formatting across all commands.
func startSpinner(message string, verbose bool) (*spinner.Spinner, func()) {
	Logger.Debugf("Starting spinner with message: %s", message)
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message

	err := s.Color("cyan")
	if err != nil {
		// If we can't set spinner color, just continue without it.
		Logger.Warnf("Failed to set spinner color: %v", err)
	}

	if !verbose && !debug {
		Logger.Debugf("Starting spinner in non-verbose mode")
		s.Start()
		// Ensure log output is discarded unless in verbose mode.
		log.SetOutput(io.Discard)
	} else {
		Logger.Infof("Running in verbose or debug mode: %s", message)
	}

	cleanup := func() {
		// Restore log output first.
		if !verbose && !debug {
			Logger.Debugf("Restoring log output")
			log.SetOutput(os.Stdout)
		}

		// Ensure final message ends with a newline.
		finalMsg := ""
		if s.FinalMSG != "" {
			finalMsg = ui.EnsureNewline(s.FinalMSG)
			// Clear FinalMSG so s.Stop() doesn't print it.
			s.FinalMSG = ""
		}

		// Stop the spinner first to clear the spinner line.
		if !verbose && !debug {
			Logger.Debugf("Stopping spinner")
			s.Stop()
		}

		// Print final message to stdout (for tests to capture).
		if finalMsg != "" {
			fmt.Print(finalMsg)
		}
	}

	return s, cleanup
}

// loadEnv discovers the project and loads everything a workflow needs.
// A missing .sops.yaml gets a friendly message and a nil Env.
func loadEnv() (*workflows.Env, error) {
	env, err := workflows.LoadEnv(Logger)
	if errors.Is(err, kerrors.ErrConfigNotFound) {
		fmt.Println(ui.Error.Sprint("✗") + " No " + ui.Path.Sprint(".sops.yaml") + " found in this directory or any parent")
		fmt.Println(ui.Info.Sprint("→") + " Run sopsie from inside a project governed by sops")
		return nil, nil
	}
	if err != nil {
		return nil, Logger.ErrorfAndReturn("failed to load project: %v", err)
	}
	return env, nil
}

// notGovernedMessage renders the standard message for files outside the
// creation rules.
func notGovernedMessage(path string) string {
	return ui.Error.Sprint("✗") + " " + ui.Path.Sprint(path) + " is not governed by any rule in " + ui.Path.Sprint(".sops.yaml")
}
