// Package workflows provides high-level orchestration for SOPSie commands.
//
// Workflows coordinate multiple operations across packages (configs, rules,
// sops, view, audit) to implement complete user-facing features. Each
// workflow handles a single command's business logic, independent of CLI
// concerns like flag parsing, spinners, and output formatting.
//
// # Design Philosophy
//
// The cmd/ package should be a thin layer that:
//   - Parses command-line flags and arguments
//   - Calls the appropriate workflow function
//   - Formats the result for display
//
// Workflows handle everything else:
//   - Discovering the project and loading configuration
//   - Validating that files are governed by .sops.yaml
//   - Performing the core operation
//   - Recording audit trail entries
//
// # Available Workflows
//
// Each command has a corresponding workflow:
//
//   - Edit: Opens a decrypted view in the editor and runs its lifecycle
//   - View: Decrypts a governed file into memory for display
//   - Encrypt: Rewrites governed plaintext files with ciphertext
//   - Decrypt: Rewrites governed encrypted files with plaintext
//   - Rotate: Generates fresh data keys for encrypted files
//   - UpdateKeys: Re-encrypts data keys against current recipients
//   - Status: Reports the state of every governed file
//   - Clean: Removes leftover ephemeral plaintext files
//   - Log: Reads and filters the audit log
//
// # Error Handling
//
// Workflows return typed errors from the internal/errors package, allowing
// the CLI layer to provide appropriate user-facing messages without string
// matching. Use errors.Is() to check for specific error conditions:
//
//	result, err := workflows.Encrypt(ctx, env, opts)
//	if errors.Is(err, kerrors.ErrConfigNotFound) {
//	    // Show user-friendly message about missing .sops.yaml
//	}
//
// # Context Usage
//
// All workflow functions accept a context.Context as their first parameter.
// This enables cancellation, timeouts, and passing request-scoped values.
package workflows
