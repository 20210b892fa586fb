// Package errors provides typed error values for the SOPSie application.
//
// Using sentinel errors allows callers to handle specific error conditions
// programmatically with errors.Is() rather than string matching. This makes
// error handling more robust and refactoring-safe.
//
// # Error Categories
//
// Errors are grouped by category:
//
//   - Executor errors: Failures of the external sops tool (ErrTimeout,
//     ErrDecryptionFailed, ErrKeyAccessDenied, ...)
//   - Session errors: Decrypted-view lifecycle issues
//     (ErrNoOriginatingSource, ErrSaveCancelled)
//
// # Usage
//
// Return errors from internal packages:
//
//	if session == nil {
//	    return serrors.ErrNoOriginatingSource
//	}
//
// Handle errors in the CLI layer:
//
//	text, err := exec.Decrypt(ctx, path)
//	if errors.Is(err, serrors.ErrTimeout) {
//	    // Show user-friendly message
//	}
//
// The executor wraps sops failures in CommandError so the original stderr
// is preserved while errors.Is still matches the classification sentinel.
package errors
