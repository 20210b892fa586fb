package errors

import (
	"errors"
	"fmt"
)

// Executor errors classify failures of the external sops tool.
var (
	// ErrCliNotFound indicates the sops binary could not be located.
	ErrCliNotFound = errors.New("sops binary not found")

	// ErrTimeout indicates the sops invocation exceeded the configured timeout.
	ErrTimeout = errors.New("sops invocation timed out")

	// ErrKeyAccessDenied indicates sops could not access a decryption key.
	ErrKeyAccessDenied = errors.New("access to decryption key denied")

	// ErrConfigNotFound indicates no .sops.yaml rule file could be found.
	ErrConfigNotFound = errors.New("sops rule file not found")

	// ErrConfigParse indicates the .sops.yaml rule file is malformed.
	ErrConfigParse = errors.New("sops rule file is invalid")

	// ErrInvalidFile indicates the target file is not a valid sops document.
	ErrInvalidFile = errors.New("file is not a valid sops document")

	// ErrEncryptionFailed indicates sops failed to encrypt the content.
	ErrEncryptionFailed = errors.New("encryption failed")

	// ErrDecryptionFailed indicates sops failed to decrypt the file.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrUnknown indicates a sops failure that could not be classified.
	ErrUnknown = errors.New("sops invocation failed")
)

// Session errors indicate issues with the decrypted-view lifecycle.
var (
	// ErrNoOriginatingSource indicates an ephemeral file has no tracked
	// source document.
	ErrNoOriginatingSource = errors.New("no originating source for ephemeral file")

	// ErrNotManaged indicates the path is neither a governed document nor
	// a tracked ephemeral file.
	ErrNotManaged = errors.New("file is not managed")

	// ErrSaveCancelled indicates the user cancelled the save prompt; the
	// underlying save must be aborted.
	ErrSaveCancelled = errors.New("save cancelled by user")

	// ErrNotGoverned indicates no rule in .sops.yaml matches the path.
	ErrNotGoverned = errors.New("no matching rule for file")
)

// Workflow errors cover batch operations driven by the CLI.
var (
	// ErrNoFilesFound indicates an operation found nothing to act on.
	ErrNoFilesFound = errors.New("no files found")

	// ErrInvalidDateFormat indicates a date filter could not be parsed.
	ErrInvalidDateFormat = errors.New("invalid date format")
)

// CommandError preserves the message and details of a failed sops
// invocation while matching its classification sentinel via errors.Is.
type CommandError struct {
	Kind    error  // one of the executor sentinels above
	Message string // human-readable summary
	Details string // raw stderr output, may be empty
}

func (e *CommandError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

func (e *CommandError) Is(target error) bool {
	return target == e.Kind
}

func (e *CommandError) Unwrap() error {
	return e.Kind
}
