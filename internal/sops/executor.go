package sops

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	serrors "github.com/JinxCappa/SOPSie/internal/errors"
	logger "github.com/JinxCappa/SOPSie/internal/logging"
)

// killGracePeriod is how long a timed-out sops process gets between
// SIGTERM and SIGKILL.
const killGracePeriod = 3 * time.Second

// Executor invokes the external sops binary. All cryptography is
// delegated; SOPSie only shuttles text in and out.
type Executor struct {
	Binary  string
	Timeout time.Duration
	Logger  logger.Logger
}

// NewExecutor returns an Executor for the given binary and per-call timeout.
func NewExecutor(binary string, timeout time.Duration, log logger.Logger) *Executor {
	if binary == "" {
		binary = "sops"
	}
	return &Executor{Binary: binary, Timeout: timeout, Logger: log}
}

// Decrypt returns the plaintext of an encrypted file.
func (e *Executor) Decrypt(ctx context.Context, path string) ([]byte, error) {
	out, err := e.run(ctx, nil, "--decrypt", path)
	if err != nil {
		return nil, e.classify(err, serrors.ErrDecryptionFailed)
	}
	return out, nil
}

// EncryptContent encrypts plaintext content as if it were the file at
// path, so the result can be written back to path. The content is passed
// on stdin and never touches disk; --filename-override makes sops apply
// the creation rules that govern path.
func (e *Executor) EncryptContent(ctx context.Context, content []byte, path string) ([]byte, error) {
	format := FormatForPath(path)
	out, err := e.run(ctx, content,
		"--encrypt",
		"--input-type", format,
		"--output-type", format,
		"--filename-override", path,
		"/dev/stdin")
	if err != nil {
		return nil, e.classify(err, serrors.ErrEncryptionFailed)
	}
	return out, nil
}

// EncryptFile encrypts a plaintext file in place.
func (e *Executor) EncryptFile(ctx context.Context, path string) error {
	if _, err := e.run(ctx, nil, "--encrypt", "--in-place", path); err != nil {
		return e.classify(err, serrors.ErrEncryptionFailed)
	}
	return nil
}

// DecryptFile decrypts an encrypted file in place.
func (e *Executor) DecryptFile(ctx context.Context, path string) error {
	if _, err := e.run(ctx, nil, "--decrypt", "--in-place", path); err != nil {
		return e.classify(err, serrors.ErrDecryptionFailed)
	}
	return nil
}

// UpdateKeys re-encrypts the file's data key against the current
// recipients in .sops.yaml.
func (e *Executor) UpdateKeys(ctx context.Context, path string) error {
	if _, err := e.run(ctx, nil, "updatekeys", "--yes", path); err != nil {
		return e.classify(err, serrors.ErrUnknown)
	}
	return nil
}

// Rotate generates a new data key and re-encrypts the file in place.
func (e *Executor) Rotate(ctx context.Context, path string) error {
	if _, err := e.run(ctx, nil, "--rotate", "--in-place", path); err != nil {
		return e.classify(err, serrors.ErrUnknown)
	}
	return nil
}

// runError carries the raw outcome of a sops invocation for classify.
type runError struct {
	err      error
	stderr   string
	timedOut bool
}

func (r *runError) Error() string { return r.err.Error() }

func (e *Executor) run(ctx context.Context, stdin []byte, args ...string) ([]byte, error) {
	runCtx := ctx
	var cancel context.CancelFunc
	if e.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	e.Logger.Debugf("Running %s %s", e.Binary, strings.Join(args, " "))

	cmd := exec.CommandContext(runCtx, e.Binary, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// On timeout, ask the process to exit before forcing it.
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = killGracePeriod

	err := cmd.Run()
	if err != nil {
		timedOut := runCtx.Err() == context.DeadlineExceeded
		e.Logger.Debugf("sops failed (timedOut=%t): %v", timedOut, err)
		return nil, &runError{err: err, stderr: stderr.String(), timedOut: timedOut}
	}

	return stdout.Bytes(), nil
}

// classify maps a failed invocation onto the error taxonomy. fallback is
// the operation-specific kind used when stderr gives nothing better.
func (e *Executor) classify(err error, fallback error) error {
	var run *runError
	if !errors.As(err, &run) {
		return err
	}

	details := strings.TrimSpace(run.stderr)

	if run.timedOut {
		return &serrors.CommandError{
			Kind:    serrors.ErrTimeout,
			Message: fmt.Sprintf("sops did not finish within %s", e.Timeout),
			Details: details,
		}
	}

	if errors.Is(run.err, exec.ErrNotFound) {
		return &serrors.CommandError{
			Kind:    serrors.ErrCliNotFound,
			Message: fmt.Sprintf("%s not found in PATH", e.Binary),
			Details: details,
		}
	}

	kind := fallback
	lower := strings.ToLower(details)
	switch {
	case strings.Contains(lower, "config file not found"),
		strings.Contains(lower, "no matching creation rules"):
		kind = serrors.ErrConfigNotFound
	case strings.Contains(lower, "error loading config"),
		strings.Contains(lower, "error parsing config"):
		kind = serrors.ErrConfigParse
	case strings.Contains(lower, "failed to get the data key"),
		strings.Contains(lower, "no key could be obtained"),
		strings.Contains(lower, "cannot get sops data key"):
		kind = serrors.ErrKeyAccessDenied
	case strings.Contains(lower, "sops metadata not found"),
		strings.Contains(lower, "is not encrypted"):
		kind = serrors.ErrInvalidFile
	}

	return &serrors.CommandError{
		Kind:    kind,
		Message: kind.Error(),
		Details: details,
	}
}

// FormatForPath returns the sops input/output type for a file path.
func FormatForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".json":
		return "json"
	case ".env":
		return "dotenv"
	case ".ini":
		return "ini"
	default:
		base := filepath.Base(path)
		if base == ".env" || strings.HasPrefix(base, ".env.") {
			return "dotenv"
		}
		return "binary"
	}
}
