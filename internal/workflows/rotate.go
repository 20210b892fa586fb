package workflows

import (
	"context"
	"fmt"
	"os"

	"github.com/JinxCappa/SOPSie/internal/audit"
	kerrors "github.com/JinxCappa/SOPSie/internal/errors"
	"github.com/JinxCappa/SOPSie/internal/sops"
)

// RotateOptions configures the rotate and updatekeys workflows.
type RotateOptions struct {
	// Paths are files, directories, or globs to process. Empty means
	// every governed file under the project root.
	Paths []string
}

// RotateResult contains the outcome of a rotate or updatekeys operation.
type RotateResult struct {
	// Processed are the files that were rewritten.
	Processed []string

	// Skipped are governed files that were not encrypted.
	Skipped []string
}

// Rotate generates a fresh data key for each governed encrypted file and
// re-encrypts it in place. Plaintext files are skipped; they have no
// data key to rotate.
//
// Returns ErrNoFilesFound when nothing governed matches.
func Rotate(ctx context.Context, env *Env, opts RotateOptions) (*RotateResult, error) {
	return forEachEncrypted(ctx, env, opts, "rotate", env.Executor.Rotate)
}

// UpdateKeys re-encrypts each governed file's data key against the
// current recipients in .sops.yaml. Run it after adding or removing a
// recipient.
//
// Returns ErrNoFilesFound when nothing governed matches.
func UpdateKeys(ctx context.Context, env *Env, opts RotateOptions) (*RotateResult, error) {
	return forEachEncrypted(ctx, env, opts, "updatekeys", env.Executor.UpdateKeys)
}

func forEachEncrypted(ctx context.Context, env *Env, opts RotateOptions, operation string, apply func(context.Context, string) error) (*RotateResult, error) {
	files, err := env.Matcher.ResolveGoverned(opts.Paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, kerrors.ErrNoFilesFound
	}

	result := &RotateResult{}
	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			return result, fmt.Errorf("reading %s: %w", path, err)
		}
		if !sops.IsEncrypted(content) {
			env.Logger.Debugf("%s is not encrypted, skipping %s", path, operation)
			result.Skipped = append(result.Skipped, path)
			continue
		}

		env.Logger.Infof("Running %s on %s", operation, path)
		if err := apply(ctx, path); err != nil {
			return result, err
		}
		result.Processed = append(result.Processed, path)
	}

	if len(result.Processed) > 0 {
		audit.Log(audit.Entry{Operation: operation, Files: result.Processed})
	}
	return result, nil
}
