package workflows

import (
	"context"
	"fmt"
	"os"

	"github.com/JinxCappa/SOPSie/internal/audit"
	kerrors "github.com/JinxCappa/SOPSie/internal/errors"
	"github.com/JinxCappa/SOPSie/internal/sops"
)

// EncryptOptions configures the encrypt workflow.
type EncryptOptions struct {
	// Paths are files, directories, or globs to encrypt. Empty means
	// every governed file under the project root.
	Paths []string

	// DryRun reports which files would be encrypted without touching
	// them.
	DryRun bool
}

// EncryptResult contains the outcome of an encrypt operation.
type EncryptResult struct {
	// Encrypted are the files rewritten with ciphertext.
	Encrypted []string

	// Skipped are governed files that already carried a sops envelope.
	Skipped []string

	// DryRun reports whether the files were actually rewritten.
	DryRun bool
}

// Encrypt rewrites governed plaintext files with their encrypted form.
// Files that already carry a sops envelope are skipped, so running it
// twice is safe.
//
// Returns ErrNoFilesFound when nothing governed matches.
func Encrypt(ctx context.Context, env *Env, opts EncryptOptions) (*EncryptResult, error) {
	files, err := env.Matcher.ResolveGoverned(opts.Paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, kerrors.ErrNoFilesFound
	}

	result := &EncryptResult{DryRun: opts.DryRun}
	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			return result, fmt.Errorf("reading %s: %w", path, err)
		}
		if sops.IsEncrypted(content) {
			env.Logger.Debugf("%s is already encrypted, skipping", path)
			result.Skipped = append(result.Skipped, path)
			continue
		}

		if opts.DryRun {
			result.Encrypted = append(result.Encrypted, path)
			continue
		}

		env.Logger.Infof("Encrypting %s", path)
		if err := env.Executor.EncryptFile(ctx, path); err != nil {
			return result, err
		}
		result.Encrypted = append(result.Encrypted, path)
	}

	if len(result.Encrypted) > 0 && !opts.DryRun {
		audit.Log(audit.Entry{Operation: "encrypt", Files: result.Encrypted})
	}
	return result, nil
}
