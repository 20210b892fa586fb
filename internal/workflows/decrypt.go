package workflows

import (
	"context"
	"fmt"
	"os"

	"github.com/JinxCappa/SOPSie/internal/audit"
	kerrors "github.com/JinxCappa/SOPSie/internal/errors"
	"github.com/JinxCappa/SOPSie/internal/sops"
)

// DecryptOptions configures the decrypt workflow.
type DecryptOptions struct {
	// Paths are files, directories, or globs to decrypt. Empty means
	// every governed file under the project root.
	Paths []string

	// DryRun reports which files would be decrypted without touching
	// them.
	DryRun bool
}

// DecryptResult contains the outcome of a decrypt operation.
type DecryptResult struct {
	// Decrypted are the files rewritten with plaintext.
	Decrypted []string

	// Skipped are governed files that were already plaintext.
	Skipped []string

	// DryRun reports whether the files were actually rewritten.
	DryRun bool
}

// Decrypt rewrites governed encrypted files with their plaintext form.
// The files stay decrypted on disk until re-encrypted; prefer the edit
// and view commands when the plaintext is only needed briefly.
//
// Returns ErrNoFilesFound when nothing governed matches.
func Decrypt(ctx context.Context, env *Env, opts DecryptOptions) (*DecryptResult, error) {
	files, err := env.Matcher.ResolveGoverned(opts.Paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, kerrors.ErrNoFilesFound
	}

	result := &DecryptResult{DryRun: opts.DryRun}
	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			return result, fmt.Errorf("reading %s: %w", path, err)
		}
		if !sops.IsEncrypted(content) {
			env.Logger.Debugf("%s is not encrypted, skipping", path)
			result.Skipped = append(result.Skipped, path)
			continue
		}

		if opts.DryRun {
			result.Decrypted = append(result.Decrypted, path)
			continue
		}

		env.Logger.Infof("Decrypting %s", path)
		if err := env.Executor.DecryptFile(ctx, path); err != nil {
			return result, err
		}
		result.Decrypted = append(result.Decrypted, path)
	}

	if len(result.Decrypted) > 0 && !opts.DryRun {
		audit.Log(audit.Entry{Operation: "decrypt", Files: result.Decrypted})
	}
	return result, nil
}
