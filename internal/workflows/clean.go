package workflows

import (
	"context"
	"os"
	"path/filepath"

	"github.com/JinxCappa/SOPSie/internal/audit"
	"github.com/JinxCappa/SOPSie/internal/view"
)

// CleanOptions configures the clean workflow.
type CleanOptions struct {
	// DryRun previews what would be removed without making changes.
	DryRun bool
}

// CleanResult contains the outcome of a clean operation.
type CleanResult struct {
	// Leftovers are the ephemeral files found in the store.
	Leftovers []string

	// RemovedCount is the number of files removed (0 if dry-run).
	RemovedCount int

	// DryRun indicates whether this was a dry-run.
	DryRun bool
}

// Clean removes leftover plaintext files from the ephemeral store.
// Leftovers appear when an edit session crashes before its cleanup runs.
func Clean(ctx context.Context, env *Env, opts CleanOptions) (*CleanResult, error) {
	store, err := view.NewStore(env.Settings.Editor.TempDir, env.Logger)
	if err != nil {
		return nil, err
	}

	result := &CleanResult{DryRun: opts.DryRun}

	entries, err := os.ReadDir(store.Dir())
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			result.Leftovers = append(result.Leftovers, filepath.Join(store.Dir(), entry.Name()))
		}
	}

	if opts.DryRun || len(result.Leftovers) == 0 {
		return result, nil
	}

	removed, err := store.Purge()
	if err != nil {
		return result, err
	}
	result.RemovedCount = removed

	audit.Log(audit.Entry{Operation: "clean", RemovedCount: removed})
	return result, nil
}
