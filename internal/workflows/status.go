package workflows

import (
	"context"
	"os"
	"path/filepath"

	"github.com/JinxCappa/SOPSie/internal/rules"
	"github.com/JinxCappa/SOPSie/internal/sops"
	"github.com/JinxCappa/SOPSie/internal/view"
)

// FileStatus describes one governed file.
type FileStatus struct {
	// Path is relative to the project root.
	Path string

	// State is the file's current encryption state.
	State view.EncryptionState
}

// StatusResult contains a project overview.
type StatusResult struct {
	// Root is the project root (the directory holding .sops.yaml).
	Root string

	// ConfigPath is the absolute path of the rule file.
	ConfigPath string

	// Files are the governed files and their states.
	Files []FileStatus

	// PlainTextCount is how many governed files hold plaintext.
	PlainTextCount int

	// LeftoverViews is how many files linger in the ephemeral store,
	// usually from a crashed edit session.
	LeftoverViews int
}

// StatusOptions configures the status workflow.
type StatusOptions struct {
	// Paths narrow the report to specific files, directories, or globs.
	// Empty means every governed file under the project root.
	Paths []string
}

// Status inspects the governed files and the ephemeral store.
func Status(ctx context.Context, env *Env, opts StatusOptions) (*StatusResult, error) {
	files, err := env.Matcher.ResolveGoverned(opts.Paths)
	if err != nil {
		return nil, err
	}

	result := &StatusResult{
		Root:       env.Matcher.Root(),
		ConfigPath: filepath.Join(env.Matcher.Root(), rules.ConfigFileName),
	}

	for _, path := range files {
		state := view.StateUnknown
		if content, err := os.ReadFile(path); err == nil {
			state = view.ClassifyState(sops.IsEncrypted(content), false)
		}
		if state == view.StatePlainText {
			result.PlainTextCount++
		}

		rel, err := filepath.Rel(result.Root, path)
		if err != nil {
			rel = path
		}
		result.Files = append(result.Files, FileStatus{Path: rel, State: state})
	}

	store, err := view.NewStore(env.Settings.Editor.TempDir, env.Logger)
	if err == nil {
		if entries, err := os.ReadDir(store.Dir()); err == nil {
			for _, entry := range entries {
				if !entry.IsDir() {
					result.LeftoverViews++
				}
			}
		}
	}

	return result, nil
}
