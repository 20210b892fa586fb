package workflows

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/JinxCappa/SOPSie/internal/audit"
	"github.com/JinxCappa/SOPSie/internal/editor"
	kerrors "github.com/JinxCappa/SOPSie/internal/errors"
	"github.com/JinxCappa/SOPSie/internal/sops"
	"github.com/JinxCappa/SOPSie/internal/view"
)

// sessionPollInterval is how often the edit loop checks whether all
// views are gone.
const sessionPollInterval = 200 * time.Millisecond

// EditOptions configures the edit workflow.
type EditOptions struct {
	// Path is the governed encrypted file to edit.
	Path string

	// ReadOnly opens a preview instead of a writable view.
	ReadOnly bool
}

// EditResult contains the outcome of an edit session.
type EditResult struct {
	// Source is the absolute path of the edited file.
	Source string

	// Kind is the kind of view that was opened.
	Kind view.ViewKind
}

// Edit opens a decrypted view of a governed file in the configured
// editor and runs the lifecycle loop until the view is closed. The
// plaintext lives only in the ephemeral store and is removed when the
// session ends.
//
// Returns ErrNotGoverned when no rule matches the file and ErrInvalidFile
// when the file does not carry a sops envelope.
func Edit(ctx context.Context, env *Env, opts EditOptions) (*EditResult, error) {
	source, err := ensureGovernedEncrypted(env, opts.Path)
	if err != nil {
		return nil, err
	}

	surface, err := editor.NewExternal(env.Settings.Editor.Command, env.Logger)
	if err != nil {
		return nil, err
	}

	orch, err := newOrchestrator(env, surface)
	if err != nil {
		_ = surface.Close()
		return nil, err
	}

	kind := view.KindEditInPlace
	open := orch.OpenEditInPlace
	if opts.ReadOnly {
		kind = view.KindPreview
		open = orch.OpenPreview
	}

	if _, err := open(ctx, source); err != nil {
		_ = surface.Close()
		return nil, err
	}

	if err := runSession(ctx, orch, surface); err != nil {
		return nil, err
	}

	return &EditResult{Source: source, Kind: kind}, nil
}

// newOrchestrator wires a view orchestrator from the environment.
func newOrchestrator(env *Env, surface editor.Surface) (*view.Orchestrator, error) {
	policy, err := view.PolicyFromSettings(env.Settings)
	if err != nil {
		return nil, err
	}

	store, err := view.NewStore(env.Settings.Editor.TempDir, env.Logger)
	if err != nil {
		return nil, err
	}

	return view.New(view.Options{
		Surface:            surface,
		Crypto:             env.Executor,
		Rules:              env.Matcher,
		Store:              store,
		Policy:             policy,
		Logger:             env.Logger,
		Cooldown:           time.Duration(env.Settings.Behavior.CooldownMillis) * time.Millisecond,
		Beside:             env.Settings.Behavior.OpenDecryptedBeside,
		AutoClosePairedTab: env.Settings.Behavior.AutoClosePairedTab,
	})
}

// runSession drives the orchestrator's event loop until every view is
// closed or the context is cancelled.
func runSession(ctx context.Context, orch *view.Orchestrator, surface editor.Surface) error {
	done := make(chan error, 1)
	go func() { done <- orch.Run(ctx) }()

	ticker := time.NewTicker(sessionPollInterval)
	defer ticker.Stop()

	for {
		select {
		case err := <-done:
			if errors.Is(err, context.Canceled) {
				_ = surface.Close()
			}
			return err
		case <-ticker.C:
			if len(orch.Sessions()) > 0 {
				continue
			}
			_ = surface.Close()
			if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		}
	}
}

// ensureGovernedEncrypted resolves path and verifies it is a governed
// sops document.
func ensureGovernedEncrypted(env *Env, path string) (string, error) {
	source, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	if !env.Matcher.HasMatchingRule(source) {
		return "", fmt.Errorf("%w: %s", kerrors.ErrNotGoverned, path)
	}

	content, err := os.ReadFile(source)
	if err != nil {
		return "", err
	}
	if !sops.IsEncrypted(content) {
		return "", fmt.Errorf("%w: %s holds plaintext", kerrors.ErrInvalidFile, path)
	}

	return source, nil
}

// ViewOptions configures the view workflow.
type ViewOptions struct {
	// Path is the governed encrypted file to view.
	Path string
}

// ViewResult contains the decrypted content of a governed file.
type ViewResult struct {
	// Source is the absolute path of the viewed file.
	Source string

	// Plaintext is the decrypted content. The caller decides how to
	// render it and must not persist it.
	Plaintext []byte
}

// View decrypts a governed file into memory for display.
//
// Returns ErrNotGoverned when no rule matches the file and ErrInvalidFile
// when the file does not carry a sops envelope.
func View(ctx context.Context, env *Env, opts ViewOptions) (*ViewResult, error) {
	source, err := ensureGovernedEncrypted(env, opts.Path)
	if err != nil {
		return nil, err
	}

	plaintext, err := env.Executor.Decrypt(ctx, source)
	if err != nil {
		return nil, err
	}

	audit.Log(audit.Entry{Operation: "view", Source: source})
	return &ViewResult{Source: source, Plaintext: plaintext}, nil
}
