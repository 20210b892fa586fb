package view

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/JinxCappa/SOPSie/internal/audit"
	"github.com/JinxCappa/SOPSie/internal/editor"
	serrors "github.com/JinxCappa/SOPSie/internal/errors"
	logger "github.com/JinxCappa/SOPSie/internal/logging"
	"github.com/JinxCappa/SOPSie/internal/sops"
)

// CryptoExecutor is the slice of the sops executor the orchestrator
// needs. Decryption reads from disk; encryption works on in-memory
// content so plaintext edits never land outside the ephemeral store.
type CryptoExecutor interface {
	Decrypt(ctx context.Context, path string) ([]byte, error)
	EncryptContent(ctx context.Context, content []byte, path string) ([]byte, error)
}

// RuleMatcher reports whether a creation rule in .sops.yaml governs a
// path.
type RuleMatcher interface {
	HasMatchingRule(path string) bool
}

// Choices offered when switching away from a view with unsaved changes.
const (
	ChoiceSaveAndEncrypt = "Save and encrypt"
	ChoiceDiscard        = "Discard changes"
)

// Options configures an Orchestrator.
type Options struct {
	Surface editor.Surface
	Crypto  CryptoExecutor
	Rules   RuleMatcher
	Store   *Store
	Policy  Policy
	Logger  logger.Logger

	// Classify reports whether raw content carries a sops envelope.
	// Defaults to sops.IsEncrypted.
	Classify func([]byte) bool

	// Cooldown is the recently-closed suppression window.
	Cooldown time.Duration

	// Beside opens ephemeral views next to the source document.
	Beside bool

	// PreserveFocus keeps focus on the source when a preview opens.
	PreserveFocus bool

	// AutoClosePairedTab closes the ephemeral view when its source
	// document is closed.
	AutoClosePairedTab bool
}

// Orchestrator owns the decrypted-view lifecycle: it reacts to editor
// events, consults the policy, and drives the executor, store, registry,
// tracker, and guard so their combined state stays consistent.
//
// All public operations and event handlers run under one mutex. Handlers
// re-validate registry state after any operation that could suspend
// (prompting, decrypting), so a session swapped out underneath a prompt
// is never acted on.
type Orchestrator struct {
	opMu sync.Mutex

	surface  editor.Surface
	crypto   CryptoExecutor
	rules    RuleMatcher
	store    *Store
	registry *Registry
	tracker  *Tracker
	guard    *Guard
	policy   Policy
	classify func([]byte) bool
	log      logger.Logger

	beside             bool
	preserveFocus      bool
	autoClosePairedTab bool
}

// New wires an Orchestrator from its collaborators.
func New(opts Options) (*Orchestrator, error) {
	if opts.Surface == nil {
		return nil, fmt.Errorf("view: surface is required")
	}
	if opts.Crypto == nil {
		return nil, fmt.Errorf("view: crypto executor is required")
	}
	if opts.Rules == nil {
		return nil, fmt.Errorf("view: rule matcher is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("view: ephemeral store is required")
	}
	if opts.Classify == nil {
		opts.Classify = sops.IsEncrypted
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = 1500 * time.Millisecond
	}

	o := &Orchestrator{
		surface:            opts.Surface,
		crypto:             opts.Crypto,
		rules:              opts.Rules,
		store:              opts.Store,
		tracker:            NewTracker(),
		guard:              NewGuard(opts.Cooldown),
		policy:             opts.Policy,
		classify:           opts.Classify,
		log:                opts.Logger,
		beside:             opts.Beside,
		preserveFocus:      opts.PreserveFocus,
		autoClosePairedTab: opts.AutoClosePairedTab,
	}
	o.registry = NewRegistry(opts.Logger, o.disposeSession)

	return o, nil
}

// Run consumes editor events until the context is cancelled or the
// surface closes its event stream, then disposes all tracked state.
func (o *Orchestrator) Run(ctx context.Context) error {
	defer o.Dispose(context.WithoutCancel(ctx))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-o.surface.Events():
			if !ok {
				return nil
			}
			o.HandleEvent(ctx, event)
		}
	}
}

// HandleEvent dispatches a single editor event.
func (o *Orchestrator) HandleEvent(ctx context.Context, event editor.Event) {
	o.opMu.Lock()
	defer o.opMu.Unlock()

	o.log.Debugf("editor event: %s %s", event.Type, event.Path)

	switch event.Type {
	case editor.EventOpened, editor.EventFocused:
		o.handleOpened(ctx, event.Path)
	case editor.EventClosed:
		o.handleClosed(ctx, event.Path)
	case editor.EventSaved:
		o.handleSaved(ctx, event.Path)
	}
}

// OpenPreview opens a read-only decrypted view of sourcePath.
func (o *Orchestrator) OpenPreview(ctx context.Context, sourcePath string) (*Session, error) {
	o.opMu.Lock()
	defer o.opMu.Unlock()
	return o.openView(ctx, sourcePath, KindPreview, o.defaultPresentation())
}

// OpenEditInPlace opens a writable decrypted view of sourcePath.
func (o *Orchestrator) OpenEditInPlace(ctx context.Context, sourcePath string) (*Session, error) {
	o.opMu.Lock()
	defer o.opMu.Unlock()
	return o.openView(ctx, sourcePath, KindEditInPlace, o.defaultPresentation())
}

// OpenDecryptedView opens the configured kind of decrypted view.
func (o *Orchestrator) OpenDecryptedView(ctx context.Context, sourcePath string) (*Session, error) {
	o.opMu.Lock()
	defer o.opMu.Unlock()

	kind := KindPreview
	if o.policy.Mode == ModeEditInPlace {
		kind = KindEditInPlace
	}
	return o.openView(ctx, sourcePath, kind, o.defaultPresentation())
}

// SwitchToEditMode replaces the preview owning ephemeralPath with a
// writable view of the same source, in the same placement.
func (o *Orchestrator) SwitchToEditMode(ctx context.Context, ephemeralPath string) (*Session, error) {
	o.opMu.Lock()
	defer o.opMu.Unlock()

	session := o.registry.GetSessionByEphemeral(ephemeralPath)
	if session == nil {
		return nil, fmt.Errorf("%w: %s", serrors.ErrNoOriginatingSource, ephemeralPath)
	}

	o.registry.Untrack(ephemeralPath)
	o.disposeSession(ctx, session)

	return o.openView(ctx, session.SourcePath, KindEditInPlace, session.Presentation)
}

// SwitchToFile closes all tracked views and opens a decrypted view for
// sourcePath. If any view holds unsaved changes the user is asked to
// save, discard, or cancel; cancel leaves everything untouched.
func (o *Orchestrator) SwitchToFile(ctx context.Context, sourcePath string) (*Session, error) {
	o.opMu.Lock()
	defer o.opMu.Unlock()

	var dirty []*Session
	for _, session := range o.registry.Sessions() {
		if session.Dirty {
			dirty = append(dirty, session)
		}
	}

	if len(dirty) > 0 {
		choice, err := o.surface.Confirm(ctx,
			fmt.Sprintf("%d view(s) have changes that are not encrypted back yet.", len(dirty)),
			[]string{ChoiceSaveAndEncrypt, ChoiceDiscard, ChoiceCancel})
		if err != nil {
			return nil, err
		}

		switch choice {
		case ChoiceCancel:
			return nil, nil
		case ChoiceSaveAndEncrypt:
			for _, session := range dirty {
				// Prompting suspended us; the session may be gone.
				if o.registry.GetSessionByEphemeral(session.EphemeralPath) == nil {
					continue
				}
				if err := o.encryptEphemeral(ctx, session); err != nil {
					return nil, err
				}
			}
		}
	}

	o.registry.CloseAllTracked(ctx)

	kind := KindPreview
	if o.policy.Mode == ModeEditInPlace {
		kind = KindEditInPlace
	}
	return o.openView(ctx, sourcePath, kind, o.defaultPresentation())
}

// WillSave applies the save policy to a document that is about to be
// saved. It returns ErrSaveCancelled when the user cancels; the caller
// must then abort the save entirely.
func (o *Orchestrator) WillSave(ctx context.Context, path string) error {
	o.opMu.Lock()
	defer o.opMu.Unlock()

	if session := o.registry.GetSessionByEphemeral(path); session != nil {
		return o.saveEphemeral(ctx, session)
	}

	switch o.policy.DecideOnWillSave(o.tracker.IsDecrypted(path)) {
	case SaveActionAutoEncrypt:
		return o.encryptSourceInPlace(ctx, path)
	case SaveActionPrompt:
		choice, err := o.surface.Confirm(ctx,
			fmt.Sprintf("%s is decrypted. Encrypt before saving?", path),
			[]string{ChoiceEncryptAndSave, ChoiceSaveAsIs, ChoiceCancel})
		if err != nil {
			return err
		}
		switch choice {
		case ChoiceEncryptAndSave:
			return o.encryptSourceInPlace(ctx, path)
		case ChoiceCancel:
			return serrors.ErrSaveCancelled
		}
	}
	return nil
}

// MarkDecrypted records that sourcePath was decrypted in place.
func (o *Orchestrator) MarkDecrypted(sourcePath string) {
	o.tracker.MarkDecrypted(sourcePath)
}

// MarkEncrypted records that sourcePath was re-encrypted.
func (o *Orchestrator) MarkEncrypted(sourcePath string) {
	o.tracker.MarkEncrypted(sourcePath)
}

// IsManagedFile reports whether path is a tracked ephemeral file. The
// decision is registry membership, never the file's name or location.
func (o *Orchestrator) IsManagedFile(path string) bool {
	return o.registry.HasEphemeral(path)
}

// Sessions returns a snapshot of the active sessions.
func (o *Orchestrator) Sessions() []*Session {
	return o.registry.Sessions()
}

// DecryptedSources returns the paths currently decrypted in place.
func (o *Orchestrator) DecryptedSources() []string {
	return o.tracker.Decrypted()
}

// EncryptionStateOf inspects a governed document.
func (o *Orchestrator) EncryptionStateOf(path string) EncryptionState {
	if o.tracker.IsDecrypted(path) {
		return StateDecrypted
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return StateUnknown
	}
	return ClassifyState(o.classify(content), false)
}

// Dispose closes every tracked view and purges the ephemeral store.
// Failures are logged, never raised: disposal must always run to
// completion so plaintext does not outlive the session.
func (o *Orchestrator) Dispose(ctx context.Context) {
	o.opMu.Lock()
	defer o.opMu.Unlock()

	o.registry.CloseAllTracked(ctx)

	if removed, err := o.store.Purge(); err != nil {
		o.log.Warnf("failed to purge ephemeral store: %v", err)
	} else if removed > 0 {
		o.log.Debugf("purged %d leftover ephemeral file(s)", removed)
	}

	for _, path := range o.tracker.Decrypted() {
		o.log.WarnfAlways("%s is still decrypted on disk", path)
	}
}

// openView decrypts sourcePath into a fresh ephemeral file and opens it.
// On any failure after the file exists, the file is deleted before the
// error is returned, so no orphan session or file is left behind.
func (o *Orchestrator) openView(ctx context.Context, sourcePath string, kind ViewKind, pres Presentation) (*Session, error) {
	plaintext, err := o.crypto.Decrypt(ctx, sourcePath)
	if err != nil {
		return nil, err
	}

	readOnly := kind == KindPreview
	ephemeralPath, err := o.store.Create(sourcePath, kind, plaintext, readOnly)
	if err != nil {
		return nil, err
	}

	var handle editor.Handle
	err = o.guard.WithManagedOpen(func() error {
		var openErr error
		handle, openErr = o.surface.OpenDocument(ctx, ephemeralPath, editor.OpenOptions{
			Column:        pres.ViewColumn,
			Beside:        pres.Beside,
			PreserveFocus: pres.PreserveFocus,
			ReadOnly:      readOnly,
		})
		return openErr
	})
	if err != nil {
		if deleteErr := o.store.Delete(ephemeralPath); deleteErr != nil {
			o.log.Warnf("failed to clean up %s: %v", ephemeralPath, deleteErr)
		}
		return nil, err
	}

	session := &Session{
		SourcePath:    sourcePath,
		EphemeralPath: ephemeralPath,
		Kind:          kind,
		Handle:        handle,
		Presentation:  pres,
		CreatedAt:     time.Now(),
	}
	o.registry.TrackOpened(ctx, session)

	o.log.Infof("Opened %s view for %s", kind, sourcePath)
	audit.Log(audit.Entry{
		Operation: "open-view",
		Source:    sourcePath,
		Ephemeral: ephemeralPath,
		Kind:      kind.String(),
	})

	return session, nil
}

// handleOpened reacts to a document appearing in the editor.
func (o *Orchestrator) handleOpened(ctx context.Context, path string) {
	if o.guard.IsManagedOpen() {
		return
	}
	if o.registry.HasEphemeral(path) || o.store.Contains(path) {
		return
	}
	if o.guard.IsRecentlyClosed(path) {
		return
	}
	if o.registry.GetSession(path) != nil {
		// A view for this source is already open.
		return
	}
	if !o.rules.HasMatchingRule(path) {
		return
	}

	content, err := os.ReadFile(path)
	if err != nil {
		o.log.Debugf("cannot read %s: %v", path, err)
		return
	}
	state := ClassifyState(o.classify(content), o.tracker.IsDecrypted(path))

	switch o.policy.DecideOnOpen(state, true) {
	case OpenActionAutoDecrypt:
		if err := o.decryptSourceInPlace(ctx, path); err != nil {
			o.log.Errorf("failed to decrypt %s: %v", path, err)
		}
	case OpenActionPreview:
		if _, err := o.openView(ctx, path, KindPreview, o.defaultPresentation()); err != nil {
			o.log.Errorf("failed to open preview for %s: %v", path, err)
		}
	case OpenActionEditInPlace:
		if _, err := o.openView(ctx, path, KindEditInPlace, o.defaultPresentation()); err != nil {
			o.log.Errorf("failed to open editable view for %s: %v", path, err)
		}
	}
}

// handleClosed reacts to a document disappearing from the editor.
func (o *Orchestrator) handleClosed(ctx context.Context, path string) {
	if session := o.registry.Untrack(path); session != nil && session.EphemeralPath == path {
		// The ephemeral view is gone; clean up its file. A repeat close
		// for the same path finds nothing and falls through.
		o.guard.MarkRecentlyClosed(session.SourcePath)
		if err := o.store.Delete(session.EphemeralPath); err != nil {
			o.log.Warnf("%v", err)
		}
		o.log.Infof("Closed %s view for %s", session.Kind, session.SourcePath)
		audit.Log(audit.Entry{
			Operation: "close-view",
			Source:    session.SourcePath,
			Ephemeral: session.EphemeralPath,
			Kind:      session.Kind.String(),
		})
		return
	} else if session != nil {
		// path was the source document. Untrack already removed the
		// session; close its paired view too, or reinstall it.
		if o.autoClosePairedTab {
			o.disposeSession(ctx, session)
			return
		}
		o.registry.TrackOpened(ctx, session)
	}
}

// handleSaved reacts to a document being written in the editor.
func (o *Orchestrator) handleSaved(ctx context.Context, path string) {
	if session := o.registry.GetSessionByEphemeral(path); session != nil {
		if session.Kind == KindPreview {
			return
		}
		if err := o.saveEphemeral(ctx, session); err != nil {
			o.log.Errorf("failed to encrypt %s back to %s: %v", path, session.SourcePath, err)
		}
		return
	}

	if !o.tracker.IsDecrypted(path) {
		return
	}

	switch o.policy.DecideOnWillSave(true) {
	case SaveActionAutoEncrypt:
		if err := o.encryptSourceInPlace(ctx, path); err != nil {
			o.log.Errorf("failed to re-encrypt %s: %v", path, err)
		}
	case SaveActionPrompt:
		choice, err := o.surface.Confirm(ctx,
			fmt.Sprintf("%s was saved decrypted. Encrypt it now?", path),
			[]string{ChoiceEncryptAndSave, ChoiceSaveAsIs})
		if err != nil {
			o.log.Errorf("prompt failed: %v", err)
			return
		}
		if choice == ChoiceEncryptAndSave {
			if err := o.encryptSourceInPlace(ctx, path); err != nil {
				o.log.Errorf("failed to re-encrypt %s: %v", path, err)
			}
		}
	}
}

// saveEphemeral applies the save policy to an edited ephemeral view.
func (o *Orchestrator) saveEphemeral(ctx context.Context, session *Session) error {
	switch o.policy.DecideOnWillSave(true) {
	case SaveActionAutoEncrypt:
		return o.encryptEphemeral(ctx, session)
	case SaveActionPrompt:
		choice, err := o.surface.Confirm(ctx,
			fmt.Sprintf("Encrypt changes back to %s?", session.SourcePath),
			[]string{ChoiceEncryptAndSave, ChoiceSaveAsIs, ChoiceCancel})
		if err != nil {
			return err
		}

		// The prompt suspended us; the session may have been closed or
		// replaced in the meantime.
		if o.registry.GetSessionByEphemeral(session.EphemeralPath) != session {
			return nil
		}

		switch choice {
		case ChoiceEncryptAndSave:
			return o.encryptEphemeral(ctx, session)
		case ChoiceCancel:
			session.Dirty = true
			return serrors.ErrSaveCancelled
		default:
			session.Dirty = true
		}
	default:
		session.Dirty = true
	}
	return nil
}

// encryptEphemeral encrypts the ephemeral file's content and writes the
// ciphertext to the source document. The source is only touched after
// encryption succeeds.
func (o *Orchestrator) encryptEphemeral(ctx context.Context, session *Session) error {
	plaintext, err := os.ReadFile(session.EphemeralPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", session.EphemeralPath, err)
	}

	ciphertext, err := o.crypto.EncryptContent(ctx, plaintext, session.SourcePath)
	if err != nil {
		return err
	}

	if err := writePreservingMode(session.SourcePath, ciphertext); err != nil {
		return err
	}

	o.tracker.MarkEncrypted(session.SourcePath)
	session.Dirty = false

	o.log.Infof("Encrypted changes back to %s", session.SourcePath)
	audit.Log(audit.Entry{
		Operation: "encrypt",
		Source:    session.SourcePath,
		Ephemeral: session.EphemeralPath,
	})
	return nil
}

// encryptSourceInPlace re-encrypts a source that was decrypted in place.
func (o *Orchestrator) encryptSourceInPlace(ctx context.Context, path string) error {
	plaintext, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	ciphertext, err := o.crypto.EncryptContent(ctx, plaintext, path)
	if err != nil {
		return err
	}

	if err := writePreservingMode(path, ciphertext); err != nil {
		return err
	}

	o.tracker.MarkEncrypted(path)
	audit.Log(audit.Entry{Operation: "encrypt", Source: path})
	return nil
}

// decryptSourceInPlace replaces a source's content with its plaintext
// and records it as pending re-encryption. The tracker is only updated
// after the write succeeds.
func (o *Orchestrator) decryptSourceInPlace(ctx context.Context, path string) error {
	plaintext, err := o.crypto.Decrypt(ctx, path)
	if err != nil {
		return err
	}

	if err := writePreservingMode(path, plaintext); err != nil {
		return err
	}

	o.tracker.MarkDecrypted(path)
	audit.Log(audit.Entry{Operation: "decrypt", Source: path})
	return nil
}

// disposeSession closes a session's view and deletes its file. The
// caller has already untracked it. The source goes on cooldown first, so
// any focus bounce back to it does not immediately reopen a view.
func (o *Orchestrator) disposeSession(ctx context.Context, session *Session) {
	o.guard.MarkRecentlyClosed(session.SourcePath)

	err := o.guard.WithManagedOpen(func() error {
		return o.surface.CloseDocument(ctx, session.Handle)
	})
	if err != nil {
		o.log.Warnf("failed to close view for %s: %v", session.SourcePath, err)
	}

	if err := o.store.Delete(session.EphemeralPath); err != nil {
		o.log.Warnf("%v", err)
	}

	audit.Log(audit.Entry{
		Operation: "close-view",
		Source:    session.SourcePath,
		Ephemeral: session.EphemeralPath,
		Kind:      session.Kind.String(),
	})
}

func (o *Orchestrator) defaultPresentation() Presentation {
	return Presentation{Beside: o.beside, PreserveFocus: o.preserveFocus}
}

// writePreservingMode writes content to path keeping its current file
// mode, defaulting to 0600 for new files.
func writePreservingMode(path string, content []byte) error {
	mode := os.FileMode(0600)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(path, content, mode); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
