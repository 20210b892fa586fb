package view

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JinxCappa/SOPSie/internal/editor"
	serrors "github.com/JinxCappa/SOPSie/internal/errors"
	logger "github.com/JinxCappa/SOPSie/internal/logging"
)

const (
	fakePlaintext  = "plain: secret\n"
	fakeCiphertext = "ENC[AES256_GCM,data:fake]\n"
)

// reencrypted is what the fake executor produces for a given plaintext.
func reencrypted(plaintext string) string {
	return fmt.Sprintf("ENC[AES256_GCM,data:%d]\n", len(plaintext))
}

type openedDoc struct {
	path string
	opts editor.OpenOptions
}

type fakeSurface struct {
	mu      sync.Mutex
	events  chan editor.Event
	opens   []openedDoc
	closes  []editor.Handle
	prompts []string
	openErr error
	choice  string
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{events: make(chan editor.Event, 16)}
}

func (f *fakeSurface) OpenDocument(ctx context.Context, path string, opts editor.OpenOptions) (editor.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return "", f.openErr
	}
	f.opens = append(f.opens, openedDoc{path: path, opts: opts})
	return editor.Handle(path), nil
}

func (f *fakeSurface) CloseDocument(ctx context.Context, handle editor.Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes = append(f.closes, handle)
	return nil
}

func (f *fakeSurface) Confirm(ctx context.Context, prompt string, options []string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.choice, nil
}

func (f *fakeSurface) Events() <-chan editor.Event { return f.events }

func (f *fakeSurface) Close() error {
	close(f.events)
	return nil
}

func (f *fakeSurface) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.closes)
}

type fakeCrypto struct {
	decryptErr error
	encryptErr error
}

func (f *fakeCrypto) Decrypt(ctx context.Context, path string) ([]byte, error) {
	if f.decryptErr != nil {
		return nil, f.decryptErr
	}
	return []byte(fakePlaintext), nil
}

func (f *fakeCrypto) EncryptContent(ctx context.Context, content []byte, path string) ([]byte, error) {
	if f.encryptErr != nil {
		return nil, f.encryptErr
	}
	return []byte(reencrypted(string(content))), nil
}

type fakeRules struct {
	governed map[string]bool
}

func (f *fakeRules) HasMatchingRule(path string) bool { return f.governed[path] }

type fixture struct {
	orch    *Orchestrator
	surface *fakeSurface
	crypto  *fakeCrypto
	rules   *fakeRules
	store   *Store
	dir     string
}

func newFixture(t *testing.T, policy Policy, mutate ...func(*Options)) *fixture {
	t.Helper()

	surface := newFakeSurface()
	crypto := &fakeCrypto{}
	rules := &fakeRules{governed: make(map[string]bool)}

	store, err := NewStore(t.TempDir(), logger.Logger{})
	require.NoError(t, err)

	opts := Options{
		Surface:  surface,
		Crypto:   crypto,
		Rules:    rules,
		Store:    store,
		Policy:   policy,
		Logger:   logger.Logger{},
		Cooldown: time.Minute,
	}
	for _, m := range mutate {
		m(&opts)
	}

	orch, err := New(opts)
	require.NoError(t, err)

	return &fixture{
		orch:    orch,
		surface: surface,
		crypto:  crypto,
		rules:   rules,
		store:   store,
		dir:     t.TempDir(),
	}
}

// source creates a governed encrypted file on disk.
func (f *fixture) source(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(fakeCiphertext), 0600))
	f.rules.governed[path] = true
	return path
}

func (f *fixture) event(eventType editor.EventType, path string) {
	f.orch.HandleEvent(context.Background(), editor.Event{Type: eventType, Path: path})
}

func TestOpenPreview(t *testing.T) {
	f := newFixture(t, Policy{Open: OpenDecryptedView, Mode: ModePreview})
	src := f.source(t, "app.yaml")

	session, err := f.orch.OpenPreview(context.Background(), src)
	require.NoError(t, err)
	require.NotNil(t, session)

	assert.Equal(t, src, session.SourcePath)
	assert.Equal(t, KindPreview, session.Kind)
	assert.True(t, f.orch.IsManagedFile(session.EphemeralPath))
	assert.False(t, f.orch.IsManagedFile(src))

	content, err := os.ReadFile(session.EphemeralPath)
	require.NoError(t, err)
	assert.Equal(t, fakePlaintext, string(content))

	require.Len(t, f.surface.opens, 1)
	assert.True(t, f.surface.opens[0].opts.ReadOnly)
}

func TestOpenEditInPlace_IsWritable(t *testing.T) {
	f := newFixture(t, Policy{})
	src := f.source(t, "app.yaml")

	session, err := f.orch.OpenEditInPlace(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, KindEditInPlace, session.Kind)
	require.Len(t, f.surface.opens, 1)
	assert.False(t, f.surface.opens[0].opts.ReadOnly)
}

func TestOpenView_DecryptFailureLeavesNothingBehind(t *testing.T) {
	f := newFixture(t, Policy{})
	src := f.source(t, "app.yaml")
	f.crypto.decryptErr = &serrors.CommandError{Kind: serrors.ErrKeyAccessDenied, Message: "no key"}

	_, err := f.orch.OpenPreview(context.Background(), src)
	require.Error(t, err)
	assert.ErrorIs(t, err, serrors.ErrKeyAccessDenied)

	assert.Empty(t, f.orch.Sessions())
	entries, err := os.ReadDir(f.store.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestOpenView_EditorFailureDeletesEphemeralFile(t *testing.T) {
	f := newFixture(t, Policy{})
	src := f.source(t, "app.yaml")
	f.surface.openErr = errors.New("editor exploded")

	_, err := f.orch.OpenPreview(context.Background(), src)
	require.Error(t, err)

	assert.Empty(t, f.orch.Sessions())
	entries, err := os.ReadDir(f.store.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestOpenView_SupersedesExistingSession(t *testing.T) {
	f := newFixture(t, Policy{})
	src := f.source(t, "app.yaml")

	first, err := f.orch.OpenPreview(context.Background(), src)
	require.NoError(t, err)
	second, err := f.orch.OpenEditInPlace(context.Background(), src)
	require.NoError(t, err)

	sessions := f.orch.Sessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, second, sessions[0])

	assert.NoFileExists(t, first.EphemeralPath)
	assert.FileExists(t, second.EphemeralPath)
	assert.Equal(t, 1, f.surface.closeCount())
}

func TestHandleOpened_OpensConfiguredView(t *testing.T) {
	f := newFixture(t, Policy{Open: OpenDecryptedView, Mode: ModePreview})
	src := f.source(t, "app.yaml")

	f.event(editor.EventOpened, src)

	sessions := f.orch.Sessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, KindPreview, sessions[0].Kind)

	// A repeat open while the view exists does nothing.
	f.event(editor.EventOpened, src)
	assert.Len(t, f.orch.Sessions(), 1)
}

func TestHandleOpened_Ignores(t *testing.T) {
	t.Run("ungoverned file", func(t *testing.T) {
		f := newFixture(t, Policy{Open: OpenDecryptedView, Mode: ModePreview})
		path := filepath.Join(f.dir, "notes.yaml")
		require.NoError(t, os.WriteFile(path, []byte(fakeCiphertext), 0600))

		f.event(editor.EventOpened, path)
		assert.Empty(t, f.orch.Sessions())
	})

	t.Run("plaintext file", func(t *testing.T) {
		f := newFixture(t, Policy{Open: OpenDecryptedView, Mode: ModePreview})
		path := filepath.Join(f.dir, "app.yaml")
		require.NoError(t, os.WriteFile(path, []byte("key: value\n"), 0600))
		f.rules.governed[path] = true

		f.event(editor.EventOpened, path)
		assert.Empty(t, f.orch.Sessions())
	})

	t.Run("tracked ephemeral file", func(t *testing.T) {
		f := newFixture(t, Policy{Open: OpenDecryptedView, Mode: ModePreview})
		src := f.source(t, "app.yaml")
		session, err := f.orch.OpenPreview(context.Background(), src)
		require.NoError(t, err)

		f.event(editor.EventOpened, session.EphemeralPath)
		assert.Len(t, f.orch.Sessions(), 1)
	})

	t.Run("recently closed source", func(t *testing.T) {
		f := newFixture(t, Policy{Open: OpenDecryptedView, Mode: ModePreview})
		src := f.source(t, "app.yaml")
		session, err := f.orch.OpenPreview(context.Background(), src)
		require.NoError(t, err)

		f.event(editor.EventClosed, session.EphemeralPath)
		require.Empty(t, f.orch.Sessions())

		f.event(editor.EventOpened, src)
		assert.Empty(t, f.orch.Sessions())
	})

	t.Run("stray file inside the store", func(t *testing.T) {
		f := newFixture(t, Policy{Open: OpenDecryptedView, Mode: ModePreview})
		stray := filepath.Join(f.store.Dir(), "stray.yaml")
		require.NoError(t, os.WriteFile(stray, []byte(fakeCiphertext), 0600))
		f.rules.governed[stray] = true

		f.event(editor.EventOpened, stray)
		assert.Empty(t, f.orch.Sessions())
	})
}

func TestHandleOpened_AutoDecrypt(t *testing.T) {
	f := newFixture(t, Policy{Open: OpenAutoDecrypt})
	src := f.source(t, "app.yaml")

	f.event(editor.EventOpened, src)

	content, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, fakePlaintext, string(content))
	assert.Contains(t, f.orch.DecryptedSources(), src)
	assert.Equal(t, StateDecrypted, f.orch.EncryptionStateOf(src))

	// Reopening a file that is already decrypted does nothing.
	f.event(editor.EventOpened, src)
	assert.Len(t, f.orch.DecryptedSources(), 1)
}

func TestHandleClosed_EphemeralCleansUp(t *testing.T) {
	f := newFixture(t, Policy{})
	src := f.source(t, "app.yaml")

	session, err := f.orch.OpenPreview(context.Background(), src)
	require.NoError(t, err)

	f.event(editor.EventClosed, session.EphemeralPath)

	assert.Empty(t, f.orch.Sessions())
	assert.NoFileExists(t, session.EphemeralPath)
	assert.True(t, f.orch.guard.IsRecentlyClosed(src))

	// Close notifications can be delivered twice.
	f.event(editor.EventClosed, session.EphemeralPath)
	assert.Empty(t, f.orch.Sessions())
}

func TestHandleClosed_SourceClosesPairedView(t *testing.T) {
	f := newFixture(t, Policy{}, func(o *Options) { o.AutoClosePairedTab = true })
	src := f.source(t, "app.yaml")

	session, err := f.orch.OpenPreview(context.Background(), src)
	require.NoError(t, err)

	f.event(editor.EventClosed, src)

	assert.Empty(t, f.orch.Sessions())
	assert.NoFileExists(t, session.EphemeralPath)
	assert.Equal(t, 1, f.surface.closeCount())
}

func TestHandleClosed_SourceKeepsViewWhenDisabled(t *testing.T) {
	f := newFixture(t, Policy{})
	src := f.source(t, "app.yaml")

	session, err := f.orch.OpenPreview(context.Background(), src)
	require.NoError(t, err)

	f.event(editor.EventClosed, src)

	assert.Len(t, f.orch.Sessions(), 1)
	assert.FileExists(t, session.EphemeralPath)
}

func TestHandleSaved_AutoEncrypt(t *testing.T) {
	f := newFixture(t, Policy{Save: SaveAutoEncrypt})
	src := f.source(t, "app.yaml")

	session, err := f.orch.OpenEditInPlace(context.Background(), src)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(session.EphemeralPath, []byte("plain: edited\n"), 0600))

	f.event(editor.EventSaved, session.EphemeralPath)

	content, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, reencrypted("plain: edited\n"), string(content))
	assert.False(t, f.orch.Sessions()[0].Dirty)
}

func TestHandleSaved_ManualMarksDirty(t *testing.T) {
	f := newFixture(t, Policy{Save: SaveManualEncrypt})
	src := f.source(t, "app.yaml")

	session, err := f.orch.OpenEditInPlace(context.Background(), src)
	require.NoError(t, err)

	f.event(editor.EventSaved, session.EphemeralPath)

	assert.True(t, f.orch.Sessions()[0].Dirty)
	content, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, fakeCiphertext, string(content), "source must stay untouched")
}

func TestHandleSaved_Prompt(t *testing.T) {
	open := func(t *testing.T, f *fixture) (*Session, string) {
		src := f.source(t, "app.yaml")
		session, err := f.orch.OpenEditInPlace(context.Background(), src)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(session.EphemeralPath, []byte("plain: edited\n"), 0600))
		return session, src
	}

	t.Run("encrypt and save", func(t *testing.T) {
		f := newFixture(t, Policy{Save: SavePromptUser})
		f.surface.choice = ChoiceEncryptAndSave
		session, src := open(t, f)

		f.event(editor.EventSaved, session.EphemeralPath)

		content, err := os.ReadFile(src)
		require.NoError(t, err)
		assert.Equal(t, reencrypted("plain: edited\n"), string(content))
		assert.False(t, f.orch.Sessions()[0].Dirty)
	})

	t.Run("save as-is", func(t *testing.T) {
		f := newFixture(t, Policy{Save: SavePromptUser})
		f.surface.choice = ChoiceSaveAsIs
		session, src := open(t, f)

		f.event(editor.EventSaved, session.EphemeralPath)

		assert.True(t, f.orch.Sessions()[0].Dirty)
		content, err := os.ReadFile(src)
		require.NoError(t, err)
		assert.Equal(t, fakeCiphertext, string(content))
	})

	t.Run("cancel never touches the source", func(t *testing.T) {
		f := newFixture(t, Policy{Save: SavePromptUser})
		f.surface.choice = ChoiceCancel
		session, src := open(t, f)

		f.event(editor.EventSaved, session.EphemeralPath)

		assert.True(t, f.orch.Sessions()[0].Dirty)
		content, err := os.ReadFile(src)
		require.NoError(t, err)
		assert.Equal(t, fakeCiphertext, string(content))
	})
}

func TestHandleSaved_PreviewIgnored(t *testing.T) {
	f := newFixture(t, Policy{Save: SaveAutoEncrypt})
	src := f.source(t, "app.yaml")

	session, err := f.orch.OpenPreview(context.Background(), src)
	require.NoError(t, err)

	f.event(editor.EventSaved, session.EphemeralPath)

	content, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, fakeCiphertext, string(content))
}

func TestWillSave(t *testing.T) {
	t.Run("cancel aborts the save", func(t *testing.T) {
		f := newFixture(t, Policy{Save: SavePromptUser})
		src := f.source(t, "app.yaml")
		f.orch.MarkDecrypted(src)
		f.surface.choice = ChoiceCancel

		err := f.orch.WillSave(context.Background(), src)
		assert.ErrorIs(t, err, serrors.ErrSaveCancelled)
	})

	t.Run("encrypt and save rewrites the source", func(t *testing.T) {
		f := newFixture(t, Policy{Save: SavePromptUser})
		src := f.source(t, "app.yaml")
		require.NoError(t, os.WriteFile(src, []byte(fakePlaintext), 0600))
		f.orch.MarkDecrypted(src)
		f.surface.choice = ChoiceEncryptAndSave

		require.NoError(t, f.orch.WillSave(context.Background(), src))

		content, err := os.ReadFile(src)
		require.NoError(t, err)
		assert.Equal(t, reencrypted(fakePlaintext), string(content))
		assert.Empty(t, f.orch.DecryptedSources())
	})

	t.Run("untracked file proceeds", func(t *testing.T) {
		f := newFixture(t, Policy{Save: SavePromptUser})
		src := f.source(t, "app.yaml")

		require.NoError(t, f.orch.WillSave(context.Background(), src))
		assert.Empty(t, f.surface.prompts)
	})
}

func TestSwitchToEditMode(t *testing.T) {
	f := newFixture(t, Policy{}, func(o *Options) { o.Beside = true })
	src := f.source(t, "app.yaml")

	preview, err := f.orch.OpenPreview(context.Background(), src)
	require.NoError(t, err)

	edit, err := f.orch.SwitchToEditMode(context.Background(), preview.EphemeralPath)
	require.NoError(t, err)

	assert.Equal(t, KindEditInPlace, edit.Kind)
	assert.Equal(t, src, edit.SourcePath)
	assert.Equal(t, preview.Presentation, edit.Presentation)
	assert.NoFileExists(t, preview.EphemeralPath)
	assert.Len(t, f.orch.Sessions(), 1)
}

func TestSwitchToEditMode_UnknownPath(t *testing.T) {
	f := newFixture(t, Policy{})

	_, err := f.orch.SwitchToEditMode(context.Background(), "/tmp/nowhere.yaml")
	assert.ErrorIs(t, err, serrors.ErrNoOriginatingSource)
}

func TestSwitchToFile(t *testing.T) {
	dirtySession := func(t *testing.T, f *fixture) (*Session, string) {
		src := f.source(t, "app.yaml")
		session, err := f.orch.OpenEditInPlace(context.Background(), src)
		require.NoError(t, err)
		session.Dirty = true
		require.NoError(t, os.WriteFile(session.EphemeralPath, []byte("plain: edited\n"), 0600))
		return session, src
	}

	t.Run("cancel keeps everything", func(t *testing.T) {
		f := newFixture(t, Policy{Mode: ModePreview})
		session, _ := dirtySession(t, f)
		other := f.source(t, "other.yaml")
		f.surface.choice = ChoiceCancel

		got, err := f.orch.SwitchToFile(context.Background(), other)
		require.NoError(t, err)
		assert.Nil(t, got)

		require.Len(t, f.orch.Sessions(), 1)
		assert.Equal(t, session, f.orch.Sessions()[0])
	})

	t.Run("save and encrypt then switch", func(t *testing.T) {
		f := newFixture(t, Policy{Mode: ModePreview})
		_, src := dirtySession(t, f)
		other := f.source(t, "other.yaml")
		f.surface.choice = ChoiceSaveAndEncrypt

		got, err := f.orch.SwitchToFile(context.Background(), other)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, other, got.SourcePath)

		content, err := os.ReadFile(src)
		require.NoError(t, err)
		assert.Equal(t, reencrypted("plain: edited\n"), string(content))
		assert.Len(t, f.orch.Sessions(), 1)
	})

	t.Run("discard then switch", func(t *testing.T) {
		f := newFixture(t, Policy{Mode: ModePreview})
		session, src := dirtySession(t, f)
		other := f.source(t, "other.yaml")
		f.surface.choice = ChoiceDiscard

		got, err := f.orch.SwitchToFile(context.Background(), other)
		require.NoError(t, err)
		require.NotNil(t, got)

		content, err := os.ReadFile(src)
		require.NoError(t, err)
		assert.Equal(t, fakeCiphertext, string(content), "discarded edits must not reach the source")
		assert.NoFileExists(t, session.EphemeralPath)
	})

	t.Run("clean sessions switch without prompting", func(t *testing.T) {
		f := newFixture(t, Policy{Mode: ModePreview})
		src := f.source(t, "app.yaml")
		_, err := f.orch.OpenPreview(context.Background(), src)
		require.NoError(t, err)
		other := f.source(t, "other.yaml")

		got, err := f.orch.SwitchToFile(context.Background(), other)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Empty(t, f.surface.prompts)
	})
}

func TestEncryptionStateOf(t *testing.T) {
	f := newFixture(t, Policy{})

	encrypted := f.source(t, "enc.yaml")
	assert.Equal(t, StateEncrypted, f.orch.EncryptionStateOf(encrypted))

	plain := filepath.Join(f.dir, "plain.yaml")
	require.NoError(t, os.WriteFile(plain, []byte("key: value\n"), 0600))
	assert.Equal(t, StatePlainText, f.orch.EncryptionStateOf(plain))

	assert.Equal(t, StateUnknown, f.orch.EncryptionStateOf(filepath.Join(f.dir, "missing.yaml")))
}

func TestDispose_LeavesNoPlaintext(t *testing.T) {
	f := newFixture(t, Policy{})

	for i := 0; i < 3; i++ {
		src := f.source(t, fmt.Sprintf("app%d.yaml", i))
		_, err := f.orch.OpenPreview(context.Background(), src)
		require.NoError(t, err)
	}
	require.Len(t, f.orch.Sessions(), 3)

	f.orch.Dispose(context.Background())

	assert.Empty(t, f.orch.Sessions())
	entries, err := os.ReadDir(f.store.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRun_ConsumesEventsUntilSurfaceCloses(t *testing.T) {
	f := newFixture(t, Policy{Open: OpenDecryptedView, Mode: ModePreview})
	src := f.source(t, "app.yaml")

	done := make(chan error, 1)
	go func() { done <- f.orch.Run(context.Background()) }()

	f.surface.events <- editor.Event{Type: editor.EventOpened, Path: src}

	require.Eventually(t, func() bool {
		return len(f.orch.Sessions()) == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, f.surface.Close())

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after the surface closed")
	}

	// Dispose ran: nothing plaintext is left on disk.
	entries, err := os.ReadDir(f.store.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	f := newFixture(t, Policy{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.orch.Run(ctx) }()

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
