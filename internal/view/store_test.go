package view

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	logger "github.com/JinxCappa/SOPSie/internal/logging"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir(), logger.Logger{})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return store
}

func TestStore_Create(t *testing.T) {
	store := newTestStore(t)

	path, err := store.Create("/project/secrets/app.yaml", KindPreview, []byte("key: value\n"), false)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	base := filepath.Base(path)
	if !strings.HasPrefix(base, "app.preview-") {
		t.Errorf("Expected name to keep the stem and kind, got %s", base)
	}
	if !strings.HasSuffix(base, ".yaml") {
		t.Errorf("Expected name to keep the extension, got %s", base)
	}
	if !store.Contains(path) {
		t.Errorf("Expected created file inside the store directory")
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read created file: %v", err)
	}
	if string(content) != "key: value\n" {
		t.Errorf("Unexpected content: %q", content)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
		t.Errorf("Expected mode 0600, got %o", info.Mode().Perm())
	}
}

func TestStore_Create_ReadOnly(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not meaningful on Windows")
	}

	store := newTestStore(t)

	path, err := store.Create("app.yaml", KindPreview, []byte("key: value\n"), true)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Mode().Perm() != 0400 {
		t.Errorf("Expected mode 0400, got %o", info.Mode().Perm())
	}
}

func TestStore_Create_UniqueNames(t *testing.T) {
	store := newTestStore(t)

	first, err := store.Create("app.yaml", KindEditInPlace, []byte("a"), false)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	second, err := store.Create("app.yaml", KindEditInPlace, []byte("b"), false)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if first == second {
		t.Errorf("Expected distinct paths for repeated creates")
	}
}

func TestStore_Delete(t *testing.T) {
	store := newTestStore(t)

	path, err := store.Create("app.yaml", KindPreview, []byte("x"), true)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := store.Delete(path); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("Expected file removed")
	}

	// Deleting again is a no-op.
	if err := store.Delete(path); err != nil {
		t.Errorf("Expected idempotent delete, got %v", err)
	}
}

func TestStore_Contains(t *testing.T) {
	store := newTestStore(t)

	if store.Contains("/etc/passwd") {
		t.Errorf("Expected outside path rejected")
	}
	if store.Contains(filepath.Dir(store.Dir())) {
		t.Errorf("Expected parent directory rejected")
	}
	if !store.Contains(filepath.Join(store.Dir(), "anything.yaml")) {
		t.Errorf("Expected path inside the store accepted")
	}
}

func TestStore_Purge(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Create("a.yaml", KindPreview, []byte("a"), true); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := store.Create("b.yaml", KindEditInPlace, []byte("b"), false); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	removed, err := store.Purge()
	if err != nil {
		t.Fatalf("Purge failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("Expected 2 files removed, got %d", removed)
	}

	entries, err := os.ReadDir(store.Dir())
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected empty store after purge, found %d entries", len(entries))
	}

	// Purging an empty store removes nothing.
	removed, err = store.Purge()
	if err != nil || removed != 0 {
		t.Errorf("Expected clean second purge, got removed=%d err=%v", removed, err)
	}
}
