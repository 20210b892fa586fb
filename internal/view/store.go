package view

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	logger "github.com/JinxCappa/SOPSie/internal/logging"
)

// Store owns the on-disk ephemeral plaintext files. It is pure file I/O;
// all policy lives in the orchestrator.
type Store struct {
	dir string
	log logger.Logger
}

// NewStore creates the store directory under baseDir (the platform temp
// directory if empty). The directory is private to the user.
func NewStore(baseDir string, log logger.Logger) (*Store, error) {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	dir := filepath.Join(baseDir, "sopsie")

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create ephemeral store at %s: %w", dir, err)
	}

	return &Store{dir: dir, log: log}, nil
}

// Dir returns the store directory.
func (s *Store) Dir() string {
	return s.dir
}

// Create writes an ephemeral plaintext file for sourcePath. The name
// keeps the source's base name and extension (so editors pick the right
// syntax) plus a kind marker and a uniqueness suffix. Read-only files
// are created for previews.
func (s *Store) Create(sourcePath string, kind ViewKind, content []byte, readOnly bool) (string, error) {
	base := filepath.Base(sourcePath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	suffix := uuid.New().String()[:8]

	path := filepath.Join(s.dir, fmt.Sprintf("%s.%s-%s%s", stem, kind, suffix, ext))

	if err := os.WriteFile(path, content, 0600); err != nil {
		return "", fmt.Errorf("failed to create ephemeral file: %w", err)
	}

	if readOnly {
		if err := os.Chmod(path, 0400); err != nil {
			// The view still works, it is just not write-protected.
			s.log.Warnf("failed to mark %s read-only: %v", path, err)
		}
	}

	return path, nil
}

// Delete removes an ephemeral file. Deleting a file that is already gone
// is a no-op, because close notifications can arrive more than once.
func (s *Store) Delete(path string) error {
	// Previews are chmod 0400; restore write permission so removal works
	// everywhere.
	_ = os.Chmod(path, 0600)

	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete ephemeral file %s: %w", path, err)
	}
	return nil
}

// Contains reports whether path lives inside the store directory.
func (s *Store) Contains(path string) bool {
	rel, err := filepath.Rel(s.dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Purge deletes every file in the store directory and returns how many
// were removed. Used by dispose and the clean command to catch leftovers
// from crashed runs.
func (s *Store) Purge() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read ephemeral store: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		if err := s.Delete(path); err != nil {
			s.log.Warnf("failed to purge %s: %v", path, err)
			continue
		}
		removed++
	}

	return removed, nil
}
