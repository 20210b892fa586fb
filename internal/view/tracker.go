package view

import "sync"

// Tracker is the encryption-state tracker: the set of source paths known
// to be currently decrypted in place and pending re-encryption.
type Tracker struct {
	mu        sync.Mutex
	decrypted map[string]struct{}
}

func NewTracker() *Tracker {
	return &Tracker{decrypted: make(map[string]struct{})}
}

// MarkDecrypted records that the source was decrypted in place.
func (t *Tracker) MarkDecrypted(sourcePath string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.decrypted[sourcePath] = struct{}{}
}

// MarkEncrypted removes the source from the decrypted set. Removing a
// path that is not present is a no-op.
func (t *Tracker) MarkEncrypted(sourcePath string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.decrypted, sourcePath)
}

// IsDecrypted reports decrypted-set membership.
func (t *Tracker) IsDecrypted(sourcePath string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.decrypted[sourcePath]
	return ok
}

// Decrypted returns a snapshot of the decrypted set.
func (t *Tracker) Decrypted() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	paths := make([]string, 0, len(t.decrypted))
	for path := range t.decrypted {
		paths = append(paths, path)
	}
	return paths
}
