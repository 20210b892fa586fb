package view

import (
	"sync"
	"time"
)

// Guard suppresses handler re-entry caused by the manager's own editor
// actions: a "manager-triggered" flag scoped to a function call, and a
// per-source cooldown after the manager closes an ephemeral view.
//
// The cooldown is timer-based: entries expire after a fixed window and
// are purged opportunistically. (The alternative, explicit clearing by a
// follow-up event, satisfies the same invariants; the timer keeps the
// caller contract smaller.)
type Guard struct {
	mu             sync.Mutex
	depth          int
	recentlyClosed map[string]time.Time
	cooldown       time.Duration

	now func() time.Time // stubbed in tests
}

func NewGuard(cooldown time.Duration) *Guard {
	return &Guard{
		recentlyClosed: make(map[string]time.Time),
		cooldown:       cooldown,
		now:            time.Now,
	}
}

// WithManagedOpen runs fn with the manager-triggered flag set. The flag
// is released on every exit path, including panics. Nested calls are
// counted, so the flag stays set until the outermost call returns.
func (g *Guard) WithManagedOpen(fn func() error) error {
	g.mu.Lock()
	g.depth++
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		g.depth--
		g.mu.Unlock()
	}()

	return fn()
}

// IsManagedOpen reports whether a manager-triggered editor operation is
// in progress.
func (g *Guard) IsManagedOpen() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.depth > 0
}

// MarkRecentlyClosed records that the manager just closed an ephemeral
// view for sourcePath; open events for it are suppressed until the
// cooldown expires.
func (g *Guard) MarkRecentlyClosed(sourcePath string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.purgeLocked()
	g.recentlyClosed[sourcePath] = g.now().Add(g.cooldown)
}

// IsRecentlyClosed reports whether sourcePath is inside its cooldown
// window.
func (g *Guard) IsRecentlyClosed(sourcePath string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	expiry, ok := g.recentlyClosed[sourcePath]
	if !ok {
		return false
	}
	if g.now().After(expiry) {
		delete(g.recentlyClosed, sourcePath)
		return false
	}
	return true
}

// ClearRecentlyClosed drops the cooldown for sourcePath early, for flows
// that deliberately reopen a view they just closed.
func (g *Guard) ClearRecentlyClosed(sourcePath string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.recentlyClosed, sourcePath)
}

func (g *Guard) purgeLocked() {
	now := g.now()
	for path, expiry := range g.recentlyClosed {
		if now.After(expiry) {
			delete(g.recentlyClosed, path)
		}
	}
}
