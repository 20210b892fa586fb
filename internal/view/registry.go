package view

import (
	"context"
	"sync"

	logger "github.com/JinxCappa/SOPSie/internal/logging"
)

// Registry is the bidirectional source↔ephemeral session map. It
// enforces the core invariant: at most one active session per source
// path, and exactly one per ephemeral path.
//
// Multi-step mutations swap state in a single synchronous step under the
// lock, so an event interleaved across a suspension point never observes
// a half-installed session.
type Registry struct {
	mu          sync.Mutex
	bySource    map[string]*Session
	byEphemeral map[string]*Session
	log         logger.Logger

	// dispose closes a session's ephemeral view and deletes its backing
	// file. Installed by the orchestrator; must tolerate repeat calls.
	dispose func(ctx context.Context, session *Session)
}

func NewRegistry(log logger.Logger, dispose func(ctx context.Context, session *Session)) *Registry {
	return &Registry{
		bySource:    make(map[string]*Session),
		byEphemeral: make(map[string]*Session),
		log:         log,
		dispose:     dispose,
	}
}

// TrackOpened installs a session. Any prior session for the same source
// is removed in the same step and its ephemeral view disposed, so the
// old temp file cannot leak.
func (r *Registry) TrackOpened(ctx context.Context, session *Session) {
	r.mu.Lock()
	superseded := r.bySource[session.SourcePath]
	if superseded != nil {
		delete(r.byEphemeral, superseded.EphemeralPath)
	}
	r.bySource[session.SourcePath] = session
	r.byEphemeral[session.EphemeralPath] = session
	r.mu.Unlock()

	if superseded != nil {
		r.log.Debugf("superseding session for %s (old view %s)", session.SourcePath, superseded.EphemeralPath)
		r.dispose(ctx, superseded)
	}
}

// Untrack removes the session keyed by either its source path or its
// ephemeral path and returns it. Idempotent: the second call for the
// same key returns nil.
func (r *Registry) Untrack(path string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	session := r.bySource[path]
	if session == nil {
		session = r.byEphemeral[path]
	}
	if session == nil {
		return nil
	}

	delete(r.bySource, session.SourcePath)
	delete(r.byEphemeral, session.EphemeralPath)
	return session
}

// GetSession returns the active session for a source path, or nil.
func (r *Registry) GetSession(sourcePath string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bySource[sourcePath]
}

// GetSessionByEphemeral returns the session owning an ephemeral path, or nil.
func (r *Registry) GetSessionByEphemeral(ephemeralPath string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byEphemeral[ephemeralPath]
}

// HasEphemeral reports whether path is a tracked ephemeral file. This is
// the membership query behind IsManagedFile; naming conventions are for
// humans only.
func (r *Registry) HasEphemeral(path string) bool {
	return r.GetSessionByEphemeral(path) != nil
}

// Sessions returns a snapshot of all active sessions.
func (r *Registry) Sessions() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessions := make([]*Session, 0, len(r.bySource))
	for _, session := range r.bySource {
		sessions = append(sessions, session)
	}
	return sessions
}

// CloseAllTracked disposes every tracked session. Individual failures
// are logged by dispose and do not abort the remaining cleanups.
func (r *Registry) CloseAllTracked(ctx context.Context) {
	for _, session := range r.Sessions() {
		if r.Untrack(session.EphemeralPath) == nil {
			// Lost a race with a close notification; already cleaned up.
			continue
		}
		r.dispose(ctx, session)
	}
}
