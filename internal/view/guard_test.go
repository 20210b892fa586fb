package view

import (
	"errors"
	"testing"
	"time"
)

func TestGuard_WithManagedOpen(t *testing.T) {
	guard := NewGuard(time.Second)

	if guard.IsManagedOpen() {
		t.Fatalf("Expected flag clear before any managed operation")
	}

	err := guard.WithManagedOpen(func() error {
		if !guard.IsManagedOpen() {
			t.Errorf("Expected flag set inside managed operation")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if guard.IsManagedOpen() {
		t.Errorf("Expected flag clear after managed operation")
	}
}

func TestGuard_WithManagedOpen_Nested(t *testing.T) {
	guard := NewGuard(time.Second)

	_ = guard.WithManagedOpen(func() error {
		return guard.WithManagedOpen(func() error {
			if !guard.IsManagedOpen() {
				t.Errorf("Expected flag set in nested operation")
			}
			return nil
		})
	})

	if guard.IsManagedOpen() {
		t.Errorf("Expected flag clear after nested operations returned")
	}
}

func TestGuard_WithManagedOpen_ReleasedOnError(t *testing.T) {
	guard := NewGuard(time.Second)
	wantErr := errors.New("open failed")

	err := guard.WithManagedOpen(func() error { return wantErr })
	if !errors.Is(err, wantErr) {
		t.Fatalf("Expected error passthrough, got %v", err)
	}
	if guard.IsManagedOpen() {
		t.Errorf("Expected flag clear after failed operation")
	}
}

func TestGuard_WithManagedOpen_ReleasedOnPanic(t *testing.T) {
	guard := NewGuard(time.Second)

	func() {
		defer func() { _ = recover() }()
		_ = guard.WithManagedOpen(func() error { panic("boom") })
	}()

	if guard.IsManagedOpen() {
		t.Errorf("Expected flag clear after panic")
	}
}

func TestGuard_RecentlyClosed(t *testing.T) {
	now := time.Now()
	guard := NewGuard(time.Second)
	guard.now = func() time.Time { return now }

	guard.MarkRecentlyClosed("secrets/app.yaml")

	if !guard.IsRecentlyClosed("secrets/app.yaml") {
		t.Errorf("Expected cooldown active immediately after marking")
	}
	if guard.IsRecentlyClosed("secrets/other.yaml") {
		t.Errorf("Expected unrelated path not on cooldown")
	}

	now = now.Add(2 * time.Second)
	if guard.IsRecentlyClosed("secrets/app.yaml") {
		t.Errorf("Expected cooldown expired after the window passed")
	}
}

func TestGuard_ClearRecentlyClosed(t *testing.T) {
	guard := NewGuard(time.Minute)

	guard.MarkRecentlyClosed("secrets/app.yaml")
	guard.ClearRecentlyClosed("secrets/app.yaml")

	if guard.IsRecentlyClosed("secrets/app.yaml") {
		t.Errorf("Expected cooldown cleared")
	}

	// Clearing an unknown path is a no-op.
	guard.ClearRecentlyClosed("secrets/unknown.yaml")
}

func TestGuard_ExpiredEntriesPurgedOnMark(t *testing.T) {
	now := time.Now()
	guard := NewGuard(time.Second)
	guard.now = func() time.Time { return now }

	guard.MarkRecentlyClosed("a.yaml")
	now = now.Add(2 * time.Second)
	guard.MarkRecentlyClosed("b.yaml")

	guard.mu.Lock()
	defer guard.mu.Unlock()
	if _, ok := guard.recentlyClosed["a.yaml"]; ok {
		t.Errorf("Expected expired entry purged")
	}
}
