package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func withProjectRoot(t *testing.T) string {
	t.Helper()
	tempDir := t.TempDir()

	original := ProjectRoot
	ProjectRoot = tempDir
	t.Cleanup(func() { ProjectRoot = original })

	return tempDir
}

func TestLog_CreatesFile(t *testing.T) {
	tempDir := withProjectRoot(t)

	Log(Entry{
		Operation: "open-preview",
		Source:    "secrets/app.yaml",
		Ephemeral: "/tmp/sopsie/app.preview-1a2b3c4d.yaml",
	})

	logPath := filepath.Join(tempDir, ".sopsie", "audit.jsonl")
	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		t.Fatalf("Audit log file was not created")
	}
}

func TestLog_AppendsEntries(t *testing.T) {
	withProjectRoot(t)

	Log(Entry{Operation: "open-preview", Source: "a.yaml"})
	Log(Entry{Operation: "encrypt", Source: "a.yaml"})

	data, err := os.ReadFile(LogPath())
	if err != nil {
		t.Fatalf("Failed to read audit log: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(lines))
	}
}

func TestLog_SetsTimestamp(t *testing.T) {
	withProjectRoot(t)

	Log(Entry{Operation: "clean", RemovedCount: 3})

	data, err := os.ReadFile(LogPath())
	if err != nil {
		t.Fatalf("Failed to read audit log: %v", err)
	}

	var entry Entry
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(data))), &entry); err != nil {
		t.Fatalf("Failed to parse entry: %v", err)
	}
	if entry.Timestamp == "" {
		t.Errorf("Expected timestamp to be set")
	}
	if entry.RemovedCount != 3 {
		t.Errorf("Expected removed_count 3, got %d", entry.RemovedCount)
	}
}

func TestLog_NoRootIsNoop(t *testing.T) {
	original := ProjectRoot
	ProjectRoot = ""
	defer func() { ProjectRoot = original }()

	// Must not panic or create anything.
	Log(Entry{Operation: "open-preview"})

	if LogPath() != "" {
		t.Errorf("Expected empty log path without a project root")
	}
}

func TestReadEntries_MissingFile(t *testing.T) {
	withProjectRoot(t)

	entries, err := ReadEntries()
	if err != nil {
		t.Fatalf("Expected no error for missing log, got %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected no entries, got %d", len(entries))
	}
}

func TestParseEntries_SkipsMalformedLines(t *testing.T) {
	data := []byte(`{"op":"encrypt","source":"a.yaml"}
not json
{"op":"decrypt","source":"b.yaml"}
`)

	entries, err := ParseEntries(data)
	if err != nil {
		t.Fatalf("ParseEntries failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].Operation != "encrypt" || entries[1].Operation != "decrypt" {
		t.Errorf("Entries parsed out of order: %+v", entries)
	}
}
