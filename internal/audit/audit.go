package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// ProjectRoot is the directory holding the .sopsie state directory,
// normally the directory containing .sops.yaml. Set by the CLI after
// rule discovery. When empty, logging is skipped.
var ProjectRoot string

// Entry represents a single audit log entry.
type Entry struct {
	Timestamp string `json:"ts"` // RFC3339 with microseconds.
	Operation string `json:"op"` // Operation name.

	// Optional fields depending on operation.
	Source       string   `json:"source,omitempty"`        // Governed source file.
	Ephemeral    string   `json:"ephemeral,omitempty"`     // Ephemeral view file.
	Kind         string   `json:"kind,omitempty"`          // View kind (preview/edit).
	Files        []string `json:"files,omitempty"`         // For encrypt/decrypt batches.
	RemovedCount int      `json:"removed_count,omitempty"` // For clean.
	Detail       string   `json:"detail,omitempty"`        // Free-form context.
}

// Log appends an entry to the audit log.
// If logging fails, it logs nothing but does not return an error.
// Operations should not fail just because audit logging failed.
func Log(entry Entry) {
	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format("2006-01-02T15:04:05.000000Z")
	}

	logPath := LogPath()
	if logPath == "" {
		return
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return
	}

	// #nosec G306 -- audit log should be readable by team members.
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	_, _ = f.Write(append(data, '\n'))
}

// LogPath returns the path to the audit log file.
// Returns empty string if no project root is set.
func LogPath() string {
	if ProjectRoot == "" {
		return ""
	}
	return filepath.Join(ProjectRoot, ".sopsie", "audit.jsonl")
}

// ReadEntries reads all entries from the audit log.
// Returns an empty slice if the log doesn't exist.
func ReadEntries() ([]Entry, error) {
	logPath := LogPath()
	if logPath == "" {
		return nil, nil
	}

	data, err := os.ReadFile(logPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return ParseEntries(data)
}

// ParseEntries parses JSON Lines data into audit entries.
// Malformed lines are silently skipped.
func ParseEntries(data []byte) ([]Entry, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var entries []Entry
	start := 0

	for i := 0; i <= len(data); i++ {
		if i == len(data) || data[i] == '\n' {
			line := data[start:i]
			start = i + 1

			if len(line) == 0 {
				continue
			}

			var entry Entry
			if err := json.Unmarshal(line, &entry); err != nil {
				// Skip malformed entries.
				continue
			}
			entries = append(entries, entry)
		}
	}

	return entries, nil
}
