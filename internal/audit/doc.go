// Package audit provides audit trail logging for SOPSie operations.
//
// Every significant operation (open view, encrypt, decrypt, clean, etc.)
// is recorded in a project-level audit log. This helps teams understand
// when secrets were viewed or rewritten on a machine.
//
// # Log Format
//
// The audit log is stored as JSON Lines (one JSON object per line) at:
//
//	.sopsie/audit.jsonl
//
// Each entry contains:
//   - Timestamp (RFC3339 with microseconds, UTC)
//   - Operation name
//   - Operation-specific details (source path, ephemeral path, files)
//
// # Failure Handling
//
// Audit logging is best-effort. If logging fails (permissions, disk full,
// etc.), the operation continues without error. Operations should never
// fail just because audit logging failed.
//
// # Reading Logs
//
// Use ReadEntries() to parse the audit log for display or analysis.
// Malformed entries are silently skipped to handle partial writes.
package audit
