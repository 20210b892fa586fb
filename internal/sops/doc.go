// Package sops wraps the external sops binary.
//
// SOPSie never performs cryptography itself. Decrypt, EncryptContent and
// the in-place operations shell out to sops with a per-call timeout; a
// timed-out process receives SIGTERM and, after a grace period, SIGKILL.
// Failures are classified into the sentinel taxonomy in internal/errors
// with the original stderr preserved.
//
// The package also hosts the content classifier, a format-agnostic
// heuristic for "does this blob already carry a sops envelope".
package sops
