// Package view manages the lifecycle of decrypted views over
// sops-encrypted files.
//
// A decrypted view is an ephemeral plaintext file that mirrors an
// encrypted source document. The package keeps the two linked through a
// Session, and guarantees that plaintext never outlives the session that
// created it.
//
// # Components
//
//   - Registry: the source↔ephemeral session map. At most one active
//     session per source, exactly one per ephemeral file.
//   - Store: owns the on-disk ephemeral files in a private directory.
//   - Tracker: the set of sources currently decrypted in place.
//   - Guard: suppresses handler re-entry caused by the manager's own
//     editor actions, plus a short cooldown after closing a view.
//   - Policy: pure decision functions mapping editor events to actions.
//   - Orchestrator: ties the above to an editor.Surface and a sops
//     executor, and runs the event loop.
//
// # Concurrency
//
// The Orchestrator serializes all public operations and event handlers
// under a single mutex. Handlers re-validate registry state after
// suspension points (prompts, subprocess calls) before acting on a
// session.
package view
