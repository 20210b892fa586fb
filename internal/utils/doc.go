// Package utils provides small shared helpers for terminal interaction
// and output formatting.
//
// The TTY helpers talk to /dev/tty (CON on Windows) directly so they
// work even when stdin or stdout is redirected. The view command uses
// them to show plaintext on the terminal and wipe it afterwards.
package utils
