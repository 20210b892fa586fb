// Package editor abstracts the editing surface the lifecycle manager
// drives.
//
// Surface is the consumed interface: open and close documents, confirm
// modal choices, and receive open/close/save/focus notifications as a
// single event stream. The shipped implementation, External, runs a
// terminal editor ($EDITOR) and synthesizes the event stream from the
// editor process lifecycle and a file watcher; GUI hosts with a real
// notification API can provide their own Surface.
package editor
