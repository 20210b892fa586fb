package editor

import "context"

// EventType identifies an editor notification.
type EventType int

const (
	// EventOpened fires when a document is opened in the editor.
	EventOpened EventType = iota

	// EventClosed fires when a document's editor is gone.
	EventClosed

	// EventSaved fires after the editor writes a document to disk.
	EventSaved

	// EventFocused fires when a document gains focus.
	EventFocused
)

func (t EventType) String() string {
	switch t {
	case EventOpened:
		return "opened"
	case EventClosed:
		return "closed"
	case EventSaved:
		return "saved"
	case EventFocused:
		return "focused"
	default:
		return "unknown"
	}
}

// Event is a single editor notification.
type Event struct {
	Type EventType
	Path string
}

// OpenOptions carry presentation hints for OpenDocument. Implementations
// that have no notion of view columns may ignore the hints.
type OpenOptions struct {
	// Column is the view column to open in; 0 means the active column.
	Column int

	// Beside opens the document next to the currently focused view.
	Beside bool

	// PreserveFocus keeps focus on the current view after opening.
	PreserveFocus bool

	// ReadOnly opens the document as a read-only view.
	ReadOnly bool
}

// Handle identifies an open document within a Surface.
type Handle string

// Surface is the editor the lifecycle manager drives. Implementations
// deliver their notifications on Events; the orchestrator subscribes
// exactly once.
type Surface interface {
	// OpenDocument opens path in the editor.
	OpenDocument(ctx context.Context, path string, opts OpenOptions) (Handle, error)

	// CloseDocument closes a previously opened document. Closing a
	// document that is already gone is not an error.
	CloseDocument(ctx context.Context, handle Handle) error

	// Confirm presents a modal choice and returns the selected option.
	Confirm(ctx context.Context, prompt string, options []string) (string, error)

	// Events is the stream of editor notifications.
	Events() <-chan Event

	// Close releases the surface and its event stream.
	Close() error
}
