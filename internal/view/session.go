package view

import (
	"time"

	"github.com/JinxCappa/SOPSie/internal/editor"
)

// ViewKind distinguishes the two kinds of ephemeral view.
type ViewKind int

const (
	// KindPreview is a read-only decrypted view.
	KindPreview ViewKind = iota

	// KindEditInPlace is a writable decrypted view that re-encrypts back
	// to the source on save.
	KindEditInPlace
)

func (k ViewKind) String() string {
	if k == KindEditInPlace {
		return "edit"
	}
	return "preview"
}

// Presentation carries where and how an ephemeral view is shown, so a
// replacement view can reuse the same placement.
type Presentation struct {
	ViewColumn    int
	SourceColumn  int
	Beside        bool
	PreserveFocus bool
}

// Session associates a governed source document with its currently open
// ephemeral view. At most one active Session exists per source path, and
// exactly one per ephemeral path.
type Session struct {
	SourcePath    string
	EphemeralPath string
	Kind          ViewKind
	Handle        editor.Handle
	Presentation  Presentation
	CreatedAt     time.Time

	// Dirty means the ephemeral file holds edits that have not been
	// re-encrypted to the source yet.
	Dirty bool
}
