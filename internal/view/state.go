package view

// EncryptionState describes what a governed document currently holds.
// It is computed on demand and never persisted.
type EncryptionState int

const (
	// StateUnknown means the content could not be inspected.
	StateUnknown EncryptionState = iota

	// StateEncrypted means the content carries a sops envelope.
	StateEncrypted

	// StateDecrypted means the file was decrypted in place and is
	// pending re-encryption. Only reported for paths in the tracker.
	StateDecrypted

	// StatePlainText means the content is plaintext and not tracked as
	// pending re-encryption.
	StatePlainText
)

func (s EncryptionState) String() string {
	switch s {
	case StateEncrypted:
		return "encrypted"
	case StateDecrypted:
		return "decrypted"
	case StatePlainText:
		return "plaintext"
	default:
		return "unknown"
	}
}

// ClassifyState combines the content classification with decrypted-set
// membership. Membership wins: a tracked path is Decrypted regardless of
// content, and an untracked path can only be Encrypted or PlainText.
func ClassifyState(contentEncrypted, inDecryptedSet bool) EncryptionState {
	if inDecryptedSet {
		return StateDecrypted
	}
	if contentEncrypted {
		return StateEncrypted
	}
	return StatePlainText
}
