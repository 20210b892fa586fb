package view

import (
	"fmt"

	"github.com/JinxCappa/SOPSie/internal/configs"
)

// OpenBehavior decides what happens when a governed encrypted file is
// opened.
type OpenBehavior int

const (
	// OpenShowAsIs leaves the encrypted document alone.
	OpenShowAsIs OpenBehavior = iota

	// OpenAutoDecrypt decrypts the document in place.
	OpenAutoDecrypt

	// OpenDecryptedView opens an ephemeral decrypted view next to it.
	OpenDecryptedView
)

// SaveBehavior decides what happens when a decrypted document is saved.
type SaveBehavior int

const (
	// SaveManualEncrypt never encrypts automatically.
	SaveManualEncrypt SaveBehavior = iota

	// SaveAutoEncrypt re-encrypts to the source on every save.
	SaveAutoEncrypt

	// SavePromptUser asks before every save.
	SavePromptUser
)

// ViewMode selects which kind of ephemeral view OpenDecryptedView opens.
type ViewMode int

const (
	ModePreview ViewMode = iota
	ModeEditInPlace
)

// OpenAction is the policy outcome for a file-open event.
type OpenAction int

const (
	OpenActionNone OpenAction = iota
	OpenActionAutoDecrypt
	OpenActionPreview
	OpenActionEditInPlace
)

// SaveAction is the policy outcome for a will-save event.
type SaveAction int

const (
	SaveActionProceed SaveAction = iota
	SaveActionAutoEncrypt
	SaveActionPrompt
)

// Prompt choices offered when SaveBehavior is SavePromptUser. Cancel is
// absolute: the save itself must be aborted, not just the encryption.
const (
	ChoiceEncryptAndSave = "Encrypt and save"
	ChoiceSaveAsIs       = "Save as-is"
	ChoiceCancel         = "Cancel"
)

// Policy maps editor events to actions from the configured behaviors.
// It performs no I/O; the orchestrator executes the returned actions.
type Policy struct {
	Open OpenBehavior
	Save SaveBehavior
	Mode ViewMode
}

// PolicyFromSettings translates validated string settings into a Policy.
func PolicyFromSettings(settings *configs.Settings) (Policy, error) {
	policy := Policy{}

	switch settings.Behavior.OpenBehavior {
	case configs.OpenShowAsIs:
		policy.Open = OpenShowAsIs
	case configs.OpenAutoDecrypt:
		policy.Open = OpenAutoDecrypt
	case configs.OpenDecryptedView:
		policy.Open = OpenDecryptedView
	default:
		return policy, fmt.Errorf("unknown open_behavior %q", settings.Behavior.OpenBehavior)
	}

	switch settings.Behavior.SaveBehavior {
	case configs.SaveManualEncrypt:
		policy.Save = SaveManualEncrypt
	case configs.SaveAutoEncrypt:
		policy.Save = SaveAutoEncrypt
	case configs.SavePrompt:
		policy.Save = SavePromptUser
	default:
		return policy, fmt.Errorf("unknown save_behavior %q", settings.Behavior.SaveBehavior)
	}

	switch settings.Behavior.ViewMode {
	case configs.ViewModePreview:
		policy.Mode = ModePreview
	case configs.ViewModeEditInPlace:
		policy.Mode = ModeEditInPlace
	default:
		return policy, fmt.Errorf("unknown view_mode %q", settings.Behavior.ViewMode)
	}

	return policy, nil
}

// DecideOnOpen returns the action for an opened document. Anything that
// is not a governed encrypted document gets OpenActionNone.
func (p Policy) DecideOnOpen(state EncryptionState, hasMatchingRule bool) OpenAction {
	if !hasMatchingRule || state != StateEncrypted {
		return OpenActionNone
	}

	switch p.Open {
	case OpenAutoDecrypt:
		return OpenActionAutoDecrypt
	case OpenDecryptedView:
		if p.Mode == ModeEditInPlace {
			return OpenActionEditInPlace
		}
		return OpenActionPreview
	default:
		return OpenActionNone
	}
}

// DecideOnWillSave returns the action for a document about to be saved.
// Documents outside the decrypted set proceed untouched.
func (p Policy) DecideOnWillSave(inDecryptedSet bool) SaveAction {
	if !inDecryptedSet {
		return SaveActionProceed
	}

	switch p.Save {
	case SaveAutoEncrypt:
		return SaveActionAutoEncrypt
	case SavePromptUser:
		return SaveActionPrompt
	default:
		return SaveActionProceed
	}
}
