package view

import (
	"testing"

	"github.com/JinxCappa/SOPSie/internal/configs"
)

func TestPolicyFromSettings(t *testing.T) {
	t.Run("defaults translate cleanly", func(t *testing.T) {
		policy, err := PolicyFromSettings(configs.DefaultSettings())
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if policy.Open != OpenDecryptedView {
			t.Errorf("Expected OpenDecryptedView, got %v", policy.Open)
		}
		if policy.Save != SavePromptUser {
			t.Errorf("Expected SavePromptUser, got %v", policy.Save)
		}
		if policy.Mode != ModePreview {
			t.Errorf("Expected ModePreview, got %v", policy.Mode)
		}
	})

	t.Run("unknown values are rejected", func(t *testing.T) {
		tests := []struct {
			name   string
			mutate func(*configs.Settings)
		}{
			{"open behavior", func(s *configs.Settings) { s.Behavior.OpenBehavior = "explode" }},
			{"save behavior", func(s *configs.Settings) { s.Behavior.SaveBehavior = "maybe" }},
			{"view mode", func(s *configs.Settings) { s.Behavior.ViewMode = "diorama" }},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				settings := configs.DefaultSettings()
				tt.mutate(settings)
				if _, err := PolicyFromSettings(settings); err == nil {
					t.Errorf("Expected error for invalid %s", tt.name)
				}
			})
		}
	})
}

func TestDecideOnOpen(t *testing.T) {
	tests := []struct {
		name    string
		policy  Policy
		state   EncryptionState
		hasRule bool
		want    OpenAction
	}{
		{
			name:    "ungoverned file is ignored",
			policy:  Policy{Open: OpenDecryptedView, Mode: ModePreview},
			state:   StateEncrypted,
			hasRule: false,
			want:    OpenActionNone,
		},
		{
			name:    "plaintext file is ignored",
			policy:  Policy{Open: OpenDecryptedView, Mode: ModePreview},
			state:   StatePlainText,
			hasRule: true,
			want:    OpenActionNone,
		},
		{
			name:    "already decrypted file is ignored",
			policy:  Policy{Open: OpenAutoDecrypt},
			state:   StateDecrypted,
			hasRule: true,
			want:    OpenActionNone,
		},
		{
			name:    "show as-is does nothing",
			policy:  Policy{Open: OpenShowAsIs},
			state:   StateEncrypted,
			hasRule: true,
			want:    OpenActionNone,
		},
		{
			name:    "auto decrypt",
			policy:  Policy{Open: OpenAutoDecrypt},
			state:   StateEncrypted,
			hasRule: true,
			want:    OpenActionAutoDecrypt,
		},
		{
			name:    "decrypted view in preview mode",
			policy:  Policy{Open: OpenDecryptedView, Mode: ModePreview},
			state:   StateEncrypted,
			hasRule: true,
			want:    OpenActionPreview,
		},
		{
			name:    "decrypted view in edit mode",
			policy:  Policy{Open: OpenDecryptedView, Mode: ModeEditInPlace},
			state:   StateEncrypted,
			hasRule: true,
			want:    OpenActionEditInPlace,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.policy.DecideOnOpen(tt.state, tt.hasRule)
			if got != tt.want {
				t.Errorf("DecideOnOpen() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDecideOnWillSave(t *testing.T) {
	tests := []struct {
		name           string
		policy         Policy
		inDecryptedSet bool
		want           SaveAction
	}{
		{"untracked file proceeds", Policy{Save: SaveAutoEncrypt}, false, SaveActionProceed},
		{"manual never encrypts", Policy{Save: SaveManualEncrypt}, true, SaveActionProceed},
		{"auto encrypt", Policy{Save: SaveAutoEncrypt}, true, SaveActionAutoEncrypt},
		{"prompt", Policy{Save: SavePromptUser}, true, SaveActionPrompt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.policy.DecideOnWillSave(tt.inDecryptedSet)
			if got != tt.want {
				t.Errorf("DecideOnWillSave() = %v, want %v", got, tt.want)
			}
		})
	}
}
