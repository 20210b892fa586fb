package configs

import (
	"fmt"
	"os"
	"path/filepath"
)

// Allowed values for the behavior settings. The view package maps these
// onto its typed policy enums.
const (
	OpenShowAsIs      = "show-as-is"
	OpenAutoDecrypt   = "auto-decrypt"
	OpenDecryptedView = "decrypted-view"

	SaveManualEncrypt = "manual"
	SaveAutoEncrypt   = "auto-encrypt"
	SavePrompt        = "prompt"

	ViewModePreview     = "preview"
	ViewModeEditInPlace = "edit"
)

// BehaviorSettings control what SOPSie does when a governed file is
// opened or saved.
type BehaviorSettings struct {
	OpenBehavior        string `toml:"open_behavior"`
	SaveBehavior        string `toml:"save_behavior"`
	ViewMode            string `toml:"view_mode"`
	OpenDecryptedBeside bool   `toml:"open_decrypted_beside"`
	AutoClosePairedTab  bool   `toml:"auto_close_paired_tab"`
	CooldownMillis      int    `toml:"cooldown_millis"`
}

// SopsSettings configure the external sops invocation.
type SopsSettings struct {
	Binary         string `toml:"binary"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// EditorSettings configure the external editor used for ephemeral views.
type EditorSettings struct {
	// Command is the editor executable. Empty means $EDITOR, falling
	// back to vi.
	Command string `toml:"command"`

	// TempDir overrides where ephemeral plaintext files are created.
	// Empty means the platform temp directory.
	TempDir string `toml:"temp_dir"`
}

type Settings struct {
	Behavior BehaviorSettings `toml:"behavior"`
	Sops     SopsSettings     `toml:"sops"`
	Editor   EditorSettings   `toml:"editor"`
}

// DefaultSettings returns the settings used when no config file exists.
func DefaultSettings() *Settings {
	return &Settings{
		Behavior: BehaviorSettings{
			OpenBehavior:        OpenDecryptedView,
			SaveBehavior:        SavePrompt,
			ViewMode:            ViewModePreview,
			OpenDecryptedBeside: true,
			AutoClosePairedTab:  true,
			CooldownMillis:      1500,
		},
		Sops: SopsSettings{
			Binary:         "sops",
			TimeoutSeconds: 30,
		},
		Editor: EditorSettings{},
	}
}

// SettingsPath returns the location of the user settings file.
// SOPSIE_CONFIG overrides the default for testing.
func SettingsPath() (string, error) {
	if override := os.Getenv("SOPSIE_CONFIG"); override != "" {
		return override, nil
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}

	return filepath.Join(configDir, "sopsie", "config.toml"), nil
}

// LoadSettings loads the user settings, returning defaults if the config
// file does not exist.
func LoadSettings() (*Settings, error) {
	path, err := SettingsPath()
	if err != nil {
		return nil, err
	}

	settings := DefaultSettings()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return settings, nil
	}

	if err := LoadTOML(path, settings); err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	return settings, nil
}

// SaveSettings writes the settings to the user settings file.
func SaveSettings(settings *Settings) error {
	path, err := SettingsPath()
	if err != nil {
		return err
	}

	if err := SaveTOML(path, settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	return nil
}

// Validate checks that enum-valued settings hold allowed values.
func (s *Settings) Validate() error {
	switch s.Behavior.OpenBehavior {
	case OpenShowAsIs, OpenAutoDecrypt, OpenDecryptedView:
	default:
		return fmt.Errorf("invalid open_behavior %q (expected %s, %s, or %s)",
			s.Behavior.OpenBehavior, OpenShowAsIs, OpenAutoDecrypt, OpenDecryptedView)
	}

	switch s.Behavior.SaveBehavior {
	case SaveManualEncrypt, SaveAutoEncrypt, SavePrompt:
	default:
		return fmt.Errorf("invalid save_behavior %q (expected %s, %s, or %s)",
			s.Behavior.SaveBehavior, SaveManualEncrypt, SaveAutoEncrypt, SavePrompt)
	}

	switch s.Behavior.ViewMode {
	case ViewModePreview, ViewModeEditInPlace:
	default:
		return fmt.Errorf("invalid view_mode %q (expected %s or %s)",
			s.Behavior.ViewMode, ViewModePreview, ViewModeEditInPlace)
	}

	if s.Behavior.CooldownMillis < 0 {
		return fmt.Errorf("cooldown_millis must not be negative")
	}

	if s.Sops.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout_seconds must be positive")
	}

	return nil
}
