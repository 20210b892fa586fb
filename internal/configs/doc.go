// Package configs manages SOPSie's user settings.
//
// Settings live in a TOML file under the user config directory
// (~/.config/sopsie/config.toml on Linux). SOPSIE_CONFIG overrides the
// location, which tests use to point at a temp directory.
//
// The behavior settings decide what happens when a governed file is
// opened (show as-is, decrypt in place, or open a decrypted view) and
// saved (encrypt manually, automatically, or after a prompt). The sops
// and editor sections configure the external collaborators.
package configs
