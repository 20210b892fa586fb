// Package rules locates and evaluates the .sops.yaml rule file that
// decides which paths are governed by encryption policy.
//
// A Matcher is loaded for a starting directory by walking up to the
// nearest .sops.yaml, the same way sops finds its configuration. Paths
// are matched against creation_rules path_regex entries relative to the
// rule file's directory. A rule without path_regex governs every file.
//
// The package also resolves user-supplied path and glob patterns (with
// ** support) down to the set of governed files, for the bulk encrypt
// and decrypt commands.
package rules
