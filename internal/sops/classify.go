package sops

import "bytes"

// IsEncrypted reports whether content already carries a sops envelope.
//
// This is a heuristic, not a parser: every sops rendition (YAML, JSON,
// dotenv, INI, binary-as-JSON) embeds ENC[AES256_GCM,...] payload markers
// and a metadata MAC in the same notation, so their presence is a
// reliable signal without committing to a format.
func IsEncrypted(content []byte) bool {
	if len(content) == 0 {
		return false
	}

	if bytes.Contains(content, []byte("ENC[AES256_GCM,")) {
		return true
	}

	// Dotenv rendition flattens the metadata into sops_* keys.
	if bytes.Contains(content, []byte("sops_version=")) {
		return true
	}

	return false
}
