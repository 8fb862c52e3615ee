// Package sha256 digests normalized page text for exact-match duplicate detection.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hasher digests page content.
type Hasher struct{}

// New returns a SHA-256 hasher.
func New() *Hasher {
	return &Hasher{}
}

// HashText hashes normalized page text and returns a hex digest.
func (h *Hasher) HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
