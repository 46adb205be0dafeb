// Package checksum detects artifact writes that would not change content.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Equal reports whether a and b have the same digest.
func Equal(a, b []byte) bool {
	return Sum(a) == Sum(b)
}
