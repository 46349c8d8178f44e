package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// DefaultTokenBytes gives 256 bits of entropy.
const DefaultTokenBytes = 32

// NewRefreshToken returns a hex-encoded random string of nBytes bytes.
// Refresh tokens are opaque and only ever compared against the stored copy.
func NewRefreshToken(nBytes int) (string, error) {
	if nBytes <= 0 {
		nBytes = DefaultTokenBytes
	}
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
