package bridge

import (
	"crypto/rand"
	"encoding/hex"
)

// TokenLength is the number of hex characters in a bridge auth token
// (spec.md §4.8: "32 hex chars"). Generated from crypto/rand rather than
// the original's SHA-256(time+pid+stack) hash, which is guessable by
// anything that can observe the bridge process's startup window.
const TokenLength = 32

// GenerateToken returns a fresh random hex token for one bridge session.
func GenerateToken() (string, error) {
	raw := make([]byte, TokenLength/2)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}
