package record

import (
	"crypto/sha256"
	"encoding/hex"
)

// ComputeHash computes SHA256 hash of encoded record bytes
func ComputeHash(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
