package repo

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashToken is the lookup key for a refresh token. Plaintext tokens are
// never written to the store.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
