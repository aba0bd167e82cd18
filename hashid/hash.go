// Package hashid implements the Hasher & Identifier Service of §4.1:
// deterministic content hashing and the two parallel identifier
// namespaces (durable UID, display-oriented local ID).
package hashid

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash returns the lowercase hex SHA-256 digest of b. Deterministic and
// collision-resistant under adversarial-free inputs per §4.1's contract.
func Hash(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// HashString is a convenience wrapper around Hash for string content.
func HashString(s string) string {
	return Hash([]byte(s))
}
