package seal

import (
	"crypto/sha256"
	"fmt"
)

// Purpose identifies what a sealed blob is for.
type Purpose string

// PurposeSession scopes sealing to persisted sign-in sessions.
const PurposeSession Purpose = "session"

// Scope binds a sealed blob to its intended use.
// It is used as AAD (Additional Authenticated Data) in AES-GCM, so a blob
// sealed for one scope cannot be opened under another.
type Scope struct {
	// Realm separates blobs of different profiles or installs.
	Realm string
	// Purpose is the sealing purpose.
	Purpose Purpose
}

// Sealer defines the interface for sealing and opening small blobs at rest.
type Sealer interface {
	// Seal returns ciphertext for the given plaintext and scope.
	Seal(plaintext []byte, scope Scope) (ciphertext []byte, err error)
	// Open returns plaintext for the given ciphertext and scope.
	Open(ciphertext []byte, scope Scope) (plaintext []byte, err error)
}

// KeyProvider provides raw AES keys.
// For AES-256-GCM, keys must be 32 bytes.
type KeyProvider interface {
	// Key returns the raw AES key to use for this scope.
	Key(scope Scope) ([]byte, error)
}

// scopeAAD encodes the scope into a stable byte slice for GCM AAD.
//
// A canonical labeled string is hashed to keep the AAD length fixed and to
// avoid separator ambiguity between fields.
func scopeAAD(s Scope) []byte {
	canonical := fmt.Sprintf("realm=%s\npurpose=%s\n", s.Realm, s.Purpose)
	sum := sha256.Sum256([]byte(canonical))
	return sum[:]
}
