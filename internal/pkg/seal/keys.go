package seal

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/hkdf"
)

// ErrNoMachineIdentity indicates no stable machine identity is available.
var ErrNoMachineIdentity = errors.New("seal: cannot determine stable machine identity (machine-id/hostname unavailable)")

// hkdfSalt separates keys derived here from any other HKDF use of the same
// identity material.
var hkdfSalt = sha256.Sum256([]byte("goknock/seal/v1"))

// StaticKeyProvider returns the same key for every scope.
// Good for tests and explicit key configuration.
type StaticKeyProvider struct {
	// KeyBytes is the raw AES key material.
	KeyBytes []byte
}

// Key returns a copy of the static key for the provided scope.
func (p StaticKeyProvider) Key(_ Scope) ([]byte, error) {
	if len(p.KeyBytes) == 0 {
		return nil, ErrMissingStaticKey
	}

	k := make([]byte, len(p.KeyBytes))
	copy(k, p.KeyBytes)
	return k, nil
}

// MachineKeyProvider derives per-scope keys from a stable machine identity.
//
// A blob sealed on one machine will not open on another, which keeps copied
// session files useless elsewhere.
type MachineKeyProvider struct {
	identity []byte
}

// NewMachineKeyProvider creates a provider bound to this machine.
func NewMachineKeyProvider() (*MachineKeyProvider, error) {
	src, err := machineIdentity()
	if err != nil {
		return nil, err
	}

	return &MachineKeyProvider{identity: []byte(src)}, nil
}

// Key derives a 32-byte AES key for the scope using HKDF-SHA256.
func (p *MachineKeyProvider) Key(scope Scope) ([]byte, error) {
	info := fmt.Sprintf("realm=%s\npurpose=%s\n", scope.Realm, scope.Purpose)

	r := hkdf.New(sha256.New, p.identity, hkdfSalt[:], []byte(info))

	key := make([]byte, aesKeyLen)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("seal: key derivation failed: %w", err)
	}

	return key, nil
}

// machineIdentity returns a stable identity string or an error.
func machineIdentity() (string, error) {
	// Try /etc/machine-id (Linux)
	if b, err := os.ReadFile("/etc/machine-id"); err == nil {
		if s := strings.TrimSpace(string(b)); s != "" {
			return s, nil
		}
	}

	// Fallback hostname
	if h, err := os.Hostname(); err == nil {
		if h = strings.TrimSpace(h); h != "" {
			return h, nil
		}
	}

	return "", ErrNoMachineIdentity
}
