package encryption

import (
	"errors"
)

// Sentinel errors for envelope operations
var (
	// ErrKeySize indicates the provided key is not 32 bytes
	ErrKeySize = errors.New("encryption key must be 32 bytes")
	// ErrDecryptionFailed indicates a malformed envelope, key mismatch, or
	// corruption. Callers must treat this as fatal for the object in question;
	// partially decrypted bytes are never returned alongside it.
	ErrDecryptionFailed = errors.New("decryption failed")
	// ErrKeyNotConfigured indicates an encrypted object was touched while no
	// encryption key is loaded
	ErrKeyNotConfigured = errors.New("encryption key not configured")
)

// IsDecryptionError reports whether err stems from envelope decryption,
// as opposed to I/O on the underlying stream.
func IsDecryptionError(err error) bool {
	return errors.Is(err, ErrDecryptionFailed)
}
