// Package encryption implements the at-rest envelope format for stored audio:
// a 16-byte random IV followed by AES-256-CBC ciphertext with PKCS7 padding.
// The same static key is provisioned to the server and to offline clients, so
// an envelope downloaded raw can be decrypted locally without a round trip.
package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const (
	KeySize = 32 // 256-bit key for AES-256
	IVSize  = 16 // 128-bit IV for AES, prepended to every envelope
)

// Codec encrypts and decrypts stored audio envelopes under a single static
// key. The key is injected at construction and never mutated; both the stream
// server and the offline client hold a Codec built from the same key material.
type Codec struct {
	key   []byte
	block cipher.Block
}

// NewCodec creates a codec for the given 32-byte key.
func NewCodec(key []byte) (*Codec, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrKeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	keyCopy := make([]byte, KeySize)
	copy(keyCopy, key)

	return &Codec{
		key:   keyCopy,
		block: block,
	}, nil
}

// ParseKey decodes a hex-encoded key from an external secret and validates
// its length.
func ParseKey(hexKey string) ([]byte, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("encryption key is not valid hex: %w", err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrKeySize, len(key))
	}
	return key, nil
}

// GenerateKey generates a random 256-bit encryption key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return key, nil
}

// GenerateIV generates a random 128-bit initialization vector.
func GenerateIV() ([]byte, error) {
	iv := make([]byte, IVSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("failed to generate IV: %w", err)
	}
	return iv, nil
}

// Encrypt encrypts a whole plaintext buffer and returns IV || ciphertext.
// A fresh IV is generated per call, so encrypting the same plaintext twice
// yields different envelopes. IV reuse under the static key would be a
// correctness bug, never an optimization.
func (c *Codec) Encrypt(plaintext []byte) ([]byte, error) {
	iv, err := GenerateIV()
	if err != nil {
		return nil, err
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)

	envelope := make([]byte, IVSize+len(padded))
	copy(envelope, iv)

	mode := cipher.NewCBCEncrypter(c.block, iv)
	mode.CryptBlocks(envelope[IVSize:], padded)

	return envelope, nil
}

// Decrypt splits an envelope into IV and ciphertext and recovers the
// plaintext. It fails rather than return garbage: a short envelope,
// misaligned ciphertext, or invalid padding (key mismatch or corruption)
// all surface as errors wrapping ErrDecryptionFailed.
func (c *Codec) Decrypt(envelope []byte) ([]byte, error) {
	if len(envelope) < IVSize {
		return nil, fmt.Errorf("%w: envelope is %d bytes, shorter than the %d-byte IV", ErrDecryptionFailed, len(envelope), IVSize)
	}

	iv := envelope[:IVSize]
	ciphertext := envelope[IVSize:]

	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: ciphertext length %d is not a positive multiple of %d", ErrDecryptionFailed, len(ciphertext), aes.BlockSize)
	}

	plaintext := make([]byte, len(ciphertext))
	mode := cipher.NewCBCDecrypter(c.block, iv)
	mode.CryptBlocks(plaintext, ciphertext)

	unpadded, err := pkcs7Unpad(plaintext)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}

	return unpadded, nil
}

// EncryptedSize returns the stored envelope size for a given plaintext size:
// IV plus ciphertext rounded up to block granularity. PKCS7 always adds at
// least one byte of padding, a full block when the plaintext is block-aligned.
func EncryptedSize(plaintextSize int64) int64 {
	padding := int64(aes.BlockSize) - (plaintextSize % int64(aes.BlockSize))
	return int64(IVSize) + plaintextSize + padding
}

// pkcs7Pad applies PKCS7 padding to the data.
func pkcs7Pad(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	padText := make([]byte, padding)
	for i := range padText {
		padText[i] = byte(padding)
	}
	return append(data, padText...)
}

// pkcs7Unpad removes PKCS7 padding from the data.
// Verifies that all padding bytes have the correct value so a wrong key or
// corrupted envelope fails loudly instead of yielding truncated audio.
func pkcs7Unpad(data []byte) ([]byte, error) {
	length := len(data)
	if length == 0 {
		return nil, fmt.Errorf("invalid padding: empty data")
	}
	padding := int(data[length-1])
	if padding > length || padding > aes.BlockSize || padding == 0 {
		return nil, fmt.Errorf("invalid padding size: %d", padding)
	}
	for i := 0; i < padding; i++ {
		if data[length-1-i] != byte(padding) {
			return nil, fmt.Errorf("invalid padding byte at position %d: expected %d, got %d", i, padding, data[length-1-i])
		}
	}
	return data[:length-padding], nil
}
