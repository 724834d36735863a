// Package constants defines shared constants for TuneVault.
package constants

import (
	"time"
)

// Streaming and encryption sizes
const (
	// EncryptionChunkSize - chunk size for AES encryption operations (16 KB)
	EncryptionChunkSize = 16 * 1024

	// StreamCopyBufferSize - buffer size for piping audio bytes to HTTP responses (64 KB)
	StreamCopyBufferSize = 64 * 1024

	// MaxUploadSize - upper bound for a single uploaded audio file (200 MB)
	// Multipart parsing rejects anything larger before the file reaches storage.
	MaxUploadSize = 200 * 1024 * 1024

	// MaxArtworkSize - upper bound for an uploaded artwork image (10 MB)
	MaxArtworkSize = 10 * 1024 * 1024
)

// HTTP transport tuning
const (
	// HTTPIdleConnTimeout - how long to keep idle connections open (90 seconds)
	HTTPIdleConnTimeout = 90 * time.Second

	// HTTPTLSHandshakeTimeout - timeout for TLS handshake (60 seconds)
	HTTPTLSHandshakeTimeout = 60 * time.Second

	// HTTPExpectContinueTimeout - timeout for 100-continue response (1 second)
	HTTPExpectContinueTimeout = 1 * time.Second

	// ServerReadHeaderTimeout - limit on reading request headers (10 seconds)
	ServerReadHeaderTimeout = 10 * time.Second

	// ServerShutdownTimeout - grace period for in-flight streams on shutdown (15 seconds)
	ServerShutdownTimeout = 15 * time.Second

	// CounterUpdateTimeout - budget for a fire-and-forget play or download
	// counter update (5 seconds)
	CounterUpdateTimeout = 5 * time.Second
)

// HTTP surface
const (
	// ContentTypeMPEG - content type served for playable audio
	ContentTypeMPEG = "audio/mpeg"

	// ContentTypeOctetStream - content type for raw encrypted envelope downloads
	ContentTypeOctetStream = "application/octet-stream"

	// DefaultListenAddr - default bind address for the stream server
	DefaultListenAddr = ":8080"
)

// Stored object naming
const (
	// PlainAudioExt - extension for unencrypted stored audio objects
	PlainAudioExt = ".mp3"

	// EncryptedAudioExt - extension for encrypted stored envelopes
	EncryptedAudioExt = ".enc"

	// ArtworkExt - extension for sibling artwork objects
	ArtworkExt = ".jpg"
)

// Environment variable names for secrets. Secrets never live in the config file.
const (
	// EnvEncryptionKey - hex-encoded 32-byte static AES key
	EnvEncryptionKey = "TUNEVAULT_ENCRYPTION_KEY"

	// EnvAPIToken - static bearer token expected by authenticated endpoints
	EnvAPIToken = "TUNEVAULT_API_TOKEN"
)
