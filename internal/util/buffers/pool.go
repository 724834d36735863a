package buffers

import (
	"sync"

	"github.com/tunevault/tunevault/internal/constants"
)

// Pool provides reusable byte buffers to reduce heap allocations during
// streaming and encryption operations. Audio streams are long-lived and
// chunk-oriented, so pooling noticeably reduces GC pressure under load.

var (
	// copyPool provides 64KB buffers for piping audio bytes to responses
	copyPool = &sync.Pool{
		New: func() interface{} {
			buf := make([]byte, constants.StreamCopyBufferSize)
			return &buf
		},
	}

	// smallPool provides 16KB buffers for encryption operations
	smallPool = &sync.Pool{
		New: func() interface{} {
			buf := make([]byte, constants.EncryptionChunkSize)
			return &buf
		},
	}
)

// GetCopyBuffer retrieves a 64KB buffer from the pool.
// The buffer must be returned with PutCopyBuffer when done.
//
// Usage:
//
//	buf := buffers.GetCopyBuffer()
//	defer buffers.PutCopyBuffer(buf)
//	io.CopyBuffer(dst, src, *buf)
func GetCopyBuffer() *[]byte {
	return copyPool.Get().(*[]byte)
}

// PutCopyBuffer returns a buffer to the pool for reuse.
// Only buffers of the correct size are pooled. The buffer is cleared before
// pooling so decrypted audio never lingers across uses.
func PutCopyBuffer(buf *[]byte) {
	if buf != nil && len(*buf) == constants.StreamCopyBufferSize {
		clear(*buf)
		copyPool.Put(buf)
	}
}

// GetSmallBuffer retrieves a 16KB buffer used by encryption chunking.
func GetSmallBuffer() *[]byte {
	return smallPool.Get().(*[]byte)
}

// PutSmallBuffer returns a small buffer to the pool for reuse.
func PutSmallBuffer(buf *[]byte) {
	if buf != nil && len(*buf) == constants.EncryptionChunkSize {
		clear(*buf)
		smallPool.Put(buf)
	}
}
