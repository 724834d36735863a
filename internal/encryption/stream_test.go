package encryption

import (
	"bytes"
	"crypto/rand"
	"errors"
	"io"
	"testing"
)

// chunkedReader yields at most chunkSize bytes per Read, forcing the decrypt
// reader to cope with specific chunk boundaries.
type chunkedReader struct {
	data      []byte
	chunkSize int
}

func (r *chunkedReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	n := r.chunkSize
	if n > len(r.data) {
		n = len(r.data)
	}
	if n > len(p) {
		n = len(p)
	}
	copy(p, r.data[:n])
	r.data = r.data[n:]
	return n, nil
}

// TestEncryptToMatchesWholeBuffer tests that the streaming encryptor produces
// envelopes the whole-buffer decryptor accepts, independent of input chunking
func TestEncryptToMatchesWholeBuffer(t *testing.T) {
	codec := testCodec(t)

	plaintext := make([]byte, 100_003)
	if _, err := rand.Read(plaintext); err != nil {
		t.Fatalf("rand.Read failed: %v", err)
	}

	for _, chunkSize := range []int{1, 7, 16, 1000, 16 * 1024, len(plaintext)} {
		var envelope bytes.Buffer
		written, err := codec.EncryptTo(&envelope, &chunkedReader{data: plaintext, chunkSize: chunkSize})
		if err != nil {
			t.Fatalf("EncryptTo with chunk size %d failed: %v", chunkSize, err)
		}

		if written != int64(envelope.Len()) {
			t.Errorf("EncryptTo reported %d bytes written, buffer holds %d", written, envelope.Len())
		}
		if want := EncryptedSize(int64(len(plaintext))); written != want {
			t.Errorf("Chunk size %d: envelope is %d bytes, expected %d", chunkSize, written, want)
		}

		recovered, err := codec.Decrypt(envelope.Bytes())
		if err != nil {
			t.Fatalf("Decrypt of streamed envelope (chunk size %d) failed: %v", chunkSize, err)
		}
		if !bytes.Equal(recovered, plaintext) {
			t.Errorf("Chunk size %d: streamed envelope did not round-trip", chunkSize)
		}
	}
}

// TestDecryptReaderChunkBoundaries tests that streaming decode is
// byte-identical to whole-buffer decode for every chunking, including splits
// inside the 16-byte IV
func TestDecryptReaderChunkBoundaries(t *testing.T) {
	codec := testCodec(t)

	plaintext := make([]byte, 10_000)
	if _, err := rand.Read(plaintext); err != nil {
		t.Fatalf("rand.Read failed: %v", err)
	}

	envelope, err := codec.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt() failed: %v", err)
	}

	// Chunk sizes below IVSize split the IV itself across reads.
	for _, chunkSize := range []int{1, 3, 5, 15, 16, 17, 31, 32, 33, 100, 4096, len(envelope)} {
		reader := codec.NewDecryptReader(&chunkedReader{data: envelope, chunkSize: chunkSize})
		recovered, err := io.ReadAll(reader)
		if err != nil {
			t.Fatalf("Streaming decode with chunk size %d failed: %v", chunkSize, err)
		}
		if !bytes.Equal(recovered, plaintext) {
			t.Errorf("Chunk size %d: streaming output differs from whole-buffer decode", chunkSize)
		}
	}
}

// TestDecryptReaderSmallReadBuffer tests draining the reader through a tiny
// destination buffer
func TestDecryptReaderSmallReadBuffer(t *testing.T) {
	codec := testCodec(t)
	plaintext := []byte("short enough to fit one chunk, read three bytes at a time")

	envelope, err := codec.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt() failed: %v", err)
	}

	reader := codec.NewDecryptReader(bytes.NewReader(envelope))
	var recovered []byte
	buf := make([]byte, 3)
	for {
		n, err := reader.Read(buf)
		recovered = append(recovered, buf[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
	}

	if !bytes.Equal(recovered, plaintext) {
		t.Error("Three-byte reads did not reassemble the plaintext")
	}
}

// TestDecryptReaderTruncatedEnvelope tests the failure taxonomy for
// streamed envelopes that end early
func TestDecryptReaderTruncatedEnvelope(t *testing.T) {
	codec := testCodec(t)

	envelope, err := codec.Encrypt([]byte("source material"))
	if err != nil {
		t.Fatalf("Encrypt() failed: %v", err)
	}

	testCases := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"partial_iv", envelope[:10]},
		{"iv_only", envelope[:IVSize]},
		{"misaligned_tail", envelope[:IVSize+9]},
		{"missing_final_block", envelope[:len(envelope)-16]},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			reader := codec.NewDecryptReader(bytes.NewReader(tc.data))
			out, err := io.ReadAll(reader)
			if !errors.Is(err, ErrDecryptionFailed) {
				t.Errorf("Expected ErrDecryptionFailed, got err=%v out=%d bytes", err, len(out))
			}
		})
	}
}

// TestDecryptReaderErrorSticks tests that a failed reader keeps failing
// instead of resuming mid-envelope
func TestDecryptReaderErrorSticks(t *testing.T) {
	codec := testCodec(t)

	reader := codec.NewDecryptReader(bytes.NewReader(make([]byte, 5)))
	if _, err := io.ReadAll(reader); !errors.Is(err, ErrDecryptionFailed) {
		t.Fatalf("Expected ErrDecryptionFailed, got %v", err)
	}

	if _, err := reader.Read(make([]byte, 8)); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("Second Read after failure returned %v, expected the sticky error", err)
	}
}
