// Streaming envelope codec. Produces and consumes the exact same byte layout
// as the whole-buffer Encrypt/Decrypt: IV first, then a running CBC transform
// over the input, PKCS7 padding trimmed at end of stream. Both directions
// tolerate arbitrary chunk boundaries, including a boundary inside the IV.
package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"io"

	"github.com/tunevault/tunevault/internal/util/buffers"
)

// EncryptTo reads plaintext from r, encrypts it incrementally, and writes the
// envelope to w. Returns the total number of envelope bytes written.
func (c *Codec) EncryptTo(w io.Writer, r io.Reader) (int64, error) {
	iv, err := GenerateIV()
	if err != nil {
		return 0, err
	}

	if _, err := w.Write(iv); err != nil {
		return 0, fmt.Errorf("failed to write IV: %w", err)
	}
	written := int64(IVSize)

	mode := cipher.NewCBCEncrypter(c.block, iv)

	bufferPtr := buffers.GetSmallBuffer()
	defer buffers.PutSmallBuffer(bufferPtr)
	buffer := *bufferPtr

	// Bytes read but not yet encrypted; always shorter than one block except
	// while absorbing a fresh chunk.
	var carry []byte

	for {
		n, err := r.Read(buffer)
		if n > 0 {
			carry = append(carry, buffer[:n]...)

			completeBlocks := (len(carry) / aes.BlockSize) * aes.BlockSize
			if completeBlocks > 0 {
				encrypted := make([]byte, completeBlocks)
				mode.CryptBlocks(encrypted, carry[:completeBlocks])
				if _, werr := w.Write(encrypted); werr != nil {
					return written, fmt.Errorf("failed to write ciphertext: %w", werr)
				}
				written += int64(completeBlocks)
				carry = append(carry[:0], carry[completeBlocks:]...)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return written, fmt.Errorf("failed to read plaintext: %w", err)
		}
	}

	// Pad and encrypt the final partial (possibly empty) block.
	padded := pkcs7Pad(carry, aes.BlockSize)
	final := make([]byte, len(padded))
	mode.CryptBlocks(final, padded)
	if _, err := w.Write(final); err != nil {
		return written, fmt.Errorf("failed to write final ciphertext: %w", err)
	}
	written += int64(len(final))

	return written, nil
}

// DecryptReader incrementally decrypts an envelope read from an underlying
// source. It buffers input until the 16-byte IV is complete, then forwards
// decrypted output for subsequent chunks, holding back the trailing ciphertext
// block until EOF so padding can be validated and trimmed.
type DecryptReader struct {
	src   io.Reader
	block cipher.Block
	mode  cipher.BlockMode

	iv      []byte // accumulates the envelope IV until 16 bytes are available
	pending []byte // ciphertext not yet decrypted
	out     []byte // decrypted plaintext ready to be returned
	done    bool   // source exhausted and final block unpadded
	err     error  // sticky failure
}

// NewDecryptReader wraps src, which must yield a complete envelope
// (IV || ciphertext) across any number of reads of any size.
func (c *Codec) NewDecryptReader(src io.Reader) *DecryptReader {
	return &DecryptReader{
		src:   src,
		block: c.block,
		iv:    make([]byte, 0, IVSize),
	}
}

// Read implements io.Reader. Output is byte-identical to Codec.Decrypt over
// the same envelope. Any framing or padding problem surfaces as an error
// wrapping ErrDecryptionFailed; the reader never emits bytes it would later
// have to retract.
func (d *DecryptReader) Read(p []byte) (int, error) {
	if d.err != nil {
		return 0, d.err
	}

	for len(d.out) == 0 && !d.done {
		if err := d.fill(); err != nil {
			d.err = err
			return 0, err
		}
	}

	if len(d.out) == 0 && d.done {
		return 0, io.EOF
	}

	n := copy(p, d.out)
	d.out = d.out[n:]
	return n, nil
}

// fill reads one chunk from the source and advances the decryption state.
func (d *DecryptReader) fill() error {
	bufferPtr := buffers.GetSmallBuffer()
	defer buffers.PutSmallBuffer(bufferPtr)
	buffer := *bufferPtr

	n, err := d.src.Read(buffer)
	if n > 0 {
		d.absorb(buffer[:n])
	}
	if err == io.EOF {
		return d.finish()
	}
	if err != nil {
		return fmt.Errorf("failed to read envelope: %w", err)
	}
	return nil
}

// absorb consumes one raw chunk: completes the IV if still collecting it,
// then decrypts every complete ciphertext block except the trailing one,
// which is retained in case it carries the padding.
func (d *DecryptReader) absorb(chunk []byte) {
	if d.mode == nil {
		need := IVSize - len(d.iv)
		if len(chunk) < need {
			d.iv = append(d.iv, chunk...)
			return
		}
		d.iv = append(d.iv, chunk[:need]...)
		chunk = chunk[need:]
		d.mode = cipher.NewCBCDecrypter(d.block, d.iv)
	}

	d.pending = append(d.pending, chunk...)

	// Keep at least one block pending until EOF.
	decryptable := len(d.pending) - aes.BlockSize
	if decryptable <= 0 {
		return
	}
	decryptable = (decryptable / aes.BlockSize) * aes.BlockSize
	if decryptable == 0 {
		return
	}

	plaintext := make([]byte, decryptable)
	d.mode.CryptBlocks(plaintext, d.pending[:decryptable])
	d.out = append(d.out, plaintext...)
	d.pending = append(d.pending[:0], d.pending[decryptable:]...)
}

// finish validates and decrypts whatever remains once the source is drained.
func (d *DecryptReader) finish() error {
	if d.mode == nil {
		return fmt.Errorf("%w: envelope ended before the %d-byte IV was complete", ErrDecryptionFailed, IVSize)
	}
	if len(d.pending) == 0 {
		return fmt.Errorf("%w: envelope contains no ciphertext", ErrDecryptionFailed)
	}
	if len(d.pending)%aes.BlockSize != 0 {
		return fmt.Errorf("%w: trailing ciphertext length %d is not a multiple of %d", ErrDecryptionFailed, len(d.pending), aes.BlockSize)
	}

	plaintext := make([]byte, len(d.pending))
	d.mode.CryptBlocks(plaintext, d.pending)
	d.pending = nil

	unpadded, err := pkcs7Unpad(plaintext)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}

	d.out = append(d.out, unpadded...)
	d.done = true
	return nil
}
