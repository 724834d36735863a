package encryption

import (
	"bytes"
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"
)

// TestFileRoundTrip tests encrypting a file to envelope format and back
func TestFileRoundTrip(t *testing.T) {
	codec := testCodec(t)
	dir := t.TempDir()

	plaintext := make([]byte, 70_001)
	if _, err := rand.Read(plaintext); err != nil {
		t.Fatalf("rand.Read failed: %v", err)
	}

	inputPath := filepath.Join(dir, "song.mp3")
	envelopePath := filepath.Join(dir, "song.enc")
	outputPath := filepath.Join(dir, "song.out.mp3")

	if err := os.WriteFile(inputPath, plaintext, 0o600); err != nil {
		t.Fatalf("Failed to write input file: %v", err)
	}

	if err := codec.EncryptFile(inputPath, envelopePath); err != nil {
		t.Fatalf("EncryptFile failed: %v", err)
	}

	stat, err := os.Stat(envelopePath)
	if err != nil {
		t.Fatalf("Failed to stat envelope: %v", err)
	}
	if want := EncryptedSize(int64(len(plaintext))); stat.Size() != want {
		t.Errorf("Envelope file is %d bytes, expected %d", stat.Size(), want)
	}

	if err := codec.DecryptFile(envelopePath, outputPath); err != nil {
		t.Fatalf("DecryptFile failed: %v", err)
	}

	recovered, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("Failed to read output file: %v", err)
	}
	if !bytes.Equal(recovered, plaintext) {
		t.Error("Decrypted file does not match the original")
	}
}

// TestDecryptFileMissingInput tests the error path for an absent envelope
func TestDecryptFileMissingInput(t *testing.T) {
	codec := testCodec(t)
	dir := t.TempDir()

	err := codec.DecryptFile(filepath.Join(dir, "absent.enc"), filepath.Join(dir, "out.mp3"))
	if err == nil {
		t.Error("Expected error for missing input file, got nil")
	}
}
