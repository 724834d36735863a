package encryption

import (
	"fmt"
	"io"
	"os"
)

// EncryptFile encrypts inputPath into an envelope at outputPath.
// Used by the upload path and the encrypt CLI tool.
func (c *Codec) EncryptFile(inputPath, outputPath string) error {
	inputFile, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer inputFile.Close()

	outputFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer outputFile.Close()

	if _, err := c.EncryptTo(outputFile, inputFile); err != nil {
		return fmt.Errorf("failed to encrypt %s: %w", inputPath, err)
	}
	return nil
}

// DecryptFile decrypts the envelope at inputPath into outputPath.
func (c *Codec) DecryptFile(inputPath, outputPath string) error {
	inputFile, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer inputFile.Close()

	outputFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer outputFile.Close()

	if _, err := io.Copy(outputFile, c.NewDecryptReader(inputFile)); err != nil {
		return fmt.Errorf("failed to decrypt %s: %w", inputPath, err)
	}
	return nil
}
