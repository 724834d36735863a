package cli

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tunevault/tunevault/internal/constants"
	"github.com/tunevault/tunevault/internal/encryption"
)

func newKeygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate a new AES-256 encryption key",
		Long: `Generate a fresh 32-byte key and print it hex-encoded.

Export it before running the server or playing encrypted songs:

  export ` + constants.EnvEncryptionKey + `=<key>

Server and clients must share the same key. Losing it makes every
encrypted object unreadable; there is no recovery path.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := encryption.GenerateKey()
			if err != nil {
				return err
			}
			fmt.Println(hex.EncodeToString(key))
			return nil
		},
	}
}

// envCodec builds a codec from the key in the environment, via config so
// the same resolution order applies everywhere.
func envCodec() (*encryption.Codec, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.EncryptionConfigured() {
		return nil, fmt.Errorf("no encryption key set; export %s or run 'tunevault keygen'", constants.EnvEncryptionKey)
	}
	key, err := encryption.ParseKey(cfg.EncryptionKeyHex)
	if err != nil {
		return nil, err
	}
	return encryption.NewCodec(key)
}

func newEncryptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encrypt <input> <output>",
		Short: "Encrypt a file into an envelope",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			codec, err := envCodec()
			if err != nil {
				return err
			}
			if err := codec.EncryptFile(args[0], args[1]); err != nil {
				return err
			}
			logger.Info().Str("input", args[0]).Str("output", args[1]).Msg("file encrypted")
			return nil
		},
	}
}

func newDecryptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decrypt <input> <output>",
		Short: "Decrypt an envelope back into the original file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			codec, err := envCodec()
			if err != nil {
				return err
			}
			if err := codec.DecryptFile(args[0], args[1]); err != nil {
				return err
			}
			logger.Info().Str("input", args[0]).Str("output", args[1]).Msg("file decrypted")
			return nil
		},
	}
}
