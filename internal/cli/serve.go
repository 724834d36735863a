package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tunevault/tunevault/internal/catalog"
	"github.com/tunevault/tunevault/internal/encryption"
	tvhttp "github.com/tunevault/tunevault/internal/http"
	"github.com/tunevault/tunevault/internal/logging"
	"github.com/tunevault/tunevault/internal/server"
	"github.com/tunevault/tunevault/internal/storage"
)

func newServeCmd() *cobra.Command {
	var listenAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the TuneVault stream server",
		Long: `Run the stream server: catalog API, range-aware audio streaming,
raw envelope downloads and the token-protected admin API.

The storage backend (local directory, S3 or Azure Blob) comes from the
config file and is fixed for the life of the process.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if listenAddr != "" {
				cfg.Server.ListenAddr = listenAddr
			}

			var codec *encryption.Codec
			if cfg.EncryptionConfigured() {
				key, err := encryption.ParseKey(cfg.EncryptionKeyHex)
				if err != nil {
					return err
				}
				if codec, err = encryption.NewCodec(key); err != nil {
					return err
				}
			} else if cfg.Server.EncryptUploads {
				return fmt.Errorf("encrypt_uploads is on but no key is set; generate one with 'tunevault keygen'")
			}

			ctx := cmd.Context()
			store, err := storage.NewBlobStore(ctx, cfg, tvhttp.CreateOptimizedClient())
			if err != nil {
				return fmt.Errorf("failed to initialize storage backend: %w", err)
			}

			cat, err := catalog.Open(cfg.Server.DatabasePath)
			if err != nil {
				return fmt.Errorf("failed to open catalog: %w", err)
			}
			defer cat.Close()

			srv := server.New(cfg, logging.NewServerLogger(), cat, store, codec)
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&listenAddr, "listen", "", "Bind address (overrides config)")
	return cmd
}
