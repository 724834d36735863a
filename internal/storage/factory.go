package storage

import (
	"context"
	"fmt"
	nethttp "net/http"
	"os"

	"github.com/tunevault/tunevault/internal/config"
)

// NewBlobStore creates the backend selected by configuration. Called once at
// startup; the returned store is shared by every request for the lifetime of
// the process.
func NewBlobStore(ctx context.Context, cfg *config.Config, httpClient *nethttp.Client) (BlobStore, error) {
	switch cfg.Storage.Backend {
	case "local":
		return NewLocalStore(cfg.Storage.LocalDir)
	case "s3":
		opts := S3Options{
			Bucket:     cfg.S3.Bucket,
			Region:     cfg.S3.Region,
			Endpoint:   cfg.S3.Endpoint,
			KeyPrefix:  cfg.S3.KeyPrefix,
			HTTPClient: httpClient,
		}
		// With a custom endpoint, pin static credentials from the
		// environment when present instead of walking the default chain.
		if opts.Endpoint != "" {
			opts.AccessKeyID = os.Getenv("AWS_ACCESS_KEY_ID")
			opts.SecretAccessKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
		}
		return NewS3Store(ctx, opts)
	case "azure":
		return NewAzureStore(AzureOptions{
			ConnectionString: os.Getenv("AZURE_STORAGE_CONNECTION_STRING"),
			Container:        cfg.Azure.Container,
			KeyPrefix:        cfg.Azure.KeyPrefix,
		})
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Storage.Backend)
	}
}
