package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// AzureStore serves stored objects out of an Azure Blob container. Byte
// windows are pushed down with HTTPRange on DownloadStream.
type AzureStore struct {
	client    *azblob.Client
	container string
	prefix    string
}

// AzureOptions parameterize the store. The connection string is a secret and
// therefore arrives from the environment, not the config file.
type AzureOptions struct {
	ConnectionString string
	Container        string
	KeyPrefix        string
}

// NewAzureStore builds the store from a storage account connection string.
func NewAzureStore(opts AzureOptions) (*AzureStore, error) {
	if opts.Container == "" {
		return nil, fmt.Errorf("azure container is required")
	}
	if opts.ConnectionString == "" {
		return nil, fmt.Errorf("azure connection string is required (set AZURE_STORAGE_CONNECTION_STRING)")
	}

	client, err := azblob.NewClientFromConnectionString(opts.ConnectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create azure client: %w", err)
	}

	return &AzureStore{
		client:    client,
		container: opts.Container,
		prefix:    strings.Trim(opts.KeyPrefix, "/"),
	}, nil
}

func (s *AzureStore) blobName(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + "/" + key
}

// Put uploads a complete object, replacing any prior blob.
func (s *AzureStore) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	if _, err := s.client.UploadStream(ctx, s.container, s.blobName(key), r, nil); err != nil {
		return fmt.Errorf("failed to upload blob %s: %w", key, err)
	}
	return nil
}

// Open fetches the whole blob and reports its size.
func (s *AzureStore) Open(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	resp, err := s.client.DownloadStream(ctx, s.container, s.blobName(key), nil)
	if err != nil {
		if isBackendNotFound(err) {
			return nil, 0, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, 0, fmt.Errorf("failed to download blob %s: %w", key, err)
	}

	size := int64(-1)
	if resp.ContentLength != nil {
		size = *resp.ContentLength
	}
	return resp.Body, size, nil
}

// OpenRange fetches the inclusive window [start, end].
func (s *AzureStore) OpenRange(ctx context.Context, key string, start, end int64) (io.ReadCloser, error) {
	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: bytes %d-%d", ErrInvalidRange, start, end)
	}

	resp, err := s.client.DownloadStream(ctx, s.container, s.blobName(key), &azblob.DownloadStreamOptions{
		Range: azblob.HTTPRange{
			Offset: start,
			Count:  end - start + 1,
		},
	})
	if err != nil {
		if isBackendNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to download blob range %s: %w", key, err)
	}
	return resp.Body, nil
}

// Stat returns the blob size from its properties.
func (s *AzureStore) Stat(ctx context.Context, key string) (int64, error) {
	blobClient := s.client.ServiceClient().
		NewContainerClient(s.container).
		NewBlobClient(s.blobName(key))

	resp, err := blobClient.GetProperties(ctx, nil)
	if err != nil {
		if isBackendNotFound(err) {
			return 0, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return 0, fmt.Errorf("failed to get blob properties %s: %w", key, err)
	}
	if resp.ContentLength == nil {
		return 0, fmt.Errorf("blob %s has no content length", key)
	}
	return *resp.ContentLength, nil
}

// Delete removes the blob.
func (s *AzureStore) Delete(ctx context.Context, key string) error {
	if _, err := s.client.DeleteBlob(ctx, s.container, s.blobName(key), nil); err != nil {
		if isBackendNotFound(err) {
			return fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return fmt.Errorf("failed to delete blob %s: %w", key, err)
	}
	return nil
}

// Compile-time interface verification
var _ BlobStore = (*AzureStore)(nil)
