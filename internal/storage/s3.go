package storage

import (
	"context"
	"fmt"
	"io"
	nethttp "net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Store serves stored objects out of an S3 (or S3-compatible) bucket.
// Range windows are pushed down to GetObject via the Range header, so a
// seek into a large file fetches only the requested bytes.
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// S3Options parameterize the store. Credentials come from the SDK's default
// chain (environment, shared config, instance role).
type S3Options struct {
	Bucket    string
	Region    string
	Endpoint  string // non-empty for S3-compatible stores (MinIO etc.)
	KeyPrefix string
	// AccessKeyID/SecretAccessKey pin static credentials, bypassing the
	// default chain. Used with S3-compatible endpoints where an instance
	// role lookup would just add latency before failing.
	AccessKeyID     string
	SecretAccessKey string
	// HTTPClient is the shared pooled client; nil uses the SDK default.
	HTTPClient *nethttp.Client
}

// NewS3Store builds the store and its underlying SDK client.
func NewS3Store(ctx context.Context, opts S3Options) (*S3Store, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.HTTPClient != nil {
		loadOpts = append(loadOpts, awsconfig.WithHTTPClient(opts.HTTPClient))
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			aws.NewCredentialsCache(
				awscreds.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""))))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			// Path-style keeps bucket addressing working against
			// S3-compatible endpoints without wildcard DNS.
			o.UsePathStyle = true
		}
	})

	return &S3Store{
		client: client,
		bucket: opts.Bucket,
		prefix: strings.Trim(opts.KeyPrefix, "/"),
	}, nil
}

func (s *S3Store) objectKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + "/" + key
}

// Put stores a complete object.
func (s *S3Store) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
		Body:   r,
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("failed to put object %s: %w", key, err)
	}
	return nil
}

// Open fetches the whole object and reports its size.
func (s *S3Store) Open(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		if isBackendNotFound(err) {
			return nil, 0, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, 0, fmt.Errorf("failed to get object %s: %w", key, err)
	}

	size := int64(-1)
	if resp.ContentLength != nil {
		size = *resp.ContentLength
	}
	return resp.Body, size, nil
}

// OpenRange fetches the inclusive window [start, end] with a ranged GetObject.
func (s *S3Store) OpenRange(ctx context.Context, key string, start, end int64) (io.ReadCloser, error) {
	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: bytes %d-%d", ErrInvalidRange, start, end)
	}

	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", start, end)),
	})
	if err != nil {
		if isBackendNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to get object range %s: %w", key, err)
	}
	return resp.Body, nil
}

// Stat returns the object size from a HeadObject call.
func (s *S3Store) Stat(ctx context.Context, key string) (int64, error) {
	resp, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		if isBackendNotFound(err) {
			return 0, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return 0, fmt.Errorf("failed to stat object %s: %w", key, err)
	}
	if resp.ContentLength == nil {
		return 0, fmt.Errorf("object %s has no content length", key)
	}
	return *resp.ContentLength, nil
}

// Delete removes the object. S3 deletes are idempotent, so a missing object
// is detected with a Stat first to honor the BlobStore contract.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	if _, err := s.Stat(ctx, key); err != nil {
		return err
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

// Compile-time interface verification
var _ BlobStore = (*S3Store)(nil)
