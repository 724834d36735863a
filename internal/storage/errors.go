package storage

import (
	"errors"
	"strings"
)

// Common storage operation errors
var (
	// ErrObjectNotFound indicates the backing object is missing from the store
	ErrObjectNotFound = errors.New("object not found")
	// ErrInvalidRange indicates a byte window that the stored object cannot satisfy
	ErrInvalidRange = errors.New("invalid byte range")
)

// IsNotFound reports whether err means the backing object does not exist,
// either as our sentinel or as a backend-native miss.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrObjectNotFound) {
		return true
	}
	return isBackendNotFound(err)
}

// isBackendNotFound matches backend-native "missing object" errors by
// message. The AWS and Azure SDKs each wrap misses in their own types;
// matching on the well-known codes keeps the callers backend-agnostic.
func isBackendNotFound(err error) bool {
	errStr := err.Error()

	notFoundIndicators := []string{
		"NoSuchKey",      // S3 GetObject
		"NotFound",       // S3 HeadObject
		"BlobNotFound",   // Azure
		"StatusCode: 404",
		"404",
	}

	for _, indicator := range notFoundIndicators {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}

	return false
}
