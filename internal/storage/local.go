package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps one file per object under a base directory, with the
// object key as the relative path. This is the
// default backend for single-node deployments: range reads map directly onto
// a file descriptor via SectionReader, so a seek never touches more bytes
// than the client asked for.
type LocalStore struct {
	dir string
}

// NewLocalStore creates the directory if needed and returns the store.
func NewLocalStore(dir string) (*LocalStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("local storage directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", dir, err)
	}
	return &LocalStore{dir: dir}, nil
}

// Dir returns the backing directory.
func (s *LocalStore) Dir() string {
	return s.dir
}

// path maps an object key onto the backing directory, rejecting any key that
// would escape it.
func (s *LocalStore) path(key string) (string, error) {
	cleaned := filepath.Clean(key)
	if cleaned == "." || strings.Contains(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(s.dir, cleaned), nil
}

// Put writes the object to a temp file in the same directory and renames it
// into place, so a crashed upload never leaves a half-written object behind.
func (s *LocalStore) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	target, err := s.path(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".put-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write object %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to create object directory: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move object into place: %w", err)
	}
	return nil
}

// Open returns a reader over the whole file plus its size.
func (s *LocalStore) Open(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	target, err := s.path(key)
	if err != nil {
		return nil, 0, err
	}

	f, err := os.Open(target)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, 0, fmt.Errorf("failed to open object %s: %w", key, err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("failed to stat object %s: %w", key, err)
	}

	return f, stat.Size(), nil
}

// sectionReadCloser pairs a SectionReader window with the owning file handle.
type sectionReadCloser struct {
	*io.SectionReader
	f *os.File
}

func (s *sectionReadCloser) Close() error {
	return s.f.Close()
}

// OpenRange returns a reader over the inclusive window [start, end].
func (s *LocalStore) OpenRange(ctx context.Context, key string, start, end int64) (io.ReadCloser, error) {
	target, err := s.path(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(target)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to open object %s: %w", key, err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat object %s: %w", key, err)
	}
	if start < 0 || end < start || end >= stat.Size() {
		f.Close()
		return nil, fmt.Errorf("%w: bytes %d-%d of %d", ErrInvalidRange, start, end, stat.Size())
	}

	return &sectionReadCloser{
		SectionReader: io.NewSectionReader(f, start, end-start+1),
		f:             f,
	}, nil
}

// Stat returns the file size.
func (s *LocalStore) Stat(ctx context.Context, key string) (int64, error) {
	target, err := s.path(key)
	if err != nil {
		return 0, err
	}

	stat, err := os.Stat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return 0, fmt.Errorf("failed to stat object %s: %w", key, err)
	}
	return stat.Size(), nil
}

// Delete removes the backing file.
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	target, err := s.path(key)
	if err != nil {
		return err
	}

	if err := os.Remove(target); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

// Compile-time interface verification
var _ BlobStore = (*LocalStore)(nil)
