// Package client implements the offline side of TuneVault: downloading
// stored objects into a local cache, keeping them encrypted at rest, and
// resolving songs into playable sources.
package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/tunevault/tunevault/internal/catalog"
)

// ErrNotCached indicates the song has no complete cache entry.
var ErrNotCached = errors.New("song not in offline cache")

// Entry describes one cached song: the catalog record as it looked at
// download time plus local bookkeeping.
type Entry struct {
	Song         catalog.Song `json:"song"`
	DownloadedAt time.Time    `json:"downloadedAt"`
	// StoredBytes is the on-disk size of the audio file. For encrypted
	// songs this is the envelope size, not the playable length.
	StoredBytes int64 `json:"storedBytes"`
}

// Cache is a directory of downloaded songs. Each entry is two files,
// <id>.audio holding the stored object verbatim and <id>.json holding the
// Entry. The metadata file is written last, so its presence marks a
// complete entry; an audio file without metadata is an aborted download.
type Cache struct {
	dir string
}

func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Cache{dir: dir}, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

func (c *Cache) audioPath(id string) string {
	return filepath.Join(c.dir, id+".audio")
}

func (c *Cache) metaPath(id string) string {
	return filepath.Join(c.dir, id+".json")
}

// Has reports whether a complete entry exists for id.
func (c *Cache) Has(id string) bool {
	_, err := c.Get(id)
	return err == nil
}

// Get loads the entry for id, verifying the audio file is present and the
// size matches the metadata. A mismatch reads as not cached so the caller
// re-downloads.
func (c *Cache) Get(id string) (*Entry, error) {
	raw, err := os.ReadFile(c.metaPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotCached
		}
		return nil, fmt.Errorf("failed to read cache metadata: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("corrupt cache metadata for %s: %w", id, err)
	}

	info, err := os.Stat(c.audioPath(id))
	if err != nil || info.Size() != entry.StoredBytes {
		return nil, ErrNotCached
	}
	return &entry, nil
}

// Put stores the audio bytes and then the metadata. Both files go through a
// temp file and rename, so a crash or failed download never leaves a
// half-written entry visible. Concurrent downloads of the same song settle
// on whichever rename lands last.
func (c *Cache) Put(song *catalog.Song, r io.Reader) (*Entry, error) {
	size, err := c.writeAudio(song.ID, r)
	if err != nil {
		return nil, err
	}

	entry := &Entry{
		Song:         *song,
		DownloadedAt: time.Now().UTC(),
		StoredBytes:  size,
	}
	raw, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode cache metadata: %w", err)
	}
	if err := c.writeAtomic(c.metaPath(song.ID), raw); err != nil {
		os.Remove(c.audioPath(song.ID))
		return nil, err
	}
	return entry, nil
}

func (c *Cache) writeAudio(id string, r io.Reader) (int64, error) {
	tmp, err := os.CreateTemp(c.dir, ".download-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return 0, fmt.Errorf("download interrupted: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("failed to finish cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.audioPath(id)); err != nil {
		return 0, fmt.Errorf("failed to place cache file: %w", err)
	}
	return size, nil
}

func (c *Cache) writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(c.dir, ".meta-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write cache metadata: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to finish cache metadata: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to place cache metadata: %w", err)
	}
	return nil
}

// Open returns the cached audio bytes as stored, ciphertext and all.
func (c *Cache) Open(id string) (io.ReadCloser, error) {
	if _, err := c.Get(id); err != nil {
		return nil, err
	}
	f, err := os.Open(c.audioPath(id))
	if err != nil {
		return nil, fmt.Errorf("failed to open cached audio: %w", err)
	}
	return f, nil
}

// Remove deletes an entry, metadata first so the entry disappears before
// the audio does.
func (c *Cache) Remove(id string) error {
	if err := os.Remove(c.metaPath(id)); err != nil {
		if os.IsNotExist(err) {
			return ErrNotCached
		}
		return fmt.Errorf("failed to remove cache metadata: %w", err)
	}
	if err := os.Remove(c.audioPath(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove cached audio: %w", err)
	}
	return nil
}

// List returns all complete entries, newest download first.
func (c *Cache) List() ([]Entry, error) {
	dirents, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan cache directory: %w", err)
	}

	var entries []Entry
	for _, d := range dirents {
		name := d.Name()
		if d.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		entry, err := c.Get(strings.TrimSuffix(name, ".json"))
		if err != nil {
			// Incomplete or corrupt entries are skipped, not fatal.
			continue
		}
		entries = append(entries, *entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].DownloadedAt.After(entries[j].DownloadedAt)
	})
	return entries, nil
}
