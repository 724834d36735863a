package client

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/tunevault/tunevault/internal/encryption"
	"github.com/tunevault/tunevault/internal/util/buffers"
)

// PlaybackSource is a resolved way to play one song: either a local file
// ready for a player process, or a remote stream URL when the song is not
// cached.
type PlaybackSource struct {
	// Path is set for local playback.
	Path string
	// URL is set for remote streaming playback.
	URL string
	// BearerToken accompanies URL when the server requires auth on audio
	// endpoints. Empty for local sources and open servers.
	BearerToken string
	// Cached reports whether the source came from the offline cache.
	Cached bool

	cleanup func()
}

// Close removes any temporary plaintext file behind the source. Safe to
// call on remote sources.
func (p *PlaybackSource) Close() {
	if p.cleanup != nil {
		p.cleanup()
		p.cleanup = nil
	}
}

// ResolvePlaybackSource turns a song id into something playable. Cached
// plain audio plays straight from the cache file. Cached encrypted audio is
// decrypted to a temporary file first; the ciphertext on disk is never
// modified. Songs missing from the cache resolve to the remote stream URL.
//
// Decryption honors ctx between chunks, so an abandoned playback does not
// finish decrypting a large file. On cancellation or decrypt failure the
// partial plaintext file is removed and playback yields nothing rather than
// truncated audio.
func (c *Client) ResolvePlaybackSource(ctx context.Context, id string) (*PlaybackSource, error) {
	entry, err := c.cache.Get(id)
	if err != nil {
		if err == ErrNotCached {
			return &PlaybackSource{URL: c.StreamURL(id), BearerToken: c.token}, nil
		}
		return nil, err
	}

	if !entry.Song.Encrypted {
		return &PlaybackSource{Path: c.cache.audioPath(id), Cached: true}, nil
	}

	if c.codec == nil {
		return nil, fmt.Errorf("cached song %s is encrypted: %w", id, encryption.ErrKeyNotConfigured)
	}

	path, err := c.decryptToTemp(ctx, id)
	if err != nil {
		return nil, err
	}
	return &PlaybackSource{
		Path:    path,
		Cached:  true,
		cleanup: func() { os.Remove(path) },
	}, nil
}

func (c *Client) decryptToTemp(ctx context.Context, id string) (string, error) {
	src, err := c.cache.Open(id)
	if err != nil {
		return "", err
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "tunevault-play-*.mp3")
	if err != nil {
		return "", fmt.Errorf("failed to create playback file: %w", err)
	}

	if err := c.copyDecrypted(ctx, tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to finish playback file: %w", err)
	}
	return tmp.Name(), nil
}

func (c *Client) copyDecrypted(ctx context.Context, dst io.Writer, src io.Reader) error {
	dec := c.codec.NewDecryptReader(src)

	buf := buffers.GetSmallBuffer()
	defer buffers.PutSmallBuffer(buf)

	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("playback cancelled: %w", err)
		}

		n, err := dec.Read(*buf)
		if n > 0 {
			if _, werr := dst.Write((*buf)[:n]); werr != nil {
				return fmt.Errorf("failed to write playback file: %w", werr)
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to decrypt cached song: %w", err)
		}
	}
}
