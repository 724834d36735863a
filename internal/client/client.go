package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/tunevault/tunevault/internal/catalog"
	"github.com/tunevault/tunevault/internal/config"
	"github.com/tunevault/tunevault/internal/diskspace"
	"github.com/tunevault/tunevault/internal/encryption"
	tvhttp "github.com/tunevault/tunevault/internal/http"
	"github.com/tunevault/tunevault/internal/logging"
)

// ErrSongNotFound mirrors the server's 404 for an unknown song id.
var ErrSongNotFound = errors.New("song not found on server")

// Client talks to a TuneVault server and manages the offline cache. The
// codec is nil when no encryption key is configured; cached encrypted songs
// then cannot be played, though downloading them still works since the
// cache stores ciphertext as-is.
type Client struct {
	baseURL string
	token   string
	http    *retryablehttp.Client
	cache   *Cache
	codec   *encryption.Codec
	log     *logging.Logger
}

func New(cfg *config.Config, log *logging.Logger) (*Client, error) {
	if cfg.Client.ServerURL == "" {
		return nil, errors.New("no server URL configured")
	}

	cache, err := NewCache(cfg.Client.CacheDir)
	if err != nil {
		return nil, err
	}

	var codec *encryption.Codec
	if cfg.EncryptionConfigured() {
		key, err := encryption.ParseKey(cfg.EncryptionKeyHex)
		if err != nil {
			return nil, err
		}
		if codec, err = encryption.NewCodec(key); err != nil {
			return nil, err
		}
	}

	return &Client{
		baseURL: cfg.Client.ServerURL,
		token:   cfg.APIToken,
		http:    tvhttp.CreateRetryableClient(log),
		cache:   cache,
		codec:   codec,
		log:     log,
	}, nil
}

// Cache exposes the offline cache for listing and eviction commands.
func (c *Client) Cache() *Cache {
	return c.cache
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", path, err)
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusPartialContent:
		return resp, nil
	case http.StatusNotFound:
		resp.Body.Close()
		return nil, ErrSongNotFound
	default:
		resp.Body.Close()
		return nil, fmt.Errorf("server returned %s for %s", resp.Status, path)
	}
}

// ListSongs fetches the remote catalog.
func (c *Client) ListSongs(ctx context.Context) ([]catalog.Song, error) {
	resp, err := c.get(ctx, "/api/songs")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Songs []catalog.Song `json:"songs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode song list: %w", err)
	}
	return payload.Songs, nil
}

// GetSong fetches one catalog record.
func (c *Client) GetSong(ctx context.Context, id string) (*catalog.Song, error) {
	resp, err := c.get(ctx, "/api/songs/"+id)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var song catalog.Song
	if err := json.NewDecoder(resp.Body).Decode(&song); err != nil {
		return nil, fmt.Errorf("failed to decode song: %w", err)
	}
	return &song, nil
}

// DownloadForOffline fetches the stored object into the cache. Encrypted
// songs stay encrypted on disk. Re-downloading an already-cached song
// replaces the prior entry; a failed download leaves the prior entry
// untouched. progress, when non-nil, receives every downloaded byte
// alongside the cache write.
func (c *Client) DownloadForOffline(ctx context.Context, id string, progress io.Writer) error {
	song, err := c.GetSong(ctx, id)
	if err != nil {
		return err
	}
	if err := diskspace.Check(c.cache.Dir(), song.SizeBytes); err != nil {
		return err
	}

	resp, err := c.get(ctx, "/api/songs/"+id+"/download")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var body io.Reader = resp.Body
	if progress != nil {
		body = io.TeeReader(body, progress)
	}

	entry, err := c.cache.Put(song, body)
	if err != nil {
		return err
	}

	c.log.Info().
		Str("song_id", id).
		Str("title", song.Title).
		Int64("stored_bytes", entry.StoredBytes).
		Bool("encrypted", song.Encrypted).
		Msg("song cached for offline playback")
	return nil
}

// StreamURL returns the remote playback URL for a song.
func (c *Client) StreamURL(id string) string {
	return c.baseURL + "/api/songs/" + id + "/stream"
}
