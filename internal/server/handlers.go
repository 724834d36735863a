package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tunevault/tunevault/internal/catalog"
	"github.com/tunevault/tunevault/internal/constants"
	"github.com/tunevault/tunevault/internal/encryption"
	"github.com/tunevault/tunevault/internal/storage"
	"github.com/tunevault/tunevault/internal/util/buffers"
	"github.com/tunevault/tunevault/internal/util/sanitize"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"storage": s.cfg.Storage.Backend,
	})
}

func (s *Server) handleListSongs(c *gin.Context) {
	filter := catalog.ListFilter{
		Search: c.Query("search"),
		Artist: c.Query("artist"),
		Album:  c.Query("album"),
	}

	songs, err := s.catalog.List(c.Request.Context(), filter)
	if err != nil {
		s.log.Error().Err(err).Msg("list songs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list songs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"songs": songs})
}

func (s *Server) handleGetSong(c *gin.Context) {
	song, ok := s.lookupSong(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, song)
}

// handleStream serves the playable audio, honoring a single-range Range
// header. Encrypted objects are decrypted server side so the caller always
// receives plain audio bytes here.
func (s *Server) handleStream(c *gin.Context) {
	song, ok := s.lookupSong(c)
	if !ok {
		return
	}

	view, err := s.resolver.OpenStream(c.Request.Context(), song, c.GetHeader("Range"))
	if err != nil {
		s.streamError(c, song.ID, err)
		return
	}
	defer view.Body.Close()

	header := c.Writer.Header()
	header.Set("Content-Type", constants.ContentTypeMPEG)
	header.Set("Accept-Ranges", "bytes")
	header.Set("Content-Length", strconv.FormatInt(view.Length(), 10))

	status := http.StatusOK
	if view.Ranged {
		status = http.StatusPartialContent
		header.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", view.Start, view.End, view.TotalSize))
	}
	c.Status(status)

	s.bumpCounter(song.ID, "plays", s.catalog.IncrementPlays)
	s.pipe(c, song.ID, view.Body)
}

// handleDownload hands out the stored object verbatim. For encrypted songs
// that is the envelope itself; offline clients keep it encrypted at rest and
// decrypt only at playback.
func (s *Server) handleDownload(c *gin.Context) {
	song, ok := s.lookupSong(c)
	if !ok {
		return
	}

	body, size, err := s.resolver.OpenDownload(c.Request.Context(), song)
	if err != nil {
		s.streamError(c, song.ID, err)
		return
	}
	defer body.Close()

	contentType := constants.ContentTypeMPEG
	ext := constants.PlainAudioExt
	if song.Encrypted {
		contentType = constants.ContentTypeOctetStream
		ext = constants.EncryptedAudioExt
	}
	filename := sanitize.Filename(song.Title, song.ID) + ext

	header := c.Writer.Header()
	header.Set("Content-Type", contentType)
	header.Set("Content-Length", strconv.FormatInt(size, 10))
	header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	header.Set("X-Tunevault-Encrypted", strconv.FormatBool(song.Encrypted))
	c.Status(http.StatusOK)

	s.bumpCounter(song.ID, "downloads", s.catalog.IncrementDownloads)
	s.pipe(c, song.ID, body)
}

func (s *Server) handleArtwork(c *gin.Context) {
	song, ok := s.lookupSong(c)
	if !ok {
		return
	}
	if song.ArtworkKey == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "song has no artwork"})
		return
	}

	body, size, err := s.store.Open(c.Request.Context(), song.ArtworkKey)
	if err != nil {
		s.streamError(c, song.ID, err)
		return
	}
	defer body.Close()

	c.Writer.Header().Set("Content-Type", "image/jpeg")
	c.Writer.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	c.Status(http.StatusOK)
	s.pipe(c, song.ID, body)
}

// lookupSong resolves the :id path parameter, writing the 404 itself.
func (s *Server) lookupSong(c *gin.Context) (*catalog.Song, bool) {
	song, err := s.catalog.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, catalog.ErrSongNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "song not found"})
		} else {
			s.log.Error().Err(err).Str("song_id", c.Param("id")).Msg("catalog lookup")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "catalog lookup failed"})
		}
		return nil, false
	}
	return song, true
}

// streamError maps resolver failures onto the response before any body bytes
// have been written.
func (s *Server) streamError(c *gin.Context, songID string, err error) {
	switch {
	case storage.IsNotFound(err):
		s.log.Warn().Str("song_id", songID).Msg("stored object missing for catalog entry")
		c.JSON(http.StatusNotFound, gin.H{"error": "audio object not found"})
	case encryption.IsDecryptionError(err), errors.Is(err, encryption.ErrKeyNotConfigured):
		s.log.Error().Err(err).Str("song_id", songID).Msg("decrypt for streaming")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to decrypt audio"})
	default:
		s.log.Error().Err(err).Str("song_id", songID).Msg("open stream")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open audio stream"})
	}
}

// pipe copies body to the response through a pooled buffer. Errors here are
// after the status line, so they are logged and the connection dropped.
func (s *Server) pipe(c *gin.Context, songID string, body io.Reader) {
	buf := buffers.GetCopyBuffer()
	defer buffers.PutCopyBuffer(buf)

	if _, err := io.CopyBuffer(c.Writer, body, *buf); err != nil {
		s.log.Debug().Err(err).Str("song_id", songID).Msg("stream interrupted")
		c.Abort()
	}
}

// bumpCounter updates a play or download counter without holding up the
// response. Failures are logged and otherwise ignored.
func (s *Server) bumpCounter(songID, name string, inc func(context.Context, string) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), constants.CounterUpdateTimeout)
		defer cancel()
		if err := inc(ctx, songID); err != nil {
			s.log.Warn().Err(err).Str("song_id", songID).Str("counter", name).Msg("counter update failed")
		}
	}()
}
