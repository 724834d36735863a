package server

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tunevault/tunevault/internal/catalog"
	"github.com/tunevault/tunevault/internal/constants"
	"github.com/tunevault/tunevault/internal/encryption"
)

// handleUpload ingests a multipart upload: required "audio" file plus
// metadata fields, optional "artwork" image. Whether the stored object is an
// encrypted envelope follows the server's encrypt_uploads setting, never the
// request.
func (s *Server) handleUpload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, constants.MaxUploadSize+constants.MaxArtworkSize)

	title := c.PostForm("title")
	artist := c.PostForm("artist")
	if title == "" || artist == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title and artist are required"})
		return
	}
	var durationSecs int
	if raw := c.PostForm("durationSecs"); raw != "" {
		var err error
		if durationSecs, err = strconv.Atoi(raw); err != nil || durationSecs < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "durationSecs must be a non-negative integer"})
			return
		}
	}

	audio, err := c.FormFile("audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audio file is required"})
		return
	}
	if audio.Size > constants.MaxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "audio file exceeds upload limit"})
		return
	}

	encrypt := s.cfg.Server.EncryptUploads
	if encrypt && s.codec == nil {
		s.log.Error().Msg("encrypt_uploads enabled without an encryption key")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server misconfigured for encrypted uploads"})
		return
	}

	id := uuid.NewString()
	ctx := c.Request.Context()

	objectKey, storedSize, err := s.storeAudio(ctx, id, audio, encrypt)
	if err != nil {
		s.log.Error().Err(err).Str("song_id", id).Msg("store uploaded audio")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store audio"})
		return
	}

	artworkKey, err := s.storeArtwork(ctx, c, id)
	if err != nil {
		s.discardObject(objectKey)
		s.log.Error().Err(err).Str("song_id", id).Msg("store uploaded artwork")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store artwork"})
		return
	}

	song := &catalog.Song{
		ID:           id,
		Title:        title,
		Artist:       artist,
		Album:        c.PostForm("album"),
		DurationSecs: durationSecs,
		ObjectKey:    objectKey,
		ArtworkKey:   artworkKey,
		SizeBytes:    storedSize,
		Encrypted:    encrypt,
		UploadedBy:   c.PostForm("uploadedBy"),
	}
	if err := s.catalog.Create(ctx, song); err != nil {
		s.discardObject(objectKey)
		if artworkKey != "" {
			s.discardObject(artworkKey)
		}
		s.log.Error().Err(err).Str("song_id", id).Msg("create catalog record")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record song"})
		return
	}

	s.log.Info().
		Str("song_id", id).
		Str("title", title).
		Int64("stored_bytes", storedSize).
		Bool("encrypted", encrypt).
		Msg("song uploaded")
	c.JSON(http.StatusCreated, song)
}

// storeAudio writes the audio object, encrypting on the fly when required.
// The envelope size is known up front from the plaintext size, so even cloud
// backends that need a declared content length stream straight through.
func (s *Server) storeAudio(ctx context.Context, id string, audio *multipart.FileHeader, encrypt bool) (string, int64, error) {
	src, err := audio.Open()
	if err != nil {
		return "", 0, err
	}
	defer src.Close()

	if !encrypt {
		key := "songs/" + id + constants.PlainAudioExt
		if err := s.store.Put(ctx, key, src, audio.Size); err != nil {
			return "", 0, err
		}
		return key, audio.Size, nil
	}

	key := "songs/" + id + constants.EncryptedAudioExt
	size := encryption.EncryptedSize(audio.Size)

	pr, pw := io.Pipe()
	go func() {
		_, err := s.codec.EncryptTo(pw, src)
		pw.CloseWithError(err)
	}()
	if err := s.store.Put(ctx, key, pr, size); err != nil {
		pr.CloseWithError(err)
		return "", 0, err
	}
	return key, size, nil
}

// storeArtwork writes the optional artwork image, returning "" when the form
// carried none. Artwork is never encrypted.
func (s *Server) storeArtwork(ctx context.Context, c *gin.Context, id string) (string, error) {
	artwork, err := c.FormFile("artwork")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", err
	}
	if artwork.Size > constants.MaxArtworkSize {
		return "", errors.New("artwork exceeds size limit")
	}

	src, err := artwork.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	key := "artwork/" + id + constants.ArtworkExt
	if err := s.store.Put(ctx, key, src, artwork.Size); err != nil {
		return "", err
	}
	return key, nil
}

// discardObject removes an orphaned object after a failed upload. Best
// effort; a leaked object is logged, not fatal.
func (s *Server) discardObject(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), constants.CounterUpdateTimeout)
	defer cancel()
	if err := s.store.Delete(ctx, key); err != nil {
		s.log.Warn().Err(err).Str("object_key", key).Msg("failed to remove orphaned object")
	}
}

func (s *Server) handleUpdateSong(c *gin.Context) {
	var update struct {
		Title  string `json:"title"`
		Artist string `json:"artist"`
		Album  string `json:"album"`
	}
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	song, err := s.catalog.UpdateMetadata(c.Request.Context(), c.Param("id"), catalog.MetadataUpdate{
		Title:  update.Title,
		Artist: update.Artist,
		Album:  update.Album,
	})
	if err != nil {
		if errors.Is(err, catalog.ErrSongNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "song not found"})
			return
		}
		s.log.Error().Err(err).Str("song_id", c.Param("id")).Msg("update metadata")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update song"})
		return
	}
	c.JSON(http.StatusOK, song)
}

// handleDeleteSong removes the catalog record first, then the stored
// objects. A record without objects 404s on stream; objects without a record
// are unreachable, so the record goes first.
func (s *Server) handleDeleteSong(c *gin.Context) {
	song, ok := s.lookupSong(c)
	if !ok {
		return
	}

	if err := s.catalog.Delete(c.Request.Context(), song.ID); err != nil {
		if errors.Is(err, catalog.ErrSongNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "song not found"})
			return
		}
		s.log.Error().Err(err).Str("song_id", song.ID).Msg("delete catalog record")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete song"})
		return
	}

	s.discardObject(song.ObjectKey)
	if song.ArtworkKey != "" {
		s.discardObject(song.ArtworkKey)
	}

	s.log.Info().Str("song_id", song.ID).Str("title", song.Title).Msg("song deleted")
	c.JSON(http.StatusOK, gin.H{"deleted": song.ID})
}

func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.catalog.Stats(c.Request.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("collect stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to collect stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}
