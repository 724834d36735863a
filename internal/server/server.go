// Package server implements the TuneVault HTTP surface: the public catalog
// and streaming endpoints plus the token-protected admin endpoints.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tunevault/tunevault/internal/catalog"
	"github.com/tunevault/tunevault/internal/config"
	"github.com/tunevault/tunevault/internal/constants"
	"github.com/tunevault/tunevault/internal/encryption"
	"github.com/tunevault/tunevault/internal/logging"
	"github.com/tunevault/tunevault/internal/storage"
	"github.com/tunevault/tunevault/internal/stream"
)

// Server wires the catalog, blob store and stream resolver behind a gin
// router. One instance serves for the life of the process.
type Server struct {
	cfg      *config.Config
	log      *logging.Logger
	catalog  *catalog.Store
	store    storage.BlobStore
	codec    *encryption.Codec
	resolver *stream.Resolver

	router *gin.Engine
	http   *http.Server
}

// New assembles a Server. codec may be nil when no encryption key is
// configured; encrypted songs then return errors instead of audio.
func New(cfg *config.Config, log *logging.Logger, cat *catalog.Store, store storage.BlobStore, codec *encryption.Codec) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		cfg:      cfg,
		log:      log,
		catalog:  cat,
		store:    store,
		codec:    codec,
		resolver: stream.NewResolver(store, codec),
	}

	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())
	s.router = router
	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api")
	{
		api.GET("/songs", s.handleListSongs)
		api.GET("/songs/:id", s.handleGetSong)
		api.GET("/songs/:id/artwork", s.handleArtwork)

		// Audio bytes require the token when one is configured; the
		// catalog metadata above stays browsable.
		audio := api.Group("", s.requireTokenIfConfigured())
		audio.GET("/songs/:id/stream", s.handleStream)
		audio.GET("/songs/:id/download", s.handleDownload)
	}

	admin := s.router.Group("/api/admin", s.requireToken())
	{
		admin.POST("/songs", s.handleUpload)
		admin.PUT("/songs/:id", s.handleUpdateSong)
		admin.DELETE("/songs/:id", s.handleDeleteSong)
		admin.GET("/stats", s.handleStats)
	}
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then drains in-flight streams for up to
// the shutdown grace period.
func (s *Server) Run(ctx context.Context) error {
	s.http = &http.Server{
		Addr:              s.cfg.Server.ListenAddr,
		Handler:           s.router,
		ReadHeaderTimeout: constants.ServerReadHeaderTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- s.http.ListenAndServe()
	}()

	s.log.Info().
		Str("addr", s.cfg.Server.ListenAddr).
		Str("storage", s.cfg.Storage.Backend).
		Bool("encrypt_uploads", s.cfg.Server.EncryptUploads).
		Msg("stream server listening")

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ServerShutdownTimeout)
	defer cancel()

	s.log.Info().Msg("shutting down stream server")
	return s.http.Shutdown(shutdownCtx)
}
