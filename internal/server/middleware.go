package server

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// requestLogger emits one structured line per request.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		event := s.log.Info()
		if c.Writer.Status() >= http.StatusInternalServerError {
			event = s.log.Error()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Int64("bytes", int64(c.Writer.Size())).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	}
}

// requireToken gates the admin surface behind the static bearer token. A
// server started without a token refuses the whole admin surface rather than
// leaving it open.
func (s *Server) requireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cfg.APIToken == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin API disabled: no API token configured"})
			return
		}
		s.checkBearer(c)
	}
}

// requireTokenIfConfigured protects the audio endpoints on deployments that
// set a token. Without one the server is open, the local single-user setup.
func (s *Server) requireTokenIfConfigured() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cfg.APIToken == "" {
			c.Next()
			return
		}
		s.checkBearer(c)
	}
}

func (s *Server) checkBearer(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.APIToken)) != 1 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing bearer token"})
		return
	}
	c.Next()
}
