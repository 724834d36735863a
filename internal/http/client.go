// Package http builds the HTTP clients shared by the remote blob backends
// and the offline download client.
package http

import (
	"crypto/tls"
	nethttp "net/http"
	"os"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/net/http2"

	"github.com/tunevault/tunevault/internal/constants"
	"github.com/tunevault/tunevault/internal/logging"
)

// CreateOptimizedClient creates an HTTP client tuned for long-lived audio
// transfers.
//
// Key features:
//   - Connection pool sized for concurrent streams against one object host
//   - No overall client timeout: a stream lives as long as the listener
//     keeps reading, so per-operation deadlines come from contexts instead
//   - Disabled compression (no benefit for MP3 payloads)
//   - HTTP/2 with a runtime toggle (DISABLE_HTTP2 env var)
//
// The same client is handed to the S3 SDK and used directly for plain
// object fetches so connections are reused across both.
func CreateOptimizedClient() *nethttp.Client {
	tr := &nethttp.Transport{
		Proxy: nethttp.ProxyFromEnvironment,

		MaxIdleConns:        256,
		MaxIdleConnsPerHost: 64,
		MaxConnsPerHost:     64,
		IdleConnTimeout:     constants.HTTPIdleConnTimeout,

		TLSHandshakeTimeout:   constants.HTTPTLSHandshakeTimeout,
		ExpectContinueTimeout: constants.HTTPExpectContinueTimeout,

		DisableCompression: true,
		ForceAttemptHTTP2:  true,
	}

	_ = http2.ConfigureTransport(tr)

	// Runtime toggle for HTTP/2 (useful when an object store front-end
	// misbehaves under multiplexing).
	if os.Getenv("DISABLE_HTTP2") == "true" {
		tr.ForceAttemptHTTP2 = false
		tr.TLSNextProto = make(map[string]func(string, *tls.Conn) nethttp.RoundTripper)
	}

	return &nethttp.Client{
		Transport: tr,
		Timeout:   0,
	}
}

// CreateRetryableClient wraps the optimized client with retry/backoff for
// the offline download path. Retries cover transient network and 5xx
// failures; a 404 or an auth rejection fails immediately.
func CreateRetryableClient(logger *logging.Logger) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.HTTPClient = CreateOptimizedClient()
	client.RetryMax = 4
	client.Logger = nil

	if logger != nil {
		client.RequestLogHook = func(_ retryablehttp.Logger, req *nethttp.Request, attempt int) {
			if attempt > 0 {
				logger.Warn().
					Str("url", req.URL.String()).
					Int("attempt", attempt).
					Msg("retrying request")
			}
		}
	}

	return client
}
