// Package config provides configuration management for TuneVault.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/tunevault/tunevault/internal/constants"
)

// Config is the process-wide configuration, loaded once at startup.
//
// Config file location:
//   - Unix: ~/.config/tunevault/tunevault.conf
//   - Windows: %APPDATA%\TuneVault\tunevault.conf
//
// INI format:
//
//	[server]
//	listen_addr = :8080
//	database_path = /var/lib/tunevault/catalog.db
//	encrypt_uploads = true
//
//	[storage]
//	backend = local
//	local_dir = /var/lib/tunevault/objects
//
//	[s3]
//	bucket = tunevault-media
//	region = us-east-1
//	endpoint =
//
//	[azure]
//	container = tunevault-media
//
//	[client]
//	server_url = http://localhost:8080
//	cache_dir = ~/.local/share/tunevault/cache
//
// Secrets never live in the file: the hex AES key comes from
// TUNEVAULT_ENCRYPTION_KEY, the bearer token from TUNEVAULT_API_TOKEN,
// cloud credentials from the respective SDK's environment conventions.
type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	S3      S3Config
	Azure   AzureConfig
	Client  ClientConfig

	// EncryptionKeyHex is the static key loaded from the environment.
	// Empty means encryption features are unavailable.
	EncryptionKeyHex string

	// APIToken is the bearer credential checked by authenticated endpoints.
	APIToken string
}

// ServerConfig contains stream server settings.
type ServerConfig struct {
	// ListenAddr is the bind address for the HTTP server.
	// Default: ":8080"
	ListenAddr string `ini:"listen_addr"`

	// DatabasePath is the SQLite catalog location.
	// Default: <data dir>/catalog.db
	DatabasePath string `ini:"database_path"`

	// EncryptUploads stores new uploads as encrypted envelopes when true.
	// Fixed per deployment; flipping it does not rewrite existing objects.
	// Default: false
	EncryptUploads bool `ini:"encrypt_uploads"`
}

// StorageConfig selects and parameterizes the blob store backend.
type StorageConfig struct {
	// Backend is one of "local", "s3", "azure". Selected once at startup.
	// Default: "local"
	Backend string `ini:"backend"`

	// LocalDir is the object directory for the local backend.
	// Default: <data dir>/objects
	LocalDir string `ini:"local_dir"`
}

// S3Config parameterizes the S3 backend.
type S3Config struct {
	// Bucket holding the stored objects.
	Bucket string `ini:"bucket"`

	// Region for the bucket.
	Region string `ini:"region"`

	// Endpoint overrides the AWS endpoint for S3-compatible stores
	// (MinIO and friends). Empty means AWS proper.
	Endpoint string `ini:"endpoint"`

	// KeyPrefix is prepended to every object key.
	KeyPrefix string `ini:"key_prefix"`
}

// AzureConfig parameterizes the Azure Blob backend. The connection string is
// read from AZURE_STORAGE_CONNECTION_STRING.
type AzureConfig struct {
	// Container holding the stored objects.
	Container string `ini:"container"`

	// KeyPrefix is prepended to every blob name.
	KeyPrefix string `ini:"key_prefix"`
}

// ClientConfig contains offline client settings.
type ClientConfig struct {
	// ServerURL is the base URL of the stream server.
	// Default: "http://localhost:8080"
	ServerURL string `ini:"server_url"`

	// CacheDir is the local store for downloaded songs.
	// Default: <data dir>/cache
	CacheDir string `ini:"cache_dir"`
}

// Default returns a Config with defaults applied and secrets read from the
// environment.
func Default() *Config {
	dataDir := DefaultDataDir()
	return &Config{
		Server: ServerConfig{
			ListenAddr:   constants.DefaultListenAddr,
			DatabasePath: joinPath(dataDir, "catalog.db"),
		},
		Storage: StorageConfig{
			Backend:  "local",
			LocalDir: joinPath(dataDir, "objects"),
		},
		Client: ClientConfig{
			ServerURL: "http://localhost:8080",
			CacheDir:  joinPath(dataDir, "cache"),
		},
		EncryptionKeyHex: os.Getenv(constants.EnvEncryptionKey),
		APIToken:         os.Getenv(constants.EnvAPIToken),
	}
}

// Load reads the config file at path, falling back to defaults for anything
// unset. A missing file is not an error: defaults plus environment secrets
// are a complete configuration for local mode.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultConfigPath()
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := file.Section("server").MapTo(&cfg.Server); err != nil {
		return nil, fmt.Errorf("invalid [server] section: %w", err)
	}
	if err := file.Section("storage").MapTo(&cfg.Storage); err != nil {
		return nil, fmt.Errorf("invalid [storage] section: %w", err)
	}
	if err := file.Section("s3").MapTo(&cfg.S3); err != nil {
		return nil, fmt.Errorf("invalid [s3] section: %w", err)
	}
	if err := file.Section("azure").MapTo(&cfg.Azure); err != nil {
		return nil, fmt.Errorf("invalid [azure] section: %w", err)
	}
	if err := file.Section("client").MapTo(&cfg.Client); err != nil {
		return nil, fmt.Errorf("invalid [client] section: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field requirements the INI mapping cannot express.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Storage.Backend) {
	case "local", "":
		c.Storage.Backend = "local"
		if c.Storage.LocalDir == "" {
			return fmt.Errorf("storage backend %q requires local_dir", c.Storage.Backend)
		}
	case "s3":
		c.Storage.Backend = "s3"
		if c.S3.Bucket == "" {
			return fmt.Errorf("storage backend \"s3\" requires [s3] bucket")
		}
		if c.S3.Region == "" && c.S3.Endpoint == "" {
			return fmt.Errorf("storage backend \"s3\" requires [s3] region or endpoint")
		}
	case "azure":
		c.Storage.Backend = "azure"
		if c.Azure.Container == "" {
			return fmt.Errorf("storage backend \"azure\" requires [azure] container")
		}
	default:
		return fmt.Errorf("unsupported storage backend: %s", c.Storage.Backend)
	}

	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = constants.DefaultListenAddr
	}
	if c.Client.ServerURL != "" {
		c.Client.ServerURL = strings.TrimRight(c.Client.ServerURL, "/")
	}

	return nil
}

// EncryptionConfigured reports whether the static key is present in the
// environment. Serving encrypted objects or encrypting uploads without it is
// a startup error, surfaced by the callers that need the codec.
func (c *Config) EncryptionConfigured() bool {
	return c.EncryptionKeyHex != ""
}
