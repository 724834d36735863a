package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tunevault.conf")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.conf"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Backend != "local" {
		t.Errorf("Backend = %q, want local", cfg.Storage.Backend)
	}
	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q, want :8080", cfg.Server.ListenAddr)
	}
	if cfg.Storage.LocalDir == "" || cfg.Server.DatabasePath == "" {
		t.Error("default paths not populated")
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[server]
listen_addr = :9090
encrypt_uploads = true

[storage]
backend = local
local_dir = /srv/tunevault/objects

[client]
server_url = https://music.example.com/
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.ListenAddr != ":9090" {
		t.Errorf("ListenAddr = %q", cfg.Server.ListenAddr)
	}
	if !cfg.Server.EncryptUploads {
		t.Error("EncryptUploads not read from file")
	}
	if cfg.Storage.LocalDir != "/srv/tunevault/objects" {
		t.Errorf("LocalDir = %q", cfg.Storage.LocalDir)
	}
	if cfg.Client.ServerURL != "https://music.example.com" {
		t.Errorf("ServerURL = %q, want trailing slash trimmed", cfg.Client.ServerURL)
	}
}

func TestLoadS3Backend(t *testing.T) {
	path := writeConfig(t, `
[storage]
backend = s3

[s3]
bucket = tunevault-media
region = us-east-1
key_prefix = prod/
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Backend != "s3" || cfg.S3.Bucket != "tunevault-media" {
		t.Errorf("cfg = %+v", cfg.S3)
	}
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			"unknown_backend",
			"[storage]\nbackend = ftp\n",
			"unsupported storage backend",
		},
		{
			"s3_without_bucket",
			"[storage]\nbackend = s3\n",
			"requires [s3] bucket",
		},
		{
			"s3_without_region_or_endpoint",
			"[storage]\nbackend = s3\n\n[s3]\nbucket = b\n",
			"region or endpoint",
		},
		{
			"azure_without_container",
			"[storage]\nbackend = azure\n",
			"requires [azure] container",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("Load succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestSecretsComeFromEnvironment(t *testing.T) {
	t.Setenv("TUNEVAULT_ENCRYPTION_KEY", strings.Repeat("ab", 32))
	t.Setenv("TUNEVAULT_API_TOKEN", "sekrit")

	cfg := Default()
	if !cfg.EncryptionConfigured() {
		t.Error("EncryptionConfigured = false with key in environment")
	}
	if cfg.APIToken != "sekrit" {
		t.Errorf("APIToken = %q", cfg.APIToken)
	}
}
