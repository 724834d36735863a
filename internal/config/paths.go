package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// DefaultConfigPath returns the platform config file location.
//   - Windows: %APPDATA%\TuneVault\tunevault.conf
//   - Unix: ~/.config/tunevault/tunevault.conf
func DefaultConfigPath() string {
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "TuneVault", "tunevault.conf")
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "tunevault.conf"
	}
	return filepath.Join(home, ".config", "tunevault", "tunevault.conf")
}

// DefaultDataDir returns the platform data directory used for the catalog
// database, local objects, and the offline cache.
func DefaultDataDir() string {
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("LOCALAPPDATA"); appData != "" {
			return filepath.Join(appData, "TuneVault")
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "tunevault-data"
	}
	return filepath.Join(home, ".local", "share", "tunevault")
}

func joinPath(dir, name string) string {
	return filepath.Join(dir, name)
}
