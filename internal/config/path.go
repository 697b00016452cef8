// Package config provides path resolution for the application's on-disk state.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

const appDir = "cartwheel"

// ExpandPath expands ~ and environment variables in a file path.
// It handles both ~ for home directory and $VAR style environment variables.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	switch {
	case path == "~":
		if home, err := os.UserHomeDir(); err == nil {
			path = home
		}
	case strings.HasPrefix(path, "~/"):
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	return os.ExpandEnv(path)
}

// DefaultDatabasePath is the sqlite database location used when none is
// configured: $XDG_DATA_HOME/cartwheel/cartwheel.db, falling back to
// ~/.local/share.
func DefaultDatabasePath() string {
	return filepath.Join(dataHome(), appDir, "cartwheel.db")
}

// CertsDir is where generated TLS certificates are cached:
// $XDG_CONFIG_HOME/cartwheel/certs, falling back to ~/.config.
func CertsDir() string {
	return filepath.Join(configHome(), appDir, "certs")
}

func dataHome() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share")
}

func configHome() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config")
}
