// Package storage persists analysis results (perft counts and divide
// tables, searched best moves) in a BadgerDB store keyed by position.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	appName = "lumin"

	// EnvCacheDir overrides the default store location.
	EnvCacheDir = "LUMIN_CACHE_DIR"
)

// DefaultDir returns the store directory, creating it if needed: the
// LUMIN_CACHE_DIR environment variable when set, otherwise lumin/analysis
// under the user cache directory ($XDG_CACHE_HOME or ~/.cache on Linux,
// ~/Library/Caches on macOS, %LocalAppData% on Windows).
//
// Everything in the store can be recomputed, so it lives with caches rather
// than with user data.
func DefaultDir() (string, error) {
	if dir := os.Getenv(EnvCacheDir); dir != "" {
		return ensureDir(dir)
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("locate cache dir: %w", err)
	}
	return ensureDir(filepath.Join(base, appName, "analysis"))
}

func ensureDir(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create store dir: %w", err)
	}
	return dir, nil
}
