package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath resolves a leading ~ to the home directory and expands $VAR references.
// The path is returned unchanged apart from that; when the home directory is unknown
// the tilde is kept.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = home + path[1:]
		}
	}
	return filepath.Clean(os.ExpandEnv(path))
}

// DefaultPath returns name inside DefaultDir, unexpanded.
func DefaultPath(name string) string {
	return filepath.Join(DefaultDir, name)
}
