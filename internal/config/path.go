// Package config holds the detection parameter set and small helpers for
// locating configuration files on disk.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath resolves a user-supplied file path: a leading ~ becomes the
// current user's home directory, and $VAR references are expanded from the
// environment. When the home directory cannot be determined the ~ is left
// as written.
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
