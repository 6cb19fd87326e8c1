package utils

import (
	"os"
	"path/filepath"
)

// GetProjectRoot returns the closest ancestor of the working directory holding a go.mod,
// or "." when there is none.
func GetProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "."
}

// GetDataDir returns ~/.conduit, falling back to .conduit under the project root when
// the home directory cannot be resolved.
func GetDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(GetProjectRoot(), ".conduit")
	}
	return filepath.Join(home, ".conduit")
}
