package config

import (
	"os"
	"path/filepath"
)

// findEnvFile resolves name to an existing file. Absolute paths are taken
// as is. Relative names are looked up in the working directory and then in
// each parent, up to and including the first directory holding a go.mod, so
// tests run from a package directory still find the repository's env file
// but never pick one up from outside the repository.
func findEnvFile(name string) (string, error) {
	if name == "" {
		name = ".env"
	}
	if filepath.IsAbs(name) {
		if !isFile(name) {
			return "", os.ErrNotExist
		}
		return name, nil
	}

	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, name)
		if isFile(candidate) {
			return candidate, nil
		}
		if isFile(filepath.Join(dir, "go.mod")) {
			return "", os.ErrNotExist
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
