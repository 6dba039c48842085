// Package dotdir resolves the .kbconsole/ directory that holds the console's
// config.toml and local chat history database.
package dotdir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DirName is the name of the console directory.
	DirName = ".kbconsole"

	// EnvVar names a directory to use when no explicit override is given.
	EnvVar = "KB_CONFIG_DIR"

	// HistoryFile is the default chat history database name.
	HistoryFile = "history.db"
)

// Dir is an absolute path to a .kbconsole directory that exists on disk.
type Dir string

// Join returns the path of name inside d.
func (d Dir) Join(name string) string {
	return filepath.Join(string(d), name)
}

// Resolve picks the console directory, creating it when missing. The first
// of these wins:
//
//   - override, usually the --config-dir flag
//   - $KB_CONFIG_DIR
//   - the nearest .kbconsole/ in the working directory or one of its parents
//   - ~/.kbconsole/
func Resolve(override string) (Dir, error) {
	dir, err := locate(override)
	if err != nil {
		return "", err
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", abs, err)
	}
	return Dir(abs), nil
}

// File resolves the console directory and returns the path of name in it.
func File(override, name string) (string, error) {
	d, err := Resolve(override)
	if err != nil {
		return "", err
	}
	return d.Join(name), nil
}

func locate(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if env := os.Getenv(EnvVar); env != "" {
		return env, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}
	if found, ok := findUp(cwd); ok {
		return found, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, DirName), nil
}

// findUp walks from start towards the filesystem root looking for DirName.
func findUp(start string) (string, bool) {
	for dir := start; ; {
		candidate := filepath.Join(dir, DirName)
		info, err := os.Stat(candidate)
		if err == nil && info.IsDir() {
			return candidate, true
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", false
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}
