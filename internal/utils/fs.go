package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// DirStatus is what ProbeDir learned about a config or model directory.
type DirStatus struct {
	Path     string
	Exists   bool
	Writable bool
	Err      error
}

// FileExists reports whether path names a regular file.
func FileExists(path string) bool {
	stat, err := os.Stat(path)
	return err == nil && stat.Mode().IsRegular()
}

// DirExists reports whether path names a directory.
func DirExists(path string) bool {
	stat, err := os.Stat(path)
	return err == nil && stat.IsDir()
}

// EnsureDir creates dir and its parents.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	return nil
}

// WriteTOML encodes v into path through a temp file in the same directory, so
// a failed encode never truncates an existing config.
func WriteTOML(path string, v any) error {
	dir := filepath.Dir(path)
	if err := EnsureDir(dir); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if err := toml.NewEncoder(tmp).Encode(v); err != nil {
		tmp.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// AbsPath resolves path against the working directory, or returns "unknown"
// for an empty path.
func AbsPath(path string) string {
	if path == "" {
		return "unknown"
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// ExecutableDir returns the directory holding the running binary.
func ExecutableDir() (string, error) {
	execPath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}
	return filepath.Dir(execPath), nil
}

// ProbeDir creates dir when missing and checks that a file can be written in it.
// Failures are reported in Err; callers decide whether to fall back.
func ProbeDir(dir string) DirStatus {
	status := DirStatus{Path: dir}
	if err := EnsureDir(dir); err != nil {
		status.Err = err
		return status
	}
	status.Exists = true

	probe, err := os.CreateTemp(dir, ".write_test*")
	if err != nil {
		status.Err = fmt.Errorf("directory %s is not writable: %w", dir, err)
		return status
	}
	probe.Close()
	os.Remove(probe.Name())
	status.Writable = true
	return status
}
