package utils

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/charmbracelet/log"
)

// AppName is used for config and data directory names.
const AppName = "nameserve"

// PathResolver resolves on-disk locations relative to the running binary.
type PathResolver struct {
	executableDir string
	homeDir       string
	configDir     string
}

// NewPathResolver creates a new path resolver that determines the executable location
func NewPathResolver() (*PathResolver, error) {
	execPath, err := os.Executable()
	if err != nil {
		return nil, err
	}
	// Resolve any symlinks to get the actual binary location
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return nil, err
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Warnf("Could not determine home directory: %v", err)
		homeDir = os.TempDir()
	}

	pr := &PathResolver{
		executableDir: filepath.Dir(execPath),
		homeDir:       homeDir,
		configDir:     platformConfigDir(homeDir),
	}
	log.Debugf("PathResolver initialized: execDir=%s, configDir=%s", pr.executableDir, pr.configDir)
	return pr, nil
}

func platformConfigDir(homeDir string) string {
	switch runtime.GOOS {
	case "linux":
		if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
			return filepath.Join(configHome, AppName)
		}
		return filepath.Join(homeDir, ".config", AppName)
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, AppName)
		}
		return filepath.Join(homeDir, "AppData", "Roaming", AppName)
	default:
		return filepath.Join(homeDir, ".config", AppName)
	}
}

// GetModelDir finds the directory holding the vocabulary files.
// It tries, in order:
// 1. The user path as given (absolute or relative to the working directory)
// 2. Relative to the executable directory
// 3. model/ next to the executable, then under the config directory
// The first candidate holding any of markers wins. When none does, the user
// path is returned as given so the loader reports the real error.
func (pr *PathResolver) GetModelDir(userPath string, markers ...string) string {
	for _, dir := range pr.modelDirCandidates(userPath) {
		if hasAny(dir, markers) {
			log.Debugf("Found model directory: %s", dir)
			return dir
		}
		log.Debugf("Model directory candidate not valid: %s", dir)
	}
	return userPath
}

func (pr *PathResolver) modelDirCandidates(userPath string) []string {
	var candidates []string
	if userPath != "" {
		candidates = append(candidates, userPath)
		if !filepath.IsAbs(userPath) {
			candidates = append(candidates, filepath.Join(pr.executableDir, userPath))
		}
	}
	return append(candidates,
		filepath.Join(pr.executableDir, "model"),
		filepath.Join(pr.configDir, "model"),
	)
}

// GetConfigDir returns the config directory
func (pr *PathResolver) GetConfigDir() string {
	return pr.configDir
}

func hasAny(dir string, files []string) bool {
	if !DirExists(dir) {
		return false
	}
	for _, f := range files {
		if FileExists(filepath.Join(dir, f)) {
			return true
		}
	}
	return false
}
