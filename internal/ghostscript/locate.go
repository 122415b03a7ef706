package ghostscript

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// ErrNotFound is returned when no usable Ghostscript executable exists.
var ErrNotFound = errors.New("ghostscript executable not found")

// bundledNames are looked up next to our own executable, mirroring a
// distribution that ships gswin64c.exe in the application folder.
var bundledNames = []string{"gswin64c.exe", "gs"}

// pathNames are looked up on PATH.
var pathNames = []string{"gswin64c", "gswin32c", "gs"}

// Locate resolves the Ghostscript executable. A configured path wins and
// must be valid; otherwise a bundled binary next to the running program is
// preferred over one found on PATH.
func Locate(configured string) (string, error) {
	exeDir := ""
	if exe, err := os.Executable(); err == nil {
		exeDir = filepath.Dir(exe)
	}
	return locate(configured, exeDir, exec.LookPath)
}

func locate(configured, exeDir string, lookPath func(string) (string, error)) (string, error) {
	if configured != "" {
		if isExecutable(configured) {
			return configured, nil
		}
		return "", fmt.Errorf("%w: %s is missing or not executable", ErrNotFound, configured)
	}

	if exeDir != "" {
		for _, name := range bundledNames {
			candidate := filepath.Join(exeDir, name)
			if isExecutable(candidate) {
				return candidate, nil
			}
		}
	}

	for _, name := range pathNames {
		if p, err := lookPath(name); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("%w: install Ghostscript or set ghostscript.path", ErrNotFound)
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode()&0111 != 0
}
