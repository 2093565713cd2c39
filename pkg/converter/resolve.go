package converter

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// FindConverter resolves the path to the external conversion executable.
// Resolution order: an explicit userPath (validated to exist) wins; then the
// process search path; then the conventional Calibre install location as a
// convenience. A missing tool is a configuration error surfaced before any
// job runs.
func FindConverter(userPath string) (string, error) {
	userPath = strings.TrimSpace(userPath)
	if userPath != "" {
		if _, err := os.Stat(userPath); err == nil {
			return userPath, nil
		}
		return "", fmt.Errorf("%w: not found at %q", ErrConverterNotFound, userPath)
	}

	if path, err := exec.LookPath(ConverterExecutableName); err == nil {
		return path, nil
	}

	if _, err := os.Stat(ConverterFallbackPath); err == nil {
		return ConverterFallbackPath, nil
	}

	return "", fmt.Errorf("%w: install Calibre and ensure %q is on PATH, or set the converter path explicitly",
		ErrConverterNotFound, ConverterExecutableName)
}
