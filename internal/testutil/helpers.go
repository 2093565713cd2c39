package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

// CreateDummyFile creates a file with the given content, ensuring parent
// directories exist. Uses require assertions for test setup.
func CreateDummyFile(t *testing.T, path string, content string) {
	t.Helper()
	fullPath := filepath.Clean(path)
	err := os.MkdirAll(filepath.Dir(fullPath), 0o755)
	require.NoError(t, err, "Failed to create directory for dummy file %s", fullPath)
	err = os.WriteFile(fullPath, []byte(content), 0o644)
	require.NoError(t, err, "Failed to write dummy file %s", fullPath)
}

// CreateDummyDir ensures a directory exists at the given path, creating
// parents if needed.
func CreateDummyDir(t *testing.T, path string) {
	t.Helper()
	err := os.MkdirAll(filepath.Clean(path), 0o755)
	require.NoError(t, err, "Failed to create dummy directory %s", path)
}

// FakeTool writes an executable shell script that exits with the given code
// after printing stderrText to stderr, and returns its path. It stands in
// for the external conversion tool in tests. Skips the test on Windows.
func FakeTool(t *testing.T, exitCode int, stderrText string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake tool scripts require a POSIX shell")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "fake-ebook-convert")
	script := "#!/bin/sh\n"
	if stderrText != "" {
		script += "cat >&2 <<'STDERR'\n" + stderrText + "\nSTDERR\n"
	}
	if exitCode == 0 {
		// Emulate the tool by writing a marker output file. Invocations
		// like "--version" pass no output path.
		script += "if [ -n \"$2\" ]; then printf 'converted' > \"$2\"; fi\n"
	}
	script += "exit " + strconv.Itoa(exitCode) + "\n"
	err := os.WriteFile(path, []byte(script), 0o755)
	require.NoError(t, err, "Failed to write fake tool script")
	return path
}
