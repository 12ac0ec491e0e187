package platform

import (
	"os"
	"path/filepath"
	"strings"
)

// IsDevRun reports whether the process runs via `go run` or `go test`,
// judged by the executable living in the temp dir or ending in ".test".
func IsDevRun() bool {
	exe, err := os.Executable()
	if err != nil {
		return false
	}
	if strings.HasPrefix(strings.ToLower(exe), strings.ToLower(os.TempDir())) {
		return true
	}
	return strings.HasSuffix(exe, ".test") || strings.HasSuffix(exe, ".test.exe")
}

// ResolvePath expands a leading "~" and, with forceTemp, re-roots the path
// under <tmp>/flashmemo-dev so development runs never touch real notes.
// Paths already inside the temp dir are kept.
func ResolvePath(userPath string, forceTemp bool) (string, error) {
	path, err := expandHome(userPath)
	if err != nil {
		return "", err
	}
	if path == "" {
		path = "."
	}
	if !forceTemp {
		return path, nil
	}

	clean := filepath.Clean(path)
	if rel, err := filepath.Rel(os.TempDir(), clean); err == nil && !strings.HasPrefix(rel, "..") {
		return clean, nil
	}

	name := filepath.Base(clean)
	if name == "." || name == string(os.PathSeparator) {
		name = "default"
	}
	return filepath.Join(os.TempDir(), "flashmemo-dev", name), nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
