package eventlog

import (
	"os"
	"path/filepath"
	"strings"
)

// CaptureModulePath returns the module path declared in the nearest go.mod
// found by walking up from the working directory, for
// RunMetadata.ModulePath, or "" if there is none.
func CaptureModulePath() string {
	// Look for go.mod in current directory and parents
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		modPath := filepath.Join(dir, "go.mod")
		if data, err := os.ReadFile(modPath); err == nil {
			// Parse module line
			lines := strings.Split(string(data), "\n")
			for _, line := range lines {
				line = strings.TrimSpace(line)
				if strings.HasPrefix(line, "module ") {
					return strings.TrimSpace(strings.TrimPrefix(line, "module"))
				}
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}
