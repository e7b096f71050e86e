// Package artifacts prepares the output directory signed and built
// extension files are written to.
package artifacts

import (
	"fmt"
	"os"
)

// EnsureDir creates the artifacts directory if it does not exist. An existing
// regular file at the path is rejected rather than silently reused.
func EnsureDir(path string) error {
	info, err := os.Stat(path)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("artifacts path %s exists and is not a directory", path)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("checking artifacts directory %s: %w", path, err)
	}

	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("creating artifacts directory %s: %w", path, err)
	}
	return nil
}
