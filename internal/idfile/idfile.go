// Package idfile reads and writes the sidecar extension-id file kept next to
// an extension's source tree. The file records the id a previous signing run
// used (or auto-generated) so later runs resolve to the same extension.
package idfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wext-labs/wext/internal/branding"
)

// FileName is the sidecar file name, relative to the extension source directory.
const FileName = ".web-extension-id"

var (
	// ErrNotFound is returned by Read when the sidecar file does not exist.
	// Callers treat it as "no persisted id", not as a failure.
	ErrNotFound = os.ErrNotExist

	// ErrEmpty is returned by Read when the file exists but contains no id
	// (only blank or comment lines). Unlike ErrNotFound this is a user error.
	ErrEmpty = errors.New("no extension id found")
)

// PathIn returns the sidecar file path for the given source directory.
func PathIn(sourceDir string) string {
	return filepath.Join(sourceDir, FileName)
}

// Read returns the persisted extension id from the file at path.
//
// A missing file yields ("", ErrNotFound). Blank lines and lines starting
// with '#' are skipped; the first surviving line, trimmed, is the id. A file
// that exists but contains no meaningful line is a user error: the file is
// in the way but says nothing.
func Read(path string) (string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("reading extension id file %s: %w", path, err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return line, nil
	}

	return "", fmt.Errorf("%w in %s: remove the file or add an id to it", ErrEmpty, path)
}

// Write persists id to the file at path, replacing any previous content.
// A short comment header explains what the file is for.
func Write(path, id string) error {
	content := "# This file was created by " + branding.CLIName() + ".\n" +
		"# Your extension's id is below. Keep it - you will need it to sign new versions.\n" +
		id + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing extension id file %s: %w", path, err)
	}
	return nil
}
