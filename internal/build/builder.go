// Package build packages an extension source tree into a distributable zip.
// File exclusion uses dockerignore-style patterns: a default set covering
// VCS metadata, editor droppings, and previously built artifacts, plus any
// user-supplied patterns.
package build

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/moby/patternmatcher"
	"github.com/wext-labs/wext/internal/manifest"
)

// DefaultIgnores are always excluded from built packages.
var DefaultIgnores = []string{
	"**/*.xpi",
	"**/*.zip",
	"**/.*",
	"**/.*/**",
	"**/node_modules",
	"**/node_modules/**",
}

// Params describes one packaging run.
type Params struct {
	SourceDir   string
	IgnoreFiles []string // extra exclusion patterns, dockerignore syntax
	OutDir      string   // directory the zip is written into
}

// Artifact is the result of a successful packaging run.
type Artifact struct {
	ExtensionPath string // path to the built zip
	Version       string // manifest version the package was built from
}

// Package zips the extension source tree described by p into p.OutDir and
// returns the resulting artifact. The zip file is named from the manifest's
// name and version.
func Package(ctx context.Context, p Params, m *manifest.Manifest) (Artifact, error) {
	matcher, err := patternmatcher.New(append(append([]string{}, DefaultIgnores...), p.IgnoreFiles...))
	if err != nil {
		return Artifact{}, fmt.Errorf("compiling ignore patterns: %w", err)
	}

	outPath := filepath.Join(p.OutDir, PackageName(m.Name, m.Version))

	out, err := os.Create(outPath)
	if err != nil {
		return Artifact{}, fmt.Errorf("creating package file %s: %w", outPath, err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)

	walkErr := filepath.WalkDir(p.SourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(p.SourceDir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		excluded, err := matcher.MatchesOrParentMatches(rel)
		if err != nil {
			return fmt.Errorf("matching %s against ignore patterns: %w", rel, err)
		}
		if excluded {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		return addFile(zw, path, rel)
	})
	if walkErr != nil {
		zw.Close()
		return Artifact{}, fmt.Errorf("packaging %s: %w", p.SourceDir, walkErr)
	}

	if err := zw.Close(); err != nil {
		return Artifact{}, fmt.Errorf("finalizing package %s: %w", outPath, err)
	}

	return Artifact{ExtensionPath: outPath, Version: m.Version}, nil
}

// addFile copies one file into the zip under its slash-separated relative name.
func addFile(zw *zip.Writer, path, rel string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	w, err := zw.Create(rel)
	if err != nil {
		return fmt.Errorf("adding %s to package: %w", rel, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("writing %s to package: %w", rel, err)
	}
	return nil
}

var unsafeNameChars = regexp.MustCompile(`[^a-z0-9_.-]+`)

// PackageName derives the zip file name from the extension name and version,
// e.g. "My Extension" 1.2.3 -> "my_extension-1.2.3.zip".
func PackageName(name, version string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, " ", "_")
	n = unsafeNameChars.ReplaceAllString(n, "")
	if n == "" {
		n = "extension"
	}
	return n + "-" + version + ".zip"
}
