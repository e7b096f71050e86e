package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Load reads, validates, and parses the manifest.json in sourceDir.
// Validation issues are reported as a single error listing each problem.
func Load(sourceDir string) (*Manifest, error) {
	path := filepath.Join(sourceDir, FileName)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}

	result, err := Validate(data)
	if err != nil {
		return nil, fmt.Errorf("validating manifest %s: %w", path, err)
	}
	if !result.Valid {
		return nil, fmt.Errorf("manifest %s is invalid:\n%s", path, formatIssues(result.Issues))
	}

	return Parse(data, path)
}

// Parse unmarshals manifest JSON without schema validation. The path is used
// in error messages only.
func Parse(data []byte, path string) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	return &m, nil
}

// formatIssues renders validation issues one per line for user display.
func formatIssues(issues []ValidationIssue) string {
	var b strings.Builder
	for _, issue := range issues {
		if issue.Path != "" {
			fmt.Fprintf(&b, "  %s: %s\n", issue.Path, issue.Message)
		} else {
			fmt.Fprintf(&b, "  %s\n", issue.Message)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
