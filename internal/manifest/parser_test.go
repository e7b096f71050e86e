package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoad_Valid(t *testing.T) {
	dir := writeManifest(t, `{
  "manifest_version": 2,
  "name": "Example Extension",
  "version": "1.2.3",
  "browser_specific_settings": {
    "gecko": {"id": "addon@example.com", "strict_min_version": "57.0"}
  }
}`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if m.Name != "Example Extension" {
		t.Errorf("Name = %q, want %q", m.Name, "Example Extension")
	}
	if m.Version != "1.2.3" {
		t.Errorf("Version = %q, want %q", m.Version, "1.2.3")
	}
	if got := m.ID(); got != "addon@example.com" {
		t.Errorf("ID() = %q, want %q", got, "addon@example.com")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Fatal("Load() expected error for missing manifest, got nil")
	}
}

func TestLoad_MissingRequiredFields(t *testing.T) {
	dir := writeManifest(t, `{"name": "No Version"}`)

	_, err := Load(dir)
	if err == nil {
		t.Fatal("Load() expected validation error, got nil")
	}
	if !strings.Contains(err.Error(), "invalid") {
		t.Errorf("Load() error %q does not mention invalid manifest", err)
	}
}

func TestLoad_BadVersionFormat(t *testing.T) {
	dir := writeManifest(t, `{
  "manifest_version": 2,
  "name": "Bad Version",
  "version": "not-a-version"
}`)

	if _, err := Load(dir); err == nil {
		t.Fatal("Load() expected validation error for version format, got nil")
	}
}

func TestID_NoDeclaredID(t *testing.T) {
	m := &Manifest{ManifestVersion: 2, Name: "x", Version: "1.0"}
	if got := m.ID(); got != "" {
		t.Errorf("ID() = %q, want empty", got)
	}
}

func TestID_ApplicationsFallback(t *testing.T) {
	m := &Manifest{
		Applications: &BrowserSettings{Gecko: &GeckoSettings{ID: "legacy@example.com"}},
	}
	if got := m.ID(); got != "legacy@example.com" {
		t.Errorf("ID() = %q, want %q", got, "legacy@example.com")
	}
}

func TestID_BrowserSpecificSettingsWins(t *testing.T) {
	m := &Manifest{
		BrowserSpecificSettings: &BrowserSettings{Gecko: &GeckoSettings{ID: "new@example.com"}},
		Applications:            &BrowserSettings{Gecko: &GeckoSettings{ID: "legacy@example.com"}},
	}
	if got := m.ID(); got != "new@example.com" {
		t.Errorf("ID() = %q, want %q", got, "new@example.com")
	}
}

func TestID_BrowserSpecificSettingsWithoutGeckoHidesApplications(t *testing.T) {
	// Matches Firefox behavior: once browser_specific_settings is present,
	// the deprecated applications key is ignored entirely.
	m := &Manifest{
		BrowserSpecificSettings: &BrowserSettings{},
		Applications:            &BrowserSettings{Gecko: &GeckoSettings{ID: "legacy@example.com"}},
	}
	if got := m.ID(); got != "" {
		t.Errorf("ID() = %q, want empty", got)
	}
}

func TestValidate_GuidStyleID(t *testing.T) {
	result, err := Validate([]byte(`{
  "manifest_version": 2,
  "name": "Guid",
  "version": "1.0",
  "browser_specific_settings": {
    "gecko": {"id": "{01234567-89ab-cdef-0123-456789abcdef}"}
  }
}`))
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if !result.Valid {
		t.Errorf("Validate() issues = %+v, want valid", result.Issues)
	}
}

func TestValidate_MalformedJSON(t *testing.T) {
	if _, err := Validate([]byte(`{not json`)); err == nil {
		t.Fatal("Validate() expected error for malformed JSON, got nil")
	}
}
