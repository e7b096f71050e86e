package manifest

// FileName is the manifest file name, relative to the extension source directory.
const FileName = "manifest.json"

// Manifest holds the fields of a web extension's manifest.json that the CLI
// cares about. Unknown fields are ignored.
type Manifest struct {
	ManifestVersion         int              `json:"manifest_version"`
	Name                    string           `json:"name"`
	Version                 string           `json:"version"`
	Description             string           `json:"description,omitempty"`
	BrowserSpecificSettings *BrowserSettings `json:"browser_specific_settings,omitempty"`

	// Applications is the deprecated alias for browser_specific_settings.
	// It is honored only when browser_specific_settings is absent.
	Applications *BrowserSettings `json:"applications,omitempty"`
}

// BrowserSettings holds per-browser manifest settings.
type BrowserSettings struct {
	Gecko *GeckoSettings `json:"gecko,omitempty"`
}

// GeckoSettings holds Firefox-specific manifest settings.
type GeckoSettings struct {
	ID               string `json:"id,omitempty"`
	StrictMinVersion string `json:"strict_min_version,omitempty"`
	UpdateURL        string `json:"update_url,omitempty"`
}

// ID returns the extension id declared in the manifest, or "" if none is
// declared. browser_specific_settings takes precedence over the deprecated
// applications key.
func (m *Manifest) ID() string {
	if m.BrowserSpecificSettings != nil {
		if m.BrowserSpecificSettings.Gecko != nil {
			return m.BrowserSpecificSettings.Gecko.ID
		}
		return ""
	}
	if m.Applications != nil && m.Applications.Gecko != nil {
		return m.Applications.Gecko.ID
	}
	return ""
}
