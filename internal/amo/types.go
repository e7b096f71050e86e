package amo

import "time"

// Credentials identifies the API user against addons.mozilla.org.
type Credentials struct {
	APIKey    string
	APISecret string
}

// SignParams are the inputs to the legacy signing protocol.
type SignParams struct {
	Credentials
	Timeout      time.Duration
	ID           string // extension id; empty lets the server generate one
	XPIPath      string // built package to upload
	DownloadDir  string // where signed files are written
	Channel      string // optional: listed or unlisted
	APIURLPrefix string // e.g. https://addons.mozilla.org/api/v4
	APIProxy     string // optional HTTP(S) proxy URL
	Verbose      bool
	Version      string // manifest version of the upload
}

// SignResult is the outcome of a legacy signing run. Success is an explicit
// flag: the server can process an upload without producing signed files
// (e.g. when the version is held for manual review), which is reported as
// Success=false with no error.
type SignResult struct {
	Success         bool
	ID              string
	DownloadedFiles []string
}

// SubmitParams are the inputs to the submission API protocol.
type SubmitParams struct {
	Credentials
	Timeout     time.Duration
	ID          string // extension id; required to target an existing addon
	XPIPath     string
	DownloadDir string
	Channel     string // required: listed or unlisted
	AMOBaseURL  string // e.g. https://addons.mozilla.org
	SavedIDPath string // sidecar file the signer persists the id to

	// Metadata holds extra submission metadata, merged into the version body.
	Metadata map[string]any
}

// SubmitResult is the outcome of a submission API run.
type SubmitResult struct {
	ID              string
	Version         string
	Channel         string
	EditURL         string
	DownloadedFiles []string
}
