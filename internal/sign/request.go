package sign

import (
	"time"

	"github.com/wext-labs/wext/internal/amo"
	"github.com/wext-labs/wext/internal/manifest"
)

// Channel values accepted by the signing backends.
const (
	ChannelListed   = "listed"
	ChannelUnlisted = "unlisted"
)

// Request holds everything one signing run needs. It is not mutated.
type Request struct {
	APIKey    string
	APISecret string

	// APIURLPrefix is the legacy signing API root (legacy backend only).
	APIURLPrefix string
	// AMOBaseURL is the addons server root (submission backend only).
	AMOBaseURL string
	// UseSubmissionAPI selects the submission backend over the legacy one.
	UseSubmissionAPI bool

	ArtifactsDir string
	ID           string // CLI-supplied custom id, optional
	IgnoreFiles  []string
	SourceDir    string
	Timeout      time.Duration
	Verbose      bool
	Channel      string // optional for legacy, required for submission
	APIProxy     string // optional, legacy backend only
	MetadataPath string // optional path to a submission metadata JSON file

	// Manifest, when set, is used instead of loading and validating
	// manifest.json from SourceDir. Callers composing the orchestrator into
	// larger flows use this to avoid double validation.
	Manifest *manifest.Manifest
}

// Result is what a successful signing run reports back. DownloadedFiles is
// populated on both paths; Submission carries the extra metadata only the
// submission backend produces.
type Result struct {
	ID              string
	DownloadedFiles []string
	Submission      *amo.SubmitResult
}

// validateBackend enforces the preconditions of the selected backend. It
// runs after identity resolution so conflict errors surface first.
func validateBackend(req Request) error {
	if !req.UseSubmissionAPI {
		return nil
	}
	if req.Channel == "" {
		return usagef("the submission API requires a channel (listed or unlisted)")
	}
	if req.APIProxy != "" {
		return usagef("an API proxy is not supported by the submission API")
	}
	return nil
}

// ValidChannel reports whether ch is empty or one of the accepted channels.
func ValidChannel(ch string) bool {
	return ch == "" || ch == ChannelListed || ch == ChannelUnlisted
}
