package sign

import "github.com/charmbracelet/log"

// Source records where the effective extension id came from.
type Source string

const (
	// SourceManifest: the manifest declared the id.
	SourceManifest Source = "manifest"
	// SourceFile: the id was read from the sidecar id file.
	SourceFile Source = "file"
	// SourceCLI: the id was supplied on the command line.
	SourceCLI Source = "cli"
	// SourceNone: no id anywhere; the signing server will generate one.
	SourceNone Source = "none"
)

// Resolved is the outcome of identity resolution: the effective id (possibly
// empty) and where it came from.
type Resolved struct {
	ID     string
	Source Source
}

// ResolveID reconciles the three possible id sources into one effective id.
//
// The rules, in order (first matching failure wins):
//  1. submission + CLI id without a manifest id: error.
//  2. submission + persisted id without a manifest id: error (a previously
//     auto-generated id cannot be reused there).
//  3. CLI id and manifest id both present: always a conflict, even when they
//     are textually identical.
//  4. A manifest id wins over everything else.
//  5. With no CLI id, a persisted id is reused.
//  6. A CLI id alone is adopted.
//  7. Nothing set: the server will auto-generate an id.
func ResolveID(cliID, manifestID, persistedID string, submission bool, logger *log.Logger) (Resolved, error) {
	if submission && cliID != "" && manifestID == "" {
		return Resolved{}, usagef(
			"cannot use custom id %q with the submission API unless the manifest also declares an id", cliID)
	}

	if submission && persistedID != "" && manifestID == "" {
		return Resolved{}, usagef(
			"cannot use previously auto-generated id %q with the submission API; declare an id in the manifest",
			persistedID)
	}

	if cliID != "" && manifestID != "" {
		return Resolved{}, usagef(
			"cannot set custom id %q: the manifest already declares id %q", cliID, manifestID)
	}

	if manifestID != "" {
		logger.Debug("using id declared in the manifest", "id", manifestID)
		return Resolved{ID: manifestID, Source: SourceManifest}, nil
	}

	if cliID == "" && persistedID != "" {
		logger.Info("reusing previously auto-generated id", "id", persistedID)
		return Resolved{ID: persistedID, Source: SourceFile}, nil
	}

	if cliID != "" {
		logger.Debug("using id from the command line", "id", cliID)
		return Resolved{ID: cliID, Source: SourceCLI}, nil
	}

	logger.Debug("no id declared; the signing server will generate one")
	return Resolved{Source: SourceNone}, nil
}
