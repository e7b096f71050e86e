package sign

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/wext-labs/wext/internal/amo"
	"github.com/wext-labs/wext/internal/artifacts"
	"github.com/wext-labs/wext/internal/build"
	"github.com/wext-labs/wext/internal/idfile"
	"github.com/wext-labs/wext/internal/manifest"
)

// Collaborator function shapes. Production defaults live in New; tests swap
// them out.
type (
	BuildFunc        func(ctx context.Context, p build.Params, m *manifest.Manifest) (build.Artifact, error)
	LegacySignFunc   func(ctx context.Context, p amo.SignParams) (*amo.SignResult, error)
	SubmitFunc       func(ctx context.Context, p amo.SubmitParams) (*amo.SubmitResult, error)
	ManifestLoadFunc func(sourceDir string) (*manifest.Manifest, error)
)

// Orchestrator sequences one signing run: build and id-file read in
// parallel, identity resolution, backend validation, dispatch, persistence.
type Orchestrator struct {
	Build        BuildFunc
	SignLegacy   LegacySignFunc
	SubmitAddon  SubmitFunc
	LoadManifest ManifestLoadFunc
	ReadIDFile   func(path string) (string, error)
	WriteIDFile  func(path, id string) error
	EnsureDir    func(path string) error
	Logger       *log.Logger
}

// New returns an orchestrator wired to the production collaborators.
func New(logger *log.Logger) *Orchestrator {
	legacy := &amo.LegacySigner{}
	submission := &amo.SubmissionSigner{}
	return &Orchestrator{
		Build:        build.Package,
		SignLegacy:   legacy.Sign,
		SubmitAddon:  submission.Submit,
		LoadManifest: manifest.Load,
		ReadIDFile:   idfile.Read,
		WriteIDFile:  idfile.Write,
		EnsureDir:    artifacts.EnsureDir,
		Logger:       logger,
	}
}

// Submit runs the full signing flow for req. Exactly one terminal marker is
// logged per invocation: FAIL before any returned error, SUCCESS with the
// effective id otherwise.
func (o *Orchestrator) Submit(ctx context.Context, req Request) (*Result, error) {
	result, err := o.submit(ctx, req)
	if err != nil {
		o.Logger.Error("FAIL")
		return nil, err
	}

	o.Logger.Info("SUCCESS")
	o.Logger.Info("extension signed", "id", result.ID)
	return result, nil
}

func (o *Orchestrator) submit(ctx context.Context, req Request) (*Result, error) {
	if err := o.EnsureDir(req.ArtifactsDir); err != nil {
		return nil, err
	}

	m := req.Manifest
	if m == nil {
		loaded, err := o.LoadManifest(req.SourceDir)
		if err != nil {
			return nil, err
		}
		m = loaded
	}

	// Scoped build directory, removed on every exit path.
	tmpDir, err := os.MkdirTemp("", "wext-sign-")
	if err != nil {
		return nil, fmt.Errorf("creating temporary build directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	idPath := idfile.PathIn(req.SourceDir)

	var (
		artifact    build.Artifact
		persistedID string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a, err := o.Build(gctx, build.Params{
			SourceDir:   req.SourceDir,
			IgnoreFiles: req.IgnoreFiles,
			OutDir:      tmpDir,
		}, m)
		if err != nil {
			return backendErr(err)
		}
		artifact = a
		return nil
	})
	g.Go(func() error {
		id, err := o.ReadIDFile(idPath)
		if errors.Is(err, idfile.ErrNotFound) {
			return nil
		}
		if errors.Is(err, idfile.ErrEmpty) {
			return &UsageError{msg: err.Error()}
		}
		if err != nil {
			return err
		}
		persistedID = id
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	resolved, err := ResolveID(req.ID, m.ID(), persistedID, req.UseSubmissionAPI, o.Logger)
	if err != nil {
		return nil, err
	}
	if err := validateBackend(req); err != nil {
		return nil, err
	}

	metadata, err := readMetadata(req.MetadataPath)
	if err != nil {
		return nil, err
	}

	creds := amo.Credentials{APIKey: req.APIKey, APISecret: req.APISecret}

	if req.UseSubmissionAPI {
		o.Logger.Debug("dispatching to submission API", "id", resolved.ID, "source", resolved.Source)
		sr, err := o.SubmitAddon(ctx, amo.SubmitParams{
			Credentials: creds,
			Timeout:     req.Timeout,
			ID:          resolved.ID,
			XPIPath:     artifact.ExtensionPath,
			DownloadDir: req.ArtifactsDir,
			Channel:     req.Channel,
			AMOBaseURL:  req.AMOBaseURL,
			SavedIDPath: idPath,
			Metadata:    metadata,
		})
		if err != nil {
			return nil, backendErr(err)
		}
		return &Result{ID: sr.ID, DownloadedFiles: sr.DownloadedFiles, Submission: sr}, nil
	}

	o.Logger.Debug("dispatching to legacy signing API", "id", resolved.ID, "source", resolved.Source)
	sr, err := o.SignLegacy(ctx, amo.SignParams{
		Credentials:  creds,
		Timeout:      req.Timeout,
		ID:           resolved.ID,
		XPIPath:      artifact.ExtensionPath,
		DownloadDir:  req.ArtifactsDir,
		Channel:      req.Channel,
		APIURLPrefix: req.APIURLPrefix,
		APIProxy:     req.APIProxy,
		Verbose:      req.Verbose,
		Version:      artifact.Version,
	})
	if err != nil {
		return nil, backendErr(err)
	}
	if !sr.Success {
		// The server completed without signing (held for review or failed
		// validation). No exception was thrown, but the run still failed.
		return nil, &BackendError{msg: fmt.Sprintf("the signing server did not sign the extension (id: %s)", sr.ID)}
	}

	if err := o.WriteIDFile(idPath, sr.ID); err != nil {
		return nil, err
	}
	return &Result{ID: sr.ID, DownloadedFiles: sr.DownloadedFiles}, nil
}

// readMetadata loads and parses the optional submission metadata JSON file.
// A missing file and malformed JSON are distinct usage errors.
func readMetadata(path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, usagef("metadata file not found: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading metadata file %s: %w", path, err)
	}

	var metadata map[string]any
	if err := json.Unmarshal(data, &metadata); err != nil {
		return nil, usagef("invalid JSON in metadata file %s: %v", path, err)
	}
	return metadata, nil
}
