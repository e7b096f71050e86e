package amo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/wext-labs/wext/internal/idfile"
)

// SubmissionSigner talks to the v5 addons submission API. The zero value is
// ready to use.
type SubmissionSigner struct{}

// uploadDetail is the v5 upload state returned while validation runs.
type uploadDetail struct {
	UUID      string `json:"uuid"`
	Channel   string `json:"channel"`
	Processed bool   `json:"processed"`
	Valid     bool   `json:"valid"`
	URL       string `json:"url"`
}

// versionDetail is the v5 version resource created from a finished upload.
type versionDetail struct {
	ID      int64  `json:"id"`
	Version string `json:"version"`
	EditURL string `json:"edit_url"`
	File    struct {
		Status string `json:"status"`
		URL    string `json:"url"`
	} `json:"file"`
}

// addonDetail is the v5 addon resource wrapping a created version.
type addonDetail struct {
	GUID           string         `json:"guid"`
	CurrentVersion versionDetail  `json:"current_version"`
	LatestUnlisted *versionDetail `json:"latest_unlisted_version"`
}

// Submit uploads the package, waits for validation, creates the new version,
// downloads the signed file, and persists the addon id to p.SavedIDPath.
func (s *SubmissionSigner) Submit(ctx context.Context, p SubmitParams) (*SubmitResult, error) {
	client, err := newHTTPClient("")
	if err != nil {
		return nil, err
	}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	upload, err := s.uploadAndValidate(ctx, client, p)
	if err != nil {
		return nil, err
	}

	addon, version, err := s.createVersion(ctx, client, p, upload.UUID)
	if err != nil {
		return nil, err
	}

	result := &SubmitResult{
		ID:      addon.GUID,
		Version: version.Version,
		Channel: upload.Channel,
		EditURL: version.EditURL,
	}

	if version.File.URL != "" {
		localPath, err := downloadFile(ctx, client, p.Credentials, version.File.URL, p.DownloadDir)
		if err != nil {
			return nil, err
		}
		result.DownloadedFiles = append(result.DownloadedFiles, localPath)
	}

	// The submission protocol owns persisting the id; the orchestrator does
	// not duplicate this write.
	if p.SavedIDPath != "" && result.ID != "" {
		if err := idfile.Write(p.SavedIDPath, result.ID); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// uploadAndValidate sends the package to the upload endpoint and polls until
// server-side validation finishes. An invalid upload is an error here: the
// submission API has no signed-nothing success state.
func (s *SubmissionSigner) uploadAndValidate(ctx context.Context, client *http.Client, p SubmitParams) (*uploadDetail, error) {
	base := strings.TrimRight(p.AMOBaseURL, "/")
	endpoint := base + "/api/v5/addons/upload/"

	req, err := uploadRequest(ctx, http.MethodPost, endpoint, "upload", p.XPIPath, map[string]string{
		"channel": p.Channel,
	})
	if err != nil {
		return nil, err
	}

	var detail uploadDetail
	if err := doJSON(client, p.Credentials, req, &detail); err != nil {
		return nil, fmt.Errorf("uploading package: %w", err)
	}

	statusURL := fmt.Sprintf("%s/api/v5/addons/upload/%s/", base, detail.UUID)
	pollErr := poll(ctx, func() (bool, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
		if err != nil {
			return false, fmt.Errorf("creating upload status request: %w", err)
		}
		if err := doJSON(client, p.Credentials, req, &detail); err != nil {
			return false, err
		}
		return detail.Processed, nil
	})
	if pollErr != nil {
		return nil, fmt.Errorf("waiting for upload validation: %w", pollErr)
	}

	if !detail.Valid {
		return nil, fmt.Errorf("upload failed validation: %s", detail.URL)
	}
	return &detail, nil
}

// createVersion attaches the validated upload to the addon. With a known id
// the version is created on that addon; otherwise a new addon is created and
// the server assigns the id.
func (s *SubmissionSigner) createVersion(ctx context.Context, client *http.Client, p SubmitParams, uploadUUID string) (*addonDetail, *versionDetail, error) {
	base := strings.TrimRight(p.AMOBaseURL, "/")

	versionBody := map[string]any{"upload": uploadUUID}
	for k, v := range p.Metadata {
		versionBody[k] = v
	}

	var (
		endpoint string
		body     any
	)
	if p.ID != "" {
		endpoint = fmt.Sprintf("%s/api/v5/addons/addon/%s/versions/", base, p.ID)
		body = versionBody
	} else {
		endpoint = base + "/api/v5/addons/"
		body = map[string]any{"version": versionBody}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, nil, fmt.Errorf("encoding version request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, nil, fmt.Errorf("creating version request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	addon := &addonDetail{GUID: p.ID}
	version := &versionDetail{}
	if p.ID != "" {
		if err := doJSON(client, p.Credentials, req, version); err != nil {
			return nil, nil, fmt.Errorf("creating version: %w", err)
		}
	} else {
		if err := doJSON(client, p.Credentials, req, addon); err != nil {
			return nil, nil, fmt.Errorf("creating addon: %w", err)
		}
		*version = addon.CurrentVersion
		if addon.LatestUnlisted != nil {
			*version = *addon.LatestUnlisted
		}
	}

	// Poll the version until its file has been signed and is downloadable.
	detailURL := fmt.Sprintf("%s/api/v5/addons/addon/%s/versions/%d/", base, addon.GUID, version.ID)
	pollErr := poll(ctx, func() (bool, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, detailURL, nil)
		if err != nil {
			return false, fmt.Errorf("creating version status request: %w", err)
		}
		if err := doJSON(client, p.Credentials, req, version); err != nil {
			return false, err
		}
		return version.File.Status == "public" || version.File.URL != "", nil
	})
	if pollErr != nil {
		return nil, nil, fmt.Errorf("waiting for signed version: %w", pollErr)
	}

	return addon, version, nil
}
