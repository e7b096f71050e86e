package amo

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// LegacySigner talks to the v4 signing API. The zero value is ready to use.
type LegacySigner struct{}

// uploadResponse is the v4 response to a version upload.
type uploadResponse struct {
	GUID    string `json:"guid"`
	URL     string `json:"url"` // status URL to poll
	Version string `json:"version"`
}

// statusResponse is the v4 signing status of an uploaded version.
type statusResponse struct {
	GUID             string       `json:"guid"`
	Active           bool         `json:"active"`
	Processed        bool         `json:"processed"`
	Valid            bool         `json:"valid"`
	ReviewedByHuman  bool         `json:"reviewed"`
	AutomatedSigning bool         `json:"automated_signing"`
	ValidationURL    string       `json:"validation_url"`
	Files            []statusFile `json:"files"`
}

type statusFile struct {
	DownloadURL string `json:"download_url"`
	Signed      bool   `json:"signed"`
}

// Sign uploads the package and waits for signed files.
//
// A run that the server accepts but does not sign (held for manual review,
// failed validation) returns Success=false with a nil error; the caller
// decides how to report that. Transport and protocol failures return errors.
func (s *LegacySigner) Sign(ctx context.Context, p SignParams) (*SignResult, error) {
	client, err := newHTTPClient(p.APIProxy)
	if err != nil {
		return nil, err
	}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	upload, err := s.upload(ctx, client, p)
	if err != nil {
		return nil, err
	}

	var status statusResponse
	pollErr := poll(ctx, func() (bool, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, upload.URL, nil)
		if err != nil {
			return false, fmt.Errorf("creating status request: %w", err)
		}
		if err := doJSON(client, p.Credentials, req, &status); err != nil {
			return false, err
		}
		if !status.Processed {
			return false, nil
		}
		// Processed but invalid is terminal; stop polling.
		if !status.Valid {
			return true, nil
		}
		// Wait for every file to be signed before downloading.
		for _, f := range status.Files {
			if !f.Signed {
				return false, nil
			}
		}
		return len(status.Files) > 0 || !status.AutomatedSigning, nil
	})
	if pollErr != nil {
		return nil, fmt.Errorf("waiting for signed files: %w", pollErr)
	}

	result := &SignResult{ID: status.GUID}
	if result.ID == "" {
		result.ID = upload.GUID
	}

	if !status.Valid || len(status.Files) == 0 {
		// The server finished but produced nothing to download.
		return result, nil
	}

	for _, f := range status.Files {
		localPath, err := downloadFile(ctx, client, p.Credentials, f.DownloadURL, p.DownloadDir)
		if err != nil {
			return nil, err
		}
		result.DownloadedFiles = append(result.DownloadedFiles, localPath)
	}

	result.Success = true
	return result, nil
}

// upload PUTs the package against the version endpoint when an id is known,
// or POSTs to the addons collection to let the server create one.
func (s *LegacySigner) upload(ctx context.Context, client *http.Client, p SignParams) (*uploadResponse, error) {
	prefix := strings.TrimRight(p.APIURLPrefix, "/")

	fields := map[string]string{}
	if p.Channel != "" {
		fields["channel"] = p.Channel
	}

	var (
		method   string
		endpoint string
	)
	if p.ID != "" {
		method = http.MethodPut
		endpoint = fmt.Sprintf("%s/addons/%s/versions/%s/", prefix, p.ID, p.Version)
	} else {
		method = http.MethodPost
		endpoint = prefix + "/addons/"
		fields["version"] = p.Version
	}

	req, err := uploadRequest(ctx, method, endpoint, "upload", p.XPIPath, fields)
	if err != nil {
		return nil, err
	}

	var resp uploadResponse
	if err := doJSON(client, p.Credentials, req, &resp); err != nil {
		return nil, fmt.Errorf("uploading package: %w", err)
	}
	if resp.URL == "" {
		return nil, fmt.Errorf("upload response did not include a status URL")
	}
	return &resp, nil
}
