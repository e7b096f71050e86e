package amo

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/golang-jwt/jwt/v5"
)

// defaultTimeout bounds a whole signing run when the caller supplies none.
const defaultTimeout = 5 * time.Minute

// pollInterval is the pause between status checks while the server processes
// an upload. Variable so tests can shorten it.
var pollInterval = 5 * time.Second

// newHTTPClient builds an http.Client honoring an optional proxy URL.
// Per-request deadlines come from the context, not the client.
func newHTTPClient(proxy string) (*http.Client, error) {
	if proxy == "" {
		return &http.Client{}, nil
	}

	proxyURL, err := url.Parse(proxy)
	if err != nil {
		return nil, fmt.Errorf("parsing proxy URL %q: %w", proxy, err)
	}
	return &http.Client{
		Transport: &http.Transport{Proxy: http.ProxyURL(proxyURL)},
	}, nil
}

// authToken produces the short-lived HS256 JWT the AMO APIs authenticate with.
func authToken(c Credentials) (string, error) {
	jti := make([]byte, 16)
	if _, err := rand.Read(jti); err != nil {
		return "", fmt.Errorf("generating token id: %w", err)
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"iss": c.APIKey,
		"jti": hex.EncodeToString(jti),
		"iat": now.Unix(),
		"exp": now.Add(5 * time.Minute).Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(c.APISecret))
	if err != nil {
		return "", fmt.Errorf("signing auth token: %w", err)
	}
	return token, nil
}

// doJSON sends req with a fresh auth token and decodes the JSON response
// into out. Non-2xx statuses are returned as errors carrying the body.
func doJSON(client *http.Client, c Credentials, req *http.Request, out any) error {
	token, err := authToken(c)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "JWT "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", req.URL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response from %s: %w", req.URL, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("server response: %s (status: %d): %s", http.StatusText(resp.StatusCode), resp.StatusCode, truncate(body, 512))
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("parsing response from %s: %w", req.URL, err)
		}
	}
	return nil
}

// uploadRequest builds a multipart request with the package file under
// fieldName plus any extra form fields.
func uploadRequest(ctx context.Context, method, endpoint, fieldName, filePath string, fields map[string]string) (*http.Request, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening package %s: %w", filePath, err)
	}
	defer f.Close()

	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)

	part, err := mw.CreateFormFile(fieldName, filepath.Base(filePath))
	if err != nil {
		return nil, fmt.Errorf("preparing upload: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("reading package %s: %w", filePath, err)
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("preparing upload field %s: %w", k, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("finalizing upload body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, buf)
	if err != nil {
		return nil, fmt.Errorf("creating upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req, nil
}

// poll runs check at a constant interval until it reports done, the context
// expires, or check fails.
func poll(ctx context.Context, check func() (done bool, err error)) error {
	op := func() error {
		done, err := check()
		if err != nil {
			return backoff.Permanent(err)
		}
		if !done {
			return fmt.Errorf("still processing")
		}
		return nil
	}

	b := backoff.WithContext(backoff.NewConstantBackOff(pollInterval), ctx)
	return backoff.Retry(op, b)
}

// downloadFile fetches fileURL into destDir and returns the local path.
func downloadFile(ctx context.Context, client *http.Client, c Credentials, fileURL, destDir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating download request: %w", err)
	}
	token, err := authToken(c)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "JWT "+token)

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading %s: %w", fileURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download of %s returned status %d", fileURL, resp.StatusCode)
	}

	name := path.Base(resp.Request.URL.Path)
	if name == "." || name == "/" {
		name = "download.xpi"
	}
	destPath := filepath.Join(destDir, name)

	out, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", destPath, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return "", fmt.Errorf("writing %s: %w", destPath, err)
	}
	return destPath, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
