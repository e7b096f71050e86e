package amo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func init() {
	pollInterval = 5 * time.Millisecond
}

func writeXPI(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ext-1.0.zip")
	if err := os.WriteFile(path, []byte("fake-zip"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// legacyServer fakes the v4 signing API: upload, two status polls, download.
func legacyServer(t *testing.T, signed bool) *httptest.Server {
	t.Helper()
	polls := 0

	mux := http.NewServeMux()
	var srv *httptest.Server

	mux.HandleFunc("/addons/", func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); !strings.HasPrefix(auth, "JWT ") {
			t.Errorf("upload missing JWT auth header, got %q", auth)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parsing upload form: %v", err)
		}
		if _, _, err := r.FormFile("upload"); err != nil {
			t.Errorf("upload field missing: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"guid": "server@example.com",
			"url":  srv.URL + "/status/",
		})
	})

	mux.HandleFunc("/status/", func(w http.ResponseWriter, r *http.Request) {
		polls++
		resp := map[string]any{
			"guid":              "server@example.com",
			"processed":         polls > 1,
			"valid":             true,
			"automated_signing": true,
			"files":             []any{},
		}
		if polls > 1 && signed {
			resp["files"] = []any{
				map[string]any{"download_url": srv.URL + "/files/ext-1.0-signed.xpi", "signed": true},
			}
		}
		if polls > 1 && !signed {
			resp["valid"] = false
		}
		json.NewEncoder(w).Encode(resp)
	})

	mux.HandleFunc("/files/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "signed-bytes")
	})

	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestLegacySign_Success(t *testing.T) {
	srv := legacyServer(t, true)
	downloadDir := t.TempDir()

	signer := &LegacySigner{}
	result, err := signer.Sign(context.Background(), SignParams{
		Credentials:  Credentials{APIKey: "user:1", APISecret: "secret"},
		Timeout:      5 * time.Second,
		ID:           "addon@example.com",
		XPIPath:      writeXPI(t),
		DownloadDir:  downloadDir,
		APIURLPrefix: srv.URL,
		Version:      "1.0",
	})
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	if !result.Success {
		t.Error("Sign() Success = false, want true")
	}
	if result.ID != "server@example.com" {
		t.Errorf("Sign() ID = %q, want %q", result.ID, "server@example.com")
	}
	if len(result.DownloadedFiles) != 1 {
		t.Fatalf("DownloadedFiles = %v, want one file", result.DownloadedFiles)
	}

	data, err := os.ReadFile(result.DownloadedFiles[0])
	if err != nil {
		t.Fatalf("reading downloaded file: %v", err)
	}
	if string(data) != "signed-bytes" {
		t.Errorf("downloaded content = %q, want %q", data, "signed-bytes")
	}
}

func TestLegacySign_NotSignedIsNotAnError(t *testing.T) {
	srv := legacyServer(t, false)

	signer := &LegacySigner{}
	result, err := signer.Sign(context.Background(), SignParams{
		Credentials:  Credentials{APIKey: "user:1", APISecret: "secret"},
		Timeout:      5 * time.Second,
		ID:           "addon@example.com",
		XPIPath:      writeXPI(t),
		DownloadDir:  t.TempDir(),
		APIURLPrefix: srv.URL,
		Version:      "1.0",
	})
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	if result.Success {
		t.Error("Sign() Success = true for unsigned result, want false")
	}
	if len(result.DownloadedFiles) != 0 {
		t.Errorf("DownloadedFiles = %v, want none", result.DownloadedFiles)
	}
}

func TestLegacySign_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	signer := &LegacySigner{}
	_, err := signer.Sign(context.Background(), SignParams{
		Credentials:  Credentials{APIKey: "user:1", APISecret: "secret"},
		Timeout:      2 * time.Second,
		ID:           "addon@example.com",
		XPIPath:      writeXPI(t),
		DownloadDir:  t.TempDir(),
		APIURLPrefix: srv.URL,
		Version:      "1.0",
	})
	if err == nil {
		t.Fatal("Sign() expected error for server failure, got nil")
	}
}

func TestLegacySign_BadProxyURL(t *testing.T) {
	signer := &LegacySigner{}
	_, err := signer.Sign(context.Background(), SignParams{
		Credentials: Credentials{APIKey: "user:1", APISecret: "secret"},
		XPIPath:     writeXPI(t),
		APIProxy:    "://not-a-url",
	})
	if err == nil {
		t.Fatal("Sign() expected error for bad proxy URL, got nil")
	}
}

func TestAuthToken(t *testing.T) {
	token, err := authToken(Credentials{APIKey: "user:1", APISecret: "secret"})
	if err != nil {
		t.Fatalf("authToken() error = %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Errorf("authToken() = %q, want three JWT segments", token)
	}
}
