package sign

import (
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func TestResolveID_RuleTable(t *testing.T) {
	const (
		cli = "cli-id@example.com"
		man = "manifest-id@example.com"
		per = "persisted-id@example.com"
	)

	tests := []struct {
		name        string
		cliID       string
		manifestID  string
		persistedID string
		submission  bool
		wantID      string
		wantSource  Source
		wantErr     bool
	}{
		// Legacy backend.
		{"legacy/none", "", "", "", false, "", SourceNone, false},
		{"legacy/cli only", cli, "", "", false, cli, SourceCLI, false},
		{"legacy/manifest only", "", man, "", false, man, SourceManifest, false},
		{"legacy/persisted only", "", "", per, false, per, SourceFile, false},
		{"legacy/cli+manifest conflict", cli, man, "", false, "", "", true},
		{"legacy/cli+persisted cli wins", cli, "", per, false, cli, SourceCLI, false},
		{"legacy/manifest+persisted manifest wins", "", man, per, false, man, SourceManifest, false},
		{"legacy/all three conflict", cli, man, per, false, "", "", true},

		// Submission backend.
		{"submission/none", "", "", "", true, "", SourceNone, false},
		{"submission/cli without manifest", cli, "", "", true, "", "", true},
		{"submission/manifest only", "", man, "", true, man, SourceManifest, false},
		{"submission/persisted without manifest", "", "", per, true, "", "", true},
		{"submission/cli+manifest conflict", cli, man, "", true, "", "", true},
		{"submission/cli+persisted without manifest", cli, "", per, true, "", "", true},
		{"submission/manifest+persisted manifest wins", "", man, per, true, man, SourceManifest, false},
		{"submission/all three conflict", cli, man, per, true, "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveID(tt.cliID, tt.manifestID, tt.persistedID, tt.submission, testLogger())

			if tt.wantErr {
				if err == nil {
					t.Fatalf("ResolveID() = %+v, want error", got)
				}
				var usage *UsageError
				if !errors.As(err, &usage) {
					t.Errorf("ResolveID() error = %T, want *UsageError", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("ResolveID() error = %v", err)
			}
			if got.ID != tt.wantID {
				t.Errorf("ResolveID() ID = %q, want %q", got.ID, tt.wantID)
			}
			if got.Source != tt.wantSource {
				t.Errorf("ResolveID() Source = %q, want %q", got.Source, tt.wantSource)
			}
		})
	}
}

func TestResolveID_IdenticalCLIAndManifestStillConflict(t *testing.T) {
	// Supplying both is always an error, even when the values match.
	_, err := ResolveID("same@example.com", "same@example.com", "", false, testLogger())
	if err == nil {
		t.Fatal("ResolveID() expected conflict for identical cli and manifest ids, got nil")
	}
}

func TestValidateBackend(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr bool
	}{
		{"legacy no restrictions", Request{}, false},
		{"legacy with proxy and channel", Request{Channel: ChannelListed, APIProxy: "http://proxy:8080"}, false},
		{"submission with channel", Request{UseSubmissionAPI: true, Channel: ChannelUnlisted}, false},
		{"submission without channel", Request{UseSubmissionAPI: true}, true},
		{"submission with proxy", Request{UseSubmissionAPI: true, Channel: ChannelListed, APIProxy: "http://proxy:8080"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateBackend(tt.req)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateBackend() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var usage *UsageError
				if !errors.As(err, &usage) {
					t.Errorf("validateBackend() error = %T, want *UsageError", err)
				}
			}
		})
	}
}

func TestValidChannel(t *testing.T) {
	for _, ch := range []string{"", ChannelListed, ChannelUnlisted} {
		if !ValidChannel(ch) {
			t.Errorf("ValidChannel(%q) = false, want true", ch)
		}
	}
	if ValidChannel("beta") {
		t.Error(`ValidChannel("beta") = true, want false`)
	}
}
