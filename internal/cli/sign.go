package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/wext-labs/wext/internal/config"
	"github.com/wext-labs/wext/internal/project"
	"github.com/wext-labs/wext/internal/sign"
)

var (
	signAPIKey        string
	signAPISecret     string
	signAPIURLPrefix  string
	signAMOBaseURL    string
	signUseSubmission bool
	signID            string
	signChannel       string
	signAPIProxy      string
	signMetadataPath  string
	signSourceDir     string
	signArtifactsDir  string
	signIgnoreFiles   []string
	signTimeout       time.Duration
	signVerbose       bool
)

func init() {
	f := signCmd.Flags()
	f.StringVar(&signAPIKey, "api-key", "", "Signing API key (or set WEXT_API_KEY)")
	f.StringVar(&signAPISecret, "api-secret", "", "Signing API secret (or set WEXT_API_SECRET)")
	f.StringVar(&signAPIURLPrefix, "api-url-prefix", "https://addons.mozilla.org/api/v4", "Legacy signing API URL prefix")
	f.StringVar(&signAMOBaseURL, "amo-base-url", "https://addons.mozilla.org", "Submission API base URL")
	f.BoolVar(&signUseSubmission, "use-submission-api", false, "Sign through the submission API instead of the legacy API")
	f.StringVar(&signID, "id", "", "Custom extension id (conflicts with a manifest-declared id)")
	f.StringVar(&signChannel, "channel", "", "Distribution channel: listed or unlisted")
	f.StringVar(&signAPIProxy, "api-proxy", "", "HTTP(S) proxy for the legacy signing API")
	f.StringVar(&signMetadataPath, "amo-metadata", "", "Path to a JSON file with submission metadata")
	f.StringVar(&signSourceDir, "source-dir", ".", "Extension source directory")
	f.StringVar(&signArtifactsDir, "artifacts-dir", "web-ext-artifacts", "Directory signed files are written to")
	f.StringSliceVar(&signIgnoreFiles, "ignore-files", nil, "Extra file patterns to exclude from the package")
	f.DurationVar(&signTimeout, "timeout", 5*time.Minute, "Overall timeout for the signing run")
	f.BoolVar(&signVerbose, "verbose", false, "Enable debug logging")
	rootCmd.AddCommand(signCmd)
}

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Build and sign the extension",
	Long: `Package the extension source tree, resolve its id, and submit it to the
signing backend. On success the signed files land in the artifacts directory
and the effective id is persisted next to the source for future runs.`,
	RunE: runSign,
}

func runSign(cmd *cobra.Command, args []string) error {
	config.Load()

	req, err := buildSignRequest(cmd)
	if err != nil {
		return err
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: false})
	if signVerbose {
		logger.SetLevel(log.DebugLevel)
	}

	result, err := sign.New(logger).Submit(cmd.Context(), req)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Signed extension id: %s\n", result.ID)
	for _, f := range result.DownloadedFiles {
		fmt.Fprintf(cmd.OutOrStdout(), "  downloaded: %s\n", f)
	}
	return nil
}

// buildSignRequest merges flags, project config, and user config into one
// signing request. Precedence: explicit flag > project wext.yaml > user
// config/env > built-in default.
func buildSignRequest(cmd *cobra.Command) (sign.Request, error) {
	req := sign.Request{
		APIKey:           signAPIKey,
		APISecret:        signAPISecret,
		APIURLPrefix:     signAPIURLPrefix,
		AMOBaseURL:       signAMOBaseURL,
		UseSubmissionAPI: signUseSubmission,
		ID:               signID,
		Channel:          signChannel,
		APIProxy:         signAPIProxy,
		MetadataPath:     signMetadataPath,
		SourceDir:        signSourceDir,
		ArtifactsDir:     signArtifactsDir,
		IgnoreFiles:      signIgnoreFiles,
		Timeout:          signTimeout,
		Verbose:          signVerbose,
	}

	proj, err := project.Load(req.SourceDir)
	if err != nil {
		return sign.Request{}, err
	}
	if proj != nil {
		if !cmd.Flags().Changed("artifacts-dir") && proj.ArtifactsDir != "" {
			req.ArtifactsDir = proj.ArtifactsDir
		}
		if !cmd.Flags().Changed("api-url-prefix") && proj.APIURLPrefix != "" {
			req.APIURLPrefix = proj.APIURLPrefix
		}
		if !cmd.Flags().Changed("amo-base-url") && proj.AMOBaseURL != "" {
			req.AMOBaseURL = proj.AMOBaseURL
		}
		if req.Channel == "" {
			req.Channel = proj.Channel
		}
		req.IgnoreFiles = append(req.IgnoreFiles, proj.IgnoreFiles...)
	}

	if req.APIKey == "" {
		req.APIKey = config.Get(config.KeyAPIKey)
	}
	if req.APISecret == "" {
		req.APISecret = config.Get(config.KeyAPISecret)
	}

	if req.APIKey == "" || req.APISecret == "" {
		return sign.Request{}, fmt.Errorf("signing requires --api-key and --api-secret (or WEXT_API_KEY / WEXT_API_SECRET)")
	}
	if !sign.ValidChannel(req.Channel) {
		return sign.Request{}, fmt.Errorf("invalid channel %q: must be listed or unlisted", req.Channel)
	}

	return req, nil
}
