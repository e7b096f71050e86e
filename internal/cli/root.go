package cli

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/wext-labs/wext/internal/branding"
	"github.com/wext-labs/wext/internal/config"
	"github.com/wext-labs/wext/internal/updater"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` packages a browser extension source tree into a distributable
archive and submits it to a signing backend, keeping the extension's id
stable across releases.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Skip the banner for commands that manage their own output.
		name := cmd.Name()
		if name == "version" || name == "config" {
			return
		}

		// Non-blocking banner from cached version check.
		u := updater.New(buildVersion)
		u.CheckAndPrintBanner(os.Stderr, config.Dir())
	},
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	return rootCmd.Execute()
}
