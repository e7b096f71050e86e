package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wext-labs/wext/internal/artifacts"
	"github.com/wext-labs/wext/internal/build"
	"github.com/wext-labs/wext/internal/manifest"
	"github.com/wext-labs/wext/internal/project"
)

var (
	buildSourceDir    string
	buildArtifactsDir string
	buildIgnoreFiles  []string
)

func init() {
	f := buildCmd.Flags()
	f.StringVar(&buildSourceDir, "source-dir", ".", "Extension source directory")
	f.StringVar(&buildArtifactsDir, "artifacts-dir", "web-ext-artifacts", "Directory the package is written to")
	f.StringSliceVar(&buildIgnoreFiles, "ignore-files", nil, "Extra file patterns to exclude from the package")
	rootCmd.AddCommand(buildCmd)
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Package the extension without signing",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := manifest.Load(buildSourceDir)
		if err != nil {
			return err
		}

		artifactsDir := buildArtifactsDir
		ignoreFiles := buildIgnoreFiles
		if proj, err := project.Load(buildSourceDir); err != nil {
			return err
		} else if proj != nil {
			if !cmd.Flags().Changed("artifacts-dir") && proj.ArtifactsDir != "" {
				artifactsDir = proj.ArtifactsDir
			}
			ignoreFiles = append(ignoreFiles, proj.IgnoreFiles...)
		}

		if err := artifacts.EnsureDir(artifactsDir); err != nil {
			return err
		}

		artifact, err := build.Package(cmd.Context(), build.Params{
			SourceDir:   buildSourceDir,
			IgnoreFiles: ignoreFiles,
			OutDir:      artifactsDir,
		}, m)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Built %s\n", artifact.ExtensionPath)
		return nil
	},
}
