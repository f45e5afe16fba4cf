package cli

import (
	"fmt"
	"os"

	"github.com/remcovanmook/networkd-schema/internal/build"
	"github.com/remcovanmook/networkd-schema/internal/config"
	"github.com/remcovanmook/networkd-schema/internal/schema"
	"github.com/spf13/cobra"
)

func newBuildCmd() *cobra.Command {
	var (
		force    bool
		jobs     int
		versions []string
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Derive schema documents for the supported releases",
		Long: `Derive versioned schema documents from the curated baseline.

For every format type the structural diff between the baseline release
snapshot and the target release snapshot is applied to the curated document,
validity markers are stamped from the full release chain, and the result is
written to the output tree. Outputs whose content already matches are left
untouched unless --force is given.

Examples:
  # Build every supported release
  schemactl build

  # Build a single release
  schemactl build -v v258

  # Rewrite everything with four workers
  schemactl build --force --jobs 4`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manifest, err := config.LoadManifestFromFile(manifestPath)
			if err != nil {
				return err
			}
			return runBuild(manifest, force, jobs, versions)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Rewrite outputs even when their content is unchanged")
	cmd.Flags().IntVar(&jobs, "jobs", 0, "Worker count (default: number of CPUs)")
	cmd.Flags().StringSliceVarP(&versions, "version", "v", nil, "Only build the given release(s)")

	return cmd
}

func runBuild(manifest *config.Manifest, force bool, jobs int, versions []string) error {
	opts := build.Options{Force: force, Jobs: jobs, Progress: os.Stdout}
	for _, raw := range versions {
		version, err := schema.ParseVersion(raw)
		if err != nil {
			return err
		}
		opts.Versions = append(opts.Versions, version)
	}

	fmt.Printf("Building schemas for %s...\n", manifest.Metadata.Name)

	summary, err := build.Run(manifest, build.NewDirSource(manifest), opts)
	if err != nil {
		return err
	}

	if failures := summary.Failures(); len(failures) > 0 {
		return fmt.Errorf("%d of %d schema documents failed", len(failures), len(summary.Results))
	}

	fmt.Printf("\n✓ Built %d schema documents (%d written, %d unchanged)\n",
		len(summary.Results), summary.Written(), summary.Unchanged())
	return nil
}
