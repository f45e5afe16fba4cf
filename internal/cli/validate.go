package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/remcovanmook/networkd-schema/internal/config"
	"github.com/remcovanmook/networkd-schema/internal/schema"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	var (
		versions []string
		curated  bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate schema documents",
		Long: `Validate the structural integrity of schema documents: reference
resolution, enum and bound sanity, pattern syntax and version markers.

By default the derived output tree is validated; --curated checks the
hand-maintained baseline documents instead.

Examples:
  schemactl validate
  schemactl validate -v v258
  schemactl validate --curated`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manifest, err := config.LoadManifestFromFile(manifestPath)
			if err != nil {
				return err
			}
			var parsed []schema.Version
			for _, raw := range versions {
				version, err := schema.ParseVersion(raw)
				if err != nil {
					return err
				}
				parsed = append(parsed, version)
			}
			return runValidate(manifest, parsed, curated)
		},
	}

	cmd.Flags().StringSliceVarP(&versions, "version", "v", nil, "Only validate the given release(s)")
	cmd.Flags().BoolVar(&curated, "curated", false, "Validate the curated baseline documents instead of the derived output")

	return cmd
}

func runValidate(manifest *config.Manifest, versions []schema.Version, curated bool) error {
	type document struct {
		format  schema.Format
		version schema.Version
		path    string
	}

	var targets []document
	if curated {
		base := manifest.BaseVersion()
		for _, format := range manifest.FormatList() {
			targets = append(targets, document{
				format:  format,
				version: base,
				path:    filepath.Join(manifest.CuratedDir(), format.RawFileName(base)),
			})
		}
	} else {
		selected := versions
		if len(selected) == 0 {
			selected = manifest.VersionList()
		}
		for _, version := range selected {
			for _, format := range manifest.FormatList() {
				targets = append(targets, document{
					format:  format,
					version: version,
					path:    filepath.Join(manifest.OutputDir(version), format.SchemaFileName()),
				})
			}
		}
	}

	var allErrors []string
	validated := 0
	for _, target := range targets {
		doc, err := schema.LoadDocument(target.path, target.format, target.version)
		if err != nil {
			allErrors = append(allErrors, fmt.Sprintf("[%s %s] %v", target.format.Stem(), target.version, err))
			continue
		}
		issues := schema.Check(doc)
		if len(issues) > 0 {
			for _, issue := range issues {
				allErrors = append(allErrors, fmt.Sprintf("[%s %s] %s", target.format.Stem(), target.version, issue))
			}
			continue
		}
		fmt.Printf("  ✓ %s %s: validated\n", target.format.Stem(), target.version)
		validated++
	}

	if len(allErrors) > 0 {
		return fmt.Errorf("validation errors:\n\n%s", strings.Join(allErrors, "\n"))
	}

	fmt.Printf("\n✓ All %d schema documents validated successfully\n", validated)
	return nil
}
