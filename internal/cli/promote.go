package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/remcovanmook/networkd-schema/internal/config"
	"github.com/remcovanmook/networkd-schema/internal/schema"
	"github.com/spf13/cobra"
)

func newPromoteCmd() *cobra.Command {
	var promoteVersion string

	cmd := &cobra.Command{
		Use:   "promote",
		Short: "Promote a derived release into the curated tree",
		Long: `Copy the derived documents of one release into the curated tree as
baseline candidates for re-baselining.

The documents are validated, stripped of their derivation provenance and
written with versioned file names. The manifest's baseVersion is not
changed; edit it by hand once the promoted documents have been reviewed.

Examples:
  schemactl promote --version v258`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if promoteVersion == "" {
				return fmt.Errorf("--version is required")
			}
			manifest, err := config.LoadManifestFromFile(manifestPath)
			if err != nil {
				return err
			}
			version, err := schema.ParseVersion(promoteVersion)
			if err != nil {
				return err
			}
			return promote(manifest, version)
		},
	}

	cmd.Flags().StringVarP(&promoteVersion, "version", "v", "", "Derived release to promote")

	return cmd
}

func promote(manifest *config.Manifest, version schema.Version) error {
	known := false
	for _, v := range manifest.VersionList() {
		if v == version {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("version %s is not listed in the manifest", version)
	}
	if version == manifest.BaseVersion() {
		return fmt.Errorf("version %s is already the curated baseline", version)
	}

	// Validate everything before touching the curated tree.
	var allErrors []string
	docs := make(map[schema.Format]*schema.Document)
	for _, format := range manifest.FormatList() {
		path := filepath.Join(manifest.OutputDir(version), format.SchemaFileName())
		doc, err := schema.LoadDocument(path, format, version)
		if err != nil {
			allErrors = append(allErrors, fmt.Sprintf("[%s] %v", format.Stem(), err))
			continue
		}
		for _, issue := range schema.Check(doc) {
			allErrors = append(allErrors, fmt.Sprintf("[%s] %s", format.Stem(), issue))
		}
		docs[format] = doc
	}
	if len(allErrors) > 0 {
		return fmt.Errorf("refusing to promote %s:\n\n%s", version, strings.Join(allErrors, "\n"))
	}

	fmt.Printf("Promoting %s documents to the curated tree\n", version)

	curatedDir := filepath.Join(manifest.Spec.Paths.Curated, string(version))
	promoted := 0
	for _, format := range manifest.FormatList() {
		doc := docs[format]
		// A curated baseline is ground truth, not a derivation product.
		doc.GeneratedFrom = nil

		destPath := filepath.Join(curatedDir, format.RawFileName(version))
		result, err := schema.WriteDocument(destPath, doc)
		if err != nil {
			return fmt.Errorf("failed to promote %s: %w", format.Stem(), err)
		}
		fmt.Printf("  ✓ %s: %s (%s)\n", format.Stem(), destPath, result)
		promoted++
	}

	fmt.Printf("\n✓ Successfully promoted %d documents to %s\n", promoted, curatedDir)
	fmt.Printf("  Review them, then set spec.baseVersion to %s in %s to re-baseline\n", version, config.DefaultManifestFile)
	return nil
}
