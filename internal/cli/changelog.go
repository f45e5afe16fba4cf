package cli

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/remcovanmook/networkd-schema/internal/changelog"
	"github.com/remcovanmook/networkd-schema/internal/config"
	"github.com/remcovanmook/networkd-schema/internal/schema"
	"github.com/spf13/cobra"
)

func newChangelogCmd() *cobra.Command {
	var (
		from   string
		to     string
		all    bool
		asHTML bool
		output string
	)

	cmd := &cobra.Command{
		Use:   "changelog",
		Short: "Report schema changes between releases",
		Long: `Compare the derived schema documents of two releases and report the
options added, removed and newly deprecated per format type. The derived
documents must exist already (run 'schemactl build' first).

Examples:
  # Changes between two releases
  schemactl changelog --from v257 --to v258

  # Every adjacent release pair in the manifest
  schemactl changelog --all

  # HTML fragment for the documentation site
  schemactl changelog --all --html -o changelog.html`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manifest, err := config.LoadManifestFromFile(manifestPath)
			if err != nil {
				return err
			}
			pairs, err := changelogPairs(manifest, from, to, all)
			if err != nil {
				return err
			}
			return runChangelog(manifest, pairs, asHTML, output)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Older release")
	cmd.Flags().StringVar(&to, "to", "", "Newer release")
	cmd.Flags().BoolVar(&all, "all", false, "Walk every adjacent release pair in the manifest")
	cmd.Flags().BoolVar(&asHTML, "html", false, "Render the HTML fragment instead of plain text")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a file instead of stdout")

	return cmd
}

type versionPair struct {
	from schema.Version
	to   schema.Version
}

func changelogPairs(manifest *config.Manifest, from, to string, all bool) ([]versionPair, error) {
	if all {
		if from != "" || to != "" {
			return nil, fmt.Errorf("--all cannot be combined with --from/--to")
		}
		versions := manifest.VersionList()
		var pairs []versionPair
		for i := 0; i+1 < len(versions); i++ {
			pairs = append(pairs, versionPair{from: versions[i], to: versions[i+1]})
		}
		return pairs, nil
	}
	if from == "" || to == "" {
		return nil, fmt.Errorf("--from and --to are required (or use --all)")
	}
	fromVersion, err := schema.ParseVersion(from)
	if err != nil {
		return nil, err
	}
	toVersion, err := schema.ParseVersion(to)
	if err != nil {
		return nil, err
	}
	return []versionPair{{from: fromVersion, to: toVersion}}, nil
}

func runChangelog(manifest *config.Manifest, pairs []versionPair, asHTML bool, output string) error {
	docs := make(map[schema.Version]map[schema.Format]*schema.Document)
	loadVersion := func(version schema.Version) (map[schema.Format]*schema.Document, error) {
		if cached, ok := docs[version]; ok {
			return cached, nil
		}
		loaded, err := loadDerivedDocuments(manifest, version)
		if err != nil {
			return nil, err
		}
		docs[version] = loaded
		return loaded, nil
	}

	var rendered bytes.Buffer
	for _, pair := range pairs {
		prev, err := loadVersion(pair.from)
		if err != nil {
			return err
		}
		curr, err := loadVersion(pair.to)
		if err != nil {
			return err
		}
		report := changelog.Compare(prev, curr, pair.from, pair.to)
		if asHTML {
			if err := report.HTML(&rendered); err != nil {
				return fmt.Errorf("failed to render changelog fragment: %w", err)
			}
		} else {
			rendered.WriteString(report.Text())
		}
	}

	if output == "" {
		fmt.Print(rendered.String())
		return nil
	}
	result, err := schema.WriteFileIfChanged(output, rendered.Bytes())
	if err != nil {
		return fmt.Errorf("failed to write changelog: %w", err)
	}
	fmt.Printf("✓ %s (%s)\n", output, result)
	return nil
}

// loadDerivedDocuments reads every derived document of one release.
// Formats missing from the output tree are skipped so a manifest covering
// fewer formats in old releases still produces a report.
func loadDerivedDocuments(manifest *config.Manifest, version schema.Version) (map[schema.Format]*schema.Document, error) {
	loaded := make(map[schema.Format]*schema.Document)
	var missing []string
	for _, format := range manifest.FormatList() {
		path := filepath.Join(manifest.OutputDir(version), format.SchemaFileName())
		doc, err := schema.LoadDocument(path, format, version)
		if err != nil {
			missing = append(missing, format.Stem())
			continue
		}
		loaded[format] = doc
	}
	if len(loaded) == 0 {
		return nil, fmt.Errorf("no derived documents for %s (missing: %s); run 'schemactl build' first",
			version, strings.Join(missing, ", "))
	}
	return loaded, nil
}
