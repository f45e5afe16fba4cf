package cli

import (
	"encoding/json"
	"fmt"

	"github.com/remcovanmook/networkd-schema/internal/build"
	"github.com/remcovanmook/networkd-schema/internal/config"
	"github.com/remcovanmook/networkd-schema/internal/derive"
	"github.com/remcovanmook/networkd-schema/internal/schema"
	"github.com/spf13/cobra"
)

func newDiffCmd() *cobra.Command {
	var (
		target     string
		formatName string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Show the structural diff between the baseline and a target release",
		Long: `Compute the structural diff between the baseline release snapshot and a
target release snapshot without applying it: sections and keys added or
removed between the two releases, per format type.

Examples:
  schemactl diff --target v259
  schemactl diff --target v240 --type netdev
  schemactl diff --target v259 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if target == "" {
				return fmt.Errorf("--target is required")
			}
			manifest, err := config.LoadManifestFromFile(manifestPath)
			if err != nil {
				return err
			}
			targetVersion, err := schema.ParseVersion(target)
			if err != nil {
				return err
			}
			formats := manifest.FormatList()
			if formatName != "" {
				format, err := schema.ParseFormat(formatName)
				if err != nil {
					return err
				}
				formats = []schema.Format{format}
			}
			return runDiff(manifest, formats, targetVersion, asJSON)
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", "", "Target release to diff against the baseline")
	cmd.Flags().StringVar(&formatName, "type", "", "Restrict to one format type (network, netdev, link, networkd.conf)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the diffs as JSON")

	return cmd
}

func runDiff(manifest *config.Manifest, formats []schema.Format, target schema.Version, asJSON bool) error {
	source := build.NewDirSource(manifest)
	base := manifest.BaseVersion()

	var diffs []*derive.Diff
	for _, format := range formats {
		rawBase, err := source.Raw(format, base)
		if err != nil {
			return fmt.Errorf("failed to load baseline snapshot for %s: %w", format.Stem(), err)
		}
		rawTarget, err := source.Raw(format, target)
		if err != nil {
			return fmt.Errorf("failed to load target snapshot for %s: %w", format.Stem(), err)
		}
		diff, err := derive.Compute(rawBase, rawTarget)
		if err != nil {
			return err
		}
		diffs = append(diffs, diff)
	}

	if asJSON {
		data, err := json.MarshalIndent(diffs, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	for _, diff := range diffs {
		printDiff(diff)
	}
	return nil
}

func printDiff(diff *derive.Diff) {
	fmt.Printf("%s: %s to %s\n", diff.Format.Stem(), diff.Base, diff.Target)
	if diff.Empty() {
		fmt.Println("  (no structural changes)")
		return
	}
	for _, name := range diff.AddedSections {
		fmt.Printf("  + section [%s]\n", name)
	}
	for _, name := range diff.RemovedSections {
		fmt.Printf("  - section [%s]\n", name)
	}
	for _, ref := range diff.AddedKeys {
		fmt.Printf("  + key %s\n", ref)
	}
	for _, ref := range diff.RemovedKeys {
		fmt.Printf("  - key %s\n", ref)
	}
}
