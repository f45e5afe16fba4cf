package cli

import (
	"fmt"

	"github.com/remcovanmook/networkd-schema/internal/config"
	"github.com/spf13/cobra"
)

func newVersionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "versions",
		Short: "List the releases tracked by the manifest",
		Long:  "List every systemd release the manifest covers, marking the curated baseline and the newest release.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manifest, err := config.LoadManifestFromFile(manifestPath)
			if err != nil {
				return err
			}
			base := manifest.BaseVersion()
			versions := manifest.VersionList()
			for i, version := range versions {
				marker := ""
				if version == base {
					marker += "  (baseline)"
				}
				if i == len(versions)-1 {
					marker += "  (newest)"
				}
				fmt.Printf("%s%s\n", version, marker)
			}
			return nil
		},
	}
	return cmd
}
