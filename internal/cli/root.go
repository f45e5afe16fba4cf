package cli

import (
	"os"

	"github.com/remcovanmook/networkd-schema/internal/config"
	"github.com/spf13/cobra"
)

var manifestPath string

var rootCmd = &cobra.Command{
	Use:   "schemactl",
	Short: "Schema toolchain for the networkd configuration formats",
	Long:  "schemactl: takes a manifest.yaml and maintains versioned JSON Schema documents for the systemd-networkd configuration file formats.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&manifestPath, "manifest", "m", config.DefaultManifestFile, "Path to manifest.yaml")
	rootCmd.AddCommand(newBuildCmd())
	rootCmd.AddCommand(newDiffCmd())
	rootCmd.AddCommand(newChangelogCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newConvertCmd())
	rootCmd.AddCommand(newVersionsCmd())
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newPromoteCmd())
}
