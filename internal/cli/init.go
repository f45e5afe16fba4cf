package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/remcovanmook/networkd-schema/internal/config"
	"github.com/remcovanmook/networkd-schema/internal/templates"
	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new schema workspace",
		Long:  "Initialize a new schema workspace by writing a starter manifest.yaml and creating the input and output directory skeleton.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return initWorkspace(dir, name)
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "networkd-schema", "Project name written into the manifest")

	return cmd
}

func initWorkspace(dir, name string) error {
	fmt.Printf("🚀 Initializing schema workspace in '%s'...\n", dir)

	manifestFile := filepath.Join(dir, config.DefaultManifestFile)
	if _, err := os.Stat(manifestFile); err == nil {
		return fmt.Errorf("workspace already initialized (%s found)", manifestFile)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create workspace directory: %w", err)
	}

	manifest := config.Default()
	manifest.Metadata.Name = name

	if err := writeStarterManifest(manifestFile, manifest); err != nil {
		return fmt.Errorf("failed to generate manifest.yaml: %w", err)
	}
	fmt.Printf("✓ Generated %s\n", manifestFile)

	// Directory skeleton: one raw snapshot dir per release, the curated
	// baseline dir and the output root.
	for _, version := range manifest.VersionList() {
		if err := os.MkdirAll(filepath.Join(dir, manifest.RawDir(version)), 0755); err != nil {
			return fmt.Errorf("failed to create raw snapshot directory: %w", err)
		}
	}
	if err := os.MkdirAll(filepath.Join(dir, manifest.CuratedDir()), 0755); err != nil {
		return fmt.Errorf("failed to create curated directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(dir, manifest.Spec.Paths.Output), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	fmt.Printf("✓ Created %s, %s and %s\n", manifest.Spec.Paths.Raw, manifest.CuratedDir(), manifest.Spec.Paths.Output)

	fmt.Println()
	fmt.Println("✨ Workspace initialized successfully!")
	fmt.Println("")
	fmt.Println("Next steps:")
	fmt.Printf("  1. Edit %s to configure releases and paths\n", manifestFile)
	fmt.Printf("  2. Place extracted release snapshots under %s/<version>/\n", manifest.Spec.Paths.Raw)
	fmt.Printf("  3. Place the curated baseline documents in %s/\n", manifest.CuratedDir())
	fmt.Println("  4. Run 'schemactl build' to derive every release!")
	fmt.Println()

	return nil
}

// writeStarterManifest renders the embedded manifest template so the file
// carries the starter layout and comments rather than bare marshaled YAML.
func writeStarterManifest(path string, manifest *config.Manifest) error {
	text, err := templates.GetTemplate("manifest.yaml.tmpl")
	if err != nil {
		return err
	}
	tmpl, err := template.New("manifest").Parse(text)
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return tmpl.Execute(file, manifest)
}
