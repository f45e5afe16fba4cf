package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/remcovanmook/networkd-schema/internal/config"
	"github.com/remcovanmook/networkd-schema/internal/iniconv"
	"github.com/remcovanmook/networkd-schema/internal/schema"
	"github.com/spf13/cobra"
)

func newConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert between networkd INI files and their JSON form",
		Long:  "Convert between the networkd INI convention and structured JSON, using a derived schema document as the typing contract.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newConvertINIToJSONCmd())
	cmd.AddCommand(newConvertJSONToINICmd())

	return cmd
}

func newConvertINIToJSONCmd() *cobra.Command {
	var (
		schemaVersion string
		formatName    string
		output        string
	)

	cmd := &cobra.Command{
		Use:   "ini2json <file>",
		Short: "Convert a networkd INI file to JSON",
		Long: `Convert a networkd INI file to structured JSON.

The matching derived schema supplies value kinds: boolean options coerce the
daemon's yes/no tokens, integer options parse decimal, list options always
become arrays. Singleton sections merge into one object, repeatable sections
become arrays and comments survive as metadata keys.

The format type is inferred from the file name unless --type is given.

Examples:
  schemactl convert ini2json eth0.network
  schemactl convert ini2json br0.netdev --version v258
  schemactl convert ini2json eth0.network -o eth0.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manifest, err := config.LoadManifestFromFile(manifestPath)
			if err != nil {
				return err
			}
			return convertINIToJSON(manifest, args[0], schemaVersion, formatName, output)
		},
	}

	cmd.Flags().StringVarP(&schemaVersion, "version", "v", "", "Schema release to type against (default: the manifest baseline)")
	cmd.Flags().StringVar(&formatName, "type", "", "Format type override (network, netdev, link, networkd.conf)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a file instead of stdout")

	return cmd
}

func newConvertJSONToINICmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "json2ini <file>",
		Short: "Convert a JSON configuration back to networkd INI",
		Long: `Convert a structured JSON configuration back to networkd INI text.

Sections follow the conventional ordering (Match first), booleans become
yes/no, arrays repeat their key per element and comment metadata comes back
out as comment lines.

Examples:
  schemactl convert json2ini eth0.json
  schemactl convert json2ini eth0.json -o eth0.network`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return convertJSONToINI(args[0], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a file instead of stdout")

	return cmd
}

func convertINIToJSON(manifest *config.Manifest, file, schemaVersion, formatName, output string) error {
	version := manifest.BaseVersion()
	if schemaVersion != "" {
		parsed, err := schema.ParseVersion(schemaVersion)
		if err != nil {
			return err
		}
		version = parsed
	}

	format, err := formatForFile(file, formatName)
	if err != nil {
		return err
	}

	schemaPath := filepath.Join(manifest.OutputDir(version), format.SchemaFileName())
	doc, err := schema.LoadDocument(schemaPath, format, version)
	if err != nil {
		return fmt.Errorf("failed to load schema for %s %s (run 'schemactl build' first): %w", format.Stem(), version, err)
	}

	content, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", file, err)
	}

	data, err := json.MarshalIndent(iniconv.ToJSON(content, doc), "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	return writeConverted(output, data)
}

func convertJSONToINI(file, output string) error {
	content, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", file, err)
	}

	var data map[string]any
	if err := json.Unmarshal(content, &data); err != nil {
		return fmt.Errorf("failed to parse %s: %w", file, err)
	}

	return writeConverted(output, iniconv.FromJSON(data))
}

// formatForFile resolves the format type from an explicit override, the
// file extension, or the networkd.conf base name.
func formatForFile(file, formatName string) (schema.Format, error) {
	if formatName != "" {
		return schema.ParseFormat(formatName)
	}
	if format, ok := schema.FormatForExtension(filepath.Ext(file)); ok {
		return format, nil
	}
	if filepath.Base(file) == "networkd.conf" {
		return schema.FormatNetworkdConf, nil
	}
	return "", fmt.Errorf("cannot infer format type from %q; use --type", file)
}

func writeConverted(output string, data []byte) error {
	if output == "" {
		fmt.Print(string(data))
		return nil
	}
	if err := os.WriteFile(output, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	fmt.Printf("✓ %s\n", output)
	return nil
}
