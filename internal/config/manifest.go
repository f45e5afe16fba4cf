// Package config models the build manifest that drives schema generation:
// which releases exist, which release is the curated baseline, where the
// inputs and outputs live.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/remcovanmook/networkd-schema/internal/schema"
)

// DefaultManifestFile is the manifest name looked up in the working
// directory when no path is given.
const DefaultManifestFile = "manifest.yaml"

// Manifest represents the build manifest structure.
type Manifest struct {
	APIVersion string   `yaml:"apiVersion"`
	Kind       string   `yaml:"kind"`
	Metadata   Metadata `yaml:"metadata"`
	Spec       Spec     `yaml:"spec"`
}

// Metadata contains basic metadata about the schema set.
type Metadata struct {
	Name string `yaml:"name"`
}

// Spec contains the main build specification.
type Spec struct {
	// BaseVersion is the hand-curated baseline release.
	BaseVersion string `yaml:"baseVersion"`
	// Versions lists every supported release, in any order.
	Versions []string `yaml:"versions"`
	// Formats restricts the build to a subset of file formats; empty means
	// all of them.
	Formats []string `yaml:"formats,omitempty"`
	Paths   Paths    `yaml:"paths"`
	// IDBase is the URL root under which published schemas are reachable,
	// used to stamp each document's $id.
	IDBase string `yaml:"idBase"`
}

// Paths locates the directory trees the build reads and writes.
type Paths struct {
	// Raw holds the extracted per-release structural schemas,
	// <raw>/<version>/<stem>.<version>.schema.json.
	Raw string `yaml:"raw"`
	// Curated holds the hand-authored baseline,
	// <curated>/<version>/<stem>.<version>.schema.json.
	Curated string `yaml:"curated"`
	// Output receives the derived documents,
	// <output>/<version>/<stem>.schema.json.
	Output string `yaml:"output"`
}

// Default returns the manifest matching the published systemd-networkd
// schema set.
func Default() *Manifest {
	versions := make([]string, 0, 23)
	for n := 237; n <= 259; n++ {
		versions = append(versions, fmt.Sprintf("v%d", n))
	}
	return &Manifest{
		APIVersion: "networkd-schema/v1alpha1",
		Kind:       "BuildManifest",
		Metadata:   Metadata{Name: "networkd-schema"},
		Spec: Spec{
			BaseVersion: "v257",
			Versions:    versions,
			Paths: Paths{
				Raw:     "src/original",
				Curated: "curated",
				Output:  "schemas",
			},
			IDBase: "https://raw.githubusercontent.com/remcovanmook/networkd-schema/main/schemas",
		},
	}
}

// ParseManifest parses a YAML byte slice into a Manifest struct.
func ParseManifest(data []byte) (*Manifest, error) {
	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest YAML: %w", err)
	}
	if err := manifest.Validate(); err != nil {
		return nil, err
	}
	return &manifest, nil
}

// LoadManifestFromFile loads and parses a build manifest from a file.
func LoadManifestFromFile(filename string) (*Manifest, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return ParseManifest(data)
}

// LoadManifestFromReader loads and parses a build manifest from an io.Reader.
func LoadManifestFromReader(reader io.Reader) (*Manifest, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read from reader: %w", err)
	}
	return ParseManifest(data)
}

// ToYAML converts a Manifest struct back to YAML format.
func (m *Manifest) ToYAML() ([]byte, error) {
	return yaml.Marshal(m)
}

// Validate checks the manifest for consistency and normalizes version
// tokens to their canonical v-prefixed spelling.
func (m *Manifest) Validate() error {
	if m.Kind != "" && m.Kind != "BuildManifest" {
		return fmt.Errorf("unsupported manifest kind %q", m.Kind)
	}
	if m.Spec.BaseVersion == "" {
		return fmt.Errorf("manifest is missing spec.baseVersion")
	}
	base, err := schema.ParseVersion(m.Spec.BaseVersion)
	if err != nil {
		return fmt.Errorf("invalid spec.baseVersion: %w", err)
	}
	m.Spec.BaseVersion = string(base)

	if len(m.Spec.Versions) == 0 {
		return fmt.Errorf("manifest lists no versions")
	}
	seen := make(map[string]bool, len(m.Spec.Versions))
	baseListed := false
	for i, raw := range m.Spec.Versions {
		version, err := schema.ParseVersion(raw)
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", raw, err)
		}
		if seen[string(version)] {
			return fmt.Errorf("version %s listed twice", version)
		}
		seen[string(version)] = true
		m.Spec.Versions[i] = string(version)
		if version == base {
			baseListed = true
		}
	}
	if !baseListed {
		return fmt.Errorf("baseVersion %s is not in the versions list", base)
	}

	for _, raw := range m.Spec.Formats {
		if _, err := schema.ParseFormat(raw); err != nil {
			return err
		}
	}

	if m.Spec.Paths.Raw == "" || m.Spec.Paths.Curated == "" || m.Spec.Paths.Output == "" {
		return fmt.Errorf("manifest paths must all be set (raw, curated, output)")
	}
	return nil
}

// BaseVersion returns the parsed baseline release. Call Validate first.
func (m *Manifest) BaseVersion() schema.Version {
	return schema.Version(m.Spec.BaseVersion)
}

// VersionList returns the supported releases sorted ascending.
func (m *Manifest) VersionList() []schema.Version {
	versions := make([]schema.Version, len(m.Spec.Versions))
	for i, v := range m.Spec.Versions {
		versions[i] = schema.Version(v)
	}
	schema.SortVersions(versions)
	return versions
}

// FormatList returns the formats the build covers, in build order.
func (m *Manifest) FormatList() []schema.Format {
	if len(m.Spec.Formats) == 0 {
		return schema.Formats()
	}
	formats := make([]schema.Format, 0, len(m.Spec.Formats))
	for _, raw := range m.Spec.Formats {
		format, err := schema.ParseFormat(raw)
		if err != nil {
			continue
		}
		formats = append(formats, format)
	}
	return formats
}

// RawDir returns the directory holding one release's extracted schemas.
func (m *Manifest) RawDir(version schema.Version) string {
	return filepath.Join(m.Spec.Paths.Raw, string(version))
}

// CuratedDir returns the directory holding the curated baseline files.
func (m *Manifest) CuratedDir() string {
	return filepath.Join(m.Spec.Paths.Curated, m.Spec.BaseVersion)
}

// OutputDir returns the directory receiving one release's derived schemas.
func (m *Manifest) OutputDir(version schema.Version) string {
	return filepath.Join(m.Spec.Paths.Output, string(version))
}
