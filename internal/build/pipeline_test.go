package build

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/remcovanmook/networkd-schema/internal/config"
	"github.com/remcovanmook/networkd-schema/internal/nserrors"
	"github.com/remcovanmook/networkd-schema/internal/schema"
)

type memSource struct {
	curated map[schema.Format]*schema.Document
	raws    map[schema.Format]map[schema.Version]*schema.RawDocument
}

func (s *memSource) Raw(format schema.Format, version schema.Version) (*schema.RawDocument, error) {
	raw, ok := s.raws[format][version]
	if !ok {
		return nil, nserrors.Newf(nserrors.KindInputUnavailable, "no raw %s %s", format.Stem(), version)
	}
	return raw, nil
}

func (s *memSource) CuratedBase(format schema.Format) (*schema.Document, error) {
	doc, ok := s.curated[format]
	if !ok {
		return nil, nserrors.Newf(nserrors.KindInputUnavailable, "no curated base for %s", format.Stem())
	}
	return doc, nil
}

func rawDoc(format schema.Format, version schema.Version, sections map[string][]string) *schema.RawDocument {
	doc := &schema.RawDocument{
		Format:   format,
		Version:  version,
		Sections: make(map[string]*schema.RawSection, len(sections)),
	}
	for name, keys := range sections {
		sec := &schema.RawSection{Keys: make(map[string]struct{}, len(keys))}
		for _, key := range keys {
			sec.Keys[key] = struct{}{}
		}
		doc.Sections[name] = sec
	}
	return doc
}

func testManifest(t *testing.T, outputDir string) *config.Manifest {
	t.Helper()
	manifest := &config.Manifest{
		Kind: "BuildManifest",
		Spec: config.Spec{
			BaseVersion: "v1",
			Versions:    []string{"v1", "v2", "v3"},
			Formats:     []string{"network"},
			Paths: config.Paths{
				Raw:     "src/original",
				Curated: "curated",
				Output:  outputDir,
			},
			IDBase: "https://example.org/schemas",
		},
	}
	if err := manifest.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return manifest
}

func testSource() *memSource {
	curated := &schema.Document{
		Format:  schema.FormatNetwork,
		Version: "v1",
		ID:      "https://example.org/schemas/v1/systemd.network.schema.json",
		Title:   "Systemd network Configuration (v1)",
		Sections: map[string]*schema.Section{
			"Network": {Keys: map[string]*schema.KeyDefinition{
				"DHCP": {
					Kind:        schema.KindEnum,
					Constraints: schema.Constraints{Enum: []string{"yes", "no"}},
					Description: "Enables DHCP support.",
					Curated:     true,
				},
			}},
		},
	}
	return &memSource{
		curated: map[schema.Format]*schema.Document{schema.FormatNetwork: curated},
		raws: map[schema.Format]map[schema.Version]*schema.RawDocument{
			schema.FormatNetwork: {
				"v1": rawDoc(schema.FormatNetwork, "v1", map[string][]string{"Network": {"DHCP"}}),
				"v2": rawDoc(schema.FormatNetwork, "v2", map[string][]string{"Network": {"DHCP", "Mid"}}),
				"v3": rawDoc(schema.FormatNetwork, "v3", map[string][]string{"Network": {"DHCP", "Mid"}}),
			},
		},
	}
}

func TestRunDerivesAllVersions(t *testing.T) {
	dir := t.TempDir()
	manifest := testManifest(t, filepath.Join(dir, "schemas"))
	source := testSource()

	var progress bytes.Buffer
	summary, err := Run(manifest, source, Options{Progress: &progress})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(summary.Failures()) != 0 {
		t.Fatalf("failures: %v", summary.Failures())
	}
	if summary.Written() != 3 {
		t.Errorf("Written = %d, want 3", summary.Written())
	}
	for _, version := range []schema.Version{"v1", "v2", "v3"} {
		path := filepath.Join(manifest.OutputDir(version), "systemd.network.schema.json")
		if _, err := os.Stat(path); err != nil {
			t.Errorf("output for %s missing: %v", version, err)
		}
	}

	derived, err := schema.LoadDocument(
		filepath.Join(manifest.OutputDir("v3"), "systemd.network.schema.json"),
		schema.FormatNetwork, "v3")
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	mid := derived.Sections["Network"].Keys["Mid"]
	if mid == nil {
		t.Fatal("derived v3 is missing the Mid key")
	}
	if mid.Curated {
		t.Error("Mid marked curated")
	}
	if mid.Since != "v2" {
		t.Errorf("Mid since = %q, want v2 (first seen across the chain)", mid.Since)
	}
	if derived.ID != "https://example.org/schemas/v3/systemd.network.schema.json" {
		t.Errorf("derived $id = %q", derived.ID)
	}
	if derived.GeneratedFrom == nil || derived.GeneratedFrom.BaseVersion != "v1" {
		t.Errorf("GeneratedFrom = %+v", derived.GeneratedFrom)
	}

	// The baseline output carries no provenance and keeps its curated
	// content, with the $id restamped to the published URL.
	base, err := schema.LoadDocument(
		filepath.Join(manifest.OutputDir("v1"), "systemd.network.schema.json"),
		schema.FormatNetwork, "v1")
	if err != nil {
		t.Fatalf("LoadDocument base: %v", err)
	}
	if base.GeneratedFrom != nil {
		t.Errorf("baseline GeneratedFrom = %+v", base.GeneratedFrom)
	}
	if !strings.Contains(progress.String(), "systemd.network v2") {
		t.Errorf("progress output missing per-pair lines:\n%s", progress.String())
	}
}

func TestRunIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	manifest := testManifest(t, filepath.Join(dir, "schemas"))
	source := testSource()

	if _, err := Run(manifest, source, Options{}); err != nil {
		t.Fatalf("first run: %v", err)
	}
	summary, err := Run(manifest, source, Options{})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if summary.Written() != 0 {
		t.Errorf("second run wrote %d files, want 0", summary.Written())
	}
	if summary.Unchanged() != 3 {
		t.Errorf("second run reports %d unchanged, want 3", summary.Unchanged())
	}

	forced, err := Run(manifest, source, Options{Force: true})
	if err != nil {
		t.Fatalf("forced run: %v", err)
	}
	if forced.Written() != 3 {
		t.Errorf("forced run wrote %d files, want 3", forced.Written())
	}
}

func TestRunFormatIsolation(t *testing.T) {
	dir := t.TempDir()
	manifest := testManifest(t, filepath.Join(dir, "schemas"))
	manifest.Spec.Formats = []string{"network", "link"}
	source := testSource() // no link inputs at all

	summary, err := Run(manifest, source, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	failures := summary.Failures()
	if len(failures) != 1 {
		t.Fatalf("failures = %v, want exactly one", failures)
	}
	if failures[0].Format != schema.FormatLink {
		t.Errorf("failed format = %s", failures[0].Format)
	}
	if !nserrors.Is(failures[0].Err, nserrors.KindInputUnavailable) {
		t.Errorf("failure kind = %q", nserrors.KindOf(failures[0].Err))
	}
	// The healthy format still produced all three outputs.
	okCount := 0
	for _, r := range summary.Results {
		if r.Format == schema.FormatNetwork && r.Err == nil {
			okCount++
		}
	}
	if okCount != 3 {
		t.Errorf("network pairs built = %d, want 3", okCount)
	}
}

func TestRunVersionSubset(t *testing.T) {
	dir := t.TempDir()
	manifest := testManifest(t, filepath.Join(dir, "schemas"))
	source := testSource()

	summary, err := Run(manifest, source, Options{Versions: []schema.Version{"v3"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(summary.Results) != 1 {
		t.Fatalf("results = %v, want one", summary.Results)
	}
	if _, err := os.Stat(filepath.Join(manifest.OutputDir("v2"), "systemd.network.schema.json")); !os.IsNotExist(err) {
		t.Error("subset build wrote an unselected version")
	}
	// Ledger accuracy must not depend on the selection.
	derived, err := schema.LoadDocument(
		filepath.Join(manifest.OutputDir("v3"), "systemd.network.schema.json"),
		schema.FormatNetwork, "v3")
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	if since := derived.Sections["Network"].Keys["Mid"].Since; since != "v2" {
		t.Errorf("Mid since = %q, want v2", since)
	}

	if _, err := Run(manifest, source, Options{Versions: []schema.Version{"v9"}}); err == nil {
		t.Error("unknown version accepted")
	}
}

func TestRunParallelMatchesSerial(t *testing.T) {
	dir := t.TempDir()
	serialManifest := testManifest(t, filepath.Join(dir, "serial"))
	parallelManifest := testManifest(t, filepath.Join(dir, "parallel"))
	source := testSource()

	if _, err := Run(serialManifest, source, Options{Jobs: 1}); err != nil {
		t.Fatalf("serial run: %v", err)
	}
	if _, err := Run(parallelManifest, source, Options{Jobs: 4}); err != nil {
		t.Fatalf("parallel run: %v", err)
	}

	for _, version := range []schema.Version{"v1", "v2", "v3"} {
		serial, err := os.ReadFile(filepath.Join(serialManifest.OutputDir(version), "systemd.network.schema.json"))
		if err != nil {
			t.Fatalf("read serial output: %v", err)
		}
		parallel, err := os.ReadFile(filepath.Join(parallelManifest.OutputDir(version), "systemd.network.schema.json"))
		if err != nil {
			t.Fatalf("read parallel output: %v", err)
		}
		if !bytes.Equal(serial, parallel) {
			t.Errorf("outputs for %s differ between jobs=1 and jobs=4", version)
		}
	}
}
