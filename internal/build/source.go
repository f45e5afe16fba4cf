// Package build orchestrates schema derivation across every supported
// (format, release) pair: it loads the inputs the manifest points at, folds
// the release chain into a validity ledger, fans derivations out over a
// bounded worker pool and writes the results with change detection.
package build

import (
	"path/filepath"

	"github.com/remcovanmook/networkd-schema/internal/config"
	"github.com/remcovanmook/networkd-schema/internal/schema"
)

// Source resolves the immutable inputs of a build: per-release raw schemas
// and the curated baseline.
type Source interface {
	Raw(format schema.Format, version schema.Version) (*schema.RawDocument, error)
	CuratedBase(format schema.Format) (*schema.Document, error)
}

// DirSource reads inputs from the directory layout the manifest describes.
type DirSource struct {
	manifest *config.Manifest
}

// NewDirSource returns a Source over the manifest's input trees.
func NewDirSource(manifest *config.Manifest) *DirSource {
	return &DirSource{manifest: manifest}
}

// Raw loads the extracted structural schema for one (format, release) pair.
func (s *DirSource) Raw(format schema.Format, version schema.Version) (*schema.RawDocument, error) {
	path := filepath.Join(s.manifest.RawDir(version), format.RawFileName(version))
	return schema.LoadRawDocument(path, format, version)
}

// CuratedBase loads the hand-authored baseline document for one format.
func (s *DirSource) CuratedBase(format schema.Format) (*schema.Document, error) {
	base := s.manifest.BaseVersion()
	path := filepath.Join(s.manifest.CuratedDir(), format.RawFileName(base))
	return schema.LoadDocument(path, format, base)
}
