// Package schema models the networkd option-set documents the build pipeline
// produces and consumes: minimal "raw" structure snapshots extracted per
// release, and rich curated documents with types, constraints and versioning
// metadata. Documents are persisted as JSON Schema draft-07 files.
package schema

import (
	"encoding/json"
	"sort"
)

// Draft07 is the JSON Schema dialect every document declares.
const Draft07 = "http://json-schema.org/draft-07/schema#"

// Kind is the value kind of a configuration key.
type Kind string

const (
	KindBoolean Kind = "boolean"
	KindInteger Kind = "integer"
	KindString  Kind = "string"
	KindEnum    Kind = "enum"
)

// Constraints restricts the values a key accepts. Only meaningful on curated
// definitions; raw documents carry no constraints.
type Constraints struct {
	Pattern string
	Minimum *int64
	Maximum *int64
	Enum    []string
}

// Empty reports whether no constraint is set.
func (c Constraints) Empty() bool {
	return c.Pattern == "" && c.Minimum == nil && c.Maximum == nil && len(c.Enum) == 0
}

func (c Constraints) clone() Constraints {
	out := c
	if c.Minimum != nil {
		v := *c.Minimum
		out.Minimum = &v
	}
	if c.Maximum != nil {
		v := *c.Maximum
		out.Maximum = &v
	}
	out.Enum = append([]string(nil), c.Enum...)
	return out
}

// KeyDefinition describes one configuration key within a section. For list
// keys (List true) the Kind, Ref and Constraints describe the element.
type KeyDefinition struct {
	Kind        Kind
	List        bool
	Ref         string // named definition reference, exclusive with Kind details
	Constraints Constraints
	Default     any
	Description string
	Title       string
	Format      string // semantic format hint (ipv4, ipv6, uri-reference, ...)
	Examples    []string

	// Since and Until bound the validity interval. Until is exclusive: a key
	// with Until = vX is absent from vX onward.
	Since Version
	Until Version

	// Documentation points at the upstream man page for the release the
	// containing document describes.
	Documentation string

	Deprecated      bool
	DeprecatedAlias string // current name of a renamed option, hand-curated
	Category        string

	// Curated is false for definitions synthesized during derivation, where
	// no hand-authored metadata exists. Serialized only when false.
	Curated bool

	// Extra preserves hand-authored schema keywords the model does not
	// interpret, so curated files round-trip losslessly.
	Extra map[string]json.RawMessage
}

// Clone returns a deep copy of the definition.
func (k *KeyDefinition) Clone() *KeyDefinition {
	out := *k
	out.Constraints = k.Constraints.clone()
	out.Examples = append([]string(nil), k.Examples...)
	if k.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(k.Extra))
		for name, raw := range k.Extra {
			out.Extra[name] = append(json.RawMessage(nil), raw...)
		}
	}
	return &out
}

// Section is one [Section] block of a configuration format.
type Section struct {
	// Repeatable marks sections that may appear multiple times in one file
	// (e.g. [Address]) as opposed to singletons (e.g. [Match]).
	Repeatable  bool
	Description string
	Required    []string
	Keys        map[string]*KeyDefinition
}

// Clone returns a deep copy of the section.
func (s *Section) Clone() *Section {
	out := &Section{
		Repeatable:  s.Repeatable,
		Description: s.Description,
		Required:    append([]string(nil), s.Required...),
		Keys:        make(map[string]*KeyDefinition, len(s.Keys)),
	}
	for name, key := range s.Keys {
		out.Keys[name] = key.Clone()
	}
	return out
}

// KeyNames returns the section's key names sorted lexicographically.
func (s *Section) KeyNames() []string {
	names := make([]string, 0, len(s.Keys))
	for name := range s.Keys {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Provenance records how a derived document was produced.
type Provenance struct {
	BaseVersion   Version `json:"baseVersion"`
	TargetVersion Version `json:"targetVersion"`
}

// Document is a curated schema document for one (format, release) pair.
type Document struct {
	Format  Format
	Version Version
	ID      string
	Title   string

	// GeneratedFrom is nil on the hand-authored baseline and set on every
	// derived document.
	GeneratedFrom *Provenance

	// Definitions carries the shared type definitions ($ref targets) of the
	// curated baseline. Derivation copies them through untouched, so they are
	// kept as raw JSON rather than modeled.
	Definitions map[string]json.RawMessage

	Sections map[string]*Section
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	out := &Document{
		Format:  d.Format,
		Version: d.Version,
		ID:      d.ID,
		Title:   d.Title,
	}
	if d.GeneratedFrom != nil {
		p := *d.GeneratedFrom
		out.GeneratedFrom = &p
	}
	if d.Definitions != nil {
		out.Definitions = make(map[string]json.RawMessage, len(d.Definitions))
		for name, raw := range d.Definitions {
			out.Definitions[name] = append(json.RawMessage(nil), raw...)
		}
	}
	out.Sections = make(map[string]*Section, len(d.Sections))
	for name, sec := range d.Sections {
		out.Sections[name] = sec.Clone()
	}
	return out
}

// SectionNames returns the document's section names sorted lexicographically.
func (d *Document) SectionNames() []string {
	names := make([]string, 0, len(d.Sections))
	for name := range d.Sections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Structure reduces the document to its raw structural view, used to check
// parity between a derived document and the release's raw schema.
func (d *Document) Structure() *RawDocument {
	raw := &RawDocument{
		Format:   d.Format,
		Version:  d.Version,
		Sections: make(map[string]*RawSection, len(d.Sections)),
	}
	for name, sec := range d.Sections {
		rs := &RawSection{
			Repeatable: sec.Repeatable,
			Keys:       make(map[string]struct{}, len(sec.Keys)),
		}
		for key := range sec.Keys {
			rs.Keys[key] = struct{}{}
		}
		raw.Sections[name] = rs
	}
	return raw
}
