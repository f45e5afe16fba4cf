package schema

import "sort"

// RawDocument is the structural-only snapshot of one (format, release) pair:
// which sections exist and which keys each holds. It carries none of the
// curated metadata and is produced by the upstream extraction step.
type RawDocument struct {
	Format   Format
	Version  Version
	Sections map[string]*RawSection
}

// RawSection is the structural view of one section.
type RawSection struct {
	Repeatable bool
	Keys       map[string]struct{}
}

// SectionNames returns the section names sorted lexicographically.
func (d *RawDocument) SectionNames() []string {
	names := make([]string, 0, len(d.Sections))
	for name := range d.Sections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// KeyNames returns a section's key names sorted lexicographically, or nil if
// the section does not exist.
func (d *RawDocument) KeyNames(section string) []string {
	sec, ok := d.Sections[section]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(sec.Keys))
	for name := range sec.Keys {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether the document contains the given section and, when key
// is non-empty, the given key within it.
func (d *RawDocument) Has(section, key string) bool {
	sec, ok := d.Sections[section]
	if !ok {
		return false
	}
	if key == "" {
		return true
	}
	_, ok = sec.Keys[key]
	return ok
}

// KeyCount returns the total number of keys across all sections.
func (d *RawDocument) KeyCount() int {
	n := 0
	for _, sec := range d.Sections {
		n += len(sec.Keys)
	}
	return n
}
