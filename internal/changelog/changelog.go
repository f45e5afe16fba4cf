// Package changelog compares derived schema documents of two releases and
// reports the option-level changes between them: additions, removals and
// newly deprecated options.
package changelog

import (
	"encoding/json"
	"sort"

	"github.com/remcovanmook/networkd-schema/internal/schema"
)

// FormatChanges lists the changed options of one format, each named as
// "Section.Option".
type FormatChanges struct {
	Format     schema.Format
	Added      []string
	Removed    []string
	Deprecated []string
}

// Empty reports whether the format saw no changes.
func (c FormatChanges) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0 && len(c.Deprecated) == 0
}

// Report holds the changes between two releases across all formats.
type Report struct {
	From    schema.Version
	To      schema.Version
	Formats []FormatChanges
}

// Empty reports whether no format changed at all.
func (r *Report) Empty() bool {
	for i := range r.Formats {
		if !r.Formats[i].Empty() {
			return false
		}
	}
	return true
}

// Flatten reduces a document to a flat "Section.Option" mapping. A nil
// document flattens to nothing, which is how a format absent from one
// release is represented.
func Flatten(doc *schema.Document) map[string]*schema.KeyDefinition {
	options := make(map[string]*schema.KeyDefinition)
	if doc == nil {
		return options
	}
	for section, sec := range doc.Sections {
		for key, def := range sec.Keys {
			options[section+"."+key] = def
		}
	}
	return options
}

// Compare builds the change report between two releases. The maps may omit
// formats whose documents could not be loaded; a format missing on one side
// is treated as empty there, and one missing on both sides is skipped.
func Compare(prev, curr map[schema.Format]*schema.Document, from, to schema.Version) *Report {
	report := &Report{From: from, To: to}
	for _, format := range schema.Formats() {
		prevDoc, prevOK := prev[format]
		currDoc, currOK := curr[format]
		if !prevOK && !currOK {
			continue
		}
		changes := FormatChanges{Format: format}
		prevOpts := Flatten(prevDoc)
		currOpts := Flatten(currDoc)

		names := make(map[string]bool, len(prevOpts)+len(currOpts))
		for name := range prevOpts {
			names[name] = true
		}
		for name := range currOpts {
			names[name] = true
		}
		sorted := make([]string, 0, len(names))
		for name := range names {
			sorted = append(sorted, name)
		}
		sort.Strings(sorted)

		for _, name := range sorted {
			prevDef, inPrev := prevOpts[name]
			currDef, inCurr := currOpts[name]
			switch {
			case !inPrev:
				changes.Added = append(changes.Added, name)
			case !inCurr:
				changes.Removed = append(changes.Removed, name)
			case isDeprecated(currDoc, currDef) && !isDeprecated(prevDoc, prevDef):
				changes.Deprecated = append(changes.Deprecated, name)
			}
		}
		report.Formats = append(report.Formats, changes)
	}
	return report
}

// isDeprecated reports whether a key is deprecated, following its $ref into
// the shared definitions so a deprecated type marks every key using it.
func isDeprecated(doc *schema.Document, def *schema.KeyDefinition) bool {
	if def.Deprecated {
		return true
	}
	if def.Ref == "" || doc == nil {
		return false
	}
	return definitionDeprecated(doc, def.Ref, make(map[string]bool))
}

func definitionDeprecated(doc *schema.Document, name string, visited map[string]bool) bool {
	if visited[name] {
		return false
	}
	visited[name] = true
	raw, ok := doc.Definitions[name]
	if !ok {
		return false
	}
	var node struct {
		Deprecated bool   `json:"deprecated"`
		Ref        string `json:"$ref"`
	}
	if err := json.Unmarshal(raw, &node); err != nil {
		return false
	}
	if node.Deprecated {
		return true
	}
	if node.Ref != "" {
		return definitionDeprecated(doc, refTail(node.Ref), visited)
	}
	return false
}

func refTail(ref string) string {
	for i := len(ref) - 1; i >= 0; i-- {
		if ref[i] == '/' {
			return ref[i+1:]
		}
	}
	return ref
}
