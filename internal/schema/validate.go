package schema

import (
	"fmt"
	"regexp"
	"sort"
)

// Issue is one finding from a structural document check.
type Issue struct {
	Path    string
	Message string
}

func (i Issue) String() string {
	return i.Path + ": " + i.Message
}

// Check runs the structural checks on a document and returns every finding.
// An empty slice means the document is well formed.
func Check(doc *Document) []Issue {
	var issues []Issue
	report := func(path, format string, args ...any) {
		issues = append(issues, Issue{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if doc.ID == "" {
		report("$id", "missing $id")
	}
	if doc.Title == "" {
		report("title", "missing title")
	}
	if len(doc.Sections) == 0 {
		report("properties", "document has no sections")
	}

	for _, name := range doc.SectionNames() {
		sec := doc.Sections[name]
		if len(sec.Keys) == 0 {
			report(name, "section has no keys")
		}
		for _, required := range sec.Required {
			if _, ok := sec.Keys[required]; !ok {
				report(name, "required key %q is not defined", required)
			}
		}
		keyNames := make([]string, 0, len(sec.Keys))
		for keyName := range sec.Keys {
			keyNames = append(keyNames, keyName)
		}
		sort.Strings(keyNames)
		for _, keyName := range keyNames {
			checkKey(name+"."+keyName, doc, sec.Keys[keyName], report)
		}
	}
	return issues
}

func checkKey(path string, doc *Document, key *KeyDefinition, report func(string, string, ...any)) {
	if key.Ref != "" {
		if _, ok := doc.Definitions[key.Ref]; !ok {
			report(path, "$ref points to undefined definition %q", key.Ref)
		}
		if key.Kind != "" {
			report(path, "$ref combined with type %q", key.Kind)
		}
	}
	if key.Kind == KindEnum && len(key.Constraints.Enum) == 0 {
		report(path, "enum key has no values")
	}
	if key.Kind != KindEnum && len(key.Constraints.Enum) > 0 {
		report(path, "enum values on non-enum key of type %q", key.Kind)
	}
	if key.Constraints.Pattern != "" {
		if _, err := regexp.Compile(key.Constraints.Pattern); err != nil {
			report(path, "pattern does not compile: %v", err)
		}
	}
	if key.Constraints.Minimum != nil && key.Constraints.Maximum != nil &&
		*key.Constraints.Minimum > *key.Constraints.Maximum {
		report(path, "minimum %d exceeds maximum %d", *key.Constraints.Minimum, *key.Constraints.Maximum)
	}
	if key.Since != "" && key.Until != "" && key.Since.Compare(key.Until) >= 0 {
		report(path, "version_added %s is not before version_removed %s", key.Since, key.Until)
	}
}
