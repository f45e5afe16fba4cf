package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/remcovanmook/networkd-schema/internal/nserrors"
)

// The on-disk form is a JSON Schema draft-07 document: one property per
// section, repeatable sections wrapped in oneOf [array-of-object, object],
// shared type definitions under "definitions". Marshaling goes through
// map[string]any so encoding/json emits every object with lexicographically
// sorted keys, which is the canonical form the serializer guarantees.

// MarshalJSON renders the document in its wire form.
func (d *Document) MarshalJSON() ([]byte, error) {
	root := map[string]any{
		"$schema":              Draft07,
		"type":                 "object",
		"additionalProperties": false,
	}
	if d.ID != "" {
		root["$id"] = d.ID
	}
	if d.Title != "" {
		root["title"] = d.Title
	}
	if d.GeneratedFrom != nil {
		root["x-generated-from"] = d.GeneratedFrom
	}
	if len(d.Definitions) > 0 {
		defs := make(map[string]json.RawMessage, len(d.Definitions))
		for name, raw := range d.Definitions {
			defs[name] = raw
		}
		root["definitions"] = defs
	}
	props := make(map[string]any, len(d.Sections))
	for name, sec := range d.Sections {
		props[name] = sectionNode(name, sec)
	}
	root["properties"] = props
	return json.Marshal(root)
}

func sectionNode(name string, sec *Section) map[string]any {
	inner := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
	}
	props := make(map[string]any, len(sec.Keys))
	for keyName, key := range sec.Keys {
		props[keyName] = keyNode(key)
	}
	inner["properties"] = props
	if len(sec.Required) > 0 {
		required := append([]string(nil), sec.Required...)
		sort.Strings(required)
		inner["required"] = required
	}
	if !sec.Repeatable {
		if sec.Description != "" {
			inner["description"] = sec.Description
		}
		return inner
	}
	wrapper := map[string]any{
		"oneOf": []any{
			map[string]any{"type": "array", "items": inner},
			inner,
		},
	}
	if sec.Description != "" {
		wrapper["description"] = sec.Description
	}
	return wrapper
}

func keyNode(key *KeyDefinition) map[string]any {
	item := make(map[string]any)
	switch {
	case key.Ref != "":
		item["$ref"] = "#/definitions/" + key.Ref
	case key.Kind == KindEnum:
		item["type"] = "string"
		if len(key.Constraints.Enum) > 0 {
			item["enum"] = key.Constraints.Enum
		}
	case key.Kind != "":
		item["type"] = string(key.Kind)
	default:
		item["type"] = "string"
	}
	if key.Constraints.Pattern != "" {
		item["pattern"] = key.Constraints.Pattern
	}
	if key.Constraints.Minimum != nil {
		item["minimum"] = *key.Constraints.Minimum
	}
	if key.Constraints.Maximum != nil {
		item["maximum"] = *key.Constraints.Maximum
	}
	if key.Format != "" {
		item["format"] = key.Format
	}
	if key.Default != nil {
		item["default"] = key.Default
	}

	ann := make(map[string]any)
	if key.Description != "" {
		ann["description"] = key.Description
	}
	if key.Title != "" {
		ann["title"] = key.Title
	}
	if len(key.Examples) > 0 {
		ann["examples"] = key.Examples
	}
	if key.Since != "" {
		ann["version_added"] = string(key.Since)
	}
	if key.Until != "" {
		ann["version_removed"] = string(key.Until)
	}
	if key.Documentation != "" {
		ann["documentation"] = key.Documentation
	}
	if key.Deprecated {
		ann["deprecated"] = true
	}
	if key.DeprecatedAlias != "" {
		ann["x-deprecated-alias"] = key.DeprecatedAlias
	}
	if key.Category != "" {
		ann["x-category"] = key.Category
	}
	if !key.Curated {
		ann["x-curated"] = false
	}
	for name, raw := range key.Extra {
		ann[name] = raw
	}

	// Lists annotate the array node; a ref with annotations moves into an
	// allOf wrapper, the draft-07 convention the curated files use; plain
	// nodes take their annotations inline.
	var node map[string]any
	switch {
	case key.List:
		node = map[string]any{"type": "array", "items": item}
	case key.Ref != "" && len(ann) > 0:
		node = map[string]any{"allOf": []any{item}}
	default:
		node = item
	}
	for name, value := range ann {
		node[name] = value
	}
	return node
}

// EncodeDocument renders the canonical textual form: two-space indented JSON
// with sorted object keys and a trailing newline.
func EncodeDocument(d *Document) ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode %s %s: %w", d.Format.Stem(), d.Version, err)
	}
	return append(data, '\n'), nil
}

// DecodeDocument parses the wire form of a curated document. Format and
// version come from the caller, which knows them from the file layout.
func DecodeDocument(data []byte, format Format, version Version) (*Document, error) {
	var wire struct {
		ID            string                     `json:"$id"`
		Title         string                     `json:"title"`
		GeneratedFrom *Provenance                `json:"x-generated-from"`
		Definitions   map[string]json.RawMessage `json:"definitions"`
		Properties    map[string]json.RawMessage `json:"properties"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, nserrors.Newf(nserrors.KindParse, "decode %s %s: %v", format.Stem(), version, err)
	}
	doc := &Document{
		Format:        format,
		Version:       version,
		ID:            wire.ID,
		Title:         wire.Title,
		GeneratedFrom: wire.GeneratedFrom,
		Definitions:   wire.Definitions,
		Sections:      make(map[string]*Section, len(wire.Properties)),
	}
	for name, raw := range wire.Properties {
		sec, err := decodeSection(raw)
		if err != nil {
			return nil, nserrors.Newf(nserrors.KindParse, "decode %s %s section %s: %v", format.Stem(), version, name, err)
		}
		doc.Sections[name] = sec
	}
	return doc, nil
}

func decodeSection(raw json.RawMessage) (*Section, error) {
	var node map[string]json.RawMessage
	if err := json.Unmarshal(raw, &node); err != nil {
		return nil, err
	}
	sec := &Section{}
	inner := node
	if oneOfRaw, ok := node["oneOf"]; ok {
		variant, err := unwrapOneOf(oneOfRaw)
		if err != nil {
			return nil, err
		}
		sec.Repeatable = true
		if descRaw, ok := node["description"]; ok {
			_ = json.Unmarshal(descRaw, &sec.Description)
		}
		inner = variant
	}
	if descRaw, ok := inner["description"]; ok && sec.Description == "" {
		_ = json.Unmarshal(descRaw, &sec.Description)
	}
	if reqRaw, ok := inner["required"]; ok {
		if err := json.Unmarshal(reqRaw, &sec.Required); err != nil {
			return nil, fmt.Errorf("required: %w", err)
		}
	}
	propsRaw, ok := inner["properties"]
	if !ok {
		return nil, fmt.Errorf("section has no properties object")
	}
	var props map[string]json.RawMessage
	if err := json.Unmarshal(propsRaw, &props); err != nil {
		return nil, fmt.Errorf("properties: %w", err)
	}
	sec.Keys = make(map[string]*KeyDefinition, len(props))
	for name, keyRaw := range props {
		key, err := decodeKey(keyRaw)
		if err != nil {
			return nil, fmt.Errorf("key %s: %w", name, err)
		}
		sec.Keys[name] = key
	}
	return sec, nil
}

// unwrapOneOf picks the object variant out of a repeatable-section wrapper,
// accepting either the object itself or the array's item schema.
func unwrapOneOf(raw json.RawMessage) (map[string]json.RawMessage, error) {
	var variants []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &variants); err != nil {
		return nil, fmt.Errorf("oneOf: %w", err)
	}
	for _, variant := range variants {
		if _, ok := variant["properties"]; ok {
			return variant, nil
		}
	}
	for _, variant := range variants {
		itemsRaw, ok := variant["items"]
		if !ok {
			continue
		}
		var items map[string]json.RawMessage
		if err := json.Unmarshal(itemsRaw, &items); err != nil {
			continue
		}
		if _, ok := items["properties"]; ok {
			return items, nil
		}
	}
	return nil, fmt.Errorf("oneOf has no object variant with properties")
}

func decodeKey(raw json.RawMessage) (*KeyDefinition, error) {
	var node map[string]json.RawMessage
	if err := json.Unmarshal(raw, &node); err != nil {
		return nil, err
	}
	key := &KeyDefinition{Curated: true}

	// Arrays describe their element under items; everything else annotates
	// the outer node.
	if typ, _ := stringField(node, "type"); typ == "array" {
		key.List = true
		itemsRaw, ok := node["items"]
		if !ok {
			return nil, fmt.Errorf("array key has no items")
		}
		var items map[string]json.RawMessage
		if err := json.Unmarshal(itemsRaw, &items); err != nil {
			return nil, fmt.Errorf("items: %w", err)
		}
		delete(node, "type")
		delete(node, "items")
		decodeKeyType(items, key)
		mergeOuter(items, key)
	} else {
		decodeKeyType(node, key)
	}
	mergeOuter(node, key)
	return key, nil
}

// decodeKeyType consumes the type-bearing keywords of a key or item node.
func decodeKeyType(node map[string]json.RawMessage, key *KeyDefinition) {
	if allOfRaw, ok := node["allOf"]; ok {
		var parts []map[string]json.RawMessage
		if err := json.Unmarshal(allOfRaw, &parts); err == nil && len(parts) == 1 {
			if ref, ok := stringField(parts[0], "$ref"); ok {
				key.Ref = refName(ref)
				delete(node, "allOf")
				for name, raw := range parts[0] {
					if name == "$ref" {
						continue
					}
					if _, taken := node[name]; !taken {
						node[name] = raw
					}
				}
			}
		}
	}
	if ref, ok := stringField(node, "$ref"); ok {
		key.Ref = refName(ref)
		delete(node, "$ref")
	}
	if typ, ok := stringField(node, "type"); ok {
		switch typ {
		case "boolean", "integer", "string":
			key.Kind = Kind(typ)
			delete(node, "type")
		}
	}
	if enumRaw, ok := node["enum"]; ok {
		var enum []string
		if err := json.Unmarshal(enumRaw, &enum); err == nil {
			key.Kind = KindEnum
			key.Constraints.Enum = enum
			delete(node, "enum")
		}
	}
	if pattern, ok := stringField(node, "pattern"); ok {
		key.Constraints.Pattern = pattern
		delete(node, "pattern")
	}
	if v, ok := intField(node, "minimum"); ok {
		key.Constraints.Minimum = v
		delete(node, "minimum")
	}
	if v, ok := intField(node, "maximum"); ok {
		key.Constraints.Maximum = v
		delete(node, "maximum")
	}
	if format, ok := stringField(node, "format"); ok {
		key.Format = format
		delete(node, "format")
	}
	if defRaw, ok := node["default"]; ok {
		var def any
		if err := json.Unmarshal(defRaw, &def); err == nil {
			key.Default = def
			delete(node, "default")
		}
	}
}

// mergeOuter consumes the annotation keywords of a node; whatever remains
// unrecognized is preserved in Extra.
func mergeOuter(node map[string]json.RawMessage, key *KeyDefinition) {
	if desc, ok := stringField(node, "description"); ok {
		key.Description = desc
		delete(node, "description")
	}
	if title, ok := stringField(node, "title"); ok {
		key.Title = title
		delete(node, "title")
	}
	if exRaw, ok := node["examples"]; ok {
		var examples []string
		if err := json.Unmarshal(exRaw, &examples); err == nil {
			key.Examples = examples
			delete(node, "examples")
		}
	}
	if added, ok := stringField(node, "version_added"); ok {
		if v, err := ParseVersion(added); err == nil {
			key.Since = v
			delete(node, "version_added")
		}
	}
	if removed, ok := stringField(node, "version_removed"); ok {
		if v, err := ParseVersion(removed); err == nil {
			key.Until = v
			delete(node, "version_removed")
		}
	}
	if doc, ok := stringField(node, "documentation"); ok {
		key.Documentation = doc
		delete(node, "documentation")
	}
	if depRaw, ok := node["deprecated"]; ok {
		var dep bool
		if err := json.Unmarshal(depRaw, &dep); err == nil {
			key.Deprecated = dep
			delete(node, "deprecated")
		}
	}
	if alias, ok := stringField(node, "x-deprecated-alias"); ok {
		key.DeprecatedAlias = alias
		delete(node, "x-deprecated-alias")
	}
	if cat, ok := stringField(node, "x-category"); ok {
		key.Category = cat
		delete(node, "x-category")
	}
	if curRaw, ok := node["x-curated"]; ok {
		var curated bool
		if err := json.Unmarshal(curRaw, &curated); err == nil {
			key.Curated = curated
			delete(node, "x-curated")
		}
	}
	for name, raw := range node {
		if key.Extra == nil {
			key.Extra = make(map[string]json.RawMessage)
		}
		if _, taken := key.Extra[name]; !taken {
			key.Extra[name] = raw
		}
	}
}

func stringField(node map[string]json.RawMessage, name string) (string, bool) {
	raw, ok := node[name]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func intField(node map[string]json.RawMessage, name string) (*int64, bool) {
	raw, ok := node[name]
	if !ok {
		return nil, false
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, false
	}
	return &n, true
}

func refName(ref string) string {
	return ref[strings.LastIndex(ref, "/")+1:]
}

// DecodeRawDocument reduces a generated draft-07 file to its structural view.
// Definition details, descriptions and types are deliberately ignored; only
// section presence, key presence and repeatability survive.
func DecodeRawDocument(data []byte, format Format, version Version) (*RawDocument, error) {
	var wire struct {
		Properties map[string]json.RawMessage `json:"properties"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, nserrors.Newf(nserrors.KindParse, "decode raw %s %s: %v", format.Stem(), version, err)
	}
	doc := &RawDocument{
		Format:   format,
		Version:  version,
		Sections: make(map[string]*RawSection, len(wire.Properties)),
	}
	for name, raw := range wire.Properties {
		var node map[string]json.RawMessage
		if err := json.Unmarshal(raw, &node); err != nil {
			return nil, nserrors.Newf(nserrors.KindParse, "raw %s %s section %s: %v", format.Stem(), version, name, err)
		}
		sec := &RawSection{Keys: make(map[string]struct{})}
		inner := node
		if oneOfRaw, ok := node["oneOf"]; ok {
			variant, err := unwrapOneOf(oneOfRaw)
			if err != nil {
				return nil, nserrors.Newf(nserrors.KindParse, "raw %s %s section %s: %v", format.Stem(), version, name, err)
			}
			sec.Repeatable = true
			inner = variant
		}
		propsRaw, ok := inner["properties"]
		if !ok {
			return nil, nserrors.Newf(nserrors.KindParse, "raw %s %s section %s has no properties", format.Stem(), version, name)
		}
		var props map[string]json.RawMessage
		if err := json.Unmarshal(propsRaw, &props); err != nil {
			return nil, nserrors.Newf(nserrors.KindParse, "raw %s %s section %s properties: %v", format.Stem(), version, name, err)
		}
		for keyName := range props {
			sec.Keys[keyName] = struct{}{}
		}
		doc.Sections[name] = sec
	}
	if len(doc.Sections) == 0 {
		// An empty extraction must not be mistaken for a release without
		// options; refuse it here so a diff can never report mass removal.
		return nil, nserrors.Newf(nserrors.KindInputUnavailable, "raw %s %s has no sections", format.Stem(), version)
	}
	return doc, nil
}

// LoadDocument reads and decodes a curated document from disk.
func LoadDocument(path string, format Format, version Version) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nserrors.Newf(nserrors.KindInputUnavailable, "read %s: %v", path, err)
	}
	doc, err := DecodeDocument(data, format, version)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// LoadRawDocument reads and structurally decodes a generated schema file.
func LoadRawDocument(path string, format Format, version Version) (*RawDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nserrors.Newf(nserrors.KindInputUnavailable, "read %s: %v", path, err)
	}
	doc, err := DecodeRawDocument(data, format, version)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}
