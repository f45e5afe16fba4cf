package iniconv

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/remcovanmook/networkd-schema/internal/schema"
)

// sectionOrder is the conventional ordering of sections in a written file;
// anything unlisted follows alphabetically.
var sectionOrder = []string{"Match", "Link", "Network", "Address", "Route", "DHCPServer", "DHCPv4", "DHCPv6"}

// ToJSON converts a parsed configuration to its structured form. The schema
// document supplies value kinds for coercion and decides which sections are
// singletons; multiple blocks of a singleton section merge into one object,
// while blocks of repeatable (or unknown) sections become an array.
func ToJSON(content []byte, doc *schema.Document) map[string]any {
	blocks := ParseINI(content)

	names := make([]string, 0, len(blocks))
	grouped := make(map[string][]*SectionBlock)
	for _, block := range blocks {
		if _, seen := grouped[block.Name]; !seen {
			names = append(names, block.Name)
		}
		grouped[block.Name] = append(grouped[block.Name], block)
	}

	output := make(map[string]any, len(names))
	for _, name := range names {
		var objects []map[string]any
		for _, block := range grouped[name] {
			objects = append(objects, blockToObject(block, name, doc))
		}
		if sec, ok := doc.Sections[name]; ok && !sec.Repeatable {
			output[name] = mergeSingleton(objects)
		} else {
			output[name] = objects
		}
	}
	return output
}

func blockToObject(block *SectionBlock, section string, doc *schema.Document) map[string]any {
	obj := make(map[string]any)
	if len(block.Comments) > 0 {
		obj["_comments"] = block.Comments
	}
	if len(block.PropComments) > 0 {
		obj["_property_comments"] = block.PropComments
	}
	for _, prop := range block.Props {
		kind, isList := effectiveKind(doc, section, prop.Key)
		values := make([]any, len(prop.Values))
		for i, value := range prop.Values {
			values[i] = convertValue(value, kind)
		}
		if len(values) > 1 || isList {
			obj[prop.Key] = values
		} else {
			obj[prop.Key] = values[0]
		}
	}
	return obj
}

func mergeSingleton(objects []map[string]any) map[string]any {
	merged := make(map[string]any)
	var comments []string
	propComments := make(map[string][]string)
	for _, obj := range objects {
		if c, ok := obj["_comments"].([]string); ok {
			comments = append(comments, c...)
		}
		if pc, ok := obj["_property_comments"].(map[string][]string); ok {
			for key, lines := range pc {
				propComments[key] = append(propComments[key], lines...)
			}
		}
		for key, value := range obj {
			if strings.HasPrefix(key, "_") {
				continue
			}
			existing, ok := merged[key]
			if !ok {
				merged[key] = value
				continue
			}
			list, isList := existing.([]any)
			if !isList {
				list = []any{existing}
			}
			merged[key] = append(list, value)
		}
	}
	if len(comments) > 0 {
		merged["_comments"] = comments
	}
	if len(propComments) > 0 {
		merged["_property_comments"] = propComments
	}
	return merged
}

// effectiveKind resolves the value kind of a key, following $ref chains
// into the shared definitions.
func effectiveKind(doc *schema.Document, section, key string) (schema.Kind, bool) {
	sec, ok := doc.Sections[section]
	if !ok {
		return "", false
	}
	def, ok := sec.Keys[key]
	if !ok {
		return "", false
	}
	if def.Ref != "" {
		kind, isArray := definitionKind(doc, def.Ref, make(map[string]bool))
		return kind, def.List || isArray
	}
	return def.Kind, def.List
}

func definitionKind(doc *schema.Document, name string, visited map[string]bool) (schema.Kind, bool) {
	if visited[name] {
		return "", false
	}
	visited[name] = true
	raw, ok := doc.Definitions[name]
	if !ok {
		return "", false
	}
	var node struct {
		Type  string            `json:"type"`
		Ref   string            `json:"$ref"`
		AllOf []json.RawMessage `json:"allOf"`
		Items *struct {
			Type string `json:"type"`
			Ref  string `json:"$ref"`
		} `json:"items"`
	}
	if err := json.Unmarshal(raw, &node); err != nil {
		return "", false
	}
	if node.Ref != "" {
		return definitionKind(doc, refTail(node.Ref), visited)
	}
	if len(node.AllOf) > 0 {
		var first struct {
			Ref string `json:"$ref"`
		}
		if err := json.Unmarshal(node.AllOf[0], &first); err == nil && first.Ref != "" {
			return definitionKind(doc, refTail(first.Ref), visited)
		}
	}
	if node.Type == "array" {
		if node.Items != nil {
			if node.Items.Ref != "" {
				kind, _ := definitionKind(doc, refTail(node.Items.Ref), visited)
				return kind, true
			}
			return kindForType(node.Items.Type), true
		}
		return "", true
	}
	return kindForType(node.Type), false
}

func kindForType(typ string) schema.Kind {
	switch typ {
	case "boolean", "integer", "string":
		return schema.Kind(typ)
	}
	return ""
}

func refTail(ref string) string {
	return ref[strings.LastIndex(ref, "/")+1:]
}

// convertValue coerces one textual value following the INI convention:
// boolean keys accept the daemon's truthy and falsy tokens, integer keys
// parse decimal. Anything unparseable stays a string.
func convertValue(value string, kind schema.Kind) any {
	switch kind {
	case schema.KindBoolean:
		switch strings.ToLower(value) {
		case "1", "yes", "true", "on":
			return true
		case "0", "no", "false", "off":
			return false
		}
		return value
	case schema.KindInteger:
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
		return value
	default:
		return value
	}
}

// FromJSON renders the structured form back to configuration text.
// Sections follow the conventional order, keys sort alphabetically,
// booleans become yes/no and list values repeat the key per element.
// Comment metadata comes back out as comment lines; the underscore keys
// themselves are never written as assignments.
func FromJSON(data map[string]any) []byte {
	priority := make(map[string]int, len(sectionOrder))
	for i, name := range sectionOrder {
		priority[name] = i
	}
	names := make([]string, 0, len(data))
	for name := range data {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		pi, iOK := priority[names[i]]
		pj, jOK := priority[names[j]]
		if !iOK {
			pi = len(sectionOrder)
		}
		if !jOK {
			pj = len(sectionOrder)
		}
		if pi != pj {
			return pi < pj
		}
		return names[i] < names[j]
	})

	var b strings.Builder
	first := true
	writeSection := func(name string, obj map[string]any) {
		if !first {
			b.WriteString("\n")
		}
		first = false
		for _, line := range commentLines(obj["_comments"]) {
			writeComment(&b, line)
		}
		fmt.Fprintf(&b, "[%s]\n", name)
		props := propertyComments(obj["_property_comments"])
		keys := make([]string, 0, len(obj))
		for key := range obj {
			if strings.HasPrefix(key, "_") {
				continue
			}
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			for _, line := range props[key] {
				writeComment(&b, line)
			}
			switch value := obj[key].(type) {
			case []any:
				for _, item := range value {
					fmt.Fprintf(&b, "%s=%s\n", key, formatValue(item))
				}
			default:
				fmt.Fprintf(&b, "%s=%s\n", key, formatValue(value))
			}
		}
	}

	for _, name := range names {
		switch content := data[name].(type) {
		case map[string]any:
			writeSection(name, content)
		case []any:
			for _, item := range content {
				if obj, ok := item.(map[string]any); ok {
					writeSection(name, obj)
				}
			}
		case []map[string]any:
			for _, obj := range content {
				writeSection(name, obj)
			}
		}
	}
	return []byte(b.String())
}

// commentLines accepts both the native []string produced by ToJSON and
// the []any a JSON decoder yields for the same metadata.
func commentLines(v any) []string {
	switch lines := v.(type) {
	case []string:
		return lines
	case []any:
		out := make([]string, 0, len(lines))
		for _, line := range lines {
			if s, ok := line.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func propertyComments(v any) map[string][]string {
	switch m := v.(type) {
	case map[string][]string:
		return m
	case map[string]any:
		out := make(map[string][]string, len(m))
		for key, lines := range m {
			out[key] = commentLines(lines)
		}
		return out
	}
	return nil
}

func writeComment(b *strings.Builder, line string) {
	if strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
		fmt.Fprintf(b, "%s\n", line)
		return
	}
	fmt.Fprintf(b, "# %s\n", line)
}

func formatValue(value any) string {
	switch v := value.(type) {
	case bool:
		if v {
			return "yes"
		}
		return "no"
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
