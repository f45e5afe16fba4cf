package schema

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/remcovanmook/networkd-schema/internal/nserrors"
)

const curatedSample = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "$id": "https://example.org/schemas/v257/systemd.network.schema.json",
  "title": "Systemd network Configuration (v257)",
  "type": "object",
  "additionalProperties": false,
  "definitions": {
    "mac_address": {
      "type": "string",
      "pattern": "^[0-9A-Fa-f]{2}(:[0-9A-Fa-f]{2}){5}$"
    }
  },
  "properties": {
    "Match": {
      "type": "object",
      "description": "[Match] section configuration",
      "additionalProperties": false,
      "required": ["Name"],
      "properties": {
        "Name": {
          "type": "string",
          "description": "Device name to match",
          "examples": ["eth0", "en*"]
        },
        "MACAddress": {
          "allOf": [{"$ref": "#/definitions/mac_address"}],
          "description": "Hardware address to match",
          "version_added": "v250"
        },
        "Type": {
          "type": "string",
          "enum": ["ether", "wlan"]
        },
        "Mystery": {
          "type": "string",
          "x-vendor-note": "kept verbatim"
        }
      }
    },
    "Address": {
      "description": "[Address] configuration (Can be repeated)",
      "oneOf": [
        {
          "type": "array",
          "items": {
            "type": "object",
            "additionalProperties": false,
            "properties": {"Address": {"type": "string"}}
          }
        },
        {
          "type": "object",
          "additionalProperties": false,
          "properties": {
            "Address": {
              "type": "string",
              "format": "ipv4",
              "description": "The address"
            },
            "RouteMetric": {
              "type": "integer",
              "minimum": 0,
              "maximum": 4294967295,
              "default": 100
            },
            "Label": {
              "type": "array",
              "items": {"type": "string"},
              "description": "Address labels",
              "x-curated": false
            }
          }
        }
      ]
    }
  }
}`

func TestDecodeDocument(t *testing.T) {
	doc, err := DecodeDocument([]byte(curatedSample), FormatNetwork, "v257")
	if err != nil {
		t.Fatalf("DecodeDocument: %v", err)
	}
	if doc.ID != "https://example.org/schemas/v257/systemd.network.schema.json" {
		t.Errorf("ID = %q", doc.ID)
	}
	if doc.Title != "Systemd network Configuration (v257)" {
		t.Errorf("Title = %q", doc.Title)
	}
	if _, ok := doc.Definitions["mac_address"]; !ok {
		t.Error("definitions lost mac_address")
	}
	if got := doc.SectionNames(); !reflect.DeepEqual(got, []string{"Address", "Match"}) {
		t.Fatalf("SectionNames = %v", got)
	}

	match := doc.Sections["Match"]
	if match.Repeatable {
		t.Error("Match decoded as repeatable")
	}
	if !reflect.DeepEqual(match.Required, []string{"Name"}) {
		t.Errorf("Match.Required = %v", match.Required)
	}
	name := match.Keys["Name"]
	if name.Kind != KindString || name.Description != "Device name to match" {
		t.Errorf("Name = %+v", name)
	}
	if !reflect.DeepEqual(name.Examples, []string{"eth0", "en*"}) {
		t.Errorf("Name.Examples = %v", name.Examples)
	}
	mac := match.Keys["MACAddress"]
	if mac.Ref != "mac_address" {
		t.Errorf("MACAddress.Ref = %q", mac.Ref)
	}
	if mac.Since != "v250" {
		t.Errorf("MACAddress.Since = %q", mac.Since)
	}
	typ := match.Keys["Type"]
	if typ.Kind != KindEnum || !reflect.DeepEqual(typ.Constraints.Enum, []string{"ether", "wlan"}) {
		t.Errorf("Type = %+v", typ)
	}
	mystery := match.Keys["Mystery"]
	if _, ok := mystery.Extra["x-vendor-note"]; !ok {
		t.Error("unknown keyword not preserved in Extra")
	}

	addr := doc.Sections["Address"]
	if !addr.Repeatable {
		t.Fatal("Address decoded as singleton")
	}
	if addr.Description != "[Address] configuration (Can be repeated)" {
		t.Errorf("Address.Description = %q", addr.Description)
	}
	metric := addr.Keys["RouteMetric"]
	if metric.Kind != KindInteger {
		t.Errorf("RouteMetric.Kind = %q", metric.Kind)
	}
	if metric.Constraints.Minimum == nil || *metric.Constraints.Minimum != 0 {
		t.Errorf("RouteMetric.Minimum = %v", metric.Constraints.Minimum)
	}
	if metric.Constraints.Maximum == nil || *metric.Constraints.Maximum != 4294967295 {
		t.Errorf("RouteMetric.Maximum = %v", metric.Constraints.Maximum)
	}
	if def, ok := metric.Default.(float64); !ok || def != 100 {
		t.Errorf("RouteMetric.Default = %v", metric.Default)
	}
	label := addr.Keys["Label"]
	if !label.List || label.Kind != KindString {
		t.Errorf("Label = %+v", label)
	}
	if label.Curated {
		t.Error("Label.Curated = true, want false")
	}
	if addr.Keys["Address"].Format != "ipv4" {
		t.Errorf("Address.Format = %q", addr.Keys["Address"].Format)
	}
}

func TestEncodeDocumentCanonical(t *testing.T) {
	doc, err := DecodeDocument([]byte(curatedSample), FormatNetwork, "v257")
	if err != nil {
		t.Fatalf("DecodeDocument: %v", err)
	}
	first, err := EncodeDocument(doc)
	if err != nil {
		t.Fatalf("EncodeDocument: %v", err)
	}
	if !bytes.HasSuffix(first, []byte("}\n")) {
		t.Error("encoded document does not end with a newline")
	}

	// Object keys come out sorted at the top level. Matching on the two-space
	// indent keeps nested occurrences of the same key name out of the way.
	idx := func(sub string) int { return bytes.Index(first, []byte("\n  \""+sub+"\"")) }
	order := []string{"$id", "$schema", "additionalProperties", "definitions", "properties", "title", "type"}
	for i := 1; i < len(order); i++ {
		if idx(order[i-1]) < 0 || idx(order[i]) < 0 {
			t.Fatalf("encoded document is missing %q or %q", order[i-1], order[i])
		}
		if idx(order[i-1]) > idx(order[i]) {
			t.Errorf("key %q serialized after %q", order[i-1], order[i])
		}
	}

	// Encoding is stable across decode/encode cycles.
	again, err := DecodeDocument(first, FormatNetwork, "v257")
	if err != nil {
		t.Fatalf("DecodeDocument(encoded): %v", err)
	}
	second, err := EncodeDocument(again)
	if err != nil {
		t.Fatalf("EncodeDocument(again): %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("encode/decode/encode changed the document bytes")
	}
}

func TestEncodeRefWrapping(t *testing.T) {
	doc := &Document{
		Format:  FormatNetwork,
		Version: "v257",
		ID:      "https://example.org/s.json",
		Title:   "t",
		Sections: map[string]*Section{
			"Network": {Keys: map[string]*KeyDefinition{
				"Bare":      {Ref: "mac_address", Curated: true},
				"Annotated": {Ref: "mac_address", Description: "d", Curated: true},
			}},
		},
	}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var wire struct {
		Properties map[string]struct {
			Properties map[string]map[string]json.RawMessage `json:"properties"`
		} `json:"properties"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	keys := wire.Properties["Network"].Properties
	if _, ok := keys["Bare"]["$ref"]; !ok {
		t.Errorf("bare ref not serialized as plain $ref: %s", keys["Bare"])
	}
	if _, ok := keys["Annotated"]["allOf"]; !ok {
		t.Errorf("annotated ref not wrapped in allOf: %s", keys["Annotated"])
	}
	if _, ok := keys["Annotated"]["description"]; !ok {
		t.Errorf("annotated ref lost its description: %s", keys["Annotated"])
	}
}

func TestEncodeRepeatableWrapper(t *testing.T) {
	doc := &Document{
		Format:  FormatNetwork,
		Version: "v257",
		ID:      "https://example.org/s.json",
		Title:   "t",
		Sections: map[string]*Section{
			"Route": {
				Repeatable:  true,
				Description: "[Route] configuration (Can be repeated)",
				Keys: map[string]*KeyDefinition{
					"Gateway": {Kind: KindString, Curated: true},
				},
			},
		},
	}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var wire struct {
		Properties map[string]map[string]json.RawMessage `json:"properties"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	route := wire.Properties["Route"]
	var variants []map[string]json.RawMessage
	if err := json.Unmarshal(route["oneOf"], &variants); err != nil {
		t.Fatalf("oneOf: %v", err)
	}
	if len(variants) != 2 {
		t.Fatalf("oneOf has %d variants, want 2", len(variants))
	}
	var firstType string
	if err := json.Unmarshal(variants[0]["type"], &firstType); err != nil || firstType != "array" {
		t.Errorf("first oneOf variant type = %q, want array", firstType)
	}
	if _, ok := variants[1]["properties"]; !ok {
		t.Error("second oneOf variant has no properties")
	}
}

func TestDecodeRawDocument(t *testing.T) {
	doc, err := DecodeRawDocument([]byte(curatedSample), FormatNetwork, "v257")
	if err != nil {
		t.Fatalf("DecodeRawDocument: %v", err)
	}
	if got := doc.SectionNames(); !reflect.DeepEqual(got, []string{"Address", "Match"}) {
		t.Fatalf("SectionNames = %v", got)
	}
	if !doc.Sections["Address"].Repeatable {
		t.Error("Address not detected as repeatable")
	}
	if doc.Sections["Match"].Repeatable {
		t.Error("Match detected as repeatable")
	}
	want := []string{"MACAddress", "Mystery", "Name", "Type"}
	if got := doc.KeyNames("Match"); !reflect.DeepEqual(got, want) {
		t.Errorf("Match keys = %v, want %v", got, want)
	}
	if !doc.Has("Address", "RouteMetric") {
		t.Error("Has(Address, RouteMetric) = false")
	}
	if doc.Has("Bridge", "") {
		t.Error("Has(Bridge) = true")
	}
}

func TestDecodeRawDocumentEmpty(t *testing.T) {
	_, err := DecodeRawDocument([]byte(`{"properties": {}}`), FormatLink, "v240")
	if err == nil {
		t.Fatal("decoding an empty raw document succeeded")
	}
	if !nserrors.Is(err, nserrors.KindInputUnavailable) {
		t.Errorf("error kind = %q, want %q", nserrors.KindOf(err), nserrors.KindInputUnavailable)
	}
}

func TestDecodeRawDocumentMalformed(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"not json", `{`},
		{"section without properties", `{"properties": {"Match": {"type": "object"}}}`},
		{"oneOf without object", `{"properties": {"Address": {"oneOf": [{"type": "string"}]}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeRawDocument([]byte(tt.in), FormatNetwork, "v250")
			if err == nil {
				t.Fatal("decode succeeded")
			}
			if !nserrors.Is(err, nserrors.KindParse) {
				t.Errorf("error kind = %q, want %q", nserrors.KindOf(err), nserrors.KindParse)
			}
		})
	}
}

func TestDecodeDocumentKeepsDefaultInsideRef(t *testing.T) {
	const in = `{
  "$id": "x",
  "title": "t",
  "definitions": {"duration": {"type": "string"}},
  "properties": {
    "DHCPv4": {
      "type": "object",
      "properties": {
        "Lease": {
          "allOf": [{"$ref": "#/definitions/duration", "default": "1h"}],
          "description": "Lease duration"
        }
      }
    }
  }
}`
	doc, err := DecodeDocument([]byte(in), FormatNetwork, "v257")
	if err != nil {
		t.Fatalf("DecodeDocument: %v", err)
	}
	lease := doc.Sections["DHCPv4"].Keys["Lease"]
	if lease.Ref != "duration" {
		t.Errorf("Ref = %q", lease.Ref)
	}
	if def, _ := lease.Default.(string); def != "1h" {
		t.Errorf("Default = %v", lease.Default)
	}
	out, err := EncodeDocument(doc)
	if err != nil {
		t.Fatalf("EncodeDocument: %v", err)
	}
	if !strings.Contains(string(out), `"allOf"`) {
		t.Error("re-encoded ref with annotations lost its allOf wrapper")
	}
}
