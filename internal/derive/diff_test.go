package derive

import (
	"reflect"
	"testing"

	"github.com/remcovanmook/networkd-schema/internal/nserrors"
	"github.com/remcovanmook/networkd-schema/internal/schema"
)

func rawDoc(version schema.Version, sections map[string][]string) *schema.RawDocument {
	doc := &schema.RawDocument{
		Format:   schema.FormatNetwork,
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

func TestComputeIdentity(t *testing.T) {
	base := rawDoc("v7", map[string][]string{"Network": {"DHCP", "Address"}})
	target := rawDoc("v7", map[string][]string{"Network": {"DHCP", "Address"}})
	diff, err := Compute(base, target)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !diff.Empty() {
		t.Errorf("identity diff not empty: %+v", diff)
	}
}

func TestComputeAddedKey(t *testing.T) {
	base := rawDoc("v7", map[string][]string{"Network": {"DHCP", "Address"}})
	target := rawDoc("v9", map[string][]string{"Network": {"DHCP", "Address", "IPv6AcceptRA"}})
	diff, err := Compute(base, target)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	want := []KeyRef{{Section: "Network", Key: "IPv6AcceptRA"}}
	if !reflect.DeepEqual(diff.AddedKeys, want) {
		t.Errorf("AddedKeys = %v, want %v", diff.AddedKeys, want)
	}
	if len(diff.RemovedKeys) != 0 || len(diff.AddedSections) != 0 || len(diff.RemovedSections) != 0 {
		t.Errorf("unexpected extra entries: %+v", diff)
	}
}

func TestComputeRemovedSection(t *testing.T) {
	base := rawDoc("v7", map[string][]string{
		"Network": {"DHCP"},
		"Bridge":  {"Cost", "Priority"},
	})
	target := rawDoc("v5", map[string][]string{"Network": {"DHCP"}})
	diff, err := Compute(base, target)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !reflect.DeepEqual(diff.RemovedSections, []string{"Bridge"}) {
		t.Errorf("RemovedSections = %v", diff.RemovedSections)
	}
	// Section-level changes must not be repeated per key.
	for _, ref := range diff.RemovedKeys {
		if ref.Section == "Bridge" {
			t.Errorf("removed section Bridge also reported key %v", ref)
		}
	}
}

func TestComputeSectionChangesNotPerKey(t *testing.T) {
	base := rawDoc("v7", map[string][]string{"Network": {"DHCP"}})
	target := rawDoc("v9", map[string][]string{
		"Network":       {"DHCP"},
		"WireGuardPeer": {"PublicKey", "Endpoint"},
	})
	diff, err := Compute(base, target)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !reflect.DeepEqual(diff.AddedSections, []string{"WireGuardPeer"}) {
		t.Errorf("AddedSections = %v", diff.AddedSections)
	}
	if len(diff.AddedKeys) != 0 {
		t.Errorf("added section also reported keys: %v", diff.AddedKeys)
	}
}

func TestComputeDisjointSets(t *testing.T) {
	base := rawDoc("v7", map[string][]string{
		"Network": {"DHCP", "Gone"},
		"Old":     {"A"},
	})
	target := rawDoc("v9", map[string][]string{
		"Network": {"DHCP", "Fresh"},
		"New":     {"B"},
	})
	diff, err := Compute(base, target)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	for _, added := range diff.AddedSections {
		for _, removed := range diff.RemovedSections {
			if added == removed {
				t.Errorf("section %q both added and removed", added)
			}
		}
	}
	for _, added := range diff.AddedKeys {
		for _, removed := range diff.RemovedKeys {
			if added == removed {
				t.Errorf("key %v both added and removed", added)
			}
		}
	}
}

func TestComputeEmptyTarget(t *testing.T) {
	base := rawDoc("v7", map[string][]string{"Network": {"DHCP"}})
	target := rawDoc("v9", nil)
	_, err := Compute(base, target)
	if err == nil {
		t.Fatal("diff against an empty target succeeded")
	}
	if !nserrors.Is(err, nserrors.KindInputUnavailable) {
		t.Errorf("error kind = %q, want %q", nserrors.KindOf(err), nserrors.KindInputUnavailable)
	}
}

func TestComputeFormatMismatch(t *testing.T) {
	base := rawDoc("v7", map[string][]string{"Network": {"DHCP"}})
	target := rawDoc("v9", map[string][]string{"Network": {"DHCP"}})
	target.Format = schema.FormatLink
	_, err := Compute(base, target)
	if err == nil {
		t.Fatal("cross-format diff succeeded")
	}
	if !nserrors.Is(err, nserrors.KindVersionMismatch) {
		t.Errorf("error kind = %q, want %q", nserrors.KindOf(err), nserrors.KindVersionMismatch)
	}
}
