package derive

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/remcovanmook/networkd-schema/internal/nserrors"
	"github.com/remcovanmook/networkd-schema/internal/schema"
)

// ApplyOptions tunes derivation.
type ApplyOptions struct {
	// IDBase is the published schema URL root, e.g.
	// "https://example.org/schemas". When set, the derived document's $id
	// becomes <IDBase>/<version>/<stem>.schema.json; when empty, the version
	// segment of the baseline's $id is rewritten in place.
	IDBase string

	// Ledger refines since/until markers using the whole release chain.
	// Without it, markers only reflect the single base/target pair: added
	// keys are stamped with the target version and surviving keys keep the
	// baseline's markers untouched.
	Ledger *Ledger
}

// Apply derives the curated document for diff.Target from the curated
// baseline. The raw target is consulted for the key sets of newly added
// sections and for the structural parity postcondition.
func Apply(base *schema.Document, diff *Diff, target *schema.RawDocument, opts ApplyOptions) (*schema.Document, error) {
	if base == nil || diff == nil || target == nil {
		return nil, nserrors.Newf(nserrors.KindInputUnavailable, "derivation needs baseline, diff and raw target")
	}
	if diff.Base != base.Version {
		return nil, nserrors.Newf(nserrors.KindVersionMismatch,
			"diff is %s -> %s but curated base is %s", diff.Base, diff.Target, base.Version)
	}
	if diff.Format != base.Format {
		return nil, nserrors.Newf(nserrors.KindVersionMismatch,
			"diff is for %s but curated base is %s", diff.Format.Stem(), base.Format.Stem())
	}
	if target.Version != diff.Target || target.Format != diff.Format {
		return nil, nserrors.Newf(nserrors.KindVersionMismatch,
			"raw target %s %s does not match diff target %s %s",
			target.Format.Stem(), target.Version, diff.Format.Stem(), diff.Target)
	}

	out := base.Clone()
	out.Version = diff.Target

	for _, name := range diff.RemovedSections {
		delete(out.Sections, name)
	}
	for _, ref := range diff.RemovedKeys {
		sec, ok := out.Sections[ref.Section]
		if !ok {
			continue
		}
		delete(sec.Keys, ref.Key)
		sec.Required = dropString(sec.Required, ref.Key)
	}

	for _, name := range diff.AddedSections {
		sec := &schema.Section{
			// No curated precedent exists for a brand new section, so it is
			// conservatively treated as a singleton.
			Repeatable:  false,
			Description: fmt.Sprintf("[%s] section configuration", name),
			Keys:        make(map[string]*schema.KeyDefinition),
		}
		if rawSec, ok := target.Sections[name]; ok {
			for key := range rawSec.Keys {
				sec.Keys[key] = degradedKey(KeyRef{Section: name, Key: key}, diff.Target, opts.Ledger)
			}
		}
		out.Sections[name] = sec
	}
	for _, ref := range diff.AddedKeys {
		sec, ok := out.Sections[ref.Section]
		if !ok {
			continue
		}
		sec.Keys[ref.Key] = degradedKey(ref, diff.Target, opts.Ledger)
	}

	if opts.Ledger != nil {
		stampSurvivors(out, diff, opts.Ledger)
	}

	rewriteMetadata(out, base, opts)

	if report := CheckParity(out, target); !report.Empty() {
		return nil, nserrors.New(nserrors.KindPostcondition, fmt.Errorf(
			"derived %s %s diverges from raw target:\n%s", out.Format.Stem(), out.Version, report))
	}
	return out, nil
}

// degradedKey synthesizes the definition for a key with no curated
// precedent. The metadata is deliberately minimal and machine-detectable;
// nothing is fabricated as if a curator wrote it.
func degradedKey(ref KeyRef, target schema.Version, ledger *Ledger) *schema.KeyDefinition {
	since := target
	var until schema.Version
	if ledger != nil {
		if interval, ok := ledger.IntervalFor(ref, target); ok {
			if interval.Since != "" {
				since = interval.Since
			}
			until = interval.Until
		}
	}
	return &schema.KeyDefinition{
		Kind:        schema.KindString,
		Description: fmt.Sprintf("(undocumented — added in %s)", since),
		Since:       since,
		Until:       until,
		Curated:     false,
	}
}

// stampSurvivors refines the validity markers of keys carried over from the
// baseline. A hand-curated since marker always wins over the ledger, which
// cannot see past the start of the release chain.
func stampSurvivors(out *schema.Document, diff *Diff, ledger *Ledger) {
	added := make(map[KeyRef]bool, len(diff.AddedKeys))
	for _, ref := range diff.AddedKeys {
		added[ref] = true
	}
	addedSections := make(map[string]bool, len(diff.AddedSections))
	for _, name := range diff.AddedSections {
		addedSections[name] = true
	}
	for section, sec := range out.Sections {
		if addedSections[section] {
			continue
		}
		for key, def := range sec.Keys {
			ref := KeyRef{Section: section, Key: key}
			if added[ref] {
				continue
			}
			interval, ok := ledger.IntervalFor(ref, out.Version)
			if !ok {
				continue
			}
			if def.Since == "" && interval.Since != "" {
				def.Since = interval.Since
			}
			if interval.Until != "" {
				def.Until = interval.Until
			}
		}
	}
}

// rewriteMetadata restamps title, $id, provenance and per-key documentation
// links for the target release.
func rewriteMetadata(out *schema.Document, base *schema.Document, opts ApplyOptions) {
	if out.Title != "" {
		title := out.Title
		if idx := strings.LastIndex(title, " ("); idx >= 0 && strings.HasSuffix(title, ")") {
			title = title[:idx]
		}
		out.Title = fmt.Sprintf("%s (%s)", title, out.Version)
	}
	switch {
	case opts.IDBase != "":
		out.ID = CanonicalID(opts.IDBase, out.Format, out.Version)
	case out.ID != "":
		out.ID = strings.Replace(out.ID, "/"+string(base.Version)+"/", "/"+string(out.Version)+"/", 1)
	}
	out.GeneratedFrom = &schema.Provenance{BaseVersion: base.Version, TargetVersion: out.Version}

	baseMan := "/man/" + strconv.Itoa(base.Version.Num()) + "/"
	targetMan := "/man/" + strconv.Itoa(out.Version.Num()) + "/"
	if baseMan != targetMan {
		for _, sec := range out.Sections {
			for _, def := range sec.Keys {
				if def.Documentation != "" {
					def.Documentation = strings.ReplaceAll(def.Documentation, baseMan, targetMan)
				}
			}
		}
	}
}

// CanonicalID returns the published $id URL of one (format, version) pair
// under the given URL root.
func CanonicalID(idBase string, format schema.Format, version schema.Version) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(idBase, "/"), version, format.SchemaFileName())
}

func dropString(list []string, value string) []string {
	out := list[:0]
	for _, v := range list {
		if v != value {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// ParityReport lists the structural disagreements between a derived document
// and the raw target it must mirror. Repeatability is not compared, matching
// the differ.
type ParityReport struct {
	MissingSections []string // present in the raw target, absent from the derived document
	ExtraSections   []string // present in the derived document, absent from the raw target
	MissingKeys     []KeyRef
	ExtraKeys       []KeyRef
}

// Empty reports structural parity.
func (r *ParityReport) Empty() bool {
	return len(r.MissingSections) == 0 && len(r.ExtraSections) == 0 &&
		len(r.MissingKeys) == 0 && len(r.ExtraKeys) == 0
}

func (r *ParityReport) String() string {
	var b strings.Builder
	writeList := func(label string, items []string) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(&b, "  %s: %s\n", label, strings.Join(items, ", "))
	}
	writeList("missing sections", r.MissingSections)
	writeList("unexpected sections", r.ExtraSections)
	writeList("missing keys", keyRefStrings(r.MissingKeys))
	writeList("unexpected keys", keyRefStrings(r.ExtraKeys))
	return strings.TrimSuffix(b.String(), "\n")
}

func keyRefStrings(refs []KeyRef) []string {
	out := make([]string, len(refs))
	for i, ref := range refs {
		out[i] = ref.String()
	}
	return out
}

// CheckParity compares the derived document's structure against the raw
// target at section and key granularity.
func CheckParity(derived *schema.Document, target *schema.RawDocument) *ParityReport {
	report := &ParityReport{}
	structure := derived.Structure()

	for _, name := range target.SectionNames() {
		derivedSec, ok := structure.Sections[name]
		if !ok {
			report.MissingSections = append(report.MissingSections, name)
			continue
		}
		for _, key := range target.KeyNames(name) {
			if _, ok := derivedSec.Keys[key]; !ok {
				report.MissingKeys = append(report.MissingKeys, KeyRef{Section: name, Key: key})
			}
		}
	}
	for _, name := range structure.SectionNames() {
		targetSec, ok := target.Sections[name]
		if !ok {
			report.ExtraSections = append(report.ExtraSections, name)
			continue
		}
		for _, key := range structure.KeyNames(name) {
			if _, ok := targetSec.Keys[key]; !ok {
				report.ExtraKeys = append(report.ExtraKeys, KeyRef{Section: name, Key: key})
			}
		}
	}
	sortKeyRefs(report.MissingKeys)
	sortKeyRefs(report.ExtraKeys)
	return report
}
