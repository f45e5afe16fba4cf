// Package derive implements the schema derivation engine: structural diffs
// between raw release snapshots, a validity ledger folded over the release
// chain, and the applicator that turns the curated baseline into a curated
// document for any other release.
package derive

import (
	"sort"

	"github.com/remcovanmook/networkd-schema/internal/nserrors"
	"github.com/remcovanmook/networkd-schema/internal/schema"
)

// KeyRef names one key by its (section, key) identity.
type KeyRef struct {
	Section string `json:"section"`
	Key     string `json:"key"`
}

func (k KeyRef) String() string {
	return k.Section + "." + k.Key
}

func sortKeyRefs(refs []KeyRef) {
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Section != refs[j].Section {
			return refs[i].Section < refs[j].Section
		}
		return refs[i].Key < refs[j].Key
	})
}

// Diff is the structural difference between two raw documents of the same
// format. Key-level entries only reference sections present in both
// releases; section-level changes are never repeated per key.
type Diff struct {
	Format schema.Format  `json:"format"`
	Base   schema.Version `json:"base"`
	Target schema.Version `json:"target"`

	AddedSections   []string `json:"addedSections,omitempty"`
	RemovedSections []string `json:"removedSections,omitempty"`
	AddedKeys       []KeyRef `json:"addedKeys,omitempty"`
	RemovedKeys     []KeyRef `json:"removedKeys,omitempty"`
}

// Empty reports whether the two releases are structurally identical.
func (d *Diff) Empty() bool {
	return len(d.AddedSections) == 0 && len(d.RemovedSections) == 0 &&
		len(d.AddedKeys) == 0 && len(d.RemovedKeys) == 0
}

// Compute diffs two raw documents at section and key granularity. The
// repeatable flag is not diffed; a cardinality change is invisible here.
func Compute(base, target *schema.RawDocument) (*Diff, error) {
	if base == nil || target == nil {
		return nil, nserrors.Newf(nserrors.KindInputUnavailable, "diff needs both raw documents")
	}
	if base.Format != target.Format {
		return nil, nserrors.Newf(nserrors.KindVersionMismatch,
			"cannot diff %s against %s", base.Format.Stem(), target.Format.Stem())
	}
	// An empty side means extraction failed upstream, not that the release
	// has no options; a diff computed from it would report mass removal.
	if len(base.Sections) == 0 {
		return nil, nserrors.Newf(nserrors.KindInputUnavailable, "raw %s %s is empty", base.Format.Stem(), base.Version)
	}
	if len(target.Sections) == 0 {
		return nil, nserrors.Newf(nserrors.KindInputUnavailable, "raw %s %s is empty", target.Format.Stem(), target.Version)
	}

	diff := &Diff{Format: base.Format, Base: base.Version, Target: target.Version}

	for name, baseSec := range base.Sections {
		targetSec, ok := target.Sections[name]
		if !ok {
			diff.RemovedSections = append(diff.RemovedSections, name)
			continue
		}
		for key := range baseSec.Keys {
			if _, ok := targetSec.Keys[key]; !ok {
				diff.RemovedKeys = append(diff.RemovedKeys, KeyRef{Section: name, Key: key})
			}
		}
		for key := range targetSec.Keys {
			if _, ok := baseSec.Keys[key]; !ok {
				diff.AddedKeys = append(diff.AddedKeys, KeyRef{Section: name, Key: key})
			}
		}
	}
	for name := range target.Sections {
		if _, ok := base.Sections[name]; !ok {
			diff.AddedSections = append(diff.AddedSections, name)
		}
	}

	sort.Strings(diff.AddedSections)
	sort.Strings(diff.RemovedSections)
	sortKeyRefs(diff.AddedKeys)
	sortKeyRefs(diff.RemovedKeys)
	return diff, nil
}
