package derive

import (
	"github.com/remcovanmook/networkd-schema/internal/nserrors"
	"github.com/remcovanmook/networkd-schema/internal/schema"
)

// Interval is one validity window of a key: present from Since (inclusive)
// until Until (exclusive). An empty Since means the key already existed at
// the start of the known release chain, so its true origin is unknown here
// and any hand-curated marker wins. An empty Until means still current.
type Interval struct {
	Since schema.Version
	Until schema.Version
}

// Ledger records, per key identity, every validity window observed across
// the ordered release chain. A key that is removed and later re-added gets
// two separate windows; no identity is carried across the gap.
type Ledger struct {
	format    schema.Format
	versions  []schema.Version
	intervals map[KeyRef][]Interval
}

// BuildLedger folds the full ordered release chain into a ledger. Every raw
// document must belong to the same format; the chain is sorted by release
// number internally.
func BuildLedger(chain []*schema.RawDocument) (*Ledger, error) {
	if len(chain) == 0 {
		return nil, nserrors.Newf(nserrors.KindInputUnavailable, "ledger needs at least one raw document")
	}
	format := chain[0].Format
	byVersion := make(map[schema.Version]*schema.RawDocument, len(chain))
	versions := make([]schema.Version, 0, len(chain))
	for _, doc := range chain {
		if doc.Format != format {
			return nil, nserrors.Newf(nserrors.KindVersionMismatch,
				"ledger chain mixes %s and %s", format.Stem(), doc.Format.Stem())
		}
		if _, dup := byVersion[doc.Version]; dup {
			return nil, nserrors.Newf(nserrors.KindVersionMismatch,
				"ledger chain lists %s %s twice", format.Stem(), doc.Version)
		}
		byVersion[doc.Version] = doc
		versions = append(versions, doc.Version)
	}
	schema.SortVersions(versions)

	ledger := &Ledger{
		format:    format,
		versions:  versions,
		intervals: make(map[KeyRef][]Interval),
	}

	// Presence per key over the chain, then decomposed into maximal runs of
	// consecutive releases. Each run is one lifecycle window.
	present := make(map[KeyRef][]bool)
	for i, version := range versions {
		doc := byVersion[version]
		for section, sec := range doc.Sections {
			for key := range sec.Keys {
				ref := KeyRef{Section: section, Key: key}
				if _, ok := present[ref]; !ok {
					present[ref] = make([]bool, len(versions))
				}
				present[ref][i] = true
			}
		}
	}
	for ref, seen := range present {
		for i := 0; i < len(seen); {
			if !seen[i] {
				i++
				continue
			}
			j := i
			for j+1 < len(seen) && seen[j+1] {
				j++
			}
			interval := Interval{}
			if i > 0 {
				interval.Since = versions[i]
			}
			if j+1 < len(versions) {
				interval.Until = versions[j+1]
			}
			ledger.intervals[ref] = append(ledger.intervals[ref], interval)
			i = j + 1
		}
	}
	return ledger, nil
}

// Versions returns the release chain the ledger was built over, ascending.
func (l *Ledger) Versions() []schema.Version {
	return append([]schema.Version(nil), l.versions...)
}

// IntervalFor returns the validity window that covers version for the given
// key, or false if the key is absent from that release.
func (l *Ledger) IntervalFor(ref KeyRef, version schema.Version) (Interval, bool) {
	for _, interval := range l.intervals[ref] {
		if interval.Since != "" && version.Compare(interval.Since) < 0 {
			continue
		}
		if interval.Until != "" && version.Compare(interval.Until) >= 0 {
			continue
		}
		return interval, true
	}
	return Interval{}, false
}

// Intervals returns every validity window recorded for the key, in chain
// order.
func (l *Ledger) Intervals(ref KeyRef) []Interval {
	return append([]Interval(nil), l.intervals[ref]...)
}
