package build

import (
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/remcovanmook/networkd-schema/internal/config"
	"github.com/remcovanmook/networkd-schema/internal/derive"
	"github.com/remcovanmook/networkd-schema/internal/nserrors"
	"github.com/remcovanmook/networkd-schema/internal/schema"
)

// Options tunes one build run.
type Options struct {
	// Force writes every output even when the on-disk content already
	// matches.
	Force bool
	// Jobs bounds the worker pool; zero or negative means one worker per
	// available core.
	Jobs int
	// Versions restricts the run to a subset of the manifest's releases;
	// empty means all of them. The validity ledger is always built over the
	// full chain so version markers stay accurate.
	Versions []schema.Version
	// Progress receives human-readable per-pair progress lines; nil
	// discards them.
	Progress io.Writer
}

// Result records the outcome of one (format, version) pair.
type Result struct {
	Format  schema.Format
	Version schema.Version
	Path    string
	Outcome schema.WriteResult
	Err     error
}

// Summary aggregates the results of a build run, ordered by format build
// order and release number.
type Summary struct {
	Results []Result
}

// Written counts files created or updated.
func (s *Summary) Written() int {
	n := 0
	for _, r := range s.Results {
		if r.Err == nil && r.Outcome != schema.WriteUnchanged {
			n++
		}
	}
	return n
}

// Unchanged counts outputs skipped because their content already matched.
func (s *Summary) Unchanged() int {
	n := 0
	for _, r := range s.Results {
		if r.Err == nil && r.Outcome == schema.WriteUnchanged {
			n++
		}
	}
	return n
}

// Failures returns the failed results.
func (s *Summary) Failures() []Result {
	var failed []Result
	for _, r := range s.Results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}

type task struct {
	format  schema.Format
	version schema.Version
	curated *schema.Document
	rawBase *schema.RawDocument
	target  *schema.RawDocument
	ledger  *derive.Ledger
}

// Run derives every selected (format, version) pair. A missing input skips
// the whole format but leaves other formats running; a postcondition
// violation fails only its pair. A version pairing bug aborts the entire
// run with an error.
func Run(manifest *config.Manifest, source Source, opts Options) (*Summary, error) {
	progress := opts.Progress
	if progress == nil {
		progress = io.Discard
	}

	allVersions := manifest.VersionList()
	targets, err := selectVersions(allVersions, opts.Versions)
	if err != nil {
		return nil, err
	}

	summary := &Summary{}
	var tasks []task
	for _, format := range manifest.FormatList() {
		curated, err := source.CuratedBase(format)
		if err != nil {
			fmt.Fprintf(progress, "  ✗ %s: %v\n", format.Stem(), err)
			summary.Results = append(summary.Results, Result{Format: format, Version: manifest.BaseVersion(), Err: err})
			continue
		}
		chain := make([]*schema.RawDocument, 0, len(allVersions))
		byVersion := make(map[schema.Version]*schema.RawDocument, len(allVersions))
		chainErr := error(nil)
		for _, version := range allVersions {
			raw, err := source.Raw(format, version)
			if err != nil {
				chainErr = err
				break
			}
			chain = append(chain, raw)
			byVersion[version] = raw
		}
		if chainErr != nil {
			fmt.Fprintf(progress, "  ✗ %s: %v\n", format.Stem(), chainErr)
			summary.Results = append(summary.Results, Result{Format: format, Err: chainErr})
			continue
		}
		ledger, err := derive.BuildLedger(chain)
		if err != nil {
			return nil, err
		}
		rawBase := byVersion[manifest.BaseVersion()]
		for _, version := range targets {
			tasks = append(tasks, task{
				format:  format,
				version: version,
				curated: curated,
				rawBase: rawBase,
				target:  byVersion[version],
				ledger:  ledger,
			})
		}
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	if jobs > len(tasks) && len(tasks) > 0 {
		jobs = len(tasks)
	}

	var (
		queue   = make(chan task)
		wg      sync.WaitGroup
		mu      sync.Mutex
		aborted atomic.Bool
		abort   error
	)
	for i := 0; i < jobs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range queue {
				if aborted.Load() {
					continue
				}
				result := runTask(manifest, opts, t)
				mu.Lock()
				summary.Results = append(summary.Results, result)
				if result.Err != nil && nserrors.Is(result.Err, nserrors.KindVersionMismatch) && abort == nil {
					abort = result.Err
					aborted.Store(true)
				}
				printResult(progress, result)
				mu.Unlock()
			}
		}()
	}
	for _, t := range tasks {
		queue <- t
	}
	close(queue)
	wg.Wait()

	if abort != nil {
		return summary, abort
	}

	order := make(map[schema.Format]int, len(manifest.FormatList()))
	for i, format := range manifest.FormatList() {
		order[format] = i
	}
	sort.SliceStable(summary.Results, func(i, j int) bool {
		a, b := summary.Results[i], summary.Results[j]
		if order[a.Format] != order[b.Format] {
			return order[a.Format] < order[b.Format]
		}
		return a.Version.Compare(b.Version) < 0
	})
	return summary, nil
}

func selectVersions(all []schema.Version, requested []schema.Version) ([]schema.Version, error) {
	if len(requested) == 0 {
		return all, nil
	}
	known := make(map[schema.Version]bool, len(all))
	for _, v := range all {
		known[v] = true
	}
	out := make([]schema.Version, 0, len(requested))
	for _, v := range requested {
		if !known[v] {
			return nil, fmt.Errorf("version %s is not in the manifest (supported: %s..%s)", v, all[0], all[len(all)-1])
		}
		out = append(out, v)
	}
	schema.SortVersions(out)
	return out, nil
}

func runTask(manifest *config.Manifest, opts Options, t task) Result {
	result := Result{
		Format:  t.format,
		Version: t.version,
		Path:    filepath.Join(manifest.OutputDir(t.version), t.format.SchemaFileName()),
	}

	var doc *schema.Document
	if t.version == manifest.BaseVersion() {
		// The baseline is published as-is; only its $id is restamped to the
		// canonical published URL.
		doc = t.curated.Clone()
		if manifest.Spec.IDBase != "" {
			doc.ID = derive.CanonicalID(manifest.Spec.IDBase, t.format, t.version)
		}
	} else {
		diff, err := derive.Compute(t.rawBase, t.target)
		if err != nil {
			result.Err = err
			return result
		}
		doc, err = derive.Apply(t.curated, diff, t.target, derive.ApplyOptions{
			IDBase: manifest.Spec.IDBase,
			Ledger: t.ledger,
		})
		if err != nil {
			result.Err = err
			return result
		}
	}

	data, err := schema.EncodeDocument(doc)
	if err != nil {
		result.Err = err
		return result
	}
	if opts.Force {
		result.Outcome, result.Err = schema.WriteFile(result.Path, data)
	} else {
		result.Outcome, result.Err = schema.WriteFileIfChanged(result.Path, data)
	}
	return result
}

func printResult(w io.Writer, r Result) {
	switch {
	case r.Err != nil:
		fmt.Fprintf(w, "  ✗ %s %s: %v\n", r.Format.Stem(), r.Version, r.Err)
	case r.Outcome == schema.WriteUnchanged:
		fmt.Fprintf(w, "  - %s %s: unchanged\n", r.Format.Stem(), r.Version)
	default:
		fmt.Fprintf(w, "  ✓ %s %s: %s %s\n", r.Format.Stem(), r.Version, r.Outcome, r.Path)
	}
}
