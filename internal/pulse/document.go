// Package pulse collects activity signals and aggregates them into the
// per-cycle heartbeat document.
package pulse

import (
	"sort"
	"time"

	"github.com/steveyegge/vigil/internal/liveness"
	"github.com/steveyegge/vigil/internal/util"
)

// DocumentType identifies heartbeat documents on disk.
const DocumentType = "vigil-heartbeat"

// DocumentVersion is bumped on incompatible format changes.
const DocumentVersion = 1

// Snapshot is one worker's view for one cycle. Created fresh every cycle
// and never mutated; the next cycle's snapshot supersedes it entirely.
type Snapshot struct {
	// Signals maps source name to last observed activity. A nil entry
	// means the source was unknown (unreachable, timed out, or had no
	// record) this cycle.
	Signals map[string]*time.Time `json:"signals"`

	// FreshnessAge is now minus the newest known signal. Nil means no
	// source has ever reported for this worker.
	FreshnessAge *time.Duration `json:"freshness_age"`

	// State is the derived liveness classification.
	State liveness.State `json:"state"`

	// Errors records per-source failures for diagnostics. Failures here
	// never fail the cycle; they only degrade signals to unknown.
	Errors []string `json:"errors,omitempty"`
}

// Document is the full-cycle collection of all workers' snapshots.
// It is the subsystem's single source of truth for current status and is
// replaced wholesale, never patched, each cycle.
type Document struct {
	Type        string               `json:"type"`
	Version     int                  `json:"version"`
	CycleID     string               `json:"cycle_id"`
	GeneratedAt time.Time            `json:"generated_at"`
	Thresholds  liveness.Thresholds  `json:"thresholds"`
	Workers     map[string]*Snapshot `json:"workers"`

	// Diagnostics carries cycle-level problems (skipped registry entries)
	// that are not attributable to a single source.
	Diagnostics []string `json:"diagnostics,omitempty"`
}

// Save persists the document atomically. Concurrent readers see either
// the previous document or this one, never a partial write.
func (d *Document) Save(path string) error {
	return util.AtomicWriteJSON(path, d)
}

// LoadDocument reads a heartbeat document from disk.
func LoadDocument(path string) (*Document, error) {
	var doc Document
	if err := util.ReadJSON(path, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// WorkerNames returns the document's worker names, sorted.
func (d *Document) WorkerNames() []string {
	names := make([]string, 0, len(d.Workers))
	for name := range d.Workers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WorkersInState returns the names of workers currently in state, sorted.
func (d *Document) WorkersInState(state liveness.State) []string {
	var names []string
	for name, snap := range d.Workers {
		if snap.State == state {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// SameStates reports whether two documents carry identical per-worker
// signals, ages, and states under the same thresholds. Cycle ID and
// generation time are cycle identity, not content, and are ignored.
func (d *Document) SameStates(other *Document) bool {
	if other == nil || d.Thresholds != other.Thresholds || len(d.Workers) != len(other.Workers) {
		return false
	}
	for name, snap := range d.Workers {
		o, ok := other.Workers[name]
		if !ok || snap.State != o.State {
			return false
		}
		if !sameAge(snap.FreshnessAge, o.FreshnessAge) {
			return false
		}
		if !sameSignals(snap.Signals, o.Signals) {
			return false
		}
	}
	return true
}

func sameAge(a, b *time.Duration) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func sameSignals(a, b map[string]*time.Time) bool {
	if len(a) != len(b) {
		return false
	}
	for src, ts := range a {
		o, ok := b[src]
		if !ok {
			return false
		}
		if ts == nil || o == nil {
			if ts != nil || o != nil {
				return false
			}
			continue
		}
		if !ts.Equal(*o) {
			return false
		}
	}
	return true
}
