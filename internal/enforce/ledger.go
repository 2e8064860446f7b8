package enforce

import (
	"os"
	"time"

	"github.com/steveyegge/vigil/internal/liveness"
	"github.com/steveyegge/vigil/internal/util"
)

// Entry tracks one worker's escalation history across cycles. It exists
// so escalation is monotonic: a worker that keeps failing gets
// progressively stronger intervention, not repeated identical nudges.
type Entry struct {
	// State is the degraded state the worker was last observed in.
	State liveness.State `json:"state"`

	// ConsecutiveCycles counts cycles the worker has remained in State.
	ConsecutiveCycles int `json:"consecutive_cycles"`

	// LastLevel is the highest escalation level successfully applied in
	// this episode. Zero means none yet.
	LastLevel int `json:"last_level"`

	// LastActionAt is when the last action was applied.
	LastActionAt *time.Time `json:"last_action_at,omitempty"`
}

// ledgerFile is the on-disk shape.
type ledgerFile struct {
	Type    string            `json:"type"`
	Version int               `json:"version"`
	Workers map[string]*Entry `json:"workers"`
}

const ledgerType = "vigil-ledger"

// Ledger is the enforcement engine's persisted escalation memory.
// It is mutated only by the engine, sequentially, once per cycle.
type Ledger struct {
	path    string
	entries map[string]*Entry
}

// LoadLedger reads the ledger at path. A missing file is an empty ledger.
func LoadLedger(path string) (*Ledger, error) {
	l := &Ledger{path: path, entries: make(map[string]*Entry)}

	var parsed ledgerFile
	if err := util.ReadJSON(path, &parsed); err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		return nil, err
	}
	if parsed.Workers != nil {
		l.entries = parsed.Workers
	}
	return l, nil
}

// Save persists the ledger atomically.
func (l *Ledger) Save() error {
	return util.AtomicWriteJSON(l.path, ledgerFile{
		Type:    ledgerType,
		Version: 1,
		Workers: l.entries,
	})
}

// Entry returns the ledger entry for a worker, or nil.
func (l *Ledger) Entry(worker string) *Entry {
	return l.entries[worker]
}

// set replaces a worker's entry.
func (l *Ledger) set(worker string, e *Entry) {
	l.entries[worker] = e
}

// reset clears a worker's escalation history (recovery).
func (l *Ledger) reset(worker string) {
	delete(l.entries, worker)
}
