package daemon

import (
	"os"
	"path/filepath"
	"time"

	"github.com/steveyegge/vigil/internal/util"
)

// State is the daemon's persisted bookkeeping, reconciled against
// reality (PID liveness) when read back for status display.
type State struct {
	Running bool      `json:"running"`
	PID     int       `json:"pid"`
	StartedAt time.Time `json:"started_at"`

	// LastCycleAt is when the most recent collection cycle completed.
	LastCycleAt time.Time `json:"last_cycle_at,omitempty"`

	// CycleCount counts completed collection cycles this session.
	CycleCount int `json:"cycle_count"`

	// PersistFailures counts consecutive heartbeat persist failures.
	// Non-zero values are a system-health concern, not a crash.
	PersistFailures int `json:"persist_failures,omitempty"`
}

// StateFile returns the daemon state path under its bookkeeping dir.
func StateFile(daemonDir string) string {
	return filepath.Join(daemonDir, "state.json")
}

// PidFile returns the daemon PID file path.
func PidFile(daemonDir string) string {
	return filepath.Join(daemonDir, "daemon.pid")
}

// LockFile returns the daemon singleton lock path.
func LockFile(daemonDir string) string {
	return filepath.Join(daemonDir, "daemon.lock")
}

// LogFile returns the daemon log path.
func LogFile(daemonDir string) string {
	return filepath.Join(daemonDir, "daemon.log")
}

// SaveState persists daemon state atomically.
func SaveState(daemonDir string, s *State) error {
	return util.AtomicWriteJSON(StateFile(daemonDir), s)
}

// LoadState reads daemon state. A missing file is a nil state.
func LoadState(daemonDir string) (*State, error) {
	var s State
	if err := util.ReadJSON(StateFile(daemonDir), &s); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}
