package doctor

import (
	"fmt"
	"os"
	"strconv"
	"syscall"

	"github.com/steveyegge/vigil/internal/daemon"
)

// DaemonCheck verifies daemon bookkeeping matches reality: a PID file
// must belong to a live process, and the saved state must agree.
type DaemonCheck struct {
	FixableCheck
	stalePid   bool
	staleState bool
}

// NewDaemonCheck creates the daemon bookkeeping check.
func NewDaemonCheck() *DaemonCheck {
	return &DaemonCheck{
		FixableCheck: FixableCheck{
			BaseCheck: BaseCheck{
				CheckName:        "daemon",
				CheckDescription: "Verify daemon PID file and saved state match reality",
				CheckCategory:    CategoryDaemon,
			},
		},
	}
}

func (c *DaemonCheck) Run(ctx *CheckContext) *CheckResult {
	daemonDir := ctx.Config.DaemonDir()
	c.stalePid = false
	c.staleState = false

	var details []string

	// Probe the PID file directly rather than via IsRunning, which
	// self-cleans and would hide the finding.
	alive := false
	var pid int
	if data, err := os.ReadFile(daemon.PidFile(daemonDir)); err == nil {
		pid, err = strconv.Atoi(string(data))
		if err != nil {
			c.stalePid = true
			details = append(details, "PID file is unparsable")
		} else if process, err := os.FindProcess(pid); err == nil {
			if err := process.Signal(syscall.Signal(0)); err == nil {
				alive = true
			} else {
				c.stalePid = true
				details = append(details, fmt.Sprintf("PID file names dead process %d", pid))
			}
		}
	}

	state, err := daemon.LoadState(daemonDir)
	if err != nil {
		details = append(details, fmt.Sprintf("daemon state unreadable: %v", err))
	} else if state != nil && state.Running && !alive {
		c.staleState = true
		details = append(details, "saved state says running but no daemon process is alive")
	}

	if alive && state != nil && state.PersistFailures > 0 {
		return &CheckResult{
			Name:     c.Name(),
			Status:   StatusWarning,
			Message:  fmt.Sprintf("Daemon running (PID %d) with %d consecutive cycle failure(s)", pid, state.PersistFailures),
			FixHint:  "Check the daemon log for the failing artifact path",
			Category: c.CheckCategory,
		}
	}

	if len(details) > 0 {
		return &CheckResult{
			Name:     c.Name(),
			Status:   StatusWarning,
			Message:  "Stale daemon bookkeeping",
			Details:  details,
			FixHint:  "Run 'vg doctor --fix' to clean up",
			Category: c.CheckCategory,
		}
	}

	msg := "Daemon not running"
	if alive {
		msg = fmt.Sprintf("Daemon running (PID %d)", pid)
	}
	return &CheckResult{
		Name:     c.Name(),
		Status:   StatusOK,
		Message:  msg,
		Category: c.CheckCategory,
	}
}

// Fix removes the stale PID file and corrects the saved state.
func (c *DaemonCheck) Fix(ctx *CheckContext) error {
	daemonDir := ctx.Config.DaemonDir()

	if c.stalePid {
		if err := os.Remove(daemon.PidFile(daemonDir)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	if c.staleState {
		state, err := daemon.LoadState(daemonDir)
		if err != nil || state == nil {
			return err
		}
		state.Running = false
		return daemon.SaveState(daemonDir, state)
	}
	return nil
}
