package daemon

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/steveyegge/vigil/internal/config"
)

// Daemon is the periodic driver loop. Collection runs every poll
// interval; alerts and enforcement run on ticks spaced at least the
// enforce interval apart. Shutdown is graceful: the in-flight cycle
// finishes before the loop exits, so the atomic document swap is never
// abandoned halfway.
type Daemon struct {
	core   *Core
	logger *log.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a daemon around a wired core, logging to the daemon log
// file under the configured state dir.
func New(cfg *config.Config) (*Daemon, error) {
	daemonDir := cfg.DaemonDir()
	if err := os.MkdirAll(daemonDir, 0755); err != nil {
		return nil, fmt.Errorf("creating daemon directory: %w", err)
	}

	logFile, err := os.OpenFile(LogFile(daemonDir), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("opening daemon log: %w", err)
	}
	logger := log.New(logFile, "", log.LstdFlags)

	core, err := NewCore(cfg, logger)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Daemon{core: core, logger: logger, ctx: ctx, cancel: cancel}, nil
}

// Run starts the daemon main loop and blocks until shutdown.
func (d *Daemon) Run() error {
	cfg := d.core.Config
	daemonDir := cfg.DaemonDir()
	d.logger.Printf("Daemon starting (PID %d), monitoring %d worker(s)", os.Getpid(), d.core.Registry.Len())

	// Exclusive lock prevents two daemons racing past an IsRunning
	// check before either writes its PID file.
	fileLock := flock.New(LockFile(daemonDir))
	locked, err := fileLock.TryLock()
	if err != nil {
		return fmt.Errorf("acquiring lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("daemon already running (lock held by another process)")
	}
	defer func() { _ = fileLock.Unlock() }()

	if err := os.WriteFile(PidFile(daemonDir), []byte(strconv.Itoa(os.Getpid())), 0644); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer func() { _ = os.Remove(PidFile(daemonDir)) }() // best-effort cleanup

	state := &State{
		Running:   true,
		PID:       os.Getpid(),
		StartedAt: time.Now(),
	}
	if err := SaveState(daemonDir, state); err != nil {
		d.logger.Printf("Warning: failed to save state: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	pollInterval := cfg.Daemon.PollInterval.Std()
	enforceInterval := cfg.Daemon.EnforceInterval.Std()
	d.logger.Printf("Daemon running, poll interval %v, enforce interval %v", pollInterval, enforceInterval)

	timer := time.NewTimer(pollInterval)
	defer timer.Stop()

	// Initial full cycle so a fresh daemon publishes status immediately.
	var lastEnforce time.Time
	lastEnforce = d.tick(state, daemonDir, lastEnforce, enforceInterval)

	for {
		select {
		case <-d.ctx.Done():
			d.logger.Println("Daemon context canceled, shutting down")
			return d.shutdown(daemonDir, state)

		case sig := <-sigChan:
			d.logger.Printf("Received signal %v, shutting down", sig)
			return d.shutdown(daemonDir, state)

		case <-timer.C:
			lastEnforce = d.tick(state, daemonDir, lastEnforce, enforceInterval)
			timer.Reset(pollInterval)
		}
	}
}

// tick runs one cycle: always collection, plus enforcement when the
// enforce interval has elapsed. Returns the updated last-enforce time.
func (d *Daemon) tick(state *State, daemonDir string, lastEnforce time.Time, enforceInterval time.Duration) time.Time {
	now := time.Now()
	enforcing := now.Sub(lastEnforce) >= enforceInterval

	var err error
	if enforcing {
		_, actions, enforceErr := d.core.Enforce(d.ctx, now)
		err = enforceErr
		if len(actions) > 0 {
			d.logger.Printf("Cycle emitted %d enforcement action(s)", len(actions))
		}
	} else {
		_, err = d.core.Collect(d.ctx, now)
	}

	if err != nil {
		state.PersistFailures++
		d.logger.Printf("Warning: cycle error (%d consecutive): %v", state.PersistFailures, err)
	} else {
		state.PersistFailures = 0
		state.CycleCount++
		state.LastCycleAt = now
		if enforcing {
			lastEnforce = now
		}
	}

	if err := SaveState(daemonDir, state); err != nil {
		d.logger.Printf("Warning: failed to save state: %v", err)
	}
	return lastEnforce
}

// shutdown finishes bookkeeping after the in-flight cycle completed.
func (d *Daemon) shutdown(daemonDir string, state *State) error {
	state.Running = false
	if err := SaveState(daemonDir, state); err != nil {
		d.logger.Printf("Warning: failed to save final state: %v", err)
	}
	d.logger.Println("Daemon stopped")
	return nil
}

// Stop signals the daemon to stop.
func (d *Daemon) Stop() {
	d.cancel()
}

// IsRunning checks the PID file and verifies the process is alive.
// The file lock in Run is the authoritative duplicate guard; this is
// for status checks and cleanup.
func IsRunning(daemonDir string) (bool, int, error) {
	data, err := os.ReadFile(PidFile(daemonDir))
	if err != nil {
		if os.IsNotExist(err) {
			return false, 0, nil
		}
		return false, 0, err
	}

	pid, err := strconv.Atoi(string(data))
	if err != nil {
		return false, 0, nil
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false, 0, nil
	}

	// On Unix FindProcess always succeeds; signal 0 probes liveness.
	if err := process.Signal(syscall.Signal(0)); err != nil {
		_ = os.Remove(PidFile(daemonDir)) // stale PID file
		return false, 0, nil
	}
	return true, pid, nil
}

// StopDaemon stops the running daemon for the given state dir.
func StopDaemon(daemonDir string) error {
	running, pid, err := IsRunning(daemonDir)
	if err != nil {
		return err
	}
	if !running {
		return fmt.Errorf("daemon is not running")
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("finding process: %w", err)
	}

	// SIGTERM first; the loop finishes its in-flight cycle.
	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("sending SIGTERM: %w", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if err := process.Signal(syscall.Signal(0)); err != nil {
			break // exited
		}
		time.Sleep(100 * time.Millisecond)
	}

	if err := process.Signal(syscall.Signal(0)); err == nil {
		_ = process.Signal(syscall.SIGKILL)
	}

	_ = os.Remove(PidFile(daemonDir))
	return nil
}
