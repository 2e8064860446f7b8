package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/steveyegge/vigil/internal/daemon"
	"github.com/steveyegge/vigil/internal/style"
)

var daemonCmd = &cobra.Command{
	Use:     "daemon",
	GroupID: GroupAdmin,
	Short:   "Manage the monitoring daemon",
	RunE:    requireSubcommand,
	Long: `Manage the background monitoring daemon.

The daemon runs a collection cycle every poll interval and a full
alert-and-enforcement cycle every enforce interval. One daemon runs
per state directory, guarded by a file lock.`,
}

var daemonForeground bool

var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the monitoring daemon",
	Long: `Start the monitoring daemon in the background.

Output goes to daemon.log under the state directory. Use --foreground
to run in the current terminal instead.`,
	RunE: runDaemonStart,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the monitoring daemon",
	RunE:  runDaemonStop,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check whether the daemon is running",
	RunE:  runDaemonStatus,
}

// daemonRunCmd is the hidden re-exec target for background starts.
var daemonRunCmd = &cobra.Command{
	Use:    "run",
	Hidden: true,
	RunE:   runDaemonRun,
}

func init() {
	daemonCmd.AddCommand(daemonStartCmd)
	daemonCmd.AddCommand(daemonStopCmd)
	daemonCmd.AddCommand(daemonStatusCmd)
	daemonCmd.AddCommand(daemonRunCmd)

	daemonStartCmd.Flags().BoolVar(&daemonForeground, "foreground", false, "Run in the foreground")

	rootCmd.AddCommand(daemonCmd)
}

func runDaemonStart(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if running, pid, err := daemon.IsRunning(cfg.DaemonDir()); err != nil {
		return err
	} else if running {
		return fmt.Errorf("daemon already running (PID %d)", pid)
	}

	if daemonForeground {
		d, err := daemon.New(cfg)
		if err != nil {
			return err
		}
		fmt.Printf("Running daemon in foreground (PID %d). Ctrl-C to stop.\n", os.Getpid())
		return d.Run()
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locating executable: %w", err)
	}

	childArgs := []string{"daemon", "run"}
	if configPath != "" {
		childArgs = append(childArgs, "--config", configPath)
	}
	child := exec.Command(exe, childArgs...)
	child.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	child.Stdout = nil
	child.Stderr = nil
	child.Stdin = nil
	if err := child.Start(); err != nil {
		return fmt.Errorf("starting daemon: %w", err)
	}
	// The child owns its lifetime; don't leave a zombie on our exit path.
	if err := child.Process.Release(); err != nil {
		return err
	}

	// Give the child a moment to take the lock and write its PID.
	time.Sleep(500 * time.Millisecond)
	running, pid, err := daemon.IsRunning(cfg.DaemonDir())
	if err != nil {
		return err
	}
	if !running {
		return fmt.Errorf("daemon failed to start; check %s", daemon.LogFile(cfg.DaemonDir()))
	}

	fmt.Printf("%s Daemon started (PID %d). Log: %s\n",
		style.Bold.Render("✓"), pid, style.Dim.Render(daemon.LogFile(cfg.DaemonDir())))
	return nil
}

func runDaemonRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	d, err := daemon.New(cfg)
	if err != nil {
		return err
	}
	return d.Run()
}

func runDaemonStop(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Println("Stopping daemon...")
	if err := daemon.StopDaemon(cfg.DaemonDir()); err != nil {
		return err
	}
	fmt.Printf("%s Daemon stopped.\n", style.Bold.Render("✓"))
	return nil
}

func runDaemonStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	running, pid, err := daemon.IsRunning(cfg.DaemonDir())
	if err != nil {
		return err
	}
	if !running {
		fmt.Println("Daemon is not running.")
		return nil
	}

	fmt.Printf("%s Daemon running (PID %d)\n", style.Bold.Render("✓"), pid)

	state, err := daemon.LoadState(cfg.DaemonDir())
	if err != nil || state == nil {
		return nil
	}
	fmt.Printf("  Started:  %s\n", state.StartedAt.Format(time.RFC1123))
	if !state.LastCycleAt.IsZero() {
		fmt.Printf("  Last cycle: %v ago (%d total)\n",
			time.Since(state.LastCycleAt).Round(time.Second), state.CycleCount)
	}
	if state.PersistFailures > 0 {
		fmt.Printf("  %s %d consecutive persist failure(s)\n",
			style.Warning.Render("!"), state.PersistFailures)
	}
	return nil
}
