package cmd

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/steveyegge/vigil/internal/daemon"
	"github.com/steveyegge/vigil/internal/liveness"
	"github.com/steveyegge/vigil/internal/pulse"
	"github.com/steveyegge/vigil/internal/style"
)

var pulseCmd = &cobra.Command{
	Use:     "pulse",
	GroupID: GroupMonitor,
	Short:   "Run one collection cycle",
	Long: `Run a single collection and classification cycle.

Queries every configured signal source for every registered worker,
classifies each worker, and atomically replaces the heartbeat document.
Alerts and enforcement do not run; use 'vg enforce' for a full cycle.`,
	RunE: runPulse,
}

func init() {
	rootCmd.AddCommand(pulseCmd)
}

func runPulse(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	core, err := daemon.NewCore(cfg, log.New(os.Stderr, "", 0))
	if err != nil {
		return err
	}

	doc, err := core.Collect(cmd.Context(), time.Now())
	if err != nil {
		return err
	}

	printCycleSummary(doc)
	fmt.Printf("\nHeartbeat: %s\n", style.Dim.Render(cfg.HeartbeatFile()))
	return nil
}

// printCycleSummary prints the per-state worker counts for a cycle.
func printCycleSummary(doc *pulse.Document) {
	states := []liveness.State{liveness.StateActive, liveness.StateIdle, liveness.StateStopped}

	fmt.Printf("%s %d worker(s) classified\n", style.Bold.Render("✓"), len(doc.Workers))
	for _, s := range states {
		names := doc.WorkersInState(s)
		if len(names) == 0 {
			continue
		}
		fmt.Printf("  %s %d", style.ForState(s).Render(string(s)), len(names))
		for _, name := range names {
			fmt.Printf(" %s", name)
		}
		fmt.Println()
	}
	for _, diag := range doc.Diagnostics {
		fmt.Printf("  %s %s\n", style.Warning.Render("!"), diag)
	}
}
