package cmd

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/steveyegge/vigil/internal/daemon"
	"github.com/steveyegge/vigil/internal/style"
)

var enforceCmd = &cobra.Command{
	Use:     "enforce",
	GroupID: GroupMonitor,
	Short:   "Run one full cycle: collect, alert, enforce",
	Long: `Run a full monitoring cycle.

Collects and classifies every worker, replaces the heartbeat document
and the alert artifact, then applies the escalation rules against the
enforcement ledger. Actions are logged and written to the outbox.`,
	RunE: runEnforce,
}

func init() {
	rootCmd.AddCommand(enforceCmd)
}

func runEnforce(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	core, err := daemon.NewCore(cfg, log.New(os.Stderr, "", 0))
	if err != nil {
		return err
	}

	doc, actions, err := core.Enforce(cmd.Context(), time.Now())
	if err != nil {
		return err
	}

	printCycleSummary(doc)

	if len(actions) == 0 {
		fmt.Println("\nNo enforcement actions this cycle.")
		return nil
	}
	fmt.Printf("\n%s %d enforcement action(s):\n", style.Bold.Render("⚡"), len(actions))
	for _, a := range actions {
		fmt.Printf("  %s %s (level %d, %s for %d cycle(s))\n",
			style.ForState(a.State).Render(a.Worker),
			style.Bold.Render(string(a.Kind)), a.Level, a.State, a.ConsecutiveCycles)
	}
	fmt.Printf("\nOutbox: %s\n", style.Dim.Render(cfg.OutboxDir()))
	return nil
}
