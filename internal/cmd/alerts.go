package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/steveyegge/vigil/internal/alert"
	"github.com/steveyegge/vigil/internal/style"
)

var alertsCmd = &cobra.Command{
	Use:     "alerts",
	GroupID: GroupMonitor,
	Short:   "Show the current stall alerts",
	Long: `Show the alert artifact: one line per stopped worker with its
freshness age, as written by the last full cycle.`,
	RunE: runAlerts,
}

func init() {
	rootCmd.AddCommand(alertsCmd)
}

func runAlerts(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	lines, err := alert.NewWriter(cfg.AlertsFile()).Read()
	if err != nil {
		return err
	}

	if len(lines) == 0 {
		fmt.Printf("%s No stalled workers.\n", style.Bold.Render("✓"))
		return nil
	}

	fmt.Printf("%s %d stalled worker(s):\n", style.Error.Render("✗"), len(lines))
	for _, line := range lines {
		worker, age, _ := strings.Cut(line, "\t")
		fmt.Printf("  %s %s\n", style.Stopped.Render(worker), style.Dim.Render("stalled for "+age))
	}
	return nil
}
