package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/steveyegge/vigil/internal/liveness"
	"github.com/steveyegge/vigil/internal/pulse"
	"github.com/steveyegge/vigil/internal/style"
	"golang.org/x/term"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	Aliases: []string{"st"},
	GroupID: GroupMonitor,
	Short:   "Show the last published worker states",
	Long: `Show the most recent heartbeat document.

Reads the published document without running a cycle, so the output
reflects the last pulse (possibly from the daemon). Use 'vg pulse'
first for fresh data.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	doc, err := pulse.LoadDocument(cfg.HeartbeatFile())
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no heartbeat document yet; run 'vg pulse' or start the daemon")
		}
		return err
	}

	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = w
	}

	age := time.Since(doc.GeneratedAt).Round(time.Second)
	fmt.Printf("%s %s\n", style.Bold.Render("Worker Status"),
		style.Dim.Render(fmt.Sprintf("(cycle %s, %v ago)", shortID(doc.CycleID), age)))
	fmt.Println(style.Dim.Render(strings.Repeat("─", min(width, 60))))

	names := doc.WorkerNames()
	if len(names) == 0 {
		fmt.Println("No workers in the registry.")
		return nil
	}

	nameWidth := 0
	for _, name := range names {
		if len(name) > nameWidth {
			nameWidth = len(name)
		}
	}

	titler := cases.Title(language.English)
	for _, name := range names {
		snap := doc.Workers[name]
		state := style.ForState(snap.State).Render(titler.String(string(snap.State)))
		seen := "never seen"
		if snap.FreshnessAge != nil {
			seen = "last seen " + liveness.FormatAge(snap.FreshnessAge) + " ago"
		}
		fmt.Printf("  %-*s  %-18s %s\n", nameWidth, name, state, style.Dim.Render(seen))
		for _, src := range sortedSignalNames(snap) {
			fmt.Printf("  %-*s    %s %s\n", nameWidth, "",
				style.Dim.Render(src+":"), formatSignal(snap.Signals[src], doc.GeneratedAt))
		}
		for _, e := range snap.Errors {
			fmt.Printf("  %-*s    %s %s\n", nameWidth, "", style.Warning.Render("!"), e)
		}
	}

	for _, diag := range doc.Diagnostics {
		fmt.Printf("\n%s %s\n", style.Warning.Render("!"), diag)
	}
	return nil
}

func sortedSignalNames(snap *pulse.Snapshot) []string {
	names := make([]string, 0, len(snap.Signals))
	for name := range snap.Signals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func formatSignal(ts *time.Time, now time.Time) string {
	if ts == nil {
		return "unknown"
	}
	return now.Sub(*ts).Round(time.Second).String() + " ago"
}

// shortID abbreviates a cycle UUID for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
