package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

var rulesCmd = &cobra.Command{
	Use:     "rules",
	GroupID: GroupAdmin,
	Short:   "Show the escalation rule table",
	Long: `Show the escalation rules in effect, either from the config file's
[[escalation]] entries or the built-in defaults.

A rule fires once a worker has spent at least min_cycles consecutive
enforcement cycles in the rule's state, and only when its action
outranks the last action already taken for the stall.`,
	RunE: runRules,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}

func runRules(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rules, err := cfg.EscalationRules()
	if err != nil {
		return err
	}

	var md strings.Builder
	md.WriteString("# Escalation Rules\n\n")
	md.WriteString(fmt.Sprintf("Thresholds: active ≤ %v, idle ≤ %v, stopped beyond.\n\n",
		cfg.Thresholds.Active.Std(), cfg.Thresholds.Idle.Std()))
	md.WriteString("| State | After cycles | Action | Level |\n")
	md.WriteString("|-------|-------------:|--------|------:|\n")
	for _, r := range rules {
		md.WriteString(fmt.Sprintf("| %s | %d | %s | %d |\n",
			r.State, r.MinCycles, r.Action, r.Action.Level()))
	}
	md.WriteString("\nEnforcement runs every " + cfg.Daemon.EnforceInterval.Std().String() +
		"; a worker returning to active resets its ledger entry.\n")

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return err
	}
	out, err := renderer.Render(md.String())
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}
