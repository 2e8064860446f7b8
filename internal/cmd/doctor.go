package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/steveyegge/vigil/internal/doctor"
	"github.com/steveyegge/vigil/internal/style"
)

var doctorFix bool

var doctorCmd = &cobra.Command{
	Use:     "doctor",
	GroupID: GroupAdmin,
	Short:   "Diagnose installation and artifact health",
	Long: `Run diagnostic checks over the configuration, registry, published
artifacts, and daemon bookkeeping. With --fix, checks that know how to
repair their findings (stale temp files, dead PID files) do so.`,
	RunE: runDoctor,
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "Repair fixable problems")
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := &doctor.CheckContext{Config: cfg, Now: time.Now()}
	checks := doctor.AllChecks()

	var problems int
	lastCategory := ""
	for _, check := range checks {
		result := check.Run(ctx)

		if result.Category != lastCategory {
			fmt.Printf("\n%s\n", style.Bold.Render(result.Category))
			lastCategory = result.Category
		}

		fmt.Printf("  %s %s: %s\n", statusGlyph(result.Status), result.Name, result.Message)
		for _, d := range result.Details {
			fmt.Printf("      %s\n", style.Dim.Render(d))
		}

		if result.Status == doctor.StatusOK {
			continue
		}
		problems++

		fixable, ok := check.(doctor.Fixable)
		if doctorFix && ok {
			if err := fixable.Fix(ctx); err != nil {
				fmt.Printf("      %s fix failed: %v\n", style.Error.Render("✗"), err)
			} else {
				fmt.Printf("      %s fixed\n", style.Bold.Render("✓"))
				problems--
			}
		} else if result.FixHint != "" {
			fmt.Printf("      %s\n", style.Dim.Render(result.FixHint))
		}
	}

	fmt.Println()
	if problems == 0 {
		fmt.Printf("%s All checks passed.\n", style.Bold.Render("✓"))
		return nil
	}
	fmt.Printf("%s %d problem(s) remain.\n", style.Warning.Render("!"), problems)
	return nil
}

func statusGlyph(s doctor.Status) string {
	switch s {
	case doctor.StatusOK:
		return style.Bold.Render("✓")
	case doctor.StatusWarning:
		return style.Warning.Render("!")
	default:
		return style.Error.Render("✗")
	}
}
