package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"github.com/steveyegge/vigil/internal/registry"
	"github.com/steveyegge/vigil/internal/style"
)

var workersCmd = &cobra.Command{
	Use:     "workers",
	Aliases: []string{"w"},
	GroupID: GroupAdmin,
	Short:   "List the registered workers and their signal sources",
	RunE:    runWorkers,
}

func init() {
	rootCmd.AddCommand(workersCmd)
}

func runWorkers(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	reg, err := registry.Load(cfg.Registry)
	if err != nil {
		return err
	}

	names := reg.Workers()
	fmt.Printf("%s %d worker(s) in %s\n", style.Bold.Render("Registry:"),
		reg.Len(), style.Dim.Render(cfg.Registry))

	for _, name := range names {
		fmt.Printf("\n  %s\n", style.Bold.Render(name))
		locators := reg.Locators(name)
		sources := make([]string, 0, len(locators))
		for src := range locators {
			sources = append(sources, src)
		}
		sort.Strings(sources)
		for _, src := range sources {
			fmt.Printf("    %-12s %s\n", src, style.Dim.Render(locators[src]))
		}
	}

	skipped := reg.Skipped()
	if len(skipped) > 0 {
		skippedNames := make([]string, 0, len(skipped))
		for name := range skipped {
			skippedNames = append(skippedNames, name)
		}
		sort.Strings(skippedNames)
		fmt.Println()
		for _, name := range skippedNames {
			fmt.Printf("  %s %s skipped: %s\n", style.Warning.Render("!"), name, skipped[name])
		}
	}
	return nil
}
