// Package cmd implements the vg command-line interface.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/steveyegge/vigil/internal/config"
	"github.com/steveyegge/vigil/internal/style"
)

// Command group IDs for help output.
const (
	GroupMonitor = "monitor"
	GroupAdmin   = "admin"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "vg",
	Short: "Liveness monitoring for long-running workers",
	Long: `vg watches a fleet of workers through their observable side effects
(worktree activity, session logs, commits), classifies each as active,
idle, or stopped, and escalates enforcement when a worker stalls.

Run 'vg daemon start' for continuous monitoring, or 'vg pulse' and
'vg enforce' for one-shot cycles.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddGroup(&cobra.Group{ID: GroupMonitor, Title: "Monitoring Commands:"})
	rootCmd.AddGroup(&cobra.Group{ID: GroupAdmin, Title: "Administration Commands:"})

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Config file path (default: vigil.toml in the current directory)")
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", style.Error.Render("Error:"), err)
		return 1
	}
	return 0
}

// requireSubcommand is the RunE for commands that only group subcommands.
func requireSubcommand(cmd *cobra.Command, args []string) error {
	return cmd.Help()
}

// loadConfig resolves the --config flag (or the well-known name in the
// current directory) and loads it. A missing file is not an error; the
// defaults root every artifact next to the expected config location.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(cwd, config.ConfigFileName)
	}
	return config.Load(path)
}
