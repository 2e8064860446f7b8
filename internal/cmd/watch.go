package cmd

import (
	"github.com/spf13/cobra"
	"github.com/steveyegge/vigil/internal/tui"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	GroupID: GroupMonitor,
	Short:   "Live dashboard of worker states",
	Long: `Open a full-screen dashboard that follows the heartbeat document.

The dashboard re-reads the published document every few seconds; run
the daemon (or 'vg pulse' in a loop) to keep it fresh. Quit with q.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return tui.Run(cfg.HeartbeatFile())
}
