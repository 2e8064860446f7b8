package doctor

import (
	"fmt"
	"os"
	"time"

	"github.com/steveyegge/vigil/internal/pulse"
)

// HeartbeatCheck verifies the published heartbeat document parses and is
// fresh relative to the poll interval. A stale document means readers
// are acting on old states even though every file looks healthy.
type HeartbeatCheck struct {
	BaseCheck
}

// NewHeartbeatCheck creates the heartbeat freshness check.
func NewHeartbeatCheck() *HeartbeatCheck {
	return &HeartbeatCheck{
		BaseCheck: BaseCheck{
			CheckName:        "heartbeat",
			CheckDescription: "Verify the heartbeat document is parseable and fresh",
			CheckCategory:    CategoryArtifacts,
		},
	}
}

func (c *HeartbeatCheck) Run(ctx *CheckContext) *CheckResult {
	path := ctx.Config.HeartbeatFile()

	doc, err := pulse.LoadDocument(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &CheckResult{
				Name:     c.Name(),
				Status:   StatusWarning,
				Message:  "No heartbeat document published yet",
				FixHint:  "Run 'vg pulse' or start the daemon",
				Category: c.CheckCategory,
			}
		}
		return &CheckResult{
			Name:     c.Name(),
			Status:   StatusError,
			Message:  "Heartbeat document is unreadable",
			Details:  []string{err.Error()},
			FixHint:  "The next completed cycle replaces it atomically",
			Category: c.CheckCategory,
		}
	}

	if doc.Type != pulse.DocumentType {
		return &CheckResult{
			Name:     c.Name(),
			Status:   StatusError,
			Message:  fmt.Sprintf("Unexpected document type %q at %s", doc.Type, path),
			Category: c.CheckCategory,
		}
	}

	// Three missed polls is the freshness line: one in-flight cycle plus
	// scheduling slop never exceeds it.
	staleAfter := 3 * ctx.Config.Daemon.PollInterval.Std()
	age := ctx.Now.Sub(doc.GeneratedAt)
	if age > staleAfter {
		return &CheckResult{
			Name:     c.Name(),
			Status:   StatusWarning,
			Message:  fmt.Sprintf("Heartbeat is stale (%v old, expected under %v)", age.Round(time.Second), staleAfter),
			FixHint:  "Check 'vg daemon status'",
			Category: c.CheckCategory,
		}
	}

	return &CheckResult{
		Name:     c.Name(),
		Status:   StatusOK,
		Message:  fmt.Sprintf("Heartbeat fresh (%d worker(s), %v old)", len(doc.Workers), age.Round(time.Second)),
		Category: c.CheckCategory,
	}
}
