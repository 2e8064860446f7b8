// Package doctor diagnoses a Vigil installation: config, registry,
// artifact health, and daemon bookkeeping.
package doctor

import (
	"time"

	"github.com/steveyegge/vigil/internal/config"
)

// Status is the outcome of a single check.
type Status string

const (
	StatusOK      Status = "ok"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

// Check categories group related checks in report output.
const (
	CategoryConfig    = "configuration"
	CategoryArtifacts = "artifacts"
	CategoryDaemon    = "daemon"
)

// CheckContext carries the environment checks run against.
type CheckContext struct {
	Config *config.Config
	Now    time.Time
}

// CheckResult is the outcome of one check run.
type CheckResult struct {
	Name     string
	Status   Status
	Message  string
	Details  []string
	FixHint  string
	Category string
}

// Check is a single diagnostic.
type Check interface {
	Name() string
	Description() string
	Category() string
	Run(ctx *CheckContext) *CheckResult
}

// Fixable is a check that can repair what it detects. Fix runs only
// after Run reported a non-OK status in the same invocation.
type Fixable interface {
	Check
	Fix(ctx *CheckContext) error
}

// BaseCheck provides the identity boilerplate for checks.
type BaseCheck struct {
	CheckName        string
	CheckDescription string
	CheckCategory    string
}

func (b *BaseCheck) Name() string        { return b.CheckName }
func (b *BaseCheck) Description() string { return b.CheckDescription }
func (b *BaseCheck) Category() string    { return b.CheckCategory }

// FixableCheck marks a check as fixable in addition to BaseCheck.
type FixableCheck struct {
	BaseCheck
}

// AllChecks returns the full diagnostic suite in report order.
func AllChecks() []Check {
	return []Check{
		NewConfigCheck(),
		NewRegistryCheck(),
		NewLocatorCheck(),
		NewHeartbeatCheck(),
		NewTempFileCheck(),
		NewDaemonCheck(),
	}
}

// Run executes every check and returns the results in order.
func Run(ctx *CheckContext, checks []Check) []*CheckResult {
	results := make([]*CheckResult, 0, len(checks))
	for _, c := range checks {
		results = append(results, c.Run(ctx))
	}
	return results
}
