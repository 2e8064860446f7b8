package doctor

import (
	"fmt"
	"os"

	"github.com/steveyegge/vigil/internal/registry"
	"github.com/steveyegge/vigil/internal/source"
)

// LocatorCheck verifies that each registered locator points at something
// that exists. A missing path is only a warning: sources report no
// record for it, which classifies the worker stopped rather than
// failing the cycle, but it usually means a typo in the registry.
type LocatorCheck struct {
	BaseCheck
}

// NewLocatorCheck creates the locator reachability check.
func NewLocatorCheck() *LocatorCheck {
	return &LocatorCheck{
		BaseCheck: BaseCheck{
			CheckName:        "locators",
			CheckDescription: "Verify registered signal locators exist",
			CheckCategory:    CategoryConfig,
		},
	}
}

func (c *LocatorCheck) Run(ctx *CheckContext) *CheckResult {
	reg, err := registry.Load(ctx.Config.Registry)
	if err != nil {
		// The registry check owns reporting load failures.
		return &CheckResult{
			Name:     c.Name(),
			Status:   StatusWarning,
			Message:  "Registry unavailable; locators not checked",
			Category: c.CheckCategory,
		}
	}

	known := make(map[string]bool)
	for _, name := range source.Names() {
		known[name] = true
	}

	var details []string
	var checked int
	for _, worker := range reg.Workers() {
		for src, locator := range reg.Locators(worker) {
			if !known[src] {
				details = append(details, fmt.Sprintf("%s: unknown source %q", worker, src))
				continue
			}
			checked++
			if _, err := os.Stat(locator); err != nil {
				details = append(details, fmt.Sprintf("%s: %s locator %s: %v", worker, src, locator, err))
			}
		}
	}

	if len(details) > 0 {
		return &CheckResult{
			Name:     c.Name(),
			Status:   StatusWarning,
			Message:  fmt.Sprintf("%d locator problem(s)", len(details)),
			Details:  details,
			FixHint:  "Affected sources report no record; fix the paths in the registry",
			Category: c.CheckCategory,
		}
	}

	return &CheckResult{
		Name:     c.Name(),
		Status:   StatusOK,
		Message:  fmt.Sprintf("All %d locator(s) reachable", checked),
		Category: c.CheckCategory,
	}
}
