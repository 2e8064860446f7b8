package doctor

import (
	"fmt"
	"sort"

	"github.com/steveyegge/vigil/internal/registry"
)

// RegistryCheck verifies the worker registry loads and reports entries
// that were skipped during validation.
type RegistryCheck struct {
	BaseCheck
}

// NewRegistryCheck creates the registry check.
func NewRegistryCheck() *RegistryCheck {
	return &RegistryCheck{
		BaseCheck: BaseCheck{
			CheckName:        "registry",
			CheckDescription: "Validate the worker registry file",
			CheckCategory:    CategoryConfig,
		},
	}
}

func (c *RegistryCheck) Run(ctx *CheckContext) *CheckResult {
	reg, err := registry.Load(ctx.Config.Registry)
	if err != nil {
		return &CheckResult{
			Name:     c.Name(),
			Status:   StatusError,
			Message:  "Worker registry failed to load",
			Details:  []string{err.Error()},
			FixHint:  fmt.Sprintf("Create %s with a [workers.<name>] table per worker", ctx.Config.Registry),
			Category: c.CheckCategory,
		}
	}

	if reg.Len() == 0 && len(reg.Skipped()) == 0 {
		return &CheckResult{
			Name:     c.Name(),
			Status:   StatusWarning,
			Message:  "Registry is empty; nothing to monitor",
			Category: c.CheckCategory,
		}
	}

	if skipped := reg.Skipped(); len(skipped) > 0 {
		names := make([]string, 0, len(skipped))
		for name := range skipped {
			names = append(names, name)
		}
		sort.Strings(names)
		details := make([]string, len(names))
		for i, name := range names {
			details[i] = fmt.Sprintf("%s: %s", name, skipped[name])
		}
		return &CheckResult{
			Name:     c.Name(),
			Status:   StatusWarning,
			Message:  fmt.Sprintf("%d registry entr(ies) skipped as malformed", len(skipped)),
			Details:  details,
			Category: c.CheckCategory,
		}
	}

	return &CheckResult{
		Name:     c.Name(),
		Status:   StatusOK,
		Message:  fmt.Sprintf("Registry OK (%d worker(s))", reg.Len()),
		Category: c.CheckCategory,
	}
}
