package doctor

import (
	"fmt"
)

// ConfigCheck verifies the loaded configuration is internally coherent:
// escalation rules parse and the cycle intervals nest sensibly.
type ConfigCheck struct {
	BaseCheck
}

// NewConfigCheck creates the configuration sanity check.
func NewConfigCheck() *ConfigCheck {
	return &ConfigCheck{
		BaseCheck: BaseCheck{
			CheckName:        "config",
			CheckDescription: "Validate thresholds, intervals, and escalation rules",
			CheckCategory:    CategoryConfig,
		},
	}
}

func (c *ConfigCheck) Run(ctx *CheckContext) *CheckResult {
	cfg := ctx.Config

	rules, err := cfg.EscalationRules()
	if err != nil {
		return &CheckResult{
			Name:     c.Name(),
			Status:   StatusError,
			Message:  "Escalation rules are invalid",
			Details:  []string{err.Error()},
			Category: c.CheckCategory,
		}
	}

	var details []string
	th := cfg.LivenessThresholds()
	if th.Active >= th.Idle {
		details = append(details, fmt.Sprintf(
			"active threshold (%v) is not below idle threshold (%v); the idle state is unreachable",
			th.Active, th.Idle))
	}
	if cfg.Daemon.PollInterval.Std() > cfg.Daemon.EnforceInterval.Std() {
		details = append(details, fmt.Sprintf(
			"poll interval (%v) exceeds enforce interval (%v); enforcement will run every poll",
			cfg.Daemon.PollInterval.Std(), cfg.Daemon.EnforceInterval.Std()))
	}
	if cfg.Daemon.SourceTimeout.Std() >= cfg.Daemon.PollInterval.Std() {
		details = append(details, fmt.Sprintf(
			"source timeout (%v) is at least the poll interval (%v); slow sources can starve cycles",
			cfg.Daemon.SourceTimeout.Std(), cfg.Daemon.PollInterval.Std()))
	}

	if len(details) > 0 {
		return &CheckResult{
			Name:     c.Name(),
			Status:   StatusWarning,
			Message:  "Configuration is parseable but questionable",
			Details:  details,
			Category: c.CheckCategory,
		}
	}

	return &CheckResult{
		Name:     c.Name(),
		Status:   StatusOK,
		Message:  fmt.Sprintf("Config OK (%d escalation rule(s))", len(rules)),
		Category: c.CheckCategory,
	}
}
