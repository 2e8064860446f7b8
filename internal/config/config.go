// Package config loads Vigil's TOML configuration: thresholds, cycle
// intervals, artifact paths, and the escalation rule table.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/steveyegge/vigil/internal/enforce"
	"github.com/steveyegge/vigil/internal/liveness"
)

// ConfigFileName is the well-known config file name.
const ConfigFileName = "vigil.toml"

// RegistryFileName is the well-known worker registry file name.
const RegistryFileName = "workers.toml"

// Duration wraps time.Duration so TOML can carry "5m" style strings.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the full Vigil configuration. Zero values take defaults.
type Config struct {
	Registry   string           `toml:"registry"`
	Thresholds ThresholdsConfig `toml:"thresholds"`
	Daemon     DaemonConfig     `toml:"daemon"`
	Paths      PathsConfig      `toml:"paths"`
	Escalation []RuleConfig     `toml:"escalation"`
}

// ThresholdsConfig carries the state boundaries.
type ThresholdsConfig struct {
	Active Duration `toml:"active"`
	Idle   Duration `toml:"idle"`
}

// DaemonConfig carries the driver loop intervals. Collection runs every
// PollInterval; alerts and enforcement run on ticks at least
// EnforceInterval apart. SourceTimeout bounds each signal source query.
type DaemonConfig struct {
	PollInterval    Duration `toml:"poll_interval"`
	EnforceInterval Duration `toml:"enforce_interval"`
	SourceTimeout   Duration `toml:"source_timeout"`
}

// PathsConfig carries artifact locations. Relative paths resolve against
// StateDir, which itself resolves against the config file's directory.
type PathsConfig struct {
	StateDir  string `toml:"state_dir"`
	Heartbeat string `toml:"heartbeat"`
	Alerts    string `toml:"alerts"`
	Ledger    string `toml:"ledger"`
	Outbox    string `toml:"outbox"`
}

// RuleConfig is one escalation table row.
type RuleConfig struct {
	State     string `toml:"state"`
	MinCycles int    `toml:"min_cycles"`
	Action    string `toml:"action"`
}

// Default returns the configuration used when no file is present,
// rooted at dir.
func Default(dir string) *Config {
	c := &Config{}
	c.applyDefaults(dir)
	return c
}

// Load reads the config file at path. A missing file yields the defaults
// rooted at the path's directory; a malformed file is an error (total
// inability to configure is fatal to the process, partial is not a
// concept here).
func Load(path string) (*Config, error) {
	dir := filepath.Dir(path)

	var c Config
	if _, err := toml.DecodeFile(path, &c); err != nil {
		if os.IsNotExist(err) {
			return Default(dir), nil
		}
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	c.applyDefaults(dir)
	if _, err := c.EscalationRules(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &c, nil
}

func (c *Config) applyDefaults(dir string) {
	if c.Registry == "" {
		c.Registry = RegistryFileName
	}
	if !filepath.IsAbs(c.Registry) {
		c.Registry = filepath.Join(dir, c.Registry)
	}

	th := liveness.DefaultThresholds()
	if c.Thresholds.Active == 0 {
		c.Thresholds.Active = Duration(th.Active)
	}
	if c.Thresholds.Idle == 0 {
		c.Thresholds.Idle = Duration(th.Idle)
	}

	if c.Daemon.PollInterval == 0 {
		c.Daemon.PollInterval = Duration(30 * time.Second)
	}
	if c.Daemon.EnforceInterval == 0 {
		c.Daemon.EnforceInterval = Duration(5 * time.Minute)
	}
	if c.Daemon.SourceTimeout == 0 {
		c.Daemon.SourceTimeout = Duration(10 * time.Second)
	}

	if c.Paths.StateDir == "" {
		c.Paths.StateDir = ".vigil"
	}
	if !filepath.IsAbs(c.Paths.StateDir) {
		c.Paths.StateDir = filepath.Join(dir, c.Paths.StateDir)
	}
	if c.Paths.Heartbeat == "" {
		c.Paths.Heartbeat = "heartbeat.json"
	}
	if c.Paths.Alerts == "" {
		c.Paths.Alerts = "stalled.txt"
	}
	if c.Paths.Ledger == "" {
		c.Paths.Ledger = "ledger.json"
	}
	if c.Paths.Outbox == "" {
		c.Paths.Outbox = "outbox"
	}
}

// resolve joins a configured path against the state dir unless absolute.
func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Paths.StateDir, p)
}

// HeartbeatFile returns the heartbeat document's canonical path.
func (c *Config) HeartbeatFile() string { return c.resolve(c.Paths.Heartbeat) }

// AlertsFile returns the alert artifact's path.
func (c *Config) AlertsFile() string { return c.resolve(c.Paths.Alerts) }

// LedgerFile returns the enforcement ledger's path.
func (c *Config) LedgerFile() string { return c.resolve(c.Paths.Ledger) }

// OutboxDir returns the action outbox directory.
func (c *Config) OutboxDir() string { return c.resolve(c.Paths.Outbox) }

// DaemonDir returns the daemon's bookkeeping directory (lock, PID, log,
// state).
func (c *Config) DaemonDir() string { return filepath.Join(c.Paths.StateDir, "daemon") }

// LivenessThresholds converts the configured thresholds.
func (c *Config) LivenessThresholds() liveness.Thresholds {
	return liveness.Thresholds{
		Active: c.Thresholds.Active.Std(),
		Idle:   c.Thresholds.Idle.Std(),
	}
}

// EscalationRules converts the configured table, or returns the default
// table when none is configured.
func (c *Config) EscalationRules() ([]enforce.Rule, error) {
	if len(c.Escalation) == 0 {
		return enforce.DefaultRules(), nil
	}

	rules := make([]enforce.Rule, 0, len(c.Escalation))
	for _, rc := range c.Escalation {
		kind, err := enforce.ParseKind(rc.Action)
		if err != nil {
			return nil, err
		}
		state := liveness.State(rc.State)
		if state != liveness.StateIdle && state != liveness.StateStopped {
			return nil, fmt.Errorf("escalation rule targets invalid state %q", rc.State)
		}
		minCycles := rc.MinCycles
		if minCycles < 1 {
			minCycles = 1
		}
		rules = append(rules, enforce.Rule{State: state, MinCycles: minCycles, Action: kind})
	}
	return rules, nil
}
