package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/steveyegge/vigil/internal/config"
	"github.com/steveyegge/vigil/internal/enforce"
	"github.com/steveyegge/vigil/internal/liveness"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	c, err := config.Load(filepath.Join(dir, config.ConfigFileName))
	require.NoError(t, err)

	assert.Equal(t, liveness.DefaultThresholds(), c.LivenessThresholds())
	assert.Equal(t, 30*time.Second, c.Daemon.PollInterval.Std())
	assert.Equal(t, 5*time.Minute, c.Daemon.EnforceInterval.Std())
	assert.Equal(t, filepath.Join(dir, "workers.toml"), c.Registry)
	assert.Equal(t, filepath.Join(dir, ".vigil", "heartbeat.json"), c.HeartbeatFile())
	assert.Equal(t, filepath.Join(dir, ".vigil", "stalled.txt"), c.AlertsFile())
	assert.Equal(t, filepath.Join(dir, ".vigil", "ledger.json"), c.LedgerFile())
	assert.Equal(t, filepath.Join(dir, ".vigil", "outbox"), c.OutboxDir())

	rules, err := c.EscalationRules()
	require.NoError(t, err)
	assert.Equal(t, enforce.DefaultRules(), rules)
}

func TestLoad_FullFile(t *testing.T) {
	dir := t.TempDir()
	content := `
registry = "crew.toml"

[thresholds]
active = "2m"
idle = "10m"

[daemon]
poll_interval = "15s"
enforce_interval = "1m"
source_timeout = "3s"

[paths]
state_dir = "run"

[[escalation]]
state = "idle"
min_cycles = 2
action = "nudge"

[[escalation]]
state = "stopped"
min_cycles = 1
action = "restart"
`
	path := filepath.Join(dir, config.ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	c, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2*time.Minute, c.Thresholds.Active.Std())
	assert.Equal(t, 10*time.Minute, c.Thresholds.Idle.Std())
	assert.Equal(t, 15*time.Second, c.Daemon.PollInterval.Std())
	assert.Equal(t, 3*time.Second, c.Daemon.SourceTimeout.Std())
	assert.Equal(t, filepath.Join(dir, "crew.toml"), c.Registry)
	assert.Equal(t, filepath.Join(dir, "run", "heartbeat.json"), c.HeartbeatFile())

	rules, err := c.EscalationRules()
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, enforce.Rule{State: liveness.StateIdle, MinCycles: 2, Action: enforce.KindNudge}, rules[0])
	assert.Equal(t, enforce.Rule{State: liveness.StateStopped, MinCycles: 1, Action: enforce.KindRestart}, rules[1])
}

func TestLoad_InvalidTOML_IsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("[[[ nope"), 0644))

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoad_BadEscalationAction_IsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.ConfigFileName)
	content := `
[[escalation]]
state = "stopped"
min_cycles = 1
action = "carrier-pigeon"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestEscalationRules_RejectsActiveState(t *testing.T) {
	c := config.Default(t.TempDir())
	c.Escalation = []config.RuleConfig{{State: "active", MinCycles: 1, Action: "nudge"}}

	_, err := c.EscalationRules()
	assert.Error(t, err)
}
