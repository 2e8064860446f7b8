package doctor_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/steveyegge/vigil/internal/config"
	"github.com/steveyegge/vigil/internal/daemon"
	"github.com/steveyegge/vigil/internal/doctor"
	"github.com/steveyegge/vigil/internal/liveness"
	"github.com/steveyegge/vigil/internal/pulse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newContext builds a check context over a temp dir with a minimal
// valid registry.
func newContext(t *testing.T) *doctor.CheckContext {
	t.Helper()
	dir := t.TempDir()

	workDir := filepath.Join(dir, "work")
	require.NoError(t, os.MkdirAll(workDir, 0755))
	registry := "[workers.alice]\nworktree = \"" + workDir + "\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.RegistryFileName), []byte(registry), 0644))

	return &doctor.CheckContext{Config: config.Default(dir), Now: time.Now()}
}

func TestConfigCheck_DefaultsAreOK(t *testing.T) {
	ctx := newContext(t)
	result := doctor.NewConfigCheck().Run(ctx)
	assert.Equal(t, doctor.StatusOK, result.Status)
}

func TestConfigCheck_InvertedThresholdsWarn(t *testing.T) {
	ctx := newContext(t)
	ctx.Config.Thresholds.Active = config.Duration(30 * time.Minute)
	ctx.Config.Thresholds.Idle = config.Duration(15 * time.Minute)

	result := doctor.NewConfigCheck().Run(ctx)
	assert.Equal(t, doctor.StatusWarning, result.Status)
	require.NotEmpty(t, result.Details)
	assert.Contains(t, result.Details[0], "idle state is unreachable")
}

func TestRegistryCheck_MissingFileIsError(t *testing.T) {
	ctx := &doctor.CheckContext{Config: config.Default(t.TempDir()), Now: time.Now()}
	result := doctor.NewRegistryCheck().Run(ctx)
	assert.Equal(t, doctor.StatusError, result.Status)
}

func TestRegistryCheck_SkippedEntriesWarn(t *testing.T) {
	dir := t.TempDir()
	registry := `
[workers.alice]
worktree = "/somewhere"

[workers.bob]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.RegistryFileName), []byte(registry), 0644))
	ctx := &doctor.CheckContext{Config: config.Default(dir), Now: time.Now()}

	result := doctor.NewRegistryCheck().Run(ctx)
	assert.Equal(t, doctor.StatusWarning, result.Status)
	require.Len(t, result.Details, 1)
	assert.Contains(t, result.Details[0], "bob")
}

func TestLocatorCheck_MissingPathWarns(t *testing.T) {
	dir := t.TempDir()
	registry := "[workers.alice]\nworktree = \"" + filepath.Join(dir, "does-not-exist") + "\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.RegistryFileName), []byte(registry), 0644))
	ctx := &doctor.CheckContext{Config: config.Default(dir), Now: time.Now()}

	result := doctor.NewLocatorCheck().Run(ctx)
	assert.Equal(t, doctor.StatusWarning, result.Status)
}

func TestLocatorCheck_ReachableIsOK(t *testing.T) {
	ctx := newContext(t)
	result := doctor.NewLocatorCheck().Run(ctx)
	assert.Equal(t, doctor.StatusOK, result.Status)
}

func TestHeartbeatCheck_MissingDocumentWarns(t *testing.T) {
	ctx := newContext(t)
	result := doctor.NewHeartbeatCheck().Run(ctx)
	assert.Equal(t, doctor.StatusWarning, result.Status)
	assert.Contains(t, result.FixHint, "vg pulse")
}

func TestHeartbeatCheck_FreshAndStale(t *testing.T) {
	ctx := newContext(t)
	doc := &pulse.Document{
		Type:        pulse.DocumentType,
		Version:     pulse.DocumentVersion,
		CycleID:     "test",
		GeneratedAt: ctx.Now,
		Thresholds:  liveness.DefaultThresholds(),
		Workers:     map[string]*pulse.Snapshot{},
	}
	require.NoError(t, doc.Save(ctx.Config.HeartbeatFile()))

	result := doctor.NewHeartbeatCheck().Run(ctx)
	assert.Equal(t, doctor.StatusOK, result.Status)

	// Same document inspected well past three poll intervals.
	ctx.Now = ctx.Now.Add(10 * ctx.Config.Daemon.PollInterval.Std())
	result = doctor.NewHeartbeatCheck().Run(ctx)
	assert.Equal(t, doctor.StatusWarning, result.Status)
}

func TestTempFileCheck_DetectsAndFixes(t *testing.T) {
	ctx := newContext(t)
	stateDir := ctx.Config.Paths.StateDir
	require.NoError(t, os.MkdirAll(stateDir, 0755))

	stale := filepath.Join(stateDir, "heartbeat.json.tmp")
	require.NoError(t, os.WriteFile(stale, []byte("{"), 0644))
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	// A fresh temp file belongs to an in-flight swap and is not stale.
	fresh := filepath.Join(stateDir, "ledger.json.tmp")
	require.NoError(t, os.WriteFile(fresh, []byte("{"), 0644))

	check := doctor.NewTempFileCheck()
	result := check.Run(ctx)
	assert.Equal(t, doctor.StatusWarning, result.Status)
	require.Len(t, result.Details, 1)
	assert.Contains(t, result.Details[0], "heartbeat.json.tmp")

	require.NoError(t, check.Fix(ctx))
	_, err := os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(fresh)
	assert.NoError(t, err, "in-flight temp files must survive the fix")
}

func TestDaemonCheck_NotRunningIsOK(t *testing.T) {
	ctx := newContext(t)
	result := doctor.NewDaemonCheck().Run(ctx)
	assert.Equal(t, doctor.StatusOK, result.Status)
}

func TestDaemonCheck_StalePidFixed(t *testing.T) {
	ctx := newContext(t)
	daemonDir := ctx.Config.DaemonDir()
	require.NoError(t, os.MkdirAll(daemonDir, 0755))
	require.NoError(t, os.WriteFile(daemon.PidFile(daemonDir), []byte("999999"), 0644))

	check := doctor.NewDaemonCheck()
	result := check.Run(ctx)
	assert.Equal(t, doctor.StatusWarning, result.Status)

	require.NoError(t, check.Fix(ctx))
	_, err := os.Stat(daemon.PidFile(daemonDir))
	assert.True(t, os.IsNotExist(err))
}

func TestDaemonCheck_StaleStateFixed(t *testing.T) {
	ctx := newContext(t)
	daemonDir := ctx.Config.DaemonDir()
	require.NoError(t, daemon.SaveState(daemonDir, &daemon.State{Running: true, PID: 999999}))

	check := doctor.NewDaemonCheck()
	result := check.Run(ctx)
	assert.Equal(t, doctor.StatusWarning, result.Status)

	require.NoError(t, check.Fix(ctx))
	state, err := daemon.LoadState(daemonDir)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.False(t, state.Running)
}

func TestRun_ExecutesAllChecks(t *testing.T) {
	ctx := newContext(t)
	checks := doctor.AllChecks()
	results := doctor.Run(ctx, checks)
	require.Len(t, results, len(checks))
	for i, result := range results {
		assert.Equal(t, checks[i].Name(), result.Name)
	}
}
