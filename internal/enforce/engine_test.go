package enforce_test

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/steveyegge/vigil/internal/enforce"
	"github.com/steveyegge/vigil/internal/liveness"
	"github.com/steveyegge/vigil/internal/pulse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T, sink enforce.Sink) (*enforce.Engine, *enforce.Ledger) {
	t.Helper()
	ledger, err := enforce.LoadLedger(filepath.Join(t.TempDir(), "ledger.json"))
	require.NoError(t, err)
	return enforce.NewEngine(enforce.DefaultRules(), ledger, sink, nil), ledger
}

func docWithStates(states map[string]liveness.State) *pulse.Document {
	age := 20 * time.Minute
	workers := make(map[string]*pulse.Snapshot, len(states))
	for name, state := range states {
		snap := &pulse.Snapshot{State: state}
		if state != liveness.StateStopped {
			a := age
			snap.FreshnessAge = &a
		}
		workers[name] = snap
	}
	return &pulse.Document{
		Type:       pulse.DocumentType,
		Version:    pulse.DocumentVersion,
		Thresholds: liveness.DefaultThresholds(),
		Workers:    workers,
	}
}

func kinds(actions []enforce.Action) []enforce.Kind {
	out := make([]enforce.Kind, len(actions))
	for i, a := range actions {
		out[i] = a.Kind
	}
	return out
}

func TestApply_EscalationCadenceOverFiveCycles(t *testing.T) {
	// Stopped for cycles 1..5 must fire reassign at 1, blocker at 3,
	// restart at 5, and nothing at 2 or 4.
	sink := enforce.NewSinkDouble()
	engine, _ := newEngine(t, sink)
	doc := docWithStates(map[string]liveness.State{"w1": liveness.StateStopped})
	now := time.Now()

	var perCycle [][]enforce.Action
	for cycle := 1; cycle <= 5; cycle++ {
		actions, err := engine.Apply(doc, now)
		require.NoError(t, err)
		perCycle = append(perCycle, actions)
	}

	assert.Equal(t, []enforce.Kind{enforce.KindReassign}, kinds(perCycle[0]))
	assert.Empty(t, perCycle[1], "no duplicate action at cycle 2")
	assert.Equal(t, []enforce.Kind{enforce.KindBlocker}, kinds(perCycle[2]))
	assert.Empty(t, perCycle[3], "no duplicate action at cycle 4")
	assert.Equal(t, []enforce.Kind{enforce.KindRestart}, kinds(perCycle[4]))
}

func TestApply_RecoveryResetsLedger(t *testing.T) {
	sink := enforce.NewSinkDouble()
	engine, ledger := newEngine(t, sink)
	now := time.Now()

	stopped := docWithStates(map[string]liveness.State{"w1": liveness.StateStopped})
	for cycle := 1; cycle <= 3; cycle++ {
		_, err := engine.Apply(stopped, now)
		require.NoError(t, err)
	}
	require.NotNil(t, ledger.Entry("w1"))

	// Recovery clears the entry.
	active := docWithStates(map[string]liveness.State{"w1": liveness.StateActive})
	actions, err := engine.Apply(active, now)
	require.NoError(t, err)
	assert.Empty(t, actions)
	assert.Nil(t, ledger.Entry("w1"))

	// A later stall starts again at level 1's successor in the table.
	actions, err = engine.Apply(stopped, now)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, enforce.KindReassign, actions[0].Kind)
	assert.Equal(t, 1, actions[0].ConsecutiveCycles)
}

func TestApply_IdleNudgeFiresOnceAndNotAgain(t *testing.T) {
	sink := enforce.NewSinkDouble()
	engine, _ := newEngine(t, sink)
	doc := docWithStates(map[string]liveness.State{"w1": liveness.StateIdle})
	now := time.Now()

	actions, err := engine.Apply(doc, now)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, enforce.KindNudge, actions[0].Kind)
	assert.Equal(t, 1, actions[0].Level)

	// Still idle: the nudge level was already applied, nothing repeats.
	actions, err = engine.Apply(doc, now)
	require.NoError(t, err)
	assert.Empty(t, actions)
}

func TestApply_IdleToStoppedStillEscalates(t *testing.T) {
	sink := enforce.NewSinkDouble()
	engine, _ := newEngine(t, sink)
	now := time.Now()

	idle := docWithStates(map[string]liveness.State{"w1": liveness.StateIdle})
	_, err := engine.Apply(idle, now)
	require.NoError(t, err)

	stopped := docWithStates(map[string]liveness.State{"w1": liveness.StateStopped})
	actions, err := engine.Apply(stopped, now)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, enforce.KindReassign, actions[0].Kind, "stall after idle escalates past the nudge level")
}

func TestApply_AtMostOneActionPerWorkerPerCycle(t *testing.T) {
	sink := enforce.NewSinkDouble()
	engine, _ := newEngine(t, sink)
	now := time.Now()

	doc := docWithStates(map[string]liveness.State{
		"w1": liveness.StateStopped,
		"w2": liveness.StateIdle,
		"w3": liveness.StateActive,
	})

	actions, err := engine.Apply(doc, now)
	require.NoError(t, err)

	seen := map[string]int{}
	for _, a := range actions {
		seen[a.Worker]++
	}
	for worker, count := range seen {
		assert.Equal(t, 1, count, "worker %s got %d actions in one cycle", worker, count)
	}
	assert.NotContains(t, seen, "w3")
}

func TestApply_SinkFailureRetriesSameActionNextCycle(t *testing.T) {
	sink := enforce.NewSinkDouble()
	sink.FailFor("w1", errors.New("transport down"))
	engine, ledger := newEngine(t, sink)
	doc := docWithStates(map[string]liveness.State{"w1": liveness.StateStopped})
	now := time.Now()

	actions, err := engine.Apply(doc, now)
	require.NoError(t, err)
	assert.Empty(t, actions, "failed delivery is not an applied action")
	assert.Nil(t, ledger.Entry("w1"), "ledger not advanced on delivery failure")

	// Transport recovers: the same level-2 action goes out, not a
	// higher one.
	sink.FailFor("w1", nil)
	actions, err = engine.Apply(doc, now)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, enforce.KindReassign, actions[0].Kind)
	assert.Equal(t, 1, actions[0].ConsecutiveCycles)
}

func TestApply_LedgerPersistsAcrossLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	ledger, err := enforce.LoadLedger(path)
	require.NoError(t, err)

	sink := enforce.NewSinkDouble()
	engine := enforce.NewEngine(enforce.DefaultRules(), ledger, sink, nil)
	doc := docWithStates(map[string]liveness.State{"w1": liveness.StateStopped})

	_, err = engine.Apply(doc, time.Now())
	require.NoError(t, err)

	reloaded, err := enforce.LoadLedger(path)
	require.NoError(t, err)
	entry := reloaded.Entry("w1")
	require.NotNil(t, entry)
	assert.Equal(t, liveness.StateStopped, entry.State)
	assert.Equal(t, 1, entry.ConsecutiveCycles)
	assert.Equal(t, 2, entry.LastLevel)

	// Continuing with the reloaded ledger keeps the cadence.
	engine = enforce.NewEngine(enforce.DefaultRules(), reloaded, sink, nil)
	actions, err := engine.Apply(doc, time.Now())
	require.NoError(t, err)
	assert.Empty(t, actions, "cycle 2 emits nothing under the default table")
}

func TestParseKind(t *testing.T) {
	k, err := enforce.ParseKind("blocker")
	require.NoError(t, err)
	assert.Equal(t, enforce.KindBlocker, k)
	assert.Equal(t, 3, k.Level())

	_, err = enforce.ParseKind("carrier-pigeon")
	assert.Error(t, err)
}

func TestOutboxSink_WritesOneFilePerAction(t *testing.T) {
	dir := t.TempDir()
	sink := enforce.NewOutboxSink(dir)
	ledger, err := enforce.LoadLedger(filepath.Join(t.TempDir(), "ledger.json"))
	require.NoError(t, err)
	engine := enforce.NewEngine(enforce.DefaultRules(), ledger, sink, nil)

	doc := docWithStates(map[string]liveness.State{"w1": liveness.StateStopped})
	actions, err := engine.Apply(doc, time.Now())
	require.NoError(t, err)
	require.Len(t, actions, 1)

	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}
