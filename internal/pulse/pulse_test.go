package pulse_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/steveyegge/vigil/internal/liveness"
	"github.com/steveyegge/vigil/internal/pulse"
	"github.com/steveyegge/vigil/internal/registry"
	"github.com/steveyegge/vigil/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func heartbeatPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "status", "heartbeat.json")
}

// --- Collector ---

func TestCollector_OneSourceFailureDoesNotAbortOthers(t *testing.T) {
	now := time.Now()
	good := source.NewDouble("good")
	good.Report("w1", now.Add(-time.Minute))
	bad := source.NewDouble("bad")
	bad.Fail("w1", errors.New("connection refused"))

	c := pulse.NewCollector([]source.Source{good, bad}, time.Second, nil)
	signals, errs := c.Collect(context.Background(),
		map[string]string{"good": "loc-a", "bad": "loc-b"}, "w1")

	require.Len(t, signals, 2)
	require.NotNil(t, signals["good"])
	assert.Nil(t, signals["bad"])
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "bad:")
}

func TestCollector_NoRecordIsUnknownButNotAnError(t *testing.T) {
	empty := source.NewDouble("empty") // unscripted worker -> ErrNoRecord

	c := pulse.NewCollector([]source.Source{empty}, time.Second, nil)
	signals, errs := c.Collect(context.Background(),
		map[string]string{"empty": "loc"}, "w1")

	require.Contains(t, signals, "empty")
	assert.Nil(t, signals["empty"])
	assert.Empty(t, errs, "no-record should not be reported as degradation")
}

func TestCollector_UnknownSourceNameDegradesToUnknown(t *testing.T) {
	c := pulse.NewCollector(nil, time.Second, nil)
	signals, errs := c.Collect(context.Background(),
		map[string]string{"carrier-pigeon": "loc"}, "w1")

	require.Contains(t, signals, "carrier-pigeon")
	assert.Nil(t, signals["carrier-pigeon"])
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "no such source")
}

// --- Aggregator ---

func TestRunCycle_ScenarioTwoWorkers(t *testing.T) {
	// W1: one source 2m old -> active.
	// W2: one source unknown, one 20m old -> stopped.
	now := time.Now()
	a := source.NewDouble("a")
	a.Report("W1", now.Add(-2*time.Minute))
	b := source.NewDouble("b")
	b.Report("W2", now.Add(-20*time.Minute))

	reg := registry.New(map[string]map[string]string{
		"W1": {"a": "loc"},
		"W2": {"a": "loc", "b": "loc"},
	})

	collector := pulse.NewCollector([]source.Source{a, b}, time.Second, nil)
	agg := pulse.NewAggregator(reg, collector, liveness.DefaultThresholds(), heartbeatPath(t), nil)

	doc, err := agg.RunCycle(context.Background(), now)
	require.NoError(t, err)

	require.Len(t, doc.Workers, 2)

	w1 := doc.Workers["W1"]
	require.NotNil(t, w1)
	assert.Equal(t, liveness.StateActive, w1.State)
	require.NotNil(t, w1.FreshnessAge)
	assert.Equal(t, 2*time.Minute, *w1.FreshnessAge)

	w2 := doc.Workers["W2"]
	require.NotNil(t, w2)
	assert.Equal(t, liveness.StateStopped, w2.State)
	require.NotNil(t, w2.FreshnessAge)
	assert.Equal(t, 20*time.Minute, *w2.FreshnessAge)
	assert.Nil(t, w2.Signals["a"], "unknown source stays unknown in the snapshot")

	assert.Equal(t, []string{"W2"}, doc.WorkersInState(liveness.StateStopped))
}

func TestRunCycle_EveryRegisteredWorkerHasExactlyOneSnapshot(t *testing.T) {
	// All sources unknown for w2 -> still present, stopped, no age.
	now := time.Now()
	a := source.NewDouble("a")
	a.Report("w1", now.Add(-time.Minute))

	reg := registry.New(map[string]map[string]string{
		"w1": {"a": "loc"},
		"w2": {"a": "loc"},
	})

	collector := pulse.NewCollector([]source.Source{a}, time.Second, nil)
	agg := pulse.NewAggregator(reg, collector, liveness.DefaultThresholds(), heartbeatPath(t), nil)

	doc, err := agg.RunCycle(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, []string{"w1", "w2"}, doc.WorkerNames())
	w2 := doc.Workers["w2"]
	assert.Equal(t, liveness.StateStopped, w2.State)
	assert.Nil(t, w2.FreshnessAge)
}

func TestRunCycle_SkippedRegistryWorkerGetsStoppedSnapshotAndDiagnostic(t *testing.T) {
	reg := registry.New(map[string]map[string]string{
		"good": {"a": "loc"},
		"bad":  {"a": ""},
	})

	a := source.NewDouble("a")
	collector := pulse.NewCollector([]source.Source{a}, time.Second, nil)
	agg := pulse.NewAggregator(reg, collector, liveness.DefaultThresholds(), heartbeatPath(t), nil)

	doc, err := agg.RunCycle(context.Background(), time.Now())
	require.NoError(t, err)

	require.Contains(t, doc.Workers, "bad")
	assert.Equal(t, liveness.StateStopped, doc.Workers["bad"].State)
	require.Len(t, doc.Diagnostics, 1)
	assert.Contains(t, doc.Diagnostics[0], "bad")
}

func TestRunCycle_SourceErrorForOneWorkerIsolatedFromOthers(t *testing.T) {
	now := time.Now()
	a := source.NewDouble("a")
	a.Fail("wA", errors.New("boom"))
	a.Report("wB", now.Add(-time.Minute))

	reg := registry.New(map[string]map[string]string{
		"wA": {"a": "loc"},
		"wB": {"a": "loc"},
	})

	collector := pulse.NewCollector([]source.Source{a}, time.Second, nil)
	agg := pulse.NewAggregator(reg, collector, liveness.DefaultThresholds(), heartbeatPath(t), nil)

	doc, err := agg.RunCycle(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, liveness.StateStopped, doc.Workers["wA"].State)
	assert.Equal(t, liveness.StateActive, doc.Workers["wB"].State)
}

func TestRunCycle_RoundTripReproducesStates(t *testing.T) {
	now := time.Now()
	a := source.NewDouble("a")
	a.Report("w1", now.Add(-7*time.Minute))

	reg := registry.New(map[string]map[string]string{"w1": {"a": "loc"}})
	collector := pulse.NewCollector([]source.Source{a}, time.Second, nil)
	path := heartbeatPath(t)
	agg := pulse.NewAggregator(reg, collector, liveness.DefaultThresholds(), path, nil)

	doc, err := agg.RunCycle(context.Background(), now)
	require.NoError(t, err)

	loaded, err := pulse.LoadDocument(path)
	require.NoError(t, err)

	assert.Equal(t, pulse.DocumentType, loaded.Type)
	assert.Equal(t, doc.CycleID, loaded.CycleID)
	assert.True(t, doc.SameStates(loaded), "persisted document must reproduce per-worker states")
	assert.Equal(t, liveness.StateIdle, loaded.Workers["w1"].State)
}

func TestRunCycle_IdempotentWithFrozenClock(t *testing.T) {
	now := time.Now()
	a := source.NewDouble("a")
	a.Report("w1", now.Add(-2*time.Minute))

	reg := registry.New(map[string]map[string]string{"w1": {"a": "loc"}})
	collector := pulse.NewCollector([]source.Source{a}, time.Second, nil)
	agg := pulse.NewAggregator(reg, collector, liveness.DefaultThresholds(), heartbeatPath(t), nil)

	first, err := agg.RunCycle(context.Background(), now)
	require.NoError(t, err)
	second, err := agg.RunCycle(context.Background(), now)
	require.NoError(t, err)

	assert.True(t, first.SameStates(second))
	assert.NotEqual(t, first.CycleID, second.CycleID, "cycle identity is fresh each run")
}

func TestRunCycle_PersistFailureStillReturnsDocument(t *testing.T) {
	// Parent of the heartbeat path is a regular file, so the atomic
	// write cannot create the directory.
	dir := t.TempDir()
	blocker := filepath.Join(dir, "status")
	require.NoError(t, os.WriteFile(blocker, []byte("in the way"), 0644))
	path := filepath.Join(blocker, "heartbeat.json")

	a := source.NewDouble("a")
	reg := registry.New(map[string]map[string]string{"w1": {"a": "loc"}})
	collector := pulse.NewCollector([]source.Source{a}, time.Second, nil)
	agg := pulse.NewAggregator(reg, collector, liveness.DefaultThresholds(), path, nil)

	doc, err := agg.RunCycle(context.Background(), time.Now())
	assert.Error(t, err)
	require.NotNil(t, doc, "document is still assembled for in-memory consumers")
	assert.Contains(t, doc.Workers, "w1")
}

// --- Document ---

func TestSameStates_DetectsDifferences(t *testing.T) {
	age := 2 * time.Minute
	ts := time.Now()
	base := func() *pulse.Document {
		return &pulse.Document{
			Thresholds: liveness.DefaultThresholds(),
			Workers: map[string]*pulse.Snapshot{
				"w1": {
					Signals:      map[string]*time.Time{"a": &ts},
					FreshnessAge: &age,
					State:        liveness.StateActive,
				},
			},
		}
	}

	assert.True(t, base().SameStates(base()))

	changedState := base()
	changedState.Workers["w1"].State = liveness.StateIdle
	assert.False(t, base().SameStates(changedState))

	changedSignal := base()
	changedSignal.Workers["w1"].Signals["a"] = nil
	assert.False(t, base().SameStates(changedSignal))

	extraWorker := base()
	extraWorker.Workers["w2"] = &pulse.Snapshot{State: liveness.StateStopped}
	assert.False(t, base().SameStates(extraWorker))
}
