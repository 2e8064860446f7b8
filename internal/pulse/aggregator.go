package pulse

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/steveyegge/vigil/internal/liveness"
	"github.com/steveyegge/vigil/internal/registry"
)

// Aggregator runs the collector and classifier over every registered
// worker once per cycle and persists one consistent document.
type Aggregator struct {
	reg        *registry.Registry
	collector  *Collector
	thresholds liveness.Thresholds
	path       string
	logger     *log.Logger
}

// NewAggregator creates an aggregator writing heartbeat documents to path.
func NewAggregator(reg *registry.Registry, collector *Collector, thresholds liveness.Thresholds, path string, logger *log.Logger) *Aggregator {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Aggregator{
		reg:        reg,
		collector:  collector,
		thresholds: thresholds,
		path:       path,
		logger:     logger,
	}
}

// Path returns the heartbeat document's canonical location.
func (a *Aggregator) Path() string {
	return a.path
}

// RunCycle collects and classifies every registered worker, assembles the
// document, and persists it atomically.
//
// Per-worker collection runs in parallel; assembly waits for all workers
// before writing, so readers never see a document mixing two cycles.
// The returned document is complete even when persistence fails — the
// error reports the failed swap, which leaves the previous document
// authoritative until the next tick retries.
func (a *Aggregator) RunCycle(ctx context.Context, now time.Time) (*Document, error) {
	doc := &Document{
		Type:        DocumentType,
		Version:     DocumentVersion,
		CycleID:     uuid.NewString(),
		GeneratedAt: now,
		Thresholds:  a.thresholds,
		Workers:     make(map[string]*Snapshot),
	}

	workers := a.reg.Workers()

	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, name := range workers {
		wg.Add(1)
		go func(worker string) {
			defer wg.Done()
			snap := a.snapshot(ctx, worker, now)
			mu.Lock()
			doc.Workers[worker] = snap
			mu.Unlock()
		}(name)
	}
	wg.Wait()

	// Workers with malformed registry entries still get exactly one
	// snapshot: fully unknown, classified stopped.
	for worker, reason := range a.reg.Skipped() {
		doc.Workers[worker] = &Snapshot{
			Signals: map[string]*time.Time{},
			State:   liveness.StateStopped,
			Errors:  []string{fmt.Sprintf("registry: %s", reason)},
		}
		doc.Diagnostics = append(doc.Diagnostics,
			fmt.Sprintf("worker %s skipped: %s", worker, reason))
	}

	if err := doc.Save(a.path); err != nil {
		a.logger.Printf("Warning: heartbeat persist failed (previous document remains authoritative): %v", err)
		return doc, fmt.Errorf("persisting heartbeat document: %w", err)
	}

	return doc, nil
}

// snapshot collects and classifies a single worker against the cycle clock.
func (a *Aggregator) snapshot(ctx context.Context, worker string, now time.Time) *Snapshot {
	signals, errs := a.collector.Collect(ctx, a.reg.Locators(worker), worker)
	age, state := liveness.Classify(signals, now, a.thresholds)
	return &Snapshot{
		Signals:      signals,
		FreshnessAge: age,
		State:        state,
		Errors:       errs,
	}
}
