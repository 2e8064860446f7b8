// Package daemon runs Vigil's periodic monitoring loop.
package daemon

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/steveyegge/vigil/internal/alert"
	"github.com/steveyegge/vigil/internal/config"
	"github.com/steveyegge/vigil/internal/enforce"
	"github.com/steveyegge/vigil/internal/pulse"
	"github.com/steveyegge/vigil/internal/registry"
	"github.com/steveyegge/vigil/internal/runner"
	"github.com/steveyegge/vigil/internal/source"
)

// Core wires the collector, aggregator, alert writer, and enforcement
// engine for one monitoring session. The daemon loop and the one-shot
// CLI commands share it.
type Core struct {
	Config     *config.Config
	Registry   *registry.Registry
	Aggregator *pulse.Aggregator
	Alerts     *alert.Writer
	Engine     *enforce.Engine
	Logger     *log.Logger
}

// NewCore loads the registry and ledger and wires every registered
// signal source. Only registry/config problems are fatal here, matching
// the propagation policy: everything later degrades per worker instead.
func NewCore(cfg *config.Config, logger *log.Logger) (*Core, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	reg, err := registry.Load(cfg.Registry)
	if err != nil {
		return nil, err
	}
	for worker, reason := range reg.Skipped() {
		logger.Printf("Warning: registry entry for %s skipped: %s", worker, reason)
	}

	deps := source.Deps{Runner: runner.NewLocal()}
	var sources []source.Source
	for _, name := range source.Names() {
		s, err := source.New(name, deps)
		if err != nil {
			return nil, err
		}
		sources = append(sources, s)
	}

	collector := pulse.NewCollector(sources, cfg.Daemon.SourceTimeout.Std(), logger)
	aggregator := pulse.NewAggregator(reg, collector, cfg.LivenessThresholds(), cfg.HeartbeatFile(), logger)

	rules, err := cfg.EscalationRules()
	if err != nil {
		return nil, err
	}
	ledger, err := enforce.LoadLedger(cfg.LedgerFile())
	if err != nil {
		return nil, err
	}

	sink := enforce.MultiSink{
		enforce.NewLogSink(logger),
		enforce.NewOutboxSink(cfg.OutboxDir()),
	}
	engine := enforce.NewEngine(rules, ledger, sink, logger)

	return &Core{
		Config:     cfg,
		Registry:   reg,
		Aggregator: aggregator,
		Alerts:     alert.NewWriter(cfg.AlertsFile()),
		Engine:     engine,
		Logger:     logger,
	}, nil
}

// Collect runs one collection + classification cycle and persists the
// heartbeat document.
func (c *Core) Collect(ctx context.Context, now time.Time) (*pulse.Document, error) {
	return c.Aggregator.RunCycle(ctx, now)
}

// Enforce runs a full cycle: collection, alert artifact, enforcement.
// The alert writer and engine only ever see a finalized document.
func (c *Core) Enforce(ctx context.Context, now time.Time) (*pulse.Document, []enforce.Action, error) {
	doc, err := c.Aggregator.RunCycle(ctx, now)
	if err != nil {
		// Previous document remains authoritative; skip enforcement so
		// the ledger never advances on data we failed to publish.
		return doc, nil, err
	}

	if err := c.Alerts.Write(doc); err != nil {
		c.Logger.Printf("Warning: alert artifact write failed: %v", err)
	}

	actions, err := c.Engine.Apply(doc, now)
	return doc, actions, err
}
