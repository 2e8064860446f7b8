package enforce

import (
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/steveyegge/vigil/internal/liveness"
	"github.com/steveyegge/vigil/internal/pulse"
)

// Engine turns heartbeat documents into enforcement actions.
//
// Per worker and per cycle it emits at most one action, chosen from the
// rule table by (state, consecutive cycles in that state). Levels only
// increase within a stall episode; recovery to active resets the
// worker's ledger entry so a later stall starts over at level 1.
type Engine struct {
	rules  []Rule
	ledger *Ledger
	sink   Sink
	logger *log.Logger
}

// NewEngine creates an engine over the given rule table, ledger, and sink.
func NewEngine(rules []Rule, ledger *Ledger, sink Sink, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Engine{rules: rules, ledger: ledger, sink: sink, logger: logger}
}

// Apply processes one finalized document: updates the ledger, emits due
// actions, and persists the ledger. Sink failures leave the affected
// worker's ledger entry untouched so the same action retries next cycle
// instead of being skipped or double-escalated.
func (e *Engine) Apply(doc *pulse.Document, now time.Time) ([]Action, error) {
	var actions []Action

	for _, worker := range doc.WorkerNames() {
		snap := doc.Workers[worker]

		if snap.State == liveness.StateActive {
			if e.ledger.Entry(worker) != nil {
				e.logger.Printf("%s recovered to active, clearing escalation history", worker)
				e.ledger.reset(worker)
			}
			continue
		}

		if action, ok := e.step(worker, snap, now); ok {
			actions = append(actions, action)
		}
	}

	if err := e.ledger.Save(); err != nil {
		return actions, fmt.Errorf("persisting enforcement ledger: %w", err)
	}
	return actions, nil
}

// step advances one degraded worker's ledger entry and emits a due action.
func (e *Engine) step(worker string, snap *pulse.Snapshot, now time.Time) (Action, bool) {
	prev := e.ledger.Entry(worker)

	next := &Entry{State: snap.State, ConsecutiveCycles: 1}
	if prev != nil {
		next.LastLevel = prev.LastLevel
		next.LastActionAt = prev.LastActionAt
		if prev.State == snap.State {
			next.ConsecutiveCycles = prev.ConsecutiveCycles + 1
		}
	}

	rule, ok := match(e.rules, snap.State, next.ConsecutiveCycles)
	if !ok || rule.Action.Level() <= next.LastLevel {
		// Nothing new is due; record the cycle count and move on.
		e.ledger.set(worker, next)
		return Action{}, false
	}

	action := Action{
		ID:                uuid.NewString(),
		Worker:            worker,
		Kind:              rule.Action,
		Level:             rule.Action.Level(),
		State:             snap.State,
		ConsecutiveCycles: next.ConsecutiveCycles,
		FreshnessAge:      liveness.FormatAge(snap.FreshnessAge),
		EmittedAt:         now,
	}

	if err := e.sink.Deliver(action); err != nil {
		// Not applied: keep the previous entry so the same action is
		// selected again next cycle.
		e.logger.Printf("Warning: action %s for %s failed to deliver, will retry: %v",
			action.Kind, worker, err)
		return Action{}, false
	}

	next.LastLevel = action.Level
	t := now
	next.LastActionAt = &t
	e.ledger.set(worker, next)
	return action, true
}
