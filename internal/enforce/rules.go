// Package enforce applies escalation rules to heartbeat documents and
// emits enforcement actions through a pluggable sink.
package enforce

import (
	"fmt"

	"github.com/steveyegge/vigil/internal/liveness"
)

// Kind names an enforcement action.
type Kind string

const (
	// KindNudge reminds an idling worker to resume (level 1).
	KindNudge Kind = "nudge"

	// KindReassign re-slings the worker's top task (level 2).
	KindReassign Kind = "reassign"

	// KindBlocker opens a blocker record for a sustained stall (level 3).
	KindBlocker Kind = "blocker"

	// KindRestart restarts the worker process (level 4).
	KindRestart Kind = "restart"
)

// Level returns the escalation level of an action kind. Levels are
// monotonic: within one stall episode a worker only ever moves up.
func (k Kind) Level() int {
	switch k {
	case KindNudge:
		return 1
	case KindReassign:
		return 2
	case KindBlocker:
		return 3
	case KindRestart:
		return 4
	default:
		return 0
	}
}

// ParseKind validates an action kind name from configuration.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if k.Level() == 0 {
		return "", fmt.Errorf("unknown action kind %q", s)
	}
	return k, nil
}

// Rule maps (state, consecutive cycles in that state) to an action.
type Rule struct {
	// State the worker must be in for the rule to apply.
	State liveness.State

	// MinCycles is the minimum consecutive cycles in State.
	MinCycles int

	// Action is emitted when the rule fires.
	Action Kind
}

// DefaultRules is the standard escalation table: remind after one idle
// cycle; for stalls, reassign immediately, open a blocker after three
// cycles, restart after five.
func DefaultRules() []Rule {
	return []Rule{
		{State: liveness.StateIdle, MinCycles: 1, Action: KindNudge},
		{State: liveness.StateStopped, MinCycles: 1, Action: KindReassign},
		{State: liveness.StateStopped, MinCycles: 3, Action: KindBlocker},
		{State: liveness.StateStopped, MinCycles: 5, Action: KindRestart},
	}
}

// match returns the most demanding rule satisfied by (state, cycles):
// the one with the highest MinCycles not exceeding cycles.
func match(rules []Rule, state liveness.State, cycles int) (Rule, bool) {
	var best Rule
	found := false
	for _, r := range rules {
		if r.State != state || r.MinCycles > cycles {
			continue
		}
		if !found || r.MinCycles > best.MinCycles {
			best = r
			found = true
		}
	}
	return best, found
}
