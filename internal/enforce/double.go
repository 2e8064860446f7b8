package enforce

import (
	"sync"
)

// SinkDouble is an in-memory test double for the Sink interface.
// Deliveries are recorded; failures can be scripted per worker.
type SinkDouble struct {
	mu       sync.Mutex
	actions  []Action
	failures map[string]error
}

// NewSinkDouble creates a recording sink double.
func NewSinkDouble() *SinkDouble {
	return &SinkDouble{failures: make(map[string]error)}
}

// Ensure SinkDouble implements Sink
var _ Sink = (*SinkDouble)(nil)

// FailFor scripts delivery failure for a worker. Pass nil to clear.
func (d *SinkDouble) FailFor(worker string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err == nil {
		delete(d.failures, worker)
		return
	}
	d.failures[worker] = err
}

func (d *SinkDouble) Deliver(action Action) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err, ok := d.failures[action.Worker]; ok {
		return err
	}
	d.actions = append(d.actions, action)
	return nil
}

// Actions returns the delivered actions in order.
func (d *SinkDouble) Actions() []Action {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Action, len(d.actions))
	copy(out, d.actions)
	return out
}

// ActionsFor returns the delivered actions for one worker.
func (d *SinkDouble) ActionsFor(worker string) []Action {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []Action
	for _, a := range d.actions {
		if a.Worker == worker {
			out = append(out, a)
		}
	}
	return out
}
