package source

import (
	"context"
	"sync"
	"time"
)

// Double is an in-memory test double for the Source interface.
// Responses are scripted per worker; queries are recorded for
// test verification.
type Double struct {
	name string

	mu      sync.Mutex
	replies map[string]doubleReply
	queries []string
}

type doubleReply struct {
	ts  time.Time
	err error
}

// NewDouble creates a scripted source double with the given name.
func NewDouble(name string) *Double {
	return &Double{
		name:    name,
		replies: make(map[string]doubleReply),
	}
}

// Ensure Double implements Source
var _ Source = (*Double)(nil)

func (d *Double) Name() string { return d.name }

// Report scripts a timestamp for a worker.
func (d *Double) Report(worker string, ts time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.replies[worker] = doubleReply{ts: ts}
}

// Fail scripts an error for a worker.
func (d *Double) Fail(worker string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.replies[worker] = doubleReply{err: err}
}

// Query returns the scripted response, or ErrNoRecord for unscripted
// workers.
func (d *Double) Query(ctx context.Context, locator, worker string) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.queries = append(d.queries, worker)

	rep, ok := d.replies[worker]
	if !ok {
		return time.Time{}, ErrNoRecord
	}
	if rep.err != nil {
		return time.Time{}, rep.err
	}
	return rep.ts, nil
}

// Queries returns the workers queried, in order (for test verification).
func (d *Double) Queries() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.queries))
	copy(out, d.queries)
	return out
}
