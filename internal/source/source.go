// Package source provides the pluggable activity signal sources.
//
// Each source answers one question for one worker: when did this evidence
// channel last see activity? Sources are independent; the collector treats
// any failure as "unknown for this cycle" and keeps going.
package source

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/steveyegge/vigil/internal/runner"
)

// ErrNoRecord is returned when a source is reachable but has no activity
// record for the worker. Callers treat it the same as an unreachable
// source (unknown), but log it differently.
var ErrNoRecord = errors.New("no activity record")

// Source is a named provider of activity evidence.
type Source interface {
	// Name returns the source's registry name.
	Name() string

	// Query returns the last observed activity for worker at locator.
	// Returns ErrNoRecord when there is no record at all.
	Query(ctx context.Context, locator, worker string) (time.Time, error)
}

// Deps carries the collaborators a source may need.
type Deps struct {
	Runner runner.Runner
}

// Factory constructs a source from its dependencies.
type Factory func(deps Deps) Source

var (
	factoryMu sync.RWMutex
	factories = make(map[string]Factory)
)

// Register adds a named source factory. New source types are additive:
// the collector never needs to change.
func Register(name string, f Factory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	factories[name] = f
}

// New builds the named source.
func New(name string, deps Deps) (Source, error) {
	factoryMu.RLock()
	f, ok := factories[name]
	factoryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown signal source %q", name)
	}
	return f(deps), nil
}

// Names returns the registered source names, sorted.
func Names() []string {
	factoryMu.RLock()
	defer factoryMu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
