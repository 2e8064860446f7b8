package pulse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/steveyegge/vigil/internal/source"
)

// DefaultSourceTimeout bounds each individual source query. A hung source
// costs at most this much of the cycle and contributes unknown.
const DefaultSourceTimeout = 10 * time.Second

// Collector queries every configured source for a worker and returns the
// full per-source signal map. Individual source failures degrade to
// unknown entries; they never abort the other sources.
type Collector struct {
	sources map[string]source.Source
	timeout time.Duration
	logger  *log.Logger
}

// NewCollector creates a collector over the given sources.
// A nil logger discards; a zero timeout uses DefaultSourceTimeout.
func NewCollector(sources []source.Source, timeout time.Duration, logger *log.Logger) *Collector {
	if timeout <= 0 {
		timeout = DefaultSourceTimeout
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	byName := make(map[string]source.Source, len(sources))
	for _, s := range sources {
		byName[s.Name()] = s
	}
	return &Collector{sources: byName, timeout: timeout, logger: logger}
}

// Collect queries each source named in locators for the worker. The
// returned map has one entry per configured source: a timestamp when the
// source answered, nil when it was unknown this cycle. The error strings
// describe degraded sources for the snapshot's diagnostics.
func (c *Collector) Collect(ctx context.Context, locators map[string]string, worker string) (map[string]*time.Time, []string) {
	signals := make(map[string]*time.Time, len(locators))
	var errs []string

	for name, locator := range locators {
		src, ok := c.sources[name]
		if !ok {
			signals[name] = nil
			errs = append(errs, fmt.Sprintf("%s: no such source", name))
			c.logger.Printf("Warning: worker %s references unknown source %q", worker, name)
			continue
		}

		ts, err := c.query(ctx, src, locator, worker)
		if err != nil {
			signals[name] = nil
			if errors.Is(err, source.ErrNoRecord) {
				// No record is a valid answer, not a degraded source.
				continue
			}
			errs = append(errs, fmt.Sprintf("%s: %v", name, err))
			c.logger.Printf("Warning: source %s unavailable for %s: %v", name, worker, err)
			continue
		}
		t := ts
		signals[name] = &t
	}

	return signals, errs
}

// query runs a single source lookup under the per-source timeout.
func (c *Collector) query(ctx context.Context, src source.Source, locator, worker string) (time.Time, error) {
	qctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return src.Query(qctx, locator, worker)
}
