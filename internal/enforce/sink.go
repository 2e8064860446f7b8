package enforce

import (
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/steveyegge/vigil/internal/liveness"
	"github.com/steveyegge/vigil/internal/util"
)

// Action is a single enforcement decision for one worker in one cycle.
type Action struct {
	ID                string         `json:"id"`
	Worker            string         `json:"worker"`
	Kind              Kind           `json:"kind"`
	Level             int            `json:"level"`
	State             liveness.State `json:"state"`
	ConsecutiveCycles int            `json:"consecutive_cycles"`
	FreshnessAge      string         `json:"freshness_age"`
	EmittedAt         time.Time      `json:"emitted_at"`
}

// Sink delivers enforcement actions to the outside world. The concrete
// transport (agent nudge, ticket system, process supervisor) lives behind
// this single call; the engine has no knowledge of delivery.
type Sink interface {
	Deliver(action Action) error
}

// LogSink records actions to a logger. Delivery never fails.
type LogSink struct {
	logger *log.Logger
}

// NewLogSink creates a sink that logs each action.
func NewLogSink(logger *log.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Ensure LogSink implements Sink
var _ Sink = (*LogSink)(nil)

func (s *LogSink) Deliver(action Action) error {
	s.logger.Printf("ENFORCE %s: %s (level %d) after %d cycle(s) %s, last activity %s",
		action.Worker, action.Kind, action.Level,
		action.ConsecutiveCycles, action.State, action.FreshnessAge)
	return nil
}

// OutboxSink drops each action as a JSON file into an outbox directory
// for an external dispatcher to pick up.
type OutboxSink struct {
	dir string
}

// NewOutboxSink creates an outbox sink writing into dir.
func NewOutboxSink(dir string) *OutboxSink {
	return &OutboxSink{dir: dir}
}

// Ensure OutboxSink implements Sink
var _ Sink = (*OutboxSink)(nil)

func (s *OutboxSink) Deliver(action Action) error {
	path := filepath.Join(s.dir, action.ID+".json")
	if err := util.AtomicWriteJSON(path, action); err != nil {
		return fmt.Errorf("writing action to outbox: %w", err)
	}
	return nil
}

// MultiSink fans an action out to several sinks. The first delivery
// failure is returned; the action is not considered applied.
type MultiSink []Sink

// Ensure MultiSink implements Sink
var _ Sink = (MultiSink)(nil)

func (m MultiSink) Deliver(action Action) error {
	for _, s := range m {
		if err := s.Deliver(action); err != nil {
			return err
		}
	}
	return nil
}
