package source

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"time"
)

// SessionLogName is the registry name of the session transcript source.
const SessionLogName = "session-log"

func init() {
	Register(SessionLogName, func(Deps) Source { return &SessionLog{} })
}

// SessionLog reports the timestamp of the last event in a JSONL session
// transcript. Events carry a "ts" or "timestamp" field in RFC 3339 form;
// when the tail is unparsable the file's own mtime is the fallback, since
// an appending writer is activity either way.
type SessionLog struct{}

// Ensure SessionLog implements Source
var _ Source = (*SessionLog)(nil)

func (s *SessionLog) Name() string { return SessionLogName }

// maxLineSize bounds transcript line scanning (tool events can be large).
const maxLineSize = 1024 * 1024

func (s *SessionLog) Query(ctx context.Context, locator, worker string) (time.Time, error) {
	f, err := os.Open(locator)
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, ErrNoRecord
		}
		return time.Time{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return time.Time{}, err
	}
	if info.Size() == 0 {
		return time.Time{}, ErrNoRecord
	}

	var lastLine []byte
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return time.Time{}, ctxErr
		}
		line := scanner.Bytes()
		if len(line) > 0 {
			lastLine = append(lastLine[:0], line...)
		}
	}

	if ts, ok := parseEventTimestamp(lastLine); ok {
		return ts, nil
	}

	// Unparsable tail: the writer was still appending, so mtime stands in.
	return info.ModTime(), nil
}

// parseEventTimestamp extracts an RFC 3339 timestamp from a JSONL event.
func parseEventTimestamp(line []byte) (time.Time, bool) {
	if len(line) == 0 {
		return time.Time{}, false
	}

	var event struct {
		TS        string `json:"ts"`
		Timestamp string `json:"timestamp"`
	}
	if err := json.Unmarshal(line, &event); err != nil {
		return time.Time{}, false
	}

	raw := event.TS
	if raw == "" {
		raw = event.Timestamp
	}
	if raw == "" {
		return time.Time{}, false
	}

	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
