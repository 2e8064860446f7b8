// Package alert derives the stalled-workers artifact from a heartbeat
// document.
package alert

import (
	"fmt"
	"os"
	"strings"

	"github.com/steveyegge/vigil/internal/liveness"
	"github.com/steveyegge/vigil/internal/pulse"
	"github.com/steveyegge/vigil/internal/util"
)

// Writer replaces the alert artifact wholesale each cycle with one line
// per stopped worker. No qualifying workers leaves an empty artifact,
// never last cycle's alerts.
type Writer struct {
	path string
}

// NewWriter creates a writer for the given artifact path.
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// Path returns the alert artifact location.
func (w *Writer) Path() string {
	return w.path
}

// Write renders the current stopped workers and replaces the artifact.
func (w *Writer) Write(doc *pulse.Document) error {
	var b strings.Builder
	for _, name := range doc.WorkersInState(liveness.StateStopped) {
		snap := doc.Workers[name]
		fmt.Fprintf(&b, "%s\t%s\n", name, liveness.FormatAge(snap.FreshnessAge))
	}
	return util.AtomicWriteFile(w.path, []byte(b.String()), 0644)
}

// Read returns the artifact's lines, one per alerted worker. A missing
// artifact reads as no alerts.
func (w *Writer) Read() ([]string, error) {
	data, err := os.ReadFile(w.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}
