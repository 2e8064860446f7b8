package runner

import (
	"context"
	"strings"
	"sync"
)

// Recorder is an in-memory test double for the Runner interface.
// Output is scripted per command line; every call is recorded for
// test verification.
type Recorder struct {
	mu      sync.Mutex
	replies map[string]reply
	calls   []string
}

type reply struct {
	out []byte
	err error
}

// NewRecorder creates a new scripted runner double.
func NewRecorder() *Recorder {
	return &Recorder{replies: make(map[string]reply)}
}

// Ensure Recorder implements Runner
var _ Runner = (*Recorder)(nil)

// Script sets the response for a command line ("git log ...").
func (r *Recorder) Script(cmdline string, out []byte, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies[cmdline] = reply{out: out, err: err}
}

func (r *Recorder) Output(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmdline := strings.Join(append([]string{name}, args...), " ")

	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, cmdline)

	if rep, ok := r.replies[cmdline]; ok {
		return rep.out, rep.err
	}
	return nil, nil
}

// Calls returns the recorded command lines.
func (r *Recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	copy(out, r.calls)
	return out
}
