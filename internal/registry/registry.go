// Package registry maps worker identities to the source-specific locators
// needed to query their activity signals.
package registry

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Registry is the static mapping from worker name to per-source locators.
// It is loaded once per process; workers with malformed entries are
// skipped (with a reason) rather than failing the load.
type Registry struct {
	workers map[string]map[string]string
	skipped map[string]string
}

// fileFormat is the on-disk TOML shape:
//
//	[workers.alpha]
//	session-log = "/town/alpha/session.jsonl"
//	worktree    = "/town/alpha/work"
//	commits     = "/town/repo"
type fileFormat struct {
	Workers map[string]map[string]string `toml:"workers"`
}

// Load reads a registry TOML file. Only total load failure (missing file,
// bad TOML) is an error; individually malformed workers are recorded in
// Skipped and excluded from Workers.
func Load(path string) (*Registry, error) {
	var parsed fileFormat
	if _, err := toml.DecodeFile(path, &parsed); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("registry file not found: %s", path)
		}
		return nil, fmt.Errorf("parsing registry %s: %w", path, err)
	}
	return New(parsed.Workers), nil
}

// New builds a registry from an in-memory mapping, applying the same
// per-worker validation as Load.
func New(workers map[string]map[string]string) *Registry {
	r := &Registry{
		workers: make(map[string]map[string]string),
		skipped: make(map[string]string),
	}

	for name, locators := range workers {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if reason := validate(locators); reason != "" {
			r.skipped[name] = reason
			continue
		}
		r.workers[name] = locators
	}
	return r
}

// validate returns a non-empty reason when a worker's locator map is
// malformed.
func validate(locators map[string]string) string {
	if len(locators) == 0 {
		return "no signal sources configured"
	}
	for src, loc := range locators {
		if strings.TrimSpace(src) == "" {
			return "empty source name"
		}
		if strings.TrimSpace(loc) == "" {
			return fmt.Sprintf("empty locator for source %q", src)
		}
	}
	return ""
}

// Workers returns the valid worker names, sorted.
func (r *Registry) Workers() []string {
	names := make([]string, 0, len(r.workers))
	for name := range r.workers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Locators returns the source → locator map for a worker, or nil if the
// worker is unknown or was skipped.
func (r *Registry) Locators(worker string) map[string]string {
	return r.workers[worker]
}

// Skipped returns worker → reason for entries rejected at load time.
func (r *Registry) Skipped() map[string]string {
	return r.skipped
}

// Len returns the number of valid workers.
func (r *Registry) Len() int {
	return len(r.workers)
}
