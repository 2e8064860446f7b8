package source

import (
	"context"
	"strings"
	"time"

	"github.com/steveyegge/vigil/internal/runner"
)

// CommitsName is the registry name of the commit trail source.
const CommitsName = "commits"

func init() {
	Register(CommitsName, func(deps Deps) Source {
		r := deps.Runner
		if r == nil {
			r = runner.NewLocal()
		}
		return &Commits{runner: r}
	})
}

// Commits reports the author date of the worker's most recent commit in
// the locator repository. The worker identity is matched against the
// commit author, which is how agents sign their work.
type Commits struct {
	runner runner.Runner
}

// Ensure Commits implements Source
var _ Source = (*Commits)(nil)

// NewCommits creates a commit trail source with an explicit runner.
func NewCommits(r runner.Runner) *Commits {
	return &Commits{runner: r}
}

func (c *Commits) Name() string { return CommitsName }

func (c *Commits) Query(ctx context.Context, locator, worker string) (time.Time, error) {
	out, err := c.runner.Output(ctx, locator,
		"git", "log", "-1", "--author="+worker, "--format=%aI")
	if err != nil {
		return time.Time{}, err
	}

	raw := strings.TrimSpace(string(out))
	if raw == "" {
		return time.Time{}, ErrNoRecord
	}

	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return ts, nil
}
