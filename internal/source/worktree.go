package source

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// WorktreeName is the registry name of the worktree mtime source.
const WorktreeName = "worktree"

func init() {
	Register(WorktreeName, func(Deps) Source { return &Worktree{} })
}

// Worktree reports the newest file modification time under the worker's
// working directory. Dot-directories (.git, .claude, ...) are skipped so
// bookkeeping churn doesn't count as activity.
type Worktree struct{}

// Ensure Worktree implements Source
var _ Source = (*Worktree)(nil)

func (w *Worktree) Name() string { return WorktreeName }

func (w *Worktree) Query(ctx context.Context, locator, worker string) (time.Time, error) {
	info, err := os.Stat(locator)
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, ErrNoRecord
		}
		return time.Time{}, err
	}
	if !info.IsDir() {
		return info.ModTime(), nil
	}

	var newest time.Time
	found := false
	err = filepath.WalkDir(locator, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are not activity evidence
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if path != locator && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return nil
		}
		if !found || fi.ModTime().After(newest) {
			newest = fi.ModTime()
			found = true
		}
		return nil
	})
	if err != nil {
		return time.Time{}, err
	}
	if !found {
		return time.Time{}, ErrNoRecord
	}
	return newest, nil
}
