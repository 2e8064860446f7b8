package doctor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// tempFileGrace is how old a .tmp file must be before it counts as
// abandoned. Live cycles rename theirs within milliseconds.
const tempFileGrace = time.Minute

// TempFileCheck detects .tmp files left in the state directory by
// interrupted atomic swaps. They are harmless to correctness but
// accumulate forever without cleanup.
type TempFileCheck struct {
	FixableCheck
	stale []string // cached during Run for use in Fix
}

// NewTempFileCheck creates the abandoned temp file check.
func NewTempFileCheck() *TempFileCheck {
	return &TempFileCheck{
		FixableCheck: FixableCheck{
			BaseCheck: BaseCheck{
				CheckName:        "temp-files",
				CheckDescription: "Detect abandoned atomic-write temp files",
				CheckCategory:    CategoryArtifacts,
			},
		},
	}
}

func (c *TempFileCheck) Run(ctx *CheckContext) *CheckResult {
	stateDir := ctx.Config.Paths.StateDir

	var stale []string
	err := filepath.WalkDir(stateDir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".tmp") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if ctx.Now.Sub(info.ModTime()) > tempFileGrace {
			stale = append(stale, path)
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return &CheckResult{
			Name:     c.Name(),
			Status:   StatusWarning,
			Message:  "Could not scan state directory",
			Details:  []string{err.Error()},
			Category: c.CheckCategory,
		}
	}

	c.stale = stale

	if len(stale) == 0 {
		return &CheckResult{
			Name:     c.Name(),
			Status:   StatusOK,
			Message:  "No abandoned temp files",
			Category: c.CheckCategory,
		}
	}

	details := make([]string, len(stale))
	for i, path := range stale {
		details[i] = path
	}
	return &CheckResult{
		Name:     c.Name(),
		Status:   StatusWarning,
		Message:  fmt.Sprintf("Found %d abandoned temp file(s)", len(stale)),
		Details:  details,
		FixHint:  "Run 'vg doctor --fix' to remove them",
		Category: c.CheckCategory,
	}
}

// Fix removes the abandoned temp files found during Run.
func (c *TempFileCheck) Fix(ctx *CheckContext) error {
	var lastErr error
	for _, path := range c.stale {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			lastErr = err
		}
	}
	return lastErr
}
