package patcher

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ezblocker/spapatch/pkg/util"
	"github.com/pmezard/go-difflib/difflib"
)

// Preview is the outcome of a dry run.
type Preview struct {
	AlreadyPatched bool
	Unmatched      []string
	// Diff is a unified diff of the markup entry
	Diff string
	// Worker is the script that would be added
	Worker string
}

// Preview expands the target into a scratch workspace and applies the
// content patch there without building or swapping anything. The owner
// process is left alone.
func (p *Patcher) Preview() (*Preview, error) {
	unlock, err := p.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	workspace, err := p.newWorkspace()
	if err != nil {
		return nil, newError(ErrExtraction, StateExpanding, err)
	}
	defer p.removeWorkspace(workspace)

	if err := util.Unzip(p.cfg.Paths.Target, workspace); err != nil {
		return nil, newError(ErrExtraction, StateExpanding, err)
	}

	if IsAlreadyPatched(workspace) {
		return &Preview{AlreadyPatched: true}, nil
	}

	markupPath := filepath.Join(workspace, filepath.FromSlash(MarkupEntry))
	before, err := os.ReadFile(markupPath)
	if err != nil {
		return nil, newError(ErrPatchIO, StatePatching, err)
	}

	unmatched, err := p.patchContent(workspace)
	if err != nil {
		return nil, newError(ErrPatchIO, StatePatching, err)
	}

	after, err := os.ReadFile(markupPath)
	if err != nil {
		return nil, newError(ErrPatchIO, StatePatching, err)
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(before)),
		B:        difflib.SplitLines(string(after)),
		FromFile: "a/" + MarkupEntry,
		ToFile:   "b/" + MarkupEntry,
		Context:  3,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to diff %s: %w", MarkupEntry, err)
	}

	return &Preview{
		Unmatched: unmatched,
		Diff:      diff,
		Worker:    p.worker,
	}, nil
}
