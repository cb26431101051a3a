package patcher

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ezblocker/spapatch/pkg/util"
)

// IsAlreadyPatched reports whether the expanded bundle in workspace already
// carries the injected worker.
func IsAlreadyPatched(workspace string) bool {
	return util.FileExists(filepath.Join(workspace, filepath.FromSlash(WorkerEntry)))
}

// patchContent writes the worker into workspace and rewrites the markup
// entry. It returns the substitutions that matched nothing.
func (p *Patcher) patchContent(workspace string) ([]string, error) {
	markupPath := filepath.Join(workspace, filepath.FromSlash(MarkupEntry))

	info, err := os.Stat(markupPath)
	if err != nil {
		return nil, fmt.Errorf("markup entry %s: %w", MarkupEntry, err)
	}

	workerPath := filepath.Join(workspace, filepath.FromSlash(WorkerEntry))
	if err := os.WriteFile(workerPath, []byte(p.worker), 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", WorkerEntry, err)
	}

	content, err := os.ReadFile(markupPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", MarkupEntry, err)
	}

	patched, unmatched := p.patches.Apply(string(content))

	if err := os.WriteFile(markupPath, []byte(patched), info.Mode().Perm()); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", MarkupEntry, err)
	}
	return unmatched, nil
}
