package patcher

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// lock takes the advisory lock on the scratch root. Invocations against the
// same scratch root share the backup slot and must not overlap.
func (p *Patcher) lock() (func(), error) {
	root := p.cfg.Paths.ScratchRoot
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create scratch root: %w", err)
	}

	fl := flock.New(filepath.Join(root, lockName))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", root, err)
	}
	if !ok {
		return nil, ErrBusy
	}
	return func() {
		if err := fl.Unlock(); err != nil {
			p.log.Warn("failed to release lock", p.log.Args("path", fl.Path(), "error", err))
		}
	}, nil
}
