package patcher

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ezblocker/spapatch/internal/procguard"
	"github.com/ezblocker/spapatch/pkg/util"
	"github.com/pterm/pterm"
)

// State is a step of the patch pipeline.
type State string

const (
	StateIdle          State = "idle"
	StateStoppingOwner State = "stopping-owner"
	StateExpanding     State = "expanding"
	StatePatching      State = "patching"
	StateBuilding      State = "building"
	StateSwapping      State = "swapping"
	StateRelaunching   State = "relaunching"
	StateDone          State = "done"
	StateRollingBack   State = "rolling-back"
	StateFailed        State = "failed"
)

// maxWorkspaceAttempts bounds the search for an unused scratch directory name.
const maxWorkspaceAttempts = 32

// Owner is the application holding the bundle open. Both calls are
// best-effort; their outcome is logged and never fails a patch.
type Owner interface {
	Stop() procguard.Outcome
	Relaunch() procguard.Outcome
}

// Result describes a finished Patch call.
type Result struct {
	State State

	// AlreadyPatched is set when the bundle carried the worker before this run
	AlreadyPatched bool

	// Unmatched lists substitutions that found nothing in the markup entry
	Unmatched []string

	Entries int
	Bytes   int64

	Stopped    procguard.Outcome
	Relaunched procguard.Outcome

	// RolledBack is set when the backup was copied over the target
	RolledBack bool

	// Workspace is the scratch directory used (and removed) by the run
	Workspace string
}

// Patcher runs the patch pipeline against one target bundle.
type Patcher struct {
	cfg     Config
	owner   Owner
	patches PatchSet
	worker  string
	log     *pterm.Logger

	stopOwner bool
	relaunch  bool

	build    func(srcDir, destZip string) (*util.ZipStats, error)
	swap     func(replacement, target, backup string) error
	randName func() int
}

// Option configures a Patcher.
type Option func(*Patcher)

// WithLogger sets the diagnostics logger.
func WithLogger(l *pterm.Logger) Option {
	return func(p *Patcher) { p.log = l }
}

// WithoutStop skips stopping the owner process.
func WithoutStop() Option {
	return func(p *Patcher) { p.stopOwner = false }
}

// WithoutRelaunch skips relaunching the owner process after a successful patch.
func WithoutRelaunch() Option {
	return func(p *Patcher) { p.relaunch = false }
}

// New returns a Patcher for cfg. A nil owner uses a procguard.Guard built
// from the configured process name and executable.
func New(cfg Config, owner Owner, opts ...Option) (*Patcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if owner == nil {
		owner = procguard.New(cfg.ProcessName, cfg.Paths.Executable)
	}

	p := &Patcher{
		cfg:       cfg,
		owner:     owner,
		patches:   NewPatchSet(cfg.Website),
		worker:    WorkerScript(cfg.ListenerPort),
		log:       pterm.DefaultLogger.WithLevel(pterm.LogLevelInfo),
		stopOwner: true,
		relaunch:  true,
		build:     util.ZipDirectory,
		swap:      util.ReplaceWithBackup,
		randName:  func() int { return rand.IntN(9000) + 1000 },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Config returns the patcher's configuration.
func (p *Patcher) Config() Config {
	return p.cfg
}

// Patch stops the owner, expands the bundle into a fresh workspace, injects
// the worker, rebuilds the bundle and swaps it into place with a backup.
//
// Any failure after the owner is stopped copies the backup, when one exists,
// over the target and returns an *Error.
// The workspace is removed in every case. ErrBusy is returned, with nothing
// touched, when another invocation holds the scratch root.
func (p *Patcher) Patch() (*Result, error) {
	unlock, err := p.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	res := &Result{State: StateIdle}

	if p.stopOwner {
		p.enter(res, StateStoppingOwner)
		res.Stopped = p.owner.Stop()
		p.log.Debug("owner stop", p.log.Args("name", p.cfg.ProcessName, "outcome", res.Stopped.String()))
		if res.Stopped.Err != nil {
			p.log.Warn("could not stop owner process", p.log.Args("error", res.Stopped.Err))
		}
	}

	err = p.run(res)
	p.removeWorkspace(res.Workspace)
	p.removeBuild()

	if err != nil {
		p.log.Error("patch failed", p.log.Args("state", string(res.State), "error", err))
		p.rollback(res)
		p.enter(res, StateFailed)
		return res, err
	}

	if p.relaunch {
		p.enter(res, StateRelaunching)
		res.Relaunched = p.owner.Relaunch()
		if res.Relaunched.Err != nil {
			p.log.Warn("could not relaunch owner", p.log.Args("error", res.Relaunched.Err))
		}
	}

	p.enter(res, StateDone)
	return res, nil
}

// run executes expand, patch, build and swap.
func (p *Patcher) run(res *Result) error {
	paths := p.cfg.Paths

	p.enter(res, StateExpanding)
	workspace, err := p.newWorkspace()
	if err != nil {
		return newError(ErrExtraction, res.State, err)
	}
	res.Workspace = workspace

	if err := util.Unzip(paths.Target, workspace); err != nil {
		return newError(ErrExtraction, res.State, err)
	}

	p.enter(res, StatePatching)
	if IsAlreadyPatched(workspace) {
		// Still repacked and swapped below, which refreshes the backup.
		res.AlreadyPatched = true
		p.log.Info("bundle already patched", p.log.Args("target", paths.Target))
	} else {
		unmatched, err := p.patchContent(workspace)
		if err != nil {
			return newError(ErrPatchIO, res.State, err)
		}
		res.Unmatched = unmatched
		if len(unmatched) > 0 {
			p.log.Warn("some substitutions matched nothing", p.log.Args("unmatched", len(unmatched)))
		}
	}

	p.enter(res, StateBuilding)
	if err := os.Remove(paths.BuildPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return newError(ErrBuild, res.State, fmt.Errorf("failed to remove stale build: %w", err))
	}
	stats, err := p.build(workspace, paths.BuildPath)
	if err != nil {
		_ = os.Remove(paths.BuildPath)
		return newError(ErrBuild, res.State, err)
	}
	res.Entries = stats.Entries
	res.Bytes = stats.Bytes
	p.log.Debug("bundle built", p.log.Args("entries", stats.Entries, "bytes", stats.Bytes, "path", paths.BuildPath))

	p.enter(res, StateSwapping)
	if err := p.swap(paths.BuildPath, paths.Target, paths.Backup); err != nil {
		return newError(ErrSwap, res.State, err)
	}
	return nil
}

// rollback copies the backup, when there is one, over the target.
func (p *Patcher) rollback(res *Result) {
	p.enter(res, StateRollingBack)
	res.RolledBack = p.restore()
}

// Restore copies the backup over the target. It reports false when there is
// no backup, the copy failed, or another invocation holds the scratch root.
func (p *Patcher) Restore() bool {
	unlock, err := p.lock()
	if err != nil {
		p.log.Error("cannot restore", p.log.Args("error", err))
		return false
	}
	defer unlock()
	return p.restore()
}

func (p *Patcher) restore() bool {
	paths := p.cfg.Paths
	if !util.FileExists(paths.Backup) {
		p.log.Warn("no backup to restore", p.log.Args("backup", paths.Backup))
		return false
	}
	if err := util.AtomicCopy(paths.Backup, paths.Target); err != nil {
		p.log.Error("restore failed", p.log.Args("backup", paths.Backup, "target", paths.Target, "error", err))
		return false
	}
	p.log.Info("restored backup", p.log.Args("target", paths.Target))
	return true
}

// newWorkspace picks an unused numbered directory under the scratch root.
// The directory itself is created by the extraction.
func (p *Patcher) newWorkspace() (string, error) {
	root := p.cfg.Paths.ScratchRoot
	for i := 0; i < maxWorkspaceAttempts; i++ {
		dir := filepath.Join(root, strconv.Itoa(p.randName()))
		if _, err := os.Lstat(dir); errors.Is(err, os.ErrNotExist) {
			return dir, nil
		}
	}
	return "", fmt.Errorf("no free workspace name under %s", root)
}

func (p *Patcher) removeWorkspace(dir string) {
	if dir == "" {
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		p.log.Warn("failed to remove workspace", p.log.Args("workspace", dir, "error", err))
	}
}

// removeBuild deletes the build output. Failure is logged, never returned.
func (p *Patcher) removeBuild() {
	err := os.Remove(p.cfg.Paths.BuildPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		p.log.Warn("failed to remove build output", p.log.Args("path", p.cfg.Paths.BuildPath, "error", err))
	}
}

func (p *Patcher) enter(res *Result, s State) {
	p.log.Trace("state", p.log.Args("from", string(res.State), "to", string(s)))
	res.State = s
}
