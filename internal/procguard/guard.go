// Package procguard stops and relaunches the process that owns the bundle.
//
// Both operations are best-effort: they report what happened through an
// Outcome and never return an error the patch pipeline has to act on.
package procguard

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
)

// Process is a running process as seen by the guard.
type Process struct {
	PID  int
	PPID int
	Name string
	// Title is the main window title. It is empty for helper processes.
	Title string
}

// Lister enumerates running processes.
type Lister interface {
	Processes() ([]Process, error)
}

// Outcome reports the result of a best-effort operation.
type Outcome struct {
	PID  int
	Done bool
	Err  error
}

func (o Outcome) String() string {
	switch {
	case o.Err != nil:
		return fmt.Sprintf("failed: %v", o.Err)
	case o.Done:
		return fmt.Sprintf("ok (pid %d)", o.PID)
	default:
		return "nothing to do"
	}
}

// Guard stops and restarts the application owning the bundle.
type Guard struct {
	name       string
	executable string
	lister     Lister
	kill       func(pid int) error
	start      func(path string) (int, error)
}

// Option configures a Guard.
type Option func(*Guard)

// WithLister replaces the process lister.
func WithLister(l Lister) Option {
	return func(g *Guard) { g.lister = l }
}

// WithKill replaces the function used to terminate a process.
func WithKill(fn func(pid int) error) Option {
	return func(g *Guard) { g.kill = fn }
}

// WithStart replaces the function used to launch the executable.
func WithStart(fn func(path string) (int, error)) Option {
	return func(g *Guard) { g.start = fn }
}

// New returns a Guard for processes called name, relaunched from executable.
func New(name, executable string, opts ...Option) *Guard {
	g := &Guard{
		name:       name,
		executable: executable,
		lister:     psLister{},
		kill:       killProcess,
		start:      startDetached,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Stop terminates the first process matching the guard's name that has a
// main window title longer than one character. A missing process is not an
// error.
func (g *Guard) Stop() Outcome {
	procs, err := g.lister.Processes()
	if err != nil {
		return Outcome{Err: fmt.Errorf("failed to list processes: %w", err)}
	}

	target, ok := lo.Find(procs, func(p Process) bool {
		return matchesName(p.Name, g.name) && len(p.Title) > 1
	})
	if !ok {
		return Outcome{}
	}

	if err := g.kill(target.PID); err != nil {
		return Outcome{PID: target.PID, Err: fmt.Errorf("failed to kill pid %d: %w", target.PID, err)}
	}
	return Outcome{PID: target.PID, Done: true}
}

// Relaunch starts the application executable without waiting for it.
func (g *Guard) Relaunch() Outcome {
	if g.executable == "" {
		return Outcome{Err: fmt.Errorf("no executable configured")}
	}
	pid, err := g.start(g.executable)
	if err != nil {
		return Outcome{Err: fmt.Errorf("failed to start %s: %w", g.executable, err)}
	}
	return Outcome{PID: pid, Done: true}
}

// matchesName compares process names case-insensitively, ignoring a
// trailing ".exe".
func matchesName(procName, want string) bool {
	norm := func(s string) string {
		s = strings.ToLower(filepath.Base(s))
		return strings.TrimSuffix(s, ".exe")
	}
	return norm(procName) == norm(want)
}

func killProcess(pid int) error {
	p, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return p.Kill()
}

func startDetached(path string) (int, error) {
	cmd := exec.Command(path)
	cmd.Dir = filepath.Dir(path)
	if err := cmd.Start(); err != nil {
		return 0, err
	}
	pid := cmd.Process.Pid
	// Not waited on; the application outlives us.
	_ = cmd.Process.Release()
	return pid, nil
}
