package procguard

import (
	ps "github.com/mitchellh/go-ps"
)

// psLister lists processes through go-ps and fills in window titles from
// the platform.
type psLister struct{}

func (psLister) Processes() ([]Process, error) {
	raw, err := ps.Processes()
	if err != nil {
		return nil, err
	}

	procs := make([]Process, 0, len(raw))
	for _, p := range raw {
		procs = append(procs, Process{
			PID:  p.Pid(),
			PPID: p.PPid(),
			Name: p.Executable(),
		})
	}

	if err := annotateTitles(procs); err != nil {
		return nil, err
	}
	return procs, nil
}
