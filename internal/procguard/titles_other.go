//go:build !windows

package procguard

// annotateTitles has no window system to ask outside Windows. The
// interactive instance is taken to be the root of a tree of same-named
// processes, and it is given its own name as title; the helpers it spawned
// are left untitled.
func annotateTitles(procs []Process) error {
	byPID := make(map[int]Process, len(procs))
	for _, p := range procs {
		byPID[p.PID] = p
	}

	for i, p := range procs {
		parent, ok := byPID[p.PPID]
		if ok && matchesName(parent.Name, p.Name) {
			continue
		}
		procs[i].Title = p.Name
	}
	return nil
}
